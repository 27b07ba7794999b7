// Package escrow implements the escrow ledger: per-(pot, cycle) bookkeeping
// of deposited principal, released principal, and withdrawn interest.
//
// The ledger is the only component that talks to the yield reserve. Every
// reserve call is verified by comparing observed balances before and after;
// a reserve that silently no-ops is a hard dependency failure, never a soft
// zero. The invariant enforced across all operations: principal released for
// a bucket never exceeds principal deposited for that bucket.
package escrow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/esusuhq/esusu/internal/models"
	"github.com/esusuhq/esusu/internal/reserve"
	"github.com/esusuhq/esusu/internal/storage"
)

var (
	// ErrInvalidAmount is returned for a non-positive amount or zero ids.
	ErrInvalidAmount = errors.New("invalid deposit parameters")
	// ErrInsufficientBucket is returned when a release exceeds the bucket's
	// remaining principal.
	ErrInsufficientBucket = errors.New("bucket cannot cover requested release")
	// ErrReserveVerification is returned when the reserve's observed balance
	// delta does not match the requested movement.
	ErrReserveVerification = errors.New("reserve balance verification failed")
	// ErrInterestTaken is returned when a bucket's interest has already been
	// withdrawn.
	ErrInterestTaken = errors.New("bucket interest already withdrawn")
	// ErrAlreadySettled is returned when settling an already-settled bucket.
	ErrAlreadySettled = errors.New("bucket already settled")
)

type bucketKey struct {
	pot   uint64
	cycle uint64
}

// bucket holds the running totals for one (pot, cycle).
// Invariants: withdrawn <= deposited; interestTaken and settled are monotonic.
type bucket struct {
	deposited         int64
	withdrawn         int64
	interestWithdrawn int64
	interestTaken     bool
	settled           bool
}

// Ledger tracks escrow buckets and moves funds through the yield reserve.
// Buckets are mutated only by the ledger itself, under its lock; callers
// (the engine) are the single writer per bucket, which keeps the balance
// invariants checkable without any distributed coordination.
type Ledger struct {
	mu      sync.Mutex
	res     reserve.Reserve
	store   storage.Store
	buckets map[bucketKey]*bucket
}

// New creates a ledger on top of the given reserve and store.
func New(res reserve.Reserve, store storage.Store) *Ledger {
	return &Ledger{
		res:     res,
		store:   store,
		buckets: make(map[bucketKey]*bucket),
	}
}

func (l *Ledger) bucketFor(pot, cycle uint64) *bucket {
	k := bucketKey{pot, cycle}
	b, ok := l.buckets[k]
	if !ok {
		b = &bucket{}
		l.buckets[k] = b
	}
	return b
}

// DepositPrincipal forwards amount into the reserve for the (pot, cycle)
// bucket. The reserve's custodied balance must be observed to grow by at
// least amount, or the whole call fails and the bucket is untouched.
// On success the deposit is recorded as audit history.
func (l *Ledger) DepositPrincipal(ctx context.Context, pot, cycle uint64, payer string, amount int64) error {
	if amount <= 0 || pot == 0 || cycle == 0 {
		return fmt.Errorf("%w: pot=%d cycle=%d amount=%d", ErrInvalidAmount, pot, cycle, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pre, err := l.res.PrincipalBalance(ctx)
	if err != nil {
		return fmt.Errorf("reading reserve balance: %w", err)
	}

	if err := l.res.Supply(ctx, pot, cycle, amount); err != nil {
		return fmt.Errorf("supplying reserve: %w", err)
	}

	post, err := l.res.PrincipalBalance(ctx)
	if err != nil {
		return fmt.Errorf("reading reserve balance: %w", err)
	}
	if post-pre < amount {
		return fmt.Errorf("%w: supply of %d moved balance by %d", ErrReserveVerification, amount, post-pre)
	}

	b := l.bucketFor(pot, cycle)
	b.deposited += amount

	dep := &models.Deposit{PotID: pot, CycleID: cycle, Payer: payer, Amount: amount}
	if err := l.store.RecordDeposit(ctx, dep); err != nil {
		// Funds are custodied and the bucket is consistent with the reserve;
		// a failed audit write degrades history but must not unwind custody.
		slog.Error("failed to record deposit", "pot", pot, "cycle", cycle, "payer", payer, "error", err)
	}

	return nil
}

// ReleaseWinnerPrincipal pulls amount from the reserve and pays the winner.
// Fails with ErrInsufficientBucket if the bucket cannot cover amount; never
// partially pays.
func (l *Ledger) ReleaseWinnerPrincipal(ctx context.Context, pot, cycle uint64, winner string, amount int64) error {
	if amount <= 0 || pot == 0 || cycle == 0 {
		return fmt.Errorf("%w: pot=%d cycle=%d amount=%d", ErrInvalidAmount, pot, cycle, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.bucketFor(pot, cycle)
	if b.deposited-b.withdrawn < amount {
		return fmt.Errorf("%w: held=%d requested=%d",
			ErrInsufficientBucket, b.deposited-b.withdrawn, amount)
	}

	pre, err := l.res.PrincipalBalance(ctx)
	if err != nil {
		return fmt.Errorf("reading reserve balance: %w", err)
	}

	if err := l.res.WithdrawPrincipal(ctx, pot, cycle, amount); err != nil {
		return fmt.Errorf("withdrawing principal: %w", err)
	}

	post, err := l.res.PrincipalBalance(ctx)
	if err != nil {
		return fmt.Errorf("reading reserve balance: %w", err)
	}
	if pre-post != amount {
		return fmt.Errorf("%w: withdrawal of %d moved balance by %d", ErrReserveVerification, amount, pre-post)
	}

	b.withdrawn += amount

	slog.Info("winner principal released",
		"pot", pot, "cycle", cycle, "winner", winner, "amount", amount)
	return nil
}

// WithdrawBucketInterest withdraws the bucket's accrued interest from the
// reserve and returns it for distribution. A bucket's interest can be taken
// exactly once; a second call fails explicitly rather than re-deriving a new
// figure from a stale reserve read.
func (l *Ledger) WithdrawBucketInterest(ctx context.Context, pot, cycle uint64) (int64, error) {
	if pot == 0 || cycle == 0 {
		return 0, fmt.Errorf("%w: pot=%d cycle=%d", ErrInvalidAmount, pot, cycle)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.bucketFor(pot, cycle)
	if b.interestTaken {
		return 0, fmt.Errorf("%w: pot=%d cycle=%d", ErrInterestTaken, pot, cycle)
	}

	expected, err := l.res.AccruedInterest(ctx, pot, cycle)
	if err != nil {
		return 0, fmt.Errorf("reading accrued interest: %w", err)
	}

	got, err := l.res.WithdrawInterest(ctx, pot, cycle)
	if err != nil {
		return 0, fmt.Errorf("withdrawing interest: %w", err)
	}
	if got != expected {
		return 0, fmt.Errorf("%w: accrued %d but reserve paid %d", ErrReserveVerification, expected, got)
	}

	b.interestTaken = true
	b.interestWithdrawn = got

	return got, nil
}

// MarkSettled flips the bucket's settled flag. One-way: fails if already set.
func (l *Ledger) MarkSettled(pot, cycle uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.bucketFor(pot, cycle)
	if b.settled {
		return fmt.Errorf("%w: pot=%d cycle=%d", ErrAlreadySettled, pot, cycle)
	}
	b.settled = true
	return nil
}

// BucketTotals reports a bucket's running totals: principal deposited,
// principal withdrawn, and interest withdrawn.
func (l *Ledger) BucketTotals(pot, cycle uint64) (deposited, withdrawn, interest int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.bucketFor(pot, cycle)
	return b.deposited, b.withdrawn, b.interestWithdrawn
}
