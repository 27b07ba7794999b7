package reserve

import (
	"context"
	"fmt"
	"sync"
)

// Ensure Sim implements Reserve
var _ Reserve = (*Sim)(nil)

type bucketKey struct {
	pot   uint64
	cycle uint64
}

// Sim is an in-process reserve simulator. Interest accrues deterministically:
// each supplied amount immediately accrues amount*rateBps/10000 of interest
// for its bucket. Tests can also add interest directly with Accrue.
//
// Sim additionally supports fault injection so the ledger's fail-closed
// verification paths can be exercised: a silently no-oping reserve must be
// detected as a hard failure, never read as a soft zero.
type Sim struct {
	mu        sync.Mutex
	rateBps   int64
	principal map[bucketKey]int64
	interest  map[bucketKey]int64
	total     int64

	// DropSupplies makes Supply return nil without crediting anything.
	DropSupplies bool
	// DropWithdrawals makes WithdrawPrincipal return nil without moving funds.
	DropWithdrawals bool
	// ShortInterest makes WithdrawInterest pay out one unit less than accrued.
	ShortInterest bool
}

// NewSim creates a simulator accruing rateBps basis points of interest per
// supplied amount.
func NewSim(rateBps int64) *Sim {
	return &Sim{
		rateBps:   rateBps,
		principal: make(map[bucketKey]int64),
		interest:  make(map[bucketKey]int64),
	}
}

// Supply credits the bucket and accrues interest at the configured rate.
func (s *Sim) Supply(ctx context.Context, pot, cycle uint64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("supply amount must be positive, got %d", amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.DropSupplies {
		return nil
	}

	k := bucketKey{pot, cycle}
	s.principal[k] += amount
	s.interest[k] += amount * s.rateBps / 10000
	s.total += amount
	return nil
}

// WithdrawPrincipal debits the bucket.
func (s *Sim) WithdrawPrincipal(ctx context.Context, pot, cycle uint64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("withdrawal amount must be positive, got %d", amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.DropWithdrawals {
		return nil
	}

	k := bucketKey{pot, cycle}
	if s.principal[k] < amount {
		return fmt.Errorf("%w: bucket (%d,%d) holds %d, requested %d",
			ErrInsufficientReserve, pot, cycle, s.principal[k], amount)
	}
	s.principal[k] -= amount
	s.total -= amount
	return nil
}

// WithdrawInterest pays out and clears the bucket's accrued interest.
func (s *Sim) WithdrawInterest(ctx context.Context, pot, cycle uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := bucketKey{pot, cycle}
	amount := s.interest[k]
	s.interest[k] = 0

	if s.ShortInterest && amount > 0 {
		return amount - 1, nil
	}
	return amount, nil
}

// AccruedInterest reports the bucket's unwithdrawn interest.
func (s *Sim) AccruedInterest(ctx context.Context, pot, cycle uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interest[bucketKey{pot, cycle}], nil
}

// PrincipalBalance reports total custodied principal.
func (s *Sim) PrincipalBalance(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total, nil
}

// Accrue adds interest to a bucket directly. Test and demo hook.
func (s *Sim) Accrue(pot, cycle uint64, amount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interest[bucketKey{pot, cycle}] += amount
}
