// Package reserve defines the yield reserve boundary: the external service
// that custodies principal and earns yield on it while it sits idle.
//
// The engine never computes yield itself. It asks the reserve and trusts the
// answer only after verifying observed balance deltas (see internal/escrow).
package reserve

import (
	"context"
	"errors"
)

var (
	// ErrInsufficientReserve is returned when a withdrawal exceeds what the
	// reserve holds for the bucket.
	ErrInsufficientReserve = errors.New("reserve holds less than requested")
)

// Reserve is the contract the escrow ledger consumes. Implementations may be
// a DeFi lending pool adapter, a bank sweep account, or the in-process
// simulator; the ledger does not care, because every movement is verified by
// pre/post balance comparison.
type Reserve interface {
	// Supply transfers amount of principal into custody for the (pot, cycle)
	// bucket.
	Supply(ctx context.Context, pot, cycle uint64, amount int64) error

	// WithdrawPrincipal returns amount of principal from the bucket's custody.
	WithdrawPrincipal(ctx context.Context, pot, cycle uint64, amount int64) error

	// WithdrawInterest withdraws all interest accrued for the bucket and
	// returns the withdrawn amount. Interest accrues once; a second withdrawal
	// for the same bucket returns zero.
	WithdrawInterest(ctx context.Context, pot, cycle uint64) (int64, error)

	// AccruedInterest reports the bucket's currently accrued, unwithdrawn
	// interest without moving anything.
	AccruedInterest(ctx context.Context, pot, cycle uint64) (int64, error)

	// PrincipalBalance reports total custodied principal across all buckets.
	// The ledger reads this before and after every principal movement.
	PrincipalBalance(ctx context.Context) (int64, error)
}
