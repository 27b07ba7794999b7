package models

// Deposit represents one accepted member payment into a pot cycle.
// Deposits are audit history: never mutated after creation except the Active
// flag, which is cleared on reversal.
type Deposit struct {
	// ID is assigned by the store, monotonically increasing.
	ID int64

	// PotID and CycleID identify the escrow bucket the payment funded.
	PotID   uint64
	CycleID uint64

	// Payer is the member id that paid.
	Payer string

	// Amount is the payment amount in the smallest currency unit.
	Amount int64

	// CreatedAt is the Unix timestamp when the payment was accepted.
	CreatedAt int64

	// Active is true unless the deposit has been reversed.
	Active bool
}
