package models

import "time"

// PotStatus is the lifecycle status of a pot.
type PotStatus int

const (
	PotActive PotStatus = iota
	PotPaused
	PotCompleted
)

// String returns the human-readable status name.
func (s PotStatus) String() string {
	switch s {
	case PotActive:
		return "active"
	case PotPaused:
		return "paused"
	case PotCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Pot represents a rotating savings group.
// Every member contributes AmountPerCycle each cycle; one member per cycle
// receives the pooled amount.
type Pot struct {
	// ID is the numeric pot id. Ids start at 1 and are never reused.
	ID uint64

	// Name is the display name of the pot.
	Name string

	// Creator is the member id of the pot creator. The creator is always
	// the first member and may not leave the pot.
	Creator string

	// AmountPerCycle is the fixed contribution per member per cycle,
	// in the smallest currency unit.
	AmountPerCycle int64

	// CycleDuration is how long each cycle runs.
	CycleDuration time.Duration

	// BidDeadline is how long before a cycle's end time bidding closes.
	// Always strictly less than CycleDuration.
	BidDeadline time.Duration

	// CycleCount is the total number of cycles the pot will run.
	CycleCount int

	// CompletedCycles is how many cycles have completed so far.
	// Never exceeds CycleCount. Once it is nonzero, membership is frozen.
	CompletedCycles int

	// Members is the ordered member id list. Order is join order and is
	// the iteration order used for deterministic tie-breaks and interest
	// remainder assignment.
	Members []string

	// MinMembers is the member count required before a cycle can start.
	MinMembers int

	// MaxMembers bounds the member list.
	MaxMembers int

	// Status is the pot lifecycle status.
	Status PotStatus

	// CycleIDs lists the ids of all cycles started for this pot, oldest first.
	CycleIDs []uint64

	// CreatedAt is the Unix timestamp when the pot was created.
	CreatedAt int64
}
