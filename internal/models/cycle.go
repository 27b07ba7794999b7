package models

// CycleStatus is the state-machine status of a cycle.
//
// Legal transitions:
//
//	Active -> BiddingClosed -> Completed                    (auction path)
//	Active -> BiddingClosed -> AwaitingRandomness
//	       -> BiddingClosed (winner set) -> Completed       (randomness path)
type CycleStatus int

const (
	CycleActive CycleStatus = iota
	CycleBiddingClosed
	CycleAwaitingRandomness
	CycleCompleted
)

// String returns the human-readable status name.
func (s CycleStatus) String() string {
	switch s {
	case CycleActive:
		return "active"
	case CycleBiddingClosed:
		return "bidding_closed"
	case CycleAwaitingRandomness:
		return "awaiting_randomness"
	case CycleCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Bid is a member's offer to receive the cycle payout for less than the full
// pooled amount. Bids are stored inside their cycle, keyed by bidder.
type Bid struct {
	// Bidder is the member id that placed the bid.
	Bidder string

	// Amount is the offered payout, in the smallest currency unit.
	// Always 0 < Amount <= the pot's AmountPerCycle.
	Amount int64
}

// Cycle represents one payout round of a pot. Cycles are retained as history
// and never deleted.
type Cycle struct {
	// ID is the numeric cycle id. Ids start at 1 and are never reused.
	ID uint64

	// PotID is the owning pot.
	PotID uint64

	// StartTime and EndTime are Unix timestamps bounding the cycle.
	StartTime int64
	EndTime   int64

	// Winner is the member id of the cycle winner, or empty until one is
	// determined. Exactly one winner is ever set per cycle.
	Winner string

	// WinningAmount is the principal released to the winner: the lowest bid
	// on the auction path, or the full AmountPerCycle on the randomness path.
	WinningAmount int64

	// Status is the cycle state-machine status.
	Status CycleStatus

	// Bids holds all current bids in insertion order. A member re-bidding
	// overwrites their amount but keeps their original position.
	Bids []Bid

	// Paid lists the member ids that have paid this cycle, in payment order.
	Paid []string

	// TotalCollected is the sum of accepted payments for this cycle.
	TotalCollected int64

	// FundsReleased is set once the winner payout has happened.
	FundsReleased bool

	// RandomnessRequest is the oracle request handle, or empty if the cycle
	// never entered the randomness path.
	RandomnessRequest string
}
