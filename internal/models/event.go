package models

// EventType identifies one kind of history event.
type EventType string

const (
	EventPotCreated          EventType = "pot_created"
	EventJoined              EventType = "joined"
	EventLeft                EventType = "left"
	EventCycleStarted        EventType = "cycle_started"
	EventPaid                EventType = "paid"
	EventBidPlaced           EventType = "bid_placed"
	EventBiddingClosed       EventType = "bidding_closed"
	EventWinnerDeclared      EventType = "winner_declared"
	EventRandomnessRequested EventType = "randomness_requested"
	EventCycleCompleted      EventType = "cycle_completed"
	EventInterestDistributed EventType = "interest_distributed"
)

// Event is one entry in the append-only history log. Events are the only
// persisted history surface; reporting layers consume them rather than
// re-deriving engine state.
type Event struct {
	// ID is assigned by the store, monotonically increasing.
	ID int64

	// Type identifies the event kind.
	Type EventType

	// PotID is the pot the event concerns. Always set.
	PotID uint64

	// CycleID is the cycle the event concerns, or 0 for pot-level events.
	CycleID uint64

	// Member is the member id the event concerns, or empty.
	Member string

	// Amount is the amount involved, or 0 where not meaningful.
	Amount int64

	// CreatedAt is the Unix timestamp when the event was recorded.
	CreatedAt int64
}
