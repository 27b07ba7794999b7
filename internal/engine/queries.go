package engine

import (
	"github.com/esusuhq/esusu/internal/models"
)

// PotInfo returns a snapshot of a pot.
func (e *Engine) PotInfo(potID uint64) (*models.Pot, error) {
	pot, err := e.potByID(potID)
	if err != nil {
		return nil, err
	}

	pot.mu.Lock()
	defer pot.mu.Unlock()

	members := make([]string, len(pot.members))
	copy(members, pot.members)
	cycleIDs := make([]uint64, len(pot.cycleIDs))
	copy(cycleIDs, pot.cycleIDs)

	return &models.Pot{
		ID:              pot.id,
		Name:            pot.name,
		Creator:         pot.creator,
		AmountPerCycle:  pot.amountPerCycle,
		CycleDuration:   pot.cycleDuration,
		BidDeadline:     pot.bidDeadline,
		CycleCount:      pot.cycleCount,
		CompletedCycles: pot.completedCycles,
		Members:         members,
		MinMembers:      pot.minMembers,
		MaxMembers:      pot.maxMembers,
		Status:          pot.status,
		CycleIDs:        cycleIDs,
		CreatedAt:       pot.createdAt,
	}, nil
}

// CycleInfo returns a snapshot of a cycle.
func (e *Engine) CycleInfo(cycleID uint64) (*models.Cycle, error) {
	cycle, pot, err := e.cycleByID(cycleID)
	if err != nil {
		return nil, err
	}

	pot.mu.Lock()
	defer pot.mu.Unlock()

	bids := make([]models.Bid, len(cycle.bidders))
	for i, b := range cycle.bidders {
		bids[i] = models.Bid{Bidder: b, Amount: cycle.bids[b]}
	}
	paid := make([]string, len(cycle.paidAt))
	copy(paid, cycle.paidAt)

	return &models.Cycle{
		ID:                cycle.id,
		PotID:             cycle.potID,
		StartTime:         cycle.startTime.Unix(),
		EndTime:           cycle.endTime.Unix(),
		Winner:            cycle.winner,
		WinningAmount:     cycle.winningAmount,
		Status:            cycle.status,
		Bids:              bids,
		Paid:              paid,
		TotalCollected:    cycle.totalCollected,
		FundsReleased:     cycle.fundsReleased,
		RandomnessRequest: cycle.request,
	}, nil
}

// UserBid returns a member's current bid for a cycle, if any.
func (e *Engine) UserBid(cycleID uint64, member string) (int64, bool, error) {
	cycle, pot, err := e.cycleByID(cycleID)
	if err != nil {
		return 0, false, err
	}

	pot.mu.Lock()
	defer pot.mu.Unlock()

	amount, ok := cycle.bids[member]
	return amount, ok, nil
}

// PotMemberCount returns the current member count of a pot.
func (e *Engine) PotMemberCount(potID uint64) (int, error) {
	pot, err := e.potByID(potID)
	if err != nil {
		return 0, err
	}

	pot.mu.Lock()
	defer pot.mu.Unlock()
	return len(pot.members), nil
}

// PotCount returns the number of pots ever created.
func (e *Engine) PotCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pots)
}
