package engine

import (
	"context"
	"log/slog"

	"github.com/esusuhq/esusu/internal/models"
)

// StartCycle opens a new cycle for the pot. Creator-only. Requires the pot
// to be active with at least minMembers members, remaining cycles to run,
// and no other live cycle.
func (e *Engine) StartCycle(ctx context.Context, potID uint64, caller string) (uint64, error) {
	pot, err := e.potByID(potID)
	if err != nil {
		return 0, err
	}

	pot.mu.Lock()
	defer pot.mu.Unlock()

	if caller != pot.creator {
		return 0, errorf(ErrUnauthorized, "only the pot creator can start a cycle")
	}
	if pot.status != models.PotActive {
		return 0, errorf(ErrState, "pot %d is %s", potID, pot.status)
	}
	if len(pot.members) < pot.minMembers {
		return 0, errorf(ErrState, "pot %d has %d members, needs %d", potID, len(pot.members), pot.minMembers)
	}
	if pot.completedCycles >= pot.cycleCount {
		return 0, errorf(ErrState, "pot %d has run all %d cycles", potID, pot.cycleCount)
	}
	if live, liveID := e.liveCycle(pot); live {
		return 0, errorf(ErrState, "pot %d already has a running cycle %d", potID, liveID)
	}

	now := e.now()
	cycle := &cycleState{
		potID:     potID,
		startTime: now,
		endTime:   now.Add(pot.cycleDuration),
		status:    models.CycleActive,
		bids:      make(map[string]int64),
		paid:      make(map[string]bool),
	}

	e.mu.Lock()
	e.cycles = append(e.cycles, cycle)
	cycle.id = uint64(len(e.cycles))
	e.mu.Unlock()

	pot.cycleIDs = append(pot.cycleIDs, cycle.id)

	e.emit(ctx, models.EventCycleStarted, potID, cycle.id, caller, 0)
	slog.Info("cycle started",
		"pot", potID, "cycle", cycle.id, "ends_at", cycle.endTime.Unix())
	return cycle.id, nil
}

// liveCycle reports whether the pot has a non-completed cycle. Called with
// the pot lock held.
func (e *Engine) liveCycle(pot *potState) (bool, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, id := range pot.cycleIDs {
		if e.cycles[id-1].status != models.CycleCompleted {
			return true, id
		}
	}
	return false, 0
}

// PayForCycle accepts a member's contribution for an active cycle and
// forwards it into escrow. A member pays at most once per cycle; the deposit
// is only accepted if the escrow ledger verified the reserve movement.
func (e *Engine) PayForCycle(ctx context.Context, cycleID uint64, payer string) error {
	cycle, pot, err := e.cycleByID(cycleID)
	if err != nil {
		return err
	}

	pot.mu.Lock()
	defer pot.mu.Unlock()

	if cycle.status != models.CycleActive {
		return errorf(ErrState, "cycle %d is %s", cycleID, cycle.status)
	}
	if !pot.isMember(payer) {
		return errorf(ErrUnauthorized, "%s is not a member of pot %d", payer, pot.id)
	}
	if cycle.paid[payer] {
		return errorf(ErrState, "%s already paid for cycle %d", payer, cycleID)
	}

	if err := e.ledger.DepositPrincipal(ctx, pot.id, cycleID, payer, pot.amountPerCycle); err != nil {
		return err
	}

	cycle.paid[payer] = true
	cycle.paidAt = append(cycle.paidAt, payer)
	cycle.totalCollected += pot.amountPerCycle

	depositsTotal.Add(float64(pot.amountPerCycle))
	e.emit(ctx, models.EventPaid, pot.id, cycleID, payer, pot.amountPerCycle)
	e.reg.NotifyParticipation(ctx, payer, pot.id, cycleID, pot.amountPerCycle, payer == pot.creator)

	slog.Info("cycle payment accepted",
		"pot", pot.id, "cycle", cycleID, "payer", payer,
		"amount", pot.amountPerCycle, "collected", cycle.totalCollected)
	return nil
}

// PlaceBid records a member's offer to take the payout for amount. Only paid
// members may bid, only while bidding is open, and only for amounts within
// (0, amountPerCycle]. Re-bidding overwrites the amount but keeps the
// bidder's original position in the deterministic iteration order.
func (e *Engine) PlaceBid(ctx context.Context, cycleID uint64, bidder string, amount int64) error {
	cycle, pot, err := e.cycleByID(cycleID)
	if err != nil {
		return err
	}

	pot.mu.Lock()
	defer pot.mu.Unlock()

	if cycle.status != models.CycleActive {
		return errorf(ErrState, "cycle %d is %s", cycleID, cycle.status)
	}
	if !pot.isMember(bidder) {
		return errorf(ErrUnauthorized, "%s is not a member of pot %d", bidder, pot.id)
	}
	if !cycle.paid[bidder] {
		return errorf(ErrUnauthorized, "%s has not paid for cycle %d", bidder, cycleID)
	}
	if !e.now().Before(cycle.endTime.Add(-pot.bidDeadline)) {
		return errorf(ErrState, "bidding for cycle %d is past its deadline", cycleID)
	}
	if amount <= 0 || amount > pot.amountPerCycle {
		return errorf(ErrValidation, "bid %d out of range (0, %d]", amount, pot.amountPerCycle)
	}

	if _, rebid := cycle.bids[bidder]; !rebid {
		cycle.bidders = append(cycle.bidders, bidder)
	}
	cycle.bids[bidder] = amount

	e.emit(ctx, models.EventBidPlaced, pot.id, cycleID, bidder, amount)
	e.reg.NotifyBid(ctx, bidder, pot.id, cycleID, amount, true)

	slog.Info("bid placed", "pot", pot.id, "cycle", cycleID, "bidder", bidder, "amount", amount)
	return nil
}

// CloseBidding transitions an active cycle to BiddingClosed. Creator-only,
// and only once the bid deadline has passed.
func (e *Engine) CloseBidding(ctx context.Context, cycleID uint64, caller string) error {
	cycle, pot, err := e.cycleByID(cycleID)
	if err != nil {
		return err
	}

	pot.mu.Lock()
	defer pot.mu.Unlock()

	if caller != pot.creator {
		return errorf(ErrUnauthorized, "only the pot creator can close bidding")
	}
	if cycle.status != models.CycleActive {
		return errorf(ErrState, "cycle %d is %s", cycleID, cycle.status)
	}
	if e.now().Before(cycle.endTime.Add(-pot.bidDeadline)) {
		return errorf(ErrState, "bidding for cycle %d is still open", cycleID)
	}

	cycle.status = models.CycleBiddingClosed

	e.emit(ctx, models.EventBiddingClosed, pot.id, cycleID, caller, 0)
	slog.Info("bidding closed", "pot", pot.id, "cycle", cycleID, "bids", len(cycle.bidders))
	return nil
}
