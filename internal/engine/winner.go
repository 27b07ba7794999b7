package engine

import (
	"context"
	"log/slog"

	"github.com/esusuhq/esusu/internal/calculator"
	"github.com/esusuhq/esusu/internal/models"
)

// DeclareWinner determines the cycle winner. Creator-only, cycle must be
// BiddingClosed with no winner yet.
//
// With bids present the strictly lowest bid wins immediately, ties broken by
// bid insertion order. With no bids the member selection is delegated to the
// randomness oracle: the cycle moves to AwaitingRandomness and the winner is
// unknown until the oracle's fulfillment arrives.
func (e *Engine) DeclareWinner(ctx context.Context, cycleID uint64, caller string) error {
	cycle, pot, err := e.cycleByID(cycleID)
	if err != nil {
		return err
	}

	pot.mu.Lock()
	defer pot.mu.Unlock()

	if caller != pot.creator {
		return errorf(ErrUnauthorized, "only the pot creator can declare the winner")
	}
	if cycle.status != models.CycleBiddingClosed {
		return errorf(ErrState, "cycle %d is %s, winner can only be declared after bidding closes", cycleID, cycle.status)
	}
	if cycle.winner != "" {
		return errorf(ErrState, "cycle %d already has a winner", cycleID)
	}

	// Auction path.
	if len(cycle.bidders) > 0 {
		amounts := make([]int64, len(cycle.bidders))
		for i, b := range cycle.bidders {
			amounts[i] = cycle.bids[b]
		}
		idx, err := calculator.LowestBid(amounts)
		if err != nil {
			return errorf(ErrDependency, "selecting lowest bid: %v", err)
		}

		cycle.winner = cycle.bidders[idx]
		cycle.winningAmount = amounts[idx]

		e.emit(ctx, models.EventWinnerDeclared, pot.id, cycleID, cycle.winner, cycle.winningAmount)
		e.reg.NotifyWinner(ctx, cycle.winner, pot.id, cycleID)

		slog.Info("winner declared by auction",
			"pot", pot.id, "cycle", cycleID, "winner", cycle.winner, "amount", cycle.winningAmount)
		return nil
	}

	// Randomness path: no bids, ask the oracle over the member list.
	candidates := make([]string, len(pot.members))
	copy(candidates, pot.members)

	// The request is issued and its handle registered under the same lock the
	// delivery entry point uses for its lookup, so a fulfillment cannot
	// observe a handle before the handle's cycle mapping exists.
	e.mu.Lock()
	handle, err := e.orc.RequestSelection(ctx, candidates)
	if err != nil {
		e.mu.Unlock()
		return errorf(ErrDependency, "requesting random selection: %v", err)
	}
	e.requests[handle] = cycleID
	e.mu.Unlock()

	cycle.request = handle
	cycle.status = models.CycleAwaitingRandomness

	awaitingRandomness.Inc()
	e.emit(ctx, models.EventRandomnessRequested, pot.id, cycleID, "", 0)

	slog.Info("randomness requested",
		"pot", pot.id, "cycle", cycleID, "handle", handle, "candidates", len(candidates))
	return nil
}

// HandleRandomnessFulfilled is the oracle's delivery entry point. Only the
// configured oracle identity may call it. A duplicate or late delivery is
// rejected, never silently re-applied: the mapped cycle must still be
// AwaitingRandomness with no winner.
func (e *Engine) HandleRandomnessFulfilled(ctx context.Context, callerID, handle, winner string) error {
	if callerID != e.oracleID {
		return errorf(ErrUnauthorized, "randomness fulfillment from unknown caller %q", callerID)
	}

	e.mu.Lock()
	cycleID, ok := e.requests[handle]
	e.mu.Unlock()
	if !ok {
		return errorf(ErrNotFound, "randomness request %s", handle)
	}

	return e.applyRandomWinner(ctx, cycleID, handle, winner)
}

// RecoverRandomness is the manual recovery path for a cycle stuck in
// AwaitingRandomness because the oracle's callback delivery failed. Callable
// by anyone: it polls the oracle for a fulfilled result tied to the stored
// handle and applies it exactly as the callback would.
//
// There is no timeout or expiry if the oracle never fulfills; a cycle can
// wait here indefinitely.
func (e *Engine) RecoverRandomness(ctx context.Context, cycleID uint64) error {
	cycle, pot, err := e.cycleByID(cycleID)
	if err != nil {
		return err
	}

	pot.mu.Lock()
	if cycle.status != models.CycleAwaitingRandomness {
		pot.mu.Unlock()
		return errorf(ErrState, "cycle %d is %s, not awaiting randomness", cycleID, cycle.status)
	}
	handle := cycle.request
	pot.mu.Unlock()

	fulfilled, err := e.orc.IsFulfilled(ctx, handle)
	if err != nil {
		return errorf(ErrDependency, "querying oracle: %v", err)
	}
	if !fulfilled {
		return errorf(ErrDependency, "randomness request %s not yet fulfilled", handle)
	}

	winner, err := e.orc.Result(ctx, handle)
	if err != nil {
		return errorf(ErrDependency, "reading oracle result: %v", err)
	}

	slog.Warn("recovering randomness result manually", "cycle", cycleID, "handle", handle)
	return e.applyRandomWinner(ctx, cycleID, handle, winner)
}

// applyRandomWinner applies an oracle selection to its cycle. Shared by the
// callback and recovery paths so both enforce identical guards.
func (e *Engine) applyRandomWinner(ctx context.Context, cycleID uint64, handle, winner string) error {
	cycle, pot, err := e.cycleByID(cycleID)
	if err != nil {
		return err
	}

	pot.mu.Lock()
	defer pot.mu.Unlock()

	if cycle.status != models.CycleAwaitingRandomness || cycle.winner != "" {
		return errorf(ErrState, "cycle %d is not awaiting randomness", cycleID)
	}
	if cycle.request != handle {
		return errorf(ErrValidation, "handle %s does not match cycle %d", handle, cycleID)
	}
	if !pot.isMember(winner) {
		return errorf(ErrDependency, "oracle selected %s, who is not a member of pot %d", winner, pot.id)
	}

	cycle.winner = winner
	cycle.winningAmount = pot.amountPerCycle
	cycle.status = models.CycleBiddingClosed

	awaitingRandomness.Dec()
	e.emit(ctx, models.EventWinnerDeclared, pot.id, cycleID, winner, cycle.winningAmount)
	e.reg.NotifyWinner(ctx, winner, pot.id, cycleID)

	slog.Info("winner set by randomness",
		"pot", pot.id, "cycle", cycleID, "winner", winner, "amount", cycle.winningAmount)
	return nil
}
