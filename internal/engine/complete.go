package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/esusuhq/esusu/internal/calculator"
	"github.com/esusuhq/esusu/internal/escrow"
	"github.com/esusuhq/esusu/internal/models"
)

// CompleteCycle settles a cycle: withdraws the bucket's interest, releases
// the winning amount to the winner, and fans the interest out to the
// non-winners with the division remainder assigned to the first non-winner
// in member order, so the distributed total always equals the withdrawn
// interest exactly.
//
// Creator-only. Requires a winner, the cycle end time to have passed, and
// funds not yet released. External failures abort the whole call with the
// cycle left settleable; nothing is retried automatically.
func (e *Engine) CompleteCycle(ctx context.Context, cycleID uint64, caller string) error {
	cycle, pot, err := e.cycleByID(cycleID)
	if err != nil {
		return err
	}

	pot.mu.Lock()
	defer pot.mu.Unlock()

	if caller != pot.creator {
		return errorf(ErrUnauthorized, "only the pot creator can complete a cycle")
	}
	if cycle.status == models.CycleCompleted {
		return errorf(ErrState, "cycle %d is already completed", cycleID)
	}
	if cycle.winner == "" {
		return errorf(ErrState, "cycle %d has no winner yet", cycleID)
	}
	if e.now().Before(cycle.endTime) {
		return errorf(ErrState, "cycle %d has not ended yet", cycleID)
	}
	if cycle.fundsReleased {
		return errorf(ErrState, "cycle %d funds were already released", cycleID)
	}

	// Interactions, in order: interest first, then the principal release.
	// The withdrawn interest figure is kept on the cycle so a settlement that
	// fails between the two steps can be retried without re-deriving it.
	if !cycle.interestDrawn {
		interest, err := e.ledger.WithdrawBucketInterest(ctx, pot.id, cycleID)
		if err != nil {
			if errors.Is(err, escrow.ErrReserveVerification) {
				return errorf(ErrDependency, "withdrawing interest: %v", err)
			}
			return err
		}
		cycle.interest = interest
		cycle.interestDrawn = true
	}

	if err := e.ledger.ReleaseWinnerPrincipal(ctx, pot.id, cycleID, cycle.winner, cycle.winningAmount); err != nil {
		if errors.Is(err, escrow.ErrReserveVerification) {
			return errorf(ErrDependency, "releasing principal: %v", err)
		}
		return err
	}
	cycle.fundsReleased = true

	// Effects after verified interactions: distribute interest, close out the
	// cycle, and advance the pot.
	nonWinners := make([]string, 0, len(pot.members)-1)
	for _, m := range pot.members {
		if m != cycle.winner {
			nonWinners = append(nonWinners, m)
		}
	}

	if cycle.interest > 0 && len(nonWinners) > 0 {
		shares, err := calculator.InterestShares(cycle.interest, len(nonWinners))
		if err != nil {
			return errorf(ErrDependency, "splitting interest: %v", err)
		}
		for i, m := range nonWinners {
			if shares[i] > 0 {
				e.emit(ctx, models.EventInterestDistributed, pot.id, cycleID, m, shares[i])
			}
		}
		interestDistributed.Add(float64(cycle.interest))
	}

	cycle.status = models.CycleCompleted
	if err := e.ledger.MarkSettled(pot.id, cycleID); err != nil {
		// The settled flag is monotonic; hitting it twice here would mean the
		// completed-state guard above was bypassed.
		slog.Error("bucket settle flag inconsistency", "pot", pot.id, "cycle", cycleID, "error", err)
	}

	pot.completedCycles++
	if pot.completedCycles >= pot.cycleCount {
		pot.status = models.PotCompleted
	}

	cyclesCompleted.Inc()
	e.emit(ctx, models.EventCycleCompleted, pot.id, cycleID, cycle.winner, cycle.winningAmount)

	slog.Info("cycle completed",
		"pot", pot.id, "cycle", cycleID, "winner", cycle.winner,
		"payout", cycle.winningAmount, "interest", cycle.interest,
		"completed_cycles", pot.completedCycles, "pot_status", pot.status.String())
	return nil
}
