package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esusuhq/esusu/internal/models"
)

func TestCompleteCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("full auction settlement", func(t *testing.T) {
		env := newTestEnv(t, 3)
		potID, cycleID := startFundedCycle(t, env, defaultParams())
		require.NoError(t, env.engine.PlaceBid(ctx, cycleID, env.members[1], 60))
		require.NoError(t, env.engine.PlaceBid(ctx, cycleID, env.members[2], 40))
		closeAndDeclare(t, env, cycleID)

		// Too early: the cycle has 10 minutes left.
		err := env.engine.CompleteCycle(ctx, cycleID, env.members[0])
		assert.ErrorIs(t, err, ErrState)

		env.clock.Advance(10 * time.Minute)
		assert.ErrorIs(t, env.engine.CompleteCycle(ctx, cycleID, env.members[1]), ErrUnauthorized)
		require.NoError(t, env.engine.CompleteCycle(ctx, cycleID, env.members[0]))

		cycle, err := env.engine.CycleInfo(cycleID)
		require.NoError(t, err)
		assert.Equal(t, models.CycleCompleted, cycle.Status)
		assert.True(t, cycle.FundsReleased)

		pot, err := env.engine.PotInfo(potID)
		require.NoError(t, err)
		assert.Equal(t, 1, pot.CompletedCycles)
		assert.Equal(t, models.PotActive, pot.Status) // one cycle of two done
	})

	t.Run("second completion fails, no second payout", func(t *testing.T) {
		env := newTestEnv(t, 3)
		potID, cycleID := startFundedCycle(t, env, defaultParams())
		require.NoError(t, env.engine.PlaceBid(ctx, cycleID, env.members[1], 40))
		closeAndDeclare(t, env, cycleID)
		env.clock.Advance(10 * time.Minute)

		require.NoError(t, env.engine.CompleteCycle(ctx, cycleID, env.members[0]))
		err := env.engine.CompleteCycle(ctx, cycleID, env.members[0])
		assert.ErrorIs(t, err, ErrState)

		// Exactly one release happened: 300 deposited, 40 released.
		deposited, withdrawn, _ := ledgerTotals(env, potID, cycleID)
		assert.Equal(t, int64(300), deposited)
		assert.Equal(t, int64(40), withdrawn)
	})

	t.Run("no winner means no completion", func(t *testing.T) {
		env := newTestEnv(t, 3)
		_, cycleID := startFundedCycle(t, env, defaultParams())
		env.clock.Advance(50 * time.Minute)
		require.NoError(t, env.engine.CloseBidding(ctx, cycleID, env.members[0]))
		env.clock.Advance(10 * time.Minute)

		err := env.engine.CompleteCycle(ctx, cycleID, env.members[0])
		assert.ErrorIs(t, err, ErrState)
	})

	t.Run("interest remainder goes to first non-winner", func(t *testing.T) {
		// Interest 101 with 2 non-winners: 51 to the first in member order,
		// 50 to the second, 101 distributed in total.
		env := newTestEnv(t, 3)
		potID, cycleID := startFundedCycle(t, env, defaultParams())
		require.NoError(t, env.engine.PlaceBid(ctx, cycleID, env.members[1], 40))
		closeAndDeclare(t, env, cycleID)
		env.clock.Advance(10 * time.Minute)

		env.reserve.Accrue(potID, cycleID, 101)
		require.NoError(t, env.engine.CompleteCycle(ctx, cycleID, env.members[0]))

		events, err := env.store.ListEvents(ctx, potID, 100)
		require.NoError(t, err)

		shares := make(map[string]int64)
		var total int64
		for _, ev := range events {
			if ev.Type == models.EventInterestDistributed {
				shares[ev.Member] += ev.Amount
				total += ev.Amount
			}
		}
		assert.Equal(t, int64(101), total)
		// Winner is members[1]; non-winners in member order are 0 then 2.
		assert.Equal(t, int64(51), shares[env.members[0]])
		assert.Equal(t, int64(50), shares[env.members[2]])
		assert.Zero(t, shares[env.members[1]])
	})

	t.Run("membership frozen after first completed cycle", func(t *testing.T) {
		env := newTestEnv(t, 4)
		params := defaultParams()
		potID, err := env.engine.CreatePot(ctx, env.members[0], params)
		require.NoError(t, err)
		require.NoError(t, env.engine.JoinPot(ctx, potID, env.members[1]))
		require.NoError(t, env.engine.JoinPot(ctx, potID, env.members[2]))

		cycleID, err := env.engine.StartCycle(ctx, potID, env.members[0])
		require.NoError(t, err)
		for _, m := range env.members[:3] {
			require.NoError(t, env.engine.PayForCycle(ctx, cycleID, m))
		}
		require.NoError(t, env.engine.PlaceBid(ctx, cycleID, env.members[1], 40))
		closeAndDeclare(t, env, cycleID)
		env.clock.Advance(10 * time.Minute)
		require.NoError(t, env.engine.CompleteCycle(ctx, cycleID, env.members[0]))

		err = env.engine.JoinPot(ctx, potID, env.members[3])
		assert.ErrorIs(t, err, ErrState)
		err = env.engine.LeavePot(ctx, potID, env.members[2])
		assert.ErrorIs(t, err, ErrState)

		n, err := env.engine.PotMemberCount(potID)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("pot completes after the last cycle", func(t *testing.T) {
		env := newTestEnv(t, 2)
		params := defaultParams()
		params.CycleCount = 1
		potID, cycleID := startFundedCycle(t, env, params)
		require.NoError(t, env.engine.PlaceBid(ctx, cycleID, env.members[1], 40))
		closeAndDeclare(t, env, cycleID)
		env.clock.Advance(10 * time.Minute)
		require.NoError(t, env.engine.CompleteCycle(ctx, cycleID, env.members[0]))

		pot, err := env.engine.PotInfo(potID)
		require.NoError(t, err)
		assert.Equal(t, models.PotCompleted, pot.Status)

		_, err = env.engine.StartCycle(ctx, potID, env.members[0])
		assert.ErrorIs(t, err, ErrState)
	})

	t.Run("randomness path settles at full amount", func(t *testing.T) {
		env := newTestEnv(t, 3)
		potID, cycleID := startFundedCycle(t, env, defaultParams())
		closeAndDeclare(t, env, cycleID)

		cycle, err := env.engine.CycleInfo(cycleID)
		require.NoError(t, err)
		winner, err := env.oracle.Fulfill(cycle.RandomnessRequest)
		require.NoError(t, err)
		require.NoError(t, env.engine.HandleRandomnessFulfilled(ctx, oracleID, cycle.RandomnessRequest, winner))

		env.clock.Advance(10 * time.Minute)
		require.NoError(t, env.engine.CompleteCycle(ctx, cycleID, env.members[0]))

		deposited, withdrawn, _ := ledgerTotals(env, potID, cycleID)
		assert.Equal(t, int64(300), deposited)
		assert.Equal(t, int64(100), withdrawn)
	})
}

// ledgerTotals reads the escrow bucket totals through the engine's ledger.
func ledgerTotals(env *testEnv, pot, cycle uint64) (deposited, withdrawn, interest int64) {
	return env.engine.ledger.BucketTotals(pot, cycle)
}
