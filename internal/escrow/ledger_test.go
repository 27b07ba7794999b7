package escrow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esusuhq/esusu/internal/models"
	"github.com/esusuhq/esusu/internal/reserve"
	"github.com/esusuhq/esusu/internal/storage"
)

// memStore is a minimal in-memory Store for ledger tests.
type memStore struct {
	deposits []models.Deposit
	events   []models.Event
}

func (m *memStore) CreateMember(ctx context.Context, member *models.Member) error { return nil }
func (m *memStore) GetMemberByID(ctx context.Context, id string) (*models.Member, error) {
	return nil, storage.ErrNotFound
}
func (m *memStore) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	return nil, storage.ErrNotFound
}
func (m *memStore) RecordDeposit(ctx context.Context, dep *models.Deposit) error {
	dep.ID = int64(len(m.deposits) + 1)
	dep.Active = true
	m.deposits = append(m.deposits, *dep)
	return nil
}
func (m *memStore) DeactivateDeposit(ctx context.Context, id int64) error { return nil }
func (m *memStore) ListDeposits(ctx context.Context, pot, cycle uint64) ([]models.Deposit, error) {
	var out []models.Deposit
	for _, d := range m.deposits {
		if d.PotID == pot && d.CycleID == cycle {
			out = append(out, d)
		}
	}
	return out, nil
}
func (m *memStore) AppendEvent(ctx context.Context, ev *models.Event) error {
	ev.ID = int64(len(m.events) + 1)
	m.events = append(m.events, *ev)
	return nil
}
func (m *memStore) ListEvents(ctx context.Context, pot uint64, limit int) ([]models.Event, error) {
	return m.events, nil
}
func (m *memStore) Close() error { return nil }

func newLedger(t *testing.T, rateBps int64) (*Ledger, *reserve.Sim, *memStore) {
	t.Helper()
	sim := reserve.NewSim(rateBps)
	store := &memStore{}
	return New(sim, store), sim, store
}

func TestDepositPrincipal(t *testing.T) {
	ctx := context.Background()

	t.Run("credits bucket and records deposit", func(t *testing.T) {
		ledger, _, store := newLedger(t, 0)

		require.NoError(t, ledger.DepositPrincipal(ctx, 1, 1, "ada", 100))

		deposited, withdrawn, _ := ledger.BucketTotals(1, 1)
		assert.Equal(t, int64(100), deposited)
		assert.Equal(t, int64(0), withdrawn)

		require.Len(t, store.deposits, 1)
		assert.Equal(t, "ada", store.deposits[0].Payer)
		assert.Equal(t, int64(100), store.deposits[0].Amount)
		assert.True(t, store.deposits[0].Active)
	})

	t.Run("rejects bad parameters", func(t *testing.T) {
		ledger, _, _ := newLedger(t, 0)

		assert.ErrorIs(t, ledger.DepositPrincipal(ctx, 0, 1, "ada", 100), ErrInvalidAmount)
		assert.ErrorIs(t, ledger.DepositPrincipal(ctx, 1, 0, "ada", 100), ErrInvalidAmount)
		assert.ErrorIs(t, ledger.DepositPrincipal(ctx, 1, 1, "ada", 0), ErrInvalidAmount)
		assert.ErrorIs(t, ledger.DepositPrincipal(ctx, 1, 1, "ada", -5), ErrInvalidAmount)
	})

	t.Run("silently no-oping reserve is a hard failure", func(t *testing.T) {
		ledger, sim, store := newLedger(t, 0)
		sim.DropSupplies = true

		err := ledger.DepositPrincipal(ctx, 1, 1, "ada", 100)
		assert.ErrorIs(t, err, ErrReserveVerification)

		// Fail-closed: no partial credit anywhere.
		deposited, _, _ := ledger.BucketTotals(1, 1)
		assert.Equal(t, int64(0), deposited)
		assert.Empty(t, store.deposits)
	})
}

func TestReleaseWinnerPrincipal(t *testing.T) {
	ctx := context.Background()

	t.Run("releases within bucket", func(t *testing.T) {
		ledger, _, _ := newLedger(t, 0)
		require.NoError(t, ledger.DepositPrincipal(ctx, 1, 1, "ada", 100))
		require.NoError(t, ledger.DepositPrincipal(ctx, 1, 1, "bo", 100))

		require.NoError(t, ledger.ReleaseWinnerPrincipal(ctx, 1, 1, "bo", 150))

		deposited, withdrawn, _ := ledger.BucketTotals(1, 1)
		assert.Equal(t, int64(200), deposited)
		assert.Equal(t, int64(150), withdrawn)
	})

	t.Run("release never exceeds deposits", func(t *testing.T) {
		ledger, _, _ := newLedger(t, 0)
		require.NoError(t, ledger.DepositPrincipal(ctx, 1, 1, "ada", 100))

		err := ledger.ReleaseWinnerPrincipal(ctx, 1, 1, "ada", 101)
		assert.ErrorIs(t, err, ErrInsufficientBucket)

		// Releasing the rest after a partial release still bounded.
		require.NoError(t, ledger.ReleaseWinnerPrincipal(ctx, 1, 1, "ada", 60))
		err = ledger.ReleaseWinnerPrincipal(ctx, 1, 1, "ada", 41)
		assert.ErrorIs(t, err, ErrInsufficientBucket)
	})

	t.Run("buckets are independent", func(t *testing.T) {
		ledger, _, _ := newLedger(t, 0)
		require.NoError(t, ledger.DepositPrincipal(ctx, 1, 1, "ada", 100))
		require.NoError(t, ledger.DepositPrincipal(ctx, 2, 1, "bo", 100))

		err := ledger.ReleaseWinnerPrincipal(ctx, 1, 1, "ada", 200)
		assert.ErrorIs(t, err, ErrInsufficientBucket)
	})

	t.Run("dropped withdrawal detected", func(t *testing.T) {
		ledger, sim, _ := newLedger(t, 0)
		require.NoError(t, ledger.DepositPrincipal(ctx, 1, 1, "ada", 100))
		sim.DropWithdrawals = true

		err := ledger.ReleaseWinnerPrincipal(ctx, 1, 1, "ada", 50)
		assert.ErrorIs(t, err, ErrReserveVerification)

		_, withdrawn, _ := ledger.BucketTotals(1, 1)
		assert.Equal(t, int64(0), withdrawn)
	})
}

func TestWithdrawBucketInterest(t *testing.T) {
	ctx := context.Background()

	t.Run("withdraws exactly the accrued amount", func(t *testing.T) {
		ledger, sim, _ := newLedger(t, 0)
		require.NoError(t, ledger.DepositPrincipal(ctx, 1, 1, "ada", 100))
		sim.Accrue(1, 1, 37)

		got, err := ledger.WithdrawBucketInterest(ctx, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(37), got)
	})

	t.Run("second withdrawal fails explicitly", func(t *testing.T) {
		ledger, sim, _ := newLedger(t, 0)
		sim.Accrue(1, 1, 10)

		_, err := ledger.WithdrawBucketInterest(ctx, 1, 1)
		require.NoError(t, err)

		_, err = ledger.WithdrawBucketInterest(ctx, 1, 1)
		assert.ErrorIs(t, err, ErrInterestTaken)
	})

	t.Run("short-paying reserve detected", func(t *testing.T) {
		ledger, sim, _ := newLedger(t, 0)
		sim.Accrue(1, 1, 10)
		sim.ShortInterest = true

		_, err := ledger.WithdrawBucketInterest(ctx, 1, 1)
		assert.ErrorIs(t, err, ErrReserveVerification)
	})

	t.Run("zero interest is fine", func(t *testing.T) {
		ledger, _, _ := newLedger(t, 0)

		got, err := ledger.WithdrawBucketInterest(ctx, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(0), got)
	})
}

func TestMarkSettled(t *testing.T) {
	ledger, _, _ := newLedger(t, 0)

	require.NoError(t, ledger.MarkSettled(1, 1))
	assert.ErrorIs(t, ledger.MarkSettled(1, 1), ErrAlreadySettled)

	// Other buckets unaffected.
	require.NoError(t, ledger.MarkSettled(1, 2))
}

func TestConservation(t *testing.T) {
	// principalReleased + principalStillHeld == principalDeposited throughout.
	ctx := context.Background()
	ledger, _, _ := newLedger(t, 500)

	check := func() {
		deposited, withdrawn, _ := ledger.BucketTotals(7, 3)
		held := deposited - withdrawn
		require.Equal(t, deposited, withdrawn+held)
		require.GreaterOrEqual(t, held, int64(0))
	}

	for i := 0; i < 5; i++ {
		require.NoError(t, ledger.DepositPrincipal(ctx, 7, 3, "m", 100))
		check()
	}
	require.NoError(t, ledger.ReleaseWinnerPrincipal(ctx, 7, 3, "m", 420))
	check()
	require.NoError(t, ledger.ReleaseWinnerPrincipal(ctx, 7, 3, "m", 80))
	check()
	assert.ErrorIs(t, ledger.ReleaseWinnerPrincipal(ctx, 7, 3, "m", 1), ErrInsufficientBucket)
	check()
}
