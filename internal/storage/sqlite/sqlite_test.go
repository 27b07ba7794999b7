package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/esusuhq/esusu/internal/models"
	"github.com/esusuhq/esusu/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "esusu-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestSQLiteStoreMembers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	member := models.NewMember("ada@example.com", "Ada", "hash")
	if err := store.CreateMember(ctx, member); err != nil {
		t.Fatalf("CreateMember failed: %v", err)
	}

	t.Run("get by id", func(t *testing.T) {
		got, err := store.GetMemberByID(ctx, member.ID)
		if err != nil {
			t.Fatalf("GetMemberByID failed: %v", err)
		}
		if got.Email != "ada@example.com" || got.Name != "Ada" {
			t.Errorf("unexpected member: %+v", got)
		}
	})

	t.Run("get by email", func(t *testing.T) {
		got, err := store.GetMemberByEmail(ctx, "ada@example.com")
		if err != nil {
			t.Fatalf("GetMemberByEmail failed: %v", err)
		}
		if got.ID != member.ID {
			t.Errorf("got id %s, want %s", got.ID, member.ID)
		}
	})

	t.Run("missing member returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetMemberByID(ctx, "nope")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		dup := models.NewMember("ada@example.com", "Other Ada", "hash2")
		if err := store.CreateMember(ctx, dup); err == nil {
			t.Error("expected unique constraint error, got nil")
		}
	})
}

func TestSQLiteStoreDeposits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	member := models.NewMember("bo@example.com", "Bo", "hash")
	if err := store.CreateMember(ctx, member); err != nil {
		t.Fatalf("CreateMember failed: %v", err)
	}

	dep := &models.Deposit{PotID: 1, CycleID: 2, Payer: member.ID, Amount: 100}
	if err := store.RecordDeposit(ctx, dep); err != nil {
		t.Fatalf("RecordDeposit failed: %v", err)
	}
	if dep.ID == 0 {
		t.Error("Expected deposit ID to be assigned")
	}
	if !dep.Active {
		t.Error("Expected deposit to be active")
	}

	t.Run("list by bucket", func(t *testing.T) {
		other := &models.Deposit{PotID: 1, CycleID: 3, Payer: member.ID, Amount: 100}
		if err := store.RecordDeposit(ctx, other); err != nil {
			t.Fatalf("RecordDeposit failed: %v", err)
		}

		deposits, err := store.ListDeposits(ctx, 1, 2)
		if err != nil {
			t.Fatalf("ListDeposits failed: %v", err)
		}
		if len(deposits) != 1 {
			t.Fatalf("got %d deposits, want 1", len(deposits))
		}
		if deposits[0].ID != dep.ID || deposits[0].Amount != 100 {
			t.Errorf("unexpected deposit: %+v", deposits[0])
		}
	})

	t.Run("deactivate keeps record", func(t *testing.T) {
		if err := store.DeactivateDeposit(ctx, dep.ID); err != nil {
			t.Fatalf("DeactivateDeposit failed: %v", err)
		}

		deposits, err := store.ListDeposits(ctx, 1, 2)
		if err != nil {
			t.Fatalf("ListDeposits failed: %v", err)
		}
		if len(deposits) != 1 {
			t.Fatalf("got %d deposits, want 1", len(deposits))
		}
		if deposits[0].Active {
			t.Error("Expected deposit to be inactive after reversal")
		}
	})

	t.Run("deactivate missing deposit fails", func(t *testing.T) {
		err := store.DeactivateDeposit(ctx, 9999)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSQLiteStoreEvents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	evs := []*models.Event{
		{Type: models.EventPotCreated, PotID: 1, Member: "m1"},
		{Type: models.EventJoined, PotID: 1, Member: "m2"},
		{Type: models.EventPotCreated, PotID: 2, Member: "m3"},
	}
	for _, ev := range evs {
		if err := store.AppendEvent(ctx, ev); err != nil {
			t.Fatalf("AppendEvent failed: %v", err)
		}
		if ev.ID == 0 {
			t.Error("Expected event ID to be assigned")
		}
	}

	t.Run("list all", func(t *testing.T) {
		got, err := store.ListEvents(ctx, 0, 10)
		if err != nil {
			t.Fatalf("ListEvents failed: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("got %d events, want 3", len(got))
		}
		if got[0].Type != models.EventPotCreated || got[1].Type != models.EventJoined {
			t.Errorf("events out of order: %+v", got)
		}
	})

	t.Run("filter by pot", func(t *testing.T) {
		got, err := store.ListEvents(ctx, 1, 10)
		if err != nil {
			t.Fatalf("ListEvents failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d events, want 2", len(got))
		}
		for _, ev := range got {
			if ev.PotID != 1 {
				t.Errorf("event for pot %d leaked into filter", ev.PotID)
			}
		}
	})
}
