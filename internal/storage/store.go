// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/esusuhq/esusu/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for durable history and account storage.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the engine or API layers.
//
// Pot and cycle state itself is owned by the engine; the store holds the
// audit surfaces: member accounts, deposit records, and the append-only
// event log.
type Store interface {
	// CreateMember persists a new member account.
	CreateMember(ctx context.Context, member *models.Member) error

	// GetMemberByID retrieves a member by id.
	GetMemberByID(ctx context.Context, id string) (*models.Member, error)

	// GetMemberByEmail retrieves a member by email.
	GetMemberByEmail(ctx context.Context, email string) (*models.Member, error)

	// RecordDeposit appends a deposit record and populates its ID.
	RecordDeposit(ctx context.Context, dep *models.Deposit) error

	// DeactivateDeposit clears a deposit's active flag (reversal).
	// The record itself is never deleted.
	DeactivateDeposit(ctx context.Context, id int64) error

	// ListDeposits returns all deposit records for a (pot, cycle) bucket,
	// oldest first.
	ListDeposits(ctx context.Context, pot, cycle uint64) ([]models.Deposit, error)

	// AppendEvent appends an event to the history log and populates its ID.
	AppendEvent(ctx context.Context, ev *models.Event) error

	// ListEvents returns up to limit events, oldest first. pot filters to a
	// single pot when nonzero.
	ListEvents(ctx context.Context, pot uint64, limit int) ([]models.Event, error)

	// Close releases any resources held by the store.
	Close() error
}
