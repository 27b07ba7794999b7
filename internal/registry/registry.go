// Package registry defines the member registry boundary: eligibility checks
// and best-effort participation notifications.
//
// The engine only ever asks "is this identity registered" and fires outcome
// notifications it does not wait on. Notification failures are logged, never
// propagated: the registry must not be able to block a settlement.
package registry

import (
	"context"
	"log/slog"

	"github.com/esusuhq/esusu/internal/storage"
)

// Registry is the contract the engine consumes.
type Registry interface {
	// IsRegistered reports whether id is a registered member identity.
	IsRegistered(ctx context.Context, id string) bool

	// NotifyParticipation records that a member paid into a cycle.
	// Fire-and-forget.
	NotifyParticipation(ctx context.Context, id string, pot, cycle uint64, amount int64, isCreator bool)

	// NotifyBid records a bid placement (placed=true) or retraction.
	// Fire-and-forget.
	NotifyBid(ctx context.Context, id string, pot, cycle uint64, amount int64, placed bool)

	// NotifyWinner records that a member won a cycle. Fire-and-forget.
	NotifyWinner(ctx context.Context, id string, pot, cycle uint64)
}

// Ensure StoreRegistry implements Registry
var _ Registry = (*StoreRegistry)(nil)

// StoreRegistry backs the registry with the member account store: an identity
// is eligible if it has an account.
type StoreRegistry struct {
	store storage.Store
}

// New creates a store-backed registry.
func New(store storage.Store) *StoreRegistry {
	return &StoreRegistry{store: store}
}

// IsRegistered reports whether a member account exists for id.
func (r *StoreRegistry) IsRegistered(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}
	member, err := r.store.GetMemberByID(ctx, id)
	return err == nil && member != nil
}

// NotifyParticipation logs the participation outcome.
func (r *StoreRegistry) NotifyParticipation(ctx context.Context, id string, pot, cycle uint64, amount int64, isCreator bool) {
	slog.Debug("registry: participation",
		"member", id, "pot", pot, "cycle", cycle, "amount", amount, "creator", isCreator)
}

// NotifyBid logs the bid outcome.
func (r *StoreRegistry) NotifyBid(ctx context.Context, id string, pot, cycle uint64, amount int64, placed bool) {
	slog.Debug("registry: bid",
		"member", id, "pot", pot, "cycle", cycle, "amount", amount, "placed", placed)
}

// NotifyWinner logs the winner outcome.
func (r *StoreRegistry) NotifyWinner(ctx context.Context, id string, pot, cycle uint64) {
	slog.Debug("registry: winner", "member", id, "pot", pot, "cycle", cycle)
}
