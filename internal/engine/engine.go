// Package engine implements the auction cycle engine: pot and cycle
// lifecycle, membership, bidding, winner selection, and interest
// distribution.
//
// # Execution model
//
// Every state-mutating operation on a pot (or one of its cycles) runs to
// completion under that pot's lock, including calls out to the escrow ledger
// and the yield reserve. No operation is ever partially visible, and
// collaborators cannot re-enter pot state mid-operation: the only
// asynchronous boundary is the randomness oracle, whose fulfillment arrives
// through a separate entry point that takes the same pot lock.
//
// Inside each operation the ordering is checks, then effects, then
// interactions: all preconditions are validated before anything is recorded,
// and external movements are verified before local state is considered
// committed.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/esusuhq/esusu/internal/escrow"
	"github.com/esusuhq/esusu/internal/models"
	"github.com/esusuhq/esusu/internal/oracle"
	"github.com/esusuhq/esusu/internal/registry"
	"github.com/esusuhq/esusu/internal/storage"
)

// Failure taxonomy. Every specific engine error wraps exactly one of these,
// so callers can classify without string matching.
var (
	// ErrValidation marks malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized marks a wrong caller for a restricted operation.
	ErrUnauthorized = errors.New("caller not authorized")
	// ErrState marks an operation attempted in the wrong lifecycle state.
	ErrState = errors.New("operation not allowed in current state")
	// ErrNotFound marks an unknown pot or cycle id.
	ErrNotFound = errors.New("not found")
	// ErrDependency marks an unverifiable or absent external result.
	ErrDependency = errors.New("external dependency failed")
)

// Bounds on pot parameters.
const (
	MaxMembers       = 100
	MaxCycleCount    = 52
	MinCycleDuration = time.Minute
	MaxCycleDuration = 365 * 24 * time.Hour
)

// potState is the authoritative in-memory record of one pot. All fields
// other than id are guarded by mu.
type potState struct {
	mu sync.Mutex

	id              uint64
	name            string
	creator         string
	amountPerCycle  int64
	cycleDuration   time.Duration
	bidDeadline     time.Duration
	cycleCount      int
	completedCycles int
	members         []string
	memberSet       map[string]bool
	minMembers      int
	maxMembers      int
	status          models.PotStatus
	cycleIDs        []uint64
	createdAt       int64
}

func (p *potState) isMember(id string) bool {
	return p.memberSet[id]
}

// cycleState is the authoritative in-memory record of one cycle, guarded by
// the owning pot's lock. Back-reference to the pot is by id, resolved through
// the engine's arena at use time.
type cycleState struct {
	id        uint64
	potID     uint64
	startTime time.Time
	endTime   time.Time

	winner        string
	winningAmount int64
	status        models.CycleStatus

	bidders []string // bid insertion order, for deterministic iteration
	bids    map[string]int64
	paid    map[string]bool
	paidAt  []string // payment order, retained as history

	totalCollected int64
	fundsReleased  bool

	request string // oracle request handle, empty if never requested

	// interest withdrawn from the bucket on a prior settlement attempt that
	// failed after the withdrawal. Reused instead of re-deriving a figure
	// from a stale reserve read.
	interest      int64
	interestDrawn bool
}

// Engine orchestrates pots and cycles on top of the escrow ledger, member
// registry, and randomness oracle.
//
// Pots and cycles live in append-only arenas; ids are 1-based indices and
// are never reused.
type Engine struct {
	// mu guards the arenas and the request map. It is additionally held
	// across the oracle's RequestSelection so that a delivery can never look
	// up a handle before its cycle mapping is registered.
	mu       sync.Mutex
	pots     []*potState
	cycles   []*cycleState
	requests map[string]uint64 // oracle handle -> cycle id

	ledger   *escrow.Ledger
	reg      registry.Registry
	orc      oracle.Oracle
	oracleID string
	store    storage.Store

	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine. oracleID is the identity randomness fulfillments
// must be delivered under; deliveries from any other caller are rejected.
func New(ledger *escrow.Ledger, reg registry.Registry, orc oracle.Oracle, oracleID string, store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		requests: make(map[string]uint64),
		ledger:   ledger,
		reg:      reg,
		orc:      orc,
		oracleID: oracleID,
		store:    store,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// potByID resolves a pot id to its state. The caller locks the pot.
func (e *Engine) potByID(id uint64) (*potState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id == 0 || id > uint64(len(e.pots)) {
		return nil, errorf(ErrNotFound, "pot %d", id)
	}
	return e.pots[id-1], nil
}

// cycleByID resolves a cycle id and its owning pot. The caller locks the pot
// before touching the cycle.
func (e *Engine) cycleByID(id uint64) (*cycleState, *potState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id == 0 || id > uint64(len(e.cycles)) {
		return nil, nil, errorf(ErrNotFound, "cycle %d", id)
	}
	c := e.cycles[id-1]
	return c, e.pots[c.potID-1], nil
}

// emit appends an event to the history log. Event persistence is an audit
// surface: a failed append is logged and does not unwind the operation.
func (e *Engine) emit(ctx context.Context, typ models.EventType, pot, cycle uint64, member string, amount int64) {
	ev := &models.Event{
		Type:    typ,
		PotID:   pot,
		CycleID: cycle,
		Member:  member,
		Amount:  amount,
	}
	if err := e.store.AppendEvent(ctx, ev); err != nil {
		slog.Warn("failed to append event",
			"type", typ, "pot", pot, "cycle", cycle, "error", err)
	}
}
