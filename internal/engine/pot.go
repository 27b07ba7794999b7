package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/esusuhq/esusu/internal/models"
)

// PotParams are the creation parameters for a pot.
type PotParams struct {
	Name           string
	AmountPerCycle int64
	CycleDuration  time.Duration
	BidDeadline    time.Duration
	CycleCount     int
	MinMembers     int
	MaxMembers     int
}

func (p PotParams) validate() error {
	if p.Name == "" {
		return errorf(ErrValidation, "pot name cannot be empty")
	}
	if p.AmountPerCycle <= 0 {
		return errorf(ErrValidation, "amount per cycle must be positive, got %d", p.AmountPerCycle)
	}
	if p.CycleDuration < MinCycleDuration || p.CycleDuration > MaxCycleDuration {
		return errorf(ErrValidation, "cycle duration %s out of range [%s, %s]",
			p.CycleDuration, MinCycleDuration, MaxCycleDuration)
	}
	if p.BidDeadline <= 0 || p.BidDeadline >= p.CycleDuration {
		return errorf(ErrValidation, "bid deadline %s must be positive and shorter than the cycle duration %s",
			p.BidDeadline, p.CycleDuration)
	}
	if p.CycleCount < 1 || p.CycleCount > MaxCycleCount {
		return errorf(ErrValidation, "cycle count %d out of range [1, %d]", p.CycleCount, MaxCycleCount)
	}
	if p.MinMembers < 2 || p.MinMembers > p.MaxMembers || p.MaxMembers > MaxMembers {
		return errorf(ErrValidation, "member bounds must satisfy 2 <= min(%d) <= max(%d) <= %d",
			p.MinMembers, p.MaxMembers, MaxMembers)
	}
	return nil
}

// CreatePot validates params, creates a pot, and auto-joins the creator as
// its first member. The creator must be a registered member.
func (e *Engine) CreatePot(ctx context.Context, creator string, params PotParams) (uint64, error) {
	if err := params.validate(); err != nil {
		return 0, err
	}
	if !e.reg.IsRegistered(ctx, creator) {
		return 0, errorf(ErrUnauthorized, "creator %s is not a registered member", creator)
	}

	pot := &potState{
		name:           params.Name,
		creator:        creator,
		amountPerCycle: params.AmountPerCycle,
		cycleDuration:  params.CycleDuration,
		bidDeadline:    params.BidDeadline,
		cycleCount:     params.CycleCount,
		members:        []string{creator},
		memberSet:      map[string]bool{creator: true},
		minMembers:     params.MinMembers,
		maxMembers:     params.MaxMembers,
		status:         models.PotActive,
		createdAt:      e.now().Unix(),
	}

	e.mu.Lock()
	e.pots = append(e.pots, pot)
	pot.id = uint64(len(e.pots))
	e.mu.Unlock()

	potsCreated.Inc()
	e.emit(ctx, models.EventPotCreated, pot.id, 0, creator, params.AmountPerCycle)
	e.emit(ctx, models.EventJoined, pot.id, 0, creator, 0)

	slog.Info("pot created",
		"pot", pot.id, "name", params.Name, "creator", creator,
		"amount_per_cycle", params.AmountPerCycle, "cycles", params.CycleCount)
	return pot.id, nil
}

// JoinPot adds a registered member to an active pot. Joining is only
// possible while the pot has room and before any cycle has completed.
func (e *Engine) JoinPot(ctx context.Context, potID uint64, member string) error {
	pot, err := e.potByID(potID)
	if err != nil {
		return err
	}
	if !e.reg.IsRegistered(ctx, member) {
		return errorf(ErrUnauthorized, "%s is not a registered member", member)
	}

	pot.mu.Lock()
	defer pot.mu.Unlock()

	if pot.status != models.PotActive {
		return errorf(ErrState, "pot %d is %s", potID, pot.status)
	}
	if pot.isMember(member) {
		return errorf(ErrState, "%s already joined pot %d", member, potID)
	}
	if len(pot.members) >= pot.maxMembers {
		return errorf(ErrState, "pot %d is full (%d members)", potID, pot.maxMembers)
	}
	if pot.completedCycles > 0 {
		return errorf(ErrState, "pot %d membership is frozen after its first completed cycle", potID)
	}

	pot.members = append(pot.members, member)
	pot.memberSet[member] = true

	e.emit(ctx, models.EventJoined, potID, 0, member, 0)
	slog.Info("member joined pot", "pot", potID, "member", member, "members", len(pot.members))
	return nil
}

// LeavePot removes a member from a pot. The creator cannot leave, and
// nobody can leave once a cycle has completed. Any bid the leaver placed in
// a live cycle is withdrawn with them, so a later auction cannot select a
// former member.
func (e *Engine) LeavePot(ctx context.Context, potID uint64, member string) error {
	pot, err := e.potByID(potID)
	if err != nil {
		return err
	}

	pot.mu.Lock()
	defer pot.mu.Unlock()

	if !pot.isMember(member) {
		return errorf(ErrState, "%s is not a member of pot %d", member, potID)
	}
	if member == pot.creator {
		return errorf(ErrUnauthorized, "the pot creator cannot leave")
	}
	if pot.completedCycles > 0 {
		return errorf(ErrState, "pot %d membership is frozen after its first completed cycle", potID)
	}

	for i, m := range pot.members {
		if m == member {
			pot.members = append(pot.members[:i], pot.members[i+1:]...)
			break
		}
	}
	delete(pot.memberSet, member)

	var retracted []uint64
	e.mu.Lock()
	for _, id := range pot.cycleIDs {
		c := e.cycles[id-1]
		if c.status == models.CycleCompleted {
			continue
		}
		if _, ok := c.bids[member]; !ok {
			continue
		}
		delete(c.bids, member)
		for i, b := range c.bidders {
			if b == member {
				c.bidders = append(c.bidders[:i], c.bidders[i+1:]...)
				break
			}
		}
		retracted = append(retracted, id)
	}
	e.mu.Unlock()

	for _, id := range retracted {
		e.reg.NotifyBid(ctx, member, potID, id, 0, false)
		slog.Info("bid withdrawn with leaving member", "pot", potID, "cycle", id, "member", member)
	}

	e.emit(ctx, models.EventLeft, potID, 0, member, 0)
	slog.Info("member left pot", "pot", potID, "member", member, "members", len(pot.members))
	return nil
}

// SetPaused toggles a pot between Active and Paused. Creator-only. A paused
// pot refuses joins and new cycles; cycles already running are unaffected.
func (e *Engine) SetPaused(ctx context.Context, potID uint64, caller string, paused bool) error {
	pot, err := e.potByID(potID)
	if err != nil {
		return err
	}

	pot.mu.Lock()
	defer pot.mu.Unlock()

	if caller != pot.creator {
		return errorf(ErrUnauthorized, "only the pot creator can pause or resume")
	}
	if pot.status == models.PotCompleted {
		return errorf(ErrState, "pot %d is completed", potID)
	}

	if paused {
		pot.status = models.PotPaused
	} else {
		pot.status = models.PotActive
	}

	slog.Info("pot status changed", "pot", potID, "status", pot.status.String())
	return nil
}
