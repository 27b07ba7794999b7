package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Ensure Sim implements Oracle
var _ Oracle = (*Sim)(nil)

type request struct {
	candidates []string
	fulfilled  bool
	result     string
}

// Sim is an in-process oracle simulator. Selections are made with a seeded
// PRNG so runs are reproducible. If a delivery callback and delay are
// configured, each request is fulfilled and delivered on its own goroutine;
// otherwise requests stay pending until Fulfill is called explicitly, which
// is what tests use to drive the asynchronous path deterministically.
type Sim struct {
	mu       sync.Mutex
	rng      *rand.Rand
	requests map[string]*request

	id      string
	deliver FulfillmentFunc
	delay   time.Duration
}

// NewSim creates a simulator identified by id, selecting with the given seed.
func NewSim(id string, seed int64) *Sim {
	return &Sim{
		rng:      rand.New(rand.NewSource(seed)),
		requests: make(map[string]*request),
		id:       id,
	}
}

// ID returns the identity the simulator delivers fulfillments under.
func (s *Sim) ID() string { return s.id }

// SetDelivery configures automatic fulfillment: each request is resolved and
// delivered to fn after delay.
func (s *Sim) SetDelivery(fn FulfillmentFunc, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliver = fn
	s.delay = delay
}

// RequestSelection registers a request and returns its handle.
func (s *Sim) RequestSelection(ctx context.Context, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("selection requires at least one candidate")
	}

	s.mu.Lock()
	handle := uuid.New().String()
	cc := make([]string, len(candidates))
	copy(cc, candidates)
	s.requests[handle] = &request{candidates: cc}
	deliver := s.deliver
	delay := s.delay
	s.mu.Unlock()

	if deliver != nil {
		go func() {
			time.Sleep(delay)
			winner, err := s.Fulfill(handle)
			if err != nil {
				slog.Error("oracle fulfillment failed", "handle", handle, "error", err)
				return
			}
			if err := deliver(context.Background(), s.id, handle, winner); err != nil {
				slog.Warn("oracle delivery rejected", "handle", handle, "winner", winner, "error", err)
			}
		}()
	}

	return handle, nil
}

// Fulfill resolves a pending request and returns the selection. Idempotent:
// fulfilling twice returns the same result.
func (s *Sim) Fulfill(handle string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[handle]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRequest, handle)
	}
	if !req.fulfilled {
		req.result = req.candidates[s.rng.Intn(len(req.candidates))]
		req.fulfilled = true
	}
	return req.result, nil
}

// IsFulfilled reports whether the request has resolved.
func (s *Sim) IsFulfilled(ctx context.Context, handle string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[handle]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownRequest, handle)
	}
	return req.fulfilled, nil
}

// Result returns the selection for a fulfilled request.
func (s *Sim) Result(ctx context.Context, handle string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[handle]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRequest, handle)
	}
	if !req.fulfilled {
		return "", fmt.Errorf("%w: %s", ErrNotFulfilled, handle)
	}
	return req.result, nil
}
