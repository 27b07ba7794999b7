// Package api exposes the engine over a JSON HTTP surface.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/esusuhq/esusu/internal/auth"
	"github.com/esusuhq/esusu/internal/engine"
	"github.com/esusuhq/esusu/internal/escrow"
	"github.com/esusuhq/esusu/internal/middleware"
	"github.com/esusuhq/esusu/internal/storage"
)

// Handler wires the engine and collaborators into HTTP routes.
type Handler struct {
	Engine        *engine.Engine
	Authenticator auth.Authenticator
	JWT           *auth.JWTManager
	Store         storage.Store

	// OracleToken authenticates the oracle callback route. Service identity,
	// distinct from member sessions.
	OracleToken string
	// OracleID is the caller identity fulfillments are applied under.
	OracleID string
}

// RegisterRoutes registers all API routes with the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/v1/members/register", h.register)
	r.Post("/v1/members/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.JWT))

		r.Post("/v1/pots", h.createPot)
		r.Post("/v1/pots/{potID}/join", h.joinPot)
		r.Post("/v1/pots/{potID}/leave", h.leavePot)
		r.Post("/v1/pots/{potID}/pause", h.setPaused)
		r.Post("/v1/pots/{potID}/cycles", h.startCycle)

		r.Post("/v1/cycles/{cycleID}/pay", h.payForCycle)
		r.Post("/v1/cycles/{cycleID}/bids", h.placeBid)
		r.Post("/v1/cycles/{cycleID}/close", h.closeBidding)
		r.Post("/v1/cycles/{cycleID}/winner", h.declareWinner)
		r.Post("/v1/cycles/{cycleID}/complete", h.completeCycle)
	})

	// Recovery is deliberately unauthenticated: anyone may nudge a cycle
	// stuck waiting on a lost oracle callback.
	r.Post("/v1/cycles/{cycleID}/recover", h.recoverRandomness)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireToken(h.OracleToken))
		r.Post("/v1/oracle/fulfill", h.oracleFulfill)
	})

	r.Get("/v1/pots", h.potCount)
	r.Get("/v1/pots/{potID}", h.potInfo)
	r.Get("/v1/pots/{potID}/members/count", h.potMemberCount)
	r.Get("/v1/pots/{potID}/events", h.potEvents)
	r.Get("/v1/cycles/{cycleID}", h.cycleInfo)
	r.Get("/v1/cycles/{cycleID}/bids/{memberID}", h.userBid)
	r.Get("/v1/events", h.events)
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps an error onto the failure taxonomy and writes it.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrValidation), errors.Is(err, escrow.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrState),
		errors.Is(err, escrow.ErrInsufficientBucket),
		errors.Is(err, escrow.ErrInterestTaken):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrDependency), errors.Is(err, escrow.ErrReserveVerification):
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decode parses the request body into v.
func decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
