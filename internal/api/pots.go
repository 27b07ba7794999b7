package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/esusuhq/esusu/internal/engine"
	"github.com/esusuhq/esusu/internal/middleware"
	"github.com/esusuhq/esusu/internal/models"
)

type createPotRequest struct {
	Name           string `json:"name"`
	AmountPerCycle int64  `json:"amount_per_cycle"`
	CycleDurationS int64  `json:"cycle_duration_seconds"`
	BidDeadlineS   int64  `json:"bid_deadline_seconds"`
	CycleCount     int    `json:"cycle_count"`
	MinMembers     int    `json:"min_members"`
	MaxMembers     int    `json:"max_members"`
}

type potResponse struct {
	ID              uint64   `json:"id"`
	Name            string   `json:"name"`
	Creator         string   `json:"creator"`
	AmountPerCycle  int64    `json:"amount_per_cycle"`
	CycleDurationS  int64    `json:"cycle_duration_seconds"`
	BidDeadlineS    int64    `json:"bid_deadline_seconds"`
	CycleCount      int      `json:"cycle_count"`
	CompletedCycles int      `json:"completed_cycles"`
	Members         []string `json:"members"`
	MinMembers      int      `json:"min_members"`
	MaxMembers      int      `json:"max_members"`
	Status          string   `json:"status"`
	CycleIDs        []uint64 `json:"cycle_ids"`
	CreatedAt       int64    `json:"created_at"`
}

func toPotResponse(pot *models.Pot) potResponse {
	return potResponse{
		ID:              pot.ID,
		Name:            pot.Name,
		Creator:         pot.Creator,
		AmountPerCycle:  pot.AmountPerCycle,
		CycleDurationS:  int64(pot.CycleDuration / time.Second),
		BidDeadlineS:    int64(pot.BidDeadline / time.Second),
		CycleCount:      pot.CycleCount,
		CompletedCycles: pot.CompletedCycles,
		Members:         pot.Members,
		MinMembers:      pot.MinMembers,
		MaxMembers:      pot.MaxMembers,
		Status:          pot.Status.String(),
		CycleIDs:        pot.CycleIDs,
		CreatedAt:       pot.CreatedAt,
	}
}

// potIDParam parses the {potID} route parameter.
func potIDParam(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "potID"), 10, 64)
}

func (h *Handler) createPot(w http.ResponseWriter, r *http.Request) {
	var req createPotRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	potID, err := h.Engine.CreatePot(r.Context(), middleware.GetMemberID(r.Context()), engine.PotParams{
		Name:           req.Name,
		AmountPerCycle: req.AmountPerCycle,
		CycleDuration:  time.Duration(req.CycleDurationS) * time.Second,
		BidDeadline:    time.Duration(req.BidDeadlineS) * time.Second,
		CycleCount:     req.CycleCount,
		MinMembers:     req.MinMembers,
		MaxMembers:     req.MaxMembers,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]uint64{"pot_id": potID})
}

func (h *Handler) joinPot(w http.ResponseWriter, r *http.Request) {
	potID, err := potIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid pot id"})
		return
	}

	if err := h.Engine.JoinPot(r.Context(), potID, middleware.GetMemberID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

func (h *Handler) leavePot(w http.ResponseWriter, r *http.Request) {
	potID, err := potIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid pot id"})
		return
	}

	if err := h.Engine.LeavePot(r.Context(), potID, middleware.GetMemberID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

func (h *Handler) setPaused(w http.ResponseWriter, r *http.Request) {
	potID, err := potIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid pot id"})
		return
	}

	var req struct {
		Paused bool `json:"paused"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.Engine.SetPaused(r.Context(), potID, middleware.GetMemberID(r.Context()), req.Paused); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": req.Paused})
}

func (h *Handler) startCycle(w http.ResponseWriter, r *http.Request) {
	potID, err := potIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid pot id"})
		return
	}

	cycleID, err := h.Engine.StartCycle(r.Context(), potID, middleware.GetMemberID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"cycle_id": cycleID})
}

func (h *Handler) potInfo(w http.ResponseWriter, r *http.Request) {
	potID, err := potIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid pot id"})
		return
	}

	pot, err := h.Engine.PotInfo(potID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPotResponse(pot))
}

func (h *Handler) potMemberCount(w http.ResponseWriter, r *http.Request) {
	potID, err := potIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid pot id"})
		return
	}

	count, err := h.Engine.PotMemberCount(potID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"member_count": count})
}

func (h *Handler) potCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"pot_count": h.Engine.PotCount()})
}
