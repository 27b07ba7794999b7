package api

import (
	"net/http"
	"strconv"

	"github.com/esusuhq/esusu/internal/models"
)

type eventResponse struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	PotID     uint64 `json:"pot_id"`
	CycleID   uint64 `json:"cycle_id,omitempty"`
	Member    string `json:"member,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

func toEventResponses(events []models.Event) []eventResponse {
	out := make([]eventResponse, len(events))
	for i, ev := range events {
		out[i] = eventResponse{
			ID:        ev.ID,
			Type:      string(ev.Type),
			PotID:     ev.PotID,
			CycleID:   ev.CycleID,
			Member:    ev.Member,
			Amount:    ev.Amount,
			CreatedAt: ev.CreatedAt,
		}
	}
	return out
}

// limitParam parses the optional ?limit query parameter.
func limitParam(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	events, err := h.Store.ListEvents(r.Context(), 0, limitParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponses(events))
}

func (h *Handler) potEvents(w http.ResponseWriter, r *http.Request) {
	potID, err := potIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid pot id"})
		return
	}

	events, err := h.Store.ListEvents(r.Context(), potID, limitParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponses(events))
}
