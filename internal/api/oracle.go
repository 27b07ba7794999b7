package api

import (
	"net/http"
)

type fulfillRequest struct {
	Handle string `json:"handle"`
	Winner string `json:"winner"`
}

// oracleFulfill is the authenticated callback the randomness oracle posts
// selections to. The route token proves transport identity; the engine
// additionally checks the caller id against its configured oracle.
func (h *Handler) oracleFulfill(w http.ResponseWriter, r *http.Request) {
	var req fulfillRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Handle == "" || req.Winner == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "handle and winner are required"})
		return
	}

	if err := h.Engine.HandleRandomnessFulfilled(r.Context(), h.OracleID, req.Handle, req.Winner); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "fulfilled"})
}
