package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/esusuhq/esusu/internal/middleware"
	"github.com/esusuhq/esusu/internal/models"
)

type bidResponse struct {
	Bidder string `json:"bidder"`
	Amount int64  `json:"amount"`
}

type cycleResponse struct {
	ID             uint64        `json:"id"`
	PotID          uint64        `json:"pot_id"`
	StartTime      int64         `json:"start_time"`
	EndTime        int64         `json:"end_time"`
	Winner         string        `json:"winner,omitempty"`
	WinningAmount  int64         `json:"winning_amount"`
	Status         string        `json:"status"`
	Bids           []bidResponse `json:"bids"`
	Paid           []string      `json:"paid"`
	TotalCollected int64         `json:"total_collected"`
	FundsReleased  bool          `json:"funds_released"`

	// RandomnessRequest is the pending oracle handle when the cycle is
	// awaiting randomness.
	RandomnessRequest string `json:"randomness_request,omitempty"`
}

func toCycleResponse(cycle *models.Cycle) cycleResponse {
	bids := make([]bidResponse, len(cycle.Bids))
	for i, b := range cycle.Bids {
		bids[i] = bidResponse{Bidder: b.Bidder, Amount: b.Amount}
	}
	return cycleResponse{
		ID:             cycle.ID,
		PotID:          cycle.PotID,
		StartTime:      cycle.StartTime,
		EndTime:        cycle.EndTime,
		Winner:         cycle.Winner,
		WinningAmount:  cycle.WinningAmount,
		Status:         cycle.Status.String(),
		Bids:           bids,
		Paid:           cycle.Paid,
		TotalCollected: cycle.TotalCollected,
		FundsReleased:  cycle.FundsReleased,

		RandomnessRequest: cycle.RandomnessRequest,
	}
}

// cycleIDParam parses the {cycleID} route parameter.
func cycleIDParam(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "cycleID"), 10, 64)
}

func (h *Handler) payForCycle(w http.ResponseWriter, r *http.Request) {
	cycleID, err := cycleIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cycle id"})
		return
	}

	if err := h.Engine.PayForCycle(r.Context(), cycleID, middleware.GetMemberID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

func (h *Handler) placeBid(w http.ResponseWriter, r *http.Request) {
	cycleID, err := cycleIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cycle id"})
		return
	}

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.Engine.PlaceBid(r.Context(), cycleID, middleware.GetMemberID(r.Context()), req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"amount": req.Amount})
}

func (h *Handler) closeBidding(w http.ResponseWriter, r *http.Request) {
	cycleID, err := cycleIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cycle id"})
		return
	}

	if err := h.Engine.CloseBidding(r.Context(), cycleID, middleware.GetMemberID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "bidding closed"})
}

func (h *Handler) declareWinner(w http.ResponseWriter, r *http.Request) {
	cycleID, err := cycleIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cycle id"})
		return
	}

	if err := h.Engine.DeclareWinner(r.Context(), cycleID, middleware.GetMemberID(r.Context())); err != nil {
		writeError(w, err)
		return
	}

	// The winner may not be known yet if the oracle path was taken; return
	// the cycle snapshot so the caller can see which.
	cycle, err := h.Engine.CycleInfo(cycleID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCycleResponse(cycle))
}

func (h *Handler) completeCycle(w http.ResponseWriter, r *http.Request) {
	cycleID, err := cycleIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cycle id"})
		return
	}

	if err := h.Engine.CompleteCycle(r.Context(), cycleID, middleware.GetMemberID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (h *Handler) recoverRandomness(w http.ResponseWriter, r *http.Request) {
	cycleID, err := cycleIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cycle id"})
		return
	}

	if err := h.Engine.RecoverRandomness(r.Context(), cycleID); err != nil {
		writeError(w, err)
		return
	}

	cycle, err := h.Engine.CycleInfo(cycleID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCycleResponse(cycle))
}

func (h *Handler) cycleInfo(w http.ResponseWriter, r *http.Request) {
	cycleID, err := cycleIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cycle id"})
		return
	}

	cycle, err := h.Engine.CycleInfo(cycleID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCycleResponse(cycle))
}

func (h *Handler) userBid(w http.ResponseWriter, r *http.Request) {
	cycleID, err := cycleIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cycle id"})
		return
	}
	member := chi.URLParam(r, "memberID")

	amount, ok, err := h.Engine.UserBid(cycleID, member)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"amount": amount, "placed": ok})
}
