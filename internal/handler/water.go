package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"nutrisnap/internal/httputil"
	"nutrisnap/internal/state"
	"nutrisnap/internal/sync"
	"nutrisnap/internal/transport/http/middleware"
)

type WaterHandler struct {
	profiles *sync.ProfileSynchronizer
	state    *state.AppState
}

func NewWaterHandler(profiles *sync.ProfileSynchronizer, st *state.AppState) *WaterHandler {
	return &WaterHandler{profiles: profiles, state: st}
}

// Get handles GET /water
func (h *WaterHandler) Get(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"water_ml": h.state.WaterML()})
}

// Add handles POST /water
// Adds to today's total. Amounts are positive; there is no undo.
func (h *WaterHandler) Add(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "No active session")
		return
	}

	var req struct {
		AmountML int `json:"amount_ml"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.AmountML <= 0 {
		httputil.WriteBadRequest(w, "Amount must be positive")
		return
	}

	total, err := h.profiles.AddWater(r.Context(), sess, req.AmountML)
	if err != nil {
		log.Printf("[ERROR] Add water handler: user=%s err=%v", sess.UserID, err)
		httputil.WriteInternalError(w, "Failed to log water")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]int{"water_ml": total})
}
