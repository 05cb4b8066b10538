package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"nutrisnap/internal/httputil"
	"nutrisnap/internal/model"
	"nutrisnap/internal/state"
	"nutrisnap/internal/sync"
	"nutrisnap/internal/transport/http/middleware"
)

type ProfileHandler struct {
	profiles *sync.ProfileSynchronizer
	state    *state.AppState
}

func NewProfileHandler(profiles *sync.ProfileSynchronizer, st *state.AppState) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, state: st}
}

// Get handles GET /profile
// Returns the synchronized profile view plus today's water total and the
// sync flag. A 404 with no profile means the user still needs onboarding.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile := h.state.Profile()
	if profile == nil {
		httputil.WriteNotFound(w, "Profile not found, onboarding required")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"profile":  profile,
		"water_ml": h.state.WaterML(),
		"syncing":  h.state.Syncing(),
	})
}

// CompleteOnboarding handles POST /profile/onboarding
func (h *ProfileHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "No active session")
		return
	}

	var req model.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "Name is required")
		return
	}

	if err := h.profiles.CompleteOnboarding(r.Context(), sess, req); err != nil {
		log.Printf("[ERROR] Onboarding handler: user=%s err=%v", sess.UserID, err)
		httputil.WriteInternalError(w, "Failed to complete onboarding")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, h.state.Profile())
}

// Update handles PUT /profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "No active session")
		return
	}

	var req model.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.profiles.UpdateProfile(r.Context(), sess, req); err != nil {
		if errors.Is(err, model.ErrSessionRequired) {
			httputil.WriteUnauthorized(w, "No active session")
			return
		}
		log.Printf("[ERROR] Update profile handler: user=%s err=%v", sess.UserID, err)
		httputil.WriteInternalError(w, "Failed to update profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.state.Profile())
}

// SetPro handles POST /profile/pro
// Records a subscription purchase or lapse.
func (h *ProfileHandler) SetPro(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "No active session")
		return
	}

	var req struct {
		IsPro bool `json:"is_pro"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.profiles.SetPro(r.Context(), sess, req.IsPro); err != nil {
		log.Printf("[ERROR] Set pro handler: user=%s err=%v", sess.UserID, err)
		httputil.WriteInternalError(w, "Failed to update subscription")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.state.Profile())
}
