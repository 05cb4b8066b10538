package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"nutrisnap/internal/httputil"
	"nutrisnap/internal/model"
	"nutrisnap/internal/session"
)

type SessionHandler struct {
	store *session.Store
}

func NewSessionHandler(store *session.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

// Get handles GET /session
// Returns the current session, or 404 when logged out.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := h.store.Current()
	if sess == nil {
		httputil.WriteNotFound(w, "No active session")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess)
}

// SetToken handles POST /session
// Installs an auth token; every downstream sync keys off the resulting
// session change.
func (h *SessionHandler) SetToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Token == "" {
		httputil.WriteBadRequest(w, "Token is required")
		return
	}

	sess, err := h.store.SetToken(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, model.ErrInvalidToken) {
			httputil.WriteUnauthorized(w, "Invalid token")
			return
		}
		log.Printf("[ERROR] Set token handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to install session")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, sess)
}

// Clear handles DELETE /session
// Logs out: the session goes away and all derived state resets.
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.store.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
