package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"nutrisnap/internal/httputil"
	"nutrisnap/internal/model"
	"nutrisnap/internal/sync"
	"nutrisnap/internal/transport/http/middleware"
)

type MealHandler struct {
	history *sync.HistoryLedger
	feed    *sync.FeedSynchronizer
	state   stateReader
}

// stateReader is the slice of app state the meal handler reads.
type stateReader interface {
	History() []model.NutritionData
}

func NewMealHandler(history *sync.HistoryLedger, feed *sync.FeedSynchronizer, st stateReader) *MealHandler {
	return &MealHandler{history: history, feed: feed, state: st}
}

// List handles GET /meals
// Returns the scan history, newest first.
func (h *MealHandler) List(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.state.History())
}

// Log handles POST /meals
// Confirms a completed analysis into the history ledger.
func (h *MealHandler) Log(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "No active session")
		return
	}

	var entry model.NutritionData
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	logged, err := h.history.LogMeal(r.Context(), sess, entry)
	if err != nil {
		log.Printf("[ERROR] Log meal handler: user=%s err=%v", sess.UserID, err)
		httputil.WriteInternalError(w, "Failed to log meal")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, logged)
}

// LogAndShare handles POST /meals/share
// One-tap log plus share: the entry lands in the ledger and a post with a
// detached nutrition snapshot goes to the feed.
func (h *MealHandler) LogAndShare(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "No active session")
		return
	}

	var req struct {
		Entry   model.NutritionData `json:"entry"`
		Caption string              `json:"caption"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	logged, err := h.history.LogMeal(r.Context(), sess, req.Entry)
	if err != nil {
		log.Printf("[ERROR] Log and share handler: user=%s err=%v", sess.UserID, err)
		httputil.WriteInternalError(w, "Failed to log meal")
		return
	}

	post, err := h.feed.SharePost(r.Context(), sess, logged, req.Caption)
	if err != nil {
		if errors.Is(err, model.ErrCaptionTooLong) {
			httputil.WriteBadRequest(w, "Caption too long (max 2200 characters)")
			return
		}
		log.Printf("[ERROR] Log and share handler: user=%s err=%v", sess.UserID, err)
		httputil.WriteInternalError(w, "Failed to share meal")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"entry": logged,
		"post":  post,
	})
}
