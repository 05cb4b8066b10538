package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nutrisnap/internal/httputil"
	"nutrisnap/internal/model"
	"nutrisnap/internal/state"
	"nutrisnap/internal/sync"
	"nutrisnap/internal/transport/http/middleware"
)

type PostHandler struct {
	feed  *sync.FeedSynchronizer
	state *state.AppState
}

func NewPostHandler(feed *sync.FeedSynchronizer, st *state.AppState) *PostHandler {
	return &PostHandler{feed: feed, state: st}
}

// List handles GET /posts
// Returns the feed newest-first plus the degraded flag; a degraded feed is
// session-local only.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"posts":    h.state.Feed(),
		"degraded": h.state.FeedDegraded(),
	})
}

// Share handles POST /posts
// Publishes an analyzed meal to the feed. The response carries the
// provisional post; its id changes once the remote insert confirms.
func (h *PostHandler) Share(w http.ResponseWriter, r *http.Request) {
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

	post, err := h.feed.SharePost(r.Context(), sess, req.Entry, req.Caption)
	if err != nil {
		if errors.Is(err, model.ErrCaptionTooLong) {
			httputil.WriteBadRequest(w, "Caption too long (max 2200 characters)")
			return
		}
		log.Printf("[ERROR] Share post handler: user=%s err=%v", sess.UserID, err)
		httputil.WriteInternalError(w, "Failed to share post")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// Like handles POST /posts/{id}/like
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "No active session")
		return
	}

	postID := chi.URLParam(r, "id")
	likes, err := h.feed.LikePost(r.Context(), sess, postID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		log.Printf("[ERROR] Like post handler: user=%s post=%s err=%v", sess.UserID, postID, err)
		httputil.WriteInternalError(w, "Failed to like post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]int{"likes": likes})
}

// Delete handles DELETE /posts/{id}?confirm=true
// Destructive and unrecoverable, so the confirm flag is mandatory.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "No active session")
		return
	}

	if r.URL.Query().Get("confirm") != "true" {
		httputil.WriteBadRequest(w, "Deletion requires confirm=true")
		return
	}

	postID := chi.URLParam(r, "id")
	if err := h.feed.DeletePost(r.Context(), sess, postID); err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrNotPostOwner):
			httputil.WriteForbidden(w, "Only the owner can delete a post")
		default:
			log.Printf("[ERROR] Delete post handler: user=%s post=%s err=%v", sess.UserID, postID, err)
			httputil.WriteInternalError(w, "Failed to delete post")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
