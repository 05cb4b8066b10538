package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"nutrisnap/internal/model"
	"nutrisnap/internal/queue"
	"nutrisnap/internal/repository"
)

// FeedReconciler is the worker's narrow view back into the feed state.
// Invoked only on the post_shared path: id swap on success, degraded-mode
// parking when the remote collection turns out to be missing.
type FeedReconciler interface {
	ReconcilePost(tempID, serverID string) bool
	HandleShareFailure(ctx context.Context, post model.Post)
}

// Handler applies queued sync events to the remote store. Writes are
// best-effort: a failed write is logged and acknowledged, never retried,
// and never undoes the local mutation it trails.
type Handler struct {
	profiles   repository.ProfileRepository
	history    repository.HistoryRepository
	posts      repository.PostRepository
	water      repository.WaterRepository
	reconciler FeedReconciler
}

// NewHandler creates a new event handler.
func NewHandler(
	profiles repository.ProfileRepository,
	history repository.HistoryRepository,
	posts repository.PostRepository,
	water repository.WaterRepository,
	reconciler FeedReconciler,
) *Handler {
	return &Handler{
		profiles:   profiles,
		history:    history,
		posts:      posts,
		water:      water,
		reconciler: reconciler,
	}
}

// HandleEvent routes an event to the appropriate write based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.SyncEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventScanRecorded:
		err = h.handleScanRecorded(ctx, event)
	case queue.EventMealLogged:
		err = h.handleMealLogged(ctx, event)
	case queue.EventPostShared:
		err = h.handlePostShared(ctx, event)
	case queue.EventPostLiked:
		err = h.handlePostLiked(ctx, event)
	case queue.EventPostDeleted:
		err = h.handlePostDeleted(ctx, event)
	case queue.EventWaterLogged:
		err = h.handleWaterLogged(ctx, event)
	case queue.EventProfileUpdated:
		err = h.handleProfileUpdated(ctx, event)
	case queue.EventProChanged:
		err = h.handleProChanged(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s user=%s duration=%v err=%v",
			event.Type, event.UserID, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s user=%s duration=%v",
		event.Type, event.UserID, time.Since(startTime))
	return nil
}

func (h *Handler) handleScanRecorded(ctx context.Context, event queue.SyncEvent) error {
	err := h.profiles.UpdateScanCounters(ctx, event.UserID, event.ScanTotal, event.ScanDaily, event.ScanDay)
	if err != nil {
		return fmt.Errorf("update scan counters: %w", err)
	}
	return nil
}

func (h *Handler) handleMealLogged(ctx context.Context, event queue.SyncEvent) error {
	if event.Entry == nil {
		return fmt.Errorf("meal_logged event without entry")
	}
	if err := h.history.Insert(ctx, event.UserID, *event.Entry); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// handlePostShared inserts the post remotely and reconciles the local
// provisional id with the server-assigned one. A missing collection flips
// the feed into degraded mode instead of failing; the post then lives in
// the session cache under its temp id.
func (h *Handler) handlePostShared(ctx context.Context, event queue.SyncEvent) error {
	if event.Post == nil {
		return fmt.Errorf("post_shared event without post")
	}

	serverID, err := h.posts.Insert(ctx, *event.Post)
	if errors.Is(err, model.ErrCollectionMissing) {
		log.Printf("[Worker] PostShared: collection missing, keeping post local: tempID=%s", event.TempID)
		h.reconciler.HandleShareFailure(ctx, *event.Post)
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	h.reconciler.ReconcilePost(event.TempID, serverID)
	log.Printf("[Worker] PostShared: reconciled tempID=%s serverID=%s", event.TempID, serverID)
	return nil
}

func (h *Handler) handlePostLiked(ctx context.Context, event queue.SyncEvent) error {
	err := h.posts.UpdateLikes(ctx, event.PostID, event.Likes)
	if errors.Is(err, model.ErrCollectionMissing) || errors.Is(err, model.ErrPostNotFound) {
		// Local count stands either way.
		log.Printf("[Worker] PostLiked: remote copy unavailable: postID=%s err=%v", event.PostID, err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("update likes: %w", err)
	}
	return nil
}

func (h *Handler) handlePostDeleted(ctx context.Context, event queue.SyncEvent) error {
	err := h.posts.Delete(ctx, event.PostID, event.UserID)
	if errors.Is(err, model.ErrCollectionMissing) || errors.Is(err, model.ErrPostNotFound) {
		log.Printf("[Worker] PostDeleted: remote copy unavailable: postID=%s err=%v", event.PostID, err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

func (h *Handler) handleWaterLogged(ctx context.Context, event queue.SyncEvent) error {
	entry := model.WaterLog{
		UserID:   event.UserID,
		AmountML: event.AmountML,
		LogDate:  event.LogDate,
	}
	if err := h.water.Insert(ctx, entry); err != nil {
		return fmt.Errorf("insert water log: %w", err)
	}
	return nil
}

func (h *Handler) handleProfileUpdated(ctx context.Context, event queue.SyncEvent) error {
	if event.Profile == nil {
		return fmt.Errorf("profile_updated event without profile")
	}
	if event.Upsert {
		if err := h.profiles.Upsert(ctx, event.Profile); err != nil {
			return fmt.Errorf("upsert profile: %w", err)
		}
		return nil
	}
	if err := h.profiles.Update(ctx, event.Profile); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (h *Handler) handleProChanged(ctx context.Context, event queue.SyncEvent) error {
	if err := h.profiles.SetPro(ctx, event.UserID, event.IsPro); err != nil {
		return fmt.Errorf("set pro flag: %w", err)
	}
	return nil
}
