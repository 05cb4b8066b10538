package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"nutrisnap/internal/cache"
	"nutrisnap/internal/model"
	"nutrisnap/internal/queue"
	"nutrisnap/internal/state"
)

// FeedSynchronizer applies optimistic mutations to the community feed.
// Every operation transitions local state first and queues the remote
// write behind it; remote confirmations only swap provisional ids, they
// never undo a local mutation.
type FeedSynchronizer struct {
	state     *state.AppState
	feedCache cache.SessionFeedCache
	publisher queue.Publisher

	now    func() time.Time
	tempID func() string
}

func NewFeedSynchronizer(st *state.AppState, feedCache cache.SessionFeedCache, publisher queue.Publisher) *FeedSynchronizer {
	return &FeedSynchronizer{
		state:     st,
		feedCache: feedCache,
		publisher: publisher,
		now:       time.Now,
		tempID: func() string {
			return model.TempIDPrefix + uuid.NewString()
		},
	}
}

// SharePost publishes a scanned meal to the feed. The post appears at the
// head immediately under a provisional id and is immediately likeable and
// deletable; the real id arrives later through reconciliation.
func (f *FeedSynchronizer) SharePost(ctx context.Context, sess *model.Session, entry model.NutritionData, caption string) (model.Post, error) {
	if sess == nil {
		return model.Post{}, model.ErrSessionRequired
	}
	if len(caption) > model.MaxPostCaptionLength {
		return model.Post{}, model.ErrCaptionTooLong
	}
	if caption == "" {
		caption = fmt.Sprintf("Scan complete: %s!", entry.Verdict)
	}

	// Detach the summary from the ledger entry so later history mutations
	// cannot reach into the feed.
	summary := entry.Summarize()

	userName := sess.Name
	if userName == "" {
		if p := f.state.Profile(); p != nil {
			userName = p.Name
		}
	}

	post := model.Post{
		ID:               f.tempID(),
		UserID:           sess.UserID,
		UserName:         userName,
		UserAvatar:       fmt.Sprintf("https://picsum.photos/seed/%s/100", sess.UserID),
		ImageURL:         entry.ScannedImage,
		Caption:          caption,
		Likes:            0,
		CreatedAt:        f.now(),
		NutritionSummary: &summary,
	}

	f.state.PrependPost(post)

	event := queue.NewPostSharedEvent(sess.UserID, post.ID, post)
	if _, err := f.publisher.Publish(ctx, queue.StreamSync, event); err != nil {
		log.Printf("[Feed] share publish failed: user=%s tempID=%s err=%v", sess.UserID, post.ID, err)
	}
	return post, nil
}

// LikePost bumps a post's like counter. Provisional posts are likeable but
// their likes stay local until reconciliation assigns a real id; for
// confirmed posts the new absolute total is written through.
func (f *FeedSynchronizer) LikePost(ctx context.Context, sess *model.Session, postID string) (int, error) {
	if sess == nil {
		return 0, model.ErrSessionRequired
	}

	likes, ok := f.state.ApplyLike(postID)
	if !ok {
		return 0, fmt.Errorf("like post %s: %w", postID, model.ErrPostNotFound)
	}
	if model.IsTempID(postID) {
		return likes, nil
	}

	event := queue.NewPostLikedEvent(sess.UserID, postID, likes)
	if _, err := f.publisher.Publish(ctx, queue.StreamSync, event); err != nil {
		log.Printf("[Feed] like publish failed: user=%s postID=%s err=%v", sess.UserID, postID, err)
	}
	return likes, nil
}

// DeletePost removes the caller's own post. Local removal is immediate and
// final; the remote delete rides behind it for confirmed posts.
func (f *FeedSynchronizer) DeletePost(ctx context.Context, sess *model.Session, postID string) error {
	if sess == nil {
		return model.ErrSessionRequired
	}

	var owner string
	for _, p := range f.state.Feed() {
		if p.ID == postID {
			owner = p.UserID
			break
		}
	}
	if owner == "" {
		return fmt.Errorf("delete post %s: %w", postID, model.ErrPostNotFound)
	}
	if owner != sess.UserID {
		return model.ErrNotPostOwner
	}

	removed, ok := f.state.RemovePost(postID)
	if !ok {
		return fmt.Errorf("delete post %s: %w", postID, model.ErrPostNotFound)
	}

	if f.state.FeedDegraded() {
		if err := f.feedCache.RemovePost(ctx, sess.UserID, removed.ID); err != nil {
			log.Printf("[Feed] session cache remove failed: user=%s postID=%s err=%v", sess.UserID, removed.ID, err)
		}
	}
	if model.IsTempID(postID) {
		// Never confirmed remotely, nothing to delete there.
		return nil
	}

	event := queue.NewPostDeletedEvent(sess.UserID, postID)
	if _, err := f.publisher.Publish(ctx, queue.StreamSync, event); err != nil {
		log.Printf("[Feed] delete publish failed: user=%s postID=%s err=%v", sess.UserID, postID, err)
	}
	return nil
}

// ReconcilePost swaps a provisional id for the server-assigned one once the
// remote insert confirms. Likes gathered in the meantime survive the swap.
func (f *FeedSynchronizer) ReconcilePost(tempID, serverID string) bool {
	ok := f.state.ReconcilePost(tempID, serverID)
	if !ok {
		// The post was deleted locally before confirmation; the remote copy
		// stays, matching the no-rollback contract.
		log.Printf("[Feed] reconcile skipped, temp post gone: tempID=%s serverID=%s", tempID, serverID)
	}
	return ok
}

// HandleShareFailure is invoked when the remote feed collection turns out
// to be missing while a share is in flight. The feed flips to degraded mode
// and the provisional post is parked in the session cache; it keeps its
// temp id and is never removed from the local feed.
func (f *FeedSynchronizer) HandleShareFailure(ctx context.Context, post model.Post) {
	f.state.SetFeedDegraded(true)
	if err := f.feedCache.SavePost(ctx, post.UserID, post); err != nil {
		log.Printf("[Feed] session cache save failed: user=%s postID=%s err=%v", post.UserID, post.ID, err)
	}
}
