package sync

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"nutrisnap/internal/model"
	"nutrisnap/internal/queue"
	"nutrisnap/internal/state"
)

func newTestFeedSynchronizer(st *state.AppState, feedCache *mockFeedCache, pub *mockPublisher) *FeedSynchronizer {
	f := NewFeedSynchronizer(st, feedCache, pub)
	f.now = func() time.Time { return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC) }
	id := 0
	f.tempID = func() string {
		id++
		return model.TempIDPrefix + string(rune('a'+id-1))
	}
	return f
}

// =============================================================================
// SHARE TESTS
// =============================================================================

func TestFeedSynchronizer_SharePost_OptimisticInsert(t *testing.T) {
	// ARRANGE
	st := state.New()
	pub := &mockPublisher{}
	f := newTestFeedSynchronizer(st, &mockFeedCache{}, pub)
	sess := &model.Session{UserID: "user-1", Name: "Ana"}
	entry := model.NutritionData{
		Calories:     350,
		Protein:      20,
		Verdict:      "Healthy",
		ScannedImage: "https://cdn.example.com/scan.jpg",
	}

	// ACT
	post, err := f.SharePost(context.Background(), sess, entry, "lunch!")

	// ASSERT: the post is in the local feed immediately, under a temp id.
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !model.IsTempID(post.ID) {
		t.Errorf("post ID = %q, want a %q-prefixed provisional id", post.ID, model.TempIDPrefix)
	}
	if post.UserName != "Ana" {
		t.Errorf("UserName = %q, want %q", post.UserName, "Ana")
	}
	if post.NutritionSummary == nil || post.NutritionSummary.Calories != 350 {
		t.Errorf("NutritionSummary = %+v, want calories 350", post.NutritionSummary)
	}

	feed := st.Feed()
	if len(feed) != 1 || feed[0].ID != post.ID {
		t.Fatalf("feed = %+v, want the shared post at the head", feed)
	}

	events := pub.eventsOfType(queue.EventPostShared)
	if len(events) != 1 {
		t.Fatalf("published %d post_shared events, want 1", len(events))
	}
	if events[0].TempID != post.ID {
		t.Errorf("event TempID = %q, want %q", events[0].TempID, post.ID)
	}
}

func TestFeedSynchronizer_SharePost_DefaultCaption(t *testing.T) {
	st := state.New()
	f := newTestFeedSynchronizer(st, &mockFeedCache{}, &mockPublisher{})

	post, err := f.SharePost(context.Background(), &model.Session{UserID: "user-1"}, model.NutritionData{Verdict: "Superfood"}, "")

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if want := "Scan complete: Superfood!"; post.Caption != want {
		t.Errorf("caption = %q, want %q", post.Caption, want)
	}
}

func TestFeedSynchronizer_SharePost_CaptionTooLong(t *testing.T) {
	st := state.New()
	f := newTestFeedSynchronizer(st, &mockFeedCache{}, &mockPublisher{})

	_, err := f.SharePost(context.Background(), &model.Session{UserID: "user-1"}, model.NutritionData{}, strings.Repeat("x", model.MaxPostCaptionLength+1))

	if !errors.Is(err, model.ErrCaptionTooLong) {
		t.Errorf("error = %v, want ErrCaptionTooLong", err)
	}
	if len(st.Feed()) != 0 {
		t.Error("rejected share still reached the local feed")
	}
}

func TestFeedSynchronizer_SharePost_SummaryDetachedFromEntry(t *testing.T) {
	// ARRANGE
	st := state.New()
	f := newTestFeedSynchronizer(st, &mockFeedCache{}, &mockPublisher{})
	entry := model.NutritionData{Calories: 500, Verdict: "Moderate"}

	// ACT
	post, err := f.SharePost(context.Background(), &model.Session{UserID: "user-1"}, entry, "")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	entry.Calories = 9999

	// ASSERT: the shared snapshot is a copy.
	if post.NutritionSummary.Calories != 500 {
		t.Errorf("summary calories = %d, want 500", post.NutritionSummary.Calories)
	}
}

// =============================================================================
// LIKE TESTS
// =============================================================================

func TestFeedSynchronizer_LikePost_PublishesAbsoluteTotal(t *testing.T) {
	// ARRANGE
	st := state.New()
	st.SetFeed([]model.Post{{ID: "srv-1", UserID: "other", Likes: 4}}, false)
	pub := &mockPublisher{}
	f := newTestFeedSynchronizer(st, &mockFeedCache{}, pub)

	// ACT
	likes, err := f.LikePost(context.Background(), &model.Session{UserID: "user-1"}, "srv-1")

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if likes != 5 {
		t.Errorf("likes = %d, want 5", likes)
	}
	events := pub.eventsOfType(queue.EventPostLiked)
	if len(events) != 1 {
		t.Fatalf("published %d post_liked events, want 1", len(events))
	}
	if events[0].Likes != 5 {
		t.Errorf("event carries likes = %d, want the absolute total 5", events[0].Likes)
	}
}

func TestFeedSynchronizer_LikePost_TempPostStaysLocal(t *testing.T) {
	// ARRANGE: a provisional post awaiting confirmation.
	st := state.New()
	st.SetFeed([]model.Post{{ID: "temp-a", UserID: "user-1"}}, false)
	pub := &mockPublisher{}
	f := newTestFeedSynchronizer(st, &mockFeedCache{}, pub)

	// ACT
	likes, err := f.LikePost(context.Background(), &model.Session{UserID: "user-1"}, "temp-a")

	// ASSERT: the like counts locally but no remote write is queued.
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if likes != 1 {
		t.Errorf("likes = %d, want 1", likes)
	}
	if len(pub.events) != 0 {
		t.Errorf("published %d events for a temp-id like, want 0", len(pub.events))
	}
}

func TestFeedSynchronizer_LikePost_UnknownPost(t *testing.T) {
	st := state.New()
	f := newTestFeedSynchronizer(st, &mockFeedCache{}, &mockPublisher{})

	_, err := f.LikePost(context.Background(), &model.Session{UserID: "user-1"}, "nope")

	if !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("error = %v, want ErrPostNotFound", err)
	}
}

// =============================================================================
// DELETE TESTS
// =============================================================================

func TestFeedSynchronizer_DeletePost_OwnPost(t *testing.T) {
	// ARRANGE
	st := state.New()
	st.SetFeed([]model.Post{{ID: "srv-1", UserID: "user-1"}}, false)
	pub := &mockPublisher{}
	f := newTestFeedSynchronizer(st, &mockFeedCache{}, pub)

	// ACT
	err := f.DeletePost(context.Background(), &model.Session{UserID: "user-1"}, "srv-1")

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(st.Feed()) != 0 {
		t.Error("post still in the local feed after delete")
	}
	if got := len(pub.eventsOfType(queue.EventPostDeleted)); got != 1 {
		t.Errorf("published %d post_deleted events, want 1", got)
	}
}

func TestFeedSynchronizer_DeletePost_NotOwner(t *testing.T) {
	st := state.New()
	st.SetFeed([]model.Post{{ID: "srv-1", UserID: "other"}}, false)
	f := newTestFeedSynchronizer(st, &mockFeedCache{}, &mockPublisher{})

	err := f.DeletePost(context.Background(), &model.Session{UserID: "user-1"}, "srv-1")

	if !errors.Is(err, model.ErrNotPostOwner) {
		t.Errorf("error = %v, want ErrNotPostOwner", err)
	}
	if len(st.Feed()) != 1 {
		t.Error("someone else's post was removed locally")
	}
}

func TestFeedSynchronizer_DeletePost_TempPostSkipsRemoteDelete(t *testing.T) {
	st := state.New()
	st.SetFeed([]model.Post{{ID: "temp-a", UserID: "user-1"}}, false)
	pub := &mockPublisher{}
	f := newTestFeedSynchronizer(st, &mockFeedCache{}, pub)

	err := f.DeletePost(context.Background(), &model.Session{UserID: "user-1"}, "temp-a")

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("published %d events deleting an unconfirmed post, want 0", len(pub.events))
	}
}

func TestFeedSynchronizer_DeletePost_DegradedRemovesFromSessionCache(t *testing.T) {
	// ARRANGE: degraded mode, post parked in the session cache.
	st := state.New()
	st.SetFeed([]model.Post{{ID: "temp-a", UserID: "user-1"}}, true)
	feedCache := &mockFeedCache{}
	f := newTestFeedSynchronizer(st, feedCache, &mockPublisher{})

	// ACT
	err := f.DeletePost(context.Background(), &model.Session{UserID: "user-1"}, "temp-a")

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(feedCache.removed) != 1 || feedCache.removed[0] != "temp-a" {
		t.Errorf("session cache removals = %v, want [temp-a]", feedCache.removed)
	}
}

// =============================================================================
// RECONCILIATION TESTS
// =============================================================================

func TestFeedSynchronizer_ReconcilePost_PreservesInterimLikes(t *testing.T) {
	// ARRANGE: a provisional post liked twice while its insert is in flight.
	st := state.New()
	st.SetFeed([]model.Post{{ID: "temp-a", UserID: "user-1", Likes: 2}}, false)
	f := newTestFeedSynchronizer(st, &mockFeedCache{}, &mockPublisher{})

	// ACT
	ok := f.ReconcilePost("temp-a", "srv-42")

	// ASSERT: same post, new id, likes intact.
	if !ok {
		t.Fatal("reconcile reported the temp post missing")
	}
	feed := st.Feed()
	if len(feed) != 1 {
		t.Fatalf("feed length = %d, want 1", len(feed))
	}
	if feed[0].ID != "srv-42" {
		t.Errorf("post ID = %q, want %q", feed[0].ID, "srv-42")
	}
	if feed[0].Likes != 2 {
		t.Errorf("likes = %d after reconciliation, want 2", feed[0].Likes)
	}
}

func TestFeedSynchronizer_ReconcilePost_DeletedBeforeConfirmation(t *testing.T) {
	st := state.New()
	f := newTestFeedSynchronizer(st, &mockFeedCache{}, &mockPublisher{})

	if f.ReconcilePost("temp-gone", "srv-1") {
		t.Error("reconcile reported success for a post no longer present")
	}
}

func TestFeedSynchronizer_HandleShareFailure_ParksPostAndDegrades(t *testing.T) {
	// ARRANGE: the optimistic post is already in the local feed when the
	// worker discovers the remote collection is missing.
	st := state.New()
	post := model.Post{ID: "temp-a", UserID: "user-1"}
	st.SetFeed([]model.Post{post}, false)
	feedCache := &mockFeedCache{}
	f := newTestFeedSynchronizer(st, feedCache, &mockPublisher{})

	// ACT
	f.HandleShareFailure(context.Background(), post)

	// ASSERT: degraded mode on, post parked, local feed untouched.
	if !st.FeedDegraded() {
		t.Error("feed not marked degraded")
	}
	if len(feedCache.saved) != 1 || feedCache.saved[0].ID != "temp-a" {
		t.Errorf("session cache saves = %+v, want the provisional post", feedCache.saved)
	}
	if len(st.Feed()) != 1 {
		t.Error("provisional post vanished from the local feed")
	}
}
