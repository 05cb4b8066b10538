package worker

import (
	"context"
	"errors"
	"testing"

	"nutrisnap/internal/model"
	"nutrisnap/internal/queue"
)

// =============================================================================
// MOCKS
// =============================================================================

type mockProfileRepo struct {
	upsertFn      func(ctx context.Context, p *model.UserProfile) error
	updateFn      func(ctx context.Context, p *model.UserProfile) error
	scanCounterFn func(ctx context.Context, userID string, total, daily int, day string) error
	setProFn      func(ctx context.Context, userID string, isPro bool) error

	upsertCalls []model.UserProfile
	updateCalls []model.UserProfile
}

func (m *mockProfileRepo) Get(ctx context.Context, userID string) (*model.ProfileRow, error) {
	return nil, model.ErrProfileNotFound
}

func (m *mockProfileRepo) Upsert(ctx context.Context, p *model.UserProfile) error {
	m.upsertCalls = append(m.upsertCalls, *p)
	if m.upsertFn != nil {
		return m.upsertFn(ctx, p)
	}
	return nil
}

func (m *mockProfileRepo) Update(ctx context.Context, p *model.UserProfile) error {
	m.updateCalls = append(m.updateCalls, *p)
	if m.updateFn != nil {
		return m.updateFn(ctx, p)
	}
	return nil
}

func (m *mockProfileRepo) UpdateScanCounters(ctx context.Context, userID string, total, daily int, day string) error {
	if m.scanCounterFn != nil {
		return m.scanCounterFn(ctx, userID, total, daily, day)
	}
	return nil
}

func (m *mockProfileRepo) SetPro(ctx context.Context, userID string, isPro bool) error {
	if m.setProFn != nil {
		return m.setProFn(ctx, userID, isPro)
	}
	return nil
}

type mockHistoryRepo struct {
	insertFn func(ctx context.Context, userID string, entry model.NutritionData) error
}

func (m *mockHistoryRepo) Insert(ctx context.Context, userID string, entry model.NutritionData) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, userID, entry)
	}
	return nil
}

func (m *mockHistoryRepo) ListByUser(ctx context.Context, userID string) ([]model.NutritionData, error) {
	return nil, nil
}

type mockPostRepo struct {
	insertFn      func(ctx context.Context, post model.Post) (string, error)
	updateLikesFn func(ctx context.Context, postID string, likes int) error
	deleteFn      func(ctx context.Context, postID, userID string) error
}

func (m *mockPostRepo) Insert(ctx context.Context, post model.Post) (string, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, post)
	}
	return "srv-1", nil
}

func (m *mockPostRepo) List(ctx context.Context) ([]model.Post, error) { return nil, nil }

func (m *mockPostRepo) UpdateLikes(ctx context.Context, postID string, likes int) error {
	if m.updateLikesFn != nil {
		return m.updateLikesFn(ctx, postID, likes)
	}
	return nil
}

func (m *mockPostRepo) Delete(ctx context.Context, postID, userID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, postID, userID)
	}
	return nil
}

type mockWaterRepo struct {
	insertFn func(ctx context.Context, entry model.WaterLog) error
}

func (m *mockWaterRepo) Insert(ctx context.Context, entry model.WaterLog) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, entry)
	}
	return nil
}

func (m *mockWaterRepo) TotalForDay(ctx context.Context, userID, day string) (int, error) {
	return 0, nil
}

type mockReconciler struct {
	reconciled [][2]string
	failed     []model.Post
}

func (m *mockReconciler) ReconcilePost(tempID, serverID string) bool {
	m.reconciled = append(m.reconciled, [2]string{tempID, serverID})
	return true
}

func (m *mockReconciler) HandleShareFailure(ctx context.Context, post model.Post) {
	m.failed = append(m.failed, post)
}

func newTestHandler() (*Handler, *mockProfileRepo, *mockHistoryRepo, *mockPostRepo, *mockWaterRepo, *mockReconciler) {
	profiles := &mockProfileRepo{}
	history := &mockHistoryRepo{}
	posts := &mockPostRepo{}
	water := &mockWaterRepo{}
	rec := &mockReconciler{}
	return NewHandler(profiles, history, posts, water, rec), profiles, history, posts, water, rec
}

// =============================================================================
// POST SHARED TESTS
// =============================================================================

func TestHandler_PostShared_ReconcilesServerID(t *testing.T) {
	// ARRANGE
	h, _, _, posts, _, rec := newTestHandler()
	posts.insertFn = func(ctx context.Context, post model.Post) (string, error) {
		return "srv-99", nil
	}
	event := queue.NewPostSharedEvent("user-1", "temp-a", model.Post{ID: "temp-a", UserID: "user-1"})

	// ACT
	err := h.HandleEvent(context.Background(), event)

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(rec.reconciled) != 1 {
		t.Fatalf("reconciler called %d times, want 1", len(rec.reconciled))
	}
	if rec.reconciled[0] != [2]string{"temp-a", "srv-99"} {
		t.Errorf("reconciled %v, want [temp-a srv-99]", rec.reconciled[0])
	}
}

func TestHandler_PostShared_MissingCollectionParksPost(t *testing.T) {
	// ARRANGE: the remote posts table does not exist in this deployment.
	h, _, _, posts, _, rec := newTestHandler()
	posts.insertFn = func(ctx context.Context, post model.Post) (string, error) {
		return "", model.ErrCollectionMissing
	}
	event := queue.NewPostSharedEvent("user-1", "temp-a", model.Post{ID: "temp-a", UserID: "user-1"})

	// ACT
	err := h.HandleEvent(context.Background(), event)

	// ASSERT: degraded-mode handoff, not an error.
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(rec.failed) != 1 || rec.failed[0].ID != "temp-a" {
		t.Errorf("share-failure handoff = %+v, want the provisional post", rec.failed)
	}
	if len(rec.reconciled) != 0 {
		t.Error("reconciled an insert that never happened")
	}
}

func TestHandler_PostShared_OtherInsertErrorFails(t *testing.T) {
	h, _, _, posts, _, rec := newTestHandler()
	posts.insertFn = func(ctx context.Context, post model.Post) (string, error) {
		return "", errors.New("connection reset")
	}
	event := queue.NewPostSharedEvent("user-1", "temp-a", model.Post{ID: "temp-a"})

	err := h.HandleEvent(context.Background(), event)

	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if len(rec.failed) != 0 {
		t.Error("a transient failure must not flip degraded mode")
	}
}

// =============================================================================
// ROUTING TESTS
// =============================================================================

func TestHandler_ScanRecorded_WritesCounters(t *testing.T) {
	h, profiles, _, _, _, _ := newTestHandler()
	var gotTotal, gotDaily int
	var gotDay string
	profiles.scanCounterFn = func(ctx context.Context, userID string, total, daily int, day string) error {
		gotTotal, gotDaily, gotDay = total, daily, day
		return nil
	}

	err := h.HandleEvent(context.Background(), queue.NewScanRecordedEvent("user-1", 11, 2, "2026-08-29"))

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if gotTotal != 11 || gotDaily != 2 || gotDay != "2026-08-29" {
		t.Errorf("counters written = (%d, %d, %q), want (11, 2, %q)", gotTotal, gotDaily, gotDay, "2026-08-29")
	}
}

func TestHandler_MealLogged_InsertsHistory(t *testing.T) {
	h, _, history, _, _, _ := newTestHandler()
	var gotEntry model.NutritionData
	history.insertFn = func(ctx context.Context, userID string, entry model.NutritionData) error {
		gotEntry = entry
		return nil
	}

	err := h.HandleEvent(context.Background(), queue.NewMealLoggedEvent("user-1", model.NutritionData{Calories: 650}))

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if gotEntry.Calories != 650 {
		t.Errorf("inserted calories = %d, want 650", gotEntry.Calories)
	}
}

func TestHandler_MealLogged_MissingEntry(t *testing.T) {
	h, _, _, _, _, _ := newTestHandler()

	err := h.HandleEvent(context.Background(), queue.SyncEvent{Type: queue.EventMealLogged, UserID: "user-1"})

	if err == nil {
		t.Fatal("expected an error for a meal_logged event without an entry")
	}
}

func TestHandler_PostLiked_RemoteCopyGoneIsNotAnError(t *testing.T) {
	h, _, _, posts, _, _ := newTestHandler()
	posts.updateLikesFn = func(ctx context.Context, postID string, likes int) error {
		return model.ErrPostNotFound
	}

	err := h.HandleEvent(context.Background(), queue.NewPostLikedEvent("user-1", "srv-1", 5))

	if err != nil {
		t.Errorf("expected no error when the remote post is gone, got: %v", err)
	}
}

func TestHandler_PostDeleted_MissingCollectionIsNotAnError(t *testing.T) {
	h, _, _, posts, _, _ := newTestHandler()
	posts.deleteFn = func(ctx context.Context, postID, userID string) error {
		return model.ErrCollectionMissing
	}

	err := h.HandleEvent(context.Background(), queue.NewPostDeletedEvent("user-1", "srv-1"))

	if err != nil {
		t.Errorf("expected no error when the collection is missing, got: %v", err)
	}
}

func TestHandler_WaterLogged_InsertsEntry(t *testing.T) {
	h, _, _, _, water, _ := newTestHandler()
	var gotEntry model.WaterLog
	water.insertFn = func(ctx context.Context, entry model.WaterLog) error {
		gotEntry = entry
		return nil
	}

	err := h.HandleEvent(context.Background(), queue.NewWaterLoggedEvent("user-1", 250, "2026-08-29"))

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if gotEntry.UserID != "user-1" || gotEntry.AmountML != 250 || gotEntry.LogDate != "2026-08-29" {
		t.Errorf("inserted entry = %+v, want user-1/250/2026-08-29", gotEntry)
	}
}

func TestHandler_ProfileUpdated_UpsertFlagRoutesWrite(t *testing.T) {
	h, profiles, _, _, _, _ := newTestHandler()
	profile := model.UserProfile{ID: "user-1", Name: "Ana"}

	// Onboarding path: upsert.
	if err := h.HandleEvent(context.Background(), queue.NewProfileUpdatedEvent(profile, true)); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	// Settings path: plain update.
	if err := h.HandleEvent(context.Background(), queue.NewProfileUpdatedEvent(profile, false)); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(profiles.upsertCalls) != 1 {
		t.Errorf("upsert called %d times, want 1", len(profiles.upsertCalls))
	}
	if len(profiles.updateCalls) != 1 {
		t.Errorf("update called %d times, want 1", len(profiles.updateCalls))
	}
}

func TestHandler_ProChanged_SetsFlag(t *testing.T) {
	h, profiles, _, _, _, _ := newTestHandler()
	var gotUser string
	var gotPro bool
	profiles.setProFn = func(ctx context.Context, userID string, isPro bool) error {
		gotUser, gotPro = userID, isPro
		return nil
	}

	err := h.HandleEvent(context.Background(), queue.NewProChangedEvent("user-1", true))

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if gotUser != "user-1" || !gotPro {
		t.Errorf("SetPro(%q, %v), want (user-1, true)", gotUser, gotPro)
	}
}

func TestHandler_UnknownEventType(t *testing.T) {
	h, _, _, _, _, _ := newTestHandler()

	err := h.HandleEvent(context.Background(), queue.SyncEvent{Type: "mystery"})

	if err == nil {
		t.Fatal("expected an error for an unknown event type")
	}
}
