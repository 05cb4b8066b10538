package sync

import (
	"context"

	"nutrisnap/internal/model"
	"nutrisnap/internal/queue"
)

// =============================================================================
// MOCKS
// =============================================================================
//
// The synchronizers depend on the repository, publisher, and cache
// interfaces, so tests swap in mocks with controlled behavior and record
// what was written where.

type mockProfileRepo struct {
	getFn func(ctx context.Context, userID string) (*model.ProfileRow, error)
}

func (m *mockProfileRepo) Get(ctx context.Context, userID string) (*model.ProfileRow, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, model.ErrProfileNotFound
}

func (m *mockProfileRepo) Upsert(ctx context.Context, p *model.UserProfile) error { return nil }
func (m *mockProfileRepo) Update(ctx context.Context, p *model.UserProfile) error { return nil }
func (m *mockProfileRepo) UpdateScanCounters(ctx context.Context, userID string, total, daily int, day string) error {
	return nil
}
func (m *mockProfileRepo) SetPro(ctx context.Context, userID string, isPro bool) error { return nil }

type mockHistoryRepo struct {
	listFn func(ctx context.Context, userID string) ([]model.NutritionData, error)
}

func (m *mockHistoryRepo) Insert(ctx context.Context, userID string, entry model.NutritionData) error {
	return nil
}

func (m *mockHistoryRepo) ListByUser(ctx context.Context, userID string) ([]model.NutritionData, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

type mockPostRepo struct {
	listFn func(ctx context.Context) ([]model.Post, error)
}

func (m *mockPostRepo) Insert(ctx context.Context, post model.Post) (string, error) {
	return "", nil
}

func (m *mockPostRepo) List(ctx context.Context) ([]model.Post, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockPostRepo) UpdateLikes(ctx context.Context, postID string, likes int) error { return nil }
func (m *mockPostRepo) Delete(ctx context.Context, postID, userID string) error         { return nil }

type mockWaterRepo struct {
	totalFn func(ctx context.Context, userID, day string) (int, error)
}

func (m *mockWaterRepo) Insert(ctx context.Context, entry model.WaterLog) error { return nil }

func (m *mockWaterRepo) TotalForDay(ctx context.Context, userID, day string) (int, error) {
	if m.totalFn != nil {
		return m.totalFn(ctx, userID, day)
	}
	return 0, nil
}

type mockPublisher struct {
	publishFn func(ctx context.Context, stream string, event queue.SyncEvent) (string, error)

	events []queue.SyncEvent
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.SyncEvent) (string, error) {
	m.events = append(m.events, event)
	if m.publishFn != nil {
		return m.publishFn(ctx, stream, event)
	}
	return "1-0", nil
}

func (m *mockPublisher) eventsOfType(eventType string) []queue.SyncEvent {
	var out []queue.SyncEvent
	for _, e := range m.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type mockFeedCache struct {
	loadFn func(ctx context.Context, userID string) ([]model.Post, error)

	saved   []model.Post
	removed []string
}

func (m *mockFeedCache) SavePost(ctx context.Context, userID string, post model.Post) error {
	m.saved = append(m.saved, post)
	return nil
}

func (m *mockFeedCache) RemovePost(ctx context.Context, userID, postID string) error {
	m.removed = append(m.removed, postID)
	return nil
}

func (m *mockFeedCache) Load(ctx context.Context, userID string) ([]model.Post, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx, userID)
	}
	return nil, nil
}
