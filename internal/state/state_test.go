package state

import (
	"testing"

	"nutrisnap/internal/model"
)

func TestAppState_Reset_ClearsEverything(t *testing.T) {
	// ARRANGE
	s := New()
	s.SetProfile(&model.UserProfile{ID: "user-1"})
	s.SetHistory([]model.NutritionData{{Calories: 300}})
	s.SetFeed([]model.Post{{ID: "p1"}}, true)
	s.SetWaterML(500)

	// ACT
	s.Reset()

	// ASSERT
	if s.Profile() != nil {
		t.Error("profile survived reset")
	}
	if len(s.History()) != 0 {
		t.Error("history survived reset")
	}
	if len(s.Feed()) != 0 {
		t.Error("feed survived reset")
	}
	if s.WaterML() != 0 {
		t.Error("water total survived reset")
	}
	if s.FeedDegraded() {
		t.Error("degraded flag survived reset")
	}
}

func TestAppState_Profile_ReturnsCopy(t *testing.T) {
	s := New()
	s.SetProfile(&model.UserProfile{ID: "user-1", ScanCount: 5})

	p := s.Profile()
	p.ScanCount = 999

	if got := s.Profile().ScanCount; got != 5 {
		t.Errorf("ScanCount = %d after mutating a returned copy, want 5", got)
	}
}

func TestAppState_Feed_ReturnsCopy(t *testing.T) {
	s := New()
	s.SetFeed([]model.Post{{ID: "p1", Likes: 1}}, false)

	feed := s.Feed()
	feed[0].Likes = 999

	if got := s.Feed()[0].Likes; got != 1 {
		t.Errorf("Likes = %d after mutating a returned slice, want 1", got)
	}
}

func TestAppState_ApplyScanCounters(t *testing.T) {
	s := New()
	s.SetProfile(&model.UserProfile{ID: "user-1", ScanCount: 9, DailyScanCount: 2, LastScanDate: "2026-08-28"})

	s.ApplyScanCounters(10, 1, "2026-08-29")

	p := s.Profile()
	if p.ScanCount != 10 || p.DailyScanCount != 1 || p.LastScanDate != "2026-08-29" {
		t.Errorf("counters = (%d, %d, %q), want (10, 1, %q)", p.ScanCount, p.DailyScanCount, p.LastScanDate, "2026-08-29")
	}
}

func TestAppState_ApplyScanCounters_NoProfile(t *testing.T) {
	s := New()

	// Must not panic pre-onboarding.
	s.ApplyScanCounters(1, 1, "2026-08-29")

	if s.Profile() != nil {
		t.Error("counters conjured a profile out of nothing")
	}
}

func TestAppState_PrependHistory_NewestFirst(t *testing.T) {
	s := New()
	s.PrependHistory(model.NutritionData{Calories: 100})
	s.PrependHistory(model.NutritionData{Calories: 200})

	history := s.History()
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Calories != 200 {
		t.Errorf("head calories = %d, want the newest entry first", history[0].Calories)
	}
}

func TestAppState_ReconcilePost_SwapsIDInPlace(t *testing.T) {
	// ARRANGE: interim likes accumulated under the temp id.
	s := New()
	s.SetFeed([]model.Post{
		{ID: "srv-0", UserID: "other"},
		{ID: "temp-a", UserID: "user-1", Likes: 3},
	}, false)

	// ACT
	ok := s.ReconcilePost("temp-a", "srv-7")

	// ASSERT
	if !ok {
		t.Fatal("reconcile reported the temp post missing")
	}
	feed := s.Feed()
	if feed[1].ID != "srv-7" {
		t.Errorf("post ID = %q, want %q", feed[1].ID, "srv-7")
	}
	if feed[1].Likes != 3 {
		t.Errorf("likes = %d after swap, want 3", feed[1].Likes)
	}
	if len(feed) != 2 {
		t.Errorf("feed length = %d after swap, want 2", len(feed))
	}
}

func TestAppState_ReconcilePost_Missing(t *testing.T) {
	s := New()

	if s.ReconcilePost("temp-gone", "srv-1") {
		t.Error("reconcile reported success for an absent post")
	}
}

func TestAppState_ApplyLike(t *testing.T) {
	s := New()
	s.SetFeed([]model.Post{{ID: "p1", Likes: 4}}, false)

	likes, ok := s.ApplyLike("p1")

	if !ok {
		t.Fatal("like reported the post missing")
	}
	if likes != 5 {
		t.Errorf("likes = %d, want 5", likes)
	}

	if _, ok := s.ApplyLike("nope"); ok {
		t.Error("like reported success for an absent post")
	}
}

func TestAppState_RemovePost(t *testing.T) {
	s := New()
	s.SetFeed([]model.Post{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}}, false)

	removed, ok := s.RemovePost("p2")

	if !ok {
		t.Fatal("remove reported the post missing")
	}
	if removed.ID != "p2" {
		t.Errorf("removed ID = %q, want %q", removed.ID, "p2")
	}
	feed := s.Feed()
	if len(feed) != 2 || feed[0].ID != "p1" || feed[1].ID != "p3" {
		t.Errorf("feed = %+v, want p1 and p3 in order", feed)
	}
}

func TestAppState_AddWater(t *testing.T) {
	s := New()
	s.SetWaterML(500)

	if total := s.AddWater(250); total != 750 {
		t.Errorf("AddWater returned %d, want 750", total)
	}
	if s.WaterML() != 750 {
		t.Errorf("WaterML = %d, want 750", s.WaterML())
	}
}

func TestAppState_SetFeedDegraded_KeepsContents(t *testing.T) {
	s := New()
	s.SetFeed([]model.Post{{ID: "p1"}}, false)

	s.SetFeedDegraded(true)

	if !s.FeedDegraded() {
		t.Error("degraded flag not set")
	}
	if len(s.Feed()) != 1 {
		t.Error("flipping degraded mode replaced the feed contents")
	}
}

func TestAppState_Subscribe_NotifiedOnTransition(t *testing.T) {
	s := New()
	calls := 0
	s.Subscribe(func() { calls++ })

	s.SetWaterML(100)
	s.PrependHistory(model.NutritionData{})

	if calls != 2 {
		t.Errorf("subscriber ran %d times, want 2", calls)
	}
}
