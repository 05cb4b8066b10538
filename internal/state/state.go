package state

import (
	"sync"

	"nutrisnap/internal/model"
)

// AppState is the session-local source of truth: profile, scan history,
// community feed, and today's water total. Every user-visible mutation is a
// transition here, applied before the corresponding remote call is issued;
// remote resolutions only reconcile (id swaps), they never roll back or
// reorder local mutations.
//
// All access goes through the mutex. Reads return copies, so callers never
// hold references into the guarded slices.
type AppState struct {
	mu sync.RWMutex

	profile      *model.UserProfile
	history      []model.NutritionData
	feed         []model.Post
	waterML      int
	feedDegraded bool
	syncing      bool

	subscribers []func()
}

func New() *AppState {
	return &AppState{}
}

// Subscribe registers fn to run after every transition. Used by the HTTP
// surface for change notification; fn must not call back into the state.
func (s *AppState) Subscribe(fn func()) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

func (s *AppState) notify() {
	for _, fn := range s.subscribers {
		fn()
	}
}

// SetSyncing marks the loading state during a full session sync.
func (s *AppState) SetSyncing(v bool) {
	s.mu.Lock()
	s.syncing = v
	s.notify()
	s.mu.Unlock()
}

func (s *AppState) Syncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncing
}

// Reset clears all session-derived state. Called when the session goes away.
func (s *AppState) Reset() {
	s.mu.Lock()
	s.profile = nil
	s.history = nil
	s.feed = nil
	s.waterML = 0
	s.feedDegraded = false
	s.notify()
	s.mu.Unlock()
}

// ---- profile ----

func (s *AppState) SetProfile(p *model.UserProfile) {
	s.mu.Lock()
	if p == nil {
		s.profile = nil
	} else {
		cp := *p
		s.profile = &cp
	}
	s.notify()
	s.mu.Unlock()
}

// Profile returns a copy of the current profile, or nil when the user has
// no profile yet (pre-onboarding) or is logged out.
func (s *AppState) Profile() *model.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	cp := *s.profile
	return &cp
}

// ApplyScanCounters advances the scan counters locally. The remote write
// rides behind it as an event; if that write fails the local values stand
// until the next full resync reconciles from the remote row.
func (s *AppState) ApplyScanCounters(total, daily int, day string) {
	s.mu.Lock()
	if s.profile != nil {
		s.profile.ScanCount = total
		s.profile.DailyScanCount = daily
		s.profile.LastScanDate = day
	}
	s.notify()
	s.mu.Unlock()
}

func (s *AppState) SetPro(v bool) {
	s.mu.Lock()
	if s.profile != nil {
		s.profile.IsPro = v
	}
	s.notify()
	s.mu.Unlock()
}

// ---- history ----

func (s *AppState) SetHistory(entries []model.NutritionData) {
	s.mu.Lock()
	s.history = append([]model.NutritionData(nil), entries...)
	s.notify()
	s.mu.Unlock()
}

// PrependHistory adds a new entry at the head (newest-first order).
func (s *AppState) PrependHistory(entry model.NutritionData) {
	s.mu.Lock()
	s.history = append([]model.NutritionData{entry}, s.history...)
	s.notify()
	s.mu.Unlock()
}

func (s *AppState) History() []model.NutritionData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.NutritionData(nil), s.history...)
}

// ---- feed ----

func (s *AppState) SetFeed(posts []model.Post, degraded bool) {
	s.mu.Lock()
	s.feed = append([]model.Post(nil), posts...)
	s.feedDegraded = degraded
	s.notify()
	s.mu.Unlock()
}

func (s *AppState) PrependPost(post model.Post) {
	s.mu.Lock()
	s.feed = append([]model.Post{post}, s.feed...)
	s.notify()
	s.mu.Unlock()
}

// ReconcilePost swaps a temporary id for the server-assigned one, in place.
// The lookup walks the list rather than trusting the provisional key as a
// stable handle, so likes or edits applied between the optimistic insert
// and confirmation stay on the reconciled post. Reports whether the temp
// post was still present.
func (s *AppState) ReconcilePost(tempID, serverID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.feed {
		if s.feed[i].ID == tempID {
			s.feed[i].ID = serverID
			s.notify()
			return true
		}
	}
	return false
}

// ApplyLike increments a post's like counter and returns the new total.
// Each call works from the currently known local count; concurrent likes
// are not coalesced.
func (s *AppState) ApplyLike(postID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.feed {
		if s.feed[i].ID == postID {
			s.feed[i].Likes++
			s.notify()
			return s.feed[i].Likes, true
		}
	}
	return 0, false
}

// RemovePost deletes a post from the local feed and returns it.
func (s *AppState) RemovePost(postID string) (model.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.feed {
		if s.feed[i].ID == postID {
			removed := s.feed[i]
			s.feed = append(s.feed[:i:i], s.feed[i+1:]...)
			s.notify()
			return removed, true
		}
	}
	return model.Post{}, false
}

func (s *AppState) Feed() []model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Post(nil), s.feed...)
}

// FeedDegraded reports whether the remote feed collection was unavailable
// at the last sync; the feed is session-local-only while set.
func (s *AppState) FeedDegraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feedDegraded
}

// SetFeedDegraded flips degraded mode without replacing the feed contents.
func (s *AppState) SetFeedDegraded(v bool) {
	s.mu.Lock()
	s.feedDegraded = v
	s.mu.Unlock()
}

// ---- water ----

func (s *AppState) SetWaterML(total int) {
	s.mu.Lock()
	s.waterML = total
	s.notify()
	s.mu.Unlock()
}

// AddWater bumps today's local total and returns it.
func (s *AppState) AddWater(ml int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waterML += ml
	s.notify()
	return s.waterML
}

func (s *AppState) WaterML() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.waterML
}
