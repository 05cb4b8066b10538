package sync

import (
	"context"
	"errors"
	"log"
	stdsync "sync"
	"time"

	"nutrisnap/internal/cache"
	"nutrisnap/internal/model"
	"nutrisnap/internal/queue"
	"nutrisnap/internal/repository"
	"nutrisnap/internal/state"
)

// ProfileSynchronizer owns the session-change sync and the profile-side
// mutations: scan counters, onboarding, settings, subscription, hydration.
type ProfileSynchronizer struct {
	state     *state.AppState
	profiles  repository.ProfileRepository
	history   repository.HistoryRepository
	posts     repository.PostRepository
	water     repository.WaterRepository
	feedCache cache.SessionFeedCache
	publisher queue.Publisher

	now func() time.Time

	// genMu orders session syncs: each sync claims a generation, and state
	// writes from a superseded generation are discarded. Without this, a
	// logout racing a slow login fetch could see the stale fetch repopulate
	// state after Reset.
	genMu      stdsync.Mutex
	generation uint64
}

func NewProfileSynchronizer(
	st *state.AppState,
	profiles repository.ProfileRepository,
	history repository.HistoryRepository,
	posts repository.PostRepository,
	water repository.WaterRepository,
	feedCache cache.SessionFeedCache,
	publisher queue.Publisher,
) *ProfileSynchronizer {
	return &ProfileSynchronizer{
		state:     st,
		profiles:  profiles,
		history:   history,
		posts:     posts,
		water:     water,
		feedCache: feedCache,
		publisher: publisher,
		now:       time.Now,
	}
}

// Dispatch runs the session sync in the background. The generation is
// claimed synchronously, so a later session change always supersedes an
// earlier one regardless of how the goroutines get scheduled.
func (s *ProfileSynchronizer) Dispatch(sess *model.Session) {
	gen := s.beginSync()
	go s.syncOnSessionChange(context.Background(), sess, gen)
}

// SyncOnSessionChange refreshes all derived state for the new session. A
// nil session clears everything. The four fetches run concurrently; any
// unexpected failure is logged and the sync still completes with whatever
// partial data was obtained; the deferred transition out of the loading
// state is unconditional, so the UI is never stuck syncing.
func (s *ProfileSynchronizer) SyncOnSessionChange(ctx context.Context, sess *model.Session) {
	s.syncOnSessionChange(ctx, sess, s.beginSync())
}

func (s *ProfileSynchronizer) beginSync() uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.generation++
	return s.generation
}

// commit applies a state write only while gen is still the latest claimed
// sync; writes from a superseded sync are discarded. Reports whether the
// write was applied.
func (s *ProfileSynchronizer) commit(gen uint64, apply func()) bool {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if gen != s.generation {
		return false
	}
	apply()
	return true
}

func (s *ProfileSynchronizer) syncOnSessionChange(ctx context.Context, sess *model.Session, gen uint64) {
	s.commit(gen, func() { s.state.SetSyncing(true) })
	// Superseded syncs leave the flag to the sync that superseded them.
	defer s.commit(gen, func() { s.state.SetSyncing(false) })

	if sess == nil {
		s.commit(gen, func() { s.state.Reset() })
		return
	}

	today := s.now().Format(model.DayFormat)

	var wg stdsync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		s.syncProfile(ctx, sess, today, gen)
	}()
	go func() {
		defer wg.Done()
		s.syncHistory(ctx, sess, gen)
	}()
	go func() {
		defer wg.Done()
		s.syncFeed(ctx, sess, gen)
	}()
	go func() {
		defer wg.Done()
		s.syncWater(ctx, sess, today, gen)
	}()
	wg.Wait()
}

func (s *ProfileSynchronizer) syncProfile(ctx context.Context, sess *model.Session, today string, gen uint64) {
	row, err := s.profiles.Get(ctx, sess.UserID)
	if errors.Is(err, model.ErrProfileNotFound) {
		// No remote row yet: leave the profile nil so the caller routes to
		// onboarding.
		s.commit(gen, func() { s.state.SetProfile(nil) })
		return
	}
	if err != nil {
		log.Printf("[ProfileSync] profile fetch failed: user=%s err=%v", sess.UserID, err)
		return
	}
	profile := BuildProfile(row, today)
	if !s.commit(gen, func() { s.state.SetProfile(profile) }) {
		log.Printf("[ProfileSync] discarding superseded profile fetch: user=%s", sess.UserID)
	}
}

func (s *ProfileSynchronizer) syncHistory(ctx context.Context, sess *model.Session, gen uint64) {
	entries, err := s.history.ListByUser(ctx, sess.UserID)
	if err != nil {
		log.Printf("[ProfileSync] history fetch failed: user=%s err=%v", sess.UserID, err)
		return
	}
	s.commit(gen, func() { s.state.SetHistory(entries) })
}

func (s *ProfileSynchronizer) syncFeed(ctx context.Context, sess *model.Session, gen uint64) {
	posts, err := s.posts.List(ctx)
	if errors.Is(err, model.ErrCollectionMissing) {
		// Deliberate degraded-mode contract: a missing collection means an
		// empty (session-local) feed, never an error surfaced to the user.
		log.Printf("[ProfileSync] community feed unavailable on remote, using local session cache")
		cached, cacheErr := s.feedCache.Load(ctx, sess.UserID)
		if cacheErr != nil {
			log.Printf("[ProfileSync] session feed cache load failed: user=%s err=%v", sess.UserID, cacheErr)
			cached = []model.Post{}
		}
		s.commit(gen, func() { s.state.SetFeed(cached, true) })
		return
	}
	if err != nil {
		log.Printf("[ProfileSync] feed fetch failed: err=%v", err)
		s.commit(gen, func() { s.state.SetFeed([]model.Post{}, false) })
		return
	}
	s.commit(gen, func() { s.state.SetFeed(posts, false) })
}

func (s *ProfileSynchronizer) syncWater(ctx context.Context, sess *model.Session, today string, gen uint64) {
	total, err := s.water.TotalForDay(ctx, sess.UserID, today)
	if err != nil {
		log.Printf("[ProfileSync] water fetch failed: user=%s err=%v", sess.UserID, err)
		return
	}
	s.commit(gen, func() { s.state.SetWaterML(total) })
}

// CanScan reports whether the user may start a scan right now. Pro users
// always can; free users get a fresh allowance each calendar day.
func CanScan(p *model.UserProfile, today string) bool {
	if p == nil {
		return false
	}
	if p.IsPro {
		return true
	}
	if p.LastScanDate != today {
		return true
	}
	return p.DailyScanCount < model.FreeDailyScanLimit
}

// RecordScanCompletion advances the scan counters: daily resets across a
// day boundary, lifetime only ever grows. Local state first, remote write
// behind it via the sync stream.
func (s *ProfileSynchronizer) RecordScanCompletion(ctx context.Context, sess *model.Session) error {
	if sess == nil {
		return model.ErrSessionRequired
	}
	profile := s.state.Profile()
	if profile == nil {
		return model.ErrProfileNotFound
	}

	today := s.now().Format(model.DayFormat)
	daily := 0
	if profile.LastScanDate == today {
		daily = profile.DailyScanCount
	}
	newDaily := daily + 1
	newTotal := profile.ScanCount + 1

	s.state.ApplyScanCounters(newTotal, newDaily, today)

	event := queue.NewScanRecordedEvent(sess.UserID, newTotal, newDaily, today)
	if _, err := s.publisher.Publish(ctx, queue.StreamSync, event); err != nil {
		// Local counters stand; the next full resync reconciles from the
		// remote row.
		log.Printf("[ProfileSync] scan counter publish failed: user=%s err=%v", sess.UserID, err)
	}
	return nil
}

// AddWater bumps today's hydration total. This is the single write path for
// water: user taps and the live coach's logWater tool both land here.
func (s *ProfileSynchronizer) AddWater(ctx context.Context, sess *model.Session, amountML int) (int, error) {
	if sess == nil {
		return 0, model.ErrSessionRequired
	}

	total := s.state.AddWater(amountML)

	today := s.now().Format(model.DayFormat)
	event := queue.NewWaterLoggedEvent(sess.UserID, amountML, today)
	if _, err := s.publisher.Publish(ctx, queue.StreamSync, event); err != nil {
		log.Printf("[ProfileSync] water log publish failed: user=%s err=%v", sess.UserID, err)
	}
	return total, nil
}

// CompleteOnboarding creates the profile (locally pro-free) and queues the
// remote upsert.
func (s *ProfileSynchronizer) CompleteOnboarding(ctx context.Context, sess *model.Session, profile model.UserProfile) error {
	if sess == nil {
		return model.ErrSessionRequired
	}

	profile.ID = sess.UserID
	profile.IsPro = false
	profile.Onboarded = profile.Name != ""
	s.state.SetProfile(&profile)

	event := queue.NewProfileUpdatedEvent(profile, true)
	if _, err := s.publisher.Publish(ctx, queue.StreamSync, event); err != nil {
		log.Printf("[ProfileSync] onboarding publish failed: user=%s err=%v", sess.UserID, err)
	}
	return nil
}

// UpdateProfile applies settings edits.
func (s *ProfileSynchronizer) UpdateProfile(ctx context.Context, sess *model.Session, profile model.UserProfile) error {
	if sess == nil {
		return model.ErrSessionRequired
	}

	profile.ID = sess.UserID
	profile.Onboarded = profile.Name != ""
	s.state.SetProfile(&profile)

	event := queue.NewProfileUpdatedEvent(profile, false)
	if _, err := s.publisher.Publish(ctx, queue.StreamSync, event); err != nil {
		log.Printf("[ProfileSync] profile update publish failed: user=%s err=%v", sess.UserID, err)
	}
	return nil
}

// SetPro records a subscription purchase (or lapse).
func (s *ProfileSynchronizer) SetPro(ctx context.Context, sess *model.Session, isPro bool) error {
	if sess == nil {
		return model.ErrSessionRequired
	}

	s.state.SetPro(isPro)

	event := queue.NewProChangedEvent(sess.UserID, isPro)
	if _, err := s.publisher.Publish(ctx, queue.StreamSync, event); err != nil {
		log.Printf("[ProfileSync] pro flag publish failed: user=%s err=%v", sess.UserID, err)
	}
	return nil
}

// BuildProfile maps a raw remote row to the synchronized profile view:
// day-rollover applied to the daily counter and fixed defaults backfilled
// for anything the remote store omits.
func BuildProfile(row *model.ProfileRow, today string) *model.UserProfile {
	p := model.UserProfile{
		ID: row.ID,
		Goals: model.Goals{
			Calories:         model.DefaultCalorieGoal,
			Protein:          model.DefaultProteinGoal,
			Carbs:            model.DefaultCarbsGoal,
			Fat:              model.DefaultFatGoal,
			WaterML:          model.DefaultWaterGoalML,
			PrimaryObjective: model.DefaultObjective,
		},
		Stats: model.Stats{
			Weight: model.DefaultWeight,
			Height: model.DefaultHeight,
			Age:    model.DefaultAge,
		},
		DietaryPref:   model.DefaultDietaryPref,
		ActivityLevel: model.DefaultActivityLevel,
		LastScanDate:  today,
	}

	if row.Name != nil {
		p.Name = *row.Name
	}
	p.Onboarded = p.Name != ""

	if row.ScanCount != nil {
		p.ScanCount = *row.ScanCount
	}
	if row.LastScanDate != nil {
		p.LastScanDate = *row.LastScanDate
	}
	// Day rollover: the stored daily count only counts on the day it was
	// recorded.
	if row.DailyScanCount != nil && p.LastScanDate == today {
		p.DailyScanCount = *row.DailyScanCount
	}
	if row.IsPro != nil {
		p.IsPro = *row.IsPro
	}
	if row.DietaryPref != nil {
		p.DietaryPref = *row.DietaryPref
	}
	if row.ActivityLevel != nil {
		p.ActivityLevel = *row.ActivityLevel
	}
	if row.CaloriesGoal != nil {
		p.Goals.Calories = *row.CaloriesGoal
	}
	if row.PrimaryObjective != nil {
		p.Goals.PrimaryObjective = *row.PrimaryObjective
	}
	if row.Weight != nil {
		p.Stats.Weight = *row.Weight
	}
	if row.Height != nil {
		p.Stats.Height = *row.Height
	}
	if row.Age != nil {
		p.Stats.Age = *row.Age
	}
	return &p
}
