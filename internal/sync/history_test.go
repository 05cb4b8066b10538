package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"nutrisnap/internal/model"
	"nutrisnap/internal/queue"
	"nutrisnap/internal/state"
)

func TestHistoryLedger_LogMeal_StampsAndPrepends(t *testing.T) {
	// ARRANGE
	now := time.Date(2026, 8, 29, 13, 30, 0, 0, time.UTC)
	st := state.New()
	st.SetHistory([]model.NutritionData{{Calories: 200, Timestamp: now.Add(-2 * time.Hour)}})
	pub := &mockPublisher{}
	l := NewHistoryLedger(st, pub)
	l.now = func() time.Time { return now }

	// ACT
	entry, err := l.LogMeal(context.Background(), &model.Session{UserID: "user-1"}, model.NutritionData{Calories: 650, Verdict: "Moderate"})

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !entry.Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want %v", entry.Timestamp, now)
	}

	history := st.History()
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Calories != 650 {
		t.Errorf("head entry calories = %d, want the newest entry first", history[0].Calories)
	}

	events := pub.eventsOfType(queue.EventMealLogged)
	if len(events) != 1 {
		t.Fatalf("published %d meal_logged events, want 1", len(events))
	}
	if events[0].Entry == nil || events[0].Entry.Calories != 650 {
		t.Errorf("event entry = %+v, want calories 650", events[0].Entry)
	}
}

func TestHistoryLedger_LogMeal_NoSession(t *testing.T) {
	l := NewHistoryLedger(state.New(), &mockPublisher{})

	_, err := l.LogMeal(context.Background(), nil, model.NutritionData{})

	if !errors.Is(err, model.ErrSessionRequired) {
		t.Errorf("error = %v, want ErrSessionRequired", err)
	}
}

func TestHistoryLedger_DailyCalories_SumsOnlyMatchingDay(t *testing.T) {
	// ARRANGE: two meals today, one yesterday.
	day := time.Date(2026, 8, 29, 18, 0, 0, 0, time.UTC)
	st := state.New()
	st.SetHistory([]model.NutritionData{
		{Calories: 650, Timestamp: time.Date(2026, 8, 29, 13, 0, 0, 0, time.UTC)},
		{Calories: 400, Timestamp: time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)},
		{Calories: 900, Timestamp: time.Date(2026, 8, 28, 20, 0, 0, 0, time.UTC)},
	})
	l := NewHistoryLedger(st, &mockPublisher{})

	// ACT
	total := l.DailyCalories(day)

	// ASSERT
	if total != 1050 {
		t.Errorf("DailyCalories = %d, want 1050", total)
	}
}

func TestHistoryLedger_DailyCalories_EmptyLedger(t *testing.T) {
	l := NewHistoryLedger(state.New(), &mockPublisher{})

	if total := l.DailyCalories(time.Now()); total != 0 {
		t.Errorf("DailyCalories = %d, want 0", total)
	}
}
