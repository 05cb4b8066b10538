package sync

import (
	"context"
	"log"
	"time"

	"nutrisnap/internal/model"
	"nutrisnap/internal/queue"
	"nutrisnap/internal/state"
)

// HistoryLedger is the append-only scan history. Entries are stamped and
// prepended locally, then persisted behind the sync stream; they are never
// edited, re-sorted, or removed for the lifetime of the session.
type HistoryLedger struct {
	state     *state.AppState
	publisher queue.Publisher

	now func() time.Time
}

func NewHistoryLedger(st *state.AppState, publisher queue.Publisher) *HistoryLedger {
	return &HistoryLedger{
		state:     st,
		publisher: publisher,
		now:       time.Now,
	}
}

// LogMeal stamps the entry with the current time, prepends it to the local
// ledger, and queues the remote insert. The stamped entry is returned so
// callers can hand it straight to sharing.
func (l *HistoryLedger) LogMeal(ctx context.Context, sess *model.Session, entry model.NutritionData) (model.NutritionData, error) {
	if sess == nil {
		return model.NutritionData{}, model.ErrSessionRequired
	}

	entry.Timestamp = l.now()
	l.state.PrependHistory(entry)

	event := queue.NewMealLoggedEvent(sess.UserID, entry)
	if _, err := l.publisher.Publish(ctx, queue.StreamSync, event); err != nil {
		log.Printf("[History] meal log publish failed: user=%s err=%v", sess.UserID, err)
	}
	return entry, nil
}

// DailyCalories sums calories across the ledger entries stamped on the
// given calendar day.
func (l *HistoryLedger) DailyCalories(day time.Time) int {
	y, m, d := day.Date()
	total := 0
	for _, entry := range l.state.History() {
		ey, em, ed := entry.Timestamp.Date()
		if ey == y && em == m && ed == d {
			total += entry.Calories
		}
	}
	return total
}
