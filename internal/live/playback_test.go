package live

import (
	"testing"
	"time"
)

func newTestScheduler(now time.Time) *Scheduler {
	s := NewScheduler()
	s.now = func() time.Time { return now }
	return s
}

func TestScheduler_ConsecutiveChunksAreGapless(t *testing.T) {
	// ARRANGE: three chunks arrive in a burst, all "now".
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	s := newTestScheduler(now)

	// ACT
	start1, _ := s.Schedule(500 * time.Millisecond)
	start2, _ := s.Schedule(300 * time.Millisecond)
	start3, _ := s.Schedule(200 * time.Millisecond)

	// ASSERT: each chunk starts exactly when the previous one ends.
	if !start1.Equal(now) {
		t.Errorf("start1 = %v, want %v", start1, now)
	}
	if want := now.Add(500 * time.Millisecond); !start2.Equal(want) {
		t.Errorf("start2 = %v, want %v", start2, want)
	}
	if want := now.Add(800 * time.Millisecond); !start3.Equal(want) {
		t.Errorf("start3 = %v, want %v", start3, want)
	}
}

func TestScheduler_ChunkAfterSilenceStartsImmediately(t *testing.T) {
	// ARRANGE: one chunk plays out, then the line goes quiet.
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	s := newTestScheduler(now)
	s.Schedule(500 * time.Millisecond)

	// ACT: the next chunk arrives 2s later, well past the schedule.
	later := now.Add(2 * time.Second)
	s.now = func() time.Time { return later }
	start, _ := s.Schedule(400 * time.Millisecond)

	// ASSERT: no dead air waiting for the stale nextStart.
	if !start.Equal(later) {
		t.Errorf("start = %v, want %v (immediate)", start, later)
	}
}

func TestScheduler_Interrupt_DropsPendingAndResets(t *testing.T) {
	// ARRANGE
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	s := newTestScheduler(now)
	s.Schedule(time.Second)
	s.Schedule(time.Second)
	s.Schedule(time.Second)

	// ACT
	dropped := s.Interrupt()

	// ASSERT: the queue is gone and the next chunk starts right away.
	if dropped != 3 {
		t.Errorf("dropped = %d, want 3", dropped)
	}
	if s.Pending() != 0 {
		t.Errorf("pending = %d after interrupt, want 0", s.Pending())
	}
	start, _ := s.Schedule(time.Second)
	if !start.Equal(now) {
		t.Errorf("post-interrupt start = %v, want %v", start, now)
	}
}

func TestScheduler_Done_ReleasesChunk(t *testing.T) {
	s := newTestScheduler(time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC))
	_, id1 := s.Schedule(time.Second)
	s.Schedule(time.Second)

	s.Done(id1)

	if s.Pending() != 1 {
		t.Errorf("pending = %d, want 1", s.Pending())
	}
}
