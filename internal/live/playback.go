package live

import (
	"sync"
	"time"
)

// Scheduler assigns gapless start times to coach speech chunks. Chunks
// arrive faster than they play; each one is scheduled at the later of now
// and the end of the previously scheduled chunk, so consecutive chunks
// play back to back and a chunk arriving after a silence starts
// immediately.
type Scheduler struct {
	mu        sync.Mutex
	nextStart time.Time
	pending   map[int]time.Time // chunk id -> scheduled end
	nextID    int

	now func() time.Time
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		pending: make(map[int]time.Time),
		now:     time.Now,
	}
}

// Schedule reserves a playback slot for a chunk of the given duration and
// returns its start time along with a handle for Done.
func (s *Scheduler) Schedule(duration time.Duration) (start time.Time, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start = s.now()
	if s.nextStart.After(start) {
		start = s.nextStart
	}
	s.nextStart = start.Add(duration)

	s.nextID++
	id = s.nextID
	s.pending[id] = s.nextStart
	return start, id
}

// Done releases a chunk once it has finished playing.
func (s *Scheduler) Done(id int) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

// Interrupt drops every tracked chunk and resets the schedule, so the next
// chunk starts immediately. Called when the model interrupts its own turn
// (the user started talking). Returns the number of chunks dropped.
func (s *Scheduler) Interrupt() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := len(s.pending)
	s.pending = make(map[int]time.Time)
	s.nextStart = time.Time{}
	return dropped
}

// Pending returns the number of chunks scheduled but not yet released.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
