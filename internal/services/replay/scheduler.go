package replay

import (
	"sync"
	"time"
)

// Scheduler runs fn every d until the returned cancel func is called.
type Scheduler interface {
	Every(d time.Duration, fn func()) (cancel func())
}

// TickerScheduler drives fn from a time.Ticker on its own goroutine.
type TickerScheduler struct{}

func (TickerScheduler) Every(d time.Duration, fn func()) func() {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// ManualScheduler fires registered tasks only when told to. Tests use it to
// step playback deterministically.
type ManualScheduler struct {
	mu     sync.Mutex
	nextID int
	tasks  map[int]manualTask
}

type manualTask struct {
	interval time.Duration
	fn       func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{tasks: make(map[int]manualTask)}
}

func (s *ManualScheduler) Every(d time.Duration, fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.tasks[id] = manualTask{interval: d, fn: fn}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.tasks, id)
		s.mu.Unlock()
	}
}

// Fire runs every active task n times, re-reading the task set before each
// round so cancellations take effect immediately.
func (s *ManualScheduler) Fire(n int) {
	for i := 0; i < n; i++ {
		s.mu.Lock()
		fns := make([]func(), 0, len(s.tasks))
		for _, t := range s.tasks {
			fns = append(fns, t.fn)
		}
		s.mu.Unlock()
		for _, fn := range fns {
			fn()
		}
	}
}

// Active returns the number of registered tasks.
func (s *ManualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Intervals returns the intervals of the registered tasks.
func (s *ManualScheduler) Intervals() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.interval)
	}
	return out
}
