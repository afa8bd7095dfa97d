package store

import "time"

// Scheduler defers a function by a fixed delay and allows cancellation.
// It decouples the debounce policy from the timer primitive so front ends
// and tests can substitute their own task queue.
type Scheduler interface {
	// Schedule runs fn after d elapses. The returned cancel stops the run
	// if it has not started yet.
	Schedule(d time.Duration, fn func()) (cancel func())
}

// TimerScheduler schedules on plain runtime timers.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// scheduleRecompute arms the debounced chunk recompute. Every edit cancels
// the previous pending run and arms a new one, so the recompute fires at most
// once per quiescence window and always against the latest text.
//
// Callers must hold s.mu.
func (s *Store) scheduleRecompute() {
	if s.cancelRecompute != nil {
		s.cancelRecompute()
	}
	s.pendingRecompute = true
	s.cancelRecompute = s.sched.Schedule(s.debounce, s.Recompute)
}

// Recompute renders the buffer's chunk sequence immediately and notifies
// observers. Safe to call from any goroutine.
func (s *Store) Recompute() {
	s.mu.Lock()
	s.pendingRecompute = false
	pieces := s.chunksLocked()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	// Observers run outside the lock so they can call back into the store.
	for _, fn := range observers {
		fn(pieces)
	}
}

// flushRecompute runs a pending recompute synchronously, guaranteeing the
// final edit of a session is never dropped by the debounce.
func (s *Store) flushRecompute() {
	s.mu.Lock()
	pending := s.pendingRecompute
	if s.cancelRecompute != nil {
		s.cancelRecompute()
		s.cancelRecompute = nil
	}
	s.mu.Unlock()

	if pending {
		s.Recompute()
	}
}
