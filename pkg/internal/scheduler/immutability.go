package scheduler

import "sync/atomic"

// requireNotStarted panics if a run is in progress.
func (s *Scheduler) requireNotStarted(action string) {
	if atomic.LoadInt32(&s.started) == 1 {
		panic("scheduler: " + action + " called while running")
	}
}

// SetChannel changes the output channel between runs.
func (s *Scheduler) SetChannel(ch string) {
	s.requireNotStarted("SetChannel")
	s.mu.Lock()
	s.channel = ch
	s.mu.Unlock()
}
