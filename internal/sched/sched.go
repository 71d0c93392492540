// Package sched provides cancellable one-shot timers that deliver their
// fires back to a single event loop.
package sched

import (
	"sync"
	"time"
)

// Event is delivered when a timer fires.
type Event struct {
	ID int
}

// Service manages timed wake-ups with full lifecycle ownership: ID
// generation, scheduling, and O(1) cancellation. Fires are delivered through
// the notify callback, which must be safe to call from timer goroutines;
// the event loop serializes them.
type Service struct {
	notify func(Event)
	timers map[int]*time.Timer
	nextID int
	mu     sync.Mutex
}

// NewService creates a timer service delivering fires to notify.
func NewService(notify func(Event)) *Service {
	return &Service{
		notify: notify,
		timers: make(map[int]*time.Timer),
	}
}

// After schedules a one-shot timer. Returns the timer ID.
func (s *Service) After(d time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID

	s.timers[id] = time.AfterFunc(d, func() {
		s.fire(id)
	})
	return id
}

func (s *Service) fire(id int) {
	s.mu.Lock()
	_, ok := s.timers[id]
	if ok {
		delete(s.timers, id)
	}
	s.mu.Unlock()

	if ok {
		s.notify(Event{ID: id})
	}
}

// Cancel stops a timer. A fire already in flight is suppressed if it has not
// yet claimed its entry.
func (s *Service) Cancel(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// CancelAll stops every pending timer.
func (s *Service) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Pending returns the number of timers that have not fired or been
// cancelled.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
