package event

import "sync"

// Store is an append-only, insertion-ordered collection of events. It is
// safe for concurrent use; readers always receive a snapshot copy, so a
// snapshot never observes appends that happen after it was taken.
type Store struct {
	mu     sync.Mutex
	events []Event
}

func NewStore() *Store {
	return &Store{events: make([]Event, 0, 256)}
}

// Append adds an event to the end of the collection.
func (s *Store) Append(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

// All returns a point-in-time snapshot of every event in insertion order.
func (s *Store) All() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// Threats returns a snapshot of the events classified as threats, keeping
// their relative insertion order.
func (s *Store) Threats() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, 0, len(s.events))
	for _, ev := range s.events {
		if ev.IsThreat {
			out = append(out, ev)
		}
	}
	return out
}

// Len reports the number of stored events.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
