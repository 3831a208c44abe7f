package mintcore

import (
	"sync"

	"github.com/ligun0805/nft-mint/internal/metrics"
)

// Store holds the current State and publishes snapshots to subscribers.
// Subscribers must not Dispatch synchronously from their callback.
type Store struct {
	pres Presentation

	mu    sync.Mutex
	state State
	subs  map[int]func(State)
	next  int

	notifyMu sync.Mutex
}

// NewStore returns a store in the disconnected state.
func NewStore(p Presentation) *Store {
	return &Store{pres: p, state: p.Initial(), subs: map[int]func(State){}}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch reduces a into the state. It reports false for stale results.
func (s *Store) Dispatch(a Action) bool {
	s.mu.Lock()
	next, applied := s.pres.Reduce(s.state, a)
	if applied {
		s.state = next
	}
	s.mu.Unlock()

	if !applied {
		metrics.StaleResultsDropped.Inc()
		return false
	}
	s.publish()
	return true
}

// Subscribe registers fn for every applied action; it is called once
// immediately with the current snapshot.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	s.notifyMu.Lock()
	fn(s.Snapshot())
	s.notifyMu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// publish delivers the latest snapshot so observers never go backwards.
func (s *Store) publish() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	st := s.state
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
