package game

import (
	"sync"
)

// Store holds the synchronized game state. Writes come from one goroutine (the
// dispatcher); the lock is there so that views can take snapshots from others.
type Store struct {
	mu    sync.Mutex
	state GameState

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(GameState)
}

func NewStore() *Store {
	return &Store{
		state: EmptyState(),
		subs:  map[int]func(GameState){},
	}
}

// Get returns a snapshot that the caller may keep or change freely.
func (s *Store) Get() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Copy()
}

// Merge applies a partial update.
func (s *Store) Merge(p StatePatch) {
	s.mu.Lock()
	if s.state.Players == nil {
		s.state.Players = map[PlayerID]Player{}
	}
	p.apply(&s.state)
	snap := s.state.Copy()
	s.mu.Unlock()

	s.notify(snap)
}

// Set replaces the whole state.
func (s *Store) Set(full GameState) {
	full = full.Copy()
	s.mu.Lock()
	s.state = full
	snap := s.state.Copy()
	s.mu.Unlock()

	s.notify(snap)
}

// Reset goes back to EmptyState.
func (s *Store) Reset() {
	s.Set(EmptyState())
}

// Subscribe registers fn to be called once after every mutation. The returned
// func removes it again.
func (s *Store) Subscribe(fn func(GameState)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(snap GameState) {
	s.subMu.Lock()
	fns := make([]func(GameState), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap.Copy())
	}
}
