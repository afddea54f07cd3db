package viewport

import "sync"

// State is the viewport transform shared across render cycles.
type State struct {
	mu      sync.RWMutex
	current Transform
	writes  int
}

// NewState returns a state holding initial.
func NewState(initial Transform) *State {
	return &State{current: initial}
}

// Read returns the transform applied to the live drawing group.
func (s *State) Read() Transform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Write stores t as the transform of the live group and the initial
// transform of the next rebuild.
func (s *State) Write(t Transform) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = t
	s.writes++
}

// Writes returns how many times Write has been called.
func (s *State) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
