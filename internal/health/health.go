// Package health tracks whether the persistence layer is usable.
package health

import (
	"sync"
	"time"
)

// State is the database readiness flag shared by the connection monitor
// and the request gate. The zero value is not ready.
type State struct {
	mu        sync.RWMutex
	ready     bool
	lastError string
	changedAt time.Time
	onChange  []func(ready bool)
}

// New returns a State that starts disconnected.
func New() *State {
	return &State{changedAt: time.Now()}
}

// Snapshot is a point-in-time copy of State.
type Snapshot struct {
	Ready     bool      `json:"ready"`
	LastError string    `json:"last_error,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// Ready reports whether requests may reach the database.
func (s *State) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// SetReady marks the database reachable.
func (s *State) SetReady() {
	s.set(true, "")
}

// SetDown marks the database unreachable, recording the cause.
func (s *State) SetDown(err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	s.set(false, msg)
}

// OnChange registers fn to be called after each ready/down transition.
func (s *State) OnChange(fn func(ready bool)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

func (s *State) set(ready bool, lastError string) {
	s.mu.Lock()
	changed := s.ready != ready
	s.ready = ready
	s.lastError = lastError
	if changed {
		s.changedAt = time.Now()
	}
	callbacks := s.onChange
	s.mu.Unlock()

	if changed {
		for _, fn := range callbacks {
			fn(ready)
		}
	}
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Ready: s.ready, LastError: s.lastError, ChangedAt: s.changedAt}
}
