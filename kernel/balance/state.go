// Package balance keeps the holdings of one account per collection in step
// with the selected collection and the chain head.
package balance

import (
	"math/big"
	"sync"
	"time"
)

// Status of the synchronizer with respect to the current selection.
type Status int

const (
	Idle Status = iota
	Refreshing
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Refreshing:
		return "refreshing"
	}
	return "unknown"
}

// Entry is the last known balance of one collection. A failed refresh keeps
// Value and sets Stale and Err.
type Entry struct {
	Value     *big.Int
	Block     uint64
	UpdatedAt time.Time
	Stale     bool
	Err       error
}

func (e Entry) clone() Entry {
	if e.Value != nil {
		e.Value = new(big.Int).Set(e.Value)
	}
	return e
}

// State holds the selection and the per collection balances. Readers may be
// on any goroutine, writes come from the synchronizer loop only.
type State struct {
	mu       sync.RWMutex
	selected string
	hasSel   bool
	status   Status
	balances map[string]Entry
}

func NewState() *State {
	return &State{balances: make(map[string]Entry)}
}

// Selection returns the selected collection, ok is false when none is.
func (s *State) Selection() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected, s.hasSel
}

func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *State) Balance(collection string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.balances[collection]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Snapshot copies every known balance.
func (s *State) Snapshot() map[string]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Entry, len(s.balances))
	for k, e := range s.balances {
		out[k] = e.clone()
	}
	return out
}

func (s *State) selectCollection(collection string) {
	s.mu.Lock()
	s.selected, s.hasSel = collection, true
	s.mu.Unlock()
}

func (s *State) deselect() {
	s.mu.Lock()
	s.selected, s.hasSel = "", false
	s.mu.Unlock()
}

func (s *State) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

func (s *State) apply(collection string, e Entry) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[collection] = e
	return e.clone()
}

func (s *State) markStale(collection string, err error) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.balances[collection]
	e.Stale = true
	e.Err = err
	s.balances[collection] = e
	return e.clone()
}
