// Package dedup gates registration attempts so that each candidate project
// directory has at most one attempt in flight.
//
// A Store is not safe for concurrent use. The daemon's event loop is its only
// caller, which makes TryAcquire an atomic check-and-set without a lock.
package dedup

import "sort"

// State is the recorded state of a candidate directory.
type State int

const (
	// StateNone means no record exists; the directory is eligible.
	StateNone State = iota

	// StateInProgress means a registration attempt is running.
	StateInProgress

	// StateRegistered means the directory is known to the tracking API.
	StateRegistered
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateRegistered:
		return "registered"
	default:
		return "none"
	}
}

// Outcome is the terminal result of one registration attempt.
type Outcome int

const (
	// OutcomeRegistered keeps the record; the directory is never retried.
	OutcomeRegistered Outcome = iota

	// OutcomeSkipped means there was nothing to register yet. The record is
	// dropped so a later event (such as a concept file appearing) can retry.
	OutcomeSkipped

	// OutcomeRetry means a collaborator failed transiently. The record is
	// dropped so the next event on the directory starts over.
	OutcomeRetry
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRegistered:
		return "registered"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// Releases reports whether the outcome makes the directory eligible again.
func (o Outcome) Releases() bool {
	return o != OutcomeRegistered
}

// Store records candidate directories that are in progress or registered.
// Records never expire.
type Store struct {
	records map[string]State
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{records: make(map[string]State)}
}

// TryAcquire marks dir in progress and returns true iff no record exists.
func (s *Store) TryAcquire(dir string) bool {
	if _, ok := s.records[dir]; ok {
		return false
	}
	s.records[dir] = StateInProgress
	return true
}

// Finalize ends the in-progress attempt for dir. A registered outcome keeps
// the record; any other outcome removes it. Finalize on a directory that is
// not in progress is a no-op and returns false.
func (s *Store) Finalize(dir string, outcome Outcome) bool {
	if s.records[dir] != StateInProgress {
		return false
	}
	if outcome.Releases() {
		delete(s.records, dir)
		return true
	}
	s.records[dir] = StateRegistered
	return true
}

// State returns the current state of dir.
func (s *Store) State(dir string) State {
	return s.records[dir]
}

// Snapshot summarizes the store.
type Snapshot struct {
	InProgress []string `json:"in_progress"`
	Registered []string `json:"registered"`
}

// Snapshot returns sorted copies of the in-progress and registered sets.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		InProgress: []string{},
		Registered: []string{},
	}
	for dir, state := range s.records {
		switch state {
		case StateInProgress:
			snap.InProgress = append(snap.InProgress, dir)
		case StateRegistered:
			snap.Registered = append(snap.Registered, dir)
		}
	}
	sort.Strings(snap.InProgress)
	sort.Strings(snap.Registered)
	return snap
}
