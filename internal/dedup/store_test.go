package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_TryAcquire(t *testing.T) {
	s := NewStore()

	assert.True(t, s.TryAcquire("/w/a"))
	assert.Equal(t, StateInProgress, s.State("/w/a"))

	// A second burst for the same directory is gated.
	assert.False(t, s.TryAcquire("/w/a"))

	// Distinct directories are independent.
	assert.True(t, s.TryAcquire("/w/b"))
}

func TestStore_Finalize(t *testing.T) {
	tests := []struct {
		name      string
		outcome   Outcome
		wantState State
		reacquire bool
	}{
		{name: "registered keeps record", outcome: OutcomeRegistered, wantState: StateRegistered, reacquire: false},
		{name: "skipped releases", outcome: OutcomeSkipped, wantState: StateNone, reacquire: true},
		{name: "retry releases", outcome: OutcomeRetry, wantState: StateNone, reacquire: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			assert.True(t, s.TryAcquire("/w/a"))
			assert.True(t, s.Finalize("/w/a", tt.outcome))
			assert.Equal(t, tt.wantState, s.State("/w/a"))
			assert.Equal(t, tt.reacquire, s.TryAcquire("/w/a"))
		})
	}
}

func TestStore_FinalizeWithoutAcquire(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Finalize("/w/a", OutcomeRegistered))
	assert.Equal(t, StateNone, s.State("/w/a"))

	assert.True(t, s.TryAcquire("/w/a"))
	assert.True(t, s.Finalize("/w/a", OutcomeRegistered))
	// Registered records are terminal.
	assert.False(t, s.Finalize("/w/a", OutcomeRetry))
	assert.Equal(t, StateRegistered, s.State("/w/a"))
}

func TestStore_Snapshot(t *testing.T) {
	s := NewStore()
	s.TryAcquire("/w/c")
	s.TryAcquire("/w/a")
	s.TryAcquire("/w/b")
	s.Finalize("/w/b", OutcomeRegistered)

	snap := s.Snapshot()
	assert.Equal(t, []string{"/w/a", "/w/c"}, snap.InProgress)
	assert.Equal(t, []string{"/w/b"}, snap.Registered)
}
