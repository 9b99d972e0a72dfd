package watcher

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fireRecorder struct {
	mu    sync.Mutex
	fired []string
	at    []time.Time
}

func (r *fireRecorder) fire(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, path)
	r.at = append(r.at, time.Now())
}

func (r *fireRecorder) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.fired...)
}

func TestDebouncer_CollapsesBurst(t *testing.T) {
	rec := &fireRecorder{}
	d := NewDebouncer(50*time.Millisecond, rec.fire)
	defer d.Stop()

	assert.False(t, d.Trigger("/w/a"))
	var last time.Time
	for i := 0; i < 5; i++ {
		time.Sleep(10 * time.Millisecond)
		assert.True(t, d.Trigger("/w/a"))
		last = time.Now()
	}
	assert.Equal(t, 1, d.Pending())

	require.Eventually(t, func() bool { return len(rec.paths()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"/w/a"}, rec.paths())
	assert.GreaterOrEqual(t, rec.at[0].Sub(last), 50*time.Millisecond)
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncer_PathsIndependent(t *testing.T) {
	rec := &fireRecorder{}
	d := NewDebouncer(30*time.Millisecond, rec.fire)
	defer d.Stop()

	d.Trigger("/w/a")
	d.Trigger("/w/b")
	assert.Equal(t, 2, d.Pending())

	require.Eventually(t, func() bool { return len(rec.paths()) == 2 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"/w/a", "/w/b"}, rec.paths())
}

func TestDebouncer_FiresAgainAfterIdle(t *testing.T) {
	rec := &fireRecorder{}
	d := NewDebouncer(20*time.Millisecond, rec.fire)
	defer d.Stop()

	d.Trigger("/w/a")
	require.Eventually(t, func() bool { return len(rec.paths()) == 1 }, time.Second, 5*time.Millisecond)

	assert.False(t, d.Trigger("/w/a"))
	require.Eventually(t, func() bool { return len(rec.paths()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestDebouncer_StaleGenerationDropped(t *testing.T) {
	rec := &fireRecorder{}
	d := NewDebouncer(time.Hour, rec.fire)
	defer d.Stop()

	d.Trigger("/w/a")
	d.mu.Lock()
	stale := d.timers["/w/a"].gen
	d.mu.Unlock()
	d.Trigger("/w/a")

	// A superseded timer whose callback was already running.
	d.expire("/w/a", stale)
	assert.Empty(t, rec.paths())
	assert.Equal(t, 1, d.Pending())
}

func TestDebouncer_Stop(t *testing.T) {
	rec := &fireRecorder{}
	d := NewDebouncer(20*time.Millisecond, rec.fire)

	d.Trigger("/w/a")
	d.Trigger("/w/b")
	d.Stop()
	assert.Equal(t, 0, d.Pending())
	assert.False(t, d.Trigger("/w/c"))

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.paths())
}
