package watcher

import (
	"sync"
	"time"
)

type pendingTimer struct {
	timer *time.Timer
	gen   uint64
}

// Debouncer delays a callback per path until the path has been quiet for a
// fixed delay. Each Trigger restarts the path's timer, so a burst of N
// triggers results in exactly one callback, delay after the last trigger.
//
// Timers carry a generation. A timer that was superseded after its fire was
// already scheduled finds a newer generation in the table and does nothing.
type Debouncer struct {
	delay time.Duration
	fire  func(path string)

	mu      sync.Mutex
	timers  map[string]pendingTimer
	gen     uint64
	stopped bool
}

// NewDebouncer returns a Debouncer that calls fire on its own goroutine once
// a path has been quiet for delay.
func NewDebouncer(delay time.Duration, fire func(path string)) *Debouncer {
	return &Debouncer{
		delay:  delay,
		fire:   fire,
		timers: make(map[string]pendingTimer),
	}
}

// Trigger arms or re-arms the timer for path. It reports whether an armed
// timer was replaced.
func (d *Debouncer) Trigger(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}

	old, replaced := d.timers[path]
	if replaced {
		old.timer.Stop()
	}

	d.gen++
	gen := d.gen
	d.timers[path] = pendingTimer{
		timer: time.AfterFunc(d.delay, func() { d.expire(path, gen) }),
		gen:   gen,
	}
	return replaced
}

func (d *Debouncer) expire(path string, gen uint64) {
	d.mu.Lock()
	p, ok := d.timers[path]
	if d.stopped || !ok || p.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.timers, path)
	d.mu.Unlock()

	d.fire(path)
}

// Pending returns the number of armed timers.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Stop cancels every armed timer. Triggers after Stop are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for path, p := range d.timers {
		p.timer.Stop()
		delete(d.timers, path)
	}
}
