package editor

import (
	"sync"
	"time"
)

// Debouncer runs a function once a key has been quiet for the configured
// duration. Each key has its own timer, so edits to one block never
// cancel the pending save of another.
type Debouncer struct {
	mutex    sync.Mutex
	timers   map[string]*time.Timer
	duration time.Duration
}

// NewDebouncer creates a new debouncer with the specified duration
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		timers:   make(map[string]*time.Timer),
		duration: duration,
	}
}

// Debounce executes fn after the debounce duration has passed.
// If called again with the same key before the duration expires, the previous call is cancelled
func (d *Debouncer) Debounce(key string, fn func()) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if timer, exists := d.timers[key]; exists {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(d.duration, func() {
		d.mutex.Lock()
		// A newer Debounce may have replaced us between firing and locking.
		if d.timers[key] != timer {
			d.mutex.Unlock()
			return
		}
		delete(d.timers, key)
		d.mutex.Unlock()
		fn()
	})
	d.timers[key] = timer
}

// Cancel cancels a pending debounced function call
func (d *Debouncer) Cancel(key string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if timer, exists := d.timers[key]; exists {
		timer.Stop()
		delete(d.timers, key)
	}
}

// Pending reports whether key has a call scheduled.
func (d *Debouncer) Pending(key string) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	_, ok := d.timers[key]
	return ok
}

// Drain cancels every pending call and returns the keys that were still
// waiting, so the caller can run them right away. A timer that already
// fired but has not claimed its key yet finds the key gone and does
// nothing, so its key is returned too.
func (d *Debouncer) Drain() []string {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	keys := make([]string, 0, len(d.timers))
	for key, timer := range d.timers {
		timer.Stop()
		keys = append(keys, key)
		delete(d.timers, key)
	}
	return keys
}

// Clear cancels all pending debounced function calls
func (d *Debouncer) Clear() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
}
