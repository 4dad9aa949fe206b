// Package watcher reloads item files when they change on disk, coalescing
// bursts of writes into one batch per quiet period.
package watcher

import (
	"slices"
	"sync"
	"time"
)

// DefaultDebounceDuration is the default quiet period.
const DefaultDebounceDuration = 200 * time.Millisecond

// Debouncer collects keys triggered within the quiet period and hands them
// to the callback once no new trigger arrives for the whole duration.
type Debouncer struct {
	duration time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending map[string]struct{}
}

// NewDebouncer returns a debouncer. A zero duration uses
// DefaultDebounceDuration.
func NewDebouncer(d time.Duration) *Debouncer {
	if d <= 0 {
		d = DefaultDebounceDuration
	}
	return &Debouncer{duration: d, pending: make(map[string]struct{})}
}

// Trigger records key and restarts the quiet period. fn receives the sorted
// set of keys seen since the last flush.
func (d *Debouncer) Trigger(key string, fn func(keys []string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	gen := d.gen
	d.pending[key] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		// a later trigger or Cancel owns the batch
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		keys := make([]string, 0, len(d.pending))
		for k := range d.pending {
			keys = append(keys, k)
		}
		clear(d.pending)
		d.timer = nil
		d.mu.Unlock()
		slices.Sort(keys)
		fn(keys)
	})
}

// Cancel drops the pending batch.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	clear(d.pending)
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Duration returns the quiet period.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}
