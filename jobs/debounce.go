package jobs

import (
	"sync"
	"time"
)

// Debouncer throttles per-commit snapshot enqueues so that at most one
// reaches the queue per interval. A non-positive interval lets every call
// through.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewDebouncer constructs a Debouncer with the given minimum interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Allow reports whether an enqueue at now should proceed and, if so, records
// now as the last accepted time.
func (d *Debouncer) Allow(now time.Time) bool {
	if d.interval <= 0 {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.last.IsZero() && now.Sub(d.last) < d.interval {
		return false
	}
	d.last = now
	return true
}
