// Package debounce coalesces rapid input events into at most one callback
// per quiescent period.
//
// Each trigger schedules a deferred dispatch; a trigger arriving before the
// previous one fires cancels and replaces it, so exactly one dispatch happens
// per run of triggers once input has been quiet for the window. A dispatch
// that has already fired is never cancelled: cancellation stops pending
// timers, not work already handed to the callback.
package debounce

import (
	"sync"
	"time"
)

// DefaultWindow is the quiescence period used for storefront search.
const DefaultWindow = 500 * time.Millisecond

// Debouncer schedules fn after a quiet period. Safe for concurrent use.
type Debouncer struct {
	window time.Duration
	fn     func(string)

	mu      sync.Mutex
	pending *time.Timer
	stopped bool
}

// New creates a debouncer dispatching fn. A non-positive window falls back to
// DefaultWindow.
func New(window time.Duration, fn func(string)) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{window: window, fn: fn}
}

// Trigger records a new input value. Any pending (unfired) dispatch is
// cancelled and replaced; after the window elapses with no further triggers,
// fn runs once with the latest value.
func (d *Debouncer) Trigger(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.pending != nil {
		d.pending.Stop()
	}
	d.pending = time.AfterFunc(d.window, func() {
		d.fn(value)
	})
}

// Stop cancels any pending dispatch and rejects further triggers.
// It does not interrupt a callback that already started.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}
