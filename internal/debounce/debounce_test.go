package debounce

import (
	"sync"
	"testing"
	"time"
)

// recorder collects dispatched values with timestamps.
type recorder struct {
	mu     sync.Mutex
	values []string
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	// Scaled-down version of the canonical scenario: keystrokes at
	// t=0,100,200,600 with a 500ms window fire exactly one search, using
	// the value typed at t=600.
	rec := &recorder{}
	d := New(250*time.Millisecond, rec.record)
	defer d.Stop()

	d.Trigger("i")
	time.Sleep(50 * time.Millisecond)
	d.Trigger("ip")
	time.Sleep(50 * time.Millisecond)
	d.Trigger("iph")
	time.Sleep(200 * time.Millisecond) // pause, but shorter than the window
	d.Trigger("iphone")

	// Wait well past the window for the final dispatch
	time.Sleep(500 * time.Millisecond)

	got := rec.snapshot()
	if len(got) != 1 {
		t.Fatalf("dispatch count = %d (%v), want 1", len(got), got)
	}
	if got[0] != "iphone" {
		t.Errorf("dispatched %q, want %q", got[0], "iphone")
	}
}

func TestDebouncer_SeparateQuiescentRuns(t *testing.T) {
	rec := &recorder{}
	d := New(50*time.Millisecond, rec.record)
	defer d.Stop()

	d.Trigger("first")
	time.Sleep(200 * time.Millisecond)
	d.Trigger("second")
	time.Sleep(200 * time.Millisecond)

	got := rec.snapshot()
	if len(got) != 2 {
		t.Fatalf("dispatch count = %d (%v), want 2", len(got), got)
	}
	if got[0] != "first" || got[1] != "second" {
		t.Errorf("dispatched %v, want [first second]", got)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	rec := &recorder{}
	d := New(100*time.Millisecond, rec.record)

	d.Trigger("doomed")
	d.Stop()
	time.Sleep(300 * time.Millisecond)

	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("dispatched %v after Stop, want none", got)
	}

	// Triggers after Stop are ignored
	d.Trigger("late")
	time.Sleep(300 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("dispatched %v after stopped Trigger, want none", got)
	}
}

func TestNew_DefaultWindow(t *testing.T) {
	d := New(0, func(string) {})
	if d.window != DefaultWindow {
		t.Errorf("window = %v, want %v", d.window, DefaultWindow)
	}
}
