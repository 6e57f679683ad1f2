// Package ui holds the per-view controllers surfacing asynchronous work to
// the user: the busy tracker behind the loading indicator, the transient
// notification queue and the modal dialog lifecycles.
package ui

import "sync"

// Tracker is the single busy flag plus label driving the full-viewport
// loading indicator. Overlapping Begin calls are NOT reference-counted:
// the label reflects whichever call set it last, and End from any caller
// clears busy entirely. Callers run End in a defer so the indicator can
// never stick.
type Tracker struct {
	mu    sync.Mutex
	busy  bool
	label string
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin marks a request in flight with a human-readable label.
func (t *Tracker) Begin(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.busy = true
	t.label = label
}

// End clears the busy flag regardless of how many Begin calls preceded it.
func (t *Tracker) End() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.busy = false
	t.label = ""
}

// Status reports the flag and label for the indicator.
func (t *Tracker) Status() (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.busy, t.label
}
