package ui

import (
	"sync"
	"time"
)

// DefaultNotificationTTL is how long a message stays visible.
const DefaultNotificationTTL = 3000 * time.Millisecond

// Notifier shows at most one transient message at a time. A new Show
// pre-empts the current message and restarts the countdown, so a burst of
// calls leaves only the last text visible for a full TTL window. Close
// releases the timer; notifiers are per-view and must be closed on view
// teardown.
type Notifier struct {
	ttl time.Duration

	mu     sync.Mutex
	text   string
	shown  bool
	timer  *time.Timer
	closed bool
}

func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &Notifier{ttl: ttl}
}

// Show replaces the visible message and restarts the expiry countdown.
func (n *Notifier) Show(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	// Cancel the pending expiry before arming a new one, otherwise an old
	// timer would clear the fresh message early.
	if n.timer != nil {
		n.timer.Stop()
	}
	n.text = text
	n.shown = true
	n.timer = time.AfterFunc(n.ttl, n.expire)
}

func (n *Notifier) expire() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.text = ""
	n.shown = false
	n.timer = nil
}

// Current returns the visible message, if any.
func (n *Notifier) Current() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.text, n.shown
}

// Close releases the timer resource. Show calls after Close are ignored.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.text = ""
	n.shown = false
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
