// Package dedupe suppresses repeat deliveries of the same logical message.
// Upstream hardware and webhook delivery are not exactly-once: the same
// physical SMS can arrive through more than one HTTP callback. The transport
// provides no stable message identifier, so suppression is content-based.
package dedupe

import (
	"hash/fnv"
	"sync"
	"time"
)

const (
	// DefaultWindow is how long an identical fingerprint is treated as a
	// repeat delivery.
	DefaultWindow = 30 * time.Minute
	// DefaultSweepThreshold is the map size past which expired entries are
	// swept. Eviction is opportunistic, not timer-driven.
	DefaultSweepThreshold = 100
)

// Window is a time-bounded set of recently-seen message fingerprints.
// Safe for concurrent use.
type Window struct {
	mu        sync.Mutex
	window    time.Duration
	threshold int
	seen      map[uint64]time.Time
	now       func() time.Time
}

// Option configures a Window.
type Option func(*Window)

// WithClock replaces the time source, letting tests advance the window
// without sleeping.
func WithClock(now func() time.Time) Option {
	return func(w *Window) { w.now = now }
}

// WithSweepThreshold overrides the sweep trigger size.
func WithSweepThreshold(n int) Option {
	return func(w *Window) { w.threshold = n }
}

// NewWindow creates a deduplication window. A non-positive duration falls
// back to DefaultWindow.
func NewWindow(window time.Duration, opts ...Option) *Window {
	if window <= 0 {
		window = DefaultWindow
	}
	w := &Window{
		window:    window,
		threshold: DefaultSweepThreshold,
		seen:      make(map[uint64]time.Time),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// IsDuplicate reports whether the (sender, recipient, content) triple was
// seen within the window. The fingerprint is recorded as seen-now on every
// call, duplicate or not.
func (w *Window) IsDuplicate(sender, recipient, content string) bool {
	key := fingerprint(sender, recipient, content)
	now := w.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	last, ok := w.seen[key]
	w.seen[key] = now

	if len(w.seen) > w.threshold {
		w.sweepLocked(now)
	}

	return ok && now.Sub(last) < w.window
}

// Len returns the number of tracked fingerprints, expired or not.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.seen)
}

func (w *Window) sweepLocked(now time.Time) {
	for key, last := range w.seen {
		if now.Sub(last) >= w.window {
			delete(w.seen, key)
		}
	}
}

func fingerprint(sender, recipient, content string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(sender))
	h.Write([]byte{0})
	h.Write([]byte(recipient))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return h.Sum64()
}
