package ratelimit

import (
	"sync"
	"time"
)

// Defaults match the quota of the free Gemini tier
const (
	DefaultWindow   = time.Minute
	DefaultMaxCalls = 10
)

// Clock returns the current time
type Clock func() time.Time

// Window is a process-wide call counter over a fixed time window. It does
// not block callers; ShouldThrottle only tells them that the remote quota is
// probably close to exhausted.
type Window struct {
	size     time.Duration
	maxCalls int
	now      Clock

	mu          sync.Mutex
	windowStart time.Time
	callCount   int
}

// Option configures a Window
type Option func(*Window)

// WithClock replaces time.Now, mostly for tests
func WithClock(clock Clock) Option {
	return func(w *Window) {
		w.now = clock
	}
}

// New creates a Window. Non-positive arguments fall back to the defaults.
func New(size time.Duration, maxCalls int, opts ...Option) *Window {
	if size <= 0 {
		size = DefaultWindow
	}
	if maxCalls <= 0 {
		maxCalls = DefaultMaxCalls
	}

	w := &Window{
		size:     size,
		maxCalls: maxCalls,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

// ShouldThrottle records a call attempt and reports whether the caller should
// skip the remote call. A call that opens a new window is never throttled.
func (w *Window) ShouldThrottle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if now.Sub(w.windowStart) > w.size {
		w.callCount = 0
		w.windowStart = now
		return false
	}

	w.callCount++
	return w.callCount >= w.maxCalls
}

// Snapshot returns the current window start and call count
func (w *Window) Snapshot() (time.Time, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.windowStart, w.callCount
}
