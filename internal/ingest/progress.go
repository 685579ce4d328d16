package ingest

import (
	"sync"
	"time"
)

// ProgressFunc receives coarse-grained load progress. total == 0 means the
// total is unknown and only current/message are meaningful. Calls are
// fire-and-forget: implementations must not block.
type ProgressFunc func(current, total int, message string)

// ProgressReporter throttles progress delivery to entry-count and wall-clock
// milestones so a large playlist does not flood the sink with per-line
// callbacks.
type ProgressReporter struct {
	fn       ProgressFunc
	every    int
	interval time.Duration

	mu       sync.Mutex
	lastSent time.Time
	lastSeen int
}

// NewProgressReporter wraps fn with milestone throttling. A nil fn yields a
// reporter whose methods are no-ops. every <= 0 disables count milestones;
// interval <= 0 disables time milestones.
func NewProgressReporter(fn ProgressFunc, every int, interval time.Duration) *ProgressReporter {
	return &ProgressReporter{fn: fn, every: every, interval: interval}
}

// Report delivers a progress event if a milestone has been reached since the
// last delivery.
func (r *ProgressReporter) Report(current, total int, message string) {
	if r == nil || r.fn == nil {
		return
	}

	r.mu.Lock()
	countHit := r.every > 0 && current-r.lastSeen >= r.every
	timeHit := r.interval > 0 && time.Since(r.lastSent) >= r.interval
	if !countHit && !timeHit {
		r.mu.Unlock()
		return
	}
	r.lastSeen = current
	r.lastSent = time.Now()
	r.mu.Unlock()

	r.fn(current, total, message)
}

// Milestone delivers an event unconditionally, for phase boundaries such as
// "Connecting" or "Load complete".
func (r *ProgressReporter) Milestone(current, total int, message string) {
	if r == nil || r.fn == nil {
		return
	}

	r.mu.Lock()
	r.lastSeen = current
	r.lastSent = time.Now()
	r.mu.Unlock()

	r.fn(current, total, message)
}
