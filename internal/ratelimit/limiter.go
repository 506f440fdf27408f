package ratelimit

import (
	"fmt"
	"time"
)

// Result is the outcome of a check.
type Result struct {
	Exceeded bool
	Key      string
	Current  int
	Limit    int
	Reason   string
}

// Limiter enforces a Config. Safe for concurrent use.
type Limiter struct {
	cfg     Config
	now     func() time.Time
	tracker tracker
}

// New returns a limiter for cfg. now defaults to time.Now.
func New(cfg Config, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{cfg: cfg, now: now}
}

// Allow checks key against its limit and counts the call when it passes.
// Keys without a limit always pass and are not counted.
func (l *Limiter) Allow(key string) Result {
	limit := l.cfg.lookup(key)
	if !limit.active() {
		return Result{}
	}

	l.tracker.mu.Lock()
	defer l.tracker.mu.Unlock()

	w := l.tracker.snapshot(key, limit.Window, l.now())
	if w.count >= limit.MaxRequests {
		return Result{
			Exceeded: true,
			Key:      key,
			Current:  w.count,
			Limit:    limit.MaxRequests,
			Reason: fmt.Sprintf("rate limit exceeded: %d/%d %s calls in %s window",
				w.count, limit.MaxRequests, key, limit.Window),
		}
	}
	w.count++
	return Result{}
}
