package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// tracker counts calls per key. A key's counter resets once its window
// has elapsed.
type tracker struct {
	mu      sync.Mutex
	windows map[string]*window
}

// snapshot returns the current count for key, resetting an expired window.
func (t *tracker) snapshot(key string, length time.Duration, now time.Time) *window {
	if t.windows == nil {
		t.windows = make(map[string]*window)
	}
	w := t.windows[key]
	if w == nil || now.Sub(w.start) >= length {
		w = &window{start: now}
		t.windows[key] = w
	}
	return w
}
