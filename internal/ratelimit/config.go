// Package ratelimit caps calls per key in fixed time windows.
package ratelimit

import (
	"fmt"
	"time"
)

// Limit allows MaxRequests calls per Window. Zero values mean no limit.
type Limit struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
}

func (l *Limit) active() bool {
	return l != nil && l.MaxRequests > 0 && l.Window > 0
}

// Config maps keys (gRPC method names) to limits. "*" applies to every key
// without its own entry.
type Config map[string]*Limit

// HasLimits returns true if any key has an active limit.
func (c Config) HasLimits() bool {
	for _, l := range c {
		if l.active() {
			return true
		}
	}
	return false
}

// Validate rejects negative values.
func (c Config) Validate() error {
	for key, l := range c {
		if l == nil {
			continue
		}
		if l.MaxRequests < 0 || l.Window < 0 {
			return fmt.Errorf("rate_limits.%s: max_requests and window must not be negative", key)
		}
	}
	return nil
}

// lookup returns the limit for key, falling back to "*".
func (c Config) lookup(key string) *Limit {
	if l := c[key]; l != nil {
		return l
	}
	return c["*"]
}
