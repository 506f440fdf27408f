package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrHostUnavailable is returned when the host never became ready.
var ErrHostUnavailable = errors.New("host not available")

// Probe reports whether the host is ready. A nil error means ready.
type Probe func(ctx context.Context) error

// WaitForHost polls probe up to attempts times, sleeping interval between
// tries. It returns ErrHostUnavailable after the final failed attempt, or
// the context error if ctx ends first.
func WaitForHost(ctx context.Context, probe Probe, attempts int, interval time.Duration) error {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = probe(ctx); lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrHostUnavailable, attempts, lastErr)
}
