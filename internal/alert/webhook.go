package alert

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

const userAgent = "threadshift-alert/1"

// Delivery settings. Tests shorten retryDelay.
var (
	httpClient  = &http.Client{Timeout: 5 * time.Second}
	maxAttempts = 3
	retryDelay  = time.Second
)

// retryable reports whether a response status is worth another attempt.
func retryable(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

// Send posts event to the webhook in cfg. Transport errors, 5xx and 429
// are retried with linear backoff until ctx ends; other non-2xx statuses
// fail immediately.
func Send(ctx context.Context, cfg AlertConfig, event AlertEvent) error {
	body, err := FormatPayload(cfg.Format, event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt-1) * retryDelay):
			}
		}

		code, err := post(ctx, cfg, body)
		switch {
		case err != nil:
			lastErr = err
		case code >= 200 && code < 300:
			return nil
		case retryable(code):
			lastErr = fmt.Errorf("HTTP %d", code)
		default:
			return fmt.Errorf("webhook rejected %s: HTTP %d", event.Event, code)
		}
	}
	return fmt.Errorf("webhook failed after %d attempts: %w", maxAttempts, lastErr)
}

func post(ctx context.Context, cfg AlertConfig, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
