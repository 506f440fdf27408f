package alert

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/threadshift/internal/events"
	"github.com/ppiankov/threadshift/internal/model"
)

func countingServer(t *testing.T, called *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDispatchMatchesEvents(t *testing.T) {
	var called atomic.Int32
	srv := countingServer(t, &called)

	d := NewDispatcher([]AlertConfig{
		{URL: srv.URL, Format: "generic", Events: []string{"swap_executed"}},
	}, nil)

	d.Dispatch(AlertEvent{Event: "swap_executed", SwapID: "swap_1"})
	d.Wait()

	if called.Load() != 1 {
		t.Errorf("expected 1 call, got %d", called.Load())
	}
}

func TestDispatchSkipsNonMatching(t *testing.T) {
	var called atomic.Int32
	srv := countingServer(t, &called)

	d := NewDispatcher([]AlertConfig{
		{URL: srv.URL, Format: "generic", Events: []string{"swap_reversed"}},
	}, nil)

	d.Dispatch(AlertEvent{Event: "swap_executed"})
	d.Wait()

	if called.Load() != 0 {
		t.Errorf("expected 0 calls for non-matching event, got %d", called.Load())
	}
}

func TestDispatchMultipleWebhooks(t *testing.T) {
	var called atomic.Int32
	srv1 := countingServer(t, &called)
	srv2 := countingServer(t, &called)

	d := NewDispatcher([]AlertConfig{
		{URL: srv1.URL, Format: "generic", Events: []string{"swap_executed"}},
		{URL: srv2.URL, Format: "slack", Events: []string{"*"}},
	}, nil)

	d.Dispatch(AlertEvent{Event: "swap_executed"})
	d.Wait()

	if called.Load() != 2 {
		t.Errorf("expected 2 calls (both webhooks match), got %d", called.Load())
	}
}

func TestAttachForwardsSwapRecords(t *testing.T) {
	got := make(chan AlertEvent, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var ev AlertEvent
		_ = json.Unmarshal(body, &ev)
		got <- ev
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	bus := events.NewBus(nil)
	d := NewDispatcher([]AlertConfig{
		{URL: srv.URL, Events: []string{"swap_reversed"}},
	}, nil)
	detach := d.Attach(bus)

	bus.Emit(model.EventSwapReversed, model.SwapRecord{
		ID:      "swap_9",
		Source:  "char_1",
		Target:  "char_2",
		Zones:   []string{"chest"},
		Garment: model.Garment{ID: "1.0201"},
		Status:  model.SwapReversed,
	})
	d.Wait()

	select {
	case ev := <-got:
		if ev.SwapID != "swap_9" || ev.Garment != "1.0201" || ev.Status != "reversed" {
			t.Errorf("unexpected alert payload: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook not called")
	}

	detach()
	if n := bus.Subscribers(model.EventSwapReversed); n != 0 {
		t.Errorf("expected detach to unsubscribe, %d left", n)
	}
}

func TestAttachForwardsCoreReady(t *testing.T) {
	got := make(chan AlertEvent, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev AlertEvent
		_ = json.NewDecoder(r.Body).Decode(&ev)
		got <- ev
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	bus := events.NewBus(nil)
	d := NewDispatcher([]AlertConfig{{URL: srv.URL, Events: []string{"*"}}}, nil)
	defer d.Attach(bus)()

	bus.Emit(model.EventCoreReady, model.ReadyEvent{PluginName: "threadshift-core-engine", Version: "1.0.0", APIVersion: "1.0.0"})
	d.Wait()

	select {
	case ev := <-got:
		if ev.Event != "core_ready" || ev.Plugin != "threadshift-core-engine" || ev.Version != "1.0.0" {
			t.Errorf("unexpected alert payload: %+v", ev)
		}
		if ev.Message != "threadshift-core-engine 1.0.0 ready (api 1.0.0)" {
			t.Errorf("unexpected message %q", ev.Message)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook not called")
	}
}

func fastRetries(t *testing.T) {
	t.Helper()
	old := retryDelay
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = old })
}

func TestRetryOnServerError(t *testing.T) {
	fastRetries(t)
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := Send(context.Background(), AlertConfig{URL: srv.URL, Format: "generic"}, AlertEvent{Event: "swap_executed"})
	if err != nil {
		t.Errorf("expected success after retries, got: %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := Send(context.Background(), AlertConfig{URL: srv.URL, Format: "generic"}, AlertEvent{Event: "swap_executed"})
	if err == nil {
		t.Error("expected error on 400, got nil")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt (no retry on 4xx), got %d", attempts.Load())
	}
}

func TestRetryOnTooManyRequests(t *testing.T) {
	fastRetries(t)
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := Send(context.Background(), AlertConfig{URL: srv.URL}, AlertEvent{Event: "swap_reversed"}); err != nil {
		t.Errorf("expected success after 429, got: %v", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
}

func TestSendGivesUpWhenContextEnds(t *testing.T) {
	old := retryDelay
	retryDelay = time.Hour
	t.Cleanup(func() { retryDelay = old })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := Send(ctx, AlertConfig{URL: srv.URL}, AlertEvent{Event: "swap_executed"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestSendHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := AlertConfig{URL: srv.URL, Headers: map[string]string{"Authorization": "Bearer x"}}
	if err := Send(context.Background(), cfg, AlertEvent{Event: "core_ready"}); err != nil {
		t.Fatal(err)
	}
	if got.Get("Authorization") != "Bearer x" || got.Get("User-Agent") != userAgent {
		t.Errorf("unexpected headers %v", got)
	}
}

func TestFormatGenericJSON(t *testing.T) {
	event := AlertEvent{
		Timestamp: "2026-01-15T14:00:00.000Z",
		Event:     "swap_executed",
		SwapID:    "swap_1",
		Zones:     []string{"chest", "waist"},
	}

	data, err := FormatPayload("generic", event)
	if err != nil {
		t.Fatal(err)
	}

	var parsed AlertEvent
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("generic format is not valid JSON: %v", err)
	}
	if parsed.SwapID != "swap_1" {
		t.Errorf("expected swap_id swap_1, got %s", parsed.SwapID)
	}
	if len(parsed.Zones) != 2 {
		t.Errorf("expected 2 zones, got %v", parsed.Zones)
	}
}

func TestFormatSlackBlockKit(t *testing.T) {
	data, err := FormatPayload("slack", AlertEvent{Event: "swap_executed", SwapID: "swap_1"})
	if err != nil {
		t.Fatal(err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("slack format is not valid JSON: %v", err)
	}

	blocks, ok := parsed["blocks"].([]any)
	if !ok || len(blocks) < 2 {
		t.Fatalf("expected at least 2 blocks, got %v", parsed["blocks"])
	}
	header, _ := blocks[0].(map[string]any)
	if header["type"] != "header" {
		t.Errorf("expected header block, got %s", header["type"])
	}
	section, _ := blocks[1].(map[string]any)
	fields, ok := section["fields"].([]any)
	if !ok || len(fields) < 4 {
		t.Errorf("expected at least 4 fields in section, got %v", fields)
	}
}

func TestFormatPagerDuty(t *testing.T) {
	data, err := FormatPayload("pagerduty", AlertEvent{Event: "swap_reversed", SwapID: "swap_1"})
	if err != nil {
		t.Fatal(err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("pagerduty format is not valid JSON: %v", err)
	}
	payload, ok := parsed["payload"].(map[string]any)
	if !ok {
		t.Fatal("expected payload object")
	}
	if payload["severity"] != "warning" {
		t.Errorf("expected severity warning for reversal, got %v", payload["severity"])
	}
	if payload["source"] != "threadshift" {
		t.Errorf("expected source threadshift, got %v", payload["source"])
	}
}

func TestNewDispatcherNilOnEmpty(t *testing.T) {
	if d := NewDispatcher(nil, nil); d != nil {
		t.Error("expected nil dispatcher for empty configs")
	}
	if d := NewDispatcher([]AlertConfig{}, nil); d != nil {
		t.Error("expected nil dispatcher for zero-length configs")
	}
}
