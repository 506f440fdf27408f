package ratelimit

import (
	"sync"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestHasLimits(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"empty", Config{}, false},
		{"configured", Config{"Swap": {MaxRequests: 10, Window: time.Minute}}, true},
		{"zero max", Config{"Swap": {MaxRequests: 0, Window: time.Minute}}, false},
		{"zero window", Config{"Swap": {MaxRequests: 10}}, false},
		{"nil entry", Config{"Swap": nil}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.HasLimits(); got != tt.want {
				t.Errorf("HasLimits() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateRejectsNegative(t *testing.T) {
	if err := (Config{"Swap": {MaxRequests: -1, Window: time.Minute}}).Validate(); err == nil {
		t.Error("expected error for negative max_requests")
	}
	if err := (Config{"Swap": {MaxRequests: 1, Window: time.Minute}}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAllowWithinLimit(t *testing.T) {
	c := &clock{t: time.Unix(1000, 0)}
	l := New(Config{"Swap": {MaxRequests: 2, Window: time.Minute}}, c.now)

	for i := 0; i < 2; i++ {
		if r := l.Allow("Swap"); r.Exceeded {
			t.Fatalf("call %d: unexpected deny: %s", i, r.Reason)
		}
	}
	r := l.Allow("Swap")
	if !r.Exceeded {
		t.Fatal("expected third call to exceed the limit")
	}
	if r.Current != 2 || r.Limit != 2 {
		t.Errorf("expected 2/2, got %d/%d", r.Current, r.Limit)
	}
}

func TestAllowResetsAfterWindow(t *testing.T) {
	c := &clock{t: time.Unix(1000, 0)}
	l := New(Config{"Swap": {MaxRequests: 1, Window: time.Minute}}, c.now)

	l.Allow("Swap")
	if !l.Allow("Swap").Exceeded {
		t.Fatal("expected deny within window")
	}
	c.t = c.t.Add(time.Minute)
	if r := l.Allow("Swap"); r.Exceeded {
		t.Errorf("expected allow after window reset: %s", r.Reason)
	}
}

func TestAllowWildcardAndSeparateKeys(t *testing.T) {
	c := &clock{t: time.Unix(1000, 0)}
	l := New(Config{"*": {MaxRequests: 1, Window: time.Minute}}, c.now)

	if l.Allow("Swap").Exceeded || l.Allow("Reverse").Exceeded {
		t.Fatal("each key gets its own window")
	}
	if !l.Allow("Swap").Exceeded {
		t.Error("expected wildcard limit to apply to Swap")
	}
}

func TestAllowUnlimitedKey(t *testing.T) {
	l := New(Config{"Swap": {MaxRequests: 1, Window: time.Minute}}, nil)
	for i := 0; i < 5; i++ {
		if l.Allow("Status").Exceeded {
			t.Fatal("keys without a limit always pass")
		}
	}
}

func TestAllowConcurrent(t *testing.T) {
	l := New(Config{"Swap": {MaxRequests: 50, Window: time.Hour}}, nil)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !l.Allow("Swap").Exceeded {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if allowed != 50 {
		t.Errorf("expected exactly 50 allowed, got %d", allowed)
	}
}
