package alert

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/threadshift/internal/model"
)

// Subscriber is the event surface a dispatcher listens on.
type Subscriber interface {
	Subscribe(name string, h func(name string, payload any)) func()
}

// Dispatcher fans out alert events to matching webhook configurations.
type Dispatcher struct {
	configs []AlertConfig
	log     *zap.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher from webhook configurations.
// Returns nil if configs is empty (callers should nil-check).
func NewDispatcher(configs []AlertConfig, log *zap.Logger) *Dispatcher {
	if len(configs) == 0 {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{configs: configs, log: log}
}

// Dispatch sends the event to all webhooks whose Events list matches.
// Sends run in goroutines and do not block the caller; Wait blocks until
// they finish.
func (d *Dispatcher) Dispatch(event AlertEvent) {
	for _, cfg := range d.configs {
		if !matches(cfg.Events, event.Event) {
			continue
		}
		d.wg.Add(1)
		go func(cfg AlertConfig) {
			defer d.wg.Done()
			if err := Send(context.Background(), cfg, event); err != nil {
				d.log.Warn("webhook alert failed",
					zap.String("url", cfg.URL),
					zap.String("event", event.Event),
					zap.Error(err))
			}
		}(cfg)
	}
}

// Wait blocks until all in-flight sends have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Attach subscribes the dispatcher to swap and lifecycle events and
// returns a function that detaches it.
func (d *Dispatcher) Attach(bus Subscriber) func() {
	var unsubs []func()
	for _, name := range []string{model.EventSwapExecuted, model.EventSwapReversed, model.EventCoreReady} {
		unsubs = append(unsubs, bus.Subscribe(name, d.handle))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (d *Dispatcher) handle(name string, payload any) {
	ev := AlertEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Event:     name,
	}
	switch p := payload.(type) {
	case model.SwapRecord:
		ev.SwapID = p.ID
		ev.Source = p.Source
		ev.Target = p.Target
		ev.Garment = p.Garment.ID
		ev.Zones = p.Zones
		ev.Skipped = p.SkippedZones
		ev.Status = string(p.Status)
	case model.ReadyEvent:
		ev.Plugin = p.PluginName
		ev.Version = p.Version
		ev.Message = fmt.Sprintf("%s %s ready (api %s)", p.PluginName, p.Version, p.APIVersion)
	default:
		if payload != nil {
			ev.Message = fmt.Sprint(payload)
		}
	}
	d.Dispatch(ev)
}

func matches(events []string, event string) bool {
	return slices.Contains(events, event) || slices.Contains(events, "*")
}
