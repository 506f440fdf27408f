// Package core boots threadshift: it waits for the settings host, seeds the
// namespaced store, builds the mapper, validator, swap engine and reciprocal
// orchestrator, and keeps the stored swap history in step with the engine.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/threadshift/internal/alert"
	"github.com/ppiankov/threadshift/internal/audit"
	"github.com/ppiankov/threadshift/internal/bodymap"
	"github.com/ppiankov/threadshift/internal/config"
	"github.com/ppiankov/threadshift/internal/events"
	"github.com/ppiankov/threadshift/internal/model"
	"github.com/ppiankov/threadshift/internal/profile"
	"github.com/ppiankov/threadshift/internal/reciprocal"
	"github.com/ppiankov/threadshift/internal/settings"
	"github.com/ppiankov/threadshift/internal/swap"
	"github.com/ppiankov/threadshift/internal/zone"
)

// Plugin metadata reported in status and the ready event.
const (
	PluginName    = "threadshift-core-engine"
	PluginVersion = "1.0.0"
	APIVersion    = "1.0.0"
)

// ErrNotStarted is returned by operations that need a started core.
var ErrNotStarted = errors.New("core not started")

// ErrorState is stored under the error key when start fails.
type ErrorState struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Option configures a Core.
type Option func(*Core)

// WithStore injects a settings store. The core does not close injected
// stores.
func WithStore(s settings.Store) Option {
	return func(c *Core) { c.store = s }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Core) {
		if log != nil {
			c.log = log
		}
	}
}

// WithBus shares an event bus with the caller.
func WithBus(b *events.Bus) Option {
	return func(c *Core) { c.bus = b }
}

// WithProbe overrides the host readiness probe. By default the probe is
// opening the configured settings store.
func WithProbe(p Probe) Option {
	return func(c *Core) { c.probe = p }
}

// WithClock overrides time.Now for error-state timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Core) { c.now = now }
}

// Core owns the wired components.
type Core struct {
	mu      sync.Mutex
	cfg     *config.Config
	log     *zap.Logger
	now     func() time.Time
	probe   Probe
	started bool

	store     settings.Store
	ownsStore bool
	bus       *events.Bus

	mapper       *zone.Mapper
	engine       *swap.Engine
	orchestrator *reciprocal.Orchestrator
	auditLog     *audit.Log
	alerts       *alert.Dispatcher
	unsubs       []func()

	// override layers, lowest priority first
	profileTable map[string][]string
	storedTable  map[string][]string
	profileName  string
}

// New creates an unstarted core. A nil cfg means config.DefaultConfig().
func New(cfg *config.Config, opts ...Option) *Core {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	c := &Core{
		cfg:    cfg,
		log:    zap.NewNop(),
		now:    time.Now,
		mapper: zone.NewMapper(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.bus == nil {
		c.bus = events.NewBus(c.log)
	}
	return c
}

// Start runs the boot sequence. On failure it stores an ErrorState under
// the error key (when a store is reachable) and returns the error.
// Starting a started core is a no-op.
func (c *Core) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	if err := c.start(ctx); err != nil {
		c.recordError(err)
		c.mu.Unlock()
		c.log.Error("core initialization failed", zap.Error(err))
		return err
	}
	c.started = true
	c.mu.Unlock()

	c.log.Info("core initialized",
		zap.String("plugin", PluginName),
		zap.String("version", PluginVersion),
	)
	c.bus.Emit(model.EventCoreReady, model.ReadyEvent{
		PluginName: PluginName,
		Version:    PluginVersion,
		APIVersion: APIVersion,
	})
	return nil
}

func (c *Core) start(ctx context.Context) error {
	probe := c.probe
	if probe == nil {
		probe = c.openStore
	}
	if err := WaitForHost(ctx, probe, c.cfg.Startup.MaxAttempts, c.cfg.Startup.Interval); err != nil {
		return err
	}
	if c.store == nil {
		if err := c.openStore(ctx); err != nil {
			return err
		}
	}

	stored, err := c.initStorage(ctx)
	if err != nil {
		return err
	}
	if pinned := c.cfg.Settings.Pinned(); len(pinned) > 0 {
		if stored, err = c.mergeSettings(ctx, pinned); err != nil {
			return fmt.Errorf("initialize storage: %w", err)
		}
		c.log.Debug("configured settings override stored values", zap.Int("keys", len(pinned)))
	}

	if err := c.loadMappings(ctx); err != nil {
		return err
	}

	c.engine = swap.New(
		swap.WithMapper(c.mapper),
		swap.WithValidator(&bodymap.Validator{ZoneValidation: boolSetting(stored, "zoneValidation", true)}),
		swap.WithEmitter(c.bus),
		swap.WithLogger(c.log.Named("swap")),
		swap.WithSettings(c.cfg.Settings.Engine()),
	)
	c.engine.UpdateSettings(engineSettings(stored))
	c.engine.Initialize()

	c.orchestrator = reciprocal.New(
		reciprocal.WithEngine(c.engine),
		reciprocal.WithMapper(c.mapper),
		reciprocal.WithLogger(c.log.Named("reciprocal")),
	)
	c.engine.AttachReciprocator(c.orchestrator)

	if c.cfg.AuditLog != "" {
		l, err := audit.Open(c.cfg.AuditLog)
		if err != nil {
			return err
		}
		c.auditLog = l
	}

	c.unsubs = append(c.unsubs,
		c.bus.Subscribe(model.EventSwapExecuted, c.onSwapExecuted),
		c.bus.Subscribe(model.EventSwapReversed, c.onSwapReversed),
	)
	if d := alert.NewDispatcher(c.cfg.Alerts, c.log.Named("alert")); d != nil {
		c.alerts = d
		c.unsubs = append(c.unsubs, d.Attach(c.bus))
	}
	return nil
}

// openStore opens the configured backend. It doubles as the default host
// probe, so a locked or missing store is retried.
func (c *Core) openStore(ctx context.Context) error {
	if c.store != nil {
		return nil
	}
	s, err := settings.Open(c.cfg.Store.Backend, c.cfg.StorePath())
	if err != nil {
		return fmt.Errorf("open settings store: %w", err)
	}
	c.store = s
	c.ownsStore = true
	return nil
}

// initStorage seeds absent keys with defaults and returns the stored
// settings document.
func (c *Core) initStorage(ctx context.Context) (map[string]any, error) {
	seeds := []struct {
		key   string
		value any
	}{
		{settings.KeySettings, c.cfg.Settings.Document()},
		{settings.KeySwapHistory, []any{}},
		{settings.KeyZoneMappings, map[string][]string{}},
	}
	for _, s := range seeds {
		wrote, err := settings.SetDefault(ctx, c.store, s.key, s.value)
		if err != nil {
			return nil, fmt.Errorf("initialize storage: %w", err)
		}
		if wrote {
			c.log.Debug("seeded settings key", zap.String("key", s.key))
		}
	}

	stored := map[string]any{}
	if _, err := settings.GetJSON(ctx, c.store, settings.KeySettings, &stored); err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}
	return stored, nil
}

// loadMappings resolves the profile and the persisted overrides and applies
// them. Inline config mappings win over both.
func (c *Core) loadMappings(ctx context.Context) error {
	if c.cfg.Profile != "" {
		p, err := profile.Load(c.cfg.Profile)
		if err != nil {
			return err
		}
		if err := profile.Validate(p); err != nil {
			return fmt.Errorf("profile %q: %w", c.cfg.Profile, err)
		}
		c.profileTable = p.ZoneMappings
		c.profileName = p.Name
	}

	var stored map[string][]string
	if _, err := settings.GetJSON(ctx, c.store, settings.KeyZoneMappings, &stored); err != nil {
		return err
	}
	if len(stored) > 0 {
		if err := profile.Validate(&profile.Profile{Name: settings.KeyZoneMappings, ZoneMappings: stored}); err != nil {
			return fmt.Errorf("stored zone mappings: %w", err)
		}
		c.storedTable = stored
	}

	if len(c.cfg.ZoneMappings) > 0 {
		if err := profile.Validate(&profile.Profile{Name: "zone_mappings", ZoneMappings: c.cfg.ZoneMappings}); err != nil {
			return fmt.Errorf("config zone mappings: %w", err)
		}
	}

	c.applyOverrides()
	return nil
}

func (c *Core) applyOverrides() {
	merged := map[string][]string{}
	for _, layer := range []map[string][]string{c.profileTable, c.storedTable, c.cfg.ZoneMappings} {
		for t, zones := range layer {
			merged[t] = zones
		}
	}
	c.mapper.SetOverrides(merged)
	if len(merged) > 0 {
		c.log.Debug("zone mapping overrides applied", zap.Int("types", len(merged)))
	}
}

func (c *Core) recordError(cause error) {
	if c.store == nil {
		return
	}
	state := ErrorState{
		Message:   cause.Error(),
		Timestamp: c.now().UTC().Format(time.RFC3339Nano),
	}
	if err := c.store.Set(context.Background(), settings.KeyError, state); err != nil {
		c.log.Warn("failed to store error state", zap.Error(err))
	}
}

// Close detaches listeners, waits for in-flight alerts, shuts the engine
// down and releases the audit log and any store the core opened.
func (c *Core) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, u := range c.unsubs {
		u()
	}
	c.unsubs = nil
	if c.alerts != nil {
		c.alerts.Wait()
	}
	if c.engine != nil {
		c.engine.Shutdown()
	}

	var errs []error
	if c.auditLog != nil {
		errs = append(errs, c.auditLog.Close())
		c.auditLog = nil
	}
	if c.ownsStore && c.store != nil {
		errs = append(errs, c.store.Close())
		c.store = nil
	}
	c.started = false
	return errors.Join(errs...)
}

// Engine returns the swap engine, nil before Start.
func (c *Core) Engine() *swap.Engine { return c.engine }

// Orchestrator returns the reciprocal orchestrator, nil before Start.
func (c *Core) Orchestrator() *reciprocal.Orchestrator { return c.orchestrator }

// Mapper returns the zone lookup table.
func (c *Core) Mapper() *zone.Mapper { return c.mapper }

// Bus returns the event bus.
func (c *Core) Bus() *events.Bus { return c.bus }

// Store returns the settings store, nil before Start.
func (c *Core) Store() settings.Store { return c.store }

// Config returns the configuration the core was built with.
func (c *Core) Config() *config.Config { return c.cfg }

func boolSetting(doc map[string]any, key string, def bool) bool {
	if b, ok := doc[key].(bool); ok {
		return b
	}
	return def
}

// engineSettings picks the engine keys out of a stored settings document.
func engineSettings(doc map[string]any) map[string]any {
	out := map[string]any{}
	for _, k := range []string{"bidirectionalSwaps", "autoValidation", "historyLimit", "enableDebugLogging"} {
		if v, ok := doc[k]; ok {
			out[k] = v
		}
	}
	return out
}
