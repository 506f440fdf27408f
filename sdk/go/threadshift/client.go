package threadshift

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/threadshift/internal/bodymap"
	"github.com/ppiankov/threadshift/internal/config"
	"github.com/ppiankov/threadshift/internal/core"
	"github.com/ppiankov/threadshift/internal/profile"
)

// Client is an in-process swap engine. Safe for concurrent use.
type Client struct {
	core *core.Core
}

// New starts an engine with the given options.
func New(opts ...Option) (*Client, error) {
	var cfg clientConfig
	for _, o := range opts {
		o(&cfg)
	}

	conf := config.DefaultConfig()
	if cfg.configPath != "" {
		loaded, err := config.Load(cfg.configPath)
		if err != nil {
			return nil, fmt.Errorf("threadshift: %w", err)
		}
		conf = loaded
	}
	if cfg.backend != "" {
		conf.Store.Backend = cfg.backend
		conf.Store.Path = cfg.storePath
	}
	if cfg.auditLog != "" {
		conf.AuditLog = cfg.auditLog
	}
	if cfg.profileName != "" {
		conf.Profile = cfg.profileName
	}

	log := cfg.logger
	if log == nil {
		log = zap.NewNop()
	}

	c := core.New(conf, core.WithLogger(log))
	if err := c.Start(context.Background()); err != nil {
		c.Close()
		return nil, fmt.Errorf("threadshift: %w", err)
	}
	return &Client{core: c}, nil
}

// Validate checks a body map against the full schema.
func (c *Client) Validate(body BodyMap) ValidationResult {
	return bodymap.Validate(body)
}

// ValidatePartial checks a body map without requiring every zone.
func (c *Client) ValidatePartial(body BodyMap) ValidationResult {
	return bodymap.ValidatePartial(body)
}

// Swap moves the zones garmentRef covers from source onto target and
// returns the swap id. Both characters are updated in place.
func (c *Client) Swap(ctx context.Context, source, target *Character, garmentRef string) (string, error) {
	return c.core.Engine().PerformSwap(ctx, source, target, garmentRef)
}

// Reverse restores both characters of an active swap.
func (c *Client) Reverse(id string) error {
	return c.core.Engine().ReverseSwap(id)
}

// Participants returns the characters an active swap holds. Reverse
// restores these same values in place.
func (c *Client) Participants(id string) (source, target *Character, ok bool) {
	return c.core.Engine().Participants(id)
}

// Record returns a swap by id.
func (c *Client) Record(id string) (SwapRecord, bool) {
	return c.core.Engine().Swap(id)
}

// History returns the swaps of this engine, oldest first.
func (c *Client) History() []SwapRecord {
	return c.core.Engine().History()
}

// StoredHistory returns the persisted history, which outlives the process
// with a persistent store.
func (c *Client) StoredHistory(ctx context.Context) ([]SwapRecord, error) {
	return c.core.StoredHistory(ctx)
}

// Preview reports what a reciprocal swap of a and b would exchange.
func (c *Client) Preview(a, b BodyMap, garments []string) (Preview, error) {
	return c.core.Orchestrator().Preview(a, b, garments)
}

// Reciprocal exchanges every zone the worn garments cover between a and b.
// The inputs are not modified.
func (c *Client) Reciprocal(a, b BodyMap, garments []string) (ReciprocalResult, error) {
	return c.core.Orchestrator().Swap(a, b, garments)
}

// Batch runs Reciprocal for each pair independently.
func (c *Client) Batch(pairs []Pair) []BatchResult {
	return c.core.Orchestrator().Batch(pairs)
}

// ZonesFor returns the zones a garment type covers under the active
// profile and overrides.
func (c *Client) ZonesFor(garmentType string) []string {
	return c.core.Mapper().ZonesForGarmentType(garmentType)
}

// SetZoneMappings persists an override table and applies it.
func (c *Client) SetZoneMappings(ctx context.Context, mappings map[string][]string) error {
	return c.core.SetZoneMappings(ctx, mappings)
}

// ApplyProfile loads a named profile and applies it.
func (c *Client) ApplyProfile(name string) error {
	p, err := profile.Load(name)
	if err != nil {
		return err
	}
	return c.core.ApplyProfile(p)
}

// UpdateSettings merges partial into the stored settings.
func (c *Client) UpdateSettings(ctx context.Context, partial map[string]any) (map[string]any, error) {
	return c.core.UpdateSettings(ctx, partial)
}

// Status returns a snapshot of engine state.
func (c *Client) Status(ctx context.Context) Status {
	return c.core.Status(ctx)
}

// Close stops the engine and releases the store.
func (c *Client) Close() error {
	return c.core.Close()
}
