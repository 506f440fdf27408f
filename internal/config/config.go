// Package config loads threadshift configuration: built-in defaults, then
// an optional YAML file, then THREADSHIFT_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/threadshift/internal/alert"
	"github.com/ppiankov/threadshift/internal/ratelimit"
	"github.com/ppiankov/threadshift/internal/swap"
)

// Settings are the persisted engine toggles.
type Settings struct {
	BidirectionalSwaps bool `yaml:"bidirectional_swaps"`
	AutoValidation     bool `yaml:"auto_validation"`
	HistoryLimit       int  `yaml:"history_limit"`
	EnableDebugLogging bool `yaml:"enable_debug_logging"`
	ZoneValidation     bool `yaml:"zone_validation"`

	pinned []string
}

// settingsKeys maps YAML keys to settings document keys.
var settingsKeys = map[string]string{
	"bidirectional_swaps":  "bidirectionalSwaps",
	"auto_validation":      "autoValidation",
	"history_limit":        "historyLimit",
	"enable_debug_logging": "enableDebugLogging",
	"zone_validation":      "zoneValidation",
}

// Pin marks document keys as explicitly set by the file or environment.
// Pinned keys override the stored settings document when the core starts.
func (s *Settings) Pin(keys ...string) {
	for _, k := range keys {
		if !slices.Contains(s.pinned, k) {
			s.pinned = append(s.pinned, k)
		}
	}
}

// Pinned returns the pinned subset of Document.
func (s Settings) Pinned() map[string]any {
	doc := s.Document()
	out := make(map[string]any, len(s.pinned))
	for _, k := range s.pinned {
		if v, ok := doc[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Engine converts to the swap engine's settings.
func (s Settings) Engine() swap.Settings {
	return swap.Settings{
		BidirectionalSwaps: s.BidirectionalSwaps,
		AutoValidation:     s.AutoValidation,
		HistoryLimit:       s.HistoryLimit,
		DebugMode:          s.EnableDebugLogging,
	}
}

// Document returns the settings as stored under the settings key.
func (s Settings) Document() map[string]any {
	return map[string]any{
		"bidirectionalSwaps": s.BidirectionalSwaps,
		"autoValidation":     s.AutoValidation,
		"historyLimit":       s.HistoryLimit,
		"enableDebugLogging": s.EnableDebugLogging,
		"zoneValidation":     s.ZoneValidation,
	}
}

// StoreConfig selects the settings store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"` // sqlite | file | memory
	Path    string `yaml:"path"`
}

// Startup bounds the wait for the host before the core starts.
type Startup struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Interval    time.Duration `yaml:"interval"`
}

// Config holds all configurable parameters.
type Config struct {
	Settings     Settings            `yaml:"settings"`
	Store        StoreConfig         `yaml:"store"`
	AuditLog     string              `yaml:"audit_log"`
	Profile      string              `yaml:"profile"`
	ZoneMappings map[string][]string `yaml:"zone_mappings"`
	Startup      Startup             `yaml:"startup"`
	Alerts       []alert.AlertConfig `yaml:"alerts"`
	RateLimits   ratelimit.Config    `yaml:"rate_limits"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			BidirectionalSwaps: true,
			AutoValidation:     true,
			HistoryLimit:       swap.DefaultHistoryLimit,
			ZoneValidation:     true,
		},
		Store: StoreConfig{Backend: "sqlite"},
		Startup: Startup{
			MaxAttempts: 50,
			Interval:    100 * time.Millisecond,
		},
	}
}

// Dir returns ~/.threadshift, or a temp-dir fallback.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "threadshift")
	}
	return filepath.Join(home, ".threadshift")
}

// DefaultPath returns ~/.threadshift/config.yaml.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load loads configuration from a YAML file and applies environment
// overrides. Empty path falls back to ~/.threadshift/config.yaml.
// Missing file means defaults. Invalid YAML or values return an error.
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads the YAML file only, without environment overrides.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	var present struct {
		Settings map[string]yaml.Node `yaml:"settings"`
	}
	if err := yaml.Unmarshal(data, &present); err == nil {
		for k := range present.Settings {
			if key, ok := settingsKeys[k]; ok {
				cfg.Settings.Pin(key)
			}
		}
	}
	return cfg, nil
}

// Validate rejects values the core cannot run with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Store.Backend) {
	case "sqlite", "file", "memory":
	default:
		return fmt.Errorf("store.backend %q: expected sqlite, file, or memory", c.Store.Backend)
	}
	if c.Settings.HistoryLimit <= 0 {
		return fmt.Errorf("settings.history_limit must be positive, got %d", c.Settings.HistoryLimit)
	}
	if c.Startup.MaxAttempts <= 0 {
		return fmt.Errorf("startup.max_attempts must be positive, got %d", c.Startup.MaxAttempts)
	}
	if c.Startup.Interval < 0 {
		return fmt.Errorf("startup.interval must not be negative")
	}
	if err := c.RateLimits.Validate(); err != nil {
		return err
	}
	for i, a := range c.Alerts {
		if a.URL == "" {
			return fmt.Errorf("alerts[%d]: url is required", i)
		}
	}
	return nil
}

// StorePath returns the configured store path or the backend's default.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	switch strings.ToLower(c.Store.Backend) {
	case "file":
		return filepath.Join(Dir(), "settings.json")
	default:
		return filepath.Join(Dir(), "threadshift.db")
	}
}

// DefaultConfigYAML returns a commented YAML string for threadshift init.
func DefaultConfigYAML() string {
	return `# threadshift configuration
# Generated by: threadshift init
#
# Precedence (lowest to highest):
#   1. built-in defaults
#   2. this file
#   3. THREADSHIFT_* environment variables

# Engine toggles. Persisted to the settings store on first start. Keys set
# here or through THREADSHIFT_* variables override the stored values on
# every start; keys left out keep whatever was stored at runtime.
settings:
  # also apply the mirror direction after a swap (target -> source)
  bidirectional_swaps: true
  # validate both body maps before any swap
  auto_validation: true
  # oldest swap records are dropped beyond this many
  history_limit: 100
  enable_debug_logging: false
  # reject forbidden zones and swaps where the source carries none of the zones
  zone_validation: true

# Settings store. backend: sqlite | file | memory
# path defaults to ~/.threadshift/threadshift.db (sqlite) or settings.json (file)
store:
  backend: sqlite

# Append-only hash-chained swap log (JSONL). Empty disables it.
audit_log: ""

# Garment -> zone mapping profile: default | swimwear | formalwear | <name in ~/.threadshift/profiles>
profile: ""

# Inline garment -> zone overrides, layered over the profile and the stored mappings.
# zone_mappings:
#   bra: [chest]
#   cape: [neck]

# Host readiness wait before start
startup:
  max_attempts: 50
  interval: 100ms

# Webhook alerts. events: swap_executed | swap_reversed | core_ready | "*"
# format: generic | slack | pagerduty
# alerts:
#   - url: https://hooks.example.com/threadshift
#     format: generic
#     events: [swap_executed, swap_reversed]

# Per-RPC call limits for threadshift serve. Keys are RPC names or "*".
# rate_limits:
#   Swap:
#     max_requests: 60
#     window: 1m
`
}
