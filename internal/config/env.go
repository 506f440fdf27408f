package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverrides holds THREADSHIFT_* variables. Unset variables stay nil
// and leave the file value alone.
type envOverrides struct {
	Bidirectional  *bool   `env:"THREADSHIFT_BIDIRECTIONAL"`
	AutoValidation *bool   `env:"THREADSHIFT_AUTO_VALIDATION"`
	HistoryLimit   *int    `env:"THREADSHIFT_HISTORY_LIMIT"`
	Debug          *bool   `env:"THREADSHIFT_DEBUG"`
	Store          *string `env:"THREADSHIFT_STORE"`
	StorePath      *string `env:"THREADSHIFT_STORE_PATH"`
	AuditLog       *string `env:"THREADSHIFT_AUDIT_LOG"`
	Profile        *string `env:"THREADSHIFT_PROFILE"`
}

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.Bidirectional != nil {
		cfg.Settings.BidirectionalSwaps = *o.Bidirectional
		cfg.Settings.Pin("bidirectionalSwaps")
	}
	if o.AutoValidation != nil {
		cfg.Settings.AutoValidation = *o.AutoValidation
		cfg.Settings.Pin("autoValidation")
	}
	if o.HistoryLimit != nil {
		cfg.Settings.HistoryLimit = *o.HistoryLimit
		cfg.Settings.Pin("historyLimit")
	}
	if o.Debug != nil {
		cfg.Settings.EnableDebugLogging = *o.Debug
		cfg.Settings.Pin("enableDebugLogging")
	}
	if o.Store != nil {
		cfg.Store.Backend = *o.Store
	}
	if o.StorePath != nil {
		cfg.Store.Path = *o.StorePath
	}
	if o.AuditLog != nil {
		cfg.AuditLog = *o.AuditLog
	}
	if o.Profile != nil {
		cfg.Profile = *o.Profile
	}
	return nil
}
