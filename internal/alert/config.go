// Package alert posts swap notifications to webhook endpoints.
package alert

// AlertConfig defines a webhook alert destination.
type AlertConfig struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack", "pagerduty"
	Events  []string          `yaml:"events"  json:"events"` // ["swap_executed", "swap_reversed", "core_ready"]
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// AlertEvent is the payload sent to webhook endpoints.
type AlertEvent struct {
	Timestamp string   `json:"timestamp"`
	Event     string   `json:"event"`
	SwapID    string   `json:"swap_id,omitempty"`
	Source    string   `json:"source,omitempty"`
	Target    string   `json:"target,omitempty"`
	Garment   string   `json:"garment,omitempty"`
	Zones     []string `json:"zones,omitempty"`
	Skipped   []string `json:"skipped_zones,omitempty"`
	Status    string   `json:"status,omitempty"`
	Plugin    string   `json:"plugin,omitempty"`
	Version   string   `json:"version,omitempty"`
	Message   string   `json:"message,omitempty"`
}
