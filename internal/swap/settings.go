package swap

import (
	"encoding/json"
	"math"

	"go.uber.org/zap"
)

// DefaultHistoryLimit bounds the swap history when no limit is configured.
const DefaultHistoryLimit = 100

// Settings are the engine toggles.
type Settings struct {
	BidirectionalSwaps bool `json:"bidirectionalSwaps" yaml:"bidirectional_swaps"`
	AutoValidation     bool `json:"autoValidation" yaml:"auto_validation"`
	HistoryLimit       int  `json:"historyLimit" yaml:"history_limit"`
	DebugMode          bool `json:"debugMode" yaml:"debug_mode"`
}

// DefaultSettings returns bidirectional swaps and auto-validation on, a
// history of 100 records and debug logging off.
func DefaultSettings() Settings {
	return Settings{
		BidirectionalSwaps: true,
		AutoValidation:     true,
		HistoryLimit:       DefaultHistoryLimit,
	}
}

func (s Settings) normalized() Settings {
	if s.HistoryLimit <= 0 {
		s.HistoryLimit = DefaultHistoryLimit
	}
	return s
}

// Settings returns the current settings.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// UpdateSettings merges recognized keys from partial into the current
// settings and returns the result. Unknown keys and values of the wrong type
// are ignored; a non-positive history limit is ignored. Lowering the limit
// trims the history immediately.
//
// Recognized keys: bidirectionalSwaps, autoValidation, historyLimit,
// debugMode (alias enableDebugLogging).
func (e *Engine) UpdateSettings(partial map[string]any) Settings {
	e.mu.Lock()
	defer e.mu.Unlock()

	for key, val := range partial {
		switch key {
		case "bidirectionalSwaps":
			if b, ok := val.(bool); ok {
				e.settings.BidirectionalSwaps = b
			}
		case "autoValidation":
			if b, ok := val.(bool); ok {
				e.settings.AutoValidation = b
			}
		case "debugMode", "enableDebugLogging":
			if b, ok := val.(bool); ok {
				e.settings.DebugMode = b
			}
		case "historyLimit":
			if n, ok := intValue(val); ok && n > 0 {
				e.settings.HistoryLimit = n
				e.trimHistoryLocked()
			}
		default:
			e.log.Debug("ignoring unknown setting", zap.String("key", key))
		}
	}
	return e.settings
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}
