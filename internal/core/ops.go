package core

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"go.uber.org/zap"

	"github.com/ppiankov/threadshift/internal/audit"
	"github.com/ppiankov/threadshift/internal/bodymap"
	"github.com/ppiankov/threadshift/internal/model"
	"github.com/ppiankov/threadshift/internal/profile"
	"github.com/ppiankov/threadshift/internal/settings"
	"github.com/ppiankov/threadshift/internal/swap"
)

// onSwapExecuted appends the record to the stored history, dropping the
// oldest entries beyond the engine's history limit.
func (c *Core) onSwapExecuted(_ string, payload any) {
	rec, ok := payload.(model.SwapRecord)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil || c.engine == nil {
		return
	}

	limit := c.engine.Settings().HistoryLimit
	err := c.store.Update(context.Background(), settings.KeySwapHistory, func(current json.RawMessage) (any, error) {
		history, err := decodeHistory(current)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		history = append(history, raw)
		if len(history) > limit {
			history = history[len(history)-limit:]
		}
		return history, nil
	})
	if err != nil {
		c.log.Warn("failed to persist swap", zap.String("swap_id", rec.ID), zap.Error(err))
	}

	c.recordAudit(audit.ActionExecuted, rec)
}

// onSwapReversed rewrites the stored copy of a reversed record in place.
func (c *Core) onSwapReversed(_ string, payload any) {
	rec, ok := payload.(model.SwapRecord)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return
	}

	err := c.store.Update(context.Background(), settings.KeySwapHistory, func(current json.RawMessage) (any, error) {
		history, err := decodeHistory(current)
		if err != nil {
			return nil, err
		}
		for i, raw := range history {
			var head struct {
				ID string `json:"id"`
			}
			if json.Unmarshal(raw, &head) != nil || head.ID != rec.ID {
				continue
			}
			updated, err := json.Marshal(rec)
			if err != nil {
				return nil, err
			}
			history[i] = updated
		}
		return history, nil
	})
	if err != nil {
		c.log.Warn("failed to persist reversal", zap.String("swap_id", rec.ID), zap.Error(err))
	}

	c.recordAudit(audit.ActionReversed, rec)
}

func (c *Core) recordAudit(action string, rec model.SwapRecord) {
	if c.auditLog == nil {
		return
	}
	if err := c.auditLog.RecordSwap(action, rec); err != nil {
		c.log.Warn("failed to write audit entry", zap.String("swap_id", rec.ID), zap.Error(err))
	}
}

func decodeHistory(raw json.RawMessage) ([]json.RawMessage, error) {
	history := []json.RawMessage{}
	if raw == nil {
		return history, nil
	}
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("decode %s: %w", settings.KeySwapHistory, err)
	}
	return history, nil
}

// StoredHistory returns the persisted swap history, oldest first.
func (c *Core) StoredHistory(ctx context.Context) ([]model.SwapRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return nil, ErrNotStarted
	}

	var history []model.SwapRecord
	if _, err := settings.GetJSON(ctx, c.store, settings.KeySwapHistory, &history); err != nil {
		return nil, err
	}
	if history == nil {
		history = []model.SwapRecord{}
	}
	return history, nil
}

// ClearHistory empties both the engine's and the stored history.
func (c *Core) ClearHistory(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil || c.engine == nil {
		return ErrNotStarted
	}
	c.engine.ClearHistory()
	return c.store.Set(ctx, settings.KeySwapHistory, []any{})
}

// UpdateSettings merges partial into the stored settings document and the
// running engine. zoneValidation swaps in a fresh validator. Returns the
// stored document after the merge.
func (c *Core) UpdateSettings(ctx context.Context, partial map[string]any) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil || c.engine == nil {
		return nil, ErrNotStarted
	}

	doc, err := c.mergeSettings(ctx, partial)
	if err != nil {
		return nil, err
	}

	c.engine.UpdateSettings(engineSettings(partial))
	if v, ok := partial["zoneValidation"].(bool); ok {
		c.engine.AttachValidator(&bodymap.Validator{ZoneValidation: v})
	}
	return doc, nil
}

// mergeSettings copies partial over the stored settings document and
// returns the result. The caller holds c.mu.
func (c *Core) mergeSettings(ctx context.Context, partial map[string]any) (map[string]any, error) {
	var doc map[string]any
	err := c.store.Update(ctx, settings.KeySettings, func(current json.RawMessage) (any, error) {
		doc = map[string]any{}
		if current != nil {
			if err := json.Unmarshal(current, &doc); err != nil {
				return nil, fmt.Errorf("decode %s: %w", settings.KeySettings, err)
			}
		}
		maps.Copy(doc, partial)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// SetZoneMappings validates and persists an override table, then re-applies
// the override layers. An empty table clears the persisted layer.
func (c *Core) SetZoneMappings(ctx context.Context, mappings map[string][]string) error {
	if len(mappings) > 0 {
		if err := profile.Validate(&profile.Profile{Name: settings.KeyZoneMappings, ZoneMappings: mappings}); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return ErrNotStarted
	}
	if mappings == nil {
		mappings = map[string][]string{}
	}
	if err := c.store.Set(ctx, settings.KeyZoneMappings, mappings); err != nil {
		return err
	}
	c.storedTable = mappings
	c.applyOverrides()
	return nil
}

// ApplyProfile replaces the profile layer of the override table.
func (c *Core) ApplyProfile(p *profile.Profile) error {
	if err := profile.Validate(p); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.profileTable = p.ZoneMappings
	c.profileName = p.Name
	c.applyOverrides()
	c.log.Info("profile applied", zap.String("profile", p.Name))
	return nil
}

// StorageStatus describes the namespaced store.
type StorageStatus struct {
	Backend   string   `json:"backend"`
	Namespace string   `json:"namespace"`
	Keys      []string `json:"keys"`
}

// Status reports plugin metadata, attached components, stored settings and
// the storage namespace.
type Status struct {
	PluginName        string         `json:"pluginName"`
	Version           string         `json:"version"`
	APIVersion        string         `json:"apiVersion"`
	Initialized       bool           `json:"initialized"`
	SwapEngine        bool           `json:"swapEngine"`
	Mapper            bool           `json:"mapper"`
	Validator         bool           `json:"validator"`
	ReciprocalHandler bool           `json:"reciprocalHandler"`
	Profile           string         `json:"profile,omitempty"`
	Overrides         int            `json:"overrides"`
	Settings          map[string]any `json:"settings"`
	Storage           StorageStatus  `json:"storage"`
	Engine            *swap.Status   `json:"engine,omitempty"`
	Error             *ErrorState    `json:"error,omitempty"`
}

// Status returns a snapshot. Store read failures leave the affected fields
// empty.
func (c *Core) Status(ctx context.Context) Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		PluginName:        PluginName,
		Version:           PluginVersion,
		APIVersion:        APIVersion,
		Initialized:       c.started,
		SwapEngine:        c.engine != nil,
		Mapper:            c.mapper != nil,
		Validator:         c.engine != nil && c.engine.Status().HasValidator,
		ReciprocalHandler: c.orchestrator != nil,
		Profile:           c.profileName,
		Storage: StorageStatus{
			Backend:   c.cfg.Store.Backend,
			Namespace: settings.Namespace,
			Keys:      []string{},
		},
	}
	if c.mapper != nil {
		st.Overrides = len(c.mapper.Overrides())
	}
	if c.engine != nil {
		es := c.engine.Status()
		st.Engine = &es
	}
	if c.store == nil {
		return st
	}

	if keys, err := c.store.Keys(ctx); err == nil {
		st.Storage.Keys = keys
	}
	var doc map[string]any
	if ok, err := settings.GetJSON(ctx, c.store, settings.KeySettings, &doc); ok && err == nil {
		st.Settings = doc
	}
	var errState ErrorState
	if ok, err := settings.GetJSON(ctx, c.store, settings.KeyError, &errState); ok && err == nil {
		st.Error = &errState
	}
	return st
}
