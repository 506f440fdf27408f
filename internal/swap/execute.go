package swap

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/threadshift/internal/bodymap"
	"github.com/ppiankov/threadshift/internal/garment"
	"github.com/ppiankov/threadshift/internal/model"
)

var swapSeq atomic.Uint64

// newSwapID combines a timestamp, a process-wide sequence and a random
// suffix. The sequence alone keeps ids unique within one millisecond.
func (e *Engine) newSwapID() string {
	return fmt.Sprintf("swap_%d_%d_%s", e.now().UnixMilli(), swapSeq.Add(1), uuid.NewString()[:8])
}

// zoneValue is one side's record for a zone before a swap touched it.
type zoneValue struct {
	value   any
	present bool
}

type snapshot struct {
	source map[string]zoneValue
	target map[string]zoneValue
}

func capture(b model.BodyMap, zones []string) map[string]zoneValue {
	out := make(map[string]zoneValue, len(zones))
	for _, z := range zones {
		v, ok := b[z]
		out[z] = zoneValue{value: bodymap.DeepCopy(v), present: ok}
	}
	return out
}

func restore(b model.BodyMap, z string, zv zoneValue) {
	if zv.present {
		b[z] = bodymap.DeepCopy(zv.value)
	} else {
		delete(b, z)
	}
}

func checkCharacter(role string, c *model.Character) error {
	if c == nil || c.Body == nil {
		return fmt.Errorf("%w: %s has no body map", ErrInvalidCharacter, role)
	}
	return nil
}

// PerformSwap resolves garmentRef to the zones it covers and swaps them from
// source onto target. With auto-validation on and a validator attached, the
// pair is checked first. With bidirectional swaps on and a reciprocal handler
// attached, the mirror step runs before the swap becomes visible to
// ReverseSwap or listeners; its failure is logged and does not fail the
// swap. Returns the swap id.
func (e *Engine) PerformSwap(ctx context.Context, source, target *model.Character, garmentRef string) (string, error) {
	e.Initialize()

	if err := checkCharacter("source", source); err != nil {
		return "", err
	}
	if err := checkCharacter("target", target); err != nil {
		return "", err
	}

	g, err := garment.ParseRef(garmentRef)
	if err != nil {
		e.log.Warn("garment not resolved", zap.String("garment", garmentRef), zap.Error(err))
		return "", err
	}

	e.mu.Lock()
	lookup, validator, reciprocator, settings := e.lookup, e.validator, e.reciprocator, e.settings
	e.mu.Unlock()

	zones := lookup.ZonesForGarmentType(string(g.Type))
	if len(zones) == 0 {
		e.log.Warn("no zones for garment", zap.String("garment", garmentRef), zap.String("type", string(g.Type)))
		return "", fmt.Errorf("%w: %s (%s)", ErrNoZones, garmentRef, g.Type)
	}

	if settings.AutoValidation && validator != nil {
		if err := validator.ValidateSwap(source.Body, target.Body, zones); err != nil {
			e.log.Warn("swap validation failed", zap.String("garment", garmentRef), zap.Error(err))
			return "", fmt.Errorf("%w: %w", ErrValidationFailed, err)
		}
	}

	ent, displaced, err := e.apply(source, target, zones, g)
	if err != nil {
		return "", err
	}

	if settings.BidirectionalSwaps && reciprocator != nil {
		req := ReciprocalRequest{
			SwapID:    ent.record.ID,
			Source:    source,
			Target:    target,
			Zones:     ent.applied,
			Displaced: displaced,
			Garment:   g,
		}
		if err := reciprocator.HandleReciprocal(ctx, req); err != nil {
			e.log.Warn("reciprocal step failed", zap.String("swap_id", ent.record.ID), zap.Error(err))
		}
	}
	return e.publish(ent), nil
}

// ExecuteSwap is the atomic unit of a swap: it records the swap and copies
// every zone in zones that source carries onto target, each as a whole
// subtree. Zones source lacks are recorded as skipped.
func (e *Engine) ExecuteSwap(source, target *model.Character, zones []string, g model.Garment) (string, error) {
	if err := checkCharacter("source", source); err != nil {
		return "", err
	}
	if err := checkCharacter("target", target); err != nil {
		return "", err
	}
	ent, _, err := e.apply(source, target, zones, g)
	if err != nil {
		return "", err
	}
	return e.publish(ent), nil
}

// apply copies the zones onto target and builds the unpublished entry
// along with the target values it displaced.
func (e *Engine) apply(source, target *model.Character, zones []string, g model.Garment) (*entry, map[string]any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return nil, nil, ErrNotInitialized
	}

	id := e.newSwapID()
	before := snapshot{
		source: capture(source.Body, zones),
		target: capture(target.Body, zones),
	}

	var applied, skipped []string
	displaced := make(map[string]any)
	for _, z := range zones {
		if !bodymap.HasZone(source.Body, z) {
			skipped = append(skipped, z)
			continue
		}
		if tv := before.target[z]; tv.present {
			displaced[z] = bodymap.DeepCopy(tv.value)
		}
		target.Body[z] = bodymap.DeepCopy(source.Body[z])
		applied = append(applied, z)
		if e.settings.DebugMode {
			e.log.Debug("zone swapped",
				zap.String("swap_id", id),
				zap.String("zone", z),
				zap.String("source", source.ID),
				zap.String("target", target.ID))
		}
	}

	rec := &model.SwapRecord{
		ID:           id,
		Source:       source.ID,
		Target:       target.ID,
		Zones:        append([]string(nil), zones...),
		SkippedZones: skipped,
		Garment:      g,
		Timestamp:    e.now(),
		Status:       model.SwapActive,
	}
	return &entry{record: rec, source: source, target: target, before: before, applied: applied}, displaced, nil
}

// publish makes the swap active, appends it to history and emits its
// events. Returns the swap id.
func (e *Engine) publish(ent *entry) string {
	rec := ent.record
	e.mu.Lock()
	e.active[rec.ID] = ent
	e.history = append(e.history, rec)
	e.trimHistoryLocked()
	snap := rec.Clone()
	debug := e.settings.DebugMode
	e.mu.Unlock()

	e.emit(model.EventSwapExecuted, snap)
	for _, z := range ent.applied {
		e.emit(model.EventZoneSwap, model.ZoneSwapEvent{
			SwapID:    rec.ID,
			Source:    rec.Source,
			Target:    rec.Target,
			Zone:      z,
			Timestamp: rec.Timestamp,
		})
	}

	if debug {
		e.log.Debug("swap executed", zap.String("swap_id", rec.ID), zap.Strings("zones", ent.applied), zap.Strings("skipped", rec.SkippedZones))
	}
	return rec.ID
}

// ReverseSwap restores both sides of an active swap to their pre-swap zone
// records, marks it reversed and drops it from the active set. The record
// stays in history. An unknown id returns ErrSwapNotFound and changes
// nothing.
func (e *Engine) ReverseSwap(id string) error {
	e.mu.Lock()
	ent, ok := e.active[id]
	if !ok {
		e.mu.Unlock()
		e.log.Warn("swap not found", zap.String("swap_id", id))
		return fmt.Errorf("%w: %s", ErrSwapNotFound, id)
	}

	for _, z := range ent.record.Zones {
		restore(ent.source.Body, z, ent.before.source[z])
		restore(ent.target.Body, z, ent.before.target[z])
	}

	now := e.now()
	ent.record.Status = model.SwapReversed
	ent.record.ReversedAt = &now
	delete(e.active, id)
	snap := ent.record.Clone()
	e.mu.Unlock()

	e.emit(model.EventSwapReversed, snap)
	for _, z := range snap.Zones {
		e.emit(model.EventZoneSwap, model.ZoneSwapEvent{
			SwapID:    id,
			Source:    snap.Target,
			Target:    snap.Source,
			Zone:      z,
			Reversal:  true,
			Timestamp: now,
		})
	}
	e.log.Info("swap reversed", zap.String("swap_id", id))
	return nil
}

// SwapZone exchanges one zone between copies of a and b and returns the
// updated copies. The inputs are not modified. Both sides must carry the
// zone.
func (e *Engine) SwapZone(z string, a, b model.BodyMap) (model.BodyMap, model.BodyMap, error) {
	if bodymap.IsForbiddenZone(z) {
		return nil, nil, fmt.Errorf("zone %q cannot be swapped", z)
	}
	if !bodymap.HasZone(a, z) || !bodymap.HasZone(b, z) {
		return nil, nil, fmt.Errorf("%w: %s", bodymap.ErrZoneMissing, z)
	}

	na, nb := bodymap.CopyBody(a), bodymap.CopyBody(b)
	na[z], nb[z] = bodymap.DeepCopy(b[z]), bodymap.DeepCopy(a[z])

	if e.Settings().DebugMode {
		e.log.Debug("zone exchanged", zap.String("zone", z))
	}
	return na, nb, nil
}
