// Package zone holds the garment → zone lookup table and the numeric zone codes.
package zone

import (
	"slices"
	"strings"
	"sync"

	"github.com/ppiankov/threadshift/internal/garment"
	"github.com/ppiankov/threadshift/internal/model"
)

// defaultTable maps each garment type to the body zones it covers.
// Deterministic table lookup, no inference from garment names.
var defaultTable = map[model.GarmentType][]string{
	model.GarmentBra:     {"chest"},
	model.GarmentPanties: {"genitals"},
	model.GarmentDress:   {"chest", "waist", "hips"},
	model.GarmentShirt:   {"chest"},
	model.GarmentPants:   {"waist", "hips", "legs"},
	model.GarmentJacket:  {"chest", "waist"},
	model.GarmentGloves:  {"hands"},
	model.GarmentSocks:   {"feet"},
	model.GarmentHat:     {"hair"},
	model.GarmentWetsuit: {"chest", "waist", "hips", "legs", "hands", "feet"},
	model.GarmentUnknown: {},
}

// DefaultTable returns a copy of the built-in garment → zones table.
func DefaultTable() map[string][]string {
	out := make(map[string][]string, len(defaultTable))
	for t, zones := range defaultTable {
		out[string(t)] = slices.Clone(zones)
	}
	return out
}

// Mapper is the zone lookup table with runtime overrides. Safe for
// concurrent use.
type Mapper struct {
	mu        sync.RWMutex
	overrides map[string][]string
}

// NewMapper returns a mapper backed by the default table only.
func NewMapper() *Mapper {
	return &Mapper{}
}

// SetOverrides replaces the override mapping wholesale. Overrides are not
// merged with earlier overrides; an empty or nil mapping clears them.
func (m *Mapper) SetOverrides(overrides map[string][]string) {
	var cp map[string][]string
	if len(overrides) > 0 {
		cp = make(map[string][]string, len(overrides))
		for k, v := range overrides {
			cp[normalizeType(k)] = slices.Clone(v)
		}
	}

	m.mu.Lock()
	m.overrides = cp
	m.mu.Unlock()
}

// Overrides returns a copy of the active override mapping.
func (m *Mapper) Overrides() map[string][]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]string, len(m.overrides))
	for k, v := range m.overrides {
		out[k] = slices.Clone(v)
	}
	return out
}

// ZonesForGarmentType returns the zones a garment type covers. Overrides take
// priority over the default table. Unknown types yield an empty, non-nil list.
func (m *Mapper) ZonesForGarmentType(garmentType string) []string {
	key := normalizeType(garmentType)

	m.mu.RLock()
	zones, ok := m.overrides[key]
	m.mu.RUnlock()
	if ok {
		return slices.Clone(zones)
	}

	if zones, ok := defaultTable[model.GarmentType(key)]; ok {
		return slices.Clone(zones)
	}
	return []string{}
}

// ZonesForGarments returns the de-duplicated union of zones covered by a list
// of garments, in first-seen order. Each entry may be a garment type name or
// a garment reference; malformed references contribute no zones.
func (m *Mapper) ZonesForGarments(garments []string) []string {
	seen := make(map[string]bool)
	out := []string{}

	for _, g := range garments {
		gt := g
		if garment.IsRef(g) {
			parsed, err := garment.ParseRef(g)
			if err != nil {
				continue
			}
			gt = string(parsed.Type)
		}
		for _, z := range m.ZonesForGarmentType(gt) {
			if !seen[z] {
				seen[z] = true
				out = append(out, z)
			}
		}
	}
	return out
}

// ZonesForGarmentType looks a type up in the default table alone.
func ZonesForGarmentType(garmentType string) []string {
	if zones, ok := defaultTable[model.GarmentType(normalizeType(garmentType))]; ok {
		return slices.Clone(zones)
	}
	return []string{}
}

func normalizeType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
