package model

import (
	"slices"
	"time"
)

// BodyMap is a character's zone-by-zone attribute tree, as decoded from JSON.
// Keys are zone names; values are zone records (map[string]any) or, for
// malformed input, anything else the decoder produced.
type BodyMap map[string]any

// Character pairs a host-owned character id with the body map this system
// computes derived copies of.
type Character struct {
	ID   string  `json:"id"`
	Name string  `json:"name,omitempty"`
	Body BodyMap `json:"body"`
}

// GarmentType is the free-standing garment enum the zone lookup table is keyed by.
type GarmentType string

const (
	GarmentBra     GarmentType = "bra"
	GarmentPanties GarmentType = "panties"
	GarmentDress   GarmentType = "dress"
	GarmentPants   GarmentType = "pants"
	GarmentShirt   GarmentType = "shirt"
	GarmentJacket  GarmentType = "jacket"
	GarmentGloves  GarmentType = "gloves"
	GarmentSocks   GarmentType = "socks"
	GarmentHat     GarmentType = "hat"
	GarmentWetsuit GarmentType = "wetsuit"
	GarmentUnknown GarmentType = "unknown"
)

// GarmentTypes lists every recognized garment type except GarmentUnknown.
var GarmentTypes = []GarmentType{
	GarmentBra, GarmentPanties, GarmentDress, GarmentPants, GarmentShirt,
	GarmentJacket, GarmentGloves, GarmentSocks, GarmentHat, GarmentWetsuit,
}

// Garment is a resolved garment reference.
type Garment struct {
	ID       string      `json:"id"`
	Type     GarmentType `json:"type"`
	Owner    string      `json:"owner"`
	TypeCode string      `json:"type_code"`
	Sequence string      `json:"sequence"`
}

// SwapStatus is the lifecycle state of a swap record.
type SwapStatus string

const (
	SwapActive   SwapStatus = "active"
	SwapReversed SwapStatus = "reversed"
)

// SwapRecord describes one executed swap. It is mutated only to flip Status
// and stamp ReversedAt when the swap is reversed.
type SwapRecord struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"`
	Target       string     `json:"target"`
	Zones        []string   `json:"zones"`
	SkippedZones []string   `json:"skipped_zones,omitempty"`
	Garment      Garment    `json:"garment"`
	Timestamp    time.Time  `json:"timestamp"`
	Status       SwapStatus `json:"status"`
	ReversedAt   *time.Time `json:"reversed_at,omitempty"`
}

// Clone returns a copy that shares no mutable state with r.
func (r SwapRecord) Clone() SwapRecord {
	out := r
	out.Zones = slices.Clone(r.Zones)
	out.SkippedZones = slices.Clone(r.SkippedZones)
	if r.ReversedAt != nil {
		at := *r.ReversedAt
		out.ReversedAt = &at
	}
	return out
}

// ZoneSwapEvent is the payload of a zone-level notification.
type ZoneSwapEvent struct {
	SwapID    string    `json:"swap_id"`
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Zone      string    `json:"zone"`
	Reversal  bool      `json:"reversal,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Event names emitted on the event surface.
const (
	EventSwapExecuted = "swap_executed"
	EventSwapReversed = "swap_reversed"
	EventZoneSwap     = "zone_swap"
	EventCoreReady    = "core_ready"
)

// ReadyEvent is the payload of core_ready.
type ReadyEvent struct {
	PluginName string `json:"pluginName"`
	Version    string `json:"version"`
	APIVersion string `json:"apiVersion"`
}
