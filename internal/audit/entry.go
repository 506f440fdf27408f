// Package audit keeps an append-only JSONL journal of swaps. Every line
// carries the SHA-256 of the line before it, so edits, deletions and
// reordering are detectable.
package audit

import (
	"slices"
	"time"

	"github.com/ppiankov/threadshift/internal/model"
)

// Journal actions.
const (
	ActionExecuted = "swap_executed"
	ActionReversed = "swap_reversed"
)

// Entry is one journal line. Fields are fixed structs and slices so the
// marshalled bytes, and therefore the chain hashes, are reproducible.
type Entry struct {
	Seq         int       `json:"seq"`
	At          time.Time `json:"at"`
	Action      string    `json:"action"`
	SwapID      string    `json:"swap_id"`
	Source      string    `json:"source"`
	Target      string    `json:"target"`
	GarmentRef  string    `json:"garment_ref"`
	GarmentType string    `json:"garment_type"`
	Zones       []string  `json:"zones"`
	Skipped     []string  `json:"skipped,omitempty"`
	Status      string    `json:"status"`
	Prev        string    `json:"prev"`
}

// FromRecord builds an entry for rec. Seq, At and Prev are filled in by
// Log.Append.
func FromRecord(action string, rec model.SwapRecord) Entry {
	return Entry{
		Action:      action,
		SwapID:      rec.ID,
		Source:      rec.Source,
		Target:      rec.Target,
		GarmentRef:  rec.Garment.ID,
		GarmentType: string(rec.Garment.Type),
		Zones:       slices.Clone(rec.Zones),
		Skipped:     slices.Clone(rec.SkippedZones),
		Status:      string(rec.Status),
	}
}

// Involves reports whether character is the entry's source or target.
func (e Entry) Involves(character string) bool {
	return e.Source == character || e.Target == character
}
