package reciprocal

import (
	"fmt"

	"github.com/ppiankov/threadshift/internal/bodymap"
	"github.com/ppiankov/threadshift/internal/model"
)

// Pair is one independent reciprocal swap request.
type Pair struct {
	A        model.BodyMap `json:"charA"`
	B        model.BodyMap `json:"charB"`
	Garments []string      `json:"garmentsWorn"`
}

// BatchResult is the outcome for one pair, echoing its position.
type BatchResult struct {
	PairIndex int    `json:"pairIndex"`
	Error     string `json:"error,omitempty"`
	Result
}

// Batch swaps each pair independently. A failing pair is reported in its
// own result with the inputs echoed back and does not affect its siblings.
func (o *Orchestrator) Batch(pairs []Pair) []BatchResult {
	results := make([]BatchResult, 0, len(pairs))

	for i, p := range pairs {
		var (
			res Result
			err error
		)
		if p.A == nil || p.B == nil {
			err = fmt.Errorf("%w: pair %d must have charA and charB", ErrInvalidInput, i)
		} else {
			res, err = o.Swap(p.A, p.B, p.Garments)
		}

		if err != nil {
			results = append(results, BatchResult{
				PairIndex: i,
				Error:     err.Error(),
				Result: Result{
					UpdatedA:     p.A,
					UpdatedB:     p.B,
					ZonesSwapped: []string{},
				},
			})
			continue
		}
		results = append(results, BatchResult{PairIndex: i, Result: res})
	}
	return results
}

// Preview text used when a side has nothing to offer.
const (
	unknownDescriptor = "Unknown"
	missingZone       = "Nothing (zone missing)"
	missingWarning    = "One character is missing this zone"
)

// PreviewEntry describes what each side would receive for one zone.
type PreviewEntry struct {
	Zone         string `json:"zone"`
	AWillReceive string `json:"charAWillReceive"`
	BWillReceive string `json:"charBWillReceive"`
	CanSwap      bool   `json:"canSwap"`
	Warning      string `json:"warning,omitempty"`
}

// Preview summarizes a reciprocal swap without performing it.
type Preview struct {
	TotalZones     int            `json:"totalZones"`
	SwappableZones int            `json:"swappableZones"`
	Entries        []PreviewEntry `json:"preview"`
	Garments       []string       `json:"garments"`
}

// Preview runs the same validation, zone resolution and cross-presence
// checks as Swap and reports the descriptors each side would receive.
// Zones neither side carries are left out.
func (o *Orchestrator) Preview(a, b model.BodyMap, garments []string) (Preview, error) {
	if err := o.checkInputs(a, b); err != nil {
		return Preview{}, err
	}

	zones := o.swapZones(garments)
	p := Preview{
		TotalZones: len(zones),
		Entries:    []PreviewEntry{},
		Garments:   append([]string{}, garments...),
	}

	for _, z := range zones {
		hasA, hasB := bodymap.HasZone(a, z), bodymap.HasZone(b, z)
		switch {
		case hasA && hasB:
			p.Entries = append(p.Entries, PreviewEntry{
				Zone:         z,
				AWillReceive: describe(b, z, unknownDescriptor),
				BWillReceive: describe(a, z, unknownDescriptor),
				CanSwap:      true,
			})
			p.SwappableZones++
		case hasA || hasB:
			p.Entries = append(p.Entries, PreviewEntry{
				Zone:         z,
				AWillReceive: describe(b, z, missingZone),
				BWillReceive: describe(a, z, missingZone),
				Warning:      missingWarning,
			})
		}
	}
	return p, nil
}

func describe(b model.BodyMap, z, fallback string) string {
	if d, ok := bodymap.Descriptor(b, z); ok && d != "" {
		return d
	}
	return fallback
}
