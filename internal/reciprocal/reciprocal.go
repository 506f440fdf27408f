// Package reciprocal exchanges the zones implied by a set of worn garments
// between two body maps in both directions, for single pairs, batches and
// dry-run previews. It also serves as the swap engine's bidirectional step.
package reciprocal

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/threadshift/internal/bodymap"
	"github.com/ppiankov/threadshift/internal/model"
	"github.com/ppiankov/threadshift/internal/swap"
	"github.com/ppiankov/threadshift/internal/zone"
)

var (
	// ErrInvalidInput is returned for missing body maps.
	ErrInvalidInput = errors.New("invalid reciprocal input")
	// ErrInvalidBodyMap is returned when either body map fails validation.
	ErrInvalidBodyMap = errors.New("invalid body map")
)

// ZoneSwapper exchanges one zone between copies of two body maps.
type ZoneSwapper interface {
	SwapZone(zone string, a, b model.BodyMap) (model.BodyMap, model.BodyMap, error)
}

// GarmentZones resolves a garment list to the union of covered zones.
type GarmentZones interface {
	ZonesForGarments(garments []string) []string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEngine routes zone exchanges through the swap engine.
func WithEngine(e ZoneSwapper) Option {
	return func(o *Orchestrator) { o.engine = e }
}

// WithMapper sets the garment → zone resolver.
func WithMapper(m GarmentZones) Option {
	return func(o *Orchestrator) { o.mapper = m }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// Orchestrator runs reciprocal swaps. Without an engine it falls back to a
// direct snapshot-based exchange; without a mapper it uses the default
// lookup table.
type Orchestrator struct {
	engine ZoneSwapper
	mapper GarmentZones
	log    *zap.Logger
}

// New creates an orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{log: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.mapper == nil {
		o.mapper = zone.NewMapper()
	}
	return o
}

// ZoneError is a per-zone failure inside an otherwise completed swap.
type ZoneError struct {
	Zone  string `json:"zone"`
	Error string `json:"error"`
}

// Result is the outcome of a reciprocal swap. UpdatedA and UpdatedB are
// fresh copies; the inputs are never modified.
type Result struct {
	Success      bool          `json:"success"`
	UpdatedA     model.BodyMap `json:"updatedA"`
	UpdatedB     model.BodyMap `json:"updatedB"`
	ZonesSwapped []string      `json:"zonesSwapped"`
	ZonesSkipped []string      `json:"zonesSkipped,omitempty"`
	Errors       []ZoneError   `json:"errors,omitempty"`
	Message      string        `json:"message"`
}

// IsSwappableZone reports whether a zone may take part in a reciprocal swap:
// it must be in the lookup vocabulary and not forbidden.
func IsSwappableZone(z string) bool {
	return zone.IsKnown(z) && !bodymap.IsForbiddenZone(z)
}

func (o *Orchestrator) checkInputs(a, b model.BodyMap) error {
	if a == nil {
		return fmt.Errorf("%w: character A must be a body map", ErrInvalidInput)
	}
	if b == nil {
		return fmt.Errorf("%w: character B must be a body map", ErrInvalidInput)
	}
	if err := bodymap.ValidatePartial(a).Err(); err != nil {
		return fmt.Errorf("%w: character A: %w", ErrInvalidBodyMap, err)
	}
	if err := bodymap.ValidatePartial(b).Err(); err != nil {
		return fmt.Errorf("%w: character B: %w", ErrInvalidBodyMap, err)
	}
	return nil
}

func (o *Orchestrator) swapZones(garments []string) []string {
	var out []string
	for _, z := range o.mapper.ZonesForGarments(garments) {
		if IsSwappableZone(z) {
			out = append(out, z)
		}
	}
	return out
}

// Swap exchanges every swappable zone implied by garments between a and b.
// Both inputs are validated first (required-zone presence is not enforced,
// since a character may legitimately lack a zone); any violation aborts
// with no exchange. Zones only one side carries are skipped and reported.
func (o *Orchestrator) Swap(a, b model.BodyMap, garments []string) (Result, error) {
	if err := o.checkInputs(a, b); err != nil {
		return Result{}, err
	}

	zones := o.swapZones(garments)
	if len(zones) == 0 {
		return Result{
			Success:      true,
			UpdatedA:     bodymap.CopyBody(a),
			UpdatedB:     bodymap.CopyBody(b),
			ZonesSwapped: []string{},
			Message:      "No valid zones to swap",
		}, nil
	}

	if o.engine != nil {
		return o.swapWithEngine(a, b, zones), nil
	}
	return swapDirect(a, b, zones), nil
}

// swapWithEngine applies zones one at a time through the engine. Each zone
// is atomic; the sequence as a whole is not.
func (o *Orchestrator) swapWithEngine(a, b model.BodyMap, zones []string) Result {
	curA, curB := bodymap.CopyBody(a), bodymap.CopyBody(b)
	res := Result{ZonesSwapped: []string{}}

	for _, z := range zones {
		na, nb, err := o.engine.SwapZone(z, curA, curB)
		switch {
		case errors.Is(err, bodymap.ErrZoneMissing):
			res.ZonesSkipped = append(res.ZonesSkipped, z)
		case err != nil:
			o.log.Warn("zone swap failed", zap.String("zone", z), zap.Error(err))
			res.Errors = append(res.Errors, ZoneError{Zone: z, Error: err.Error()})
		default:
			curA, curB = na, nb
			res.ZonesSwapped = append(res.ZonesSwapped, z)
		}
	}

	res.UpdatedA, res.UpdatedB = curA, curB
	res.Success = len(res.Errors) == 0
	if res.Success {
		res.Message = fmt.Sprintf("Successfully swapped %d zones", len(res.ZonesSwapped))
	} else {
		res.Message = fmt.Sprintf("Completed with %d errors out of %d zones", len(res.Errors), len(zones))
	}
	return res
}

// swapDirect exchanges all zones from snapshots of the inputs, so no
// partially applied state is ever observable.
func swapDirect(a, b model.BodyMap, zones []string) Result {
	outA, outB := bodymap.CopyBody(a), bodymap.CopyBody(b)
	res := Result{Success: true, ZonesSwapped: []string{}}

	for _, z := range zones {
		if !bodymap.HasZone(a, z) || !bodymap.HasZone(b, z) {
			res.ZonesSkipped = append(res.ZonesSkipped, z)
			continue
		}
		outA[z] = bodymap.DeepCopy(b[z])
		outB[z] = bodymap.DeepCopy(a[z])
		res.ZonesSwapped = append(res.ZonesSwapped, z)
	}

	res.UpdatedA, res.UpdatedB = outA, outB
	res.Message = fmt.Sprintf("Successfully swapped %d zones using fallback method", len(res.ZonesSwapped))
	return res
}

// HandleReciprocal is the swap engine's mirror step: the target's zone
// records displaced by the primary swap are copied onto the source.
func (o *Orchestrator) HandleReciprocal(ctx context.Context, req swap.ReciprocalRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.Source == nil || req.Source.Body == nil {
		return fmt.Errorf("%w: reciprocal source has no body map", ErrInvalidInput)
	}

	applied := 0
	for _, z := range req.Zones {
		v, ok := req.Displaced[z]
		if !ok || !IsSwappableZone(z) {
			continue
		}
		req.Source.Body[z] = bodymap.DeepCopy(v)
		applied++
	}

	o.log.Debug("reciprocal applied",
		zap.String("swap_id", req.SwapID),
		zap.Int("zones", applied))
	return nil
}
