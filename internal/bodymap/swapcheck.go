package bodymap

import (
	"fmt"
	"strings"

	"github.com/ppiankov/threadshift/internal/model"
)

// Validator is the pre-swap gate the swap engine consults when
// auto-validation is enabled.
type Validator struct {
	// ZoneValidation enables the zone-level checks on top of the schema
	// checks of both body maps.
	ZoneValidation bool
}

// NewValidator returns a Validator with zone validation enabled.
func NewValidator() *Validator {
	return &Validator{ZoneValidation: true}
}

// ValidateSwap checks that both body maps are schema-valid and, with zone
// validation on, that no requested zone is forbidden and the source carries
// at least one of them. Returns nil or a *ValidationError.
func (v *Validator) ValidateSwap(source, target model.BodyMap, zones []string) error {
	var errs []string

	for _, side := range []struct {
		name string
		body model.BodyMap
	}{{"source", source}, {"target", target}} {
		var r Result
		if side.body == nil {
			r = Validate(nil)
		} else {
			r = Validate(side.body)
		}
		for _, e := range r.Errors {
			errs = append(errs, side.name+": "+e)
		}
	}

	if v.ZoneValidation {
		carried := false
		for _, z := range zones {
			if IsForbiddenZone(z) {
				errs = append(errs, fmt.Sprintf("zone '%s' cannot be swapped", z))
				continue
			}
			if _, ok := asObject(source[z]); ok {
				carried = true
			}
		}
		if !carried {
			errs = append(errs, fmt.Sprintf("source carries none of the zones: %s", strings.Join(zones, ", ")))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
