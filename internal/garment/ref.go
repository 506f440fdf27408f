// Package garment resolves garment references of the form
// "<characterId>.<typeCode><sequence>", e.g. "5.0103" is character 5's
// third pair of panties (type code 01).
package garment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/threadshift/internal/model"
)

// ErrMalformedRef is returned for references that do not have exactly one
// dot separating a character id from a type index of at least two digits.
var ErrMalformedRef = errors.New("malformed garment reference")

// OwnerPrefix is prepended to the character id to form the owning character ref.
const OwnerPrefix = "char_"

var typeCodes = map[string]model.GarmentType{
	"01": model.GarmentPanties,
	"02": model.GarmentBra,
	"03": model.GarmentPants,
	"04": model.GarmentShirt,
	"05": model.GarmentJacket,
	"06": model.GarmentGloves,
	"07": model.GarmentSocks,
	"08": model.GarmentHat,
	"09": model.GarmentDress,
}

// ParseRef resolves a garment reference. Unrecognized type codes resolve to
// model.GarmentUnknown rather than an error.
func ParseRef(ref string) (model.Garment, error) {
	parts := strings.Split(ref, ".")
	if len(parts) != 2 {
		return model.Garment{}, fmt.Errorf("%w: %q: expected <characterId>.<typeCode><sequence>", ErrMalformedRef, ref)
	}

	charID, typeIndex := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if charID == "" {
		return model.Garment{}, fmt.Errorf("%w: %q: empty character id", ErrMalformedRef, ref)
	}
	if len(typeIndex) < 2 {
		return model.Garment{}, fmt.Errorf("%w: %q: type index needs a two-digit code", ErrMalformedRef, ref)
	}

	code := typeIndex[:2]
	return model.Garment{
		ID:       ref,
		Type:     TypeForCode(code),
		Owner:    OwnerPrefix + charID,
		TypeCode: code,
		Sequence: typeIndex[2:],
	}, nil
}

// TypeForCode maps a two-digit type code to its garment type.
func TypeForCode(code string) model.GarmentType {
	if t, ok := typeCodes[code]; ok {
		return t
	}
	return model.GarmentUnknown
}

// CodeForType returns the two-digit code of a garment type. Types without a
// code (wetsuit, unknown) report false.
func CodeForType(t model.GarmentType) (string, bool) {
	for code, gt := range typeCodes {
		if gt == t {
			return code, true
		}
	}
	return "", false
}

// ParseType normalizes a garment type name. Names outside the enum map to
// model.GarmentUnknown.
func ParseType(name string) model.GarmentType {
	t := model.GarmentType(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range model.GarmentTypes {
		if t == known {
			return t
		}
	}
	return model.GarmentUnknown
}

// IsRef reports whether s looks like a garment reference rather than a type name.
func IsRef(s string) bool {
	return strings.Contains(s, ".")
}
