// Package bodymap validates body maps against the fixed zone schema.
//
// Top-level zone names are matched exactly (case-sensitive) during
// validation. The membership helpers IsRequiredZone and IsForbiddenZone are
// lenient: they trim and lowercase their argument first.
package bodymap

import (
	"slices"
	"strings"
)

var requiredZones = []string{
	"hair", "face", "neck", "chest", "waist", "butt",
	"genitals", "hands", "legs", "feet",
}

var forbiddenZones = []string{"torso", "height", "voice", "head"}

var muscleZones = []string{"chest", "waist", "butt", "legs", "arms"}

// zoneFields must be present on every standard zone record.
var zoneFields = []string{"descriptor", "care", "marks", "_plugin"}

// genitalFields must be present on every genital sub-record.
var genitalFields = []string{"descriptor", "care", "tone", "marks"}

var markFields = []string{"type", "description", "location_detail", "visibility"}

var markTypes = []string{"tattoo", "scar", "freckles", "mole", "birthmark"}

var markVisibility = []string{"high", "medium", "low"}

var genitalTypes = []string{"vagina", "penis", "anal"}

// GenitalsZone is the zone whose value is keyed by genital type.
const GenitalsZone = "genitals"

// RequiredZones returns the zones every body map must contain.
func RequiredZones() []string { return slices.Clone(requiredZones) }

// ForbiddenZones returns the zones no body map may contain.
func ForbiddenZones() []string { return slices.Clone(forbiddenZones) }

// MuscleZones returns the zones that additionally require a tone field.
func MuscleZones() []string { return slices.Clone(muscleZones) }

// MarkTypes returns the allowed mark types.
func MarkTypes() []string { return slices.Clone(markTypes) }

// GenitalTypes returns the allowed keys of the genitals zone.
func GenitalTypes() []string { return slices.Clone(genitalTypes) }

// IsRequiredZone reports whether name (trimmed, case-insensitive) is a required zone.
func IsRequiredZone(name string) bool {
	return slices.Contains(requiredZones, normalize(name))
}

// IsForbiddenZone reports whether name (trimmed, case-insensitive) is a forbidden zone.
func IsForbiddenZone(name string) bool {
	return slices.Contains(forbiddenZones, normalize(name))
}

func isMuscleZone(name string) bool {
	return slices.Contains(muscleZones, name)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
