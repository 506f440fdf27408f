package zone

import "slices"

// vocabulary is the lookup vocabulary with stable numeric codes: position
// i holds the zone numbered i+1. It deliberately differs from the
// validator's required zones (head and arms are lookup targets only).
var vocabulary = []string{
	"head",
	"hair",
	"face",
	"neck",
	"chest",
	"waist",
	"hips",
	"genitals",
	"legs",
	"feet",
	"hands",
	"arms",
}

// Vocabulary returns every zone with a numeric code, ordered by code.
func Vocabulary() []string {
	return slices.Clone(vocabulary)
}

// Number returns the numeric code (1-12) of a zone name.
func Number(zone string) (int, bool) {
	i := slices.Index(vocabulary, zone)
	if i < 0 {
		return 0, false
	}
	return i + 1, true
}

// Name returns the zone name for a numeric code.
func Name(n int) (string, bool) {
	if n < 1 || n > len(vocabulary) {
		return "", false
	}
	return vocabulary[n-1], true
}

// IsKnown reports whether zone is part of the lookup vocabulary.
func IsKnown(zone string) bool {
	return slices.Contains(vocabulary, zone)
}
