// Package bodymaptest builds schema-valid body maps for tests.
package bodymaptest

import "github.com/ppiankov/threadshift/internal/model"

// Valid returns a fresh body map that passes full validation. Every
// descriptor is prefixed with label so tests can tell two characters apart.
func Valid(label string) model.BodyMap {
	zone := func(descriptor string, tone bool) map[string]any {
		rec := map[string]any{
			"descriptor": label + " " + descriptor,
			"care":       "clean",
			"marks":      []any{},
			"_plugin":    map[string]any{},
		}
		if tone {
			rec["tone"] = "toned"
		}
		return rec
	}

	return model.BodyMap{
		"hair":  zone("hair", false),
		"face":  zone("face", false),
		"neck":  zone("neck", false),
		"chest": zone("chest", true),
		"waist": zone("waist", true),
		"butt":  zone("butt", true),
		"genitals": map[string]any{
			"vagina": map[string]any{
				"descriptor": label + " genitals",
				"care":       "waxed",
				"tone":       "soft",
				"marks":      []any{},
				"internal": map[string]any{
					"depth_inches":    4.5,
					"tightness_level": "snug",
					"ridge_presence":  true,
				},
			},
		},
		"hands": zone("hands", false),
		"legs":  zone("legs", true),
		"feet":  zone("feet", false),
		"hips":  zone("hips", false),
	}
}

// Mark returns a well-formed mark.
func Mark(markType, visibility string) map[string]any {
	return map[string]any{
		"type":            markType,
		"description":     "a " + markType,
		"location_detail": "left side",
		"visibility":      visibility,
	}
}
