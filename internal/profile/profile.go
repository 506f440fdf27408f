// Package profile loads named garment-to-zone mapping profiles. A profile's
// zone_mappings replace the built-in lookup entries for the garment types
// it names.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/threadshift/internal/bodymap"
	"github.com/ppiankov/threadshift/internal/zone"
)

// Profile is a named, reusable garment -> zones override table.
type Profile struct {
	Name         string              `yaml:"name"`
	Description  string              `yaml:"description"`
	ZoneMappings map[string][]string `yaml:"zone_mappings"`
}

// Dir returns the user profile directory, ~/.threadshift/profiles.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".threadshift", "profiles"), nil
}

// Load loads a profile by name. Checks built-in profiles first,
// then falls back to ~/.threadshift/profiles/<name>.yaml.
func Load(name string) (*Profile, error) {
	if data, ok := builtinProfiles[name]; ok {
		p, err := parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse built-in profile %q: %w", name, err)
		}
		return p, nil
	}

	dir, err := Dir()
	if err != nil {
		return nil, fmt.Errorf("profile %q not found (no built-in, cannot determine home dir)", name)
	}

	p, err := LoadFile(filepath.Join(dir, name+".yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("profile %q not found", name)
		}
		return nil, fmt.Errorf("failed to load profile %q: %w", name, err)
	}
	return p, nil
}

// LoadFile reads a profile from an explicit path.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// IsBuiltin reports whether name is embedded in the binary.
func IsBuiltin(name string) bool {
	_, ok := builtinProfiles[name]
	return ok
}

// List returns sorted names of all available profiles (built-in + user).
func List() []string {
	seen := make(map[string]bool)
	for name := range builtinProfiles {
		seen[name] = true
	}

	if dir, err := Dir(); err == nil {
		entries, err := os.ReadDir(dir)
		if err == nil {
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				name := e.Name()
				if ext := filepath.Ext(name); ext == ".yaml" || ext == ".yml" {
					seen[name[:len(name)-len(ext)]] = true
				}
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that a profile is well-formed: it has a name, and every
// mapped zone is in the zone vocabulary and not forbidden.
func Validate(p *Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}

	types := make([]string, 0, len(p.ZoneMappings))
	for t := range p.ZoneMappings {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, t := range types {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("zone_mappings: empty garment type")
		}
		for i, z := range p.ZoneMappings[t] {
			if bodymap.IsForbiddenZone(z) {
				return fmt.Errorf("zone_mappings.%s[%d]: zone %q is forbidden", t, i, z)
			}
			if !zone.IsKnown(z) {
				return fmt.Errorf("zone_mappings.%s[%d]: unknown zone %q", t, i, z)
			}
		}
	}
	return nil
}

// Apply installs the profile's mappings as the mapper's override table.
// An empty table clears previous overrides.
func Apply(p *Profile, m *zone.Mapper) {
	if len(p.ZoneMappings) == 0 {
		m.SetOverrides(nil)
		return
	}
	m.SetOverrides(p.ZoneMappings)
}

// Merge layers extra over the profile's table; entries in extra win.
// Returns a new map and leaves both inputs untouched.
func Merge(p *Profile, extra map[string][]string) map[string][]string {
	out := make(map[string][]string, len(p.ZoneMappings)+len(extra))
	for t, zones := range p.ZoneMappings {
		out[t] = append([]string(nil), zones...)
	}
	for t, zones := range extra {
		out[t] = append([]string(nil), zones...)
	}
	return out
}
