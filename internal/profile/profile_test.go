package profile

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ppiankov/threadshift/internal/zone"
)

func TestBuiltinProfilesAreValid(t *testing.T) {
	for name := range builtinProfiles {
		p, err := Load(name)
		if err != nil {
			t.Fatalf("failed to load %s profile: %v", name, err)
		}
		if p.Name != name {
			t.Errorf("expected name %s, got %s", name, p.Name)
		}
		if p.Description == "" {
			t.Errorf("%s: expected non-empty description", name)
		}
		if err := Validate(p); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestLoadBuiltinSwimwear(t *testing.T) {
	p, err := Load("swimwear")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"genitals", "hips"}
	if got := p.ZoneMappings["panties"]; !slices.Equal(got, want) {
		t.Errorf("expected panties -> %v, got %v", want, got)
	}
}

func TestLoadUnknownProfile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := Load("nonexistent-profile")
	if err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestLoadUserProfile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".threadshift", "profiles")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cosplay.yaml"), []byte(InitProfile("cosplay")), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Load("cosplay")
	if err != nil {
		t.Fatalf("failed to load user profile: %v", err)
	}
	if p.Name != "cosplay" {
		t.Errorf("expected name cosplay, got %s", p.Name)
	}
	if err := Validate(p); err != nil {
		t.Errorf("starter template should validate: %v", err)
	}

	names := List()
	if !slices.Contains(names, "cosplay") || !slices.Contains(names, "swimwear") {
		t.Errorf("expected user and built-in profiles in list, got %v", names)
	}
	if !slices.IsSorted(names) {
		t.Errorf("expected sorted list, got %v", names)
	}
	if IsBuiltin("cosplay") || !IsBuiltin("default") {
		t.Error("IsBuiltin misreports")
	}
}

func TestLoadFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("zone_mappings: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidateProfileEmptyName(t *testing.T) {
	invalid := &Profile{Name: ""}
	if err := Validate(invalid); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestValidateProfileRejectsZones(t *testing.T) {
	tests := map[string][]string{
		"unknown":   {"chest", "tail"},
		"forbidden": {"torso"},
		"case":      {"Chest"},
	}
	for name, zones := range tests {
		t.Run(name, func(t *testing.T) {
			p := &Profile{Name: "test", ZoneMappings: map[string][]string{"cape": zones}}
			if err := Validate(p); err == nil {
				t.Errorf("expected error for zones %v", zones)
			}
		})
	}
}

func TestValidateProfileEmptyType(t *testing.T) {
	p := &Profile{Name: "test", ZoneMappings: map[string][]string{" ": {"chest"}}}
	if err := Validate(p); err == nil {
		t.Error("expected error for empty garment type")
	}
}

func TestApply(t *testing.T) {
	m := zone.NewMapper()
	p, err := Load("formalwear")
	if err != nil {
		t.Fatal(err)
	}

	Apply(p, m)
	if got := m.ZonesForGarmentType("shirt"); !slices.Equal(got, []string{"chest", "arms"}) {
		t.Errorf("expected override for shirt, got %v", got)
	}
	if got := m.ZonesForGarmentType("socks"); !slices.Equal(got, []string{"feet"}) {
		t.Errorf("expected default for socks, got %v", got)
	}

	def, err := Load("default")
	if err != nil {
		t.Fatal(err)
	}
	Apply(def, m)
	if got := m.ZonesForGarmentType("shirt"); !slices.Equal(got, []string{"chest"}) {
		t.Errorf("expected default profile to clear overrides, got %v", got)
	}
}

func TestMerge(t *testing.T) {
	p := &Profile{Name: "p", ZoneMappings: map[string][]string{
		"shirt": {"chest", "arms"},
		"hat":   {"hair"},
	}}
	merged := Merge(p, map[string][]string{"shirt": {"chest"}, "cape": {"neck"}})

	if !slices.Equal(merged["shirt"], []string{"chest"}) {
		t.Errorf("expected extra to win, got %v", merged["shirt"])
	}
	if !slices.Equal(merged["hat"], []string{"hair"}) || !slices.Equal(merged["cape"], []string{"neck"}) {
		t.Errorf("unexpected merge result: %v", merged)
	}

	merged["hat"][0] = "face"
	if p.ZoneMappings["hat"][0] != "hair" {
		t.Error("Merge must not alias the profile's slices")
	}
}
