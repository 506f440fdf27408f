package bodymap

import (
	"fmt"
	"sort"
	"strings"
)

// Result is the outcome of one validation pass. Errors is omitted from JSON
// when the body map is valid.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Err returns nil for a valid result, or a *ValidationError listing every problem.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Errors: r.Errors}
}

// ValidationError collects all schema violations found in a body map.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("body map validation failed: %s", strings.Join(e.Errors, "; "))
}

type checker struct {
	errs []string
}

func (c *checker) add(format string, args ...any) {
	c.errs = append(c.errs, fmt.Sprintf(format, args...))
}

func (c *checker) result() Result {
	if len(c.errs) == 0 {
		return Result{Valid: true}
	}
	return Result{Errors: c.errs}
}

// Validate checks a body map against the full schema. It never panics:
// anything that is not an object yields a single generic error.
func Validate(v any) Result {
	return validate(v, true)
}

// ValidatePartial applies every rule of Validate except required-zone
// presence. Zones that are present are still checked in full.
func ValidatePartial(v any) Result {
	return validate(v, false)
}

func validate(v any, requirePresence bool) Result {
	body, ok := asObject(v)
	if !ok {
		return Result{Errors: []string{"Body map must be a valid object"}}
	}

	c := &checker{}

	for _, zone := range requiredZones {
		val, present := body[zone]
		if !present {
			if requirePresence {
				c.add("Missing zone: %s", zone)
			}
			continue
		}
		if _, ok := asObject(val); !ok {
			c.add("Zone '%s' must be an object", zone)
		}
	}

	for _, zone := range forbiddenZones {
		if _, present := body[zone]; present {
			c.add("Invalid zone '%s' must not be present", zone)
		}
	}

	// Extra keys outside the required set are tolerated and not inspected.
	for _, zone := range requiredZones {
		rec, ok := asObject(body[zone])
		if !ok {
			continue
		}
		if zone == GenitalsZone {
			c.genitals(rec)
		} else {
			c.standardZone(zone, rec)
		}
	}

	return c.result()
}

func (c *checker) standardZone(zone string, rec map[string]any) {
	for _, field := range zoneFields {
		val, ok := rec[field]
		if !ok {
			c.add("Missing field '%s' in zone: %s", field, zone)
			continue
		}
		c.fieldType(zone, field, val)
	}

	if isMuscleZone(zone) {
		tone, ok := rec["tone"]
		if !ok {
			c.add("Missing required field 'tone' in zone: %s", zone)
		} else if _, isStr := tone.(string); !isStr {
			c.add("Field 'tone' in zone '%s' must be a string", zone)
		}
	}

	if marks, ok := rec["marks"]; ok {
		c.marks(zone, marks)
	}
	if plugin, ok := rec["_plugin"]; ok {
		c.plugin(zone, plugin)
	}
}

func (c *checker) fieldType(zone, field string, val any) {
	switch field {
	case "descriptor", "care", "tone":
		if _, ok := val.(string); !ok {
			c.add("Field '%s' in zone '%s' must be a string", field, zone)
		}
	case "marks":
		if _, ok := asList(val); !ok {
			c.add("Field '%s' in zone '%s' must be an array", field, zone)
		}
	case "_plugin":
		if _, ok := asObject(val); !ok {
			c.add("Field '%s' in zone '%s' must be an object", field, zone)
		}
	}
}

func (c *checker) marks(zone string, val any) {
	list, ok := asList(val)
	if !ok {
		c.add("Field 'marks' in zone '%s' must be an array", zone)
		return
	}

	for i, item := range list {
		mark, ok := asObject(item)
		if !ok {
			c.add("Invalid mark in %s[%d]: must be an object", zone, i)
			continue
		}

		for _, field := range markFields {
			v, present := mark[field]
			if !present {
				c.add("Invalid mark in %s[%d]: missing '%s'", zone, i, field)
			} else if _, isStr := v.(string); !isStr {
				c.add("Invalid mark in %s[%d]: '%s' must be a string", zone, i, field)
			}
		}

		if t, present := mark["type"]; present && !oneOf(t, markTypes) {
			c.add("Invalid mark in %s[%d]: type '%v' must be one of: %s",
				zone, i, t, strings.Join(markTypes, ", "))
		}
		if vis, present := mark["visibility"]; present && !oneOf(vis, markVisibility) {
			c.add("Invalid mark in %s[%d]: visibility '%v' must be one of: %s",
				zone, i, vis, strings.Join(markVisibility, ", "))
		}
	}
}

func (c *checker) plugin(zone string, val any) {
	obj, ok := asObject(val)
	if !ok {
		c.add("Field '_plugin' in zone '%s' must be an object", zone)
		return
	}

	for _, key := range sortedKeys(obj) {
		if !isScalar(obj[key]) {
			c.add("Invalid _plugin value in %s: key '%s' expected string/number/boolean, got %s",
				zone, key, typeName(obj[key]))
		}
	}
}

func oneOf(v any, allowed []string) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	for _, a := range allowed {
		if a == s {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
