package bodymap

import "strings"

type valueKind int

const (
	kindNumber valueKind = iota
	kindString
	kindBool
)

type optionalField struct {
	name string
	kind valueKind
}

type nestedGroup struct {
	name   string
	fields []optionalField
}

// genitalSchema lists the optional, type-specific structure of one genital
// sub-record. Every field is checked only when present.
type genitalSchema struct {
	nested []nestedGroup
	flat   []optionalField
}

var genitalSchemas = map[string]genitalSchema{
	"vagina": {
		nested: []nestedGroup{{
			name: "internal",
			fields: []optionalField{
				{"depth_inches", kindNumber},
				{"tightness_level", kindString},
				{"g_spot_ridge", kindString},
				{"ridge_presence", kindBool},
				{"hymen_intact", kindBool},
			},
		}},
	},
	"penis": {
		nested: []nestedGroup{{
			name: "size",
			fields: []optionalField{
				{"length_erect_inches", kindNumber},
				{"length_flaccid_inches", kindNumber},
				{"girth_inches", kindNumber},
			},
		}},
		flat: []optionalField{{"circumcised", kindBool}},
	},
	"anal": {
		nested: []nestedGroup{{
			name: "internal",
			fields: []optionalField{
				{"depth_inches", kindNumber},
				{"tightness_level", kindString},
			},
		}},
	},
}

func (c *checker) genitals(rec map[string]any) {
	var present []string
	for _, t := range genitalTypes {
		if _, ok := rec[t]; ok {
			present = append(present, t)
		}
	}

	if len(present) == 0 {
		c.add("Genitals zone must contain at least one of: %s", strings.Join(genitalTypes, ", "))
		return
	}

	for _, t := range present {
		c.genitalType(t, rec[t])
	}

	for _, key := range sortedKeys(rec) {
		if !oneOf(key, genitalTypes) {
			c.add("Invalid field '%s' in genitals zone", key)
		}
	}
}

func (c *checker) genitalType(genitalType string, val any) {
	prefix := GenitalsZone + "." + genitalType

	data, ok := asObject(val)
	if !ok {
		c.add("%s must be an object", prefix)
		return
	}

	for _, field := range genitalFields {
		v, present := data[field]
		if !present {
			c.add("Missing field '%s' in %s", field, prefix)
			continue
		}
		c.fieldType(prefix, field, v)
	}

	if marks, ok := data["marks"]; ok {
		c.marks(prefix, marks)
	}
	if plugin, ok := data["_plugin"]; ok {
		c.plugin(prefix, plugin)
	}

	schema := genitalSchemas[genitalType]
	for _, group := range schema.nested {
		raw, present := data[group.name]
		if !present {
			continue
		}
		groupPath := prefix + "." + group.name
		obj, ok := asObject(raw)
		if !ok {
			c.add("%s must be an object", groupPath)
			continue
		}
		c.optionalFields(groupPath, obj, group.fields)
	}
	c.optionalFields(prefix, data, schema.flat)
}

func (c *checker) optionalFields(path string, obj map[string]any, fields []optionalField) {
	for _, f := range fields {
		v, present := obj[f.name]
		if !present {
			continue
		}
		switch f.kind {
		case kindNumber:
			if n, ok := numberValue(v); !ok || n < 0 {
				c.add("%s.%s must be a number >= 0", path, f.name)
			}
		case kindString:
			if _, ok := v.(string); !ok {
				c.add("%s.%s must be a string", path, f.name)
			}
		case kindBool:
			if _, ok := v.(bool); !ok {
				c.add("%s.%s must be a boolean", path, f.name)
			}
		}
	}
}
