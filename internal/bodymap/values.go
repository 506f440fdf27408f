package bodymap

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/ppiankov/threadshift/internal/model"
)

// asObject accepts decoded JSON objects. Arrays and nil are rejected.
func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case model.BodyMap:
		return map[string]any(m), true
	}
	return nil, false
}

// asList accepts any slice or array except byte slices.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []byte, nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool:
		return true
	}
	_, ok := numberValue(v)
	return ok
}

// typeName names a decoded value the way it appeared in JSON.
func typeName(v any) string {
	if v == nil {
		return "null"
	}
	if _, ok := v.(string); ok {
		return "string"
	}
	if _, ok := v.(bool); ok {
		return "boolean"
	}
	if _, ok := numberValue(v); ok {
		return "number"
	}
	if _, ok := asObject(v); ok {
		return "object"
	}
	if _, ok := asList(v); ok {
		return "array"
	}
	return fmt.Sprintf("%T", v)
}

// DeepCopy copies decoded JSON values recursively. Scalars are returned as-is.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = DeepCopy(val)
		}
		return out
	case model.BodyMap:
		return CopyBody(t)
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = DeepCopy(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = DeepCopy(val)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	}
	return v
}

// CopyBody returns a deep copy of a body map. A nil map copies to nil.
func CopyBody(b model.BodyMap) model.BodyMap {
	if b == nil {
		return nil
	}
	out := make(model.BodyMap, len(b))
	for k, v := range b {
		out[k] = DeepCopy(v)
	}
	return out
}

// Descriptor returns the descriptor string of a zone record, if it has one.
func Descriptor(b model.BodyMap, zone string) (string, bool) {
	rec, ok := asObject(b[zone])
	if !ok {
		return "", false
	}
	d, ok := rec["descriptor"].(string)
	return d, ok
}

// ErrZoneMissing is returned when a zone is requested from a body map that
// does not carry it.
var ErrZoneMissing = errors.New("zone missing from body map")

// HasZone reports whether b carries a non-null value for zone.
func HasZone(b model.BodyMap, zone string) bool {
	v, ok := b[zone]
	return ok && v != nil
}
