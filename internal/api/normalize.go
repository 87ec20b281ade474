package api

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// object is a JSON object whose fields are decoded lazily and leniently.
// Every accessor tolerates a missing, null or wrongly typed field.
type object map[string]json.RawMessage

func decodeObject(data []byte) (object, bool) {
	var o object
	if err := json.Unmarshal(data, &o); err != nil || o == nil {
		return nil, false
	}
	return o, true
}

func decodeArray(data []byte) ([]json.RawMessage, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, true
}

// Int accepts integral numbers and numeric strings
func (o object) Int(key string) (int64, bool) {
	raw, ok := o[key]
	if !ok {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil && string(raw) != "null" {
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

// IntPtr is Int for optional identifiers
func (o object) IntPtr(key string) *int64 {
	if v, ok := o.Int(key); ok {
		return &v
	}
	return nil
}

// String accepts strings and renders numbers; anything else is ""
func (o object) String(key string) string {
	raw, ok := o[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	if v, ok := o.Int(key); ok {
		return strconv.FormatInt(v, 10)
	}
	return ""
}

// Bool accepts booleans, 0/1 and "true"/"false"
func (o object) Bool(key string) bool {
	raw, ok := o[key]
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	if v, ok := o.Int(key); ok {
		return v != 0
	}
	b, _ = strconv.ParseBool(o.String(key))
	return b
}

// Time parses ISO-8601 timestamps. A timestamp without a zone is UTC.
func (o object) Time(key string) time.Time {
	s := o.String(key)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (o object) Object(key string) object {
	raw, ok := o[key]
	if !ok {
		return object{}
	}
	if nested, ok := decodeObject(raw); ok {
		return nested
	}
	return object{}
}

// Objects returns the elements of an array field that are objects
func (o object) Objects(key string) []object {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	items, ok := decodeArray(raw)
	if !ok {
		return nil
	}
	out := make([]object, 0, len(items))
	for _, item := range items {
		if nested, ok := decodeObject(item); ok {
			out = append(out, nested)
		}
	}
	return out
}

// Strings returns the non-blank string elements of an array field
func (o object) Strings(key string) []string {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	items, ok := decodeArray(raw)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
