package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Values is a flat map from input (or output) id to raw value.
type Values map[string]any

// Has reports whether key is present with a non-nil value.
func (v Values) Has(key string) bool {
	if v == nil {
		return false
	}
	value, ok := v[key]
	return ok && value != nil
}

// Number casts the value under key to float64. Missing, non-numeric and NaN
// values report false.
func (v Values) Number(key string) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return ToNumber(v[key])
}

// String returns the string form of the value under key.
func (v Values) String(key string) string {
	if v == nil {
		return ""
	}
	return ToString(v[key])
}

// Bool casts the value under key to a boolean.
func (v Values) Bool(key string) (bool, bool) {
	if v == nil {
		return false, false
	}
	return ToBool(v[key])
}

// Clone returns a copy of v. Nested maps and slices are copied as well so the
// clone can be handed to code that must not observe later mutations.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for key, value := range v {
		out[key] = cloneValue(value)
	}
	return out
}

// Keys returns the keys of v in no particular order.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	return keys
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, inner := range typed {
			out[k] = cloneValue(inner)
		}
		return out
	case Values:
		return typed.Clone()
	case []any:
		out := make([]any, len(typed))
		for idx, inner := range typed {
			out[idx] = cloneValue(inner)
		}
		return out
	default:
		return value
	}
}

// ToNumber casts value to float64. Strings are parsed after trimming; empty
// strings, booleans and NaN are not numbers.
func ToNumber(value any) (float64, bool) {
	var out float64
	switch typed := value.(type) {
	case nil:
		return 0, false
	case float64:
		out = typed
	case float32:
		out = float64(typed)
	case int:
		out = float64(typed)
	case int8:
		out = float64(typed)
	case int16:
		out = float64(typed)
	case int32:
		out = float64(typed)
	case int64:
		out = float64(typed)
	case uint:
		out = float64(typed)
	case uint8:
		out = float64(typed)
	case uint16:
		out = float64(typed)
	case uint32:
		out = float64(typed)
	case uint64:
		out = float64(typed)
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return 0, false
		}
		out = parsed
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		out = parsed
	default:
		return 0, false
	}
	if math.IsNaN(out) {
		return 0, false
	}
	return out, true
}

// ToBool casts value to a boolean, accepting the usual string spellings.
func ToBool(value any) (bool, bool) {
	switch typed := value.(type) {
	case bool:
		return typed, true
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "true", "yes", "y", "1", "on":
			return true, true
		case "false", "no", "n", "0", "off":
			return false, true
		}
	}
	return false, false
}

// ToString renders value as a string; nil becomes "".
func ToString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}

// IsBlank reports whether value counts as "not supplied": nil or an empty or
// whitespace-only string. NaN is a supplied but invalid number, not a blank.
func IsBlank(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	default:
		return false
	}
}
