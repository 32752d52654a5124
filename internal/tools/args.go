package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Args are the decoded arguments of one invocation.
type Args map[string]any

// Has reports whether name was supplied with a non-empty value.
func (a Args) Has(name string) bool {
	value, ok := a[name]
	if !ok || value == nil {
		return false
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// Str returns a trimmed string argument or "".
func (a Args) Str(name string) string {
	switch v := a[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// RawStr returns a string argument without trimming. File contents and
// bodies keep their whitespace.
func (a Args) RawStr(name string) string {
	if v, ok := a[name].(string); ok {
		return v
	}
	return a.Str(name)
}

// Bool returns a boolean argument or def when absent.
func (a Args) Bool(name string, def bool) bool {
	switch v := a[name].(type) {
	case bool:
		return v
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return def
}

// Int returns an integer argument or def when absent or not numeric.
func (a Args) Int(name string, def int) int {
	switch v := a[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) <= maxExactInteger {
			return int(v)
		}
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return int(parsed)
		}
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return def
}

// Strings returns a list argument. A string is split on commas.
func (a Args) Strings(name string) []string {
	var raw []string
	switch v := a[name].(type) {
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			raw = append(raw, fmt.Sprint(item))
		}
	case string:
		raw = strings.Split(v, ",")
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Object returns an object argument or nil.
func (a Args) Object(name string) map[string]any {
	if v, ok := a[name].(map[string]any); ok {
		return v
	}
	return nil
}

// coerce normalises a raw argument to the declared type. CLI and HTTP
// callers send strings for every type; MCP sends JSON types.
func coerce(param Param, value any) (any, error) {
	switch param.Type {
	case TypeString:
		switch v := value.(type) {
		case string:
			return v, nil
		case float64, int, int64, json.Number, bool:
			return fmt.Sprint(v), nil
		}
	case TypeBoolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return parsed, nil
			}
		}
	case TypeNumber:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case json.Number:
			if parsed, err := v.Float64(); err == nil {
				return parsed, nil
			}
		case string:
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return parsed, nil
			}
		}
	case TypeInteger:
		return coerceInteger(param, value)
	case TypeArray:
		switch v := value.(type) {
		case []any, []string:
			return v, nil
		case string:
			trimmed := strings.TrimSpace(v)
			if strings.HasPrefix(trimmed, "[") {
				var decoded []any
				if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
					return decoded, nil
				}
			}
			return v, nil
		}
	case TypeObject:
		switch v := value.(type) {
		case map[string]any:
			return v, nil
		case string:
			var decoded map[string]any
			if err := json.Unmarshal([]byte(v), &decoded); err == nil {
				return decoded, nil
			}
		}
	default:
		return value, nil
	}
	return nil, invalid(param.Name, fmt.Sprintf("expected %s", param.Type))
}

// maxExactInteger is the largest integer a JSON number carries exactly.
const maxExactInteger = 1 << 53

// coerceInteger accepts whole numbers within the exact JSON range; 3.7
// and 1e300 are rejected rather than truncated.
func coerceInteger(param Param, value any) (any, error) {
	var f float64
	switch v := value.(type) {
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, invalid(param.Name, "expected integer")
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, invalid(param.Name, "expected integer")
		}
		f = parsed
	default:
		return nil, invalid(param.Name, "expected integer")
	}
	if math.IsNaN(f) || f != math.Trunc(f) || math.Abs(f) > maxExactInteger {
		return nil, invalid(param.Name, "expected integer")
	}
	return int64(f), nil
}
