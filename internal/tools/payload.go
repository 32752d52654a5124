package tools

import "strings"

// Payload builds a request body where optional fields are sent only when
// the caller supplied them.
type Payload map[string]any

// Set always sets the field.
func (p Payload) Set(key string, value any) Payload {
	p[key] = value
	return p
}

// SetString sets the field when value is non-empty.
func (p Payload) SetString(key, value string) Payload {
	if strings.TrimSpace(value) != "" {
		p[key] = value
	}
	return p
}

// SetInt sets the field when value is positive.
func (p Payload) SetInt(key string, value int) Payload {
	if value > 0 {
		p[key] = value
	}
	return p
}

// SetStrings sets the field when values is non-empty.
func (p Payload) SetStrings(key string, values []string) Payload {
	if len(values) > 0 {
		p[key] = values
	}
	return p
}

// SetObject sets the field when value is non-empty.
func (p Payload) SetObject(key string, value map[string]any) Payload {
	if len(value) > 0 {
		p[key] = value
	}
	return p
}

// SetArg copies a string, boolean, or number argument only when present.
func (p Payload) SetArg(args Args, name string, key string) Payload {
	if !args.Has(name) {
		return p
	}
	p[key] = args[name]
	return p
}
