package tools

import (
	"encoding/json"
	"errors"

	"github.com/ghlink/ghlink/internal/ailink"
	"github.com/ghlink/ghlink/internal/core"
	"github.com/ghlink/ghlink/internal/core/gateway"
)

// Failure kinds raised by the tool layer itself, alongside gateway kinds.
const (
	KindUnknownTool = "unknown_tool"
	KindProvider    = "provider"
	KindInternal    = "internal"
)

// Result is the uniform tool envelope:
//
//	{"success": true, "<key>": <data>, "message": "..."}
//	{"success": false, "error": "...", "message": "..."}
type Result struct {
	Success bool
	Key     string
	Data    any
	Extra   map[string]any
	Message string
	Error   string

	// Kind classifies failures for transports; it is not serialized.
	Kind string
}

// OK builds a success envelope. An empty key omits the payload.
func OK(key string, data any, message string) *Result {
	return &Result{Success: true, Key: key, Data: data, Message: message}
}

// With adds a sibling field such as total_count.
func (r *Result) With(key string, value any) *Result {
	if r.Extra == nil {
		r.Extra = map[string]any{}
	}
	r.Extra[key] = value
	return r
}

// Fail builds a failure envelope from an error.
func Fail(err error, message string) *Result {
	result := &Result{Success: false, Message: message, Kind: KindInternal}
	if err == nil {
		result.Error = "unknown error"
		return result
	}

	result.Error = err.Error()
	if failure, ok := gateway.AsFailure(err); ok {
		result.Error = failure.Message
		result.Kind = string(failure.Kind)
		return result
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		result.Kind = string(gateway.KindValidation)
		return result
	}

	var aerr *ailink.Error
	if errors.As(err, &aerr) {
		result.Kind = KindProvider
		return result
	}

	if errors.Is(err, core.ErrNotFound) {
		result.Kind = string(gateway.KindNotFound)
	}
	return result
}

// Map returns the envelope as a plain map.
func (r *Result) Map() map[string]any {
	out := make(map[string]any, len(r.Extra)+3)
	for k, v := range r.Extra {
		out[k] = v
	}
	out["success"] = r.Success
	out["message"] = r.Message
	if r.Success {
		if r.Key != "" {
			out[r.Key] = r.Data
		}
	} else {
		out["error"] = r.Error
	}
	return out
}

// MarshalJSON renders the envelope shape.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}
