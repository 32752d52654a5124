package metrics

import (
	"time"

	"github.com/ghlink/ghlink/internal/observability"
)

// GitHub gateway and tool metrics
const (
	APICallsTotal         = "github_api_calls_total"
	APICallDuration       = "github_api_call_duration_ms"
	AdmissionWaitTotal    = "github_admission_waits_total"
	AdmissionWaitDuration = "github_admission_wait_ms"
	ToolCallsTotal        = "tool_calls_total"
	ToolCallDuration      = "tool_call_duration_ms"
)

// RecordAPICall records one gateway call. Outcome is "success" or a failure kind.
func RecordAPICall(method string, outcome string, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(
		APICallsTotal,
		1,
		map[string]string{
			"method":  method,
			"outcome": outcome,
		},
	)
	_ = observability.TelemetrySystem.Histogram(
		APICallDuration,
		duration,
		map[string]string{
			"method": method,
		},
	)
}

// RecordAdmissionWait records time spent blocked on the admission window.
// Zero waits are not recorded.
func RecordAdmissionWait(waited time.Duration) {
	if observability.TelemetrySystem == nil || waited <= 0 {
		return
	}
	_ = observability.TelemetrySystem.Counter(AdmissionWaitTotal, 1, nil)
	_ = observability.TelemetrySystem.Histogram(AdmissionWaitDuration, waited, nil)
}

// RecordToolCall records a tool invocation through any transport.
func RecordToolCall(tool string, transport string, success bool, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	_ = observability.TelemetrySystem.Counter(
		ToolCallsTotal,
		1,
		map[string]string{
			"tool":      tool,
			"transport": transport,
			"status":    status,
		},
	)
	_ = observability.TelemetrySystem.Histogram(
		ToolCallDuration,
		duration,
		map[string]string{
			"tool": tool,
		},
	)
}
