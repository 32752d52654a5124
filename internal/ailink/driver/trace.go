package driver

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// TraceEntry is one NDJSON line written per provider call.
type TraceEntry struct {
	Timestamp   time.Time       `json:"timestamp"`
	Driver      string          `json:"driver"`
	Endpoint    string          `json:"endpoint"`
	Method      string          `json:"method"`
	Model       string          `json:"model,omitempty"`
	RequestBody json.RawMessage `json:"request_body,omitempty"`
	StatusCode  int             `json:"status_code,omitempty"`
	Response    json.RawMessage `json:"response,omitempty"`
	Error       string          `json:"error,omitempty"`
	DurationMs  int64           `json:"duration_ms"`
}

type tracer struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

var (
	activeMu sync.RWMutex
	active   *tracer
)

// EnableTracing appends every provider call to path until the returned
// stop function (or DisableTracing) runs. Enabling again switches files.
func EnableTracing(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}

	activeMu.Lock()
	previous := active
	active = &tracer{file: f, enc: json.NewEncoder(f)}
	activeMu.Unlock()

	previous.close()
	return DisableTracing, nil
}

// DisableTracing stops tracing and closes the trace file.
func DisableTracing() {
	activeMu.Lock()
	previous := active
	active = nil
	activeMu.Unlock()

	previous.close()
}

// IsTracingEnabled reports whether a trace file is open.
func IsTracingEnabled() bool {
	activeMu.RLock()
	defer activeMu.RUnlock()
	return active != nil
}

// Trace records entry when tracing is on. Write errors are dropped.
func Trace(entry TraceEntry) {
	activeMu.RLock()
	t := active
	activeMu.RUnlock()
	if t == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return
	}
	_ = t.enc.Encode(entry)
}

func (t *tracer) close() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file != nil {
		_ = t.file.Close()
		t.file = nil
	}
}
