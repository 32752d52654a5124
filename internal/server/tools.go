package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ghlink/ghlink/internal/core/engine"
	apperrors "github.com/ghlink/ghlink/internal/errors"
	"github.com/ghlink/ghlink/internal/metrics"
	"github.com/ghlink/ghlink/internal/tools"
)

const (
	transportName = "http"

	// maxArgsBytes caps a tool call body; file contents travel base64 in it.
	maxArgsBytes = 8 << 20

	// FailureKindHeader carries the failure kind of an unsuccessful call.
	FailureKindHeader = "X-Failure-Kind"
)

// ToolDescriptor is the public description of one tool.
type ToolDescriptor struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	ReadOnly    bool          `json:"read_only"`
	Destructive bool          `json:"destructive"`
	Params      []tools.Param `json:"params"`
}

// Describe converts a registry tool into its descriptor.
func Describe(tool *tools.Tool) ToolDescriptor {
	params := tool.Params
	if params == nil {
		params = []tools.Param{}
	}
	return ToolDescriptor{
		Name:        tool.Name,
		Description: tool.Description,
		ReadOnly:    tool.ReadOnly,
		Destructive: tool.Destructive,
		Params:      params,
	}
}

func (s *Server) listTools(w http.ResponseWriter, r *http.Request) {
	listed := s.opts.Registry.List()
	out := make([]ToolDescriptor, 0, len(listed))
	for _, tool := range listed {
		out = append(out, Describe(tool))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tools":       out,
		"total_count": len(out),
	})
}

func (s *Server) describeTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	tool, ok := s.opts.Registry.Get(name)
	if !ok {
		HandleError(w, r, apperrors.NewNotFoundError("unknown tool: "+name))
		return
	}
	writeJSON(w, http.StatusOK, Describe(tool))
}

// invokeTool runs a tool with the JSON object body as arguments and writes
// its envelope. Failures keep the envelope body; the status follows the
// failure kind.
func (s *Server) invokeTool(w http.ResponseWriter, r *http.Request) {
	args, err := decodeArgs(w, r)
	if err != nil {
		HandleError(w, r, apperrors.Wrap(r.Context(), apperrors.CodeInvalidInput, err, "request body must be a JSON object of tool arguments"))
		return
	}

	name := chi.URLParam(r, "name")
	result := s.opts.Registry.Invoke(tools.WithTransport(r.Context(), transportName), name, args)

	status := http.StatusOK
	if !result.Success {
		status = apperrors.HTTPStatusFromKind(result.Kind)
		w.Header().Set(FailureKindHeader, result.Kind)
		apperrors.RecordHTTPError(r, apperrors.CodeForKind(result.Kind), status)
	}
	writeJSON(w, status, result)
}

func decodeArgs(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	body := http.MaxBytesReader(w, r.Body, maxArgsBytes)
	defer func() { _ = body.Close() }()

	var args map[string]any
	decoder := json.NewDecoder(body)
	decoder.UseNumber()
	if err := decoder.Decode(&args); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// AdmissionReport is the JSON view of the admission window.
type AdmissionReport struct {
	Used              int        `json:"used"`
	Limit             int        `json:"limit"`
	Available         int        `json:"available"`
	Window            string     `json:"window"`
	WindowSeconds     float64    `json:"window_seconds"`
	Oldest            *time.Time `json:"oldest,omitempty"`
	NextSlotInSeconds float64    `json:"next_slot_in_seconds"`
	GeneratedAt       time.Time  `json:"generated_at"`
}

// NewAdmissionReport converts a snapshot into its report.
func NewAdmissionReport(snapshot engine.AdmissionSnapshot) AdmissionReport {
	return AdmissionReport{
		Used:              snapshot.Used,
		Limit:             snapshot.Limit,
		Available:         max(snapshot.Limit-snapshot.Used, 0),
		Window:            snapshot.Window.String(),
		WindowSeconds:     snapshot.Window.Seconds(),
		Oldest:            snapshot.Oldest,
		NextSlotInSeconds: snapshot.NextSlotIn.Seconds(),
		GeneratedAt:       snapshot.GeneratedAt,
	}
}

func (s *Server) admission(w http.ResponseWriter, r *http.Request) {
	if s.opts.Admission == nil {
		HandleError(w, r, apperrors.NewServiceUnavailableError("admission controller not configured"))
		return
	}
	snapshot := s.opts.Admission.Snapshot()
	metrics.SetAdmissionInUse(snapshot.Used)
	writeJSON(w, http.StatusOK, NewAdmissionReport(snapshot))
}

func (s *Server) quotas(w http.ResponseWriter, r *http.Request) {
	if s.opts.Quotas == nil {
		HandleError(w, r, apperrors.NewServiceUnavailableError("store not configured"))
		return
	}
	quotas, err := s.opts.Quotas.ListQuotas(r.Context())
	if err != nil {
		HandleError(w, r, apperrors.Wrap(r.Context(), apperrors.CodeInternal, err, "failed to list quotas"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"quotas":      quotas,
		"total_count": len(quotas),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
