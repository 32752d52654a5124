package tools

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/ghlink/ghlink/internal/metrics"
)

type transportKey struct{}

// WithTransport tags ctx with the transport name used in metrics and logs.
func WithTransport(ctx context.Context, transport string) context.Context {
	return context.WithValue(ctx, transportKey{}, transport)
}

func transportFrom(ctx context.Context) string {
	if v, ok := ctx.Value(transportKey{}).(string); ok && v != "" {
		return v
	}
	return "direct"
}

// Registry is an ordered tool catalog.
type Registry struct {
	Logger *logging.Logger

	mu    sync.RWMutex
	tools []*Tool
	index map[string]*Tool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: map[string]*Tool{}}
}

// Register adds tools. Names must be unique and handlers non-nil.
func (r *Registry) Register(tools ...*Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, tool := range tools {
		if tool == nil || strings.TrimSpace(tool.Name) == "" {
			return fmt.Errorf("tool name is required")
		}
		if tool.Handler == nil {
			return fmt.Errorf("tool %s has no handler", tool.Name)
		}
		if _, exists := r.index[tool.Name]; exists {
			return fmt.Errorf("tool %s already registered", tool.Name)
		}
		r.tools = append(r.tools, tool)
		r.index[tool.Name] = tool
	}
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.index[name]
	return tool, ok
}

// List returns tools sorted by name.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Tool, len(r.tools))
	copy(out, r.tools)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Invoke validates args against the tool's params and runs it. It always
// returns an envelope; failures never escape as errors.
func (r *Registry) Invoke(ctx context.Context, name string, raw map[string]any) *Result {
	if ctx == nil {
		ctx = context.Background()
	}

	tool, ok := r.Get(name)
	if !ok {
		result := &Result{Error: fmt.Sprintf("unknown tool: %s", name), Message: "Tool not found", Kind: KindUnknownTool}
		metrics.RecordToolCall(name, transportFrom(ctx), false, 0)
		return result
	}

	started := time.Now()
	result := r.run(ctx, tool, raw)
	elapsed := time.Since(started)

	metrics.RecordToolCall(tool.Name, transportFrom(ctx), result.Success, elapsed)
	if r.Logger != nil {
		fields := []zap.Field{
			zap.String("tool", tool.Name),
			zap.String("transport", transportFrom(ctx)),
			zap.Bool("success", result.Success),
			zap.Duration("duration", elapsed),
		}
		if result.Success {
			r.Logger.Debug("tool invoked", fields...)
		} else {
			r.Logger.Info("tool failed", append(fields, zap.String("kind", result.Kind), zap.String("error", result.Error))...)
		}
	}
	return result
}

func (r *Registry) run(ctx context.Context, tool *Tool, raw map[string]any) *Result {
	args, err := bindArgs(tool, raw)
	if err != nil {
		return Fail(err, tool.failureMessage())
	}

	result, err := tool.Handler(ctx, args)
	if err != nil {
		return Fail(err, tool.failureMessage())
	}
	if result == nil {
		return OK("", nil, "ok")
	}
	return result
}

func bindArgs(tool *Tool, raw map[string]any) (Args, error) {
	args := Args{}
	for _, param := range tool.Params {
		value, present := raw[param.Name]
		if present && value != nil {
			coerced, err := coerce(param, value)
			if err != nil {
				return nil, err
			}
			args[param.Name] = coerced
		}

		if param.Required && !args.Has(param.Name) {
			return nil, invalid(param.Name, "is required")
		}
		if len(param.Enum) > 0 && args.Has(param.Name) && !slices.Contains(param.Enum, args.Str(param.Name)) {
			return nil, invalid(param.Name, "must be one of "+strings.Join(param.Enum, ", "))
		}
	}
	return args, nil
}

func (t *Tool) failureMessage() string {
	if t.Failure != "" {
		return t.Failure
	}
	return "Failed to run " + strings.ReplaceAll(t.Name, "_", " ")
}
