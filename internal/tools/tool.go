// Package tools exposes GitHub operations as named tools with a uniform
// result envelope. Every transport (MCP, HTTP, CLI) invokes tools through a
// Registry.
package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fulmenhq/gofulmen/logging"

	"github.com/ghlink/ghlink/internal/ailink"
	"github.com/ghlink/ghlink/internal/core"
	"github.com/ghlink/ghlink/internal/core/gateway"
)

// ParamType is the JSON schema type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeBoolean ParamType = "boolean"
	TypeNumber  ParamType = "number"
	TypeInteger ParamType = "integer"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
)

// Param describes one tool parameter.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required,omitempty"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
}

// Handler runs a tool. A returned error becomes a failure envelope.
type Handler func(ctx context.Context, args Args) (*Result, error)

// Tool is a named operation.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	ReadOnly    bool
	Destructive bool
	// Failure is the envelope message used when the handler fails.
	Failure string
	Handler Handler
}

// GitHub is the gateway surface tools call. *gateway.Client satisfies it.
type GitHub interface {
	Get(ctx context.Context, endpoint string, opts *gateway.CallOptions, out any) error
	Post(ctx context.Context, endpoint string, opts *gateway.CallOptions, out any) error
	Put(ctx context.Context, endpoint string, opts *gateway.CallOptions, out any) error
	Patch(ctx context.Context, endpoint string, opts *gateway.CallOptions, out any) error
	Delete(ctx context.Context, endpoint string, opts *gateway.CallOptions) (bool, error)
}

// MetadataStore persists repository metadata documents.
type MetadataStore interface {
	PutRepositoryMetadata(ctx context.Context, ref core.RepositoryRef, metadata json.RawMessage, now time.Time) (*core.RepositoryMetadata, error)
	GetRepositoryMetadata(ctx context.Context, ref core.RepositoryRef) (*core.RepositoryMetadata, error)
}

// Completer answers single-turn prompts. *ailink.Service satisfies it.
type Completer interface {
	Complete(ctx context.Context, req ailink.CompletionRequest) (*ailink.Completion, error)
}

// Deps are the collaborators tool handlers use. Store and AI are optional;
// tools that need them fail with a clear message when they are nil.
type Deps struct {
	GitHub GitHub
	Store  MetadataStore
	AI     Completer
	Logger *logging.Logger
	Clock  func() time.Time
}

func (d Deps) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now().UTC()
}
