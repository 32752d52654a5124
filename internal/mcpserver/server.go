// Package mcpserver exposes the tool registry over the Model Context
// Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ghlink/ghlink/internal/tools"
)

const transportName = "mcp"

const instructions = `ghlink exposes the GitHub REST API as tools. Every tool returns an
envelope {"success": bool, "<key>": data, "message": string} or
{"success": false, "error": string, "message": string}. Calls share one
rate limit budget and may wait for admission when it is exhausted.`

// New builds an MCP server with one MCP tool per registry tool.
func New(registry *tools.Registry, name, version string) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	for _, tool := range registry.List() {
		s.AddTool(Definition(tool), Handler(registry, tool.Name))
	}
	return s
}

// Definition converts a registry tool into its MCP schema.
func Definition(tool *tools.Tool) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(tool.Description),
		mcp.WithReadOnlyHintAnnotation(tool.ReadOnly),
		mcp.WithDestructiveHintAnnotation(tool.Destructive),
	}
	for _, param := range tool.Params {
		opts = append(opts, paramOption(param))
	}
	return mcp.NewTool(tool.Name, opts...)
}

func paramOption(param tools.Param) mcp.ToolOption {
	props := []mcp.PropertyOption{mcp.Description(param.Description)}
	if param.Required {
		props = append(props, mcp.Required())
	}
	if len(param.Enum) > 0 {
		props = append(props, mcp.Enum(param.Enum...))
	}

	switch param.Type {
	case tools.TypeBoolean:
		return mcp.WithBoolean(param.Name, props...)
	case tools.TypeNumber:
		return mcp.WithNumber(param.Name, props...)
	case tools.TypeInteger:
		props = append(props, integerType)
		return mcp.WithNumber(param.Name, props...)
	case tools.TypeArray:
		props = append(props, mcp.Items(map[string]any{"type": "string"}))
		return mcp.WithArray(param.Name, props...)
	case tools.TypeObject:
		return mcp.WithObject(param.Name, props...)
	default:
		return mcp.WithString(param.Name, props...)
	}
}

// integerType narrows a number property to JSON schema "integer".
func integerType(schema map[string]any) {
	schema["type"] = "integer"
}

// Handler invokes a registry tool and returns its envelope as structured
// content with the JSON text as fallback. IsError mirrors !success.
func Handler(registry *tools.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := registry.Invoke(tools.WithTransport(ctx, transportName), name, request.GetArguments())

		envelope := result.Map()
		text, err := json.Marshal(envelope)
		if err != nil {
			return mcp.NewToolResultError("encode result: " + err.Error()), nil
		}

		out := mcp.NewToolResultStructured(envelope, string(text))
		out.IsError = !result.Success
		return out, nil
	}
}

// ServeStdio serves s over the given streams until ctx ends or input closes.
func ServeStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer, logger *logging.Logger) error {
	stdio := server.NewStdioServer(s)
	if logger != nil {
		logger.Info("mcp server listening on stdio")
	}
	return stdio.Listen(ctx, in, out)
}
