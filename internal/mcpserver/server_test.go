package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/ghlink/ghlink/internal/tools"
)

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	registry := tools.NewRegistry()
	require.NoError(t, registry.Register(
		&tools.Tool{
			Name:        "get_thing",
			Description: "Get a thing",
			ReadOnly:    true,
			Params: []tools.Param{
				{Name: "owner", Type: tools.TypeString, Required: true, Description: "Owner"},
				{Name: "count", Type: tools.TypeNumber},
				{Name: "run_id", Type: tools.TypeInteger},
				{Name: "labels", Type: tools.TypeArray},
				{Name: "state", Type: tools.TypeString, Enum: []string{"open", "closed"}},
			},
			Handler: func(_ context.Context, args tools.Args) (*tools.Result, error) {
				return tools.OK("thing", map[string]any{"owner": args.Str("owner"), "count": args.Int("count", 0)}, "Thing retrieved"), nil
			},
		},
		&tools.Tool{
			Name:        "break_thing",
			Description: "Always fails",
			Destructive: true,
			Failure:     "Failed to break thing",
			Handler: func(context.Context, tools.Args) (*tools.Result, error) {
				return nil, errors.New("it broke")
			},
		},
	))
	return registry
}

func rpc(t *testing.T, s *server.MCPServer, id int, method string, params any) map[string]any {
	t.Helper()
	request, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": id, "method": method, "params": params})
	require.NoError(t, err)

	raw, err := json.Marshal(s.HandleMessage(context.Background(), request))
	require.NoError(t, err)
	var response map[string]any
	require.NoError(t, json.Unmarshal(raw, &response))
	require.Nil(t, response["error"], string(raw))
	return response["result"].(map[string]any)
}

func initialize(t *testing.T, s *server.MCPServer) {
	t.Helper()
	rpc(t, s, 1, "initialize", map[string]any{
		"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
		"clientInfo":      map[string]any{"name": "test", "version": "0"},
		"capabilities":    map[string]any{},
	})
}

func TestDefinitionSchema(t *testing.T) {
	registry := testRegistry(t)
	tool, ok := registry.Get("get_thing")
	require.True(t, ok)

	def := Definition(tool)
	require.Equal(t, "get_thing", def.Name)
	require.Equal(t, "Get a thing", def.Description)
	require.Equal(t, []string{"owner"}, def.InputSchema.Required)
	require.Contains(t, def.InputSchema.Properties, "labels")

	state := def.InputSchema.Properties["state"].(map[string]any)
	require.Equal(t, []string{"open", "closed"}, state["enum"])
	require.Equal(t, "number", def.InputSchema.Properties["count"].(map[string]any)["type"])
	require.Equal(t, "integer", def.InputSchema.Properties["run_id"].(map[string]any)["type"])

	require.NotNil(t, def.Annotations.ReadOnlyHint)
	require.True(t, *def.Annotations.ReadOnlyHint)
}

func TestListTools(t *testing.T) {
	s := New(testRegistry(t), "ghlink", "test")
	initialize(t, s)

	result := rpc(t, s, 2, "tools/list", map[string]any{})
	listed := result["tools"].([]any)
	names := []string{}
	for _, item := range listed {
		names = append(names, item.(map[string]any)["name"].(string))
	}
	require.ElementsMatch(t, []string{"get_thing", "break_thing"}, names)
}

func TestCallToolSuccess(t *testing.T) {
	s := New(testRegistry(t), "ghlink", "test")
	initialize(t, s)

	result := rpc(t, s, 3, "tools/call", map[string]any{
		"name":      "get_thing",
		"arguments": map[string]any{"owner": "octo", "count": 2},
	})
	require.NotEqual(t, true, result["isError"])

	structured := result["structuredContent"].(map[string]any)
	require.Equal(t, true, structured["success"])
	require.Equal(t, "Thing retrieved", structured["message"])
	require.Equal(t, map[string]any{"owner": "octo", "count": float64(2)}, structured["thing"])

	content := result["content"].([]any)
	require.Len(t, content, 1)
	var text map[string]any
	require.NoError(t, json.Unmarshal([]byte(content[0].(map[string]any)["text"].(string)), &text))
	require.Equal(t, structured, text)
}

func TestCallToolFailureSetsIsError(t *testing.T) {
	s := New(testRegistry(t), "ghlink", "test")
	initialize(t, s)

	result := rpc(t, s, 4, "tools/call", map[string]any{"name": "break_thing", "arguments": map[string]any{}})
	require.Equal(t, true, result["isError"])

	structured := result["structuredContent"].(map[string]any)
	require.Equal(t, false, structured["success"])
	require.Equal(t, "it broke", structured["error"])
	require.Equal(t, "Failed to break thing", structured["message"])
}

func TestCallToolMissingRequired(t *testing.T) {
	s := New(testRegistry(t), "ghlink", "test")
	initialize(t, s)

	result := rpc(t, s, 5, "tools/call", map[string]any{"name": "get_thing", "arguments": map[string]any{}})
	require.Equal(t, true, result["isError"])
	require.Equal(t, "invalid owner: is required", result["structuredContent"].(map[string]any)["error"])
}
