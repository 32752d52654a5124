package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ghlink/ghlink/internal/ailink"
	"github.com/ghlink/ghlink/internal/core"
	"github.com/ghlink/ghlink/internal/core/gateway"
)

func echoTool(name string, params ...Param) *Tool {
	return &Tool{
		Name:   name,
		Params: params,
		Handler: func(_ context.Context, args Args) (*Result, error) {
			return OK("args", map[string]any(args), "echo"), nil
		},
	}
}

func TestRegistryRegisterRejectsDuplicatesAndNilHandlers(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(echoTool("b"), echoTool("a")))
	require.Equal(t, 2, registry.Len())

	err := registry.Register(echoTool("a"))
	require.ErrorContains(t, err, "already registered")

	err = registry.Register(&Tool{Name: "c"})
	require.ErrorContains(t, err, "no handler")

	err = registry.Register(&Tool{Name: " ", Handler: echoTool("x").Handler})
	require.Error(t, err)

	names := []string{}
	for _, tool := range registry.List() {
		names = append(names, tool.Name)
	}
	require.Equal(t, []string{"a", "b"}, names)
}

func TestInvokeUnknownTool(t *testing.T) {
	registry := NewRegistry()
	result := registry.Invoke(context.Background(), "nope", nil)

	require.False(t, result.Success)
	require.Equal(t, KindUnknownTool, result.Kind)
	require.Equal(t, "unknown tool: nope", result.Error)
}

func TestInvokeMissingRequiredParamSkipsHandler(t *testing.T) {
	called := false
	registry := NewRegistry()
	require.NoError(t, registry.Register(&Tool{
		Name:    "needs_owner",
		Params:  []Param{ownerParam()},
		Failure: "Failed to do the thing",
		Handler: func(context.Context, Args) (*Result, error) {
			called = true
			return OK("", nil, "ok"), nil
		},
	}))

	for _, raw := range []map[string]any{nil, {"owner": ""}, {"owner": "   "}} {
		result := registry.Invoke(context.Background(), "needs_owner", raw)
		require.False(t, result.Success)
		require.Equal(t, string(gateway.KindValidation), result.Kind)
		require.Equal(t, "invalid owner: is required", result.Error)
		require.Equal(t, "Failed to do the thing", result.Message)
	}
	require.False(t, called)
}

func TestInvokeCoercesStringArguments(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(echoTool("typed",
		Param{Name: "n", Type: TypeNumber},
		Param{Name: "flag", Type: TypeBoolean},
		Param{Name: "list", Type: TypeArray},
		Param{Name: "obj", Type: TypeObject},
		Param{Name: "s", Type: TypeString},
	)))

	result := registry.Invoke(context.Background(), "typed", map[string]any{
		"n":     "42",
		"flag":  "true",
		"list":  `["a","b"]`,
		"obj":   `{"k":"v"}`,
		"s":     7.0,
		"extra": "dropped",
	})
	require.True(t, result.Success, result.Error)

	args := Args(result.Data.(map[string]any))
	require.Equal(t, 42, args.Int("n", 0))
	require.True(t, args.Bool("flag", false))
	require.Equal(t, []string{"a", "b"}, args.Strings("list"))
	require.Equal(t, map[string]any{"k": "v"}, args.Object("obj"))
	require.Equal(t, "7", args.Str("s"))
	require.NotContains(t, args, "extra")
}

func TestInvokeRejectsFractionalIntegers(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(echoTool("ids",
		Param{Name: "issue_number", Type: TypeInteger, Required: true},
	)))

	for _, raw := range []any{3.7, "3.7", json.Number("3.5"), 1e300, "9007199254740993000", true} {
		result := registry.Invoke(context.Background(), "ids", map[string]any{"issue_number": raw})
		require.False(t, result.Success, "%v", raw)
		require.Equal(t, string(gateway.KindValidation), result.Kind, "%v", raw)
		require.Equal(t, "invalid issue_number: expected integer", result.Error)
	}

	for _, raw := range []any{3.0, "3", json.Number("3"), 3, int64(3)} {
		result := registry.Invoke(context.Background(), "ids", map[string]any{"issue_number": raw})
		require.True(t, result.Success, "%v: %s", raw, result.Error)
		require.Equal(t, 3, Args(result.Data.(map[string]any)).Int("issue_number", 0))
	}
}

func TestArgsIntIgnoresFractions(t *testing.T) {
	args := Args{"n": 3.7, "big": 1e300, "ok": 12.0}
	require.Equal(t, -1, args.Int("n", -1))
	require.Equal(t, -1, args.Int("big", -1))
	require.Equal(t, 12, args.Int("ok", -1))
}

func TestInvokeRejectsBadTypesAndEnums(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(echoTool("strict",
		Param{Name: "n", Type: TypeNumber},
		Param{Name: "state", Type: TypeString, Enum: []string{"open", "closed"}},
	)))

	result := registry.Invoke(context.Background(), "strict", map[string]any{"n": "many"})
	require.False(t, result.Success)
	require.Equal(t, "invalid n: expected number", result.Error)

	result = registry.Invoke(context.Background(), "strict", map[string]any{"state": "merged"})
	require.False(t, result.Success)
	require.Equal(t, "invalid state: must be one of open, closed", result.Error)

	result = registry.Invoke(context.Background(), "strict", map[string]any{"state": "open"})
	require.True(t, result.Success)
}

func TestInvokeHandlerErrorBecomesEnvelope(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&Tool{
		Name: "boom",
		Handler: func(context.Context, Args) (*Result, error) {
			return nil, gateway.Classify(404, nil)
		},
	}))

	result := registry.Invoke(context.Background(), "boom", nil)
	require.False(t, result.Success)
	require.Equal(t, "resource not found", result.Error)
	require.Equal(t, "Failed to run boom", result.Message)
	require.Equal(t, string(gateway.KindNotFound), result.Kind)
}

func TestFailKinds(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{gateway.Classify(401, nil), string(gateway.KindAuthentication)},
		{fmt.Errorf("wrapped: %w", gateway.Classify(403, nil)), string(gateway.KindRateLimited)},
		{invalid("repo", "bad"), string(gateway.KindValidation)},
		{&ailink.Error{Code: "CREDITS", Message: "out of credits"}, KindProvider},
		{fmt.Errorf("lookup: %w", core.ErrNotFound), string(gateway.KindNotFound)},
		{errors.New("other"), KindInternal},
	}
	for _, tc := range cases {
		require.Equal(t, tc.kind, Fail(tc.err, "msg").Kind, tc.err.Error())
	}

	require.Equal(t, "unknown error", Fail(nil, "msg").Error)
}

func TestResultMarshalShape(t *testing.T) {
	ok := OK("branches", []any{"main"}, "Branches listed successfully").With("total_count", 1)
	raw, err := json.Marshal(ok)
	require.NoError(t, err)
	require.JSONEq(t, `{"success":true,"branches":["main"],"total_count":1,"message":"Branches listed successfully"}`, string(raw))

	failed := Fail(gateway.Classify(422, []byte(`{"message":"Reference already exists"}`)), "Failed to create branch")
	raw, err = json.Marshal(failed)
	require.NoError(t, err)
	require.JSONEq(t, `{"success":false,"error":"Reference already exists","message":"Failed to create branch"}`, string(raw))

	empty := OK("", nil, "Branch deleted successfully")
	raw, err = json.Marshal(empty)
	require.NoError(t, err)
	require.JSONEq(t, `{"success":true,"message":"Branch deleted successfully"}`, string(raw))
}

func TestArgsAccessors(t *testing.T) {
	args := Args{
		"s":     "  padded  ",
		"n":     3.0,
		"ns":    "12",
		"b":     "false",
		"list":  "a, b,,c",
		"items": []any{"x", 2},
	}

	require.Equal(t, "padded", args.Str("s"))
	require.Equal(t, "  padded  ", args.RawStr("s"))
	require.Equal(t, "3", args.Str("n"))
	require.Equal(t, 3, args.Int("n", 0))
	require.Equal(t, 12, args.Int("ns", 0))
	require.Equal(t, 9, args.Int("missing", 9))
	require.False(t, args.Bool("b", true))
	require.True(t, args.Bool("missing", true))
	require.Equal(t, []string{"a", "b", "c"}, args.Strings("list"))
	require.Equal(t, []string{"x", "2"}, args.Strings("items"))
	require.Empty(t, args.Strings("missing"))
	require.Nil(t, args.Object("s"))
	require.True(t, args.Has("s"))
	require.False(t, args.Has("missing"))
}

func TestPayloadOnlySetsPresentFields(t *testing.T) {
	args := Args{"private": false, "homepage": ""}
	body := Payload{}
	body.SetString("description", "").
		SetString("name", "x").
		SetInt("milestone", 0).
		SetStrings("labels", nil).
		SetObject("inputs", map[string]any{}).
		SetArg(args, "private", "private").
		SetArg(args, "homepage", "homepage").
		SetArg(args, "archived", "archived")

	require.Equal(t, Payload{"name": "x", "private": false}, body)
}

func TestValidators(t *testing.T) {
	require.True(t, ValidRepoName("hello-world.go_1"))
	require.False(t, ValidRepoName("bad name"))
	require.False(t, ValidRepoName(string(make([]byte, 101))))

	require.True(t, ValidOwner("octocat"))
	require.False(t, ValidOwner("a-very-long-owner-name-that-exceeds-limit"))

	require.True(t, ValidBranchName("feature/login"))
	require.False(t, ValidBranchName("feature/../main"))
	require.False(t, ValidBranchName("/leading"))
	require.False(t, ValidBranchName("trailing/"))
	require.False(t, ValidBranchName("has space"))

	require.True(t, ValidFilePath("docs/read me.md"))
	require.False(t, ValidFilePath("../etc/passwd"))
	require.False(t, ValidFilePath("a/../../b"))
}
