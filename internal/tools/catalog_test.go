package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ghlink/ghlink/internal/ailink"
	"github.com/ghlink/ghlink/internal/core"
	"github.com/ghlink/ghlink/internal/core/gateway"
)

type recordedCall struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

type route struct {
	status int
	body   string
}

// fakeGitHub answers "METHOD /path" routes and records every request.
type fakeGitHub struct {
	mu     sync.Mutex
	routes map[string]route
	calls  []recordedCall
}

func newFakeGitHub(t *testing.T, routes map[string]route) (*fakeGitHub, *gateway.Client) {
	t.Helper()

	fake := &fakeGitHub{routes: routes}
	server := httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(server.Close)

	credential, err := gateway.NewCredential("test-token", "")
	require.NoError(t, err)
	client, err := gateway.New(gateway.Options{BaseURL: server.URL, Credential: credential})
	require.NoError(t, err)
	return fake, client
}

func (f *fakeGitHub) serve(w http.ResponseWriter, r *http.Request) {
	call := recordedCall{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
	if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &call.Body)
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	rt, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Not Found"}`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rt.status)
	_, _ = io.WriteString(w, rt.body)
}

func (f *fakeGitHub) Calls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedCall, len(f.calls))
	copy(out, f.calls)
	return out
}

type memoryStore struct {
	mu      sync.Mutex
	records map[string]*core.RepositoryMetadata
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]*core.RepositoryMetadata{}}
}

func (m *memoryStore) PutRepositoryMetadata(_ context.Context, ref core.RepositoryRef, metadata json.RawMessage, now time.Time) (*core.RepositoryMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record := &core.RepositoryMetadata{Owner: ref.Owner, Repo: ref.Repo, Metadata: metadata, CreatedAt: now, UpdatedAt: now}
	if existing, ok := m.records[ref.FullName()]; ok {
		record.CreatedAt = existing.CreatedAt
	}
	m.records[ref.FullName()] = record
	return record, nil
}

func (m *memoryStore) GetRepositoryMetadata(_ context.Context, ref core.RepositoryRef) (*core.RepositoryMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[ref.FullName()]
	if !ok {
		return nil, core.ErrNotFound
	}
	return record, nil
}

type stubCompleter struct {
	requests []ailink.CompletionRequest
	err      error
}

func (s *stubCompleter) Complete(_ context.Context, req ailink.CompletionRequest) (*ailink.Completion, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &ailink.Completion{Text: "looks good", Model: "test/model"}, nil
}

func newTestCatalog(t *testing.T, routes map[string]route, deps Deps) (*fakeGitHub, *Registry) {
	t.Helper()
	fake, client := newFakeGitHub(t, routes)
	deps.GitHub = client
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	}
	registry, err := NewCatalog(deps)
	require.NoError(t, err)
	return fake, registry
}

func invoke(t *testing.T, registry *Registry, name string, args map[string]any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(registry.Invoke(context.Background(), name, args))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestNewCatalogRequiresGitHub(t *testing.T) {
	_, err := NewCatalog(Deps{})
	require.Error(t, err)
}

func TestCatalogRegistersEveryTool(t *testing.T) {
	_, registry := newTestCatalog(t, nil, Deps{})

	expected := []string{
		"get_repository", "list_repositories", "create_repository", "update_repository",
		"delete_repository", "fork_repository", "get_repository_contents",
		"create_or_update_file", "delete_file",
		"list_branches", "get_branch", "create_branch", "delete_branch", "update_branch_protection",
		"list_commits", "get_commit", "create_commit_status",
		"list_issues", "get_issue", "create_issue", "update_issue", "close_issue",
		"add_issue_comment", "list_issue_comments",
		"list_pull_requests", "get_pull_request", "create_pull_request", "update_pull_request",
		"merge_pull_request", "list_pull_request_files",
		"list_workflows", "list_workflow_runs", "trigger_workflow", "cancel_workflow_run",
		"list_dependabot_alerts", "list_code_scanning_alerts", "list_secret_scanning_alerts",
		"list_deployments", "create_deployment", "create_deployment_status",
		"list_webhooks", "create_webhook", "delete_webhook",
		"get_authenticated_user", "get_user", "get_organization", "list_organization_members", "get_rate_limit",
		"store_repository_metadata", "get_repository_metadata", "sync_repository_metadata",
		"generate_code_review", "generate_pr_description", "analyze_repository",
	}
	for _, name := range expected {
		tool, ok := registry.Get(name)
		require.True(t, ok, name)
		require.NotEmpty(t, tool.Description, name)
	}
	require.Equal(t, len(expected), registry.Len())
}

func TestGetRepository(t *testing.T) {
	fake, registry := newTestCatalog(t, map[string]route{
		"GET /repos/octo/hello": {200, `{"full_name":"octo/hello","stargazers_count":3}`},
	}, Deps{})

	out := invoke(t, registry, "get_repository", map[string]any{"owner": "octo", "repo": "hello"})
	require.Equal(t, true, out["success"])
	require.Equal(t, "octo/hello", out["repository"].(map[string]any)["full_name"])
	require.Equal(t, "Retrieved repository octo/hello", out["message"])
	require.Len(t, fake.Calls(), 1)
}

func TestInvalidOwnerNeverReachesGitHub(t *testing.T) {
	fake, registry := newTestCatalog(t, nil, Deps{})

	out := invoke(t, registry, "get_repository", map[string]any{"owner": "bad owner", "repo": "hello"})
	require.Equal(t, false, out["success"])
	require.Contains(t, out["error"], "invalid owner")
	require.Equal(t, "Failed to get repository", out["message"])
	require.Empty(t, fake.Calls())
}

func TestNotFoundFailureEnvelope(t *testing.T) {
	_, registry := newTestCatalog(t, nil, Deps{})

	result := registry.Invoke(context.Background(), "get_issue", map[string]any{"owner": "octo", "repo": "hello", "issue_number": 9})
	require.False(t, result.Success)
	require.Equal(t, "resource not found", result.Error)
	require.Equal(t, "Failed to get issue", result.Message)
	require.Equal(t, string(gateway.KindNotFound), result.Kind)
}

func TestListIssuesQuery(t *testing.T) {
	fake, registry := newTestCatalog(t, map[string]route{
		"GET /repos/octo/hello/issues": {200, `[{"number":1},{"number":2}]`},
	}, Deps{})

	out := invoke(t, registry, "list_issues", map[string]any{
		"owner": "octo", "repo": "hello",
		"state": "all", "labels": []any{"bug", "ui"}, "per_page": 500, "page": 2,
	})
	require.Equal(t, true, out["success"])
	require.Equal(t, float64(2), out["total_count"])
	require.Equal(t, "Retrieved 2 issues", out["message"])

	calls := fake.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "labels=bug%2Cui&page=2&per_page=100&state=all", calls[0].Query)
}

func TestCreateOrUpdateFileEncodesContent(t *testing.T) {
	fake, registry := newTestCatalog(t, map[string]route{
		"PUT /repos/octo/hello/contents/docs/guide.md": {201, `{"content":{"path":"docs/guide.md"}}`},
	}, Deps{})

	out := invoke(t, registry, "create_or_update_file", map[string]any{
		"owner": "octo", "repo": "hello", "path": "/docs/guide.md",
		"content": "# Guide\n", "message": "add guide", "branch": "main",
	})
	require.Equal(t, true, out["success"])
	require.Equal(t, "created", out["action"])

	body := fake.Calls()[0].Body
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("# Guide\n")), body["content"])
	require.Equal(t, "add guide", body["message"])
	require.Equal(t, "main", body["branch"])
	require.NotContains(t, body, "sha")
}

func TestGetRepositoryContentsDecodesFiles(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("hello world"))
	_, registry := newTestCatalog(t, map[string]route{
		"GET /repos/octo/hello/contents/README.md": {200, `{"type":"file","encoding":"base64","sha":"abc","content":"` + encoded[:4] + `\n` + encoded[4:] + `"}`},
		"GET /repos/octo/hello/contents":           {200, `[{"name":"README.md"},{"name":"go.mod"}]`},
	}, Deps{})

	out := invoke(t, registry, "get_repository_contents", map[string]any{"owner": "octo", "repo": "hello", "path": "README.md"})
	require.Equal(t, true, out["success"])
	require.Equal(t, "hello world", out["contents"].(map[string]any)["decoded_content"])
	require.Equal(t, float64(1), out["total_count"])

	out = invoke(t, registry, "get_repository_contents", map[string]any{"owner": "octo", "repo": "hello"})
	require.Equal(t, float64(2), out["total_count"])
	require.Equal(t, "Retrieved contents of /", out["message"])
}

func TestDeleteFileLooksUpSHA(t *testing.T) {
	fake, registry := newTestCatalog(t, map[string]route{
		"GET /repos/octo/hello/contents/old.txt":    {200, `{"type":"file","sha":"deadbeef"}`},
		"DELETE /repos/octo/hello/contents/old.txt": {200, `{"commit":{"sha":"c1"}}`},
	}, Deps{})

	out := invoke(t, registry, "delete_file", map[string]any{"owner": "octo", "repo": "hello", "path": "old.txt", "message": "remove"})
	require.Equal(t, true, out["success"], out["error"])

	calls := fake.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, "deadbeef", calls[1].Body["sha"])
}

func TestDeleteRepositoryRequiresConfirm(t *testing.T) {
	fake, registry := newTestCatalog(t, map[string]route{
		"DELETE /repos/octo/hello": {204, ``},
	}, Deps{})

	out := invoke(t, registry, "delete_repository", map[string]any{"owner": "octo", "repo": "hello", "confirm": false})
	require.Equal(t, false, out["success"])
	require.Equal(t, "Set confirm=true to delete repository", out["message"])
	require.Empty(t, fake.Calls())

	out = invoke(t, registry, "delete_repository", map[string]any{"owner": "octo", "repo": "hello", "confirm": true})
	require.Equal(t, true, out["success"])
	require.Equal(t, "Repository octo/hello deleted successfully", out["message"])
}

func TestDeleteBranchRequiresNoContent(t *testing.T) {
	_, registry := newTestCatalog(t, map[string]route{
		"DELETE /repos/octo/hello/git/refs/heads/feature/x": {200, `{}`},
		"DELETE /repos/octo/hello/git/refs/heads/done":      {204, ``},
	}, Deps{})

	result := registry.Invoke(context.Background(), "delete_branch", map[string]any{"owner": "octo", "repo": "hello", "branch_name": "feature/x"})
	require.False(t, result.Success)
	require.Equal(t, string(gateway.KindRemote), result.Kind)
	require.Equal(t, "delete was not acknowledged with 204 No Content", result.Error)

	result = registry.Invoke(context.Background(), "delete_branch", map[string]any{"owner": "octo", "repo": "hello", "branch_name": "done"})
	require.True(t, result.Success)
}

func TestCreateBranchResolvesSourceSHA(t *testing.T) {
	fake, registry := newTestCatalog(t, map[string]route{
		"GET /repos/octo/hello/git/ref/heads/main": {200, `{"object":{"sha":"abc123"}}`},
		"POST /repos/octo/hello/git/refs":          {201, `{"ref":"refs/heads/topic"}`},
	}, Deps{})

	out := invoke(t, registry, "create_branch", map[string]any{"owner": "octo", "repo": "hello", "branch_name": "topic"})
	require.Equal(t, true, out["success"], out["error"])
	require.Equal(t, "Branch created successfully", out["message"])

	calls := fake.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, map[string]any{"ref": "refs/heads/topic", "sha": "abc123"}, calls[1].Body)
}

func TestCreateBranchRejectsRefWithoutSHA(t *testing.T) {
	fake, registry := newTestCatalog(t, map[string]route{
		"GET /repos/octo/hello/git/ref/heads/main": {200, `{"object":{}}`},
	}, Deps{})

	result := registry.Invoke(context.Background(), "create_branch", map[string]any{"owner": "octo", "repo": "hello", "branch_name": "topic"})
	require.False(t, result.Success)
	require.Equal(t, string(gateway.KindRemote), result.Kind)
	require.Equal(t, "source branch main has no commit SHA", result.Error)
	require.Len(t, fake.Calls(), 1)
}

func TestValidationFailureCarriesRemoteMessage(t *testing.T) {
	_, registry := newTestCatalog(t, map[string]route{
		"POST /repos/octo/hello/git/refs": {422, `{"message":"Reference already exists"}`},
	}, Deps{})

	out := invoke(t, registry, "create_branch", map[string]any{"owner": "octo", "repo": "hello", "branch_name": "topic", "sha": "abc"})
	require.Equal(t, false, out["success"])
	require.Equal(t, "Reference already exists", out["error"])
	require.Equal(t, "Failed to create branch", out["message"])
}

func TestTriggerWorkflowAcceptsNoContent(t *testing.T) {
	fake, registry := newTestCatalog(t, map[string]route{
		"POST /repos/octo/hello/actions/workflows/ci.yml/dispatches": {204, ``},
	}, Deps{})

	out := invoke(t, registry, "trigger_workflow", map[string]any{
		"owner": "octo", "repo": "hello", "workflow_id": "ci.yml", "inputs": map[string]any{"level": "debug"},
	})
	require.Equal(t, true, out["success"], out["error"])
	require.Equal(t, "main", out["ref"])
	require.Equal(t, map[string]any{"ref": "main", "inputs": map[string]any{"level": "debug"}}, fake.Calls()[0].Body)
}

func TestListWorkflowRunsUnwrapsPage(t *testing.T) {
	_, registry := newTestCatalog(t, map[string]route{
		"GET /repos/octo/hello/actions/runs": {200, `{"total_count":1,"workflow_runs":[{"id":7}]}`},
	}, Deps{})

	out := invoke(t, registry, "list_workflow_runs", map[string]any{"owner": "octo", "repo": "hello"})
	require.Equal(t, true, out["success"])
	require.Len(t, out["runs"], 1)
	require.Equal(t, float64(1), out["total_count"])
}

func TestSecurityAlertsDefaultToOpen(t *testing.T) {
	fake, registry := newTestCatalog(t, map[string]route{
		"GET /repos/octo/hello/dependabot/alerts": {200, `[]`},
	}, Deps{})

	out := invoke(t, registry, "list_dependabot_alerts", map[string]any{"owner": "octo", "repo": "hello", "severity": "high"})
	require.Equal(t, true, out["success"])
	require.Equal(t, []any{}, out["alerts"])
	require.Equal(t, "severity=high&state=open", fake.Calls()[0].Query)
}

func TestCreateWebhookDefaults(t *testing.T) {
	fake, registry := newTestCatalog(t, map[string]route{
		"POST /repos/octo/hello/hooks": {201, `{"id":1}`},
	}, Deps{})

	out := invoke(t, registry, "create_webhook", map[string]any{"owner": "octo", "repo": "hello", "url": "https://example.com/hook"})
	require.Equal(t, true, out["success"], out["error"])

	body := fake.Calls()[0].Body
	require.Equal(t, "web", body["name"])
	require.Equal(t, []any{"push"}, body["events"])
	require.Equal(t, true, body["active"])
	require.Equal(t, map[string]any{"url": "https://example.com/hook", "content_type": "json"}, body["config"])
}

func TestGetRateLimit(t *testing.T) {
	_, registry := newTestCatalog(t, map[string]route{
		"GET /rate_limit": {200, `{"resources":{"core":{"limit":5000,"remaining":4999}},"rate":{"limit":5000}}`},
	}, Deps{})

	out := invoke(t, registry, "get_rate_limit", nil)
	require.Equal(t, true, out["success"])
	require.Contains(t, out["rate_limit"], "core")
}

func TestMetadataToolsWithoutStore(t *testing.T) {
	_, registry := newTestCatalog(t, nil, Deps{})

	out := invoke(t, registry, "get_repository_metadata", map[string]any{"owner": "octo", "repo": "hello"})
	require.Equal(t, false, out["success"])
	require.Equal(t, "Database connection not available", out["message"])
}

func TestMetadataRoundTripAndSync(t *testing.T) {
	store := newMemoryStore()
	fake, registry := newTestCatalog(t, map[string]route{
		"GET /repos/octo/hello":           {200, `{"full_name":"octo/hello","stargazers_count":5,"owner":{"login":"octo"}}`},
		"GET /repos/octo/hello/languages": {200, `{"Go":1200}`},
	}, Deps{Store: store})

	out := invoke(t, registry, "get_repository_metadata", map[string]any{"owner": "octo", "repo": "hello"})
	require.Equal(t, false, out["success"])
	require.Equal(t, "not_found", out["error"])
	require.Equal(t, "No metadata found for octo/hello", out["message"])

	out = invoke(t, registry, "store_repository_metadata", map[string]any{"owner": "octo", "repo": "hello", "metadata": map[string]any{"team": "core"}})
	require.Equal(t, true, out["success"], out["error"])
	require.Equal(t, map[string]any{"team": "core"}, out["metadata"])

	out = invoke(t, registry, "sync_repository_metadata", map[string]any{"owner": "octo", "repo": "hello"})
	require.Equal(t, true, out["success"], out["error"])
	metadata := out["metadata"].(map[string]any)
	require.Equal(t, float64(5), metadata["stargazers_count"])
	require.Equal(t, map[string]any{"Go": float64(1200)}, metadata["languages"])
	require.Equal(t, "2025-06-01T12:00:00Z", metadata["sync_timestamp"])
	require.Len(t, fake.Calls(), 2)
}

func TestCodeReviewFromPullRequest(t *testing.T) {
	ai := &stubCompleter{}
	_, registry := newTestCatalog(t, map[string]route{
		"GET /repos/octo/hello/pulls/3/files": {200, `[{"filename":"main.go","status":"modified","additions":1,"deletions":0,"patch":"@@ -1 +1 @@\n+fmt.Println()"}]`},
	}, Deps{AI: ai})

	out := invoke(t, registry, "generate_code_review", map[string]any{"owner": "octo", "repo": "hello", "pull_number": 3})
	require.Equal(t, true, out["success"], out["error"])
	require.Equal(t, "looks good", out["review"])
	require.Equal(t, "test/model", out["model"])

	require.Len(t, ai.requests, 1)
	require.Contains(t, ai.requests[0].User, "--- main.go (modified, +1 -0)")
	require.Equal(t, 2000, ai.requests[0].MaxTokens)
	require.InDelta(t, 0.3, *ai.requests[0].Temperature, 1e-9)
}

func TestCodeReviewNeedsInput(t *testing.T) {
	ai := &stubCompleter{}
	_, registry := newTestCatalog(t, nil, Deps{AI: ai})

	out := invoke(t, registry, "generate_code_review", nil)
	require.Equal(t, false, out["success"])
	require.Empty(t, ai.requests)
}

func TestAIToolsWithoutProvider(t *testing.T) {
	_, registry := newTestCatalog(t, nil, Deps{})

	out := invoke(t, registry, "generate_pr_description", map[string]any{"pr_changes": map[string]any{"title": "x"}})
	require.Equal(t, false, out["success"])
	require.Equal(t, "OpenRouter integration not available", out["message"])
}

func TestProviderErrorEnvelope(t *testing.T) {
	ai := &stubCompleter{err: &ailink.Error{Code: "CREDITS", Message: "insufficient credits"}}
	_, registry := newTestCatalog(t, nil, Deps{AI: ai})

	result := registry.Invoke(context.Background(), "generate_pr_description", map[string]any{"pr_changes": map[string]any{"title": "x"}})
	require.False(t, result.Success)
	require.Equal(t, KindProvider, result.Kind)
	require.Equal(t, "insufficient credits", result.Error)
	require.Equal(t, 1500, ai.requests[0].MaxTokens)
}
