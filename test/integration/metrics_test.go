package integration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghlink/ghlink/internal/core/engine"
	"github.com/ghlink/ghlink/internal/core/gateway"
	"github.com/ghlink/ghlink/internal/observability"
	"github.com/ghlink/ghlink/internal/server"
	"github.com/ghlink/ghlink/internal/server/handlers"
	"github.com/ghlink/ghlink/internal/tools"
)

// cleanupMetrics tears down global telemetry state so each test starts clean.
// This matters in sandboxes where lingering exporters can block future binds.
func cleanupMetrics(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		if observability.PrometheusExporter != nil {
			_ = observability.PrometheusExporter.Stop()
			observability.PrometheusExporter = nil
		}
		observability.TelemetrySystem = nil
	})
}

// isPermissionError normalizes OS-specific permission errors (macOS/Linux/BSD)
// so we can gracefully skip when loopback sockets are blocked.
func isPermissionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EACCES) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{"permission denied", "operation not permitted", "not permitted"} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}

	return false
}

// initMetricsOrSkip attempts to start the metrics exporter; if the environment
// forbids network binds we skip instead of failing the entire suite.
func initMetricsOrSkip(t *testing.T) {
	t.Helper()

	if err := observability.InitMetrics("test", 0); err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping metrics tests due to sandbox permissions: %v", err)
		}
		require.NoError(t, err)
	}

	cleanupMetrics(t)
}

// listenLoopback binds IPv4 loopback explicitly (avoiding IPv6-only
// defaults) and skips when the sandbox refuses to open sockets.
func listenLoopback(t *testing.T) net.Listener {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping server setup: %v", err)
		}
		require.NoError(t, err)
	}
	return listener
}

// fakeGitHub answers repository reads and reports a core quota.
func fakeGitHub(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	ts := &httptest.Server{
		Listener: listenLoopback(t),
		Config: &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)

			w.Header().Set("X-RateLimit-Limit", "5000")
			w.Header().Set("X-RateLimit-Remaining", "4999")
			w.Header().Set("X-RateLimit-Resource", "core")
			w.Header().Set("Content-Type", "application/json")
			switch {
			case strings.HasPrefix(r.URL.Path, "/repos/octo/"):
				name := strings.TrimPrefix(r.URL.Path, "/repos/octo/")
				_, _ = fmt.Fprintf(w, `{"full_name":"octo/%s"}`, name)
			default:
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			}
		})},
	}
	ts.Start()
	t.Cleanup(ts.Close)
	return ts
}

// newStack wires gateway, admission window, catalog and HTTP server the way
// 'ghlink serve' does, without a store.
func newStack(t *testing.T, githubURL string, limit int) (*httptest.Server, *http.Client, *engine.RateLimiter) {
	t.Helper()

	credential, err := gateway.NewCredential("ghp_integration", "ghlink-test")
	require.NoError(t, err)
	limiter, err := engine.NewRateLimiter(limit, time.Minute)
	require.NoError(t, err)
	client, err := gateway.New(gateway.Options{
		BaseURL:    githubURL,
		Credential: credential,
		Admission:  limiter,
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)

	registry, err := tools.NewCatalog(tools.Deps{GitHub: client})
	require.NoError(t, err)

	srv, err := server.New(server.Options{
		Host:      "127.0.0.1",
		Port:      0,
		Registry:  registry,
		Admission: limiter,
		Health:    handlers.NewHealthManager("test"),
	})
	require.NoError(t, err)

	ts := &httptest.Server{
		Listener: listenLoopback(t),
		Config:   &http.Server{Handler: srv.Handler()},
	}
	ts.Start()
	t.Cleanup(ts.Close)
	return ts, ts.Client(), limiter
}

func invokeTool(t *testing.T, client *http.Client, base, name string, args map[string]any) (*http.Response, map[string]any) {
	t.Helper()
	body, err := json.Marshal(args)
	require.NoError(t, err)
	resp, err := client.Post(base+"/v1/tools/"+name, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck // test cleanup

	var envelope map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func TestToolCallsRecordMetrics_Integration(t *testing.T) {
	observability.InitCLILogger("test", false)
	observability.InitServerLogger("test", "info")

	initMetricsOrSkip(t)

	var calls atomic.Int64
	github := fakeGitHub(t, &calls)
	ts, client, _ := newStack(t, github.URL, 100)

	const numRequests = 40
	const numWorkers = 8

	requestChan := make(chan int, numRequests)
	for i := 0; i < numRequests; i++ {
		requestChan <- i
	}
	close(requestChan)

	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for reqNum := range requestChan {
				var resp *http.Response
				var err error
				switch reqNum % 4 {
				case 0, 1:
					payload := fmt.Sprintf(`{"owner":"octo","repo":"repo-%d"}`, reqNum)
					resp, err = client.Post(ts.URL+"/v1/tools/get_repository", "application/json", strings.NewReader(payload))
				case 2:
					resp, err = client.Post(ts.URL+"/v1/tools/no_such_tool", "application/json", strings.NewReader(`{}`))
				default:
					resp, err = client.Get(ts.URL + "/health")
				}
				if err == nil {
					_, _ = io.Copy(io.Discard, resp.Body)
					_ = resp.Body.Close()
				}
			}
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)
	assert.Equal(t, int64(numRequests/2), calls.Load(), "only get_repository reaches GitHub")

	resp, err := client.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, readErr)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	metricsContent := string(body)
	assert.Contains(t, metricsContent, "test_http_requests_total", "Should have HTTP request metrics")
	assert.Contains(t, metricsContent, "test_tool_calls_total", "Should have tool call metrics")
	assert.Contains(t, metricsContent, "test_github_api_calls_total", "Should have gateway metrics")
	assert.True(t, elapsed < 5*time.Second, "Load test should complete in reasonable time")
	t.Logf("Load test completed: %d requests in %v (%.2f req/s)", numRequests, elapsed, float64(numRequests)/elapsed.Seconds())
}

func TestAdmissionWindowBoundsGitHubCalls_Integration(t *testing.T) {
	observability.InitCLILogger("test", false)
	observability.InitServerLogger("test", "info")

	var calls atomic.Int64
	github := fakeGitHub(t, &calls)
	ts, client, limiter := newStack(t, github.URL, 2)

	for i := 0; i < 2; i++ {
		resp, envelope := invokeTool(t, client, ts.URL, "get_repository", map[string]any{"owner": "octo", "repo": "hello"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, envelope["success"])
	}
	assert.Equal(t, 2, limiter.Snapshot().Used)

	resp, err := client.Get(ts.URL + "/v1/admission")
	require.NoError(t, err)
	var report server.AdmissionReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, 2, report.Used)
	assert.Equal(t, 0, report.Available)
	assert.Greater(t, report.NextSlotInSeconds, 0.0)
	assert.Equal(t, int64(2), calls.Load())
}

func TestToolFailureKindHeader_Integration(t *testing.T) {
	observability.InitCLILogger("test", false)
	observability.InitServerLogger("test", "info")

	var calls atomic.Int64
	github := fakeGitHub(t, &calls)
	ts, client, _ := newStack(t, github.URL, 10)

	resp, envelope := invokeTool(t, client, ts.URL, "get_user", map[string]any{"username": "ghost"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", resp.Header.Get(server.FailureKindHeader))
	assert.Equal(t, false, envelope["success"])

	resp, envelope = invokeTool(t, client, ts.URL, "get_repository", map[string]any{"owner": "octo"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", envelope["kind"])
	assert.Equal(t, int64(1), calls.Load(), "validation failures never reach GitHub")
}

func TestMetricsEndpoint_WithTelemetryDisabled(t *testing.T) {
	observability.InitCLILogger("test", false)
	observability.InitServerLogger("test", "info")

	originalExporter := observability.PrometheusExporter
	originalTelemetry := observability.TelemetrySystem
	observability.PrometheusExporter = nil
	observability.TelemetrySystem = nil
	t.Cleanup(func() {
		observability.PrometheusExporter = originalExporter
		observability.TelemetrySystem = originalTelemetry
	})
	t.Setenv("GHLINK_METRICS_ENABLED", "false")

	var calls atomic.Int64
	github := fakeGitHub(t, &calls)
	ts, client, _ := newStack(t, github.URL, 10)

	resp, err := client.Get(ts.URL + "/v1/tools")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
