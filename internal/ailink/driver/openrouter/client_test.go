package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ghlink/ghlink/internal/ailink/content"
	"github.com/ghlink/ghlink/internal/ailink/driver"
)

func userMessage(text string) []content.Message {
	return []content.Message{{Role: "user", Content: []content.ContentBlock{{Type: content.ContentTypeText, Text: text}}}}
}

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient("", "")
	_, err := client.Complete(context.Background(), &driver.Request{Model: "test", Messages: userMessage("hi")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestClientDefaultsBaseURL(t *testing.T) {
	client := NewClient("  ", "k")
	require.Equal(t, "https://openrouter.ai/api/v1", client.BaseURL)
	require.Equal(t, "openrouter", client.Name())
}

func TestClientRejectsMissingModel(t *testing.T) {
	client := NewClient("", "test-key")
	_, err := client.Complete(context.Background(), &driver.Request{Messages: userMessage("hi")})
	require.ErrorContains(t, err, "model is required")
}

func TestClientSendsRequestAndParsesResponse(t *testing.T) {
	var (
		mu      sync.Mutex
		headers http.Header
		payload map[string]any
		path    string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		headers = r.Header.Clone()
		path = r.URL.Path
		_ = json.Unmarshal(body, &payload)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"anthropic/claude-3.5-sonnet","choices":[{"message":{"content":"looks good"},"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":2,"total_tokens":3}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()
	client.Referer = "https://github.com/ghlink/ghlink"
	client.Title = "ghlink"

	temperature := 0.3
	maxTokens := 2000
	resp, err := client.Complete(context.Background(), &driver.Request{
		Model: "anthropic/claude-3.5-sonnet",
		Messages: []content.Message{
			{Role: "system", Content: []content.ContentBlock{{Type: content.ContentTypeText, Text: "sys"}}},
			{Role: "user", Content: []content.ContentBlock{{Type: content.ContentTypeText, Text: "usr"}}},
		},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	require.NoError(t, err)
	require.Equal(t, "looks good", resp.Text())
	require.Equal(t, "stop", resp.FinishReason)
	require.Equal(t, "anthropic/claude-3.5-sonnet", resp.Model)
	require.Equal(t, 3, resp.Usage.TotalTokens)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "/chat/completions", path)
	require.Equal(t, "Bearer test-key", headers.Get("Authorization"))
	require.Equal(t, "https://github.com/ghlink/ghlink", headers.Get("HTTP-Referer"))
	require.Equal(t, "ghlink", headers.Get("X-Title"))
	require.Equal(t, 0.3, payload["temperature"])
	require.Equal(t, float64(2000), payload["max_tokens"])
	messages, ok := payload["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
}

func TestClientErrorsOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"insufficient credits","code":402}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), &driver.Request{Model: "test", Messages: userMessage("hi")})
	var perr *driver.ProviderError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, http.StatusPaymentRequired, perr.StatusCode)
	require.Equal(t, "insufficient credits", perr.Message)
	require.Contains(t, err.Error(), "status 402")
}

func TestClientEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), &driver.Request{Model: "test", Messages: userMessage("hi")})
	require.ErrorContains(t, err, "empty response choices")
}
