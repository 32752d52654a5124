package ailink

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ghlink/ghlink/internal/ailink/content"
	"github.com/ghlink/ghlink/internal/ailink/driver"
	"github.com/ghlink/ghlink/internal/ailink/driver/openrouter"
)

type stubDriver struct {
	last *driver.Request
	resp *driver.Response
	err  error
}

func (s *stubDriver) Complete(_ context.Context, req *driver.Request) (*driver.Response, error) {
	s.last = req
	return s.resp, s.err
}

func (s *stubDriver) Name() string { return "stub" }
func (s *stubDriver) Capabilities() driver.Capabilities { return driver.Capabilities{} }

func TestNewServiceRequiresKey(t *testing.T) {
	_, err := NewService(Config{})
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewService(Config{APIKey: "k", Provider: "bogus"})
	require.ErrorContains(t, err, "unsupported ailink provider")
}

func TestNewServiceDefaults(t *testing.T) {
	svc, err := NewService(Config{APIKey: "k"})
	require.NoError(t, err)
	require.Equal(t, DefaultModel, svc.Model)
	require.Equal(t, 2000, svc.MaxTokens)

	client, ok := svc.Driver.(*openrouter.Client)
	require.True(t, ok)
	require.Equal(t, DefaultTimeout, client.Timeout)
	require.Equal(t, DefaultTitle, client.Title)
}

func TestServiceComplete(t *testing.T) {
	stub := &stubDriver{resp: &driver.Response{
		Content:      []content.ContentBlock{{Type: content.ContentTypeText, Text: "  LGTM \n"}},
		FinishReason: "stop",
	}}
	svc := &Service{Driver: stub, Model: "m", MaxTokens: 100, Temperature: 0.3}

	temperature := 0.4
	completion, err := svc.Complete(context.Background(), CompletionRequest{
		PromptSlug:  "code-review",
		System:      "you review code",
		User:        "diff",
		MaxTokens:   1500,
		Temperature: &temperature,
	})
	require.NoError(t, err)
	require.Equal(t, "LGTM", completion.Text)
	require.Equal(t, "m", completion.Model)

	require.Len(t, stub.last.Messages, 2)
	require.Equal(t, "system", stub.last.Messages[0].Role)
	require.Equal(t, 1500, *stub.last.MaxTokens)
	require.Equal(t, 0.4, *stub.last.Temperature)
	require.Equal(t, "code-review", stub.last.PromptSlug)
}

func TestServiceCompleteMapsProviderErrors(t *testing.T) {
	stub := &stubDriver{err: &driver.ProviderError{Provider: "stub", StatusCode: 429, Message: "slow down"}}
	svc := &Service{Driver: stub, Model: "m"}

	_, err := svc.Complete(context.Background(), CompletionRequest{User: "x"})
	var aerr *Error
	require.True(t, errors.As(err, &aerr))
	require.Equal(t, "AILINK_PROVIDER_RATE_LIMIT", aerr.Code)

	_, err = svc.Complete(context.Background(), CompletionRequest{User: " "})
	require.ErrorContains(t, err, "prompt is required")

	var nilSvc *Service
	_, err = nilSvc.Complete(context.Background(), CompletionRequest{User: "x"})
	require.ErrorIs(t, err, ErrNotConfigured)
}
