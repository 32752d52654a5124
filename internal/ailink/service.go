package ailink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ghlink/ghlink/internal/ailink/content"
	"github.com/ghlink/ghlink/internal/ailink/driver"
	"github.com/ghlink/ghlink/internal/ailink/driver/openrouter"
)

const (
	DefaultModel   = "anthropic/claude-3.5-sonnet"
	DefaultTimeout = 30 * time.Second
	DefaultTitle   = "ghlink"

	defaultMaxTokens   = 2000
	defaultTemperature = 0.3
)

// ErrNotConfigured is returned when no provider key is set.
var ErrNotConfigured = errors.New("ailink provider api key not configured")

// Service sends single-turn prompts through a driver.
type Service struct {
	Driver      driver.Driver
	Model       string
	MaxTokens   int
	Temperature float64
}

// NewService builds the configured driver. It returns ErrNotConfigured when
// no key is set so callers can degrade without failing startup.
func NewService(cfg Config) (*Service, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "openrouter"
	}

	var drv driver.Driver
	switch provider {
	case "openrouter":
		client := openrouter.NewClient(cfg.BaseURL, cfg.APIKey)
		client.Timeout = cfg.Timeout
		if client.Timeout <= 0 {
			client.Timeout = DefaultTimeout
		}
		client.Referer = cfg.Referer
		client.Title = cfg.Title
		if strings.TrimSpace(client.Title) == "" {
			client.Title = DefaultTitle
		}
		drv = client
	default:
		return nil, fmt.Errorf("unsupported ailink provider: %s", cfg.Provider)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	return &Service{Driver: drv, Model: model, MaxTokens: maxTokens, Temperature: temperature}, nil
}

// Complete sends the prompt and returns the text answer. Provider failures
// come back as *Error.
func (s *Service) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if s == nil || s.Driver == nil {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(req.User) == "" {
		return nil, errors.New("prompt is required")
	}

	messages := make([]content.Message, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, textMessage("system", system))
	}
	messages = append(messages, textMessage("user", req.User))

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.MaxTokens
	}
	temperature := s.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	resp, err := s.Driver.Complete(ctx, &driver.Request{
		Model:       s.Model,
		Messages:    messages,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		PromptSlug:  req.PromptSlug,
	})
	if err != nil {
		return nil, mapProviderError(err)
	}

	model := resp.Model
	if model == "" {
		model = s.Model
	}
	return &Completion{
		Text:         strings.TrimSpace(resp.Text()),
		Model:        model,
		FinishReason: resp.FinishReason,
		Usage:        resp.Usage,
	}, nil
}

func textMessage(role, text string) content.Message {
	return content.Message{Role: role, Content: []content.ContentBlock{{Type: content.ContentTypeText, Text: text}}}
}
