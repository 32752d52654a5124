package ailink

import (
	"github.com/ghlink/ghlink/internal/ailink/driver"
)

// Error captures an ailink failure in a form tools can surface.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// CompletionRequest is a single-turn prompt.
type CompletionRequest struct {
	PromptSlug  string
	System      string
	User        string
	MaxTokens   int
	Temperature *float64
}

// Completion is the provider's answer.
type Completion struct {
	Text         string        `json:"text"`
	Model        string        `json:"model"`
	FinishReason string        `json:"finish_reason,omitempty"`
	Usage        *driver.Usage `json:"usage,omitempty"`
}
