package gateway

import (
	"errors"
	"strings"
)

const (
	// MediaType pins the versioned GitHub REST media type.
	MediaType = "application/vnd.github.v3+json"
	// DefaultUserAgent identifies the client when none is configured.
	DefaultUserAgent = "ghlink"
)

// ErrMissingToken is returned when a credential is built without a token.
var ErrMissingToken = errors.New("github token is required")

// Credential holds the bearer token and fixed protocol headers sent on every
// outbound call. It is immutable after construction.
type Credential struct {
	token     string
	userAgent string
}

// NewCredential validates the token and returns a credential.
func NewCredential(token, userAgent string) (*Credential, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Credential{token: token, userAgent: userAgent}, nil
}

// Headers returns a fresh header map for one request.
func (c *Credential) Headers() map[string]string {
	return map[string]string{
		"Authorization": "token " + c.token,
		"Accept":        MediaType,
		"User-Agent":    c.userAgent,
	}
}

// UserAgent returns the client identifier.
func (c *Credential) UserAgent() string {
	return c.userAgent
}

// String never exposes the token.
func (c *Credential) String() string {
	return "token ****"
}
