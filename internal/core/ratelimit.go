package core

import "time"

// Quota captures the rate limit GitHub reported for one resource bucket
// (core, search, graphql, ...) in its X-RateLimit-* response headers.
type Quota struct {
	Resource   string    `json:"resource"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	Used       int       `json:"used"`
	ResetAt    time.Time `json:"reset_at"`
	ObservedAt time.Time `json:"observed_at"`
}
