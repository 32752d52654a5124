package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/ghlink/ghlink/internal/core"
	"github.com/ghlink/ghlink/internal/metrics"
)

const (
	// DefaultBaseURL is the public GitHub REST host.
	DefaultBaseURL = "https://api.github.com"
	// DefaultTimeout bounds the network phase of one call.
	DefaultTimeout = 30 * time.Second
)

// Admitter gates outbound calls. engine.RateLimiter satisfies it.
type Admitter interface {
	Acquire(ctx context.Context) (time.Duration, error)
}

// QuotaObserver receives the quota GitHub reports on each response.
type QuotaObserver interface {
	RecordQuota(ctx context.Context, quota core.Quota) error
}

// CallOptions carries the optional parts of a call.
type CallOptions struct {
	Body    any
	Query   url.Values
	Headers map[string]string
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Credential *Credential
	Admission  Admitter
	HTTPClient *http.Client
	Timeout    time.Duration
	Observer   QuotaObserver
	Logger     *logging.Logger
	Clock      func() time.Time
}

// Client is the single path to the GitHub REST API. One Client is shared by
// every tool invocation; each verb call owns its response for its lifetime.
type Client struct {
	base       *url.URL
	credential *Credential
	admission  Admitter
	http       *http.Client
	timeout    time.Duration
	observer   QuotaObserver
	logger     *logging.Logger
	clock      func() time.Time
}

// New validates options and returns a Client.
func New(opts Options) (*Client, error) {
	if opts.Credential == nil {
		return nil, ErrMissingToken
	}

	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https: %q", raw)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	client := &Client{
		base:       base,
		credential: opts.Credential,
		admission:  opts.Admission,
		http:       opts.HTTPClient,
		timeout:    opts.Timeout,
		observer:   opts.Observer,
		logger:     opts.Logger,
		clock:      opts.Clock,
	}
	if client.http == nil {
		client.http = &http.Client{}
	}
	if client.timeout <= 0 {
		client.timeout = DefaultTimeout
	}
	if client.clock == nil {
		client.clock = time.Now
	}
	return client, nil
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Get issues a GET and decodes the body into out.
func (c *Client) Get(ctx context.Context, endpoint string, opts *CallOptions, out any) error {
	_, err := c.do(ctx, http.MethodGet, endpoint, opts, out)
	return err
}

// Post issues a POST and decodes the body into out.
func (c *Client) Post(ctx context.Context, endpoint string, opts *CallOptions, out any) error {
	_, err := c.do(ctx, http.MethodPost, endpoint, opts, out)
	return err
}

// Put issues a PUT and decodes the body into out.
func (c *Client) Put(ctx context.Context, endpoint string, opts *CallOptions, out any) error {
	_, err := c.do(ctx, http.MethodPut, endpoint, opts, out)
	return err
}

// Patch issues a PATCH and decodes the body into out.
func (c *Client) Patch(ctx context.Context, endpoint string, opts *CallOptions, out any) error {
	_, err := c.do(ctx, http.MethodPatch, endpoint, opts, out)
	return err
}

// Delete issues a DELETE. It reports true only for 204 No Content.
func (c *Client) Delete(ctx context.Context, endpoint string, opts *CallOptions) (bool, error) {
	status, err := c.do(ctx, http.MethodDelete, endpoint, opts, nil)
	if err != nil {
		return false, err
	}
	return status == http.StatusNoContent, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, opts *CallOptions, out any) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts == nil {
		opts = &CallOptions{}
	}

	if c.admission != nil {
		waited, err := c.admission.Acquire(ctx)
		metrics.RecordAdmissionWait(waited)
		if err != nil {
			failure := ClassifyTransport(fmt.Errorf("admission wait: %w", err))
			c.logFailure(method, endpoint, failure)
			return 0, failure
		}
	}

	started := c.clock()
	status, err := c.roundTrip(ctx, method, endpoint, opts, out)
	elapsed := c.clock().Sub(started)

	outcome := "success"
	if failure, ok := AsFailure(err); ok {
		outcome = string(failure.Kind)
		c.logFailure(method, endpoint, failure)
	} else if c.logger != nil {
		c.logger.Debug("github call",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("status", status),
			zap.Duration("duration", elapsed))
	}
	metrics.RecordAPICall(method, outcome, elapsed)

	return status, err
}

// roundTrip is the scoped part of a call: the timeout context and the
// response body both end when it returns.
func (c *Client) roundTrip(ctx context.Context, method, endpoint string, opts *CallOptions, out any) (int, error) {
	target, err := c.resolve(endpoint, opts.Query)
	if err != nil {
		return 0, classifyRequest(err)
	}

	var body io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return 0, classifyRequest(fmt.Errorf("encode request body: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, target, body)
	if err != nil {
		return 0, classifyRequest(err)
	}
	for name, value := range c.credential.Headers() {
		req.Header.Set(name, value)
	}
	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, value := range opts.Headers {
		req.Header.Set(name, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, ClassifyTransport(err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	c.observeQuota(ctx, resp.Header)

	raw, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		// the status decides the kind; a partial body only feeds the message
		return resp.StatusCode, Classify(resp.StatusCode, raw)
	}
	if readErr != nil {
		return resp.StatusCode, ClassifyTransport(fmt.Errorf("read response body: %w", readErr))
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, classifyDecode(resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}

func (c *Client) resolve(endpoint string, query url.Values) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", errors.New("endpoint is required")
	}

	rel, err := url.Parse(strings.TrimLeft(endpoint, "/"))
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if rel.IsAbs() || rel.Host != "" {
		return "", fmt.Errorf("endpoint must be relative: %q", endpoint)
	}

	target := *c.base
	target.Path = c.base.Path + "/" + rel.Path
	target.RawPath = ""

	values := rel.Query()
	for key, vals := range query {
		for _, v := range vals {
			values.Add(key, v)
		}
	}
	target.RawQuery = values.Encode()

	return target.String(), nil
}

func (c *Client) observeQuota(ctx context.Context, header http.Header) {
	if c.observer == nil {
		return
	}
	quota, ok := ParseQuota(header, c.clock().UTC())
	if !ok {
		return
	}
	if err := c.observer.RecordQuota(ctx, quota); err != nil && c.logger != nil {
		c.logger.Debug("quota observer failed", zap.Error(err))
	}
}

func (c *Client) logFailure(method, endpoint string, failure *Failure) {
	if c.logger == nil {
		return
	}
	c.logger.Warn("github call failed",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.String("kind", string(failure.Kind)),
		zap.Int("status", failure.StatusCode),
		zap.String("message", failure.Message))
}

// ParseQuota reads GitHub's X-RateLimit-* headers. It returns false when the
// response carries no quota information.
func ParseQuota(header http.Header, observedAt time.Time) (core.Quota, bool) {
	limitRaw := header.Get("X-RateLimit-Limit")
	if limitRaw == "" {
		return core.Quota{}, false
	}
	limit, err := strconv.Atoi(limitRaw)
	if err != nil {
		return core.Quota{}, false
	}

	quota := core.Quota{
		Resource:   header.Get("X-RateLimit-Resource"),
		Limit:      limit,
		ObservedAt: observedAt,
	}
	if quota.Resource == "" {
		quota.Resource = "core"
	}
	if v, err := strconv.Atoi(header.Get("X-RateLimit-Remaining")); err == nil {
		quota.Remaining = v
	}
	if v, err := strconv.Atoi(header.Get("X-RateLimit-Used")); err == nil {
		quota.Used = v
	} else {
		quota.Used = quota.Limit - quota.Remaining
	}
	if v, err := strconv.ParseInt(header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		quota.ResetAt = time.Unix(v, 0).UTC()
	}
	return quota, true
}
