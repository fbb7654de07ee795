package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kvault/pkg/config"
	"kvault/pkg/errors"
	"kvault/pkg/logger"
	"kvault/pkg/ratelimit"
	"kvault/pkg/retry"
)

// Response is the result of a successful request against the kvault server.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	Duration   time.Duration
}

// JSON decodes the response body into target.
func (r *Response) JSON(target interface{}) error {
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// Client issues requests against a kvault server, classifying failures and
// transparently retrying transient ones on idempotent verbs.
//
// Configuration is shared mutable state: callers mutating the Config while
// requests are in flight must supply their own synchronization.
type Client struct {
	config     *config.Config
	httpClient *http.Client
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// New creates a client from the given configuration. A nil config uses the
// process-wide defaults; a nil logger uses the global logger.
func New(cfg *config.Config, log logger.Logger) *Client {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logger.GetLogger()
	}

	transport := http.DefaultTransport
	if cfg.TLSSkipVerify {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		transport = t
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit != nil && cfg.RateLimit.RequestsPerMinute > 0 {
		limiter = ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		limiter: limiter,
		logger:  log,
	}
}

// Config returns the configuration the client reads on every request.
func (c *Client) Config() *config.Config {
	return c.config
}

// SetHTTPClient replaces the underlying HTTP transport. Intended for tests
// and callers that need custom TLS or proxy setups.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// retryingVerbs encodes the default retry wrapping per HTTP verb. GET, PUT
// and DELETE are idempotent against the kvault API and safe to replay; POST
// and PATCH are not and must never be silently retried. Adding a verb is a
// one-line table entry.
var retryingVerbs = map[string]bool{
	http.MethodGet:    true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPost:   false,
	http.MethodPatch:  false,
}

// Get issues a GET request. Params are form-encoded into the query string.
func (c *Client) Get(ctx context.Context, path string, params map[string]string, headers map[string]string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, pathWithQuery(path, params), nil, headers)
}

// Delete issues a DELETE request. Params are form-encoded into the query string.
func (c *Client) Delete(ctx context.Context, path string, params map[string]string, headers map[string]string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, pathWithQuery(path, params), nil, headers)
}

// Put issues a PUT request with the given body.
func (c *Client) Put(ctx context.Context, path string, body interface{}, headers map[string]string) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body, headers)
}

// Post issues a POST request with the given body. POST is treated as
// non-idempotent and is never wrapped in retries.
func (c *Client) Post(ctx context.Context, path string, body interface{}, headers map[string]string) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, headers)
}

// Patch issues a PATCH request with the given body. PATCH is treated as
// non-idempotent and is never wrapped in retries.
func (c *Client) Patch(ctx context.Context, path string, body interface{}, headers map[string]string) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body, headers)
}

// Do routes a request through the retry-wrapping path or the single-attempt
// path depending on the verb table.
func (c *Client) Do(ctx context.Context, verb, path string, body interface{}, headers map[string]string) (*Response, error) {
	if retryingVerbs[verb] {
		return c.RequestWithRetries(ctx, verb, path, body, headers)
	}
	return c.Request(ctx, verb, path, body, headers)
}

// RequestWithRetries wraps a single request in the retry orchestrator using
// the configured policy. When no retry policy is configured the request is
// issued exactly once, whatever the outcome. This is the only path that reads
// the policy: POST and PATCH callers cannot pick up retry behavior without
// invoking the low-level Request path on their own.
func (c *Client) RequestWithRetries(ctx context.Context, verb, path string, body interface{}, headers map[string]string) (*Response, error) {
	rc := c.config.Retry
	if rc == nil {
		return c.Request(ctx, verb, path, body, headers)
	}

	policy := buildPolicy(rc, c.logger)
	return retry.DoWithResult(ctx, policy, func() (*Response, error) {
		return c.Request(ctx, verb, path, body, headers)
	})
}

// buildPolicy translates the configured retry parameters into an orchestrator
// policy. An empty retryable list falls back to the default transient set.
func buildPolicy(rc *config.RetryConfig, log logger.Logger) *retry.Policy {
	kinds := make([]errors.Kind, 0, len(rc.RetryableErrors))
	for _, name := range rc.RetryableErrors {
		kinds = append(kinds, errors.Kind(name))
	}
	if len(kinds) == 0 {
		kinds = []errors.Kind{errors.KindConnection, errors.KindServer}
	}

	return &retry.Policy{
		Attempts:  rc.Attempts,
		Retryable: kinds,
		Backoff: &retry.ExponentialBackoff{
			Base:         rc.Base,
			MaxWait:      rc.MaxWait,
			JitterFactor: rc.JitterFactor,
		},
		Logger: log,
	}
}

// Request performs exactly one attempt against the server and classifies the
// outcome. Failures before a response is obtained are connection errors; 4xx
// responses are client errors; 5xx and any other non-success status are
// server errors. Statuses in the 200-399 range are success.
func (c *Client) Request(ctx context.Context, verb, path string, body interface{}, headers map[string]string) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, errors.FromTransport(err)
	}

	url := c.buildURL(path)
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, verb, url, reader)
	if err != nil {
		return nil, errors.FromTransport(err)
	}

	for key, value := range c.config.Headers {
		req.Header.Set(key, value)
	}
	if c.config.Token != "" {
		req.Header.Set(c.config.TokenHeader, c.config.Token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	if c.limiter != nil {
		c.limiter.Wait()
	}

	start := time.Now()
	c.logger.DebugWithFields("sending request", map[string]interface{}{
		"method": verb,
		"url":    url,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("request failed", map[string]interface{}{
			"method":   verb,
			"url":      url,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, errors.FromTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.FromTransport(err)
	}
	duration := time.Since(start)

	c.logger.DebugWithFields("request completed", map[string]interface{}{
		"method":   verb,
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return &Response{
			StatusCode: resp.StatusCode,
			Body:       data,
			Header:     resp.Header,
			Duration:   duration,
		}, nil
	}

	cerr := errors.FromResponse(resp.StatusCode, data)
	c.logger.WarnWithFields("request rejected", map[string]interface{}{
		"method": verb,
		"url":    url,
		"status": resp.StatusCode,
		"kind":   string(cerr.Kind),
	})
	return nil, cerr
}

// GetJSON issues a GET request and decodes the JSON response into target.
func (c *Client) GetJSON(ctx context.Context, path string, params map[string]string, target interface{}) error {
	resp, err := c.Get(ctx, path, params, nil)
	if err != nil {
		return err
	}
	return resp.JSON(target)
}

// buildURL joins the configured address and the request path.
func (c *Client) buildURL(path string) string {
	return strings.TrimSuffix(c.config.Address, "/") + "/" + strings.TrimPrefix(path, "/")
}

// encodeBody turns a request body into bytes. Nil stays nil, raw bytes and
// strings pass through, everything else is JSON-encoded.
func encodeBody(body interface{}) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		return data, nil
	}
}
