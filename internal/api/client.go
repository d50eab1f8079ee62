// Package api provides the authenticated HTTP client and typed resource
// services for the task/user management backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/taskboard/client-go/internal/metrics"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 8 << 20
	maxErrorSize    = 64 << 10
)

// TokenSource supplies the current bearer token. An empty string means
// no session is active and no Authorization header is attached.
type TokenSource interface {
	Token() string
}

// Client is the single place where authentication headers are attached
// to outbound requests and where 401 responses are intercepted. Resource
// services and stores never touch auth headers themselves.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized func()
	limiter        *rate.Limiter
	log            zerolog.Logger
	metrics        *metrics.Metrics
}

// ClientConfig configures the client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond enables a client-side rate limiter when > 0.
	RequestsPerSecond int
	HTTPClient        *http.Client
	Logger            zerolog.Logger
	Metrics           *metrics.Metrics
}

// NewClient creates a client for the given backend.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		limiter:    limiter,
		log:        cfg.Logger,
		metrics:    cfg.Metrics,
	}, nil
}

// BindSession wires the session into the client: tokens supplies the
// bearer token for outbound requests, onUnauthorized is invoked exactly
// once per 401 response before the error is returned to the caller.
// Called after construction because the session store itself depends on
// the client through the auth service.
func (c *Client) BindSession(tokens TokenSource, onUnauthorized func()) {
	c.tokens = tokens
	c.onUnauthorized = onUnauthorized
}

// Do executes a request against the backend and decodes the JSON
// response into out (which may be nil for endpoints with no meaningful
// body). Failures with a response are returned as *Error; transport
// failures are returned as wrapped errors.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// The login endpoint is the one call that must never carry an
	// existing (possibly stale) token.
	if c.tokens != nil && !isLoginPath(path) {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.log.Debug().Str("method", method).Str("path", path).Msg("request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordRequest(method, 0)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.metrics.RecordRequest(method, resp.StatusCode)

	// A 401 from the login endpoint is a credentials failure, not an
	// invalidated session; it must not tear down a prior session.
	if resp.StatusCode == http.StatusUnauthorized && !isLoginPath(path) {
		c.log.Warn().Str("path", path).Msg("401 response, ending session")
		c.metrics.RecordForcedLogout()
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		// The failure is still surfaced so local error handling runs.
	}

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorSize))
		return newError(resp.StatusCode, errBody)
	}

	if out == nil {
		if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize)); err != nil {
			return fmt.Errorf("discard response body: %w", err)
		}
		return nil
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func isLoginPath(path string) bool {
	return strings.Contains(path, "/auth/login")
}
