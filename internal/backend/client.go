// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Configuration constants.
const (
	// DefaultTimeout bounds a whole request including reading the body.
	DefaultTimeout = 120 * time.Second

	// MaxResponseSize is the largest response body the client will read.
	MaxResponseSize = 10 * 1024 * 1024

	// UserAgent identifies the client to the backend.
	UserAgent = "syntaxchat/0.1.0"

	// feedbackBurst and feedbackEvery throttle POST /ai/feedback.
	feedbackBurst = 3
	feedbackEvery = time.Second
)

// Error variables for common backend failures.
var (
	// ErrUnauthorized matches any 401 or 403 *APIError.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMalformedResponse indicates a 2xx body that is not valid JSON.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrMissingField indicates a 2xx body without a required field.
	ErrMissingField = errors.New("missing required field")

	// ErrNoToken indicates a call that needs a token was made without one.
	ErrNoToken = errors.New("no auth token configured")

	// ErrThrottled indicates the client-side feedback limit was hit.
	ErrThrottled = errors.New("too many feedback requests")
)

// APIError is a non-2xx response.
type APIError struct {
	Status int
	Detail string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Detail)
}

// Unwrap lets errors.Is match ErrUnauthorized for auth failures.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to one backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	feedback   *rate.Limiter
}

// NewClient creates a client for baseURL authenticated with token. An empty
// token is allowed; the backend will reject the calls.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		feedback:   rate.NewLimiter(rate.Every(feedbackEvery), feedbackBurst),
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithTimeout sets the whole-request timeout. Zero disables it.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HasToken reports whether a bearer token is configured.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// logRequest logs method and path only. Headers carry the token and bodies
// carry user text.
func logRequest(req *http.Request) {
	log.Debug().Str("method", req.Method).Str("path", req.URL.Path).Msg("api request")
}

func logResponse(req *http.Request, resp *http.Response, duration time.Duration) {
	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("api response")
}

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
}

// do sends one request and returns the body of a 2xx response. in may be nil.
func (c *Client) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, errors.Wrap(err, "marshal request")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	c.setHeaders(req, in != nil)

	logRequest(req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()
	logResponse(req, resp, time.Since(start))

	data, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Detail: errorDetail(resp, data)}
	}
	return data, nil
}

// doJSON sends a request and decodes a 2xx body into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	data, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(ErrMalformedResponse, "%s %s: %v", method, path, err)
	}
	return nil
}

// readResponse reads the body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, errors.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// errorDetail extracts the "detail" field, keeping structured details as
// raw JSON, and falls back to the status line.
func errorDetail(resp *http.Response, body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 && string(payload.Detail) != "null" {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			if s != "" {
				return s
			}
		} else {
			return string(payload.Detail)
		}
	}
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
