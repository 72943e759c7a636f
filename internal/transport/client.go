// Package transport implements the HTTP client the rest of modelman
// talks to the backend through: per-request timeouts, retry with
// exponential backoff, cancellation, and coalescing of duplicate reads.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"modelman/pkg/logger"
)

// Default tunables for requests that do not override them.
const (
	DefaultTimeout   = 10 * time.Second
	DefaultBaseDelay = 1 * time.Second
	DefaultRetries   = 3
)

// RetryPolicy governs attempt count and inter-attempt delay.
type RetryPolicy struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// Exponential doubles the delay for each subsequent retry.
	Exponential bool
}

// DefaultRetryPolicy returns the standard policy: 3 retries, 1s base,
// exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: DefaultRetries, BaseDelay: DefaultBaseDelay, Exponential: true}
}

// Delay returns the suspension before retry attempt n (0-indexed).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if !p.Exponential {
		return p.BaseDelay
	}
	return p.BaseDelay << uint(attempt)
}

// Descriptor describes one request before execution. Descriptors are
// constructed per call and never mutated.
type Descriptor struct {
	Method  string
	Path    string
	Body    any
	Timeout time.Duration
	Retry   RetryPolicy
}

// Response is the successful outcome of a Descriptor.
type Response struct {
	Status int
	Body   []byte
}

// Config holds client construction parameters.
type Config struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
	Retry    RetryPolicy
}

// Client issues individual requests against the backend. It is the only
// component that performs network I/O.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	timeout    time.Duration
	retry      RetryPolicy
}

// NewClient creates a transport client for the given backend.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry.BaseDelay <= 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiToken:   cfg.APIToken,
		httpClient: &http.Client{},
		timeout:    cfg.Timeout,
		retry:      cfg.Retry,
	}
}

// Do executes the descriptor, retrying retryable failures per its policy.
// Cancellation of ctx aborts the in-flight attempt and is surfaced as a
// cancellation error, never retried.
func (c *Client) Do(ctx context.Context, d Descriptor) (*Response, error) {
	if d.Timeout <= 0 {
		d.Timeout = c.timeout
	}
	if d.Retry.BaseDelay <= 0 {
		d.Retry = c.retry
	}

	log := logger.With("transport")
	requestID := uuid.NewString()

	var lastErr *Error
	for attempt := 0; ; attempt++ {
		resp, err := c.attempt(ctx, d, requestID)
		if err == nil {
			return resp, nil
		}

		lastErr = AsError(err)
		if lastErr.Code == CodeCanceled || !lastErr.Retryable() || attempt >= d.Retry.MaxRetries {
			return nil, lastErr
		}

		delay := d.Retry.Delay(attempt)
		log.Warn().
			Str("request_id", requestID).
			Str("method", d.Method).
			Str("path", d.Path).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Str("reason", lastErr.Message).
			Msg("Retrying request")

		select {
		case <-ctx.Done():
			return nil, &Error{Code: CodeCanceled, Message: ctx.Err().Error()}
		case <-time.After(delay):
		}
	}
}

// attempt performs a single request with its own timeout.
func (c *Client) attempt(ctx context.Context, d Descriptor, requestID string) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	var reqBody io.Reader
	if d.Body != nil {
		data, err := json.Marshal(d.Body)
		if err != nil {
			return nil, &Error{Code: CodeUnknown, Message: fmt.Sprintf("marshal request body: %v", err)}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(attemptCtx, d.Method, c.baseURL+d.Path, reqBody)
	if err != nil {
		return nil, &Error{Code: CodeUnknown, Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if d.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Distinguish caller cancellation from the per-attempt timeout:
		// only the latter is retryable.
		if ctx.Err() != nil {
			return nil, &Error{Code: CodeCanceled, Message: ctx.Err().Error()}
		}
		if errors.Is(err, context.DeadlineExceeded) || attemptCtx.Err() == context.DeadlineExceeded {
			return nil, &Error{Code: CodeTimeout, Message: fmt.Sprintf("request timed out after %s", d.Timeout)}
		}
		return nil, &Error{Code: CodeNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &Error{Code: CodeCanceled, Message: ctx.Err().Error()}
		}
		return nil, &Error{Code: CodeNetwork, Message: fmt.Sprintf("read response body: %v", err)}
	}

	if resp.StatusCode >= 400 {
		return nil, parseErrorBody(resp.StatusCode, body)
	}
	return &Response{Status: resp.StatusCode, Body: body}, nil
}

// DoJSON executes the descriptor and decodes the response body into out.
// A nil out discards the body.
func (c *Client) DoJSON(ctx context.Context, d Descriptor, out any) error {
	resp, err := c.Do(ctx, d)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &Error{Code: CodeUnknown, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}
