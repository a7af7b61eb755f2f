// Package fizzy is a REST API client for the Fizzy kanban board.
//
// All mutating requests are scoped to a single account slug. Transient
// failures (connection errors and 429/5xx responses) are retried with
// exponential backoff; a Retry-After header from the server overrides
// the computed wait.
package fizzy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const requestTimeout = 30 * time.Second

// RetryPolicy controls how the client handles transient failures.
type RetryPolicy struct {
	// MaxRetries is the number of extra attempts after the first.
	MaxRetries int
	// Backoff is the base wait; attempt n waits Backoff * 2^n.
	Backoff time.Duration
}

func defaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, Backoff: time.Second}
}

// wait returns how long to pause before retrying after failed attempt n.
// A parseable Retry-After header value takes precedence over backoff.
func (p RetryPolicy) wait(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.ParseFloat(retryAfter, 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return p.Backoff * time.Duration(1<<attempt)
}

// retryableStatus reports whether a response status is worth retrying.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Client is a Fizzy API client bound to one account.
type Client struct {
	baseURL string
	slug    string
	token   string
	http    *http.Client
	retry   RetryPolicy
}

// New creates a client for the Fizzy instance at baseURL, authenticating
// with token and scoping account-level requests to accountSlug.
func New(baseURL, accountSlug, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		slug:    accountSlug,
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
		retry:   defaultRetryPolicy(),
	}
}

// accountPath prefixes path with the account slug.
func (c *Client) accountPath(path string) string {
	return "/" + c.slug + path
}

// apiResponse is a settled response after the retry loop: status, headers,
// and the fully read body.
type apiResponse struct {
	status int
	header http.Header
	body   []byte
}

// do executes one API request with retries. When allow404 is true a 404
// response is returned to the caller instead of being treated as an
// error; this bypasses the retry check entirely.
func (c *Client) do(ctx context.Context, method, path string, payload any, allow404 bool) (*apiResponse, error) {
	url := c.baseURL + path

	var encoded []byte
	if payload != nil {
		var err error
		encoded, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		var body io.Reader
		if encoded != nil {
			body = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < c.retry.MaxRetries {
				if err := sleep(ctx, c.retry.wait(attempt, "")); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("fizzy: %s %s: %w", method, path, lastErr)
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			if attempt < c.retry.MaxRetries {
				if err := sleep(ctx, c.retry.wait(attempt, "")); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("fizzy: %s %s: %w", method, path, lastErr)
		}

		if allow404 && resp.StatusCode == http.StatusNotFound {
			return &apiResponse{status: resp.StatusCode, header: resp.Header, body: data}, nil
		}

		if retryableStatus(resp.StatusCode) {
			lastErr = &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: snippet(data)}
			if attempt < c.retry.MaxRetries {
				if err := sleep(ctx, c.retry.wait(attempt, resp.Header.Get("Retry-After"))); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastErr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: snippet(data)}
		}

		return &apiResponse{status: resp.StatusCode, header: resp.Header, body: data}, nil
	}

	return nil, fmt.Errorf("fizzy: %s %s: retry loop exited unexpectedly", method, path)
}

// get issues a GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, false)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return decodeError(path, err)
	}
	return nil
}

func decodeError(path string, err error) error {
	return fmt.Errorf("failed to decode response from %s: %w", path, err)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// snippet trims an error body to a displayable length.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
