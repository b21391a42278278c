// Package pipedrive provides a client for the Pipedrive CRM API: catalog
// product search and creation, deal reads, and deal product attachment
// writes. Authentication is the api_token query parameter; responses arrive
// in a {"success": bool, "data": ...} envelope. Transient failures (429,
// 5xx, timeouts) are retried by the wrapped transport before surfacing as
// transient APIErrors.
package pipedrive

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

	"github.com/IronGate-Business-Advisors/additional-companies-linker/internal/httpretry"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/internal/normalize"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/errors"
)

// DefaultBaseURL is the production Pipedrive API endpoint.
const DefaultBaseURL = "https://api.pipedrive.com/v1"

// Client talks to the Pipedrive REST API. It satisfies the catalog and deal
// sync CRM interfaces. Safe for concurrent use.
type Client struct {
	baseURL        string
	apiToken       string
	http           httpretry.HTTPDoer
	fuzzyThreshold float64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. The default wraps a 30s-timeout
// http.Client in the retrying transport.
func WithHTTPClient(doer httpretry.HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithBaseURL points the client at a different API host. Used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithFuzzyThreshold overrides the minimum similarity accepted by fuzzy
// product matching.
func WithFuzzyThreshold(threshold float64) Option {
	return func(c *Client) {
		if threshold > 0 {
			c.fuzzyThreshold = threshold
		}
	}
}

// New creates a Pipedrive client.
func New(apiToken string, opts ...Option) (*Client, error) {
	if apiToken == "" {
		return nil, errors.NewConfigError("pipedrive", "API token is required", nil)
	}
	c := &Client{
		baseURL:        DefaultBaseURL,
		apiToken:       apiToken,
		http:           httpretry.NewRetryClient(nil, 3),
		fuzzyThreshold: normalize.DefaultFuzzyThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// envelope is the standard Pipedrive response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// errNotFound marks a 404 internally; read paths translate it to (nil, nil).
var errNotFound = errors.New("pipedrive: not found")

// do performs one API call and unmarshals the envelope's data into out when
// out is non-nil. A 404 returns errNotFound; 429 and 5xx become transient
// APIErrors (after transport-level retries are exhausted); other non-2xx
// statuses become permanent APIErrors.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_token", c.apiToken)

	endpoint := c.baseURL + path
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return errors.NewAPIError(path, 0, fmt.Sprintf("encode request: %v", err))
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint+"?"+query.Encode(), body)
	if err != nil {
		return errors.NewAPIError(path, 0, fmt.Sprintf("build request: %v", err))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		apiErr := errors.NewAPIError(path, 0, err.Error())
		apiErr.Transient = true // network and timeout failures are retryable
		apiErr.Err = err
		return apiErr
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining for reuse
		return errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := readErrorMessage(resp.Body)
		return errors.NewAPIError(path, resp.StatusCode, msg)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return errors.NewAPIError(path, resp.StatusCode, fmt.Sprintf("decode response: %v", err))
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "request was not successful"
		}
		return errors.NewAPIError(path, resp.StatusCode, msg)
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.NewAPIError(path, resp.StatusCode, fmt.Sprintf("decode data: %v", err))
		}
	}
	return nil
}

// readErrorMessage extracts the API error string from a failed response
// body, falling back to a truncated raw body.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return "request failed"
	}
	var env envelope
	if json.Unmarshal(raw, &env) == nil && env.Error != "" {
		return env.Error
	}
	return strings.TrimSpace(string(raw))
}

// addTimeLayout is the timestamp format Pipedrive uses for add_time fields.
const addTimeLayout = "2006-01-02 15:04:05"

// parseAddTime tolerates both the legacy space-separated layout and RFC 3339.
func parseAddTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(addTimeLayout, s); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts
	}
	return time.Time{}
}
