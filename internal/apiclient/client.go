// Package apiclient wraps every outbound call to the remote resource API.
// It attaches the bearer credential, tags requests with a correlation id and
// turns non-2xx responses into typed errors. It never touches store state;
// callers own reconciliation.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenSource supplies the current bearer credential, when one exists.
type TokenSource interface {
	Token() (string, bool)
}

// Client is the single gateway to the remote API.
type Client struct {
	baseURL string
	apiPath string
	http    *http.Client
	tokens  TokenSource
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the transport timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New builds a Client for the API at baseURL. apiPath is the tenant
// namespace segment used in /api/{path}/... routes. tokens may be nil for
// a client that only hits public endpoints.
func New(baseURL, apiPath string, tokens TokenSource, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiPath: apiPath,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		log:     log.Named("apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scoped returns the path prefixed with the tenant namespace, e.g.
// Scoped("cart/%s", id) -> "/api/{path}/cart/{id}".
func (c *Client) Scoped(format string, args ...any) string {
	return "/api/" + c.apiPath + "/" + fmt.Sprintf(format, args...)
}

// Do performs one JSON call. body, when non-nil, is marshalled as the
// request body; out, when non-nil, receives the decoded 2xx payload.
// Non-2xx responses come back as *Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// Upload performs a multipart POST of a single file under the given form
// field name. out receives the decoded 2xx payload.
func (c *Client) Upload(ctx context.Context, path, field, filename string, file io.Reader, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("build multipart payload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("read upload source: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize multipart payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	requestID := uuid.New().String()
	req.Header.Set("X-Request-Id", requestID)
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseError(resp.StatusCode, raw)
		c.log.Warn("api error",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.Strings("messages", apiErr.Messages))
		return apiErr
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
