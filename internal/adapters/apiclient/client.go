package apiclient

// Package apiclient is the thin JSON transport used to reach the identity service.
// It owns the in-memory bearer credential and nothing else: no retries, no backoff,
// no opinion about authentication state.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"
)

const (
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 1 << 20
	headerRequestID  = "X-Request-ID"
)

// CredentialReader reads the durable copy of the credential.
// It is consulted only until the first SetCredential call.
type CredentialReader func(ctx context.Context) (string, error)

// Config configures a Client.
type Config struct {
	// BaseURL is prefixed to every endpoint (e.g. "http://localhost:3001/api").
	BaseURL string
	// Timeout bounds each request; defaults to 10s when zero.
	Timeout time.Duration
	// HTTPClient overrides the underlying client (tests). Timeout and jar are left untouched when set.
	HTTPClient *http.Client
	// Fallback reads the durable credential before the session has restored.
	Fallback CredentialReader
	Logger   *slog.Logger
}

// Client attaches the current bearer credential to outgoing JSON requests.
// It is safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	fallback CredentialReader
	logger   *slog.Logger

	mu    sync.RWMutex
	token string
	// owned is set by the first SetCredential; from then on the in-memory
	// value is authoritative, including an explicitly cleared one.
	owned bool
}

// New constructs a Client.
func New(cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout, Jar: jar}
	}

	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		http:     httpClient,
		fallback: cfg.Fallback,
		logger:   logger,
	}, nil
}

// SetCredential replaces the in-memory credential. An empty token clears it
// and stops the durable copy from being consulted.
func (c *Client) SetCredential(token string) {
	c.mu.Lock()
	c.token = token
	c.owned = true
	c.mu.Unlock()
}

// Credential returns the in-memory credential. Before the session has set one
// it falls back to the durable copy; read errors yield "".
func (c *Client) Credential(ctx context.Context) string {
	c.mu.RLock()
	token, owned := c.token, c.owned
	c.mu.RUnlock()
	if token != "" || owned || c.fallback == nil {
		return token
	}

	stored, err := c.fallback(ctx)
	if err != nil {
		c.logger.DebugContext(ctx, "read durable credential failed", "error", err)
		return ""
	}
	return stored
}

// RequestOptions describes a single request.
type RequestOptions struct {
	// Method defaults to GET.
	Method string
	// Header values override the JSON defaults.
	Header http.Header
	// Body is sent as-is when it is a string, []byte or io.Reader, otherwise JSON-encoded.
	Body any
}

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string { return e.Message }

// Send issues a request to endpoint and decodes a JSON response into out (when non-nil).
func (c *Client) Send(ctx context.Context, endpoint string, opts RequestOptions, out any) error {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	body, err := encodeBody(opts.Body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, vals := range opts.Header {
		req.Header.Del(k)
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get(headerRequestID) == "" {
		req.Header.Set(headerRequestID, uuid.NewString())
	}
	if token := c.Credential(ctx); token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.DebugContext(ctx, "close response body", "error", cerr)
		}
	}()

	c.logger.DebugContext(ctx, "identity request",
		"method", method,
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"request_id", req.Header.Get(headerRequestID),
		"duration", time.Since(start),
	)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newHTTPError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, endpoint, err)
	}
	return nil
}

func (c *Client) url(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case io.Reader:
		return b, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		return bytes.NewReader(data), nil
	}
}

// newHTTPError prefers the server's message field, then its error field.
func newHTTPError(status int, body []byte) *HTTPError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = strings.TrimSpace(payload.Message)
		if msg == "" {
			msg = strings.TrimSpace(payload.Error)
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP error, status %d", status)
	}
	return &HTTPError{Status: status, Message: msg}
}

// AsHTTPError extracts an *HTTPError from err.
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
