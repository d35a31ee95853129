package api

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
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 15 * time.Second

// Client is a thin wrapper over the remote inventory API: one method per
// domain action, JSON in and out, and transport failures normalized into the
// Kind taxonomy. It performs no retries; retry policy belongs to the caller.
type Client struct {
	baseURL string
	httpc   *http.Client
	token   string
	logger  *slog.Logger
}

type Option func(*Client)

// WithBearerToken switches the client from cookie-session auth to bearer
// tokens; the token is sent on every request.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, opts ...Option) *Client {
	// The jar carries the session cookie in cookie mode; it is harmless in
	// bearer mode.
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: defaultTimeout, Jar: jar},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// serverError is the error envelope the API returns on non-2xx statuses.
type serverError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// do performs one JSON round trip. A nil in sends no body; a nil out
// discards the response body. Mutating requests carry an X-Request-ID so
// failures can be correlated with server logs.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if method != http.MethodGet {
		reqID := uuid.NewString()
		req.Header.Set("X-Request-ID", reqID)
		c.logger.Debug("api request", "method", method, "path", path, "request_id", reqID)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &Error{Kind: KindUnavailable, Message: "cannot reach the inventory server, check your connection"}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode >= 300 {
		return c.statusError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) statusError(resp *http.Response) error {
	msg := serverMessage(resp)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if msg == "" {
			msg = "session expired, please log in again"
		}
		return &Error{Kind: KindUnauthenticated, Message: msg}
	case resp.StatusCode == http.StatusNotFound:
		if msg == "" {
			msg = "record not found"
		}
		return &Error{Kind: KindNotFound, Message: msg}
	case resp.StatusCode == http.StatusConflict:
		if msg == "" {
			msg = "the record is still in use"
		}
		return &Error{Kind: KindConflict, Message: msg}
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		if msg == "" {
			msg = "the server rejected the request"
		}
		return &Error{Kind: KindValidation, Message: msg}
	default:
		if msg == "" {
			msg = fmt.Sprintf("the inventory server failed with status %d", resp.StatusCode)
		}
		return &Error{Kind: KindUnavailable, Message: msg}
	}
}

// serverMessage pulls the message out of the error envelope, falling back to
// the raw body for servers that return plain text.
func serverMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var se serverError
	if err := json.Unmarshal(data, &se); err == nil {
		if se.Message != "" {
			return se.Message
		}
		if se.Error != "" {
			return se.Error
		}
		return ""
	}
	return string(data)
}
