// Package client talks to the document-grounded answering service over its
// HTTP API. Each operation is a single request/response; nothing is retried
// here, callers own the retry policy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/priyanshu2307/Newschat/internal/logging"
	"github.com/priyanshu2307/Newschat/internal/models"
	"go.uber.org/zap"
)

// DefaultTimeout is the per-request deadline used when Opts.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a response body is decoded.
const maxResponseBytes = 4 << 20

// Operation names used in errors and logs.
const (
	OpProbeStatus   = "probe_status"
	OpCreateSession = "create_session"
	OpFetchHistory  = "fetch_history"
	OpPostMessage   = "post_message"
	OpClearHistory  = "clear_history"
)

var (
	errEmptySessionID = errors.New("session id is empty")
	errEmptyMessage   = errors.New("message is empty")
	errMissingField   = errors.New("response is missing a required field")
)

// Opts holds parameters for creating a Client.
type Opts struct {
	BaseURL    string        // required, e.g. "http://localhost:8000"
	Timeout    time.Duration // defaults to DefaultTimeout; ignored when HTTPClient is set
	HTTPClient *http.Client  // optional
	Logger     *zap.Logger   // optional
}

// Client issues typed requests against the answering service.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *zap.Logger
}

// New creates a Client.
func New(opts Opts) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("client: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be an absolute http(s) URL", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		base:   base,
		http:   hc,
		logger: logging.OrNop(opts.Logger).Named("client"),
	}, nil
}

// BaseURL returns the service root this client talks to.
func (c *Client) BaseURL() string {
	return c.base.String()
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

type historyResponse struct {
	History []models.Message `json:"history"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Response *string `json:"response"`
}

// ProbeStatus reads the service's self-reported status.
func (c *Client) ProbeStatus(ctx context.Context) (models.StatusReport, error) {
	var report models.StatusReport
	if err := c.do(ctx, OpProbeStatus, http.MethodGet, "/status", nil, false, &report); err != nil {
		return models.StatusReport{}, err
	}
	return report, nil
}

// CreateSession asks the service for a fresh session id.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	var resp sessionResponse
	if err := c.do(ctx, OpCreateSession, http.MethodPost, "/sessions", nil, false, &resp); err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", &Error{Op: OpCreateSession, Kind: KindServiceError, StatusCode: http.StatusOK, Err: errMissingField}
	}
	return resp.SessionID, nil
}

// FetchHistory returns the service-side conversation log for a session.
func (c *Client) FetchHistory(ctx context.Context, sessionID string) ([]models.Message, error) {
	if sessionID == "" {
		return nil, Invalid(OpFetchHistory, errEmptySessionID)
	}
	var resp historyResponse
	if err := c.do(ctx, OpFetchHistory, http.MethodGet, sessionPath(sessionID), nil, true, &resp); err != nil {
		return nil, err
	}
	if resp.History == nil {
		return []models.Message{}, nil
	}
	return resp.History, nil
}

// PostMessage sends a user message and returns the assistant's reply. It is
// not idempotent: a repeated call produces a second exchange server-side.
func (c *Client) PostMessage(ctx context.Context, sessionID, text string) (models.Message, error) {
	if sessionID == "" {
		return models.Message{}, Invalid(OpPostMessage, errEmptySessionID)
	}
	if strings.TrimSpace(text) == "" {
		return models.Message{}, Invalid(OpPostMessage, errEmptyMessage)
	}
	var resp messageResponse
	err := c.do(ctx, OpPostMessage, http.MethodPost, sessionPath(sessionID)+"/messages",
		messageRequest{Message: text}, true, &resp)
	if err != nil {
		return models.Message{}, err
	}
	if resp.Response == nil {
		return models.Message{}, &Error{Op: OpPostMessage, Kind: KindServiceError, StatusCode: http.StatusOK, Err: errMissingField}
	}
	return models.AssistantMessage(*resp.Response), nil
}

// ClearHistory empties the service-side log for a session. The response body
// is ignored.
func (c *Client) ClearHistory(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return Invalid(OpClearHistory, errEmptySessionID)
	}
	return c.do(ctx, OpClearHistory, http.MethodDelete, sessionPath(sessionID), nil, true, nil)
}

func sessionPath(sessionID string) string {
	return "/sessions/" + url.PathEscape(sessionID)
}

// do performs one request. A nil out discards the body. When sessionScoped is
// set a 404 is reported as KindNotFound.
func (c *Client) do(ctx context.Context, op, method, path string, body any, sessionScoped bool, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Invalid(op, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return Invalid(op, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		kind := classifyTransport(ctx, err)
		c.logger.Debug("request failed",
			zap.String("op", op), zap.Stringer("kind", kind), zap.Error(err))
		return &Error{Op: op, Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("request done",
		zap.String("op", op),
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Debug("non-success response",
			zap.String("op", op), zap.Int("status", resp.StatusCode), zap.ByteString("body", detail))
		kind := KindServiceError
		if sessionScoped && resp.StatusCode == http.StatusNotFound {
			kind = KindNotFound
		}
		return &Error{Op: op, Kind: kind, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		kind := KindServiceError
		if isTimeout(ctx, err) {
			kind = KindTimeout
		}
		return &Error{Op: op, Kind: kind, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
