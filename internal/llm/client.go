// Package llm talks to an OpenAI-compatible chat completion endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

const (
	chatPath   = "/v1/chat/completions"
	modelsPath = "/v1/models"

	DefaultTimeout      = 60 * time.Second
	DefaultProbeTimeout = 5 * time.Second
)

var (
	// ErrUnreachable wraps transport failures: refused connections, DNS errors, timeouts.
	ErrUnreachable = errors.New("llm endpoint unreachable")
	// ErrMalformedResponse is returned when a 2xx response lacks the expected fields.
	ErrMalformedResponse = errors.New("malformed llm response")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm endpoint returned status %d: %s", e.Code, utils.Truncate(e.Body, 200))
}

// IsUnreachable reports whether err means the endpoint could not be reached at all.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// Config holds client settings. Zero values take the package defaults.
type Config struct {
	BaseURL      string
	Model        string
	APIKey       string
	Timeout      time.Duration
	ProbeTimeout time.Duration
	Temperature  float64
	MaxTokens    int
}

// Observer receives the duration and outcome of each endpoint call.
type Observer func(op string, elapsed time.Duration, err error)

// Client is an OpenAI-compatible chat client. It is safe for concurrent use.
type Client struct {
	http     *resty.Client
	cfg      Config
	logger   *zap.Logger
	observer Observer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithObserver registers a callback invoked after every request.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a client for the endpoint at cfg.BaseURL.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}
	c := &Client{http: httpClient, cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = utils.OrNop(c.logger)
	return c
}

// BaseURL returns the endpoint base URL.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// Generate sends a system and a user message and returns the raw content of
// the first choice. The request is bounded by the configured timeout.
func (c *Client) Generate(ctx context.Context, system, user string) (content string, err error) {
	start := time.Now()
	defer func() { c.observe("chat", start, err) }()

	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	resp, err := c.http.R().SetContext(ctx).SetBody(req).Post(chatPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if resp.IsError() {
		return "", &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}
	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%w: body is not JSON", ErrMalformedResponse)
	}
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		return "", fmt.Errorf("%w: %s", ErrMalformedResponse, msg.String())
	}
	result := gjson.GetBytes(body, "choices.0.message.content")
	if result.Type != gjson.String {
		return "", fmt.Errorf("%w: missing choices[0].message.content", ErrMalformedResponse)
	}
	c.logger.Debug("llm: completion received",
		zap.Int("chars", len(result.Str)), zap.Duration("elapsed", time.Since(start)))
	return result.Str, nil
}

// Models lists the model ids served by the endpoint, bounded by the probe timeout.
func (c *Client) Models(ctx context.Context) (ids []string, err error) {
	start := time.Now()
	defer func() { c.observe("models", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()
	resp, err := c.http.R().SetContext(ctx).Get(modelsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if resp.IsError() {
		return nil, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}
	data := gjson.GetBytes(resp.Body(), "data")
	if !data.IsArray() {
		return nil, fmt.Errorf("%w: missing data array", ErrMalformedResponse)
	}
	for _, id := range gjson.GetBytes(resp.Body(), "data.#.id").Array() {
		ids = append(ids, id.String())
	}
	return ids, nil
}

// Probe reports whether the endpoint answers its model listing.
func (c *Client) Probe(ctx context.Context) models.LLMStatus {
	status := models.LLMStatus{URL: c.cfg.BaseURL}
	ids, err := c.Models(ctx)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Connected = true
	status.Models = ids
	return status
}

func (c *Client) observe(op string, start time.Time, err error) {
	if c.observer != nil {
		c.observer(op, time.Since(start), err)
	}
}
