package moltbook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/harunnryd/moltbot/internal/clock"
	moltErrors "github.com/harunnryd/moltbot/internal/errors"
)

const (
	DefaultBaseURL      = "https://www.moltbook.com"
	DefaultUserAgent    = "moltbot-agent/1.0"
	DefaultTimeout      = 30 * time.Second
	DefaultMaxAttempts  = 3
	DefaultRetryBackoff = time.Second

	maxResponseBytes = 4 << 20
)

// Platform is the set of moltbook actions the agent performs. Client and
// DryRunClient both satisfy it.
type Platform interface {
	GetFeed(ctx context.Context, opts FeedOptions) (*Feed, error)
	CreatePost(ctx context.Context, data PostData) (Result, error)
	CreateComment(ctx context.Context, data CommentData) (Result, error)
	Vote(ctx context.Context, data VoteData) error
}

// NetworkPolicy approves every outbound URL before a request is built.
type NetworkPolicy interface {
	CanAccessNetwork(rawURL string) bool
}

type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL   string
	AuthToken string
	UserAgent string

	// Timeout bounds each attempt. Defaults to DefaultTimeout.
	Timeout time.Duration

	// MaxAttempts counts the first try. Defaults to DefaultMaxAttempts.
	MaxAttempts int

	// RetryBackoff is doubled after every failed attempt.
	RetryBackoff time.Duration

	// Policy is required; the client refuses to talk to unapproved hosts.
	Policy NetworkPolicy

	HTTPClient *http.Client
	Clock      clock.Clock
}

// Client talks to the moltbook REST API.
type Client struct {
	baseURL      string
	authToken    string
	userAgent    string
	timeout      time.Duration
	maxAttempts  int
	retryBackoff time.Duration
	policy       NetworkPolicy
	httpClient   *http.Client
	clock        clock.Clock
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Policy == nil {
		return nil, moltErrors.InvalidInput("moltbook client requires a network policy")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, moltErrors.InvalidInput(fmt.Sprintf("invalid moltbook base url %q", cfg.BaseURL))
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	backoff := cfg.RetryBackoff
	if backoff < 0 {
		backoff = 0
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}

	return &Client{
		baseURL:      baseURL,
		authToken:    cfg.AuthToken,
		userAgent:    userAgent,
		timeout:      timeout,
		maxAttempts:  maxAttempts,
		retryBackoff: backoff,
		policy:       cfg.Policy,
		httpClient:   httpClient,
		clock:        clk,
	}, nil
}

func (c *Client) GetFeed(ctx context.Context, opts FeedOptions) (*Feed, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	if opts.Sort != "" {
		params.Set("sort", string(opts.Sort))
	}
	if opts.Submolt != "" {
		params.Set("submolt", opts.Submolt)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Cursor != "" {
		params.Set("cursor", opts.Cursor)
	}

	path := "/api/v1/feed"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var feed Feed
	if err := c.do(ctx, http.MethodGet, path, nil, &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}

func (c *Client) CreatePost(ctx context.Context, data PostData) (Result, error) {
	if err := data.Validate(); err != nil {
		return Result{}, err
	}
	slog.Info("Creating post", "submolt", data.Submolt, "title", data.Title)

	var result Result
	err := c.do(ctx, http.MethodPost, "/api/v1/posts", data, &result)
	return result, err
}

func (c *Client) CreateComment(ctx context.Context, data CommentData) (Result, error) {
	if err := data.Validate(); err != nil {
		return Result{}, err
	}
	slog.Info("Creating comment", "post_id", data.PostID)

	var result Result
	err := c.do(ctx, http.MethodPost, "/api/v1/comments", data, &result)
	return result, err
}

func (c *Client) Vote(ctx context.Context, data VoteData) error {
	if err := data.Validate(); err != nil {
		return err
	}
	slog.Info("Voting", "target_id", data.TargetID, "direction", string(data.Direction))

	return c.do(ctx, http.MethodPost, "/api/v1/votes", data, nil)
}

// do sends one logical request, retrying transient failures with
// exponential backoff. out may be nil when the body is not needed.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	target := c.baseURL + path
	if !c.policy.CanAccessNetwork(target) {
		return moltErrors.PermissionDenied(fmt.Sprintf("network access denied: %s", target))
	}

	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return moltErrors.InvalidInput(fmt.Sprintf("encode request: %v", err))
		}
		payload = encoded
	}

	backoff := c.retryBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		slog.Debug("Making request", "method", method, "url", target, "attempt", attempt)

		raw, err := c.attempt(ctx, method, target, payload)
		if err == nil {
			if out == nil || len(raw) == 0 {
				return nil
			}
			if err := json.Unmarshal(raw, out); err != nil {
				return moltErrors.Internal(fmt.Sprintf("decode response from %s: %v", path, err))
			}
			return nil
		}

		lastErr = err
		if !moltErrors.IsRetryable(err) || attempt == c.maxAttempts {
			break
		}

		slog.Warn("Request failed, retrying", "url", target, "attempt", attempt, "wait", backoff, "error", err)
		if err := c.sleep(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
	}

	slog.Error("Request failed", "method", method, "url", target, "error", lastErr)
	return lastErr
}

func (c *Client) attempt(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, target, reader)
	if err != nil {
		return nil, moltErrors.InvalidInput(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, moltErrors.Transient(fmt.Sprintf("%s %s: %v", method, target, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, moltErrors.Transient(fmt.Sprintf("read response: %v", err))
	}

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	return raw, nil
}

func classifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return moltErrors.PermissionDenied(fmt.Sprintf("unauthorized, check auth token (HTTP %d)", code))
	case code == http.StatusNotFound:
		return moltErrors.NotFound("resource not found (HTTP 404)")
	case code == http.StatusTooManyRequests:
		return moltErrors.Transient("rate limited (HTTP 429)")
	case code >= 500:
		return moltErrors.Transient(fmt.Sprintf("server error: HTTP %d", code))
	default:
		return moltErrors.InvalidInput(fmt.Sprintf("client error: HTTP %d", code))
	}
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	done := make(chan struct{})
	timer := c.clock.AfterFunc(d, func() { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	}
}
