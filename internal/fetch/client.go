// Package fetch wraps outbound JSON GET requests with a per-attempt timeout
// and one of two resilience policies: a single primary→fallback switch, or
// same-endpoint retry with exponential backoff.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultRetryCount  = 3
	DefaultBackoffBase = time.Second
	MaxBackoff         = 30 * time.Second

	maxErrorBody = 4 << 10
)

var fetchAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gita_fetch_attempts_total",
		Help: "Outbound fetch attempts by target and outcome",
	},
	[]string{"target", "outcome"},
)

// Policy selects how a failed request is recovered.
type Policy int

const (
	// PolicyFallback tries the primary base once, then the fallback base once.
	PolicyFallback Policy = iota
	// PolicyRetry retries the primary base with exponential backoff.
	PolicyRetry
)

func (p Policy) String() string {
	switch p {
	case PolicyFallback:
		return "fallback"
	case PolicyRetry:
		return "retry"
	default:
		return "unknown"
	}
}

type Options struct {
	PrimaryBaseURL  string
	FallbackBaseURL string
	// FallbackHeaders are added to fallback requests only, e.g. the
	// x-rapidapi-host and x-rapidapi-key pair of the direct API.
	FallbackHeaders http.Header

	Timeout     time.Duration
	RetryCount  int
	BackoffBase time.Duration

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Policy is PolicyFallback when a fallback base URL is configured and
// PolicyRetry otherwise.
func (o Options) Policy() Policy {
	if o.FallbackBaseURL != "" {
		return PolicyFallback
	}
	return PolicyRetry
}

type Client struct {
	opts   Options
	policy Policy
	http   *http.Client
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryCount <= 0 {
		opts.RetryCount = DefaultRetryCount
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = DefaultBackoffBase
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		opts:   opts,
		policy: opts.Policy(),
		http:   httpClient,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Policy reports the recovery policy in effect.
func (c *Client) Policy() Policy {
	return c.policy
}

type requestConfig struct {
	header  http.Header
	timeout time.Duration
}

// RequestOption overrides request settings for a single call.
type RequestOption func(*requestConfig)

func WithHeader(key, value string) RequestOption {
	return func(rc *requestConfig) {
		rc.header.Set(key, value)
	}
}

func WithTimeout(d time.Duration) RequestOption {
	return func(rc *requestConfig) {
		if d > 0 {
			rc.timeout = d
		}
	}
}

// FetchResource GETs endpoint (path and query) and returns the JSON body.
func (c *Client) FetchResource(ctx context.Context, endpoint string, opts ...RequestOption) (json.RawMessage, error) {
	rc := requestConfig{
		header:  http.Header{},
		timeout: c.opts.Timeout,
	}
	rc.header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(&rc)
	}

	if c.policy == PolicyFallback {
		return c.fetchWithFallback(ctx, endpoint, rc)
	}
	return c.fetchWithRetry(ctx, endpoint, rc)
}

// FetchJSON is FetchResource followed by decoding into v.
func (c *Client) FetchJSON(ctx context.Context, endpoint string, v any, opts ...RequestOption) error {
	body, err := c.FetchResource(ctx, endpoint, opts...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("unexpected response shape from %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) fetchWithFallback(ctx context.Context, endpoint string, rc requestConfig) (json.RawMessage, error) {
	body, err := c.attempt(ctx, "primary", c.opts.PrimaryBaseURL+endpoint, rc.header, rc.timeout)
	if err == nil {
		return body, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	c.logger.Warn("Primary request failed, trying fallback",
		zap.String("endpoint", endpoint),
		zap.Error(err),
	)

	header := rc.header.Clone()
	for key, values := range c.opts.FallbackHeaders {
		for _, v := range values {
			header.Set(key, v)
		}
	}

	body, fbErr := c.attempt(ctx, "fallback", c.opts.FallbackBaseURL+endpoint, header, rc.timeout)
	if fbErr == nil {
		return body, nil
	}

	ferr := &FallbackError{Primary: err, Fallback: fbErr}
	c.logger.Error("Fallback request failed",
		zap.String("endpoint", endpoint),
		zap.Int("fallback_status", ferr.FallbackStatus()),
		zap.Error(ferr),
	)
	return nil, ferr
}

func (c *Client) fetchWithRetry(ctx context.Context, endpoint string, rc requestConfig) (json.RawMessage, error) {
	url := c.opts.PrimaryBaseURL + endpoint

	var lastErr error
	for i := 0; i < c.opts.RetryCount; i++ {
		body, err := c.attempt(ctx, "primary", url, rc.header, rc.timeout)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			c.logger.Error("Request failed", zap.String("endpoint", endpoint), zap.Error(err))
			return nil, err
		}
		if i == c.opts.RetryCount-1 {
			break
		}

		delay := c.backoff(i)
		c.logger.Warn("Request failed, retrying",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", i+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	c.logger.Error("Request failed after retries",
		zap.String("endpoint", endpoint),
		zap.Int("attempts", c.opts.RetryCount),
		zap.Error(lastErr),
	)
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.opts.RetryCount, lastErr)
}

// backoff returns BackoffBase * 2^attempt, capped at MaxBackoff or at
// BackoffBase when that is larger.
func (c *Client) backoff(attempt int) time.Duration {
	base := c.opts.BackoffBase
	ceiling := max(MaxBackoff, base)
	if attempt < 0 {
		return base
	}

	d := base << attempt
	if d <= 0 || d>>attempt != base || d > ceiling {
		return ceiling
	}
	return d
}

func (c *Client) attempt(ctx context.Context, target, url string, header http.Header, timeout time.Duration) (json.RawMessage, error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := c.do(actx, url, header)
	if err != nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("GET %s: %w", url, ErrTimeout)
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	fetchAttempts.WithLabelValues(target, outcome).Inc()

	return body, err
}

func (c *Client) do(ctx context.Context, url string, header http.Header) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = header.Clone()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("response from %s is not valid JSON", url)
	}

	return json.RawMessage(body), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
