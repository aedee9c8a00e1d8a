package chapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/taiwoajasa245/gita-reader-api/pkg/config"
)

var upstreamRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gita_upstream_requests_total",
		Help: "Requests forwarded to the RapidAPI Gita API by status",
	},
	[]string{"status"},
)

// UpstreamError reports a non-2xx answer from RapidAPI.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("RapidAPI request failed with status: %d", e.StatusCode)
}

// Upstream fetches raw JSON from the data API.
type Upstream interface {
	Get(ctx context.Context, endpoint string) ([]byte, error)
}

// RapidAPIClient forwards GET requests with the server-held credentials.
// Credentials are read from the config on every call so a misconfigured
// deployment fails each request before touching the network.
type RapidAPIClient struct {
	cfg     *config.Config
	http    *http.Client
	limiter *rate.Limiter
}

func NewRapidAPIClient(cfg *config.Config) *RapidAPIClient {
	limit := rate.Inf
	burst := 1
	if cfg.UpstreamRateLimit > 0 {
		limit = rate.Limit(cfg.UpstreamRateLimit)
		burst = max(1, int(cfg.UpstreamRateLimit))
	}

	return &RapidAPIClient{
		cfg: cfg,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (c *RapidAPIClient) Get(ctx context.Context, endpoint string) ([]byte, error) {
	up, err := c.cfg.Upstream()
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, up.BaseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-rapidapi-host", up.Host)
	req.Header.Set("x-rapidapi-key", up.Key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		upstreamRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	upstreamRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("RapidAPI returned invalid JSON")
	}
	return body, nil
}
