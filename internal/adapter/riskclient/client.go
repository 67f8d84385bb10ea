package riskclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/couchcryptid/storm-data-risk/internal/config"
	"github.com/couchcryptid/storm-data-risk/internal/domain"
	"github.com/couchcryptid/storm-data-risk/internal/observability"
)

// maxErrorBody caps how much of a non-2xx body ends up in an error message.
const maxErrorBody = 512

// Client implements domain.RiskService against the risk API's /api/risk route.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	retryDelay time.Duration
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a risk API client. RISK_API_TIMEOUT bounds each attempt.
func NewClient(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.RiskAPIURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.RiskAPITimeout,
		},
		retries:    cfg.RiskAPIRetries,
		retryDelay: cfg.RiskAPIRetryDelay,
		metrics:    metrics,
		logger:     logger,
	}
}

// LookupRisk fetches the risk profile for coord. Network failures and 5xx
// responses are retried after a constant delay; 4xx responses and malformed
// bodies fail immediately.
func (c *Client) LookupRisk(ctx context.Context, coord domain.Coordinate) (domain.RiskProfile, error) {
	params := url.Values{
		"lat": {domain.FormatDegrees(coord.Latitude, 6)},
		"lon": {domain.FormatDegrees(coord.Longitude, 6)},
	}
	fullURL := c.baseURL + "/api/risk?" + params.Encode()

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.retries)), //nolint:gosec // retries validated to [0, 5]
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		c.metrics.RiskClientRetries.Inc()
		c.logger.Debug("retrying risk lookup", "coordinate", coord.String(), "wait", wait, "error", err)
	}

	profile, err := backoff.RetryNotifyWithData(func() (domain.RiskProfile, error) {
		return c.doRequest(ctx, fullURL)
	}, policy, notify)
	if err != nil && ctx.Err() != nil && !errors.Is(err, domain.ErrNetwork) {
		// Cancellation between attempts surfaces as a bare context error.
		err = fmt.Errorf("%w: risk request: %w", domain.ErrNetwork, err)
	}
	return profile, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.RiskProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.RiskProfile{}, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.RiskProfile{}, fmt.Errorf("%w: risk request: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := fmt.Errorf("%w: status %d: %s", domain.ErrProtocol, resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode < 500 {
			return domain.RiskProfile{}, backoff.Permanent(err)
		}
		return domain.RiskProfile{}, err
	}

	// Unmarshal the whole body so trailing garbage after the object is rejected.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.RiskProfile{}, fmt.Errorf("%w: read risk response: %w", domain.ErrNetwork, err)
	}

	var profile domain.RiskProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		if !errors.Is(err, domain.ErrMalformedPayload) {
			err = fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
		}
		return domain.RiskProfile{}, backoff.Permanent(err)
	}
	return profile, nil
}
