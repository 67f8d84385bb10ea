package lightbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-risk/internal/config"
	"github.com/couchcryptid/storm-data-risk/internal/domain"
	"github.com/couchcryptid/storm-data-risk/internal/observability"
)

// Client implements domain.RiskService using the LightBox risk-index API.
type Client struct {
	apiKey       string
	httpClient   *http.Client
	baseURL      string
	bufferMeters int
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewClient creates a LightBox risk-index client.
func NewClient(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey: cfg.LightboxAPIKey,
		httpClient: &http.Client{
			Timeout: cfg.LightboxTimeout,
		},
		baseURL:      strings.TrimRight(cfg.LightboxBaseURL, "/"),
		bufferMeters: cfg.LightboxBufferMeters,
		metrics:      metrics,
		logger:       logger,
	}
}

// CheckReadiness reports whether a LightBox API key is configured. It does
// not contact LightBox, so an unreachable upstream still reports ready.
func (c *Client) CheckReadiness(_ context.Context) error {
	if c.apiKey == "" {
		return errors.New("LIGHTBOX_API_KEY is not set")
	}
	return nil
}

// LookupRisk queries the NRI records intersecting a buffer around coord and
// flattens the first one into a RiskProfile.
func (c *Client) LookupRisk(ctx context.Context, coord domain.Coordinate) (domain.RiskProfile, error) {
	start := time.Now()
	profile, err := c.lookup(ctx, coord)
	c.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
	c.metrics.UpstreamRequests.WithLabelValues(domain.ClassifyError(err)).Inc()
	if err != nil {
		c.logger.Warn("lightbox lookup failed", "coordinate", coord.String(), "error", err)
	}
	return profile, err
}

func (c *Client) lookup(ctx context.Context, coord domain.Coordinate) (domain.RiskProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(coord), nil)
	if err != nil {
		return domain.RiskProfile{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.RiskProfile{}, fmt.Errorf("%w: lightbox request: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.RiskProfile{}, fmt.Errorf("%w: lightbox API error: status %d: %s", domain.ErrProtocol, resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.RiskProfile{}, fmt.Errorf("%w: read lightbox response: %w", domain.ErrNetwork, err)
	}

	var nri domain.NRIResponse
	if err := json.Unmarshal(body, &nri); err != nil {
		return domain.RiskProfile{}, fmt.Errorf("%w: decode lightbox response: %w", domain.ErrMalformedPayload, err)
	}

	return domain.CleanNRI(nri)
}

// requestURL builds the geometry query. WKT puts longitude first.
func (c *Client) requestURL(coord domain.Coordinate) string {
	wkt := fmt.Sprintf("POINT(%s %s)",
		strconv.FormatFloat(coord.Longitude, 'f', -1, 64),
		strconv.FormatFloat(coord.Latitude, 'f', -1, 64),
	)
	params := url.Values{
		"wkt":            {wkt},
		"bufferDistance": {strconv.Itoa(c.bufferMeters)},
		"bufferUnit":     {"m"},
	}
	// LightBox rejects form-style "+" for the WKT space.
	query := strings.ReplaceAll(params.Encode(), "+", "%20")
	return c.baseURL + "/riskindexes/us/geometry?" + query
}
