package mapbox

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

	"github.com/couchcryptid/storm-data-risk/internal/config"
	"github.com/couchcryptid/storm-data-risk/internal/domain"
	"github.com/couchcryptid/storm-data-risk/internal/observability"
)

// placeTypes limits matches to things a map user searches for by name.
const placeTypes = "place,locality,neighborhood,postcode,address,poi"

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		token: cfg.MapboxToken,
		httpClient: &http.Client{
			Timeout: cfg.MapboxTimeout,
		},
		baseURL: strings.TrimRight(cfg.MapboxBaseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// ForwardGeocode converts a place name to the coordinate of its best match.
func (c *Client) ForwardGeocode(ctx context.Context, query string) (domain.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Place{}, errors.New("empty place query")
	}

	place, err := c.forward(ctx, query)
	outcome := domain.ClassifyError(err)
	c.metrics.GeocodeRequests.WithLabelValues(outcome).Inc()
	if err != nil && outcome != "not_found" {
		c.logger.Warn("mapbox geocode failed", "query", query, "error", err)
	}
	return place, err
}

func (c *Client) forward(ctx context.Context, query string) (domain.Place, error) {
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {placeTypes},
	}
	u := fmt.Sprintf("%s/%s.json?%s", c.baseURL, url.PathEscape(query), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Place{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Place{}, fmt.Errorf("%w: geocode request: %w", domain.ErrNetwork, redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Place{}, fmt.Errorf("%w: mapbox API error: status %d: %s", domain.ErrProtocol, resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Place{}, fmt.Errorf("%w: read mapbox response: %w", domain.ErrNetwork, err)
	}

	var mapboxResp response
	if err := json.Unmarshal(body, &mapboxResp); err != nil {
		return domain.Place{}, fmt.Errorf("%w: decode mapbox response: %w", domain.ErrMalformedPayload, err)
	}

	if len(mapboxResp.Features) == 0 {
		return domain.Place{}, fmt.Errorf("%w: %q", domain.ErrPlaceNotFound, query)
	}

	f := mapboxResp.Features[0]
	if len(f.Center) != 2 {
		return domain.Place{}, fmt.Errorf("%w: feature center has %d values", domain.ErrMalformedPayload, len(f.Center))
	}
	return domain.Place{
		// Mapbox uses lon,lat order.
		Coordinate: domain.Coordinate{Latitude: f.Center[1], Longitude: f.Center[0]},
		Name:       f.Text,
		FullName:   f.PlaceName,
		Relevance:  f.Relevance,
	}, nil
}

// redact strips the request URL, which carries the access token, from
// transport errors before they are logged.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}
