//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-data-risk/internal/domain"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://api.mapbox.com/geocoding/v5/mapbox.places",
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSmoke_ForwardGeocode(t *testing.T) {
	c := smokeClient(t)

	place, err := c.ForwardGeocode(context.Background(), "Plano, TX")
	require.NoError(t, err)

	assert.InDelta(t, 33.02, place.Coordinate.Latitude, 0.1)
	assert.InDelta(t, -96.70, place.Coordinate.Longitude, 0.1)
	assert.Contains(t, place.FullName, "Texas")
}

func TestSmoke_ForwardGeocode_NoMatch(t *testing.T) {
	c := smokeClient(t)

	_, err := c.ForwardGeocode(context.Background(), "zzqxv qqzzx nowhere")
	require.ErrorIs(t, err, domain.ErrPlaceNotFound)
}
