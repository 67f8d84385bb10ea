package riskclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-data-risk/internal/config"
	"github.com/couchcryptid/storm-data-risk/internal/domain"
	"github.com/couchcryptid/storm-data-risk/internal/observability"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

var plano = domain.Coordinate{Latitude: 33.0198, Longitude: -96.6989}

func testClient(baseURL string, retries int) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		retries:    retries,
		retryDelay: time.Millisecond,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func sampleProfile(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../../domain/testdata/collin_tx_profile.json")
	require.NoError(t, err)
	return data
}

func TestNewClient_FromConfig(t *testing.T) {
	cfg := &config.Config{
		RiskAPIURL:        "http://risk.test/",
		RiskAPITimeout:    3 * time.Second,
		RiskAPIRetries:    2,
		RiskAPIRetryDelay: time.Second,
	}
	c := NewClient(cfg, slog.Default(), observability.NewMetricsForTesting())

	assert.Equal(t, "http://risk.test", c.baseURL)
	assert.Equal(t, 3*time.Second, c.httpClient.Timeout)
	assert.Equal(t, 2, c.retries)
	assert.Equal(t, time.Second, c.retryDelay)
}

func TestClient_LookupRisk_Success(t *testing.T) {
	body := sampleProfile(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/risk", r.URL.Path)
		assert.Equal(t, "33.019800", r.URL.Query().Get("lat"))
		assert.Equal(t, "-96.698900", r.URL.Query().Get("lon"))
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 1)
	profile, err := c.LookupRisk(context.Background(), plano)
	require.NoError(t, err)

	assert.Equal(t, "Texas", profile.State)
	assert.Equal(t, "Collin", profile.County)
	require.NotNil(t, profile.Hazards[domain.Tornado])
	assert.InDelta(t, 0, testutil.ToFloat64(c.metrics.RiskClientRetries), 0)
}

func TestClient_LookupRisk_RetriesServerErrorOnce(t *testing.T) {
	body := sampleProfile(t)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 1)
	profile, err := c.LookupRisk(context.Background(), plano)
	require.NoError(t, err)

	assert.Equal(t, "Collin", profile.County)
	assert.Equal(t, int32(2), calls.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.RiskClientRetries), 0)
}

func TestClient_LookupRisk_ServerErrorExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"upstream unavailable"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 1)
	_, err := c.LookupRisk(context.Background(), plano)
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrProtocol)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "upstream unavailable")
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_LookupRisk_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"lat must be within [-90, 90]"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 3)
	_, err := c.LookupRisk(context.Background(), plano)
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrProtocol)
	assert.Equal(t, "protocol", domain.ClassifyError(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_LookupRisk_MalformedPayloadNotRetried(t *testing.T) {
	tests := map[string]string{
		"not json":       `<html>gateway</html>`,
		"array body":     `[1, 2, 3]`,
		"wrong hazard":   `{"state":"Texas","tornado":"high"}`,
		"wrong metadata": `{"population":"lots"}`,
		"trailing html":  `{"state":"Texas","county":"Collin"} <html>proxy error</html>`,
		"two objects":    `{"county":"Collin"}{"county":"Dallas"}`,
		"empty body":     ``,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.Header().Set(headerContentType, contentTypeJSON)
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			c := testClient(srv.URL, 1)
			_, err := c.LookupRisk(context.Background(), plano)
			require.Error(t, err)

			assert.ErrorIs(t, err, domain.ErrMalformedPayload)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestClient_LookupRisk_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := testClient(url, 1)
	_, err := c.LookupRisk(context.Background(), plano)
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Equal(t, "network", domain.ClassifyError(err))
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.RiskClientRetries), 0)
}

func TestClient_LookupRisk_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 0)
	c.httpClient.Timeout = 50 * time.Millisecond

	_, err := c.LookupRisk(context.Background(), plano)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestClient_LookupRisk_CancelledContextIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 3)
	c.retryDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := c.LookupRisk(ctx, plano)
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "network", domain.ClassifyError(err))
}
