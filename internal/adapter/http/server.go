package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/storm-data-risk/internal/domain"
	"github.com/couchcryptid/storm-data-risk/internal/observability"
)

// defaultPublishTimeout bounds how long a lookup response waits on the event
// sink.
const defaultPublishTimeout = 2 * time.Second

// LookupPublisher receives every risk lookup the server answers successfully.
type LookupPublisher interface {
	Publish(ctx context.Context, lookup domain.RiskLookup) error
}

// Server exposes the risk API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	service    domain.RiskService
	publisher  LookupPublisher // optional
	timeout    time.Duration   // per publish
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server with /api/risk, /healthz, /readyz, and
// /metrics routes. publisher may be nil.
func NewServer(
	addr string,
	service domain.RiskService,
	ready sharedobs.ReadinessChecker,
	publisher LookupPublisher,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      withCORS(mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		service:   service,
		publisher: publisher,
		timeout:   defaultPublishTimeout,
		logger:    logger,
		metrics:   metrics,
	}

	mux.HandleFunc("GET /api/risk", s.handleRisk)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// NewMetricsServer creates a server that exposes only /metrics and /healthz.
// The dashboard runs one next to the TUI so its session metrics can be scraped.
func NewMetricsServer(addr string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.Handle("GET /metrics", promhttp.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// SetPublishTimeout changes how long a request may wait on the publisher
// before the response is sent without the event.
func (s *Server) SetPublishTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	coord, err := parseCoordinate(r)
	if err != nil {
		s.writeRisk(w, http.StatusBadRequest, detail(err.Error()))
		return
	}

	profile, err := s.service.LookupRisk(r.Context(), coord)
	switch {
	case errors.Is(err, domain.ErrNoCoverage):
		s.writeRisk(w, http.StatusNotFound, detail(err.Error()))
		return
	case err != nil:
		s.logger.Error("risk lookup failed", "coordinate", coord.String(), "class", domain.ClassifyError(err), "error", err)
		s.writeRisk(w, http.StatusInternalServerError, detail(err.Error()))
		return
	}

	s.publish(r.Context(), domain.NewRiskLookup(coord, profile))
	s.writeRisk(w, http.StatusOK, profile)
}

func (s *Server) publish(ctx context.Context, lookup domain.RiskLookup) {
	if s.publisher == nil {
		return
	}
	// A client that hangs up still gets its lookup recorded.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, lookup); err != nil {
		s.metrics.PublishErrors.Inc()
		s.logger.Warn("publish risk lookup failed", "coordinate", lookup.Coordinate.String(), "error", err)
		return
	}
	s.metrics.LookupsPublished.Inc()
}

func (s *Server) writeRisk(w http.ResponseWriter, status int, v any) {
	s.metrics.APIRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	sharedobs.WriteJSON(w, status, v)
}

func detail(msg string) map[string]string {
	return map[string]string{"detail": msg}
}

func parseCoordinate(r *http.Request) (domain.Coordinate, error) {
	lat, err := parseDegrees(r, "lat", 90)
	if err != nil {
		return domain.Coordinate{}, err
	}
	lon, err := parseDegrees(r, "lon", 180)
	if err != nil {
		return domain.Coordinate{}, err
	}
	return domain.Coordinate{Latitude: lat, Longitude: lon}, nil
}

func parseDegrees(r *http.Request, key string, limit float64) (float64, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, fmt.Errorf("query parameter %s is required", key)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s must be a number", key)
	}
	if math.IsNaN(v) || v < -limit || v > limit {
		return 0, fmt.Errorf("query parameter %s must be within [-%g, %g]", key, limit, limit)
	}
	return v, nil
}

// withCORS allows any origin, matching the browser dashboard's deployment.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
