// Command riskdash is the terminal hazard-risk dashboard. Arrow keys pan the
// viewport; when the viewport settles, the risk API is queried for its center
// and the top hazards are shown.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	httpadapter "github.com/couchcryptid/storm-data-risk/internal/adapter/http"
	"github.com/couchcryptid/storm-data-risk/internal/adapter/mapbox"
	"github.com/couchcryptid/storm-data-risk/internal/adapter/riskclient"
	"github.com/couchcryptid/storm-data-risk/internal/config"
	"github.com/couchcryptid/storm-data-risk/internal/domain"
	"github.com/couchcryptid/storm-data-risk/internal/observability"
	"github.com/couchcryptid/storm-data-risk/internal/session"
	"github.com/couchcryptid/storm-data-risk/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "riskdash: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Log to a file: stdout belongs to the TUI.
	logger, closer, err := observability.NewFileLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	metrics := observability.NewMetrics()
	client := riskclient.NewClient(cfg, logger, metrics)

	initial := domain.Coordinate{Latitude: cfg.InitialLatitude, Longitude: cfg.InitialLongitude}
	s := session.New(client, initial, logger, metrics)

	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		geocoder = mapbox.NewCachedGeocoder(mapbox.NewClient(cfg, logger, metrics), cfg.MapboxCacheSize, metrics)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	var metricsSrv *httpadapter.Server
	if cfg.MetricsEnabled {
		metricsSrv = httpadapter.NewMetricsServer(cfg.MetricsAddr, logger)
		go func() {
			if err := metricsSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	logger.Info("dashboard starting",
		"risk_api", cfg.RiskAPIURL,
		"center", initial.String(),
		"move_end_delay", cfg.MoveEndDelay,
		"place_search", geocoder != nil,
		"metrics_addr", cfg.MetricsAddr,
	)

	p := tea.NewProgram(ui.NewModel(ctx, s, geocoder, cfg.MoveEndDelay), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("run dashboard: %w", runErr)
	}

	logger.Info("dashboard stopped")
	return nil
}
