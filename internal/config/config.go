package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	LogFile         string
	ShutdownTimeout time.Duration

	// Risk API client settings used by the dashboard and riskctl.
	RiskAPIURL        string
	RiskAPITimeout    time.Duration
	RiskAPIRetries    int
	RiskAPIRetryDelay time.Duration

	// LightBox upstream settings used by the risk API.
	LightboxAPIKey       string
	LightboxBaseURL      string
	LightboxTimeout      time.Duration
	LightboxBufferMeters int
	RiskCacheSize        int

	// Mapbox place search used by the dashboard and riskctl.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxBaseURL   string
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Lookup event sink.
	KafkaEnabled        bool
	KafkaBrokers        []string
	KafkaTopic          string
	KafkaPublishTimeout time.Duration

	// Prometheus listener for the dashboard process.
	MetricsEnabled bool
	MetricsAddr    string

	// Dashboard viewport.
	InitialLatitude  float64
	InitialLongitude float64
	MoveEndDelay     time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	riskTimeout, err := parsePositiveDuration("RISK_API_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	retryDelay, err := parsePositiveDuration("RISK_API_RETRY_DELAY", "500ms")
	if err != nil {
		return nil, err
	}
	lightboxTimeout, err := parsePositiveDuration("LIGHTBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	moveEndDelay, err := parsePositiveDuration("MOVE_END_DELAY", "300ms")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	publishTimeout, err := parsePositiveDuration("KAFKA_PUBLISH_TIMEOUT", "2s")
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	retries, err := parseIntInRange("RISK_API_RETRIES", 1, 0, 5)
	if err != nil {
		return nil, err
	}
	bufferMeters, err := parseIntInRange("LIGHTBOX_BUFFER_METERS", 50, 1, 5000)
	if err != nil {
		return nil, err
	}

	initialLat, err := parseFloat("INITIAL_LATITUDE", 43.6568)
	if err != nil {
		return nil, err
	}
	initialLon, err := parseFloat("INITIAL_LONGITUDE", -79.4512)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		LogFile:         sharedcfg.EnvOrDefault("LOG_FILE", "riskdash.log"),
		ShutdownTimeout: shutdownTimeout,

		RiskAPIURL:        sharedcfg.EnvOrDefault("RISK_API_URL", "http://localhost:8080"),
		RiskAPITimeout:    riskTimeout,
		RiskAPIRetries:    retries,
		RiskAPIRetryDelay: retryDelay,

		LightboxAPIKey:       os.Getenv("LIGHTBOX_API_KEY"),
		LightboxBaseURL:      sharedcfg.EnvOrDefault("LIGHTBOX_BASE_URL", "https://api.lightboxre.com/v1"),
		LightboxTimeout:      lightboxTimeout,
		LightboxBufferMeters: bufferMeters,
		RiskCacheSize:        parseCacheSize("RISK_CACHE_SIZE"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxBaseURL:   sharedcfg.EnvOrDefault("MAPBOX_BASE_URL", "https://api.mapbox.com/geocoding/v5/mapbox.places"),
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseCacheSize("MAPBOX_CACHE_SIZE"),

		KafkaEnabled:        os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:        sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:          sharedcfg.EnvOrDefault("KAFKA_TOPIC", "risk-lookups"),
		KafkaPublishTimeout: publishTimeout,

		MetricsEnabled: os.Getenv("METRICS_ENABLED") != "false",
		MetricsAddr:    sharedcfg.EnvOrDefault("METRICS_ADDR", "localhost:9091"),

		InitialLatitude:  initialLat,
		InitialLongitude: initialLon,
		MoveEndDelay:     moveEndDelay,
	}

	if cfg.RiskAPIURL == "" {
		return nil, errors.New("RISK_API_URL is required")
	}
	if cfg.InitialLatitude < -90 || cfg.InitialLatitude > 90 {
		return nil, errors.New("INITIAL_LATITUDE must be within [-90, 90]")
	}
	if cfg.InitialLongitude < -180 || cfg.InitialLongitude > 180 {
		return nil, errors.New("INITIAL_LONGITUDE must be within [-180, 180]")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseIntInRange(key string, def, minVal, maxVal int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minVal || n > maxVal {
		return 0, fmt.Errorf("invalid %s: must be an integer in [%d, %d]", key, minVal, maxVal)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseCacheSize(key string) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
