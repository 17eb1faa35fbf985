// Package config loads dashboard settings from environment variables, with an
// optional .env file in the working directory.
//
// # Environment Variables
//
//   - HTTP_ADDR: listen address (default :8080)
//   - LOG_LEVEL: debug, info, warn, error (default info)
//   - LOG_FORMAT: json or text (default json)
//   - SHUTDOWN_TIMEOUT: graceful shutdown budget (default 10s)
//   - DROUGHT_CSV: USDM county statistics export
//   - COUNTIES_GEOJSON: county boundary FeatureCollection
//   - BOUNDARY_KEY: "id" for the feature id, or the FIPS property name (default id)
//   - BACKTEST_DIR: directory of <state>_pre.csv files (default data/states)
//   - FORECAST_DIR: directory of <state>_future.csv files (default data/states_future)
//   - DEFAULT_LEVEL: initial intensity level (default D0)
//   - DEFAULT_STATE: initial backtest and forecast region (default CA)
//   - KAFKA_BROKERS: comma-separated brokers; empty disables event publishing
//   - KAFKA_EVENTS_TOPIC: interaction event topic (default drought-dashboard-events)
//   - TRACING_ENABLED: export OpenTelemetry spans (default false)
//   - TRACING_ENDPOINT: OTLP/gRPC collector address (default localhost:4317)
package config

import (
	"errors"
	"fmt"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/drought-dashboard/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Dataset sources.
	DroughtCSV      string
	CountiesGeoJSON string
	BoundaryKey     string
	BacktestDir     string
	ForecastDir     string

	// Initial control values.
	DefaultLevel domain.Level
	DefaultState string

	// Interaction event publishing.
	KafkaBrokers     []string
	KafkaEventsTopic string
	EventsEnabled    bool

	TracingEnabled  bool
	TracingEndpoint string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	level, err := domain.ParseLevel(sharedcfg.EnvOrDefault("DEFAULT_LEVEL", "D0"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_LEVEL: %w", err)
	}

	brokers := sharedcfg.EnvOrDefault("KAFKA_BROKERS", "")
	var kafkaBrokers []string
	if brokers != "" {
		kafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DroughtCSV:      sharedcfg.EnvOrDefault("DROUGHT_CSV", "data/dm_export_20100101_20200901.csv"),
		CountiesGeoJSON: sharedcfg.EnvOrDefault("COUNTIES_GEOJSON", "data/geojson-counties-fips.json"),
		BoundaryKey:     sharedcfg.EnvOrDefault("BOUNDARY_KEY", "id"),
		BacktestDir:     sharedcfg.EnvOrDefault("BACKTEST_DIR", "data/states"),
		ForecastDir:     sharedcfg.EnvOrDefault("FORECAST_DIR", "data/states_future"),

		DefaultLevel: level,
		DefaultState: sharedcfg.EnvOrDefault("DEFAULT_STATE", "CA"),

		KafkaBrokers:     kafkaBrokers,
		KafkaEventsTopic: sharedcfg.EnvOrDefault("KAFKA_EVENTS_TOPIC", "drought-dashboard-events"),
		EventsEnabled:    len(kafkaBrokers) > 0,

		TracingEnabled:  sharedcfg.EnvOrDefault("TRACING_ENABLED", "false") == "true",
		TracingEndpoint: sharedcfg.EnvOrDefault("TRACING_ENDPOINT", "localhost:4317"),
	}

	if cfg.DroughtCSV == "" {
		return nil, errors.New("DROUGHT_CSV is required")
	}
	if cfg.CountiesGeoJSON == "" {
		return nil, errors.New("COUNTIES_GEOJSON is required")
	}
	if cfg.BoundaryKey == "" {
		return nil, errors.New("BOUNDARY_KEY must not be empty")
	}
	if cfg.EventsEnabled && cfg.KafkaEventsTopic == "" {
		return nil, errors.New("KAFKA_EVENTS_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}
