// Command dashboard serves the drought monitoring dashboard: it loads the
// drought records and county boundaries once, then answers view and control
// requests over HTTP until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	datasetadapter "github.com/couchcryptid/drought-dashboard/internal/adapter/dataset"
	httpadapter "github.com/couchcryptid/drought-dashboard/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/drought-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/drought-dashboard/internal/adapter/series"
	"github.com/couchcryptid/drought-dashboard/internal/config"
	"github.com/couchcryptid/drought-dashboard/internal/dashboard"
	"github.com/couchcryptid/drought-dashboard/internal/observability"
	"github.com/couchcryptid/drought-dashboard/internal/viewcache"
)

func main() {
	debug := flag.Bool("debug", false, "force debug logging regardless of LOG_LEVEL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// The dashboard must not serve without its datasets.
	loader := datasetadapter.NewLoader(cfg.DroughtCSV, cfg.CountiesGeoJSON, cfg.BoundaryKey, logger)
	data, err := loader.Load(ctx)
	if err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}
	metrics.DatasetRecords.Set(float64(data.Len()))
	metrics.DatasetBoundaries.Set(float64(len(data.Boundaries())))
	metrics.DatasetDates.Set(float64(len(data.Dates())))

	// Interaction events are feature-flagged via KAFKA_BROKERS.
	var (
		writer    *kafkaadapter.Writer
		publisher dashboard.EventPublisher
	)
	if cfg.EventsEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("interaction events enabled", "topic", cfg.KafkaEventsTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("interaction events disabled")
	}

	dash, err := dashboard.New(ctx, dashboard.Params{
		Dataset:      data,
		Cache:        viewcache.New(metrics),
		Backtest:     series.NewDirectory(cfg.BacktestDir, series.BacktestSuffix),
		Forecast:     series.NewDirectory(cfg.ForecastDir, series.ForecastSuffix),
		Publisher:    publisher,
		DefaultLevel: cfg.DefaultLevel,
		DefaultState: cfg.DefaultState,
		Logger:       logger,
		Metrics:      metrics,
	})
	if err != nil {
		logger.Error("failed to build dashboard", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, dash, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Build the default heatmap so the first page load is a cache hit.
	go func() {
		if err := dash.Warm(ctx); err != nil {
			logger.Error("dashboard warm-up failed", "error", err)
			return
		}
		logger.Info("dashboard ready", "controls", dash.Controls())
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("tracer shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
