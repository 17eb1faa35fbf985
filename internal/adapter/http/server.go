package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server exposes the dashboard API alongside health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and the
// /api routes backed by dash.
func NewServer(addr string, dash Dashboard, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      otelhttp.NewHandler(mux, "drought-dashboard"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(dash))
	mux.Handle("GET /metrics", promhttp.Handler())

	api := &apiHandler{dash: dash, logger: logger}
	mux.HandleFunc("GET /api/options", api.options)
	mux.HandleFunc("GET /api/boundaries", api.boundaries)
	mux.HandleFunc("GET /api/heatmap", api.heatmap)
	mux.HandleFunc("GET /api/counties/{county}", api.county)
	mux.HandleFunc("GET /api/backtest/{state}", api.backtest)
	mux.HandleFunc("GET /api/forecast/{state}", api.forecast)
	mux.HandleFunc("GET /api/views", api.views)
	mux.HandleFunc("POST /api/events", api.events)

	return s
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
