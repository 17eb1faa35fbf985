package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/drought-dashboard/internal/dashboard"
	"github.com/couchcryptid/drought-dashboard/internal/domain"
)

const maxEventBytes = 4 << 10

// Dashboard is the view and control surface served under /api.
type Dashboard interface {
	CheckReadiness(ctx context.Context) error
	Options() dashboard.Options
	Defaults() dashboard.Controls
	Boundaries() []byte
	Heatmap(ctx context.Context, date domain.Date, level domain.Level) (*domain.Heatmap, error)
	CountyTable(county string) domain.CountyTable
	Backtest(ctx context.Context, region string) (domain.LineChart, error)
	Forecast(ctx context.Context, region string) (domain.LineChart, error)
	Render(ctx context.Context) dashboard.Update
	Dispatch(ctx context.Context, event dashboard.Event) (dashboard.Update, error)
}

type apiHandler struct {
	dash   Dashboard
	logger *slog.Logger
}

func (a *apiHandler) options(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.dash.Options())
}

func (a *apiHandler) boundaries(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(a.dash.Boundaries()) //nolint:errcheck // client went away
}

// heatmap serves ?date=YYYY-MM-DD&level=D0; both default to the dashboard's
// initial controls.
func (a *apiHandler) heatmap(w http.ResponseWriter, r *http.Request) {
	defaults := a.dash.Defaults()
	date, level := defaults.Date, defaults.Level

	if s := r.URL.Query().Get("date"); s != "" {
		d, err := domain.ParseDate(s)
		if err != nil {
			a.writeError(w, err)
			return
		}
		date = d
	}
	if s := r.URL.Query().Get("level"); s != "" {
		l, err := domain.ParseLevel(s)
		if err != nil {
			a.writeError(w, err)
			return
		}
		level = l
	}

	h, err := a.dash.Heatmap(r.Context(), date, level)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (a *apiHandler) county(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.dash.CountyTable(r.PathValue("county")))
}

func (a *apiHandler) backtest(w http.ResponseWriter, r *http.Request) {
	chart, err := a.dash.Backtest(r.Context(), r.PathValue("state"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

func (a *apiHandler) forecast(w http.ResponseWriter, r *http.Request) {
	chart, err := a.dash.Forecast(r.Context(), r.PathValue("state"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

func (a *apiHandler) views(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.dash.Render(r.Context()))
}

func (a *apiHandler) events(w http.ResponseWriter, r *http.Request) {
	var event dashboard.Event
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&event); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Errorf("decode event: %w", err)))
		return
	}

	update, err := a.dash.Dispatch(r.Context(), event)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, update)
}

func (a *apiHandler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("api request failed", "error", err)
	}
	writeJSON(w, status, errorBody(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRegionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRegion),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrUnknownLevel),
		errors.Is(err, domain.ErrUnknownControl),
		errors.Is(err, domain.ErrInvalidControlValue):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
