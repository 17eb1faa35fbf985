package dashboard

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/couchcryptid/drought-dashboard/internal/domain"
)

// Event is one control change from the UI.
type Event struct {
	Control string `json:"control"`
	Value   string `json:"value"`
}

// Dispatch applies event and recomputes only the views that depend on the
// changed control. Setting a control to its current value recomputes nothing.
// Events may arrive concurrently; each dispatch renders from the control
// snapshot taken when its event was applied.
func (d *Dashboard) Dispatch(ctx context.Context, event Event) (Update, error) {
	ctx, span := d.tracer.Start(ctx, "dashboard.dispatch", trace.WithAttributes(
		attribute.String("control", event.Control),
		attribute.String("value", event.Value),
	))
	defer span.End()

	d.mu.Lock()
	changed, err := d.controls.apply(d.data, event.Control, event.Value)
	snapshot := d.controls
	d.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid event")
		return Update{Controls: snapshot}, err
	}
	d.metrics.ControlEvents.WithLabelValues(event.Control).Inc()

	update := Update{Controls: snapshot, Views: []ViewResult{}}
	if !changed {
		return update, nil
	}

	views := ViewsFor(event.Control)
	update.Views = d.renderViews(ctx, views, snapshot)
	span.SetAttributes(attribute.StringSlice("views", views))

	d.publish(ctx, event, views)
	return update, nil
}

func (d *Dashboard) publish(ctx context.Context, event Event, views []string) {
	if d.publisher == nil {
		return
	}
	err := d.publisher.Publish(ctx, domain.InteractionEvent{
		Control:    event.Control,
		Value:      event.Value,
		Views:      views,
		OccurredAt: domain.Now(),
	})
	if err != nil {
		d.metrics.EventsPublished.WithLabelValues("error").Inc()
		if !errors.Is(err, context.Canceled) {
			d.logger.Warn("publish interaction event failed", "control", event.Control, "error", err)
		}
		return
	}
	d.metrics.EventsPublished.WithLabelValues("success").Inc()
}
