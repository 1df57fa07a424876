package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "windevexpert"

// Metrics holds all WinDevExpert metric instruments.
type Metrics struct {
	InstallActions   metric.Int64Counter
	InstallSteps     metric.Int64Counter
	StepDuration     metric.Float64Histogram
	StorageFallbacks metric.Int64Counter
	Notifications    metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.InstallActions, err = meter.Int64Counter("windevexpert.install.actions",
		metric.WithDescription("Number of installer actions handled"))
	if err != nil {
		return nil, err
	}

	m.InstallSteps, err = meter.Int64Counter("windevexpert.install.steps",
		metric.WithDescription("Number of installation steps executed"))
	if err != nil {
		return nil, err
	}

	m.StepDuration, err = meter.Float64Histogram("windevexpert.install.step.duration_seconds",
		metric.WithDescription("Installation step duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.StorageFallbacks, err = meter.Int64Counter("windevexpert.storage.fallbacks",
		metric.WithDescription("Number of startups served by the fallback data path"))
	if err != nil {
		return nil, err
	}

	m.Notifications, err = meter.Int64Counter("windevexpert.notifications",
		metric.WithDescription("Number of notifications dispatched"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordStep counts one executed installation step. A nil receiver is a
// no-op so callers may run without metrics.
func (m *Metrics) RecordStep(ctx context.Context, step string, success bool, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("step", step),
		attribute.Bool("success", success),
	)
	m.InstallSteps.Add(ctx, 1, attrs)
	m.StepDuration.Record(ctx, seconds, attrs)
}

// RecordAction counts one installer action.
func (m *Metrics) RecordAction(ctx context.Context, action string, success bool) {
	if m == nil {
		return
	}
	m.InstallActions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.Bool("success", success),
	))
}

// RecordFallback counts a startup on the fallback data path.
func (m *Metrics) RecordFallback(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.StorageFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordNotification counts one notification per channel.
func (m *Metrics) RecordNotification(ctx context.Context, channel string, success bool) {
	if m == nil {
		return
	}
	m.Notifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.Bool("success", success),
	))
}
