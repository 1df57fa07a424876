package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "windevexpert"

// StartInstallActionSpan starts a span for one installer request.
func StartInstallActionSpan(ctx context.Context, action string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "install.action",
		trace.WithAttributes(attribute.String("install.action", action)),
	)
}

// StartInstallStepSpan starts a span for an installation step.
func StartInstallStepSpan(ctx context.Context, step int, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "install.step",
		trace.WithAttributes(
			attribute.Int("install.step", step),
			attribute.String("install.step.name", name),
		),
	)
}

// StartNotifySpan starts a span for a notification dispatch.
func StartNotifySpan(ctx context.Context, channel, event string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "notify",
		trace.WithAttributes(
			attribute.String("notify.channel", channel),
			attribute.String("notify.event", event),
		),
	)
}

// EndSpan records err on span, when set, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
