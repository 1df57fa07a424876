// Package service contains the application services: the installation
// executor, the back-office admin service and notification fan-out.
package service

import (
	"context"
	"errors"
	"log/slog"

	wdeotel "github.com/windevexpert/windevexpert/internal/adapter/otel"
	"github.com/windevexpert/windevexpert/internal/port/notifier"
)

// Notification sources used as event filters.
const (
	EventInstallFinalized = "install.finalized"
	EventQuoteResponded   = "quote.responded"
	EventOrderStatus      = "order.status"
)

// NotificationService dispatches notifications to all registered notifiers.
type NotificationService struct {
	notifiers     []notifier.Notifier
	enabledEvents map[string]bool
	metrics       *wdeotel.Metrics
}

// NewNotificationService creates a NotificationService with the given
// notifiers. If enabledEvents is empty, all events are enabled.
func NewNotificationService(notifiers []notifier.Notifier, enabledEvents []string) *NotificationService {
	enabled := make(map[string]bool, len(enabledEvents))
	for _, e := range enabledEvents {
		enabled[e] = true
	}
	return &NotificationService{
		notifiers:     notifiers,
		enabledEvents: enabled,
	}
}

// SetMetrics enables delivery counters.
func (s *NotificationService) SetMetrics(m *wdeotel.Metrics) { s.metrics = m }

// Notify sends a notification to all registered notifiers. Errors are
// logged and never interrupt delivery to other notifiers. A notifier that
// is not configured is skipped silently. Messages are cut to each
// notifier's MaxMessageLength.
func (s *NotificationService) Notify(ctx context.Context, n notifier.Notification) {
	if s == nil {
		return
	}
	if len(s.enabledEvents) > 0 && !s.enabledEvents[n.Source] {
		return
	}

	for _, provider := range s.notifiers {
		msg := n
		msg.Message = notifier.Truncate(n.Message, provider.Capabilities().MaxMessageLength)
		spanCtx, span := wdeotel.StartNotifySpan(ctx, provider.Name(), n.Source)
		err := provider.Send(spanCtx, msg)
		wdeotel.EndSpan(span, err)
		if errors.Is(err, notifier.ErrNotConfigured) {
			continue
		}
		s.metrics.RecordNotification(ctx, provider.Name(), err == nil)
		if err != nil {
			slog.WarnContext(ctx, "notification send failed",
				"provider", provider.Name(),
				"title", n.Title,
				"error", err,
			)
			continue
		}
		slog.DebugContext(ctx, "notification sent", "provider", provider.Name(), "title", n.Title)
	}
}

// NotifierCount returns the number of registered notifiers.
func (s *NotificationService) NotifierCount() int {
	return len(s.notifiers)
}
