// Package notifier defines the operator notification port.
package notifier

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by a notifier without destination.
var ErrNotConfigured = errors.New("notifier: not configured")

// Notification is one operator-facing message.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Level   string `json:"level"`  // info, success, warning, error
	Source  string `json:"source"` // event name, e.g. "install.finalized", "quote.responded"
}

// Capabilities describes the limits of a destination.
type Capabilities struct {
	// MaxMessageLength is the longest Message, in runes, the destination
	// accepts. Zero means unlimited.
	MaxMessageLength int
}

// Notifier delivers notifications to one destination.
type Notifier interface {
	// Name identifies the destination, e.g. "email", "slack".
	Name() string
	Capabilities() Capabilities
	Send(ctx context.Context, notification Notification) error
}

// Truncate shortens message to max runes, ending with "…" when cut. A max of
// zero or less leaves message unchanged.
func Truncate(message string, max int) string {
	if max <= 0 {
		return message
	}
	r := []rune(message)
	if len(r) <= max {
		return message
	}
	return string(r[:max-1]) + "…"
}
