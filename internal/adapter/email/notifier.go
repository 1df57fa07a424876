package email

import (
	"context"
	"fmt"

	"github.com/windevexpert/windevexpert/internal/port/notifier"
)

const providerName = "email"

// Notifier forwards administrator notifications by email.
type Notifier struct {
	mailer     *Mailer
	renderer   *Renderer
	recipients []string
}

// NewNotifier creates an email notifier sending to recipients.
func NewNotifier(mailer *Mailer, renderer *Renderer, recipients []string) *Notifier {
	return &Notifier{mailer: mailer, renderer: renderer, recipients: recipients}
}

func (n *Notifier) Name() string { return providerName }

func (n *Notifier) Capabilities() notifier.Capabilities {
	return notifier.Capabilities{}
}

func (n *Notifier) Send(ctx context.Context, notification notifier.Notification) error {
	if !n.mailer.Configured() || len(n.recipients) == 0 {
		return notifier.ErrNotConfigured
	}
	msg, err := n.renderer.Notification(notification)
	if err != nil {
		return err
	}
	for _, to := range n.recipients {
		if err := n.mailer.Send(ctx, to, msg); err != nil {
			return fmt.Errorf("send email to %s: %w", to, err)
		}
	}
	return nil
}
