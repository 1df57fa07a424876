package email

import (
	"context"
	"net/url"
	"time"

	"github.com/windevexpert/windevexpert/internal/domain/install"
)

// InstallProbe checks the SMTP relay entered in the installation wizard.
type InstallProbe struct {
	renderer *Renderer
	timeout  time.Duration
	now      func() time.Time
}

// NewInstallProbe creates a probe rendering its test message with r.
func NewInstallProbe(r *Renderer, timeout time.Duration) *InstallProbe {
	return &InstallProbe{renderer: r, timeout: timeout, now: time.Now}
}

// MailerFor builds a mailer from the SMTP fields of c. The sender defaults
// to no-reply at the site host.
func MailerFor(c install.Config, timeout time.Duration) *Mailer {
	port := c.SMTPPort
	if port == 0 {
		port = 587
	}
	from := c.SMTPFrom
	if from == "" {
		if u, err := url.Parse(c.SiteURL); err == nil && u.Hostname() != "" {
			from = "no-reply@" + u.Hostname()
		}
	}
	return NewMailer(SMTPConfig{
		Host:     c.SMTPHost,
		Port:     port,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
		From:     from,
		Timeout:  timeout,
	}, nil)
}

// Verify greets the relay without sending mail.
func (p *InstallProbe) Verify(ctx context.Context, c install.Config) error {
	return MailerFor(c, p.timeout).Verify(ctx)
}

// SendTest delivers the SMTP test message to to.
func (p *InstallProbe) SendTest(ctx context.Context, c install.Config, to string) error {
	msg, err := p.renderer.SMTPTest(p.now())
	if err != nil {
		return err
	}
	return MailerFor(c, p.timeout).Send(ctx, to, msg)
}
