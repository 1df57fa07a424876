// Package discord posts administrator notifications to a Discord webhook as
// embeds.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/windevexpert/windevexpert/internal/port/notifier"
	"github.com/windevexpert/windevexpert/internal/resilience"
)

const providerName = "discord"

// Discord rejects embed descriptions longer than this.
const maxDescription = 4096

// Notifier sends notifications to a Discord webhook.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewNotifier creates a Discord notifier. breaker may be nil.
func NewNotifier(webhookURL string, breaker *resilience.Breaker) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		breaker:    breaker,
	}
}

func (n *Notifier) Name() string { return providerName }

func (n *Notifier) Capabilities() notifier.Capabilities {
	return notifier.Capabilities{MaxMessageLength: maxDescription}
}

type webhook struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Color       int     `json:"color"`
	Footer      *footer `json:"footer,omitempty"`
}

type footer struct {
	Text string `json:"text"`
}

func (n *Notifier) Send(ctx context.Context, notification notifier.Notification) error {
	if n.webhookURL == "" {
		return notifier.ErrNotConfigured
	}
	body, err := json.Marshal(buildWebhook(notification))
	if err != nil {
		return fmt.Errorf("discord marshal: %w", err)
	}
	post := func() error { return n.post(ctx, body) }
	if n.breaker == nil {
		return post()
	}
	return n.breaker.Execute(post)
}

func buildWebhook(notification notifier.Notification) webhook {
	e := embed{
		Title:       notification.Title,
		Description: notifier.Truncate(notification.Message, maxDescription),
		Color:       levelColor(notification.Level),
	}
	if notification.Source != "" {
		e.Footer = &footer{Text: "Événement : " + notification.Source}
	}
	return webhook{Embeds: []embed{e}}
}

func (n *Notifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req) //nolint:gosec // webhook URL from trusted config
	if err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// 204 on success.
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord API %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func levelColor(level string) int {
	switch level {
	case "success":
		return 0x2ECC71
	case "error":
		return 0xE74C3C
	case "warning":
		return 0xF39C12
	default:
		return 0x3498DB
	}
}
