// Package slack posts administrator notifications to a Slack incoming
// webhook.
package slack

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

const providerName = "slack"

// Slack rejects section texts longer than this.
const maxSectionText = 3000

// Notifier sends notifications to Slack via incoming webhook.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewNotifier creates a Slack notifier. breaker may be nil.
func NewNotifier(webhookURL string, breaker *resilience.Breaker) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		breaker:    breaker,
	}
}

func (n *Notifier) Name() string { return providerName }

func (n *Notifier) Capabilities() notifier.Capabilities {
	return notifier.Capabilities{MaxMessageLength: maxSectionText}
}

// message is the Block Kit payload.
type message struct {
	Text   string  `json:"text"`
	Blocks []block `json:"blocks"`
}

type block struct {
	Type     string  `json:"type"`
	Text     *text   `json:"text,omitempty"`
	Elements []*text `json:"elements,omitempty"`
}

type text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (n *Notifier) Send(ctx context.Context, notification notifier.Notification) error {
	if n.webhookURL == "" {
		return notifier.ErrNotConfigured
	}
	body, err := json.Marshal(buildMessage(notification))
	if err != nil {
		return fmt.Errorf("slack marshal: %w", err)
	}
	post := func() error { return n.post(ctx, body) }
	if n.breaker == nil {
		return post()
	}
	return n.breaker.Execute(post)
}

func buildMessage(notification notifier.Notification) message {
	header := fmt.Sprintf("%s %s", levelTag(notification.Level), notification.Title)
	msg := message{
		Text: header,
		Blocks: []block{
			{Type: "header", Text: &text{Type: "plain_text", Text: header}},
			{Type: "section", Text: &text{Type: "mrkdwn", Text: notifier.Truncate(notification.Message, maxSectionText)}},
		},
	}
	if notification.Source != "" {
		msg.Blocks = append(msg.Blocks, block{
			Type:     "context",
			Elements: []*text{{Type: "mrkdwn", Text: fmt.Sprintf("_Événement : %s_", notification.Source)}},
		})
	}
	return msg
}

func (n *Notifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req) //nolint:gosec // webhook URL from trusted config
	if err != nil {
		return fmt.Errorf("slack send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("slack API %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func levelTag(level string) string {
	switch level {
	case "success":
		return "[OK]"
	case "error":
		return "[ERREUR]"
	case "warning":
		return "[ATTENTION]"
	default:
		return "[INFO]"
	}
}
