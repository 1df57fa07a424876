// Package nats implements the domain event queue on NATS. Events are
// persisted in a JetStream stream when the server supports it and published
// on core NATS otherwise.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/windevexpert/windevexpert/internal/logger"
	"github.com/windevexpert/windevexpert/internal/port/messagequeue"
)

const headerRequestID = "X-Request-ID"

// Queue implements messagequeue.Queue on a NATS connection.
type Queue struct {
	nc     *nats.Conn
	js     jetstream.JetStream // nil without JetStream
	prefix string
}

// Connect establishes a connection to NATS. prefix namespaces every subject
// and names the event stream.
func Connect(ctx context.Context, url, prefix string) (*Queue, error) {
	nc, err := nats.Connect(url,
		nats.Name("windevexpert"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	q := &Queue{nc: nc, prefix: strings.TrimSuffix(prefix, ".")}

	js, err := jetstream.New(nc)
	if err == nil {
		_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     streamName(q.prefix),
			Subjects: []string{q.prefix + ".>"},
			MaxAge:   30 * 24 * time.Hour,
		})
	}
	if err != nil {
		slog.Warn("nats: jetstream unavailable, publishing on core nats", "error", err)
	} else {
		q.js = js
	}

	slog.Info("nats connected", "url", url, "prefix", q.prefix, "jetstream", q.js != nil)
	return q, nil
}

// KeyValue opens the cache bucket of this deployment, creating it when
// missing. Entries expire after ttl. It requires JetStream.
func (q *Queue) KeyValue(ctx context.Context, ttl time.Duration) (jetstream.KeyValue, error) {
	if q.js == nil {
		return nil, fmt.Errorf("nats: key-value cache needs jetstream")
	}
	kv, err := q.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      streamName(q.prefix) + "_CACHE",
		Description: "WinDevExpert catalog cache",
		TTL:         ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("nats: key-value bucket: %w", err)
	}
	return kv, nil
}

func streamName(prefix string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(prefix))
}

func (q *Queue) subject(s string) string {
	if q.prefix == "" {
		return s
	}
	return q.prefix + "." + s
}

// Publish validates data against the subject schema and sends it.
func (q *Queue) Publish(ctx context.Context, subject string, data []byte) error {
	if err := messagequeue.Validate(subject, data); err != nil {
		return err
	}

	msg := nats.NewMsg(q.subject(subject))
	msg.Data = data
	if id := logger.RequestID(ctx); id != "" {
		msg.Header.Set(headerRequestID, id)
	}

	if q.js != nil {
		if _, err := q.js.PublishMsg(ctx, msg); err != nil {
			return fmt.Errorf("nats publish %s: %w", subject, err)
		}
		return nil
	}
	if err := q.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers a handler on core NATS for the given subject.
func (q *Queue) Subscribe(_ context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	sub, err := q.nc.Subscribe(q.subject(subject), func(m *nats.Msg) {
		ctx := context.Background()
		if id := m.Header.Get(headerRequestID); id != "" {
			ctx = logger.WithRequestID(ctx, id)
		}
		if err := handler(ctx, strings.TrimPrefix(m.Subject, q.prefix+"."), m.Data); err != nil {
			slog.Error("message handler failed", "subject", m.Subject, "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", subject, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Drain gracefully drains subscriptions and closes the connection.
func (q *Queue) Drain() error {
	return q.nc.Drain()
}

// Close shuts down the NATS connection.
func (q *Queue) Close() error {
	q.nc.Close()
	return nil
}

// IsConnected reports whether the connection is up.
func (q *Queue) IsConnected() bool {
	return q.nc.IsConnected()
}

// Disabled is the queue used when no NATS URL is configured. Publishing is
// a no-op.
type Disabled struct{}

func (Disabled) Publish(context.Context, string, []byte) error { return nil }

func (Disabled) Subscribe(context.Context, string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (Disabled) Drain() error      { return nil }
func (Disabled) Close() error      { return nil }
func (Disabled) IsConnected() bool { return false }
