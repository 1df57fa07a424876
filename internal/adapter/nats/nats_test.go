package nats

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/windevexpert/windevexpert/internal/logger"
	"github.com/windevexpert/windevexpert/internal/port/messagequeue"
)

var (
	_ messagequeue.Queue = (*Queue)(nil)
	_ messagequeue.Queue = Disabled{}
)

// testConnect connects to NATS or skips the test if NATS_URL is not set.
func testConnect(t *testing.T) *Queue {
	t.Helper()

	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}

	q, err := Connect(context.Background(), url, "wdetest")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		if err := q.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return q
}

func TestQueue_PublishSubscribe(t *testing.T) {
	q := testConnect(t)

	want := messagequeue.OrderStatusPayload{OrderID: "o1", From: "pending", To: "paid"}
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}

	var (
		mu       sync.Mutex
		got      messagequeue.OrderStatusPayload
		gotSubj  string
		gotReqID string
		done     = make(chan struct{})
		once     sync.Once
	)
	stop, err := q.Subscribe(context.Background(), messagequeue.SubjectOrderStatus, func(ctx context.Context, subj string, d []byte) error {
		mu.Lock()
		defer mu.Unlock()
		gotSubj = subj
		gotReqID = logger.RequestID(ctx)
		once.Do(func() { close(done) })
		return json.Unmarshal(d, &got)
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	ctx := logger.WithRequestID(context.Background(), "req-42")
	if err := q.Publish(ctx, messagequeue.SubjectOrderStatus, data); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	mu.Lock()
	defer mu.Unlock()
	if got != want {
		t.Errorf("payload = %+v, want %+v", got, want)
	}
	if gotSubj != messagequeue.SubjectOrderStatus {
		t.Errorf("subject = %q", gotSubj)
	}
	if gotReqID != "req-42" {
		t.Errorf("request id = %q", gotReqID)
	}
}

func TestQueue_PublishRejectsInvalidPayload(t *testing.T) {
	q := testConnect(t)
	if err := q.Publish(context.Background(), messagequeue.SubjectQuoteResponded, []byte("{broken")); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestStreamName(t *testing.T) {
	if got := streamName("windevexpert.prod-eu"); got != "WINDEVEXPERT_PROD_EU" {
		t.Errorf("streamName = %q", got)
	}
}

func TestDisabled(t *testing.T) {
	var q Disabled
	if err := q.Publish(context.Background(), messagequeue.SubjectOrderStatus, []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	if q.IsConnected() {
		t.Error("disabled queue reports connected")
	}
}
