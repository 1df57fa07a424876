package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var errRelay = errors.New("relay unavailable")

func fail() error { return errRelay }
func ok() error   { return nil }

func newTestBreaker(maxFailures int) (*Breaker, *time.Time) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := NewBreaker(maxFailures, time.Minute)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestClosedBreakerRunsCalls(t *testing.T) {
	b, _ := newTestBreaker(3)
	called := false
	if err := b.Execute(func() error { called = true; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("fn not called")
	}
	if b.State() != StateClosed {
		t.Errorf("state = %s", b.State())
	}
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	b, _ := newTestBreaker(3)
	for i := 0; i < 2; i++ {
		if err := b.Execute(fail); !errors.Is(err, errRelay) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}
	if b.State() != StateClosed {
		t.Fatalf("opened too early: %s", b.State())
	}
	_ = b.Execute(fail)

	called := false
	err := b.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("fn called while open")
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(2)
	_ = b.Execute(fail)
	_ = b.Execute(ok)
	_ = b.Execute(fail)
	if b.State() != StateClosed {
		t.Errorf("state = %s, want closed", b.State())
	}
}

func TestHalfOpenProbe(t *testing.T) {
	tests := []struct {
		name  string
		probe func() error
		want  State
	}{
		{"probe succeeds", ok, StateClosed},
		{"probe fails", fail, StateOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, now := newTestBreaker(1)
			_ = b.Execute(fail)
			if b.State() != StateOpen {
				t.Fatalf("state = %s, want open", b.State())
			}

			*now = now.Add(time.Minute)
			if b.State() != StateHalfOpen {
				t.Fatalf("state = %s, want half_open", b.State())
			}
			_ = b.Execute(tt.probe)
			if b.State() != tt.want {
				t.Errorf("state = %s, want %s", b.State(), tt.want)
			}
		})
	}
}

func TestOnStateChange(t *testing.T) {
	b, now := newTestBreaker(1)
	var got []string
	b.OnStateChange(func(from, to State) { got = append(got, string(from)+">"+string(to)) })

	_ = b.Execute(fail)
	*now = now.Add(2 * time.Minute)
	_ = b.Execute(ok)

	want := []string{"closed>open", "open>half_open", "half_open>closed"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("transitions (-want +got):\n%s", diff)
	}
}
