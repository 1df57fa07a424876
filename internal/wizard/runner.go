package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/windevexpert/windevexpert/internal/domain/install"
)

// DefaultCompletionDelay is the pause between the last successful step and
// the Done screen.
const DefaultCompletionDelay = 2 * time.Second

// ErrNotConfirmed is returned by Cleanup without explicit confirmation.
var ErrNotConfirmed = errors.New("cleanup requires confirmation")

// StepError reports the step that halted the installation.
type StepError struct {
	Step    install.Step
	Message string
	Err     error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("step %d (%s): %v", int(e.Step), e.Step, e.Err)
	}
	return fmt.Sprintf("step %d (%s) failed: %s", int(e.Step), e.Step, e.Message)
}

func (e *StepError) Unwrap() error { return e.Err }

// Observer receives wizard lifecycle notifications. Calls happen on the
// goroutine running the Runner method.
type Observer interface {
	StateChanged(s State)
	StepStarted(step install.Step)
	StepFinished(step install.Step, res install.StepResult)
}

// ObserverFuncs adapts optional callbacks into an Observer.
type ObserverFuncs struct {
	OnState     func(State)
	OnStepStart func(install.Step)
	OnStepDone  func(install.Step, install.StepResult)
}

// StateChanged implements Observer.
func (o ObserverFuncs) StateChanged(s State) {
	if o.OnState != nil {
		o.OnState(s)
	}
}

// StepStarted implements Observer.
func (o ObserverFuncs) StepStarted(step install.Step) {
	if o.OnStepStart != nil {
		o.OnStepStart(step)
	}
}

// StepFinished implements Observer.
func (o ObserverFuncs) StepFinished(step install.Step, res install.StepResult) {
	if o.OnStepDone != nil {
		o.OnStepDone(step, res)
	}
}

// Runner drives a Client through the wizard states. Its methods are meant
// to be called from one goroutine; State may be read from any.
type Runner struct {
	client    Client
	observers []Observer
	delay     time.Duration

	mu    sync.Mutex
	state State
}

// Option configures a Runner.
type Option func(*Runner)

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithCompletionDelay overrides DefaultCompletionDelay.
func WithCompletionDelay(d time.Duration) Option {
	return func(r *Runner) { r.delay = d }
}

// NewRunner creates a runner in Configuring with c as the initial
// configuration.
func NewRunner(client Client, c install.Config, opts ...Option) *Runner {
	r := &Runner{client: client, delay: DefaultCompletionDelay, state: New(c)}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// State returns a snapshot of the current state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.state
	s.Log = append([]LogEntry(nil), r.state.Log...)
	return s
}

func (r *Runner) apply(e Event) (State, error) {
	r.mu.Lock()
	next, err := Reduce(r.state, e)
	if err == nil {
		r.state = next
	}
	r.mu.Unlock()
	if err != nil {
		return next, err
	}
	for _, o := range r.observers {
		o.StateChanged(next)
	}
	return next, nil
}

func (r *Runner) fail(err error) error {
	_, _ = r.apply(RequestFailed{Err: err})
	return err
}

// Edit replaces the configuration while in Configuring.
func (r *Runner) Edit(c install.Config) error {
	_, err := r.apply(Edit{Config: c})
	return err
}

// TestConnection asks the executor to open the configured database. The
// wizard state is not changed.
func (r *Runner) TestConnection(ctx context.Context, c install.Config) (install.StepResult, error) {
	resp, err := r.client.Do(ctx, install.Request{Action: install.ActionTestConnection, Config: c})
	if err != nil {
		return install.StepResult{}, err
	}
	return resp.StepResult, nil
}

// Submit leaves Configuring with c and runs the validation. A field error
// is returned as *install.FieldError with the state left unchanged.
func (r *Runner) Submit(ctx context.Context, c install.Config) (install.Validation, error) {
	if _, err := r.apply(Submit{Config: c}); err != nil {
		return install.Validation{}, err
	}
	return r.Validate(ctx)
}

// Validate sends the frozen configuration to the executor. It may be called
// again to retry after an error.
func (r *Runner) Validate(ctx context.Context) (install.Validation, error) {
	s := r.State()
	if s.Phase != Validating {
		return install.Validation{}, notAllowed(s, ValidationReceived{})
	}
	resp, err := r.client.Do(ctx, install.Request{Action: install.ActionValidateConfig, Config: s.Config})
	if err != nil {
		return install.Validation{}, r.fail(err)
	}
	v := install.Validation{Checks: resp.Checks, Overall: resp.Overall}
	if v.Overall == "" {
		v.Overall = install.Aggregate(v.Checks)
	}
	if _, err := r.apply(ValidationReceived{Validation: v}); err != nil {
		return v, err
	}
	return v, nil
}

// Back returns to Configuring.
func (r *Runner) Back() error {
	_, err := r.apply(Back{})
	return err
}

// Install dispatches the remaining steps in order, each only after the
// previous one succeeded. From Validating it starts at step 0; after a
// failure it retries the failed step. It returns a *StepError when a step
// fails, and enters Done after the completion delay.
func (r *Runner) Install(ctx context.Context) error {
	s := r.State()
	switch {
	case s.Phase == Validating:
		if _, err := r.apply(StartInstall{}); err != nil {
			return err
		}
	case s.Phase == Installing && s.Halted:
		if _, err := r.apply(Retry{}); err != nil {
			return err
		}
	case s.Phase == Installing:
	default:
		return notAllowed(s, StartInstall{})
	}

	for {
		s = r.State()
		if s.Complete() {
			break
		}
		step := s.Next
		for _, o := range r.observers {
			o.StepStarted(step)
		}
		n := int(step)
		resp, err := r.client.Do(ctx, install.Request{Action: install.ActionInstallStep, Config: s.Config, Step: &n})
		if err != nil {
			return &StepError{Step: step, Err: r.fail(err)}
		}
		if _, err := r.apply(StepCompleted{Step: step, Result: resp.StepResult}); err != nil {
			return err
		}
		for _, o := range r.observers {
			o.StepFinished(step, resp.StepResult)
		}
		if !resp.Success {
			return &StepError{Step: step, Message: resp.Message}
		}
	}

	if r.delay > 0 {
		t := time.NewTimer(r.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	_, err := r.apply(Finish{})
	return err
}

// Export returns the redacted configuration snapshot. It is available once
// the configuration passed field validation.
func (r *Runner) Export() ([]byte, error) {
	s := r.State()
	if s.Phase == Configuring {
		return nil, notAllowed(s, Submit{})
	}
	return s.Config.Export()
}

// Cleanup asks the executor to remove the installer. Only allowed in Done
// and only when confirmed.
func (r *Runner) Cleanup(ctx context.Context, confirm bool) (install.StepResult, error) {
	s := r.State()
	if s.Phase != Done {
		return install.StepResult{}, notAllowed(s, CleanedUp{})
	}
	if !confirm {
		return install.StepResult{}, ErrNotConfirmed
	}
	resp, err := r.client.Do(ctx, install.Request{Action: install.ActionCleanup, Config: s.Config, Confirm: true})
	if err != nil {
		return install.StepResult{}, r.fail(err)
	}
	if !resp.Success {
		return resp.StepResult, nil
	}
	if _, err := r.apply(CleanedUp{}); err != nil {
		return resp.StepResult, err
	}
	return resp.StepResult, nil
}
