package wizard

import (
	"errors"
	"fmt"
	"slices"

	"github.com/windevexpert/windevexpert/internal/domain/install"
)

// ErrTransition is returned when an event is not allowed in the current
// phase.
var ErrTransition = errors.New("transition not allowed")

// Event is a wizard input. The set of events is closed.
type Event interface {
	event()
}

// Edit replaces the configuration being edited.
type Edit struct{ Config install.Config }

// Submit asks to leave Configuring with the given configuration.
type Submit struct{ Config install.Config }

// ValidationReceived carries the executor's validation report.
type ValidationReceived struct{ Validation install.Validation }

// Back returns from Validating to Configuring.
type Back struct{}

// StartInstall enters Installing.
type StartInstall struct{}

// StepCompleted records the result of the step that was dispatched.
type StepCompleted struct {
	Step   install.Step
	Result install.StepResult
}

// Retry clears a halt so the failed step can be dispatched again.
type Retry struct{}

// Finish enters Done once every step succeeded.
type Finish struct{}

// RequestFailed records a transport or server error.
type RequestFailed struct{ Err error }

// CleanedUp records that the executor disabled itself.
type CleanedUp struct{}

func (Edit) event()               {}
func (Submit) event()             {}
func (ValidationReceived) event() {}
func (Back) event()               {}
func (StartInstall) event()       {}
func (StepCompleted) event()      {}
func (Retry) event()              {}
func (Finish) event()             {}
func (RequestFailed) event()      {}
func (CleanedUp) event()          {}

func notAllowed(s State, e Event) error {
	return fmt.Errorf("%T in %s: %w", e, s.Phase, ErrTransition)
}

// Reduce applies e to s. On error the returned state equals s. A Submit
// whose configuration fails field validation returns the first offending
// field as an *install.FieldError.
func Reduce(s State, e Event) (State, error) {
	switch e := e.(type) {
	case Edit:
		if s.Phase != Configuring {
			return s, notAllowed(s, e)
		}
		s.Config = e.Config
		return s, nil

	case Submit:
		if s.Phase != Configuring {
			return s, notAllowed(s, e)
		}
		if ferr := e.Config.ValidateFields(); ferr != nil {
			return s, ferr
		}
		s.Config = e.Config
		s.Phase = Validating
		s.Validation = nil
		s.Err = ""
		return s, nil

	case ValidationReceived:
		if s.Phase != Validating {
			return s, notAllowed(s, e)
		}
		v := e.Validation
		s.Validation = &v
		s.Err = ""
		return s, nil

	case Back:
		if s.Phase != Validating {
			return s, notAllowed(s, e)
		}
		s.Phase = Configuring
		s.Validation = nil
		s.Err = ""
		return s, nil

	case StartInstall:
		if !s.CanInstall() {
			return s, notAllowed(s, e)
		}
		s.Phase = Installing
		s.Log = nil
		s.Next = install.StepConfigFiles
		s.Halted = false
		s.Err = ""
		return s, nil

	case StepCompleted:
		if s.Phase != Installing || s.Halted || e.Step != s.Next {
			return s, notAllowed(s, e)
		}
		s.Log = append(slices.Clip(s.Log), LogEntry{Step: e.Step, Result: e.Result})
		if e.Result.Success {
			s.Next++
		} else {
			s.Halted = true
		}
		return s, nil

	case Retry:
		if s.Phase != Installing || !s.Halted {
			return s, notAllowed(s, e)
		}
		s.Halted = false
		s.Err = ""
		return s, nil

	case Finish:
		if s.Phase != Installing || !s.Complete() {
			return s, notAllowed(s, e)
		}
		s.Phase = Done
		// The durable configuration now lives on the server.
		s.Config = s.Config.Redacted()
		s.Err = ""
		return s, nil

	case RequestFailed:
		if s.Phase == Installing {
			s.Halted = true
		}
		if e.Err != nil {
			s.Err = e.Err.Error()
		}
		return s, nil

	case CleanedUp:
		if s.Phase != Done {
			return s, notAllowed(s, e)
		}
		s.CleanedUp = true
		return s, nil
	}
	return s, fmt.Errorf("unknown event %T", e)
}
