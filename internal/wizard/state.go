// Package wizard implements the guided installation state machine and the
// runner that drives a remote installation executor through it.
//
// The state is an explicit value owned by the caller. Every change goes
// through Reduce, which either returns the next state or reports why the
// event is not allowed in the current one.
package wizard

import (
	"fmt"

	"github.com/windevexpert/windevexpert/internal/domain/install"
)

// Phase is one of the four wizard screens.
type Phase int

const (
	Configuring Phase = iota + 1
	Validating
	Installing
	Done
)

var phaseNames = map[Phase]string{
	Configuring: "CONFIGURING",
	Validating:  "VALIDATING",
	Installing:  "INSTALLING",
	Done:        "DONE",
}

func (p Phase) String() string {
	if n, ok := phaseNames[p]; ok {
		return n
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// LogEntry is one attempted installation step.
type LogEntry struct {
	Step   install.Step
	Result install.StepResult
}

// State is the complete wizard state.
type State struct {
	Phase  Phase
	Config install.Config

	// Validation is the last report received in Validating; nil until the
	// executor answered.
	Validation *install.Validation

	// Log holds every attempted step in order, failed attempts included.
	Log []LogEntry

	// Next is the index of the next step to dispatch.
	Next install.Step

	// Halted is set when a step failed; only an explicit retry clears it.
	Halted bool

	// Err is the error panel: the last transport or server error.
	Err string

	CleanedUp bool
}

// New returns the initial state for c.
func New(c install.Config) State {
	return State{Phase: Configuring, Config: c}
}

// CanInstall reports whether the installation may be started.
func (s State) CanInstall() bool {
	return s.Phase == Validating && s.Validation != nil && s.Validation.CanInstall()
}

// Succeeded returns the number of steps that completed successfully.
func (s State) Succeeded() int {
	return int(s.Next)
}

// LastResult returns the most recent log entry.
func (s State) LastResult() (LogEntry, bool) {
	if len(s.Log) == 0 {
		return LogEntry{}, false
	}
	return s.Log[len(s.Log)-1], true
}

// Complete reports whether every step succeeded.
func (s State) Complete() bool {
	return s.Next == install.StepCount
}
