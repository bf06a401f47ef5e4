package domain

import (
	"errors"
	"fmt"
)

// Machine definition errors. Fatal at graph build time.
var (
	ErrUnknownTargetState   = errors.New("unknown target state")
	ErrInvalidFinalState    = errors.New("invalid final state")
	ErrInvalidInitialState  = errors.New("invalid initial state")
	ErrInvalidCompoundState = errors.New("invalid compound state")
	ErrUnknownParent        = errors.New("unknown parent state")
	ErrDuplicateState       = errors.New("duplicate state")
	ErrUnknownSourceState   = errors.New("unknown source state")
)

// Planning and execution errors. Scoped to a single event or plan.
var (
	ErrGuardEvaluationFailed        = errors.New("guard evaluation failed")
	ErrNoCasesForParameterizedEvent = errors.New("no cases for parameterized event")
	ErrAdapterExecutionFailed       = errors.New("adapter execution failed")
	ErrAssertionFailed              = errors.New("assertion failed")
	ErrCaseMismatch                 = errors.New("case does not select the planned target")
)

// Lookup errors used by adapters.
var (
	ErrReportNotFound = errors.New("report not found")
	ErrModelNotFound  = errors.New("model not found")
)

// DefinitionError locates a structural problem in a Machine.
type DefinitionError struct {
	State  string
	Event  string
	Target string
	Reason string
	Err    error
}

func (e *DefinitionError) Error() string {
	msg := fmt.Sprintf("state %q", e.State)
	if e.Event != "" {
		msg += fmt.Sprintf(" on %s", e.Event)
	}
	if e.Target != "" {
		msg += fmt.Sprintf(" -> %q", e.Target)
	}
	if e.Reason != "" {
		return fmt.Sprintf("%v: %s: %s", e.Err, msg, e.Reason)
	}
	return fmt.Sprintf("%v: %s", e.Err, msg)
}

func (e *DefinitionError) Unwrap() error { return e.Err }

// GuardError reports a guard that failed instead of returning a boolean.
type GuardError struct {
	State string
	Event string
	Index int
	Guard string
	Cause error
}

func (e *GuardError) Error() string {
	name := e.Guard
	if name == "" {
		name = fmt.Sprintf("#%d", e.Index)
	}
	return fmt.Sprintf("%v: guard %s of %s on %q: %v", ErrGuardEvaluationFailed, name, e.Event, e.State, e.Cause)
}

func (e *GuardError) Unwrap() []error { return []error{ErrGuardEvaluationFailed, e.Cause} }

// SynthesisError reports a parameterized event declaring no cases.
type SynthesisError struct {
	Event string
	// Paths lists the descriptions of the paths that could not be synthesized.
	Paths []string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("%v: %s (used by %d path(s))", ErrNoCasesForParameterizedEvent, e.Event, len(e.Paths))
}

func (e *SynthesisError) Unwrap() error { return ErrNoCasesForParameterizedEvent }

// StepError reports an executor adapter failure while performing a step.
type StepError struct {
	Plan  string
	Step  int
	Event string
	Cause error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%v: plan %q step %d (%s): %v", ErrAdapterExecutionFailed, e.Plan, e.Step, e.Event, e.Cause)
}

func (e *StepError) Unwrap() []error { return []error{ErrAdapterExecutionFailed, e.Cause} }

// AssertionError reports a state whose assertion hook did not hold after arrival.
type AssertionError struct {
	Plan  string
	Step  int
	State string
	Cause error
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%v: plan %q state %q (step %d): %v", ErrAssertionFailed, e.Plan, e.State, e.Step, e.Cause)
}

func (e *AssertionError) Unwrap() []error { return []error{ErrAssertionFailed, e.Cause} }
