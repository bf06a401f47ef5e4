package domain

import "time"

// Status is the execution state of a single Plan.
// NotStarted → Running → {Passed, Failed}; Skipped marks plans rejected before execution.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusPassed     Status = "passed"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusSkipped
}

// Outcome records the result of one Plan.
type Outcome struct {
	PlanID      string `json:"plan_id"`
	Description string `json:"description"`

	// PathDescription groups outcomes of the same Path.
	PathDescription string `json:"path"`
	Target          string `json:"target"`
	Status          Status `json:"status"`

	// StepsRun counts the steps executed before the plan settled.
	StepsRun int `json:"steps_run"`

	// FailedStep is the 1-based index of the failing step; 0 means the initial state.
	// Only meaningful when Status is StatusFailed.
	FailedStep int    `json:"failed_step,omitempty"`
	State      string `json:"state,omitempty"`

	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`

	Duration time.Duration `json:"duration"`
}

// Fail settles the outcome as failed with err.
func (o *Outcome) Fail(step int, state string, err error) {
	o.Status = StatusFailed
	o.FailedStep = step
	o.State = state
	o.Err = err
	if err != nil {
		o.Error = err.Error()
	}
}
