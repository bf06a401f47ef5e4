package domain

import (
	"context"
	"fmt"
)

// Event is a concrete event instance sent to the subject under test.
type Event struct {
	// Type is the event tag, e.g. "FILL_FORM".
	Type string `json:"type"`

	// Payload is the concrete payload agreed with the executor adapter. Nil for plain events.
	Payload any `json:"payload,omitempty"`

	// Case is the label of the representative case the payload was taken from, if any.
	Case string `json:"case,omitempty"`
}

// String renders the event for descriptions: TYPE or TYPE(case).
func (e Event) String() string {
	if e.Case != "" {
		return fmt.Sprintf("%s(%s)", e.Type, e.Case)
	}
	if e.Payload != nil {
		return fmt.Sprintf("%s%v", e.Type, e.Payload)
	}
	return e.Type
}

// Case is one representative payload declared for a parameterized event.
type Case struct {
	Label   string `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
	Payload any    `json:"payload" yaml:"payload" mapstructure:"payload"`
}

// ExecFunc performs an event's real-world action against the subject returned by the
// SubjectFactory. It must block until the effect has settled.
type ExecFunc func(ctx context.Context, subject any, ev Event) error

// EventDef declares an event tag of the machine.
type EventDef struct {
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Cases are the representative payloads used during synthesis.
	Cases []Case `json:"cases,omitempty" yaml:"cases,omitempty"`

	// Parameterized marks events whose payload must come from a declared Case.
	Parameterized bool `json:"parameterized,omitempty" yaml:"parameterized,omitempty"`

	// Payload is the fixed payload used when the event declares no cases.
	Payload any `json:"payload,omitempty" yaml:"payload,omitempty"`

	// Exec, when set, performs the event instead of the subject's own Executor.
	Exec ExecFunc `json:"-" yaml:"-"`
}
