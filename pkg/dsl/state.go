package dsl

import "github.com/aretw0/espalier/pkg/domain"

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	def         domain.StateDef
	transitions []domain.TransitionDef
	builder     *Builder
}

// ID returns the path-qualified identifier of the state.
func (s *StateBuilder) ID() string {
	return s.def.ID
}

// State declares a child state, turning this state into a compound state.
func (s *StateBuilder) State(key string) *StateBuilder {
	s.def.Kind = domain.KindCompound
	return s.builder.state(s.def.ID, key)
}

// Initial marks the state as the one entered with its parent (or the machine).
func (s *StateBuilder) Initial() *StateBuilder {
	s.def.Initial = true
	return s
}

// Final marks the state as final. Final states accept no transitions.
func (s *StateBuilder) Final() *StateBuilder {
	s.def.Kind = domain.KindFinal
	return s
}

// Describe sets a human-readable description.
func (s *StateBuilder) Describe(text string) *StateBuilder {
	s.def.Description = text
	return s
}

// Assert sets the assertion hook run once the subject arrives at this state.
func (s *StateBuilder) Assert(fn domain.Assertion) *StateBuilder {
	s.def.Assert = fn
	return s
}

// On adds a transition for event with candidates evaluated in the given order.
// Calling On twice for the same event appends to the existing candidate list.
func (s *StateBuilder) On(event string, candidates ...domain.Candidate) *StateBuilder {
	for i := range s.transitions {
		if s.transitions[i].Event == event {
			s.transitions[i].Candidates = append(s.transitions[i].Candidates, candidates...)
			return s
		}
	}
	s.transitions = append(s.transitions, domain.TransitionDef{
		Source:     s.def.ID,
		Event:      event,
		Candidates: candidates,
	})
	return s
}

// Go builds an unguarded candidate.
func Go(target string) domain.Candidate {
	return domain.Candidate{Target: target}
}

// When builds a guarded candidate.
func When(name string, guard domain.Guard, target string) domain.Candidate {
	return domain.Candidate{GuardName: name, Guard: guard, Target: target}
}

// EventBuilder configures an event declaration.
type EventBuilder struct {
	def domain.EventDef
}

// Describe sets a human-readable description.
func (e *EventBuilder) Describe(text string) *EventBuilder {
	e.def.Description = text
	return e
}

// Cases appends representative payloads and marks the event as parameterized.
func (e *EventBuilder) Cases(cases ...domain.Case) *EventBuilder {
	e.def.Cases = append(e.def.Cases, cases...)
	e.def.Parameterized = true
	return e
}

// Parameterized marks the event as requiring a payload case, even if none is declared yet.
func (e *EventBuilder) Parameterized() *EventBuilder {
	e.def.Parameterized = true
	return e
}

// Payload sets the fixed payload used when no cases are declared.
func (e *EventBuilder) Payload(payload any) *EventBuilder {
	e.def.Payload = payload
	return e
}

// Exec sets the action performing this event against the subject.
func (e *EventBuilder) Exec(fn domain.ExecFunc) *EventBuilder {
	e.def.Exec = fn
	return e
}

// Case is a shorthand for a labelled domain.Case.
func Case(label string, payload any) domain.Case {
	return domain.Case{Label: label, Payload: payload}
}
