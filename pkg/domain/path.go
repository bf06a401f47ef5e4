package domain

import (
	"fmt"
	"strings"
)

// Step is one edge of a Path: the event tag sent from Source and the leaf state it leads to.
type Step struct {
	Source string `json:"source"`
	Event  string `json:"event"`
	Target string `json:"target"`
}

// Path is a shortest simple path from the initial state to Target.
// A Path to the initial state has no steps.
type Path struct {
	// Initial is the leaf state the machine starts in.
	Initial string `json:"initial"`
	Target  string `json:"target"`
	Steps   []Step `json:"steps"`
}

// Description identifies the path by its terminal state, e.g. `reaches state "invalid.username"`.
func (p Path) Description() string {
	return fmt.Sprintf("reaches state %q", p.Target)
}

// Via renders the event sequence, e.g. "via FILL_FORM → SUBMIT".
func (p Path) Via() string {
	if len(p.Steps) == 0 {
		return "via initial state"
	}
	tags := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		tags[i] = s.Event
	}
	return "via " + strings.Join(tags, " → ")
}

// States returns the sequence of states visited, starting with the initial state.
func (p Path) States() []string {
	states := make([]string, 0, len(p.Steps)+1)
	states = append(states, p.Initial)
	for _, s := range p.Steps {
		states = append(states, s.Target)
	}
	return states
}

// Len is the number of steps (the breadth-first distance of Target).
func (p Path) Len() int {
	return len(p.Steps)
}

// PlanStep is a Step with its event instance fully resolved.
type PlanStep struct {
	Step
	Event Event `json:"event_instance"`
}

// Plan is one executable instantiation of a Path.
type Plan struct {
	// ID is stable within a synthesis run: "<target>#<n>".
	ID    string     `json:"id"`
	Path  Path       `json:"path"`
	Steps []PlanStep `json:"steps"`
}

// Description combines the path description with the concrete events used.
func (p Plan) Description() string {
	if len(p.Steps) == 0 {
		return p.Path.Description()
	}
	events := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		events[i] = s.Event.String()
	}
	return fmt.Sprintf("%s via %s", p.Path.Description(), strings.Join(events, " → "))
}
