package domain

// Context is the machine's extended state as seen by guards. Guards must treat it as read-only.
type Context map[string]any

// Guard decides whether a candidate transition fires for an event.
// It must be pure and deterministic; returning an error (or panicking) is a definition error.
type Guard func(ctx Context, ev Event) (bool, error)

// Candidate is one (guard, target) pair of a transition.
// A nil Guard always matches.
type Candidate struct {
	// GuardName is a human-readable label used in diagrams and error messages.
	GuardName string `json:"guard,omitempty" yaml:"guard,omitempty"`
	Guard     Guard  `json:"-" yaml:"-"`

	// Target is the ID of the state entered when the guard matches.
	Target string `json:"target" yaml:"target"`
}

// TransitionDef binds an event tag on a source state to an ordered list of candidates.
// Candidates are evaluated in declaration order; the first matching guard wins.
type TransitionDef struct {
	Source     string      `json:"source" yaml:"source"`
	Event      string      `json:"event" yaml:"event"`
	Candidates []Candidate `json:"candidates" yaml:"candidates"`
}
