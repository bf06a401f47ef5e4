package domain

import (
	"context"
	"strings"
)

// Kind classifies a state node.
type Kind string

const (
	// KindAtomic is a leaf state without children.
	KindAtomic Kind = "atomic"
	// KindCompound owns child states and delegates entry to its initial child.
	KindCompound Kind = "compound"
	// KindFinal is a leaf state with no outgoing transitions.
	KindFinal Kind = "final"
)

// IDSeparator joins the keys of a path-qualified state identifier (e.g. "invalid.username").
const IDSeparator = "."

// Assertion checks the subject's observable output once it has arrived at a state.
// View is whatever read-only handle the executor adapter supplies.
// A nil return means the expectation holds; the error explains what was not met.
type Assertion func(ctx context.Context, view View) error

// View is the adapter-supplied read-only access to the subject's current output.
type View any

// StateDef declares one state of the machine.
// States are stored as a flat table; hierarchy is expressed through Parent.
type StateDef struct {
	// ID is the path-qualified identifier, e.g. "invalid.username".
	ID string `json:"id" yaml:"id"`

	// Parent is the ID of the owning compound state. Empty for top-level states.
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`

	// Kind is inferred when empty: compound if the state has children, atomic otherwise.
	Kind Kind `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Initial marks the state entered when its parent (or the machine, for top-level states) is entered.
	Initial bool `json:"initial,omitempty" yaml:"initial,omitempty"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Assert is invoked after the executor reports arrival at this state (or a descendant).
	Assert Assertion `json:"-" yaml:"-"`
}

// Key returns the last segment of the state identifier.
func (s StateDef) Key() string {
	if i := strings.LastIndex(s.ID, IDSeparator); i >= 0 {
		return s.ID[i+1:]
	}
	return s.ID
}

// IsLeaf reports whether the state can be the resting point of a configuration.
func (s StateDef) IsLeaf() bool {
	return s.Kind != KindCompound
}

// JoinID builds a child identifier from its parent identifier and key.
func JoinID(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + IDSeparator + key
}
