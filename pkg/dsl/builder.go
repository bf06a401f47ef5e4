package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
)

// Builder manages the machine construction.
type Builder struct {
	id      string
	context domain.Context

	states []*StateBuilder
	byID   map[string]*StateBuilder

	events     []*EventBuilder
	eventsByID map[string]*EventBuilder

	errs []error
}

// New creates a new machine builder.
func New(id string) *Builder {
	return &Builder{
		id:         id,
		byID:       make(map[string]*StateBuilder),
		eventsByID: make(map[string]*EventBuilder),
	}
}

// Context sets a value of the extended state handed to guards.
func (b *Builder) Context(key string, value any) *Builder {
	if b.context == nil {
		b.context = make(domain.Context)
	}
	b.context[key] = value
	return b
}

// State declares (or returns the existing) top-level state with the given key.
func (b *Builder) State(key string) *StateBuilder {
	return b.state("", key)
}

// Event declares (or returns the existing) event declaration for a tag.
func (b *Builder) Event(tag string) *EventBuilder {
	if eb, ok := b.eventsByID[tag]; ok {
		return eb
	}
	eb := &EventBuilder{def: domain.EventDef{Type: tag}}
	b.events = append(b.events, eb)
	b.eventsByID[tag] = eb
	return eb
}

func (b *Builder) state(parent, key string) *StateBuilder {
	id := domain.JoinID(parent, key)
	if sb, ok := b.byID[id]; ok {
		return sb
	}
	if key == "" {
		b.errs = append(b.errs, fmt.Errorf("state under %q: empty key", parent))
	}
	sb := &StateBuilder{
		def:     domain.StateDef{ID: id, Parent: parent},
		builder: b,
	}
	b.states = append(b.states, sb)
	b.byID[id] = sb
	return sb
}

// Build compiles the builder into a domain.Machine.
// Structural validation (targets, initial state, final states) happens in graph.Build.
func (b *Builder) Build() (domain.Machine, error) {
	if b.id == "" {
		b.errs = append(b.errs, errors.New("machine id is required"))
	}
	if len(b.errs) > 0 {
		return domain.Machine{}, fmt.Errorf("failed to build machine %q: %w", b.id, errors.Join(b.errs...))
	}

	m := domain.Machine{
		ID:      b.id,
		Context: b.context,
		States:  make([]domain.StateDef, 0, len(b.states)),
		Events:  make([]domain.EventDef, 0, len(b.events)),
	}
	for _, sb := range b.states {
		m.States = append(m.States, sb.def)
		m.Transitions = append(m.Transitions, sb.transitions...)
	}
	for _, eb := range b.events {
		m.Events = append(m.Events, eb.def)
	}
	return m, nil
}

// MustBuild is like Build but panics on error. Intended for package-level machine declarations.
func (b *Builder) MustBuild() domain.Machine {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}
