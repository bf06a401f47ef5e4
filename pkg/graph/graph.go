package graph

import (
	"io"
	"log/slog"
	"maps"

	"github.com/aretw0/espalier/pkg/domain"
)

type key struct {
	state string
	event string
}

// Graph is the immutable representation of a machine's states, hierarchy and guarded transitions.
// It is safe for concurrent use once built.
type Graph struct {
	machineID string
	initial   string

	order    []string
	states   map[string]domain.StateDef
	children map[string][]string

	// own holds the candidates declared on a state, with targets resolved to leaves.
	own map[key][]domain.Candidate
	// ownEvents keeps the declaration order of event tags per state.
	ownEvents map[string][]string

	events     map[string]domain.EventDef
	eventOrder []string

	context   domain.Context
	reachable map[string]bool
	warnings  []string

	logger *slog.Logger
}

// Option configures Build.
type Option func(*Graph)

// WithLogger sets the logger used to report warnings such as unreachable states.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// MachineID returns the identifier of the machine the graph was built from.
func (g *Graph) MachineID() string {
	return g.machineID
}

// Initial returns the leaf state the machine starts in.
func (g *Graph) Initial() string {
	return g.initial
}

// InitialState returns the definition of the initial leaf state.
func (g *Graph) InitialState() domain.StateDef {
	return g.states[g.initial]
}

// State looks up a state definition by ID.
func (g *Graph) State(id string) (domain.StateDef, bool) {
	s, ok := g.states[id]
	return s, ok
}

// States returns every state in declaration order.
func (g *Graph) States() []domain.StateDef {
	out := make([]domain.StateDef, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.states[id])
	}
	return out
}

// Leaves returns the atomic and final states in declaration order.
func (g *Graph) Leaves() []string {
	var out []string
	for _, id := range g.order {
		if g.states[id].IsLeaf() {
			out = append(out, id)
		}
	}
	return out
}

// Children returns the direct children of a state in declaration order.
// Use the empty ID for the top-level states.
func (g *Graph) Children(id string) []string {
	return append([]string(nil), g.children[id]...)
}

// Parent returns the parent ID of a state, empty for top-level states.
func (g *Graph) Parent(id string) string {
	return g.states[id].Parent
}

// Ancestry returns the chain of state IDs from the top-level ancestor down to id.
func (g *Graph) Ancestry(id string) []string {
	var chain []string
	for cur := id; cur != ""; cur = g.states[cur].Parent {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Events returns the event tags that have transitions from a state, including
// tags inherited from its ancestors. Own declarations come first.
func (g *Graph) Events(id string) []string {
	if g.states[id].Kind == domain.KindFinal {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for cur := id; cur != ""; cur = g.states[cur].Parent {
		for _, ev := range g.ownEvents[cur] {
			if !seen[ev] {
				seen[ev] = true
				out = append(out, ev)
			}
		}
	}
	return out
}

// TransitionsFrom returns the ordered (guard, target) candidates handling event in state.
// The nearest state in the ancestry that declares the event wins; targets are resolved leaves.
// An empty result means the event has no effect in that state. Final states never transition.
func (g *Graph) TransitionsFrom(id, event string) []domain.Candidate {
	if g.states[id].Kind == domain.KindFinal {
		return nil
	}
	for cur := id; cur != ""; cur = g.states[cur].Parent {
		if cands, ok := g.own[key{cur, event}]; ok {
			return append([]domain.Candidate(nil), cands...)
		}
	}
	return nil
}

// Declared returns the transitions declared on the state itself, without inherited ones.
// Targets are resolved leaves.
func (g *Graph) Declared(id string) []domain.TransitionDef {
	out := make([]domain.TransitionDef, 0, len(g.ownEvents[id]))
	for _, ev := range g.ownEvents[id] {
		out = append(out, domain.TransitionDef{
			Source:     id,
			Event:      ev,
			Candidates: append([]domain.Candidate(nil), g.own[key{id, ev}]...),
		})
	}
	return out
}

// Event returns the declaration of an event tag. Undeclared tags used by transitions
// are returned as plain events without cases.
func (g *Graph) Event(tag string) (domain.EventDef, bool) {
	def, ok := g.events[tag]
	return def, ok
}

// EventDefs returns all event declarations in order (declared first, then implicit ones).
func (g *Graph) EventDefs() []domain.EventDef {
	out := make([]domain.EventDef, 0, len(g.eventOrder))
	for _, tag := range g.eventOrder {
		out = append(out, g.events[tag])
	}
	return out
}

// Context returns a copy of the machine's extended state.
func (g *Graph) Context() domain.Context {
	return maps.Clone(g.context)
}

// IsReachable reports whether a state can be reached from the initial state.
// A compound state is reachable if any of its descendants is.
func (g *Graph) IsReachable(id string) bool {
	return g.reachable[id]
}

// Unreachable returns the states that cannot be reached, in declaration order.
func (g *Graph) Unreachable() []string {
	var out []string
	for _, id := range g.order {
		if !g.reachable[id] {
			out = append(out, id)
		}
	}
	return out
}

// Warnings returns non-fatal findings collected during Build.
func (g *Graph) Warnings() []string {
	return append([]string(nil), g.warnings...)
}

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
