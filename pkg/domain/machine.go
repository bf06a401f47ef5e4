package domain

import "slices"

// Machine is the declarative description the engine builds its graph from.
// It is provided programmatically (see package dsl) and treated as immutable once built.
type Machine struct {
	ID          string          `json:"id" yaml:"id"`
	States      []StateDef      `json:"states" yaml:"states"`
	Transitions []TransitionDef `json:"transitions" yaml:"transitions"`
	Events      []EventDef      `json:"events,omitempty" yaml:"events,omitempty"`

	// Context is the extended state handed to every guard.
	Context Context `json:"context,omitempty" yaml:"context,omitempty"`
}

// WithCases returns a copy of the machine where the given cases are appended to the
// matching event declarations. Unknown tags are declared as new parameterized events.
func (m Machine) WithCases(cases map[string][]Case) Machine {
	if len(cases) == 0 {
		return m
	}

	out := m
	out.Events = make([]EventDef, len(m.Events))
	copy(out.Events, m.Events)

	seen := make(map[string]bool, len(out.Events))
	for i := range out.Events {
		def := &out.Events[i]
		seen[def.Type] = true
		if extra, ok := cases[def.Type]; ok {
			merged := make([]Case, 0, len(def.Cases)+len(extra))
			merged = append(merged, def.Cases...)
			merged = append(merged, extra...)
			def.Cases = merged
			def.Parameterized = true
		}
	}

	// Keep deterministic order for new declarations.
	for _, tag := range sortedKeys(cases) {
		if seen[tag] {
			continue
		}
		out.Events = append(out.Events, EventDef{
			Type:          tag,
			Cases:         cases[tag],
			Parameterized: true,
		})
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
