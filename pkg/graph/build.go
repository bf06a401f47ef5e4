package graph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/espalier/pkg/domain"
)

// Build validates a machine description and compiles it into a Graph.
// All definition errors are collected and returned together as a *BuildError.
func Build(m domain.Machine, opts ...Option) (*Graph, error) {
	g := &Graph{
		machineID: m.ID,
		states:    make(map[string]domain.StateDef, len(m.States)),
		children:  make(map[string][]string),
		own:       make(map[key][]domain.Candidate),
		ownEvents: make(map[string][]string),
		events:    make(map[string]domain.EventDef),
		context:   make(domain.Context, len(m.Context)),
		reachable: make(map[string]bool),
		logger:    nopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	for k, v := range m.Context {
		g.context[k] = v
	}

	var errs []error
	errs = append(errs, g.indexStates(m.States)...)
	errs = append(errs, g.inferKinds()...)
	errs = append(errs, g.resolveInitial()...)
	g.indexEvents(m.Events)
	errs = append(errs, g.indexTransitions(m.Transitions)...)

	if len(errs) > 0 {
		return nil, &BuildError{Machine: m.ID, Errors: errs}
	}

	g.computeReachability()
	for _, id := range g.Unreachable() {
		g.warnings = append(g.warnings, fmt.Sprintf("state %q is unreachable from %q", id, g.initial))
		g.logger.Warn("unreachable state", "machine", g.machineID, "state", id)
	}

	return g, nil
}

func (g *Graph) indexStates(defs []domain.StateDef) []error {
	var errs []error
	for _, s := range defs {
		if s.ID == "" {
			errs = append(errs, &domain.DefinitionError{Reason: "empty state id", Err: domain.ErrInvalidCompoundState})
			continue
		}
		if _, dup := g.states[s.ID]; dup {
			errs = append(errs, &domain.DefinitionError{State: s.ID, Err: domain.ErrDuplicateState})
			continue
		}
		g.states[s.ID] = s
		g.order = append(g.order, s.ID)
	}

	for _, id := range g.order {
		parent := g.states[id].Parent
		if parent != "" {
			if _, ok := g.states[parent]; !ok {
				errs = append(errs, &domain.DefinitionError{State: id, Target: parent, Err: domain.ErrUnknownParent})
				continue
			}
			if g.hasParentCycle(id) {
				errs = append(errs, &domain.DefinitionError{State: id, Reason: "parent chain forms a cycle", Err: domain.ErrUnknownParent})
				continue
			}
		}
		g.children[parent] = append(g.children[parent], id)
	}
	return errs
}

func (g *Graph) hasParentCycle(id string) bool {
	cur := id
	for i := 0; i <= len(g.order); i++ {
		cur = g.states[cur].Parent
		if cur == "" {
			return false
		}
	}
	return true
}

func (g *Graph) inferKinds() []error {
	var errs []error
	for _, id := range g.order {
		s := g.states[id]
		hasChildren := len(g.children[id]) > 0

		switch {
		case hasChildren && s.Kind == domain.KindFinal:
			errs = append(errs, &domain.DefinitionError{State: id, Reason: "final state cannot own child states", Err: domain.ErrInvalidFinalState})
		case hasChildren:
			s.Kind = domain.KindCompound
		case s.Kind == domain.KindCompound:
			errs = append(errs, &domain.DefinitionError{State: id, Reason: "compound state has no children", Err: domain.ErrInvalidCompoundState})
		case s.Kind == "":
			s.Kind = domain.KindAtomic
		}
		g.states[id] = s
	}
	return errs
}

func (g *Graph) resolveInitial() []error {
	var errs []error

	for _, parent := range append([]string{""}, g.order...) {
		kids := g.children[parent]
		if parent != "" && len(kids) == 0 {
			continue
		}
		var initials []string
		for _, id := range kids {
			if g.states[id].Initial {
				initials = append(initials, id)
			}
		}
		switch {
		case parent == "" && len(initials) != 1:
			errs = append(errs, &domain.DefinitionError{
				State:  g.machineID,
				Reason: fmt.Sprintf("expected exactly one initial top-level state, found %d", len(initials)),
				Err:    domain.ErrInvalidInitialState,
			})
		case len(initials) > 1:
			errs = append(errs, &domain.DefinitionError{
				State:  parent,
				Reason: fmt.Sprintf("multiple initial children: %v", initials),
				Err:    domain.ErrInvalidInitialState,
			})
		}
		if parent == "" && len(initials) == 1 {
			leaf, err := g.resolve(initials[0])
			if err != nil {
				errs = append(errs, err)
				continue
			}
			g.initial = leaf
		}
	}
	return errs
}

// resolve descends from a compound state through initial children to a leaf.
func (g *Graph) resolve(id string) (string, error) {
	cur := id
	for {
		s, ok := g.states[cur]
		if !ok {
			return "", &domain.DefinitionError{Target: id, Err: domain.ErrUnknownTargetState}
		}
		if s.IsLeaf() {
			return cur, nil
		}
		next := ""
		for _, child := range g.children[cur] {
			if g.states[child].Initial {
				next = child
				break
			}
		}
		if next == "" {
			return "", &domain.DefinitionError{State: cur, Target: id, Reason: "compound target has no initial child", Err: domain.ErrInvalidCompoundState}
		}
		cur = next
	}
}

func (g *Graph) indexEvents(defs []domain.EventDef) {
	for _, def := range defs {
		if _, dup := g.events[def.Type]; dup {
			g.warnings = append(g.warnings, fmt.Sprintf("event %q declared more than once; first declaration kept", def.Type))
			continue
		}
		g.events[def.Type] = def
		g.eventOrder = append(g.eventOrder, def.Type)
	}
}

func (g *Graph) indexTransitions(defs []domain.TransitionDef) []error {
	var errs []error
	for _, td := range defs {
		src, ok := g.states[td.Source]
		if !ok {
			errs = append(errs, &domain.DefinitionError{State: td.Source, Event: td.Event, Err: domain.ErrUnknownSourceState})
			continue
		}
		if td.Event == "" {
			errs = append(errs, &domain.DefinitionError{State: td.Source, Reason: "transition without event tag", Err: domain.ErrUnknownTargetState})
			continue
		}
		if src.Kind == domain.KindFinal && len(td.Candidates) > 0 {
			errs = append(errs, &domain.DefinitionError{
				State:  td.Source,
				Event:  td.Event,
				Reason: "final states cannot have outgoing transitions",
				Err:    domain.ErrInvalidFinalState,
			})
			continue
		}

		resolved := make([]domain.Candidate, 0, len(td.Candidates))
		for _, c := range td.Candidates {
			leaf, err := g.resolve(c.Target)
			if err != nil {
				var de *domain.DefinitionError
				if errors.As(err, &de) {
					de.State = td.Source
					de.Event = td.Event
					de.Target = c.Target
				}
				errs = append(errs, err)
				continue
			}
			c.Target = leaf
			resolved = append(resolved, c)
		}

		k := key{td.Source, td.Event}
		if _, seen := g.own[k]; !seen {
			g.ownEvents[td.Source] = append(g.ownEvents[td.Source], td.Event)
		}
		g.own[k] = append(g.own[k], resolved...)

		if _, declared := g.events[td.Event]; !declared {
			g.events[td.Event] = domain.EventDef{Type: td.Event}
			g.eventOrder = append(g.eventOrder, td.Event)
		}
	}
	return errs
}

func (g *Graph) computeReachability() {
	queue := []string{g.initial}
	seen := map[string]bool{g.initial: true}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, id := range g.Ancestry(cur) {
			g.reachable[id] = true
		}

		for _, ev := range g.Events(cur) {
			for _, c := range g.TransitionsFrom(cur, ev) {
				if !seen[c.Target] {
					seen[c.Target] = true
					queue = append(queue, c.Target)
				}
			}
		}
	}
}

// ReachableLeaves returns the reachable leaf states in declaration order.
func (g *Graph) ReachableLeaves() []string {
	return slices.DeleteFunc(g.Leaves(), func(id string) bool {
		return !g.reachable[id]
	})
}
