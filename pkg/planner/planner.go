// Package planner computes the covering set of shortest simple paths of a StateGraph.
package planner

import (
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/graph"
)

// Planner explores a graph breadth-first. Guards are never evaluated here:
// a candidate only needs to exist for its target to be considered reachable.
type Planner struct {
	logger *slog.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the logger used to trace discovered paths.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Planner.
func New(opts ...Option) *Planner {
	p := &Planner{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type frontier struct {
	state   string
	steps   []domain.Step
	visited map[string]bool
}

// Plan returns exactly one path per reachable leaf state, in discovery order.
// Each path is a shortest path to its target and never visits a state twice.
// When two paths reach the same target at equal depth, the first one discovered
// in declaration order wins.
func (p *Planner) Plan(g *graph.Graph) []domain.Path {
	initial := g.Initial()

	reached := map[string]bool{initial: true}
	paths := []domain.Path{{Initial: initial, Target: initial}}
	queue := []frontier{{state: initial, visited: map[string]bool{initial: true}}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, ev := range g.Events(cur.state) {
			for _, c := range g.TransitionsFrom(cur.state, ev) {
				// The per-path visited set keeps paths simple through cycles such as a retry loop.
				if cur.visited[c.Target] || reached[c.Target] {
					continue
				}
				reached[c.Target] = true

				steps := make([]domain.Step, len(cur.steps), len(cur.steps)+1)
				copy(steps, cur.steps)
				steps = append(steps, domain.Step{Source: cur.state, Event: ev, Target: c.Target})

				visited := maps.Clone(cur.visited)
				visited[c.Target] = true

				path := domain.Path{Initial: initial, Target: c.Target, Steps: steps}
				paths = append(paths, path)
				queue = append(queue, frontier{state: c.Target, steps: steps, visited: visited})

				p.logger.Debug("path discovered", "target", c.Target, "depth", len(steps), "via", path.Via())
			}
		}
	}

	return paths
}

// Plan is a convenience wrapper around New().Plan(g).
func Plan(g *graph.Graph) []domain.Path {
	return New().Plan(g)
}

// Find returns the planned path reaching target.
func Find(paths []domain.Path, target string) (domain.Path, bool) {
	i := slices.IndexFunc(paths, func(p domain.Path) bool { return p.Target == target })
	if i < 0 {
		return domain.Path{}, false
	}
	return paths[i], true
}
