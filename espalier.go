package espalier

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/graph"
	"github.com/aretw0/espalier/pkg/planner"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/report"
	"github.com/aretw0/espalier/pkg/runner"
	"github.com/aretw0/espalier/pkg/synth"
)

// Model is the high-level entry point: a validated machine together with its derived
// paths and plans. It is safe for concurrent use.
type Model struct {
	graph  *graph.Graph
	logger *slog.Logger

	hooks       domain.LifecycleHooks
	workers     int
	stepTimeout time.Duration
	cases       map[string][]domain.Case

	once     sync.Once
	paths    []domain.Path
	all      []domain.Plan
	feasible []domain.Plan
	rejected []synth.Rejection
	planErr  error
}

// Option defines a functional option for configuring the Model.
type Option func(*Model)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		m.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks for Run. Multiple calls are merged.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Model) {
		m.hooks = domain.MergeHooks(m.hooks, hooks)
	}
}

// WithWorkers sets how many plans Run executes concurrently (default 1).
func WithWorkers(n int) Option {
	return func(m *Model) {
		m.workers = n
	}
}

// WithStepTimeout bounds every event execution during Run.
func WithStepTimeout(d time.Duration) Option {
	return func(m *Model) {
		m.stepTimeout = d
	}
}

// WithCases adds payload cases per event tag, e.g. loaded with synth.LoadCases.
func WithCases(cases map[string][]domain.Case) Option {
	return func(m *Model) {
		m.cases = cases
	}
}

// New validates the machine and builds its graph.
// Definition errors are reported together in a *graph.BuildError.
func New(machine domain.Machine, opts ...Option) (*Model, error) {
	m := &Model{workers: 1}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m.logger = m.logger.With("machine", machine.ID)

	if len(m.cases) > 0 {
		machine = machine.WithCases(m.cases)
	}

	g, err := graph.Build(machine, graph.WithLogger(m.logger))
	if err != nil {
		return nil, err
	}
	m.graph = g
	return m, nil
}

// MustNew is like New but panics on error.
func MustNew(machine domain.Machine, opts ...Option) *Model {
	m, err := New(machine, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Graph returns the validated state graph.
func (m *Model) Graph() *graph.Graph {
	return m.graph
}

func (m *Model) derive() {
	m.once.Do(func() {
		m.paths = planner.New(planner.WithLogger(m.logger)).Plan(m.graph)

		s := synth.New(synth.WithLogger(m.logger))
		m.all, m.planErr = s.Expand(m.graph, m.paths)
		m.feasible, m.rejected = s.Resolve(m.graph, m.all)

		m.logger.Debug("plans derived",
			"paths", len(m.paths),
			"plans", len(m.all),
			"rejected", len(m.rejected),
		)
	})
}

// Paths returns one shortest path per reachable leaf state.
func (m *Model) Paths() []domain.Path {
	m.derive()
	return m.paths
}

// Plans returns the executable plans and those whose payloads cannot follow their path.
// A non-nil error lists parameterized events without cases; the paths using them
// produced no plans but all other plans are still returned.
func (m *Model) Plans() (feasible []domain.Plan, rejected []synth.Rejection, err error) {
	m.derive()
	return m.feasible, m.rejected, m.planErr
}

// Run executes every feasible plan against subjects created by factory and returns the
// report, rejected plans included as skipped (or failed, for guard errors) outcomes.
// The returned error is the synthesis error of Plans, if any; the report is always valid.
func (m *Model) Run(ctx context.Context, factory ports.SubjectFactory) (*report.Report, error) {
	if factory == nil {
		return nil, fmt.Errorf("espalier: nil subject factory")
	}
	feasible, rejected, planErr := m.Plans()

	h := runner.New(m.graph, factory,
		runner.WithLogger(m.logger),
		runner.WithWorkers(m.workers),
		runner.WithLifecycleHooks(m.hooks),
		runner.WithStepTimeout(m.stepTimeout),
	)

	rep := report.New(m.graph.MachineID())
	executed := h.Run(ctx, feasible)

	byID := make(map[string]domain.Outcome, len(m.all))
	for _, o := range executed {
		byID[o.PlanID] = o
	}
	for _, r := range rejected {
		byID[r.Plan.ID] = r.Outcome()
	}

	outcomes := make([]domain.Outcome, 0, len(m.all))
	for _, p := range m.all {
		outcomes = append(outcomes, byID[p.ID])
	}
	rep.Add(outcomes...)
	rep.SetCoverage(report.ComputeCoverage(m.graph.ReachableLeaves(), m.graph.Unreachable(), m.all, outcomes))
	rep.Finish()

	s := rep.Summary()
	m.logger.Info("run finished",
		"report", rep.ID,
		"passed", s.Passed,
		"failed", s.Failed,
		"skipped", s.Skipped,
	)
	return rep, planErr
}
