package synth

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/espalier/internal/runtime"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/graph"
)

// Synthesizer expands paths into plans.
type Synthesizer struct {
	logger    *slog.Logger
	evaluator *runtime.Evaluator
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEvaluator sets the guard evaluator used by Resolve.
func WithEvaluator(eval *runtime.Evaluator) Option {
	return func(s *Synthesizer) {
		if eval != nil {
			s.evaluator = eval
		}
	}
}

// New creates a Synthesizer.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.evaluator == nil {
		s.evaluator = runtime.NewEvaluator(runtime.WithLogger(s.logger))
	}
	return s
}

// Expand produces, for every path, one plan per combination of cases of its steps.
// The number of plans of a path is the product of the case counts of its parameterized
// steps. Paths using a parameterized event without cases are skipped and reported in
// the returned error (one *domain.SynthesisError per event); other paths are unaffected.
func (s *Synthesizer) Expand(g *graph.Graph, paths []domain.Path) ([]domain.Plan, error) {
	var plans []domain.Plan
	failures := make(map[string]*domain.SynthesisError)
	var failedOrder []string

	for _, path := range paths {
		choices := make([][]domain.Event, len(path.Steps))
		missing := make(map[string]bool)
		for i, step := range path.Steps {
			evs, err := instances(g, step.Event)
			if err != nil {
				if missing[step.Event] {
					continue
				}
				missing[step.Event] = true
				se, seen := failures[step.Event]
				if !seen {
					se = &domain.SynthesisError{Event: step.Event}
					failures[step.Event] = se
					failedOrder = append(failedOrder, step.Event)
				}
				se.Paths = append(se.Paths, path.Description())
				continue
			}
			choices[i] = evs
		}
		if len(missing) > 0 {
			continue
		}

		n := 0
		product(choices, func(events []domain.Event) {
			plan := domain.Plan{
				ID:    fmt.Sprintf("%s#%d", path.Target, n),
				Path:  path,
				Steps: make([]domain.PlanStep, len(path.Steps)),
			}
			for i, step := range path.Steps {
				plan.Steps[i] = domain.PlanStep{Step: step, Event: events[i]}
			}
			plans = append(plans, plan)
			n++
		})
		s.logger.Debug("path expanded", "target", path.Target, "plans", n)
	}

	if len(failedOrder) == 0 {
		return plans, nil
	}
	errs := make([]error, 0, len(failedOrder))
	for _, tag := range failedOrder {
		s.logger.Warn("event has no cases", "event", tag, "paths", len(failures[tag].Paths))
		errs = append(errs, failures[tag])
	}
	return plans, errors.Join(errs...)
}

// instances returns the concrete events that can stand for tag.
func instances(g *graph.Graph, tag string) ([]domain.Event, error) {
	def, _ := g.Event(tag)
	if len(def.Cases) == 0 {
		if def.Parameterized {
			return nil, &domain.SynthesisError{Event: tag}
		}
		return []domain.Event{{Type: tag, Payload: def.Payload}}, nil
	}

	evs := make([]domain.Event, len(def.Cases))
	for i, c := range def.Cases {
		evs[i] = domain.Event{Type: tag, Payload: c.Payload, Case: c.Label}
	}
	return evs, nil
}

// product calls fn for every combination of choices, first step varying slowest.
func product(choices [][]domain.Event, fn func([]domain.Event)) {
	current := make([]domain.Event, len(choices))
	var walk func(int)
	walk = func(i int) {
		if i == len(choices) {
			out := make([]domain.Event, len(current))
			copy(out, current)
			fn(out)
			return
		}
		for _, ev := range choices[i] {
			current[i] = ev
			walk(i + 1)
		}
	}
	walk(0)
}

// Rejection is a plan whose concrete payloads do not drive the machine along its path.
type Rejection struct {
	Plan domain.Plan
	// Step is the 1-based index of the step that diverged.
	Step int
	Err  error
}

// Outcome converts the rejection into a reportable outcome: Failed for guard
// evaluation errors, Skipped otherwise.
func (r Rejection) Outcome() domain.Outcome {
	o := domain.Outcome{
		PlanID:          r.Plan.ID,
		Description:     r.Plan.Description(),
		PathDescription: r.Plan.Path.Description(),
		Target:          r.Plan.Path.Target,
		Status:          domain.StatusSkipped,
		Err:             r.Err,
	}
	if r.Err != nil {
		o.Error = r.Err.Error()
	}
	if errors.Is(r.Err, domain.ErrGuardEvaluationFailed) {
		state := ""
		if r.Step > 0 && r.Step <= len(r.Plan.Steps) {
			state = r.Plan.Steps[r.Step-1].Source
		}
		o.Fail(r.Step, state, r.Err)
	}
	return o
}

// Resolve evaluates every plan's guards with its concrete payloads.
// Plans whose first matching guard at each step selects the planned target are feasible.
func (s *Synthesizer) Resolve(g *graph.Graph, plans []domain.Plan) (feasible []domain.Plan, rejected []Rejection) {
	mctx := g.Context()
	for _, plan := range plans {
		if r, bad := s.check(g, mctx, plan); bad {
			s.logger.Debug("plan rejected", "plan", plan.ID, "step", r.Step, "err", r.Err)
			rejected = append(rejected, r)
			continue
		}
		feasible = append(feasible, plan)
	}
	return feasible, rejected
}

func (s *Synthesizer) check(g *graph.Graph, mctx domain.Context, plan domain.Plan) (Rejection, bool) {
	for i, step := range plan.Steps {
		cands := g.TransitionsFrom(step.Source, step.Event.Type)
		sel, ok, err := s.evaluator.Select(step.Source, cands, step.Event, mctx)
		if err != nil {
			return Rejection{Plan: plan, Step: i + 1, Err: err}, true
		}
		if !ok {
			return Rejection{Plan: plan, Step: i + 1, Err: fmt.Errorf("%w: %s is ignored in %q", domain.ErrCaseMismatch, step.Event, step.Source)}, true
		}
		if sel.Candidate.Target != step.Target {
			return Rejection{Plan: plan, Step: i + 1, Err: fmt.Errorf("%w: %s in %q selects %q, planned %q",
				domain.ErrCaseMismatch, step.Event, step.Source, sel.Candidate.Target, step.Target)}, true
		}
	}
	return Rejection{}, false
}
