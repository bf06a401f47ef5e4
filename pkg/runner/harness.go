package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/graph"
	"github.com/aretw0/espalier/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// Harness drives subjects through plans and records outcomes.
type Harness struct {
	graph       *graph.Graph
	factory     ports.SubjectFactory
	workers     int
	stepTimeout time.Duration
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
}

// New creates a Harness for plans synthesized from g.
func New(g *graph.Graph, factory ports.SubjectFactory, opts ...Option) *Harness {
	h := &Harness{
		graph:   g,
		factory: factory,
		workers: 1,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes every plan and returns their outcomes in plan order.
// Plans still queued when ctx is cancelled are reported as skipped.
func (h *Harness) Run(ctx context.Context, plans []domain.Plan) []domain.Outcome {
	outcomes := make([]domain.Outcome, len(plans))

	var g errgroup.Group
	g.SetLimit(h.workers)
	for i, plan := range plans {
		g.Go(func() error {
			outcomes[i] = h.Execute(ctx, plan)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// Execute runs a single plan on a fresh subject.
func (h *Harness) Execute(ctx context.Context, plan domain.Plan) (out domain.Outcome) {
	out = domain.Outcome{
		PlanID:          plan.ID,
		Description:     plan.Description(),
		PathDescription: plan.Path.Description(),
		Target:          plan.Path.Target,
		Status:          domain.StatusNotStarted,
	}

	if err := ctx.Err(); err != nil {
		out.Status = domain.StatusSkipped
		out.Err = err
		out.Error = err.Error()
		return out
	}

	start := time.Now()
	out.Status = domain.StatusRunning
	h.emitPlan(ctx, h.hooks.OnPlanStart, out, 0)
	logger := h.logger.With("plan", plan.ID)
	logger.Debug("plan started", "steps", len(plan.Steps))

	// state tracks where the subject is expected to be, for attributing panics
	// raised outside actions and assertions (factories, View).
	step, state := 0, plan.Path.Initial

	defer func() {
		if r := recover(); r != nil {
			out.Fail(step, state, fmt.Errorf("panic: %v", r))
		}
		out.Duration = time.Since(start)
		h.emitPlan(ctx, h.hooks.OnPlanFinish, out, out.Duration)
		if out.Status == domain.StatusFailed {
			logger.Info("plan failed", "step", out.FailedStep, "state", out.State, "err", out.Err)
		} else {
			logger.Debug("plan settled", "status", out.Status, "duration", out.Duration)
		}
	}()

	subject, err := h.factory.NewSubject(ctx, plan)
	if err != nil {
		out.Fail(0, state, fmt.Errorf("%w: create subject: %v", domain.ErrAdapterExecutionFailed, err))
		return out
	}
	if c, ok := subject.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				logger.Warn("failed to close subject", "err", err)
			}
		}()
	}

	if err := h.assert(ctx, subject, plan.ID, 0, state); err != nil {
		out.Fail(0, state, err)
		return out
	}

	for i, ps := range plan.Steps {
		step, state = i+1, ps.Source

		if err := h.exec(ctx, subject, plan.ID, step, ps); err != nil {
			out.Fail(step, state, err)
			return out
		}
		out.StepsRun = step
		state = ps.Target

		if err := h.assert(ctx, subject, plan.ID, step, state); err != nil {
			out.Fail(step, state, err)
			return out
		}
	}

	out.Status = domain.StatusPassed
	out.State = state
	return out
}

func (h *Harness) exec(ctx context.Context, subject ports.Subject, planID string, step int, ps domain.PlanStep) (err error) {
	start := time.Now()
	defer func() {
		if h.hooks.OnStep != nil {
			h.hooks.OnStep(ctx, &domain.StepEvent{
				Timestamp: time.Now(),
				PlanID:    planID,
				Index:     step,
				Event:     ps.Event,
				Target:    ps.Target,
				Duration:  time.Since(start),
				Err:       err,
			})
		}
	}()

	if h.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.stepTimeout)
		defer cancel()
	}

	if cause := h.perform(ctx, subject, ps.Event); cause != nil {
		return &domain.StepError{Plan: planID, Step: step, Event: ps.Event.String(), Cause: cause}
	}
	return nil
}

// perform runs the action of ev on subject, converting a panic into an error.
func (h *Harness) perform(ctx context.Context, subject ports.Subject, ev domain.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if def, _ := h.graph.Event(ev.Type); def.Exec != nil {
		return def.Exec(ctx, subject, ev)
	}
	ex, ok := subject.(ports.Executor)
	if !ok {
		return errors.New("subject cannot perform events and the event declares no action")
	}
	return ex.Exec(ctx, ev)
}

// check runs a single assertion hook, converting a panic into an error.
func check(ctx context.Context, fn domain.Assertion, view domain.View) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, view)
}

// assert runs the hooks of state and its ancestors, outermost first.
func (h *Harness) assert(ctx context.Context, subject ports.Subject, planID string, step int, state string) error {
	var (
		view    domain.View
		fetched bool
	)
	for _, id := range h.graph.Ancestry(state) {
		def, ok := h.graph.State(id)
		if !ok || def.Assert == nil {
			continue
		}
		if !fetched {
			v, err := subject.View(ctx)
			if err != nil {
				return &domain.AssertionError{Plan: planID, Step: step, State: id, Cause: fmt.Errorf("observe subject: %w", err)}
			}
			view, fetched = v, true
		}

		err := check(ctx, def.Assert, view)
		if h.hooks.OnAssertion != nil {
			h.hooks.OnAssertion(ctx, &domain.AssertionEvent{
				Timestamp: time.Now(),
				PlanID:    planID,
				State:     id,
				Err:       err,
			})
		}
		if err != nil {
			return &domain.AssertionError{Plan: planID, Step: step, State: id, Cause: err}
		}
	}
	return nil
}

func (h *Harness) emitPlan(ctx context.Context, fn func(context.Context, *domain.PlanEvent), out domain.Outcome, d time.Duration) {
	if fn == nil {
		return
	}
	fn(ctx, &domain.PlanEvent{
		Timestamp: time.Now(),
		PlanID:    out.PlanID,
		Target:    out.Target,
		Status:    out.Status,
		Err:       out.Err,
		Duration:  d,
	})
}
