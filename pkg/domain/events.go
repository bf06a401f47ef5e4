package domain

import (
	"context"
	"time"
)

// PlanEvent is emitted when a plan starts and when it settles.
type PlanEvent struct {
	Timestamp time.Time `json:"timestamp"`
	PlanID    string    `json:"plan_id"`
	Target    string    `json:"target"`
	Status    Status    `json:"status"`
	Err       error     `json:"-"`
	Duration  time.Duration
}

// StepEvent is emitted after the executor settled a step.
type StepEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	PlanID    string        `json:"plan_id"`
	Index     int           `json:"index"`
	Event     Event         `json:"event"`
	Target    string        `json:"target"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// AssertionEvent is emitted for every assertion hook invoked.
type AssertionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	PlanID    string    `json:"plan_id"`
	State     string    `json:"state"`
	Err       error     `json:"-"`
}

// LifecycleHooks defines callbacks for harness observability.
// Hooks may be called concurrently from different plan workers.
type LifecycleHooks struct {
	OnPlanStart  func(context.Context, *PlanEvent)
	OnStep       func(context.Context, *StepEvent)
	OnAssertion  func(context.Context, *AssertionEvent)
	OnPlanFinish func(context.Context, *PlanEvent)
}

// MergeHooks chains several hook sets; each callback runs in argument order.
func MergeHooks(all ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	for _, h := range all {
		merged.OnPlanStart = chain(merged.OnPlanStart, h.OnPlanStart)
		merged.OnStep = chain(merged.OnStep, h.OnStep)
		merged.OnAssertion = chain(merged.OnAssertion, h.OnAssertion)
		merged.OnPlanFinish = chain(merged.OnPlanFinish, h.OnPlanFinish)
	}
	return merged
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
