package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/espalier/pkg/domain"
)

// LoggingHooks logs plan and step lifecycle events.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPlanStart: func(ctx context.Context, e *domain.PlanEvent) {
			logger.InfoContext(ctx, "plan_start", "plan_id", e.PlanID, "target", e.Target)
		},
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "step_failed", "plan_id", e.PlanID, "index", e.Index, "event", e.Event.String(), "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "step", "plan_id", e.PlanID, "index", e.Index, "event", e.Event.String(), "target", e.Target, "duration", e.Duration)
		},
		OnAssertion: func(ctx context.Context, e *domain.AssertionEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "assertion_failed", "plan_id", e.PlanID, "state", e.State, "err", e.Err)
			}
		},
		OnPlanFinish: func(ctx context.Context, e *domain.PlanEvent) {
			logger.InfoContext(ctx, "plan_finish",
				"plan_id", e.PlanID,
				"status", e.Status,
				"duration", e.Duration,
			)
		},
	}
}
