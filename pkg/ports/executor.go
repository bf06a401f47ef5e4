package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// Subject is the system under test for a single Plan.
// Implementations may additionally satisfy Executor and io.Closer.
type Subject interface {
	Observer
}

// Observer exposes the subject's current observable output to assertion hooks.
type Observer interface {
	View(ctx context.Context) (domain.View, error)
}

// Executor performs an event. Exec must not return before the effect has settled
// (e.g. the network round trip triggered by a click has completed).
// It is used for events whose declaration carries no ExecFunc.
type Executor interface {
	Exec(ctx context.Context, ev domain.Event) error
}

// SubjectFactory creates a fresh subject per Plan. Subjects of different plans must not
// share mutable state, so plans can run in parallel workers.
type SubjectFactory interface {
	NewSubject(ctx context.Context, plan domain.Plan) (Subject, error)
}

// SubjectFactoryFunc adapts a function to SubjectFactory.
type SubjectFactoryFunc func(ctx context.Context, plan domain.Plan) (Subject, error)

// NewSubject implements SubjectFactory.
func (f SubjectFactoryFunc) NewSubject(ctx context.Context, plan domain.Plan) (Subject, error) {
	return f(ctx, plan)
}
