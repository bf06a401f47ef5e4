package runtime

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/espalier/pkg/domain"
)

// Evaluator selects the transition taken for a concrete event.
// It holds no state besides its logger and is safe for concurrent use.
type Evaluator struct {
	logger *slog.Logger
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithLogger sets the logger used for guard tracing.
func WithLogger(logger *slog.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEvaluator creates a guard evaluator.
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Selection describes the candidate chosen by Select.
type Selection struct {
	Index     int
	Candidate domain.Candidate
}

// Select walks the candidates once, in order, and returns the first whose guard holds.
// ok is false when no guard matches or the list is empty: the event has no effect.
// A guard returning an error or panicking yields a *domain.GuardError.
func (e *Evaluator) Select(state string, cands []domain.Candidate, ev domain.Event, mctx domain.Context) (sel Selection, ok bool, err error) {
	for i, c := range cands {
		if c.Guard == nil {
			e.logger.Debug("unguarded candidate selected", "state", state, "event", ev.Type, "target", c.Target)
			return Selection{Index: i, Candidate: c}, true, nil
		}

		matched, gerr := e.eval(c.Guard, mctx, ev)
		if gerr != nil {
			return Selection{}, false, &domain.GuardError{
				State: state,
				Event: ev.Type,
				Index: i,
				Guard: c.GuardName,
				Cause: gerr,
			}
		}
		if matched {
			e.logger.Debug("guard matched", "state", state, "event", ev.Type, "guard", c.GuardName, "target", c.Target)
			return Selection{Index: i, Candidate: c}, true, nil
		}
	}
	return Selection{}, false, nil
}

func (e *Evaluator) eval(guard domain.Guard, mctx domain.Context, ev domain.Event) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return guard(mctx, ev)
}
