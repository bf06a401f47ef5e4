// Package service wires registered models, report persistence and run locking into the
// operations exposed by the CLI, HTTP and MCP adapters.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/aretw0/espalier/pkg/report"
)

// DefaultLockTTL bounds how long a crashed run can keep its model locked.
const DefaultLockTTL = 10 * time.Minute

// Service runs registered models and keeps their reports.
type Service struct {
	registry  *registry.Registry
	store     ports.ReportStore
	locker    ports.Locker
	lockTTL   time.Duration
	modelOpts []espalier.Option
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore sets the report store (default: in memory).
func WithStore(store ports.ReportStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithLocker serializes runs of the same model (default: in process).
func WithLocker(locker ports.Locker, ttl time.Duration) Option {
	return func(s *Service) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

// WithModelOptions adds options applied to every model built by the service.
func WithModelOptions(opts ...espalier.Option) Option {
	return func(s *Service) {
		s.modelOpts = append(s.modelOpts, opts...)
	}
}

// New creates a Service over reg.
func New(reg *registry.Registry, opts ...Option) *Service {
	s := &Service{
		registry: reg,
		lockTTL:  DefaultLockTTL,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = memory.NewStore()
	}
	if s.locker == nil {
		s.locker = memory.NewLocker()
	}
	return s
}

// Names lists the registered models.
func (s *Service) Names() []string {
	return s.registry.Names()
}

// Describe returns the registration of a model.
func (s *Service) Describe(name string) (registry.Model, error) {
	return s.registry.Lookup(name)
}

// Model builds the named model.
func (s *Service) Model(name string, extra ...espalier.Option) (*espalier.Model, error) {
	entry, err := s.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	opts := append([]espalier.Option{espalier.WithLogger(s.logger)}, s.modelOpts...)
	return espalier.New(entry.Machine, append(opts, extra...)...)
}

// Run executes every plan of the named model and stores the report.
// A synthesis error (events without cases) is returned together with the report.
func (s *Service) Run(ctx context.Context, name string, extra ...espalier.Option) (*report.Report, error) {
	entry, err := s.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	model, err := s.Model(name, extra...)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, name, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("lock model %s: %w", name, err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release model lock", "model", name, "err", err)
		}
	}()

	factory, teardown, err := entry.Setup(ctx)
	if err != nil {
		return nil, fmt.Errorf("setup %s: %w", name, err)
	}
	if teardown != nil {
		defer func() {
			if err := teardown(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("teardown failed", "model", name, "err", err)
			}
		}()
	}

	rep, runErr := model.Run(ctx, factory)
	if rep == nil {
		return nil, runErr
	}
	if err := s.store.Save(ctx, rep); err != nil {
		return rep, errors.Join(runErr, fmt.Errorf("save report: %w", err))
	}
	return rep, runErr
}

// Report loads a stored report.
func (s *Service) Report(ctx context.Context, id string) (*report.Report, error) {
	return s.store.Load(ctx, id)
}

// Reports lists stored report IDs.
func (s *Service) Reports(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

// DeleteReport removes a stored report.
func (s *Service) DeleteReport(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
