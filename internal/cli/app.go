// Package cli wires configuration, stores and presentation for the espalier command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/config"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	redisstore "github.com/aretw0/espalier/pkg/adapters/redis"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/observability"
	"github.com/aretw0/espalier/pkg/persistence/middleware"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/aretw0/espalier/pkg/service"
	"github.com/aretw0/espalier/pkg/synth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App is the set of collaborators shared by the espalier subcommands.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Service *service.Service

	// Gatherer exposes the run metrics; nil when metrics are disabled.
	Gatherer prometheus.Gatherer

	// Masker hides the configured redact patterns; nil when none are set.
	Masker *middleware.Masker

	closers []io.Closer
}

// NewApp builds the service described by cfg over the models in reg.
func NewApp(cfg config.Config, reg *registry.Registry, debug bool) (*App, error) {
	logger, err := createLogger(cfg.LogLevel, debug)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger}

	modelOpts := []espalier.Option{
		espalier.WithWorkers(cfg.Workers),
		espalier.WithStepTimeout(cfg.StepTimeout),
		espalier.WithLifecycleHooks(observability.LoggingHooks(logger)),
	}

	if cfg.CasesFile != "" {
		cases, err := synth.LoadCases(cfg.CasesFile)
		if err != nil {
			return nil, err
		}
		modelOpts = append(modelOpts, espalier.WithCases(cases))
	}

	if cfg.Metrics.Enabled {
		promReg := prometheus.NewRegistry()
		promReg.MustRegister(collectors.NewGoCollector())
		metrics := observability.NewMetrics(promReg)
		modelOpts = append(modelOpts, espalier.WithLifecycleHooks(metrics.Hooks()))
		app.Gatherer = promReg
	}

	svcOpts := []service.Option{
		service.WithLogger(logger),
		service.WithModelOptions(modelOpts...),
	}

	var store ports.ReportStore
	switch cfg.Store {
	case config.StoreRedis:
		rs := redisstore.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redisstore.WithPrefix(cfg.Redis.Prefix),
			redisstore.WithTTL(cfg.Redis.TTL),
		)
		app.closers = append(app.closers, rs)
		store = rs
		svcOpts = append(svcOpts,
			service.WithLocker(redisstore.NewLocker(rs.Client(), cfg.Redis.Prefix), service.DefaultLockTTL),
		)
		logger.Debug("using redis report store", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix)
	default:
		store = memory.NewStore()
	}

	if len(cfg.Redact) > 0 {
		masker, err := middleware.NewMasker(cfg.Redact)
		if err != nil {
			return nil, err
		}
		app.Masker = masker
		store = middleware.Chain(store, masker.Middleware())
	}
	svcOpts = append(svcOpts, service.WithStore(store))

	app.Service = service.New(reg, svcOpts...)
	return app, nil
}

// Close releases the stores opened by NewApp.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Model resolves the configured model, or name when it is not empty.
func (a *App) Model(name string) (*espalier.Model, error) {
	if name == "" {
		name = a.Config.Model
	}
	return a.Service.Model(name)
}

// Run executes the named model (or the configured one) through the service.
func (a *App) Run(ctx context.Context, name string) (*RunResult, error) {
	if name == "" {
		name = a.Config.Model
	}
	rep, err := a.Service.Run(ctx, name)
	if rep == nil {
		return nil, err
	}
	res := &RunResult{Report: rep, Warning: err}
	if err != nil && !errors.Is(err, domain.ErrNoCasesForParameterizedEvent) {
		return res, err
	}
	if err != nil {
		a.Logger.Warn("some paths were not synthesized", "err", err)
	}
	return res, nil
}

// createLogger configures the application logger. Debug mode forces the debug level.
func createLogger(level string, debug bool) (*slog.Logger, error) {
	if debug {
		return logging.New(slog.LevelDebug), nil
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	return logging.New(lvl), nil
}
