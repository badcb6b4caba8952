package main

import (
	"context"
	"io"
	"time"

	"saldo/internal/aggregate"
	"saldo/internal/backend"
	"saldo/internal/cli"
	"saldo/internal/interpreter"
	"saldo/internal/log"
	"saldo/internal/services"
)

// app is the set of services a command runs against.
type app struct {
	transactions *services.TransactionService
	categories   *services.CategoryService
	summary      *services.SummaryService
	recurring    *services.RecurringService
	now          func() time.Time
	close        func() error
}

type opener func(ctx context.Context, logOut io.Writer) (*app, error)

// openApp builds the services on top of the configured backend. Logs go to
// logOut so they do not mix with command output.
func openApp(ctx context.Context, logOut io.Writer) (*app, error) {
	_ = cli.LoadEnvFile()
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := cli.SetupLogger(cfg, logOut).WithComponent(log.ComponentCLI)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).Create(ctx, backendCfg)
	if err != nil {
		return nil, err
	}
	agg := aggregate.New(aggregate.WithProjection(cfg.Projection()))
	interp := interpreter.New(interpreter.WithLogger(logger.With(log.FieldComponent, log.ComponentInterpreter).Logger))
	return newApp(res, agg, interp, cfg.CategoryCacheTTL, logger), nil
}

func newApp(res *backend.Result, agg aggregate.Aggregator, interp *interpreter.Interpreter, ttl time.Duration, logger *log.Logger) *app {
	categories := services.NewCategoryService(res.Store, res.Store, ttl, logger)
	return &app{
		transactions: services.NewTransactionService(res.Store, categories, interp, res.Publisher(), agg, logger),
		categories:   categories,
		summary:      services.NewSummaryService(res.Store, categories, agg, logger),
		recurring:    services.NewRecurringService(res.Store),
		now:          time.Now,
		close:        res.Cleanup,
	}
}
