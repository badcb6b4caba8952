package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"saldo/internal/aggregate"
	"saldo/internal/backend"
	"saldo/internal/cache"
	"saldo/internal/cli"
	apphttp "saldo/internal/http"
	"saldo/internal/interpreter"
	"saldo/internal/log"
	"saldo/internal/services"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		log.New(log.Config{Output: os.Stderr}).Warn("Failed to load .env file", log.FieldError, err.Error())
	}
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, nil)

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).Create(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}

	agg := aggregate.New(aggregate.WithProjection(cfg.Projection()))
	interp := interpreter.New(interpreter.WithLogger(logger.With(log.FieldComponent, log.ComponentInterpreter).Logger))
	categories := services.NewCategoryService(res.Store, res.Store, cfg.CategoryCacheTTL, logger)

	caches := cache.NewManager(logger)
	caches.Register(categories.Cache())
	caches.StartCleanup(cfg.CategoryCacheTTL)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions: services.NewTransactionService(res.Store, categories, interp, res.Publisher(), agg, logger),
		Categories:   categories,
		Summary:      services.NewSummaryService(res.Store, categories, agg, logger),
		Recurring:    services.NewRecurringService(res.Store),
		Ready:        res.Ready,
		Logger:       logger,
	}, apphttp.Options{RateLimitPerMinute: cfg.RateLimitPerMinute})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting saldo server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"projection", agg.Projection().String(),
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return cli.Cleanup(30*time.Second,
			srv.Shutdown,
			func(context.Context) error { caches.Stop(); return nil },
			func(context.Context) error { return res.Cleanup() },
		)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
