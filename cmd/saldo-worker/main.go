package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"saldo/internal/amqp"
	"saldo/internal/backend"
	"saldo/internal/cli"
	"saldo/internal/config"
	"saldo/internal/log"
	gsheet "saldo/internal/sheets/google"
	sheetsmem "saldo/internal/sheets/memory"
	"saldo/internal/storage"
	"saldo/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		log.New(log.Config{Output: os.Stderr}).Warn("Failed to load .env file", log.FieldError, err.Error())
	}
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, nil).WithComponent(log.ComponentWorker)

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the sheets worker")
	}
	exporter, err := newExporter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// An in-memory store belongs to the server process, so there is nothing
	// to reconcile against.
	var store storage.TransactionStore
	if cfg.ReconcileInterval > 0 && cfg.DataBackend != string(backend.MemoryBackend) {
		backendCfg, err := backend.FromAppConfig(cfg)
		if err != nil {
			return err
		}
		// events are consumed below, not published
		backendCfg.AMQPURL = ""
		res, err := backend.NewFactory(logger).Create(ctx, backendCfg)
		if err != nil {
			return err
		}
		defer res.Cleanup()
		store = res.Store
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	syncWorker := worker.NewSyncWorker(exporter, store, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming transaction events", "queue", cfg.AMQPQueue)
		return client.ConsumeTransactionEvents(gctx, syncWorker.HandleEvent)
	})

	if store != nil {
		reconciler := worker.NewReconciler(syncWorker, cfg.ReconcileInterval)
		if err := reconciler.Start(gctx); err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return reconciler.Stop(stopCtx)
		})
	} else {
		logger.Info("Periodic reconcile disabled",
			"interval", cfg.ReconcileInterval.String(),
			"backend", cfg.DataBackend)
	}

	return g.Wait()
}

// newExporter returns the Google Sheets exporter, or an in-process sheet
// when no spreadsheet is configured so the pipeline can run locally.
func newExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) (worker.Exporter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, exporting to an in-memory sheet")
		return sheetsmem.New(), nil
	}
	if err := cfg.ValidateSheetsExport(); err != nil {
		return nil, err
	}

	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := client.EnsureHeader(ctx); err != nil {
		return nil, err
	}
	logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	return client, nil
}
