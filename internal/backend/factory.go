package backend

import (
	"context"
	"errors"
	"fmt"

	"saldo/internal/amqp"
	"saldo/internal/log"
	"saldo/internal/storage"
	"saldo/internal/storage/memory"
	"saldo/internal/storage/postgres"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger   *log.Logger
	dialAMQP func(url, exchange, queue string, logger *log.Logger) (*amqp.Client, error)
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger:   logger.WithComponent(log.ComponentBackend),
		dialAMQP: amqp.NewClient,
	}
}

// Create opens the configured store, seeds the default categories and, when
// an AMQP URL is set, connects the event publisher. A broker that cannot be
// reached is logged and the backend runs without events.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureDefaultsSeeded(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("seed default categories: %w", err)
	}

	result := &Result{Store: store}
	if config.AMQPURL != "" {
		client, err := f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err.Error())
		} else {
			result.AMQP = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		if result.AMQP != nil {
			errs = append(errs, result.AMQP.Close())
		}
		errs = append(errs, store.Close())
		return errors.Join(errs...)
	}

	f.logger.Info("Initialized backend",
		"type", config.Type.String(),
		"amqp_enabled", result.AMQP != nil)
	return result, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (storage.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Opened SQLite store", "db_path", config.SQLiteDBPath)
		return repo, nil

	case PostgresBackend:
		store, err := postgres.Connect(ctx, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		f.logger.Info("Opened Postgres store")
		return store, nil

	case MemoryBackend:
		if config.MemorySnapshotPath == "" {
			f.logger.Info("Opened in-memory store")
			return memory.New(), nil
		}
		store, err := memory.NewFromFile(config.MemorySnapshotPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load memory snapshot: %w", err)
		}
		f.logger.Info("Opened in-memory store", "snapshot", config.MemorySnapshotPath)
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
