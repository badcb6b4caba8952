// Package cli provides the initialization shared by cmd/saldo,
// cmd/saldo-worker and cmd/saldoctl.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"saldo/internal/config"
	"saldo/internal/log"
)

// LoadEnvFile loads .env for local development. A missing file is not an
// error; production sets the environment directly.
func LoadEnvFile(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, out io.Writer) *log.Logger {
	if out == nil {
		out = os.Stdout
	}
	return log.Setup(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		JSON:      strings.EqualFold(cfg.LogFormat, "json"),
		Output:    out,
		Component: log.ComponentApp,
	})
}

// LoadConfig loads and validates the configuration.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAndValidateConfig loads the configuration or exits the process.
func LoadAndValidateConfig() *config.Config {
	cfg, err := LoadConfig()
	if err != nil {
		log.New(log.Config{Output: os.Stderr}).Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
func GracefulShutdown(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		if logger != nil {
			logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
		}
	}()
	return ctx, stop
}

// Cleanup runs fns in order under one timeout and joins their errors.
func Cleanup(timeout time.Duration, fns ...func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
