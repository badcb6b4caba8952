package backend

import (
	"context"

	"saldo/internal/amqp"
	"saldo/internal/services"
	"saldo/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result is what a factory builds: the record store, the optional event bus
// client and a cleanup that releases both.
type Result struct {
	Store   storage.Store
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Publisher returns the AMQP client as an event publisher, or nil when the
// bus is not configured.
func (r *Result) Publisher() services.EventPublisher {
	if r.AMQP == nil {
		return nil
	}
	return r.AMQP
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ready pings the store when it supports it.
func (r *Result) Ready(ctx context.Context) error {
	if p, ok := r.Store.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type Type

	SQLiteDBPath       string
	MemorySnapshotPath string
	DatabaseURL        string

	// Optional; an empty URL disables event publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Type represents the type of backend
type Type string

const (
	MemoryBackend   Type = "memory"
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
