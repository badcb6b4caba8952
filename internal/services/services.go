// Package services provides business logic and orchestration services.
//
// Services own all I/O around the pure interpreter and aggregator: they load
// records from the store, persist results and publish transaction events.
package services

import (
	"context"
	"errors"

	"saldo/internal/amqp"
	"saldo/internal/core"
)

var (
	// ErrInvalidInput wraps every validation failure so transports can map
	// it to a client error.
	ErrInvalidInput      = errors.New("invalid input")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrCategoryInUse     = errors.New("category is used by transactions")
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, typ amqp.EventType, tx core.Transaction) error
}

type noopPublisher struct{}

func (noopPublisher) PublishTransactionEvent(context.Context, amqp.EventType, core.Transaction) error {
	return nil
}
