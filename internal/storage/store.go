// Package storage defines the record store behind saldo and ships its
// SQLite implementation. Memory and Postgres stores live in subpackages.
package storage

import (
	"context"
	"errors"

	"saldo/internal/core"
)

// ErrNotFound is returned when replacing or removing an unknown id.
var ErrNotFound = errors.New("record not found")

// TransactionStore keeps transactions in insertion order.
type TransactionStore interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	AppendTransaction(ctx context.Context, tx core.Transaction) error
	ReplaceTransaction(ctx context.Context, tx core.Transaction) error
	RemoveTransaction(ctx context.Context, id string) error
}

// CategoryStore keeps categories in insertion order.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	AppendCategory(ctx context.Context, c core.Category) error
	ReplaceCategory(ctx context.Context, c core.Category) error
	RemoveCategory(ctx context.Context, id string) error
}

// Store is the full collaborator used by the services.
type Store interface {
	TransactionStore
	CategoryStore
	// EnsureDefaultsSeeded writes the default categories when none exist.
	EnsureDefaultsSeeded(ctx context.Context) error
	Close() error
}
