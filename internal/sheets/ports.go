package sheets

import (
	"context"

	"saldo/internal/core"
)

// Header is the first row of an exported sheet. Column A holds the
// transaction id and is the lookup key for updates and removals.
var Header = []string{"ID", "Date", "Kind", "Category", "Description", "Amount", "Frequency", "Day"}

// Ports for outbound adapters.
type (
	// Exporter mirrors transactions into a spreadsheet-like sink.
	Exporter interface {
		// Upsert writes tx, replacing the row with the same id if present.
		Upsert(ctx context.Context, tx core.Transaction) error
		// Remove deletes the row for id. Removing a missing id is not an error.
		Remove(ctx context.Context, id string) error
	}

	// TransactionLister reads exported rows back.
	TransactionLister interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}
)
