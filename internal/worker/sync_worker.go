package worker

import (
	"context"
	"fmt"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/sheets"
	"saldo/internal/storage"
)

// Exporter is what the worker writes to: a sheet that can be read back.
type Exporter interface {
	sheets.Exporter
	sheets.TransactionLister
}

// SyncWorker mirrors transaction events into a spreadsheet.
type SyncWorker struct {
	exporter Exporter
	store    storage.TransactionStore
	logger   *log.Logger
}

// NewSyncWorker creates a worker. store may be nil, in which case
// Reconcile is a no-op and only events are mirrored.
func NewSyncWorker(exporter Exporter, store storage.TransactionStore, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SyncWorker{
		exporter: exporter,
		store:    store,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent applies a single transaction event to the sheet.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	w.logger.InfoContext(ctx, "Processing transaction event",
		log.FieldEventType, string(ev.Type),
		log.FieldTransactionID, ev.TransactionID)

	switch ev.Type {
	case amqp.EventCreated, amqp.EventUpdated:
		if ev.Transaction == nil {
			return fmt.Errorf("%s event %s without payload", ev.Type, ev.TransactionID)
		}
		if err := w.exporter.Upsert(ctx, *ev.Transaction); err != nil {
			return fmt.Errorf("export transaction %s: %w", ev.TransactionID, err)
		}
	case amqp.EventDeleted:
		if err := w.exporter.Remove(ctx, ev.TransactionID); err != nil {
			return fmt.Errorf("remove transaction %s: %w", ev.TransactionID, err)
		}
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}

	w.logger.InfoContext(ctx, "Successfully synced transaction",
		log.FieldEventType, string(ev.Type),
		log.FieldTransactionID, ev.TransactionID)
	return nil
}

// ReconcileResult counts what a reconciliation pass changed.
type ReconcileResult struct {
	Upserted int
	Removed  int
	Failed   int
}

// Reconcile brings the sheet in line with the store, catching events that
// were lost while the worker was down. Rows whose content already matches
// are left alone.
func (w *SyncWorker) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult
	if w.store == nil {
		return res, nil
	}

	stored, err := w.store.ListTransactions(ctx)
	if err != nil {
		return res, fmt.Errorf("list stored transactions: %w", err)
	}
	exported, err := w.exporter.ListTransactions(ctx)
	if err != nil {
		return res, fmt.Errorf("list exported transactions: %w", err)
	}

	byID := make(map[string]core.Transaction, len(exported))
	for _, tx := range exported {
		byID[tx.ID] = tx
	}

	for _, tx := range stored {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if prev, ok := byID[tx.ID]; ok {
			delete(byID, tx.ID)
			if sameRow(prev, tx) {
				continue
			}
		}
		if err := w.exporter.Upsert(ctx, tx); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export transaction during reconcile",
				log.FieldTransactionID, tx.ID, log.FieldError, err)
			res.Failed++
			continue
		}
		res.Upserted++
	}

	for id := range byID {
		if err := w.exporter.Remove(ctx, id); err != nil {
			w.logger.ErrorContext(ctx, "Failed to remove stale row",
				log.FieldTransactionID, id, log.FieldError, err)
			res.Failed++
			continue
		}
		res.Removed++
	}

	w.logger.InfoContext(ctx, "Reconcile completed",
		"stored", len(stored),
		"upserted", res.Upserted,
		"removed", res.Removed,
		"errors", res.Failed)
	return res, nil
}

func sameRow(a, b core.Transaction) bool {
	if a.Kind != b.Kind || !a.Amount.Equal(b.Amount) || a.Category != b.Category ||
		a.Description != b.Description || !a.Date.Equal(b.Date.Time) ||
		a.IsRecurring != b.IsRecurring || a.Frequency != b.Frequency {
		return false
	}
	if (a.RecurringDay == nil) != (b.RecurringDay == nil) {
		return false
	}
	return a.RecurringDay == nil || *a.RecurringDay == *b.RecurringDay
}
