package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"saldo/internal/aggregate"
	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/interpreter"
	"saldo/internal/log"
	"saldo/internal/storage"
)

// TransactionService orchestrates transaction writes across the store and
// the event bus. The store write is authoritative; a failed publish is
// logged and does not fail the request.
type TransactionService struct {
	store       storage.TransactionStore
	categories  *CategoryService
	interpreter *interpreter.Interpreter
	publisher   EventPublisher
	aggregator  aggregate.Aggregator
	logger      *log.Logger
	events      *log.StructuredLogger
	newID       func() string
	now         func() time.Time
}

// NewTransactionService wires the service. publisher may be nil.
func NewTransactionService(
	store storage.TransactionStore,
	categories *CategoryService,
	interp *interpreter.Interpreter,
	publisher EventPublisher,
	agg aggregate.Aggregator,
	logger *log.Logger,
) *TransactionService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &TransactionService{
		store:       store,
		categories:  categories,
		interpreter: interp,
		publisher:   publisher,
		aggregator:  agg,
		logger:      logger.WithComponent(log.ComponentTransaction),
		events:      log.NewStructuredLogger(logger),
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// SubmitText interprets free text. A complete draft is saved and returned in
// the response; otherwise the response carries the question or error and
// nothing is written.
func (s *TransactionService) SubmitText(ctx context.Context, text string) (interpreter.Response, error) {
	if strings.TrimSpace(text) == "" {
		return interpreter.Response{}, fmt.Errorf("%w: empty text", ErrInvalidInput)
	}
	known, err := s.categories.List(ctx)
	if err != nil {
		return interpreter.Response{}, err
	}

	resp := s.interpreter.Interpret(text, known)
	s.logger.DebugContext(ctx, "Interpreted text",
		log.FieldOperation, log.OpInterpret,
		"complete", resp.Complete(),
		"needs_more_info", resp.NeedsMoreInfo)

	if !resp.Complete() {
		return resp, nil
	}
	if err := resp.Transaction.Validate(); err != nil {
		return interpreter.Response{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.save(ctx, *resp.Transaction, log.OpInterpret); err != nil {
		return interpreter.Response{}, err
	}
	return resp, nil
}

// ResumeText answers a pending follow-up question and saves the result when
// it completes the draft.
func (s *TransactionService) ResumeText(ctx context.Context, pending interpreter.Response, answer string) (interpreter.Response, error) {
	resp := s.interpreter.Resume(pending, answer)
	if err := resp.Err(); err != nil {
		return resp, err
	}
	if !resp.Complete() {
		return resp, nil
	}
	// the pending draft comes back from the client
	if err := resp.Transaction.Validate(); err != nil {
		return interpreter.Response{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.save(ctx, *resp.Transaction, log.OpFollowUp); err != nil {
		return interpreter.Response{}, err
	}
	return resp, nil
}

// Create saves a transaction entered field by field. The id is always
// generated; a missing date becomes today.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID = s.newID()
	if tx.Date.IsZero() {
		tx.Date = core.DateOf(s.now())
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.save(ctx, tx, log.OpCreate); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func (s *TransactionService) save(ctx context.Context, tx core.Transaction, op string) error {
	if err := s.store.AppendTransaction(ctx, tx); err != nil {
		s.events.LogError(ctx, "Failed to save transaction", err, log.ComponentTransaction, op)
		return fmt.Errorf("save transaction: %w", err)
	}
	s.events.LogTransactionSaved(ctx, op, tx)
	s.publish(ctx, amqp.EventCreated, tx)
	return nil
}

// Update replaces every field of an existing transaction.
func (s *TransactionService) Update(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == "" {
		return core.Transaction{}, fmt.Errorf("%w: missing id", ErrInvalidInput)
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.store.ReplaceTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", tx.ID, err)
	}
	s.events.LogTransactionSaved(ctx, log.OpUpdate, tx)
	s.publish(ctx, amqp.EventUpdated, tx)
	return tx, nil
}

// Delete removes a transaction by id.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.store.RemoveTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Transaction deleted", log.FieldOperation, log.OpDelete, log.FieldTransactionID, id)
	s.publish(ctx, amqp.EventDeleted, core.Transaction{ID: id})
	return nil
}

// Get returns one transaction by id.
func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("list transactions: %w", err)
	}
	for _, tx := range txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, storage.ErrNotFound)
}

// ListFilter narrows and orders List. Zero Month means every month.
type ListFilter struct {
	Month int
	Year  int
	Kind  core.Kind
	Field core.SortField
	Order core.SortOrder
}

// List returns the stored transactions filtered and sorted. The month
// filter uses the aggregator's period rule, so it agrees with the totals.
func (s *TransactionService) List(ctx context.Context, f ListFilter) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if f.Month != 0 && (f.Month < 1 || f.Month > 12) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, core.ErrInvalidMonth)
	}

	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Kind != "" && tx.Kind != f.Kind {
			continue
		}
		if f.Month != 0 && !s.aggregator.InPeriod(tx, f.Month, f.Year) {
			continue
		}
		out = append(out, tx)
	}

	field, order := f.Field, f.Order
	if field == "" {
		field = core.SortByDate
	}
	if order == "" {
		order = core.Descending
	}
	return core.SortTransactions(out, field, order), nil
}

func (s *TransactionService) publish(ctx context.Context, typ amqp.EventType, tx core.Transaction) {
	if err := s.publisher.PublishTransactionEvent(ctx, typ, tx); err != nil {
		s.events.LogError(ctx, "Failed to publish transaction event", err, log.ComponentAMQP, log.OpPublish)
	}
}
