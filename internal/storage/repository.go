package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"saldo/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the Store backed by a local SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := transactionFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func (r *SQLiteRepository) AppendTransaction(ctx context.Context, tx core.Transaction) error {
	if err := r.queries.InsertTransaction(ctx, TransactionRowFrom(tx)); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	slog.DebugContext(ctx, "Transaction saved to SQLite", "id", tx.ID, "kind", tx.Kind, "amount", tx.Amount.String())
	return nil
}

func (r *SQLiteRepository) ReplaceTransaction(ctx context.Context, tx core.Transaction) error {
	n, err := r.queries.UpdateTransaction(ctx, TransactionRowFrom(tx))
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", tx.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update transaction %s: %w", tx.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) RemoveTransaction(ctx context.Context, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete transaction %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, categoryFromRow(row))
	}
	return out, nil
}

func (r *SQLiteRepository) AppendCategory(ctx context.Context, c core.Category) error {
	if err := r.queries.InsertCategory(ctx, CategoryRowFrom(c)); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ReplaceCategory(ctx context.Context, c core.Category) error {
	n, err := r.queries.UpdateCategory(ctx, CategoryRowFrom(c))
	if err != nil {
		return fmt.Errorf("update category %s: %w", c.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update category %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) RemoveCategory(ctx context.Context, id string) error {
	n, err := r.queries.DeleteCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete category %s: %w", id, ErrNotFound)
	}
	return nil
}

// EnsureDefaultsSeeded inserts the default categories into an empty table.
func (r *SQLiteRepository) EnsureDefaultsSeeded(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	count, err := q.CountCategories(ctx)
	if err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, c := range core.DefaultCategories() {
		if err := q.InsertCategory(ctx, CategoryRowFrom(c)); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}
	slog.InfoContext(ctx, "Seeded default categories", "count", len(core.DefaultCategories()))
	return nil
}

// TransactionRowFrom flattens a transaction into its column values.
func TransactionRowFrom(tx core.Transaction) TransactionRow {
	row := TransactionRow{
		ID:          tx.ID,
		Kind:        string(tx.Kind),
		Amount:      tx.Amount,
		Category:    tx.Category,
		Description: tx.Description,
		Date:        tx.Date.String(),
		IsRecurring: tx.IsRecurring,
	}
	if tx.Frequency != "" {
		row.Frequency = sql.NullString{String: string(tx.Frequency), Valid: true}
	}
	if tx.RecurringDay != nil {
		row.RecurringDay = sql.NullInt64{Int64: int64(*tx.RecurringDay), Valid: true}
	}
	return row
}

func transactionFromRow(row TransactionRow) (core.Transaction, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", row.ID, err)
	}
	tx := core.Transaction{
		ID:          row.ID,
		Kind:        core.Kind(row.Kind),
		Amount:      row.Amount,
		Category:    row.Category,
		Description: row.Description,
		Date:        date,
		IsRecurring: row.IsRecurring,
	}
	if row.Frequency.Valid {
		tx.Frequency = core.Frequency(row.Frequency.String)
	}
	if row.RecurringDay.Valid {
		day := int(row.RecurringDay.Int64)
		tx.RecurringDay = &day
	}
	return tx, nil
}

func CategoryRowFrom(c core.Category) CategoryRow {
	return CategoryRow{ID: c.ID, Name: c.Name, Kind: string(c.Kind), Color: c.Color}
}

func categoryFromRow(row CategoryRow) core.Category {
	return core.Category{ID: row.ID, Name: row.Name, Kind: core.Kind(row.Kind), Color: row.Color}
}
