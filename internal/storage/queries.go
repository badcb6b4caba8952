package storage

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type TransactionRow struct {
	ID           string
	Kind         string
	Amount       decimal.Decimal
	Category     string
	Description  string
	Date         string
	IsRecurring  bool
	Frequency    sql.NullString
	RecurringDay sql.NullInt64
}

type CategoryRow struct {
	ID    string
	Name  string
	Kind  string
	Color string
}

const listTransactions = `SELECT id, kind, amount, category, description, date, is_recurring, frequency, recurring_day
FROM transactions
ORDER BY rowid`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(
			&i.ID,
			&i.Kind,
			&i.Amount,
			&i.Category,
			&i.Description,
			&i.Date,
			&i.IsRecurring,
			&i.Frequency,
			&i.RecurringDay,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const insertTransaction = `INSERT INTO transactions (id, kind, amount, category, description, date, is_recurring, frequency, recurring_day)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTransaction(ctx context.Context, arg TransactionRow) error {
	_, err := q.db.ExecContext(ctx, insertTransaction,
		arg.ID,
		arg.Kind,
		arg.Amount.String(),
		arg.Category,
		arg.Description,
		arg.Date,
		arg.IsRecurring,
		arg.Frequency,
		arg.RecurringDay,
	)
	return err
}

const updateTransaction = `UPDATE transactions
SET kind = ?, amount = ?, category = ?, description = ?, date = ?, is_recurring = ?, frequency = ?, recurring_day = ?
WHERE id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, arg TransactionRow) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Kind,
		arg.Amount.String(),
		arg.Category,
		arg.Description,
		arg.Date,
		arg.IsRecurring,
		arg.Frequency,
		arg.RecurringDay,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listCategories = `SELECT id, name, kind, color FROM categories ORDER BY rowid`

func (q *Queries) ListCategories(ctx context.Context) ([]CategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CategoryRow
	for rows.Next() {
		var i CategoryRow
		if err := rows.Scan(&i.ID, &i.Name, &i.Kind, &i.Color); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const countCategories = `SELECT COUNT(*) FROM categories`

func (q *Queries) CountCategories(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countCategories).Scan(&count)
	return count, err
}

const insertCategory = `INSERT INTO categories (id, name, kind, color) VALUES (?, ?, ?, ?)`

func (q *Queries) InsertCategory(ctx context.Context, arg CategoryRow) error {
	_, err := q.db.ExecContext(ctx, insertCategory, arg.ID, arg.Name, arg.Kind, arg.Color)
	return err
}

const updateCategory = `UPDATE categories SET name = ?, kind = ?, color = ? WHERE id = ?`

func (q *Queries) UpdateCategory(ctx context.Context, arg CategoryRow) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateCategory, arg.Name, arg.Kind, arg.Color, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
