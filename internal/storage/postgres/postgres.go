// Package postgres is the Store backed by a PostgreSQL database through a
// pgx connection pool.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"saldo/internal/core"
	"saldo/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// Connect opens a pool, checks it and applies pending migrations.
func Connect(ctx context.Context, url string) (*Store, error) {
	if err := RunMigrations(url); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// RunMigrations applies the embedded schema using the pgx5 migrate driver.
func RunMigrations(url string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(url))
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// migrateURL rewrites postgres:// URLs to the scheme the pgx5 driver registers.
func migrateURL(url string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(url, prefix) {
			return "pgx5://" + strings.TrimPrefix(url, prefix)
		}
	}
	return url
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	query := `
		SELECT id, kind, amount::text, category, description, to_char(date, 'YYYY-MM-DD'),
		       is_recurring, frequency, recurring_day
		FROM transactions
		ORDER BY seq
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx        core.Transaction
			kind      string
			amount    string
			date      string
			frequency *string
			day       *int16
		)
		if err := rows.Scan(&tx.ID, &kind, &amount, &tx.Category, &tx.Description, &date,
			&tx.IsRecurring, &frequency, &day); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Kind = core.Kind(kind)
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s amount: %w", tx.ID, err)
		}
		if tx.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		if frequency != nil {
			tx.Frequency = core.Frequency(*frequency)
		}
		if day != nil {
			d := int(*day)
			tx.RecurringDay = &d
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *Store) AppendTransaction(ctx context.Context, tx core.Transaction) error {
	query := `
		INSERT INTO transactions (id, kind, amount, category, description, date, is_recurring, frequency, recurring_day)
		VALUES ($1, $2, $3::numeric, $4, $5, $6::date, $7, $8, $9)
	`
	frequency, day := recurrenceArgs(tx)
	_, err := s.pool.Exec(ctx, query, tx.ID, string(tx.Kind), tx.Amount.String(), tx.Category,
		tx.Description, tx.Date.String(), tx.IsRecurring, frequency, day)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Store) ReplaceTransaction(ctx context.Context, tx core.Transaction) error {
	query := `
		UPDATE transactions
		SET kind = $2, amount = $3::numeric, category = $4, description = $5, date = $6::date,
		    is_recurring = $7, frequency = $8, recurring_day = $9
		WHERE id = $1
	`
	frequency, day := recurrenceArgs(tx)
	tag, err := s.pool.Exec(ctx, query, tx.ID, string(tx.Kind), tx.Amount.String(), tx.Category,
		tx.Description, tx.Date.String(), tx.IsRecurring, frequency, day)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", tx.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update transaction %s: %w", tx.ID, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) RemoveTransaction(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete transaction %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, kind, color FROM categories ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c    core.Category
			kind string
		)
		if err := rows.Scan(&c.ID, &c.Name, &kind, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = core.Kind(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) AppendCategory(ctx context.Context, c core.Category) error {
	return insertCategory(ctx, s.pool, c)
}

func (s *Store) ReplaceCategory(ctx context.Context, c core.Category) error {
	tag, err := s.pool.Exec(ctx, `UPDATE categories SET name = $2, kind = $3, color = $4 WHERE id = $1`,
		c.ID, c.Name, string(c.Kind), c.Color)
	if err != nil {
		return fmt.Errorf("update category %s: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update category %s: %w", c.ID, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) RemoveCategory(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete category %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// EnsureDefaultsSeeded inserts the default categories into an empty table
// inside one transaction.
func (s *Store) EnsureDefaultsSeeded(ctx context.Context) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
			return fmt.Errorf("count categories: %w", err)
		}
		if count > 0 {
			return nil
		}
		for _, c := range core.DefaultCategories() {
			if err := insertCategory(ctx, tx, c); err != nil {
				return err
			}
		}
		slog.InfoContext(ctx, "Seeded default categories", "count", len(core.DefaultCategories()))
		return nil
	})
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertCategory(ctx context.Context, db execer, c core.Category) error {
	_, err := db.Exec(ctx, `INSERT INTO categories (id, name, kind, color) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, string(c.Kind), c.Color)
	if err != nil {
		return fmt.Errorf("insert category %s: %w", c.Name, err)
	}
	return nil
}

func recurrenceArgs(tx core.Transaction) (*string, *int16) {
	var (
		frequency *string
		day       *int16
	)
	if tx.Frequency != "" {
		f := string(tx.Frequency)
		frequency = &f
	}
	if tx.RecurringDay != nil {
		d := int16(*tx.RecurringDay)
		day = &d
	}
	return frequency, day
}
