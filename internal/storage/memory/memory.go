// Package memory is an in-process Store. With a snapshot path it also writes
// every change to a JSON file and reloads it on start, which is enough for a
// single-user CLI.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"saldo/internal/core"
	"saldo/internal/storage"
)

type Store struct {
	mu           sync.Mutex
	path         string
	transactions []core.Transaction
	categories   []core.Category
}

var _ storage.Store = (*Store)(nil)

type snapshot struct {
	Transactions []core.Transaction `json:"transactions"`
	Categories   []core.Category    `json:"categories"`
}

// New returns an empty store that lives only in memory.
func New() *Store {
	return &Store{}
}

// NewFromFile loads the snapshot at path if it exists and keeps writing to it.
func NewFromFile(path string) (*Store, error) {
	s := &Store{path: path}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	s.transactions = snap.Transactions
	s.categories = snap.Categories
	return s, nil
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.transactions))
	for i, tx := range s.transactions {
		out[i] = cloneTransaction(tx)
	}
	return out, nil
}

func (s *Store) AppendTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.transactions {
		if existing.ID == tx.ID {
			return fmt.Errorf("transaction %s already exists", tx.ID)
		}
	}
	s.transactions = append(s.transactions, cloneTransaction(tx))
	return s.persist()
}

func (s *Store) ReplaceTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == tx.ID {
			s.transactions[i] = cloneTransaction(tx)
			return s.persist()
		}
	}
	return fmt.Errorf("replace transaction %s: %w", tx.ID, storage.ErrNotFound)
}

func (s *Store) RemoveTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return s.persist()
		}
	}
	return fmt.Errorf("remove transaction %s: %w", id, storage.ErrNotFound)
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...), nil
}

func (s *Store) AppendCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.ID == c.ID {
			return fmt.Errorf("category %s already exists", c.ID)
		}
	}
	s.categories = append(s.categories, c)
	return s.persist()
}

func (s *Store) ReplaceCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == c.ID {
			s.categories[i] = c
			return s.persist()
		}
	}
	return fmt.Errorf("replace category %s: %w", c.ID, storage.ErrNotFound)
}

func (s *Store) RemoveCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return s.persist()
		}
	}
	return fmt.Errorf("remove category %s: %w", id, storage.ErrNotFound)
}

func (s *Store) EnsureDefaultsSeeded(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.categories) > 0 {
		return nil
	}
	s.categories = core.DefaultCategories()
	return s.persist()
}

func (s *Store) Close() error {
	return nil
}

// persist writes the snapshot atomically. Callers hold s.mu.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	b, err := json.MarshalIndent(snapshot{Transactions: s.transactions, Categories: s.categories}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func cloneTransaction(tx core.Transaction) core.Transaction {
	if tx.RecurringDay != nil {
		day := *tx.RecurringDay
		tx.RecurringDay = &day
	}
	return tx
}
