package memory

import (
	"context"
	"sync"

	"saldo/internal/core"
	ports "saldo/internal/sheets"
)

var (
	_ ports.Exporter          = (*Store)(nil)
	_ ports.TransactionLister = (*Store)(nil)
)

// Store is an in-process sheet. Rows keep insertion order and updates
// happen in place, like the Google exporter.
type Store struct {
	mu   sync.Mutex
	rows []core.Transaction
}

func New() *Store {
	return &Store{}
}

// Upsert replaces the row with tx.ID or appends a new one.
func (s *Store) Upsert(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(tx.ID); i >= 0 {
		s.rows[i] = tx
		return nil
	}
	s.rows = append(s.rows, tx)
	return nil
}

// Remove deletes the row with id, if any.
func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		s.rows = append(s.rows[:i], s.rows[i+1:]...)
	}
	return nil
}

// ListTransactions returns a copy of the rows.
func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.rows...), nil
}

func (s *Store) indexOf(id string) int {
	for i, tx := range s.rows {
		if tx.ID == id {
			return i
		}
	}
	return -1
}
