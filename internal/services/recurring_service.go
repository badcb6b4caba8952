package services

import (
	"context"
	"fmt"
	"sort"

	"saldo/internal/core"
	"saldo/internal/dates"
	"saldo/internal/storage"
)

const defaultUpcomingDays = 30

// Upcoming is the next repetition of a recurring transaction.
type Upcoming struct {
	Transaction core.Transaction `json:"transaction"`
	Next        core.Date        `json:"next"`
}

// RecurringService answers when recurring transactions happen next.
type RecurringService struct {
	txs storage.TransactionStore
}

func NewRecurringService(txs storage.TransactionStore) *RecurringService {
	return &RecurringService{txs: txs}
}

// Upcoming lists recurring transactions whose next repetition on or after
// from falls within days, soonest first. days <= 0 uses 30.
func (s *RecurringService) Upcoming(ctx context.Context, from core.Date, days int) ([]Upcoming, error) {
	txs, err := s.txs.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return upcomingFrom(txs, from, days), nil
}

func upcomingFrom(txs []core.Transaction, from core.Date, days int) []Upcoming {
	if days <= 0 {
		days = defaultUpcomingDays
	}
	until := from.AddDays(days)

	out := make([]Upcoming, 0)
	for _, tx := range txs {
		next, ok := dates.OccurrenceOnOrAfter(tx, from)
		if !ok || !next.Before(until.Time) {
			continue
		}
		out = append(out, Upcoming{Transaction: tx, Next: next})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Next.Before(out[j].Next.Time)
	})
	return out
}
