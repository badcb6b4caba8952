package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"saldo/internal/aggregate"
	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/storage"
)

// Dashboard bundles the figures shown for one month.
type Dashboard struct {
	Month         int                   `json:"month"`
	Year          int                   `json:"year"`
	Totals        core.MonthlyTotal     `json:"totals"`
	TopCategories []core.CategoryAmount `json:"top_categories"`
	Trend         []core.TrendPoint     `json:"trend"`
	Upcoming      []Upcoming            `json:"upcoming"`
}

// SummaryService loads records from the store and hands them to the
// aggregator.
type SummaryService struct {
	txs        storage.TransactionStore
	categories *CategoryService
	aggregator aggregate.Aggregator
	logger     *log.Logger
}

func NewSummaryService(txs storage.TransactionStore, categories *CategoryService, agg aggregate.Aggregator, logger *log.Logger) *SummaryService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SummaryService{
		txs:        txs,
		categories: categories,
		aggregator: agg,
		logger:     logger.WithComponent(log.ComponentSummary),
	}
}

// Totals returns income, expense, balance and per-category totals.
func (s *SummaryService) Totals(ctx context.Context, month, year int) (core.MonthlyTotal, error) {
	if err := checkMonth(month); err != nil {
		return core.MonthlyTotal{}, err
	}
	txs, cats, err := s.load(ctx)
	if err != nil {
		return core.MonthlyTotal{}, err
	}
	return s.aggregator.MonthlyTotals(txs, month, year, cats), nil
}

// Top returns the largest expense categories of the month.
func (s *SummaryService) Top(ctx context.Context, month, year, limit int) ([]core.CategoryAmount, error) {
	if err := checkMonth(month); err != nil {
		return nil, err
	}
	txs, err := s.txs.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return s.aggregator.TopCategories(txs, month, year, limit), nil
}

// Trend returns window months ending at month/year, oldest first. Windows
// above aggregate.MaxTrendWindow are rejected.
func (s *SummaryService) Trend(ctx context.Context, month, year, window int) ([]core.TrendPoint, error) {
	if err := checkMonth(month); err != nil {
		return nil, err
	}
	if window > aggregate.MaxTrendWindow {
		return nil, fmt.Errorf("%w: trend window %d exceeds %d months", ErrInvalidInput, window, aggregate.MaxTrendWindow)
	}
	txs, err := s.txs.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return s.aggregator.MonthlyTrend(txs, month, year, window), nil
}

// Dashboard computes totals, top categories, the default trend window and
// the recurring transactions due from the first of the month on, over one
// snapshot of the store.
func (s *SummaryService) Dashboard(ctx context.Context, month, year int) (Dashboard, error) {
	if err := checkMonth(month); err != nil {
		return Dashboard{}, err
	}
	txs, cats, err := s.load(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		Month:         month,
		Year:          year,
		Totals:        s.aggregator.MonthlyTotals(txs, month, year, cats),
		TopCategories: s.aggregator.TopCategories(txs, month, year, aggregate.DefaultTopLimit),
		Trend:         s.aggregator.MonthlyTrend(txs, month, year, aggregate.DefaultTrendWindow),
		Upcoming:      upcomingFrom(txs, core.NewDate(year, month, 1), defaultUpcomingDays),
	}

	s.logger.DebugContext(ctx, "Dashboard computed",
		log.FieldMonth, month,
		log.FieldYear, year,
		"transactions", len(txs))
	return d, nil
}

// load reads transactions and categories concurrently.
func (s *SummaryService) load(ctx context.Context) ([]core.Transaction, []core.Category, error) {
	var (
		txs  []core.Transaction
		cats []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.txs.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		cats, err = s.categories.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return txs, cats, nil
}

func checkMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: %w: %d", ErrInvalidInput, core.ErrInvalidMonth, month)
	}
	return nil
}
