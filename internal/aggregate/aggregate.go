package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"saldo/internal/core"
	"saldo/internal/dates"
)

const (
	DefaultTopLimit    = 5
	DefaultTrendWindow = 6
	// MaxTrendWindow is ten years of months.
	MaxTrendWindow = 120
)

// Projection decides which transactions belong to a queried month.
type Projection int

const (
	// ProjectionAnchorMonth keeps only transactions whose anchor date falls
	// in the queried month, recurring or not. Recurring ones are then
	// multiplied by their occurrence count.
	ProjectionAnchorMonth Projection = iota
	// ProjectionForward also keeps recurring transactions in every month
	// after their anchor month.
	ProjectionForward
)

func (p Projection) String() string {
	if p == ProjectionForward {
		return "forward"
	}
	return "anchor"
}

// ParseProjection reads "anchor" or "forward"; empty means anchor.
func ParseProjection(s string) (Projection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "anchor":
		return ProjectionAnchorMonth, nil
	case "forward":
		return ProjectionForward, nil
	default:
		return ProjectionAnchorMonth, fmt.Errorf("unknown recurrence projection %q", s)
	}
}

// Aggregator computes totals. It keeps no state between calls; every method
// is a pure function of its arguments.
type Aggregator struct {
	projection Projection
}

type Option func(*Aggregator)

func WithProjection(p Projection) Option {
	return func(a *Aggregator) { a.projection = p }
}

func New(opts ...Option) Aggregator {
	var a Aggregator
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

func (a Aggregator) Projection() Projection {
	return a.projection
}

// InPeriod reports whether tx contributes to the given month.
func (a Aggregator) InPeriod(tx core.Transaction, month, year int) bool {
	if tx.Date.Month() == month && tx.Date.Year() == year {
		return true
	}
	if a.projection != ProjectionForward || !tx.IsRecurring {
		return false
	}
	return year*12+month > tx.Date.Year()*12+tx.Date.Month()
}

// MonthlyTotals sums income and expense for the month. Every supplied
// category name starts at zero so it shows up even without activity.
func (a Aggregator) MonthlyTotals(txs []core.Transaction, month, year int, categories []core.Category) core.MonthlyTotal {
	total := core.MonthlyTotal{
		Month:      month,
		Year:       year,
		Income:     decimal.Zero,
		Expense:    decimal.Zero,
		Categories: make(map[string]decimal.Decimal, len(categories)),
	}
	for _, c := range categories {
		total.Categories[c.Name] = decimal.Zero
	}

	for _, tx := range txs {
		if !a.InPeriod(tx, month, year) {
			continue
		}
		amount := tx.Amount.Mul(decimal.NewFromInt(int64(Occurrences(tx, month, year))))
		switch tx.Kind {
		case core.Income:
			total.Income = total.Income.Add(amount)
		case core.Expense:
			total.Expense = total.Expense.Add(amount)
		}
		total.Categories[tx.Category] = total.Categories[tx.Category].Add(amount)
	}

	total.Balance = total.Income.Sub(total.Expense)
	return total
}

// TopCategories ranks expense categories by amount for the month. Ties keep
// the order in which categories were first seen. limit <= 0 means
// DefaultTopLimit.
func (a Aggregator) TopCategories(txs []core.Transaction, month, year, limit int) []core.CategoryAmount {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	var ranked []core.CategoryAmount
	index := make(map[string]int)
	for _, tx := range txs {
		if tx.Kind != core.Expense || !a.InPeriod(tx, month, year) {
			continue
		}
		amount := tx.Amount.Mul(decimal.NewFromInt(int64(Occurrences(tx, month, year))))
		i, seen := index[tx.Category]
		if !seen {
			index[tx.Category] = len(ranked)
			ranked = append(ranked, core.CategoryAmount{Category: tx.Category, Amount: amount})
			continue
		}
		ranked[i].Amount = ranked[i].Amount.Add(amount)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Amount.GreaterThan(ranked[j].Amount)
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// MonthlyTrend returns window months ending at (month, year), oldest first.
// window <= 0 means DefaultTrendWindow; larger windows are capped at
// MaxTrendWindow.
func (a Aggregator) MonthlyTrend(txs []core.Transaction, month, year, window int) []core.TrendPoint {
	if window <= 0 {
		window = DefaultTrendWindow
	}
	if window > MaxTrendWindow {
		window = MaxTrendWindow
	}

	points := make([]core.TrendPoint, 0, window)
	for back := window - 1; back >= 0; back-- {
		y, m := dates.ShiftMonth(year, month, -back)
		totals := a.MonthlyTotals(txs, m, y, nil)
		points = append(points, core.TrendPoint{
			Label:   dates.MonthLabel(y, m),
			Month:   m,
			Year:    y,
			Income:  totals.Income,
			Expense: totals.Expense,
		})
	}
	return points
}

var defaultAggregator = New()

// MonthlyTotals uses the anchor-month projection.
func MonthlyTotals(txs []core.Transaction, month, year int, categories []core.Category) core.MonthlyTotal {
	return defaultAggregator.MonthlyTotals(txs, month, year, categories)
}

// TopCategories uses the anchor-month projection.
func TopCategories(txs []core.Transaction, month, year, limit int) []core.CategoryAmount {
	return defaultAggregator.TopCategories(txs, month, year, limit)
}

// MonthlyTrend uses the anchor-month projection.
func MonthlyTrend(txs []core.Transaction, month, year, window int) []core.TrendPoint {
	return defaultAggregator.MonthlyTrend(txs, month, year, window)
}
