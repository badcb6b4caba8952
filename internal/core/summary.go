package core

import "github.com/shopspring/decimal"

// MonthlyTotal is the income/expense overview of one calendar month.
// Categories is keyed by category name regardless of kind.
type MonthlyTotal struct {
	Month      int                        `json:"month"`
	Year       int                        `json:"year"`
	Income     decimal.Decimal            `json:"income"`
	Expense    decimal.Decimal            `json:"expense"`
	Balance    decimal.Decimal            `json:"balance"`
	Categories map[string]decimal.Decimal `json:"categories"`
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// TrendPoint is one month of a trend series, labelled like "Jan 2024".
type TrendPoint struct {
	Label   string          `json:"label"`
	Month   int             `json:"month"`
	Year    int             `json:"year"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}
