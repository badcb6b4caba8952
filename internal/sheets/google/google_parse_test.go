package google

import (
	"testing"

	"github.com/shopspring/decimal"

	"saldo/internal/core"
)

func intPtr(v int) *int { return &v }

func TestTransactionRow_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tx   core.Transaction
		want []any
	}{
		{
			name: "one-off expense",
			tx: core.Transaction{
				ID: "a1", Kind: core.Expense, Amount: decimal.RequireFromString("45.5"),
				Category: "Food & Dining", Description: "groceries", Date: core.NewDate(2024, 3, 15),
			},
			want: []any{"a1", "2024-03-15", "expense", "Food & Dining", "groceries", "45.50", "", ""},
		},
		{
			name: "monthly with day",
			tx: core.Transaction{
				ID: "b2", Kind: core.Expense, Amount: decimal.NewFromInt(1500),
				Category: "Housing", Description: "rent", Date: core.NewDate(2024, 1, 1),
				IsRecurring: true, Frequency: core.Monthly, RecurringDay: intPtr(1),
			},
			want: []any{"b2", "2024-01-01", "expense", "Housing", "rent", "1500.00", "monthly", "1"},
		},
		{
			name: "weekly income",
			tx: core.Transaction{
				ID: "c3", Kind: core.Income, Amount: decimal.RequireFromString("200.25"),
				Category: "Freelance", Description: "tutoring", Date: core.NewDate(2024, 2, 29),
				IsRecurring: true, Frequency: core.Weekly,
			},
			want: []any{"c3", "2024-02-29", "income", "Freelance", "tutoring", "200.25", "weekly", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := transactionRow(tt.tx)
			if len(row) != len(tt.want) {
				t.Fatalf("row has %d columns, want %d", len(row), len(tt.want))
			}
			for i := range row {
				if row[i] != tt.want[i] {
					t.Errorf("column %d = %v, want %v", i, row[i], tt.want[i])
				}
			}

			got, err := parseTransactionRow(row)
			if err != nil {
				t.Fatalf("parseTransactionRow() error = %v", err)
			}
			if got.ID != tt.tx.ID || got.Kind != tt.tx.Kind || !got.Amount.Equal(tt.tx.Amount) ||
				got.Category != tt.tx.Category || !got.Date.Equal(tt.tx.Date.Time) ||
				got.IsRecurring != tt.tx.IsRecurring || got.Frequency != tt.tx.Frequency {
				t.Errorf("parsed = %+v, want %+v", got, tt.tx)
			}
			if (got.RecurringDay == nil) != (tt.tx.RecurringDay == nil) {
				t.Errorf("RecurringDay = %v, want %v", got.RecurringDay, tt.tx.RecurringDay)
			}
		})
	}
}

func TestParseTransactionRow_Invalid(t *testing.T) {
	tests := map[string][]any{
		"empty id":     {"", "2024-03-15", "expense", "Other", "", "1.00"},
		"bad date":     {"x", "15/03/2024", "expense", "Other", "", "1.00"},
		"bad amount":   {"x", "2024-03-15", "expense", "Other", "", "abc"},
		"bad kind":     {"x", "2024-03-15", "transfer", "Other", "", "1.00"},
		"bad day":      {"x", "2024-03-15", "expense", "Other", "", "1.00", "monthly", "first"},
		"day on daily": {"x", "2024-03-15", "expense", "Other", "", "1.00", "daily", "3"},
	}
	for name, row := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := parseTransactionRow(row); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseTransactionRow_NumericCells(t *testing.T) {
	// USER_ENTERED cells come back as formatted strings, but a float is
	// accepted as well.
	row := []any{"n1", "2024-03-15", "Expense", "Shopping", "lamp", 12.3}
	tx, err := parseTransactionRow(row)
	if err != nil {
		t.Fatalf("parseTransactionRow() error = %v", err)
	}
	if tx.Kind != core.Expense || !tx.Amount.Equal(decimal.RequireFromString("12.30")) {
		t.Errorf("parsed = %+v", tx)
	}
}

func TestFindRow(t *testing.T) {
	values := [][]any{
		{"ID"},
		{"a1"},
		{},
		{" b2 "},
	}
	tests := []struct {
		id   string
		want int
	}{
		{"a1", 2},
		{"b2", 4},
		{"zz", 0},
	}
	for _, tt := range tests {
		if got := findRow(values, tt.id); got != tt.want {
			t.Errorf("findRow(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestIsHeader(t *testing.T) {
	if !isHeader([]any{"ID", "Date"}) {
		t.Error("expected header row")
	}
	if isHeader([]any{"a1", "2024-03-15"}) || isHeader(nil) {
		t.Error("unexpected header match")
	}
}
