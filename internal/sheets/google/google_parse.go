package google

import (
	"fmt"
	"strconv"
	"strings"

	"saldo/internal/core"
)

// transactionRow lays tx out in header order. The amount is written as a
// plain decimal string so USER_ENTERED input stores it as a number.
func transactionRow(tx core.Transaction) []any {
	freq, day := "", ""
	if tx.IsRecurring {
		freq = string(tx.Frequency)
		if tx.RecurringDay != nil {
			day = strconv.Itoa(*tx.RecurringDay)
		}
	}
	return []any{
		tx.ID,
		tx.Date.String(),
		string(tx.Kind),
		tx.Category,
		tx.Description,
		tx.Amount.StringFixed(2),
		freq,
		day,
	}
}

// parseTransactionRow is the inverse of transactionRow.
func parseTransactionRow(row []any) (core.Transaction, error) {
	cols := toStrings(row)
	id := safeGet(cols, 0)
	if id == "" {
		return core.Transaction{}, fmt.Errorf("row without id")
	}
	date, err := core.ParseDate(safeGet(cols, 1))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("row %s: %w", id, err)
	}
	amount, err := core.ParseAmount(safeGet(cols, 5))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("row %s: %w", id, err)
	}
	tx := core.Transaction{
		ID:          id,
		Kind:        core.Kind(strings.ToLower(safeGet(cols, 2))),
		Category:    safeGet(cols, 3),
		Description: safeGet(cols, 4),
		Amount:      amount,
		Date:        date,
	}
	if freq := safeGet(cols, 6); freq != "" {
		tx.IsRecurring = true
		tx.Frequency = core.Frequency(strings.ToLower(freq))
		if d := safeGet(cols, 7); d != "" {
			day, err := strconv.Atoi(d)
			if err != nil {
				return core.Transaction{}, fmt.Errorf("row %s: invalid day %q", id, d)
			}
			tx.RecurringDay = &day
		}
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("row %s: %w", id, err)
	}
	return tx, nil
}

// findRow returns the 1-based sheet row whose first column equals id, or 0.
// values is expected to start at row 1.
func findRow(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func isHeader(row []any) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(fmt.Sprint(row[0])), "id")
}
