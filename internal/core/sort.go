package core

import (
	"fmt"
	"sort"
	"strings"
)

type (
	SortField string
	SortOrder string
)

const (
	SortByDate     SortField = "date"
	SortByAmount   SortField = "amount"
	SortByCategory SortField = "category"

	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// ParseSort validates the sort field and order, defaulting to newest first.
func ParseSort(field, order string) (SortField, SortOrder, error) {
	f := SortField(strings.ToLower(strings.TrimSpace(field)))
	o := SortOrder(strings.ToLower(strings.TrimSpace(order)))
	if f == "" {
		f = SortByDate
	}
	if o == "" {
		o = Descending
	}
	switch f {
	case SortByDate, SortByAmount, SortByCategory:
	default:
		return "", "", fmt.Errorf("unknown sort field %q", field)
	}
	if o != Ascending && o != Descending {
		return "", "", fmt.Errorf("unknown sort order %q", order)
	}
	return f, o, nil
}

// SortTransactions returns a sorted copy of txs. Equal keys keep their
// original relative order.
func SortTransactions(txs []Transaction, field SortField, order SortOrder) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)

	compare := func(a, b Transaction) int {
		switch field {
		case SortByAmount:
			return a.Amount.Cmp(b.Amount)
		case SortByCategory:
			return strings.Compare(a.Category, b.Category)
		default:
			return a.Date.Compare(b.Date.Time)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j])
		if order == Descending {
			return c > 0
		}
		return c < 0
	})
	return out
}
