// Package dates holds the calendar helpers shared by the interpreter and the
// aggregator: month arithmetic, labels and recurrence stepping.
package dates

import (
	"time"

	"saldo/internal/core"
)

// DaysInMonth returns the number of days of month (1-12) in year.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ShiftMonth moves (year, month) by delta months, wrapping the year.
func ShiftMonth(year, month, delta int) (int, int) {
	idx := year*12 + (month - 1) + delta
	y := idx / 12
	m := idx%12 + 1
	if idx < 0 && idx%12 != 0 {
		y--
		m += 12
	}
	return y, m
}

// MonthLabel formats a month as "Jan 2024".
func MonthLabel(year, month int) string {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

// AddMonths adds n months to d, clamping the day to the last day of the
// target month (Jan 31 + 1 month is Feb 28 or 29).
func AddMonths(d core.Date, n int) core.Date {
	y, m := ShiftMonth(d.Year(), d.Month(), n)
	day := d.Day()
	if last := DaysInMonth(y, m); day > last {
		day = last
	}
	return core.NewDate(y, m, day)
}

// NextOccurrence returns the first repetition after the anchor date of a
// recurring transaction. It reports false for one-off transactions.
func NextOccurrence(tx core.Transaction) (core.Date, bool) {
	return Occurrence(tx, 1)
}

// Occurrence returns the n-th repetition of tx counted from its anchor
// (n = 0 is the anchor itself). Month steps are taken from the anchor, so a
// Jan 31 monthly lands on the last day of shorter months without drifting.
func Occurrence(tx core.Transaction, n int) (core.Date, bool) {
	if !tx.IsRecurring || n < 0 {
		return core.Date{}, false
	}
	switch tx.Frequency {
	case core.Daily:
		return tx.Date.AddDays(n), true
	case core.Weekly:
		return tx.Date.AddDays(7 * n), true
	case core.Biweekly:
		return tx.Date.AddDays(14 * n), true
	case core.Monthly:
		return AddMonths(tx.Date, n), true
	case core.Yearly:
		return AddMonths(tx.Date, 12*n), true
	default:
		return core.Date{}, false
	}
}

// OccurrenceOnOrAfter returns the first repetition of tx falling on or after
// from. The anchor counts as a repetition.
func OccurrenceOnOrAfter(tx core.Transaction, from core.Date) (core.Date, bool) {
	if _, ok := Occurrence(tx, 0); !ok {
		return core.Date{}, false
	}
	if !tx.Date.Before(from.Time) {
		return tx.Date, true
	}

	var n int
	switch tx.Frequency {
	case core.Daily, core.Weekly, core.Biweekly:
		step := map[core.Frequency]int{core.Daily: 1, core.Weekly: 7, core.Biweekly: 14}[tx.Frequency]
		days := int(from.Sub(tx.Date.Time).Hours() / 24)
		n = (days + step - 1) / step
	case core.Monthly:
		n = (from.Year()-tx.Date.Year())*12 + from.Month() - tx.Date.Month()
	case core.Yearly:
		n = from.Year() - tx.Date.Year()
	}
	for {
		d, _ := Occurrence(tx, n)
		if !d.Before(from.Time) {
			return d, true
		}
		n++
	}
}
