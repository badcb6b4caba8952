// Package aggregate computes period totals over a set of transactions,
// projecting recurring transactions onto the queried month.
//
// This file implements one occurrence counter per recurrence frequency.
// Each counter answers how many times a recurring transaction happens in a
// given calendar month.
package aggregate

import (
	"saldo/internal/core"
	"saldo/internal/dates"
)

// OccurrenceCounter is the strategy interface for a recurrence frequency.
type OccurrenceCounter interface {
	// Count returns how many times a transaction anchored at anchor occurs
	// in month (1-12) of year.
	Count(anchor core.Date, month, year int) int
}

// DailyCounter counts one occurrence per calendar day.
type DailyCounter struct{}

func (DailyCounter) Count(_ core.Date, month, year int) int {
	return dates.DaysInMonth(year, month)
}

// WeeklyCounter counts full weeks in the month.
type WeeklyCounter struct{}

func (WeeklyCounter) Count(_ core.Date, month, year int) int {
	return dates.DaysInMonth(year, month) / 7
}

// BiweeklyCounter counts two occurrences per full fortnight.
type BiweeklyCounter struct{}

func (BiweeklyCounter) Count(_ core.Date, month, year int) int {
	return dates.DaysInMonth(year, month) / 14 * 2
}

// MonthlyCounter counts once per month.
type MonthlyCounter struct{}

func (MonthlyCounter) Count(core.Date, int, int) int {
	return 1
}

// YearlyCounter counts once, only in the anchor's calendar month.
type YearlyCounter struct{}

func (YearlyCounter) Count(anchor core.Date, month, _ int) int {
	if anchor.Month() == month {
		return 1
	}
	return 0
}

var occurrenceStrategies = map[core.Frequency]OccurrenceCounter{
	core.Daily:    DailyCounter{},
	core.Weekly:   WeeklyCounter{},
	core.Biweekly: BiweeklyCounter{},
	core.Monthly:  MonthlyCounter{},
	core.Yearly:   YearlyCounter{},
}

// Occurrences returns how many times tx happens in the given month. One-off
// transactions and unknown frequencies count once.
func Occurrences(tx core.Transaction, month, year int) int {
	if !tx.IsRecurring {
		return 1
	}
	counter, ok := occurrenceStrategies[tx.Frequency]
	if !ok {
		return 1
	}
	return counter.Count(tx.Date, month, year)
}
