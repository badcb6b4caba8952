package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"saldo/internal/core"
)

const monthNames = "january|february|march|april|may|june|july|august|september|october|november|december"

var (
	todayPattern     = regexp.MustCompile(`(?i)\btoday\b`)
	yesterdayPattern = regexp.MustCompile(`(?i)\byesterday\b`)
	tomorrowPattern  = regexp.MustCompile(`(?i)\btomorrow\b`)
	lastDayPattern   = regexp.MustCompile(`(?i)\blast\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	numericPattern   = regexp.MustCompile(`(\d{1,2})[/\-](\d{1,2})[/\-](\d{4})`)
	monthDayPattern  = regexp.MustCompile(`(?i)(` + monthNames + `)\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:\s*,\s*(\d{4}))?`)
	dayMonthPattern  = regexp.MustCompile(`(?i)(\d{1,2})(?:st|nd|rd|th)?\s+(` + monthNames + `)(?:\s+(\d{4}))?`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// dateRule tries to resolve a date from text. ok is false when the rule does
// not apply or produced an impossible calendar date.
type dateRule func(text string, today core.Date) (core.Date, bool)

var dateRules = []dateRule{
	relativeDay,
	lastWeekday,
	numericDate,
	monthDayDate,
	dayMonthDate,
}

// Extract finds the first date expression in text, trying relative words,
// "last <weekday>", MM/DD/YYYY, "<Month> <day>[, year]" and
// "<day> <Month> [year]" in that order. It falls back to today.
func Extract(text string, today core.Date) core.Date {
	for _, rule := range dateRules {
		if d, ok := rule(text, today); ok {
			return d
		}
	}
	return today
}

func relativeDay(text string, today core.Date) (core.Date, bool) {
	switch {
	case todayPattern.MatchString(text):
		return today, true
	case yesterdayPattern.MatchString(text):
		return today.AddDays(-1), true
	case tomorrowPattern.MatchString(text):
		return today.AddDays(1), true
	}
	return core.Date{}, false
}

// lastWeekday resolves "last friday" to the most recent friday strictly
// before today; on a friday that is a week ago.
func lastWeekday(text string, today core.Date) (core.Date, bool) {
	m := lastDayPattern.FindStringSubmatch(text)
	if m == nil {
		return core.Date{}, false
	}
	target := weekdays[strings.ToLower(m[1])]
	back := int(today.Weekday()) - int(target)
	if back <= 0 {
		back += 7
	}
	return today.AddDays(-back), true
}

func numericDate(text string, _ core.Date) (core.Date, bool) {
	m := numericPattern.FindStringSubmatch(text)
	if m == nil {
		return core.Date{}, false
	}
	return calendarDate(atoi(m[3]), atoi(m[1]), atoi(m[2]))
}

func monthDayDate(text string, today core.Date) (core.Date, bool) {
	m := monthDayPattern.FindStringSubmatch(text)
	if m == nil {
		return core.Date{}, false
	}
	year := today.Year()
	if m[3] != "" {
		year = atoi(m[3])
	}
	return calendarDate(year, monthNumber(m[1]), atoi(m[2]))
}

func dayMonthDate(text string, today core.Date) (core.Date, bool) {
	m := dayMonthPattern.FindStringSubmatch(text)
	if m == nil {
		return core.Date{}, false
	}
	year := today.Year()
	if m[3] != "" {
		year = atoi(m[3])
	}
	return calendarDate(year, monthNumber(m[2]), atoi(m[1]))
}

// calendarDate rejects dates that time.Date would normalize, such as Feb 30.
func calendarDate(year, month, day int) (core.Date, bool) {
	if month < 1 || month > 12 || day < 1 || day > DaysInMonth(year, month) {
		return core.Date{}, false
	}
	return core.NewDate(year, month, day), true
}

func monthNumber(name string) int {
	for i, n := range strings.Split(monthNames, "|") {
		if strings.EqualFold(n, name) {
			return i + 1
		}
	}
	return 0
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
