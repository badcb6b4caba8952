package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	Daily    Frequency = "daily"
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
	Yearly   Frequency = "yearly"
)

const dateLayout = "2006-01-02"

type (
	Kind      string
	Frequency string

	Date struct {
		time.Time
	}

	Transaction struct {
		ID           string          `json:"id"`
		Kind         Kind            `json:"kind"`
		Amount       decimal.Decimal `json:"amount"`
		Category     string          `json:"category"`
		Description  string          `json:"description"`
		Date         Date            `json:"date"`
		IsRecurring  bool            `json:"is_recurring"`
		Frequency    Frequency       `json:"frequency,omitempty"`
		RecurringDay *int            `json:"recurring_day,omitempty"`
	}

	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Kind  Kind   `json:"kind"`
		Color string `json:"color"`
	}
)

var (
	ErrInvalidDay          = errors.New("invalid day")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidKind         = errors.New("invalid transaction kind")
	ErrInvalidFrequency    = errors.New("invalid recurrence frequency")
	ErrInvalidRecurringDay = errors.New("invalid recurring day")
	ErrEmptyCategory       = errors.New("empty category")
	ErrEmptyName           = errors.New("empty category name")
)

// Frequencies lists the recurrence frequencies in classification order.
var Frequencies = []Frequency{Daily, Weekly, Biweekly, Monthly, Yearly}

func (k Kind) IsValid() bool {
	return k == Income || k == Expense
}

func (f Frequency) IsValid() bool {
	for _, known := range Frequencies {
		if f == known {
			return true
		}
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks the recurrence invariant along with the basic field rules.
func (t Transaction) Validate() error {
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}

	if !t.IsRecurring {
		if t.Frequency != "" {
			return fmt.Errorf("%w: non-recurring transaction has frequency %q", ErrInvalidFrequency, t.Frequency)
		}
		if t.RecurringDay != nil {
			return fmt.Errorf("%w: non-recurring transaction has a recurring day", ErrInvalidRecurringDay)
		}
		return nil
	}

	if !t.Frequency.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, t.Frequency)
	}
	if t.RecurringDay != nil {
		if t.Frequency != Monthly {
			return fmt.Errorf("%w: only monthly transactions carry a day", ErrInvalidRecurringDay)
		}
		if *t.RecurringDay < 1 || *t.RecurringDay > 31 {
			return fmt.Errorf("%w: %d", ErrInvalidRecurringDay, *t.RecurringDay)
		}
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	if !c.Kind.IsValid() {
		return ErrInvalidKind
	}
	return nil
}
