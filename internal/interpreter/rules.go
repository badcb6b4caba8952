package interpreter

import (
	"regexp"
	"strings"

	"saldo/internal/core"
)

// CategoryRule maps a set of keywords to a category name.
type CategoryRule struct {
	Category string
	Keywords []string
}

// CategoryTable is an ordered list of rules for one kind; the first rule with
// a matching keyword wins. Default is used when nothing matches and may be
// empty, in which case the caller is asked for a category.
type CategoryTable struct {
	Rules   []CategoryRule
	Default string
}

type recurrenceRule struct {
	frequency core.Frequency
	keywords  []string
	pattern   *regexp.Regexp
}

var (
	amountPattern     = regexp.MustCompile(`\$?(\d+(?:\.\d{1,2})?)`)
	monthlyDayPattern = regexp.MustCompile(`(\d+)(st|nd|rd|th) of (each|every) month`)

	incomeKeywords = []string{"earned", "received", "income", "salary", "deposit", "paycheck"}

	recurrenceRules = []recurrenceRule{
		{frequency: core.Daily, keywords: []string{"every day", "everyday", "daily"}},
		{frequency: core.Weekly, keywords: []string{"every week", "weekly"}},
		{frequency: core.Biweekly, keywords: []string{"every two weeks", "biweekly", "bi-weekly", "every other week"}},
		{frequency: core.Monthly, keywords: []string{"every month", "monthly"}, pattern: monthlyDayPattern},
		{frequency: core.Yearly, keywords: []string{"every year", "yearly", "annually"}},
	}
)

// DefaultCategoryTables returns the built-in keyword tables.
func DefaultCategoryTables() map[core.Kind]CategoryTable {
	return map[core.Kind]CategoryTable{
		core.Income: {
			Rules: []CategoryRule{
				{Category: "Salary", Keywords: []string{"salary", "paycheck", "wage"}},
				{Category: "Freelance", Keywords: []string{"freelance", "contract", "gig"}},
				{Category: "Investments", Keywords: []string{"dividend", "stock", "interest", "investment"}},
			},
			Default: "Other Income",
		},
		core.Expense: {
			Rules: []CategoryRule{
				{Category: "Housing", Keywords: []string{"rent", "mortgage", "housing"}},
				{Category: "Utilities", Keywords: []string{"electricity", "water", "gas", "internet", "phone", "utility", "bill"}},
				{Category: "Groceries", Keywords: []string{"grocery", "groceries", "supermarket"}},
				{Category: "Food & Drinks", Keywords: []string{"restaurant", "dinner", "lunch", "breakfast", "coffee", "food", "drink", "meal"}},
				{Category: "Transportation", Keywords: []string{"gas", "fuel", "car", "bus", "train", "taxi", "uber", "lyft", "transport"}},
				{Category: "Entertainment", Keywords: []string{"movie", "concert", "entertainment", "game", "fun"}},
				{Category: "Shopping", Keywords: []string{"clothes", "clothing", "shopping", "amazon", "store", "mall"}},
				{Category: "Health", Keywords: []string{"doctor", "medical", "health", "medicine", "pharmacy", "hospital"}},
				{Category: "Subscriptions", Keywords: []string{"netflix", "spotify", "subscription", "membership"}},
			},
			Default: "Other Expenses",
		},
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// DetermineCategory picks a category for lower-cased text. Known categories
// of the same kind are tried first, by name, in list order; the keyword table
// follows. ok is false when nothing matched and the table has no default.
func DetermineCategory(text string, kind core.Kind, known []core.Category, table CategoryTable) (string, bool) {
	for _, c := range known {
		if c.Kind != kind {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name != "" && strings.Contains(text, name) {
			return c.Name, true
		}
	}
	for _, rule := range table.Rules {
		if containsAny(text, rule.Keywords) {
			return rule.Category, true
		}
	}
	if table.Default != "" {
		return table.Default, true
	}
	return "", false
}

// detectRecurrence returns the first matching frequency. Monthly
// transactions written as "15th of each month" also carry the day.
func detectRecurrence(text string) (core.Frequency, *int, bool) {
	for _, rule := range recurrenceRules {
		matched := containsAny(text, rule.keywords)
		if !matched && rule.pattern != nil {
			matched = rule.pattern.MatchString(text)
		}
		if !matched {
			continue
		}
		if rule.frequency != core.Monthly {
			return rule.frequency, nil, true
		}
		return rule.frequency, recurringDay(text), true
	}
	return "", nil, false
}

func recurringDay(text string) *int {
	m := monthlyDayPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	day := atoi(m[1])
	if day < 1 || day > 31 {
		return nil
	}
	return &day
}
