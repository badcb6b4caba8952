package interpreter

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/core"
)

func fixedInterpreter(opts ...Option) *Interpreter {
	clock := func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	base := []Option{
		WithClock(clock),
		WithIDGenerator(func() string { return "tx-1" }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return New(append(base, opts...)...)
}

func TestInterpret(t *testing.T) {
	in := fixedInterpreter()
	known := core.DefaultCategories()
	today := core.NewDate(2024, 3, 15)

	tests := []struct {
		name      string
		text      string
		wantKind  core.Kind
		wantAmt   string
		wantCat   string
		wantDate  core.Date
		wantFreq  core.Frequency
		wantDay   int
		recurring bool
	}{
		{
			name: "groceries today", text: "Spent $50 on groceries today",
			wantKind: core.Expense, wantAmt: "50", wantCat: "Groceries", wantDate: today,
		},
		{
			name: "thousands separator stops at comma", text: "Received $2,500 salary on the 1st",
			wantKind: core.Income, wantAmt: "2", wantCat: "Salary", wantDate: today,
		},
		{
			name: "netflix monthly", text: "Netflix subscription $15 monthly",
			wantKind: core.Expense, wantAmt: "15", wantCat: "Subscriptions", wantDate: today,
			recurring: true, wantFreq: core.Monthly,
		},
		{
			name: "utilities beat transportation for gas", text: "Paid $80 for gas and electricity",
			wantKind: core.Expense, wantAmt: "80", wantCat: "Utilities", wantDate: today,
		},
		{
			name: "cents and yesterday", text: "coffee 4.75 yesterday",
			wantKind: core.Expense, wantAmt: "4.75", wantCat: "Food & Drinks", wantDate: core.NewDate(2024, 3, 14),
		},
		{
			name: "ordinal monthly carries the day", text: "$1200 mortgage on the 1st of every month",
			wantKind: core.Expense, wantAmt: "1200", wantCat: "Housing", wantDate: today,
			recurring: true, wantFreq: core.Monthly, wantDay: 1,
		},
		{
			name: "biweekly income", text: "Income $1000 every two weeks",
			wantKind: core.Income, wantAmt: "1000", wantCat: "Other Income", wantDate: today,
			recurring: true, wantFreq: core.Biweekly,
		},
		{
			name: "weekly keyword shadows biweekly", text: "gym membership $30 biweekly",
			wantKind: core.Expense, wantAmt: "30", wantCat: "Subscriptions", wantDate: today,
			recurring: true, wantFreq: core.Weekly,
		},
		{
			name: "yearly with explicit date", text: "$99 amazon prime annually on 01/10/2024",
			wantKind: core.Expense, wantAmt: "99", wantCat: "Shopping", wantDate: core.NewDate(2024, 1, 10),
			recurring: true, wantFreq: core.Yearly,
		},
		{
			name: "fallback category", text: "$12 lamp",
			wantKind: core.Expense, wantAmt: "12", wantCat: "Other Expenses", wantDate: today,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := in.Interpret(tt.text, known)
			if !resp.Complete() {
				t.Fatalf("Interpret(%q) = %+v, want complete transaction", tt.text, resp)
			}
			tx := resp.Transaction
			if tx.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", tx.Kind, tt.wantKind)
			}
			if !tx.Amount.Equal(decimal.RequireFromString(tt.wantAmt)) {
				t.Errorf("Amount = %s, want %s", tx.Amount, tt.wantAmt)
			}
			if tx.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", tx.Category, tt.wantCat)
			}
			if !tx.Date.Equal(tt.wantDate.Time) {
				t.Errorf("Date = %s, want %s", tx.Date, tt.wantDate)
			}
			if tx.IsRecurring != tt.recurring || tx.Frequency != tt.wantFreq {
				t.Errorf("recurrence = %v/%q, want %v/%q", tx.IsRecurring, tx.Frequency, tt.recurring, tt.wantFreq)
			}
			if tt.wantDay == 0 && tx.RecurringDay != nil {
				t.Errorf("RecurringDay = %d, want nil", *tx.RecurringDay)
			}
			if tt.wantDay != 0 && (tx.RecurringDay == nil || *tx.RecurringDay != tt.wantDay) {
				t.Errorf("RecurringDay = %v, want %d", tx.RecurringDay, tt.wantDay)
			}
			if tx.Description != tt.text {
				t.Errorf("Description = %q, want raw text", tx.Description)
			}
			if tx.ID != "tx-1" {
				t.Errorf("ID = %q, want tx-1", tx.ID)
			}
			if err := tx.Validate(); err != nil {
				t.Errorf("draft does not validate: %v", err)
			}
		})
	}
}

func TestInterpretMissingAmount(t *testing.T) {
	resp := fixedInterpreter().Interpret("Bought lunch", core.DefaultCategories())
	if !resp.NeedsMoreInfo {
		t.Fatalf("NeedsMoreInfo = false, want true")
	}
	if resp.FollowUpQuestion != MsgMissingAmount {
		t.Errorf("FollowUpQuestion = %q", resp.FollowUpQuestion)
	}
	if resp.Transaction != nil || resp.Draft != nil {
		t.Errorf("expected no transaction and no draft, got %+v", resp)
	}
}

func TestInterpretKnownCategoryFirst(t *testing.T) {
	known := []core.Category{
		{ID: "x", Name: "Pets", Kind: core.Expense},
		{ID: "y", Name: "Pets", Kind: core.Income},
	}
	resp := fixedInterpreter().Interpret("$40 vet food for pets", known)
	if !resp.Complete() || resp.Transaction.Category != "Pets" {
		t.Fatalf("Interpret() = %+v, want Pets", resp)
	}
}

func TestInterpretAsksForCategory(t *testing.T) {
	in := fixedInterpreter(WithCategoryTable(core.Expense, CategoryTable{
		Rules: []CategoryRule{{Category: "Pets", Keywords: []string{"vet"}}},
	}))

	resp := in.Interpret("$12 lamp", nil)
	if !resp.NeedsMoreInfo {
		t.Fatalf("Interpret() = %+v, want follow-up", resp)
	}
	want := "What category would you like to assign to this expense?"
	if resp.FollowUpQuestion != want {
		t.Errorf("FollowUpQuestion = %q, want %q", resp.FollowUpQuestion, want)
	}
	if resp.Draft == nil || !resp.Draft.Amount.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("Draft = %+v, want partial draft with amount", resp.Draft)
	}

	again := in.Resume(resp, "   ")
	if !again.NeedsMoreInfo || again.FollowUpQuestion != want {
		t.Errorf("Resume(empty) = %+v, want same question", again)
	}

	done := in.Resume(resp, " Home ")
	if !done.Complete() {
		t.Fatalf("Resume() = %+v, want complete", done)
	}
	if done.Transaction.Category != "Home" || done.Transaction.ID != "tx-1" {
		t.Errorf("Resume() transaction = %+v", done.Transaction)
	}
	if resp.Draft.Category != "" {
		t.Errorf("Resume() mutated the pending draft")
	}
}

func TestResumeAssignsFreshID(t *testing.T) {
	in := fixedInterpreter()
	pending := Response{
		NeedsMoreInfo:    true,
		FollowUpQuestion: "What category would you like to assign to this expense?",
		Draft:            &core.Transaction{ID: "existing", Kind: core.Expense, Amount: decimal.NewFromInt(3)},
	}

	done := in.Resume(pending, "Pets")
	if !done.Complete() || done.Transaction.ID != "tx-1" {
		t.Errorf("Resume() = %+v, want id tx-1", done.Transaction)
	}
}

func TestResumeUnsupported(t *testing.T) {
	in := fixedInterpreter()
	pending := in.Interpret("bought lunch", nil)

	resp := in.Resume(pending, "12")
	if resp.Error != MsgUnsupported {
		t.Fatalf("Resume() = %+v, want unsupported error", resp)
	}
	if !errors.Is(resp.Err(), ErrUnsupportedFollowUp) {
		t.Errorf("Err() = %v, want ErrUnsupportedFollowUp", resp.Err())
	}

	if got := in.Resume(Response{}, "x"); got.Error != MsgUnsupported {
		t.Errorf("Resume(no pending) = %+v", got)
	}
}

func TestInterpretRecoversPanics(t *testing.T) {
	in := fixedInterpreter(WithIDGenerator(func() string { panic("boom") }))
	resp := in.Interpret("$5 coffee", nil)
	if resp.Error != MsgParseFailure {
		t.Fatalf("Interpret() = %+v, want parse failure", resp)
	}
	if resp.Transaction != nil || resp.NeedsMoreInfo {
		t.Errorf("error response carries other outcomes: %+v", resp)
	}
}

func TestInterpretIsPure(t *testing.T) {
	in := fixedInterpreter()
	known := core.DefaultCategories()
	a := in.Interpret("Spent $50 on groceries today", known)
	b := in.Interpret("Spent $50 on groceries today", known)
	x, y := a.Transaction, b.Transaction
	if x.ID != y.ID || !x.Amount.Equal(y.Amount) || x.Category != y.Category ||
		x.Kind != y.Kind || !x.Date.Equal(y.Date.Time) || x.Description != y.Description {
		t.Errorf("repeated Interpret differs: %+v vs %+v", x, y)
	}
}

func TestDetermineCategoryOrder(t *testing.T) {
	table := DefaultCategoryTables()[core.Expense]
	tests := []struct {
		text string
		want string
	}{
		{"fuel for the trip", "Transportation"},
		{"gas", "Utilities"},
		{"doctor visit", "Health"},
		{"concert tickets", "Entertainment"},
		{strings.ToLower("New CLOTHES"), "Shopping"},
		{"nothing known", "Other Expenses"},
	}
	for _, tt := range tests {
		got, ok := DetermineCategory(tt.text, core.Expense, nil, table)
		if !ok || got != tt.want {
			t.Errorf("DetermineCategory(%q) = %q, %v, want %q", tt.text, got, ok, tt.want)
		}
	}
}
