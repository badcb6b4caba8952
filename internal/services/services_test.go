package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/aggregate"
	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/interpreter"
	"saldo/internal/storage"
	"saldo/internal/storage/memory"
)

var today = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, typ amqp.EventType, tx core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, fmt.Sprintf("%s:%s", typ, tx.ID))
	return p.err
}

type fixture struct {
	store      *memory.Store
	categories *CategoryService
	txs        *TransactionService
	summary    *SummaryService
	publisher  *recordingPublisher
}

func newFixture(t *testing.T, opts ...interpreter.Option) fixture {
	t.Helper()
	store := memory.New()
	if err := store.EnsureDefaultsSeeded(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	n := 0
	opts = append([]interpreter.Option{
		interpreter.WithClock(func() time.Time { return today }),
		interpreter.WithIDGenerator(func() string { n++; return fmt.Sprintf("tx-%d", n) }),
	}, opts...)

	pub := &recordingPublisher{}
	cats := NewCategoryService(store, store, time.Minute, nil)
	txs := NewTransactionService(store, cats, interpreter.New(opts...), pub, aggregate.New(), nil)
	txs.now = func() time.Time { return today }
	id := 0
	txs.newID = func() string { id++; return fmt.Sprintf("manual-%d", id) }

	return fixture{
		store:      store,
		categories: cats,
		txs:        txs,
		summary:    NewSummaryService(store, cats, aggregate.New(), nil),
		publisher:  pub,
	}
}

func expense(category string, amount int64, date core.Date) core.Transaction {
	return core.Transaction{Kind: core.Expense, Amount: decimal.NewFromInt(amount), Category: category, Date: date}
}

func TestSubmitText_SavesCompleteDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.txs.SubmitText(ctx, "Spent $50 on groceries today")
	if err != nil {
		t.Fatalf("SubmitText() error = %v", err)
	}
	if !resp.Complete() || resp.Transaction.Category != "Groceries" {
		t.Fatalf("SubmitText() = %+v", resp)
	}

	stored, _ := f.store.ListTransactions(ctx)
	if len(stored) != 1 || stored[0].ID != "tx-1" {
		t.Fatalf("stored = %+v", stored)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0] != "created:tx-1" {
		t.Errorf("events = %v", f.publisher.events)
	}
}

func TestSubmitText_DoesNotSaveIncompleteResponses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.txs.SubmitText(ctx, "bought something nice")
	if err != nil {
		t.Fatalf("SubmitText() error = %v", err)
	}
	if !resp.NeedsMoreInfo || resp.FollowUpQuestion != interpreter.MsgMissingAmount {
		t.Errorf("SubmitText() = %+v", resp)
	}
	stored, _ := f.store.ListTransactions(ctx)
	if len(stored) != 0 || len(f.publisher.events) != 0 {
		t.Errorf("nothing should be saved, got %d rows and %v", len(stored), f.publisher.events)
	}

	if _, err := f.txs.SubmitText(ctx, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty text error = %v, want ErrInvalidInput", err)
	}
}

func TestResumeText(t *testing.T) {
	f := newFixture(t, interpreter.WithCategoryTable(core.Expense, interpreter.CategoryTable{}))
	ctx := context.Background()

	pending, err := f.txs.SubmitText(ctx, "bought a kite for $30")
	if err != nil {
		t.Fatalf("SubmitText() error = %v", err)
	}
	if !pending.NeedsMoreInfo || pending.Draft == nil {
		t.Fatalf("expected a category question, got %+v", pending)
	}

	again, err := f.txs.ResumeText(ctx, pending, "  ")
	if err != nil || !again.NeedsMoreInfo {
		t.Fatalf("empty answer should repeat the question, got %+v, %v", again, err)
	}

	done, err := f.txs.ResumeText(ctx, pending, "Hobbies")
	if err != nil {
		t.Fatalf("ResumeText() error = %v", err)
	}
	if !done.Complete() || done.Transaction.Category != "Hobbies" || !done.Transaction.Amount.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("ResumeText() = %+v", done)
	}
	stored, _ := f.store.ListTransactions(ctx)
	if len(stored) != 1 {
		t.Errorf("stored %d transactions, want 1", len(stored))
	}

	_, err = f.txs.ResumeText(ctx, interpreter.Response{NeedsMoreInfo: true, FollowUpQuestion: interpreter.MsgMissingAmount}, "12")
	if !errors.Is(err, interpreter.ErrUnsupportedFollowUp) {
		t.Errorf("amount follow-up error = %v, want ErrUnsupportedFollowUp", err)
	}
}

func TestResumeTextRejectsInvalidDraft(t *testing.T) {
	day := 40
	tests := []struct {
		name  string
		draft core.Transaction
	}{
		{"bad kind", core.Transaction{Kind: "bogus", Amount: decimal.NewFromInt(5), Date: core.NewDate(2024, 3, 1)}},
		{"negative amount", core.Transaction{Kind: core.Expense, Amount: decimal.NewFromInt(-500), Date: core.NewDate(2024, 3, 1)}},
		{"frequency without recurrence", core.Transaction{Kind: core.Expense, Amount: decimal.NewFromInt(5), Date: core.NewDate(2024, 3, 1), Frequency: "hourly"}},
		{"unknown frequency", core.Transaction{Kind: core.Expense, Amount: decimal.NewFromInt(5), Date: core.NewDate(2024, 3, 1), IsRecurring: true, Frequency: "hourly"}},
		{"recurring day out of range", core.Transaction{Kind: core.Expense, Amount: decimal.NewFromInt(5), Date: core.NewDate(2024, 3, 1), IsRecurring: true, Frequency: core.Monthly, RecurringDay: &day}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			draft := tt.draft
			pending := interpreter.Response{
				NeedsMoreInfo:    true,
				FollowUpQuestion: "What category would you like to assign to this expense?",
				Draft:            &draft,
			}

			_, err := f.txs.ResumeText(ctx, pending, "Misc")
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("ResumeText() error = %v, want ErrInvalidInput", err)
			}
			stored, _ := f.store.ListTransactions(ctx)
			if len(stored) != 0 || len(f.publisher.events) != 0 {
				t.Errorf("nothing should be saved, got %d rows and %v", len(stored), f.publisher.events)
			}
		})
	}
}

func TestResumeTextIgnoresDraftID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.txs.SubmitText(ctx, "paid $12 for lunch")
	if err != nil || !first.Complete() {
		t.Fatalf("SubmitText() = %+v, %v", first, err)
	}

	draft := *first.Transaction
	draft.Category = ""
	pending := interpreter.Response{
		NeedsMoreInfo:    true,
		FollowUpQuestion: "What category would you like to assign to this expense?",
		Draft:            &draft,
	}
	done, err := f.txs.ResumeText(ctx, pending, "Food & Drinks")
	if err != nil {
		t.Fatalf("ResumeText() error = %v", err)
	}
	if done.Transaction.ID == first.Transaction.ID {
		t.Errorf("ResumeText() reused id %q", done.Transaction.ID)
	}
	if stored, _ := f.store.ListTransactions(ctx); len(stored) != 2 {
		t.Errorf("stored %d transactions, want 2", len(stored))
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	if _, err := f.txs.SubmitText(context.Background(), "paid $12 for lunch"); err != nil {
		t.Fatalf("SubmitText() error = %v", err)
	}
	stored, _ := f.store.ListTransactions(context.Background())
	if len(stored) != 1 {
		t.Errorf("stored %d transactions, want 1", len(stored))
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.txs.Create(ctx, core.Transaction{Kind: core.Expense, Amount: decimal.NewFromInt(-1), Category: "Health"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative amount error = %v, want ErrInvalidInput", err)
	}

	created, err := f.txs.Create(ctx, core.Transaction{Kind: core.Expense, Amount: decimal.NewFromInt(20), Category: "Health"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID != "manual-1" || !created.Date.Equal(core.NewDate(2024, 3, 15).Time) {
		t.Errorf("Create() = %+v", created)
	}

	created.Amount = decimal.NewFromInt(25)
	if _, err := f.txs.Update(ctx, created); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, err := f.txs.Get(ctx, created.ID)
	if err != nil || !got.Amount.Equal(decimal.NewFromInt(25)) {
		t.Errorf("Get() = %+v, %v", got, err)
	}

	missing := created
	missing.ID = "nope"
	if _, err := f.txs.Update(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Update(unknown) error = %v, want ErrNotFound", err)
	}

	if err := f.txs.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := f.txs.Delete(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	if _, err := f.txs.Get(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get(deleted) error = %v, want ErrNotFound", err)
	}

	want := []string{"created:manual-1", "updated:manual-1", "deleted:manual-1"}
	if fmt.Sprint(f.publisher.events) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", f.publisher.events, want)
	}
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, tx := range []core.Transaction{
		expense("Groceries", 30, core.NewDate(2024, 3, 1)),
		expense("Housing", 900, core.NewDate(2024, 3, 5)),
		expense("Health", 10, core.NewDate(2024, 2, 20)),
		{Kind: core.Income, Amount: decimal.NewFromInt(3000), Category: "Salary", Date: core.NewDate(2024, 3, 1)},
	} {
		if _, err := f.txs.Create(ctx, tx); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{name: "default newest first", filter: ListFilter{}, want: []string{"Housing", "Groceries", "Salary", "Health"}},
		{name: "march by amount", filter: ListFilter{Month: 3, Year: 2024, Field: core.SortByAmount, Order: core.Ascending}, want: []string{"Groceries", "Housing", "Salary"}},
		{name: "expenses by category", filter: ListFilter{Kind: core.Expense, Field: core.SortByCategory, Order: core.Ascending}, want: []string{"Groceries", "Health", "Housing"}},
		{name: "empty month", filter: ListFilter{Month: 1, Year: 2024}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.txs.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			names := make([]string, len(got))
			for i, tx := range got {
				names[i] = tx.Category
			}
			if fmt.Sprint(names) != fmt.Sprint(tt.want) {
				t.Errorf("List() = %v, want %v", names, tt.want)
			}
		})
	}

	if _, err := f.txs.List(ctx, ListFilter{Month: 13}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("List(month 13) error = %v, want ErrInvalidInput", err)
	}
}

func TestCategoryService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.categories.Create(ctx, core.Category{Name: " Pets ", Kind: core.Expense, Color: "#123456"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" || created.Name != "Pets" {
		t.Errorf("Create() = %+v", created)
	}

	cats, _ := f.categories.List(ctx)
	if len(cats) != 15 || cats[14].Name != "Pets" {
		t.Errorf("List() after create has %d categories", len(cats))
	}

	if _, err := f.categories.Create(ctx, core.Category{Name: "pets", Kind: core.Expense}); !errors.Is(err, ErrDuplicateCategory) {
		t.Errorf("duplicate error = %v, want ErrDuplicateCategory", err)
	}
	if _, err := f.categories.Create(ctx, core.Category{Name: "Pets", Kind: core.Income}); err != nil {
		t.Errorf("same name for another kind should be allowed: %v", err)
	}
	if _, err := f.categories.Create(ctx, core.Category{Name: "", Kind: core.Expense}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty name error = %v, want ErrInvalidInput", err)
	}

	income, _ := f.categories.ListByKind(ctx, core.Income)
	if len(income) != 5 {
		t.Errorf("ListByKind(income) = %d categories, want 5", len(income))
	}

	created.Name = "Animals"
	if _, err := f.categories.Update(ctx, created); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if _, err := f.categories.Update(ctx, core.Category{ID: "5", Name: "Animals", Kind: core.Expense}); !errors.Is(err, ErrDuplicateCategory) {
		t.Errorf("rename onto existing error = %v, want ErrDuplicateCategory", err)
	}

	if _, err := f.txs.Create(ctx, expense("Animals", 15, core.NewDate(2024, 3, 2))); err != nil {
		t.Fatal(err)
	}
	if err := f.categories.Delete(ctx, created.ID); !errors.Is(err, ErrCategoryInUse) {
		t.Errorf("Delete(in use) error = %v, want ErrCategoryInUse", err)
	}
	if err := f.categories.Delete(ctx, "13"); err != nil {
		t.Errorf("Delete(unused) error = %v", err)
	}
	if err := f.categories.Delete(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCategoryService_CacheInvalidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.categories.List(ctx); err != nil {
		t.Fatal(err)
	}
	// A write behind the service's back stays invisible until the cache is
	// invalidated by a write through the service.
	_ = f.store.AppendCategory(ctx, core.Category{ID: "x", Name: "Direct", Kind: core.Expense})
	cats, _ := f.categories.List(ctx)
	if len(cats) != 14 {
		t.Fatalf("cached List() = %d, want 14", len(cats))
	}

	if _, err := f.categories.Create(ctx, core.Category{Name: "Travel", Kind: core.Expense}); err != nil {
		t.Fatal(err)
	}
	cats, _ = f.categories.List(ctx)
	if len(cats) != 16 {
		t.Errorf("List() after invalidation = %d, want 16", len(cats))
	}
}

func TestCategoryService_ListByKindCachesPerKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expenses, err := f.categories.ListByKind(ctx, core.Expense)
	if err != nil || len(expenses) != 10 {
		t.Fatalf("ListByKind(expense) = %d, %v", len(expenses), err)
	}
	if _, err := f.categories.ListByKind(ctx, core.Income); err != nil {
		t.Fatal(err)
	}
	if n := f.categories.Cache().Size(); n != 3 {
		t.Errorf("cache holds %d entries, want full list and two kinds", n)
	}

	// the returned slice is a copy
	expenses[0].Name = "Mutated"
	again, _ := f.categories.ListByKind(ctx, core.Expense)
	if again[0].Name == "Mutated" {
		t.Error("ListByKind() returned the cached slice")
	}

	_ = f.store.AppendCategory(ctx, core.Category{ID: "x", Name: "Direct", Kind: core.Expense})
	if cats, _ := f.categories.ListByKind(ctx, core.Expense); len(cats) != 10 {
		t.Errorf("cached ListByKind() = %d, want 10", len(cats))
	}

	if _, err := f.categories.Create(ctx, core.Category{Name: "Travel", Kind: core.Expense}); err != nil {
		t.Fatal(err)
	}
	if cats, _ := f.categories.ListByKind(ctx, core.Expense); len(cats) != 12 {
		t.Errorf("ListByKind() after a write = %d, want 12", len(cats))
	}
	if cats, _ := f.categories.ListByKind(ctx, core.Income); len(cats) != 4 {
		t.Errorf("ListByKind(income) = %d, want 4", len(cats))
	}
}

func TestSummaryService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	weekly := expense("Groceries", 20, core.NewDate(2024, 4, 3))
	weekly.IsRecurring = true
	weekly.Frequency = core.Weekly
	for _, tx := range []core.Transaction{
		weekly,
		expense("Housing", 1000, core.NewDate(2024, 4, 1)),
		{Kind: core.Income, Amount: decimal.NewFromInt(3000), Category: "Salary", Date: core.NewDate(2024, 4, 1)},
		expense("Health", 50, core.NewDate(2024, 3, 10)),
	} {
		if _, err := f.txs.Create(ctx, tx); err != nil {
			t.Fatal(err)
		}
	}

	totals, err := f.summary.Totals(ctx, 4, 2024)
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	if !totals.Expense.Equal(decimal.NewFromInt(1080)) || !totals.Income.Equal(decimal.NewFromInt(3000)) ||
		!totals.Balance.Equal(decimal.NewFromInt(1920)) {
		t.Errorf("Totals() = %+v", totals)
	}
	if !totals.Categories["Groceries"].Equal(decimal.NewFromInt(80)) || !totals.Categories["Shopping"].IsZero() {
		t.Errorf("Totals().Categories = %v", totals.Categories)
	}

	top, err := f.summary.Top(ctx, 4, 2024, 1)
	if err != nil || len(top) != 1 || top[0].Category != "Housing" {
		t.Errorf("Top() = %+v, %v", top, err)
	}

	trend, err := f.summary.Trend(ctx, 4, 2024, 2)
	if err != nil || len(trend) != 2 || trend[0].Label != "Mar 2024" || !trend[0].Expense.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Trend() = %+v, %v", trend, err)
	}
	if _, err := f.summary.Trend(ctx, 4, 2024, aggregate.MaxTrendWindow+1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Trend(oversized window) error = %v, want ErrInvalidInput", err)
	}
	if trend, err := f.summary.Trend(ctx, 4, 2024, aggregate.MaxTrendWindow); err != nil || len(trend) != aggregate.MaxTrendWindow {
		t.Errorf("Trend(max window) = %d points, %v", len(trend), err)
	}

	d, err := f.summary.Dashboard(ctx, 4, 2024)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if !d.Totals.Balance.Equal(totals.Balance) || len(d.Trend) != aggregate.DefaultTrendWindow || len(d.TopCategories) != 2 {
		t.Errorf("Dashboard() = %+v", d)
	}
	if len(d.Upcoming) != 1 || !d.Upcoming[0].Next.Equal(core.NewDate(2024, 4, 3).Time) {
		t.Errorf("Dashboard().Upcoming = %+v", d.Upcoming)
	}

	if _, err := f.summary.Totals(ctx, 0, 2024); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Totals(month 0) error = %v, want ErrInvalidInput", err)
	}
}

func TestRecurringService_Upcoming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rent := expense("Housing", 1000, core.NewDate(2024, 1, 1))
	rent.IsRecurring, rent.Frequency = true, core.Monthly
	gym := expense("Health", 40, core.NewDate(2024, 3, 20))
	gym.IsRecurring, gym.Frequency = true, core.Yearly
	for _, tx := range []core.Transaction{rent, gym, expense("Groceries", 5, core.NewDate(2024, 3, 16))} {
		if _, err := f.txs.Create(ctx, tx); err != nil {
			t.Fatal(err)
		}
	}

	got, err := NewRecurringService(f.store).Upcoming(ctx, core.NewDate(2024, 3, 15), 30)
	if err != nil {
		t.Fatalf("Upcoming() error = %v", err)
	}
	if len(got) != 2 || got[0].Transaction.Category != "Health" || got[1].Transaction.Category != "Housing" ||
		!got[1].Next.Equal(core.NewDate(2024, 4, 1).Time) {
		t.Errorf("Upcoming() = %+v", got)
	}

	soon, _ := NewRecurringService(f.store).Upcoming(ctx, core.NewDate(2024, 3, 15), 3)
	if len(soon) != 0 {
		t.Errorf("Upcoming(3 days) = %+v, want none", soon)
	}
}
