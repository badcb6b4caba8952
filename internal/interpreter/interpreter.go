// Package interpreter turns free-form descriptions such as
// "Spent $50 on groceries today" into transaction drafts.
//
// The matcher is deterministic and rule based. When a required field cannot
// be inferred the Response carries a follow-up question instead of a draft;
// Resume merges the user's answer back in.
package interpreter

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"saldo/internal/core"
	"saldo/internal/dates"
)

const (
	MsgMissingAmount  = "I couldn't detect an amount. How much was the transaction?"
	MsgParseFailure   = "Sorry, I had trouble understanding that. Please try again with a clearer description."
	MsgUnsupported    = "Unable to process follow-up response"
	categoryQuestionF = "What category would you like to assign to this %s?"
)

var ErrUnsupportedFollowUp = errors.New("unable to process follow-up response")

// Response is the outcome of interpreting one piece of text. Exactly one of
// Transaction, NeedsMoreInfo or Error is set.
type Response struct {
	Transaction      *core.Transaction `json:"transaction,omitempty"`
	NeedsMoreInfo    bool              `json:"needs_more_info,omitempty"`
	FollowUpQuestion string            `json:"follow_up_question,omitempty"`
	Draft            *core.Transaction `json:"draft,omitempty"`
	Error            string            `json:"error,omitempty"`
}

// Complete reports whether the response holds a finished transaction.
func (r Response) Complete() bool {
	return r.Transaction != nil
}

// Interpreter holds the clock and classification tables. The zero value is
// not usable; call New.
type Interpreter struct {
	now    func() time.Time
	newID  func() string
	tables map[core.Kind]CategoryTable
	logger *slog.Logger
}

type Option func(*Interpreter)

// WithClock sets the source of "today" for relative dates.
func WithClock(now func() time.Time) Option {
	return func(in *Interpreter) { in.now = now }
}

// WithIDGenerator replaces uuid generation, mostly for tests.
func WithIDGenerator(newID func() string) Option {
	return func(in *Interpreter) { in.newID = newID }
}

// WithCategoryTable overrides the keyword table for one kind.
func WithCategoryTable(kind core.Kind, table CategoryTable) Option {
	return func(in *Interpreter) { in.tables[kind] = table }
}

func WithLogger(logger *slog.Logger) Option {
	return func(in *Interpreter) { in.logger = logger }
}

func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		now:    time.Now,
		newID:  uuid.NewString,
		tables: DefaultCategoryTables(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Interpret parses raw text against the known categories. It never touches
// storage; a panic anywhere in the pipeline becomes a generic Error response.
func (in *Interpreter) Interpret(raw string, known []core.Category) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			in.logger.Error("Failed to interpret transaction text", "error", fmt.Sprint(r), "text", raw)
			resp = Response{Error: MsgParseFailure}
		}
	}()

	text := strings.ToLower(raw)

	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return Response{NeedsMoreInfo: true, FollowUpQuestion: MsgMissingAmount}
	}
	amount := decimal.RequireFromString(m[1])

	kind := core.Expense
	if containsAny(text, incomeKeywords) {
		kind = core.Income
	}

	tx := core.Transaction{
		Kind:        kind,
		Amount:      amount,
		Description: raw,
		Date:        dates.Extract(raw, core.DateOf(in.now())),
	}
	if freq, day, ok := detectRecurrence(text); ok {
		tx.IsRecurring = true
		tx.Frequency = freq
		tx.RecurringDay = day
	}

	category, ok := DetermineCategory(text, kind, known, in.tables[kind])
	if !ok {
		return Response{
			NeedsMoreInfo:    true,
			FollowUpQuestion: fmt.Sprintf(categoryQuestionF, kind),
			Draft:            &tx,
		}
	}
	tx.Category = category
	tx.ID = in.newID()

	return Response{Transaction: &tx}
}

// Resume answers a pending follow-up question. Only category questions can
// be answered; an empty answer asks the same question again. The completed
// transaction always gets a fresh id.
func (in *Interpreter) Resume(pending Response, answer string) Response {
	if !pending.NeedsMoreInfo || pending.Draft == nil ||
		!strings.Contains(strings.ToLower(pending.FollowUpQuestion), "category") {
		return Response{Error: MsgUnsupported}
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return pending
	}

	tx := *pending.Draft
	tx.Category = answer
	tx.ID = in.newID()
	return Response{Transaction: &tx}
}

// Err converts an Error response into ErrUnsupportedFollowUp when it came from
// Resume, and into a plain error otherwise. It returns nil for other outcomes.
func (r Response) Err() error {
	switch r.Error {
	case "":
		return nil
	case MsgUnsupported:
		return ErrUnsupportedFollowUp
	default:
		return errors.New(r.Error)
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
