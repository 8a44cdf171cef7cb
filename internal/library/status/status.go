package status

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"library-backend/internal/library/apperr"
	"library-backend/internal/library/fees"
	"library-backend/internal/library/lends"
)

// LoanSource is the read side the reporter needs. lends.LoanStore satisfies it.
type LoanSource interface {
	LoansByPatron(ctx context.Context, patronID string) ([]lends.LoanRow, error)
}

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type BorrowedBook struct {
	BookID      uint64          `json:"book_id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	ISBN        string          `json:"isbn"`
	LoanULID    string          `json:"loan_ulid"`
	BorrowedAt  time.Time       `json:"borrowed_at"`
	DueAt       time.Time       `json:"due_at"`
	DaysOverdue int             `json:"days_overdue"`
	Fee         decimal.Decimal `json:"fee"`
	Overdue     bool            `json:"overdue"`
}

type HistoryEntry struct {
	BookID     uint64           `json:"book_id"`
	Title      string           `json:"title"`
	Author     string           `json:"author"`
	ISBN       string           `json:"isbn"`
	LoanULID   string           `json:"loan_ulid"`
	BorrowedAt time.Time        `json:"borrowed_at"`
	DueAt      time.Time        `json:"due_at"`
	ReturnedAt *time.Time       `json:"returned_at,omitempty"`
	Fee        decimal.Decimal  `json:"fee"`
	Status     lends.LoanStatus `json:"status"`
}

// FeeSummary splits fees into what is still accruing on open loans and what was fixed at return.
type FeeSummary struct {
	Outstanding decimal.Decimal `json:"outstanding"`
	Assessed    decimal.Decimal `json:"assessed"`
	Total       decimal.Decimal `json:"total"`
}

type Report struct {
	PatronID      string         `json:"patron_id"`
	BorrowedBooks []BorrowedBook `json:"borrowed_books"`
	BorrowedCount int            `json:"borrowed_count"`
	FeeSummary    FeeSummary     `json:"fee_summary"`
	History       []HistoryEntry `json:"history"`
}

type Reporter struct {
	loans  LoanSource
	policy fees.Policy
	clock  Clock
}

type Option func(*Reporter)

func WithClock(c Clock) Option { return func(r *Reporter) { r.clock = c } }

func NewReporter(loans LoanSource, policy fees.Policy, opts ...Option) *Reporter {
	r := &Reporter{loans: loans, policy: policy, clock: realClock{}}
	for _, o := range opts {
		o(r)
	}
	return r
}

// StatusFor builds the report from one read of the patron's loans, so every figure in it
// describes the same moment.
func (r *Reporter) StatusFor(ctx context.Context, patronID string) (Report, error) {
	if !lends.ValidPatronID(patronID) {
		return Report{}, apperr.ErrInvalid(lends.MsgInvalidPatron)
	}

	rows, err := r.loans.LoansByPatron(ctx, patronID)
	if err != nil {
		return Report{}, err
	}

	now := r.clock.Now()
	rep := Report{
		PatronID:      patronID,
		BorrowedBooks: make([]BorrowedBook, 0),
		History:       make([]HistoryEntry, 0),
		FeeSummary: FeeSummary{
			Outstanding: decimal.Zero,
			Assessed:    decimal.Zero,
			Total:       decimal.Zero,
		},
	}

	// rows は新しい順
	for _, row := range rows {
		ref := now
		if row.ReturnedAt != nil {
			ref = *row.ReturnedAt
		}
		fee := r.policy.Assess(row.DueAt, ref)

		if row.IsOpen() {
			rep.BorrowedBooks = append(rep.BorrowedBooks, BorrowedBook{
				BookID:      row.BookID,
				Title:       row.Title,
				Author:      row.Author,
				ISBN:        row.ISBN,
				LoanULID:    row.ULID,
				BorrowedAt:  row.BorrowedAt,
				DueAt:       row.DueAt,
				DaysOverdue: fee.DaysOverdue,
				Fee:         fee.Amount,
				Overdue:     fee.DaysOverdue > 0,
			})
			rep.FeeSummary.Outstanding = rep.FeeSummary.Outstanding.Add(fee.Amount)
			continue
		}

		// History は返却済みのみ（貸出中は BorrowedBooks 側）
		rep.FeeSummary.Assessed = rep.FeeSummary.Assessed.Add(fee.Amount)
		rep.History = append(rep.History, HistoryEntry{
			BookID:     row.BookID,
			Title:      row.Title,
			Author:     row.Author,
			ISBN:       row.ISBN,
			LoanULID:   row.ULID,
			BorrowedAt: row.BorrowedAt,
			DueAt:      row.DueAt,
			ReturnedAt: row.ReturnedAt,
			Fee:        fee.Amount,
			Status:     row.Status,
		})
	}

	rep.BorrowedCount = len(rep.BorrowedBooks)
	rep.FeeSummary.Total = rep.FeeSummary.Outstanding.Add(rep.FeeSummary.Assessed)
	return rep, nil
}
