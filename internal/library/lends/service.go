package lends

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	ulid "github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"library-backend/internal/library/apperr"
	"library-backend/internal/library/catalog"
	"library-backend/internal/library/fees"
)

// -------------- Clock & ID --------------

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface{ NewULID(t time.Time) string }
type ulidGen struct{}

func (ulidGen) NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// -------------- Service --------------

type Rules struct {
	LoanPeriodDays int
	MaxOpenLoans   int
	Fees           fees.Policy
}

func DefaultRules() Rules {
	return Rules{LoanPeriodDays: 14, MaxOpenLoans: 5, Fees: fees.DefaultPolicy()}
}

type Service struct {
	store LoanStore
	rules Rules
	clock Clock
	id    IDGen
	log   *zap.Logger
}

type Option func(*Service)

func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }
func WithIDGen(g IDGen) Option { return func(s *Service) { s.id = g } }

func NewService(store LoanStore, rules Rules, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store: store,
		rules: rules,
		clock: realClock{},
		id:    ulidGen{},
		log:   logger.Named("lends"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Rules() Rules { return s.rules }

// Borrow lends one copy of bookID to patronID. Rule violations come back as a failed Outcome.
func (s *Service) Borrow(ctx context.Context, patronID string, bookID uint64) (apperr.Outcome, error) {
	res, err := s.BorrowBook(ctx, patronID, bookID)
	if err != nil {
		return apperr.Resolve(err)
	}
	return apperr.Succeeded(res.Message), nil
}

// BorrowBook is Borrow with the created loan. Rule violations are *apperr.APIError.
func (s *Service) BorrowBook(ctx context.Context, patronID string, bookID uint64) (BorrowResult, error) {
	if !ValidPatronID(patronID) {
		return BorrowResult{}, apperr.ErrInvalid(MsgInvalidPatron)
	}

	now := s.clock.Now()
	var (
		loan  *Loan
		title string
	)
	err := s.store.ExecBorrow(ctx, patronID, bookID, func(snap BorrowSnapshot) (*Loan, error) {
		if err := decideBorrow(snap, s.rules.MaxOpenLoans); err != nil {
			return nil, err
		}
		title = snap.Book.Title
		loan = &Loan{
			ULID:       s.id.NewULID(now),
			PatronID:   patronID,
			BookID:     bookID,
			BorrowedAt: now,
			DueAt:      now.AddDate(0, 0, s.rules.LoanPeriodDays),
			Status:     StatusOpen,
		}
		return loan, nil
	})
	if err != nil {
		s.logFailure("borrow", patronID, bookID, err)
		return BorrowResult{}, err
	}

	due := loan.DueAt.In(s.location()).Format("2006-01-02")
	s.log.Info("book borrowed",
		zap.String("loan_ulid", loan.ULID),
		zap.String("patron_id", patronID),
		zap.Uint64("book_id", bookID),
		zap.String("due", due),
	)
	return BorrowResult{
		Message: fmt.Sprintf(`Successfully borrowed "%s". Due date: %s.`, title, due),
		Loan:    toResponse(*loan, title),
	}, nil
}

// Return closes the patron's open loan of bookID and reports the late fee in the message.
func (s *Service) Return(ctx context.Context, patronID string, bookID uint64) (apperr.Outcome, error) {
	res, err := s.ReturnBook(ctx, patronID, bookID)
	if err != nil {
		return apperr.Resolve(err)
	}
	return apperr.Succeeded(res.Message), nil
}

func (s *Service) ReturnBook(ctx context.Context, patronID string, bookID uint64) (ReturnResult, error) {
	if !ValidPatronID(patronID) {
		return ReturnResult{}, apperr.ErrInvalid(MsgInvalidPatron)
	}

	now := s.clock.Now()
	var (
		loan  *Loan
		title string
	)
	err := s.store.ExecReturn(ctx, patronID, bookID, func(snap ReturnSnapshot) (*Loan, error) {
		if err := decideReturn(snap); err != nil {
			return nil, err
		}
		l := *snap.OpenLoan
		if err := l.Close(now); err != nil {
			return nil, err
		}
		title = snap.Book.Title
		loan = &l
		return loan, nil
	})
	if err != nil {
		s.logFailure("return", patronID, bookID, err)
		return ReturnResult{}, err
	}

	fee := s.rules.Fees.Assess(loan.DueAt, *loan.ReturnedAt)
	msg := fmt.Sprintf(`Successfully returned "%s".`, title)
	if fee.Amount.IsPositive() {
		msg += fmt.Sprintf(" Late fee: %s (%d days overdue).", fee.Display(), fee.DaysOverdue)
	} else {
		msg += " Returned on time, no late fee."
	}

	s.log.Info("book returned",
		zap.String("loan_ulid", loan.ULID),
		zap.String("patron_id", patronID),
		zap.Uint64("book_id", bookID),
		zap.String("fee", fee.Amount.StringFixed(2)),
	)
	return ReturnResult{Message: msg, Loan: toResponse(*loan, title), Fee: fee}, nil
}

// CalculateFee assesses the most recent loan of the pair. An open loan is assessed as of now.
func (s *Service) CalculateFee(ctx context.Context, patronID string, bookID uint64) (FeeReport, error) {
	if !ValidPatronID(patronID) {
		return FeeReport{}, apperr.ErrInvalid(MsgInvalidPatron)
	}
	report := FeeReport{PatronID: patronID, BookID: bookID}

	l, err := s.store.LatestLoan(ctx, patronID, bookID)
	if err != nil {
		if api, ok := apperr.As(err); ok && api.Code == apperr.CodeNotFound {
			report.Assessment = fees.NoLoan()
			return report, nil
		}
		return FeeReport{}, err
	}

	ref := s.clock.Now()
	if l.ReturnedAt != nil {
		ref = *l.ReturnedAt
	}
	due := l.DueAt
	report.Found = true
	report.Assessment = s.rules.Fees.Assess(due, ref)
	report.LoanULID = l.ULID
	report.DueAt = &due
	report.ReturnedAt = l.ReturnedAt
	return report, nil
}

func (s *Service) GetLoan(ctx context.Context, loanULID string) (LoanResponse, error) {
	row, err := s.store.GetLoanByULID(ctx, loanULID)
	if err != nil {
		return LoanResponse{}, err
	}
	return toResponse(row.Loan, row.Title), nil
}

func (s *Service) ListLoans(ctx context.Context, f LoanFilter, p catalog.Page) (ListLoansResult, error) {
	if p.Order == "" {
		p.Order = "desc"
	}
	p = p.Normalize()
	rows, total, err := s.store.ListLoans(ctx, f, p)
	if err != nil {
		return ListLoansResult{}, err
	}
	items := make([]LoanResponse, 0, len(rows))
	for _, r := range rows {
		items = append(items, toResponse(r.Loan, r.Title))
	}
	return ListLoansResult{Items: items, Total: total, NextOffset: p.NextOffset(total)}, nil
}

func (s *Service) location() *time.Location {
	if s.rules.Fees.Location == nil {
		return time.UTC
	}
	return s.rules.Fees.Location
}

func (s *Service) logFailure(op, patronID string, bookID uint64, err error) {
	if api, ok := apperr.As(err); ok && api.Code != apperr.CodeInternal {
		s.log.Debug(op+" rejected",
			zap.String("patron_id", patronID),
			zap.Uint64("book_id", bookID),
			zap.String("reason", api.Message),
		)
		return
	}
	s.log.Error(op+" failed",
		zap.String("patron_id", patronID),
		zap.Uint64("book_id", bookID),
		zap.Error(err),
	)
}
