package lends

import (
	"time"

	"library-backend/internal/library/apperr"
	"library-backend/internal/library/catalog"
)

type LoanStatus string

const (
	StatusOpen   LoanStatus = "open"
	StatusClosed LoanStatus = "closed"
)

type Loan struct {
	ID         uint64     `db:"loan_id"`
	ULID       string     `db:"loan_ulid"`
	PatronID   string     `db:"patron_id"`
	BookID     uint64     `db:"book_id"`
	BorrowedAt time.Time  `db:"borrowed_at"`
	DueAt      time.Time  `db:"due_at"`
	ReturnedAt *time.Time `db:"returned_at"` // 貸出中は NULL
	Status     LoanStatus `db:"status"`
}

func (l Loan) IsOpen() bool { return l.Status == StatusOpen }

// Close is the only state transition: open -> closed.
func (l *Loan) Close(at time.Time) error {
	if !l.IsOpen() {
		return apperr.ErrConflict(MsgAlreadyReturned)
	}
	t := at
	l.ReturnedAt = &t
	l.Status = StatusClosed
	return nil
}

// LoanRow is a loan joined with the catalog fields reports need.
type LoanRow struct {
	Loan
	Title  string `db:"title"`
	Author string `db:"author"`
	ISBN   string `db:"isbn"`
}

// BorrowSnapshot is what decideBorrow sees. Book is nil when the id is unknown.
type BorrowSnapshot struct {
	Book               *catalog.Book
	OpenLoans          int
	HasOpenLoanForBook bool
}

// ReturnSnapshot is what decideReturn sees. LatestLoan is the most recent loan of the
// patron/book pair in any status.
type ReturnSnapshot struct {
	Book       *catalog.Book
	OpenLoan   *Loan
	LatestLoan *Loan
}
