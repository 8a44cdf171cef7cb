package lends

import (
	"time"

	"library-backend/internal/library/fees"
)

// ===== Requests =====

type PatronRequest struct {
	PatronID string `json:"patron_id"`
}

type LoanFilter struct {
	PatronID *string
	BookID   *uint64
	Status   *LoanStatus
	From     *time.Time // borrowed_at >= From
	To       *time.Time // borrowed_at < To
}

// ===== Responses =====

type LoanResponse struct {
	LoanULID   string     `json:"loan_ulid"`
	PatronID   string     `json:"patron_id"`
	BookID     uint64     `json:"book_id"`
	Title      string     `json:"title,omitempty"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	Status     LoanStatus `json:"status"`
}

type BorrowResult struct {
	Message string       `json:"message"`
	Loan    LoanResponse `json:"loan"`
}

type ReturnResult struct {
	Message string          `json:"message"`
	Loan    LoanResponse    `json:"loan"`
	Fee     fees.Assessment `json:"fee"`
}

// FeeReport is the late fee of the most recent loan of a patron/book pair.
// Found is false when the pair has never had a loan.
type FeeReport struct {
	PatronID string `json:"patron_id"`
	BookID   uint64 `json:"book_id"`
	Found    bool   `json:"found"`
	fees.Assessment
	LoanULID   string     `json:"loan_ulid,omitempty"`
	DueAt      *time.Time `json:"due_at,omitempty"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

type ListLoansResult struct {
	Items      []LoanResponse `json:"items"`
	Total      int64          `json:"total"`
	NextOffset int            `json:"next_offset"`
}

// OutcomeResponse is the HTTP body of borrow and return.
type OutcomeResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Loan    *LoanResponse    `json:"loan,omitempty"`
	Fee     *fees.Assessment `json:"fee,omitempty"`
}

func toResponse(l Loan, title string) LoanResponse {
	return LoanResponse{
		LoanULID:   l.ULID,
		PatronID:   l.PatronID,
		BookID:     l.BookID,
		Title:      title,
		BorrowedAt: l.BorrowedAt,
		DueAt:      l.DueAt,
		ReturnedAt: l.ReturnedAt,
		Status:     l.Status,
	}
}
