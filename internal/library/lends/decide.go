package lends

import (
	"fmt"

	"library-backend/internal/library/apperr"
	"library-backend/internal/library/catalog"
)

const (
	MsgInvalidPatron   = "Invalid patron ID. Must be exactly 6 digits."
	MsgNotAvailable    = "This book is currently not available."
	MsgAlreadyBorrowed = "You have already borrowed this book."
	MsgNoActiveLoan    = "No active loan found for this book and patron."
	MsgAlreadyReturned = "This book has already been returned."
	msgLimitFmt        = "You have reached the maximum borrowing limit of %d books."
)

// decideBorrow applies the borrow rules to a snapshot taken inside the lending transaction.
// The order matters: the first failing rule is the one reported.
func decideBorrow(s BorrowSnapshot, maxOpenLoans int) error {
	if s.Book == nil {
		return apperr.ErrNotFound(catalog.MsgBookNotFound)
	}
	if !s.Book.Available() {
		return apperr.ErrConflict(MsgNotAvailable)
	}
	if s.OpenLoans >= maxOpenLoans {
		return apperr.ErrConflict(fmt.Sprintf(msgLimitFmt, maxOpenLoans))
	}
	if s.HasOpenLoanForBook {
		return apperr.ErrConflict(MsgAlreadyBorrowed)
	}
	return nil
}

func decideReturn(s ReturnSnapshot) error {
	if s.Book == nil {
		return apperr.ErrNotFound(catalog.MsgBookNotFound)
	}
	if s.OpenLoan == nil {
		if s.LatestLoan != nil && !s.LatestLoan.IsOpen() {
			return apperr.ErrConflict(MsgAlreadyReturned)
		}
		return apperr.ErrNotFound(MsgNoActiveLoan)
	}
	return nil
}

// ValidPatronID reports whether id is exactly 6 ASCII digits.
func ValidPatronID(id string) bool {
	if len(id) != 6 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}
