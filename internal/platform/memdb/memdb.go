// Package memdb is an in-memory implementation of every store interface of the service.
// It backs the test suites and the "memory" storage mode.
package memdb

import (
	"context"
	"sort"
	"strings"
	"sync"

	"library-backend/internal/library/apperr"
	"library-backend/internal/library/catalog"
	"library-backend/internal/library/lends"
	"library-backend/internal/platform/auth"
)

// DB guards all state with one RWMutex. Writes take Lock, reads take RLock and return copies.
type DB struct {
	mu       sync.RWMutex
	books    map[uint64]catalog.Book
	byISBN   map[string]uint64
	loans    []lends.Loan
	accounts map[string]auth.Account
	nextBook uint64
	nextLoan uint64
}

func New() *DB {
	return &DB{
		books:    make(map[uint64]catalog.Book),
		byISBN:   make(map[string]uint64),
		loans:    make([]lends.Loan, 0),
		accounts: make(map[string]auth.Account),
	}
}

var (
	_ catalog.BookStore = (*DB)(nil)
	_ lends.LoanStore   = (*DB)(nil)
	_ auth.AccountStore = (*DB)(nil)
)

// -------------- catalog.BookStore --------------

func (m *DB) InsertBook(ctx context.Context, b *catalog.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.byISBN[b.ISBN]; dup {
		return apperr.ErrConflict(catalog.MsgDuplicateISBN)
	}
	m.nextBook++
	b.ID = m.nextBook
	m.books[b.ID] = *b
	m.byISBN[b.ISBN] = b.ID
	return nil
}

func (m *DB) GetBookByID(ctx context.Context, id uint64) (*catalog.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.books[id]
	if !ok {
		return nil, apperr.ErrNotFound(catalog.MsgBookNotFound)
	}
	return &b, nil
}

func (m *DB) GetBookByISBN(ctx context.Context, isbn string) (*catalog.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byISBN[isbn]
	if !ok {
		return nil, apperr.ErrNotFound(catalog.MsgBookNotFound)
	}
	b := m.books[id]
	return &b, nil
}

func (m *DB) ListBooks(ctx context.Context, q catalog.BookQuery) ([]catalog.Book, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := strings.ToLower(q.Title)
	author := strings.ToLower(q.Author)
	matched := make([]catalog.Book, 0, len(m.books))
	for _, b := range m.books {
		if title != "" && !strings.Contains(strings.ToLower(b.Title), title) {
			continue
		}
		if author != "" && !strings.Contains(strings.ToLower(b.Author), author) {
			continue
		}
		if q.ISBN != "" && b.ISBN != q.ISBN {
			continue
		}
		matched = append(matched, b)
	}
	desc := q.Page.Order == "desc"
	sort.Slice(matched, func(i, j int) bool {
		if desc {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].ID < matched[j].ID
	})
	return paginate(matched, q.Page), int64(len(matched)), nil
}

// -------------- lends.LoanStore --------------

func (m *DB) ExecBorrow(ctx context.Context, patronID string, bookID uint64, decide func(lends.BorrowSnapshot) (*lends.Loan, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var snap lends.BorrowSnapshot
	if b, ok := m.books[bookID]; ok {
		snap.Book = &b
		for _, l := range m.loans {
			if l.PatronID != patronID || !l.IsOpen() {
				continue
			}
			snap.OpenLoans++
			if l.BookID == bookID {
				snap.HasOpenLoanForBook = true
			}
		}
	}

	loan, err := decide(snap)
	if err != nil {
		return err
	}

	b := m.books[bookID]
	if b.AvailableCopies <= 0 {
		return apperr.ErrInternal("failed to update books.available_copies")
	}
	b.AvailableCopies--
	m.books[bookID] = b

	m.nextLoan++
	loan.ID = m.nextLoan
	m.loans = append(m.loans, *loan)
	return nil
}

func (m *DB) ExecReturn(ctx context.Context, patronID string, bookID uint64, decide func(lends.ReturnSnapshot) (*lends.Loan, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var snap lends.ReturnSnapshot
	idx := -1
	if b, ok := m.books[bookID]; ok {
		snap.Book = &b
		idx = m.latestLoanIndex(patronID, bookID)
		if idx >= 0 {
			latest := m.loans[idx]
			snap.LatestLoan = &latest
			if latest.IsOpen() {
				snap.OpenLoan = &latest
			}
		}
	}

	loan, err := decide(snap)
	if err != nil {
		return err
	}
	if idx < 0 || m.loans[idx].ID != loan.ID || !m.loans[idx].IsOpen() {
		return apperr.ErrInternal("failed to close loan")
	}
	m.loans[idx] = *loan

	b := m.books[bookID]
	if b.AvailableCopies < b.TotalCopies {
		b.AvailableCopies++
	}
	m.books[bookID] = b
	return nil
}

func (m *DB) GetLoanByULID(ctx context.Context, ulid string) (*lends.LoanRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range m.loans {
		if l.ULID == ulid {
			row := m.row(l)
			return &row, nil
		}
	}
	return nil, apperr.ErrNotFound("loan not found")
}

func (m *DB) LatestLoan(ctx context.Context, patronID string, bookID uint64) (*lends.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx := m.latestLoanIndex(patronID, bookID)
	if idx < 0 {
		return nil, apperr.ErrNotFound("loan not found")
	}
	l := m.loans[idx]
	return &l, nil
}

func (m *DB) ListLoans(ctx context.Context, f lends.LoanFilter, p catalog.Page) ([]lends.LoanRow, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]lends.LoanRow, 0)
	for _, l := range m.loans {
		if !matchLoan(l, f) {
			continue
		}
		rows = append(rows, m.row(l))
	}
	sortRows(rows, p.Order != "asc")
	return paginate(rows, p), int64(len(rows)), nil
}

func (m *DB) LoansByPatron(ctx context.Context, patronID string) ([]lends.LoanRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]lends.LoanRow, 0)
	for _, l := range m.loans {
		if l.PatronID == patronID {
			rows = append(rows, m.row(l))
		}
	}
	sortRows(rows, true)
	return rows, nil
}

// latestLoanIndex returns -1 when the pair has no loan. Caller holds the lock.
func (m *DB) latestLoanIndex(patronID string, bookID uint64) int {
	idx := -1
	for i, l := range m.loans {
		if l.PatronID != patronID || l.BookID != bookID {
			continue
		}
		if idx < 0 || newer(l, m.loans[idx]) {
			idx = i
		}
	}
	return idx
}

func (m *DB) row(l lends.Loan) lends.LoanRow {
	b := m.books[l.BookID]
	return lends.LoanRow{Loan: l, Title: b.Title, Author: b.Author, ISBN: b.ISBN}
}

func newer(a, b lends.Loan) bool {
	if !a.BorrowedAt.Equal(b.BorrowedAt) {
		return a.BorrowedAt.After(b.BorrowedAt)
	}
	return a.ID > b.ID
}

func sortRows(rows []lends.LoanRow, newestFirst bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		if newestFirst {
			return newer(rows[i].Loan, rows[j].Loan)
		}
		return newer(rows[j].Loan, rows[i].Loan)
	})
}

func matchLoan(l lends.Loan, f lends.LoanFilter) bool {
	switch {
	case f.PatronID != nil && l.PatronID != *f.PatronID:
		return false
	case f.BookID != nil && l.BookID != *f.BookID:
		return false
	case f.Status != nil && l.Status != *f.Status:
		return false
	case f.From != nil && l.BorrowedAt.Before(*f.From):
		return false
	case f.To != nil && !l.BorrowedAt.Before(*f.To):
		return false
	}
	return true
}

// -------------- auth.AccountStore --------------

func (m *DB) GetByID(ctx context.Context, id string) (*auth.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *DB) Create(ctx context.Context, a *auth.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.accounts[a.ID]; dup {
		return auth.ErrAlreadyExists
	}
	m.accounts[a.ID] = *a
	return nil
}

func (m *DB) Delete(ctx context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[id]; !ok {
		return 0, nil
	}
	delete(m.accounts, id)
	return 1, nil
}

func (m *DB) UpdateID(ctx context.Context, oldID, newID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[oldID]
	if !ok {
		return 0, nil
	}
	if _, taken := m.accounts[newID]; taken && newID != oldID {
		return 0, auth.ErrAlreadyExists
	}
	delete(m.accounts, oldID)
	a.ID = newID
	m.accounts[newID] = a
	return 1, nil
}

// -------------- helpers --------------

// paginate applies limit/offset. Limit 0 returns everything from offset on.
func paginate[T any](items []T, p catalog.Page) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	items = items[max(p.Offset, 0):]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}
