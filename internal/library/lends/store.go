package lends

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"library-backend/internal/library/apperr"
	"library-backend/internal/library/catalog"
	"library-backend/internal/platform/db"
)

const msgLoanNotFound = "loan not found"

// LoanStore owns the lending transaction. ExecBorrow and ExecReturn take a snapshot under lock,
// hand it to decide, and persist decide's result in the same transaction. When decide fails
// nothing is written.
type LoanStore interface {
	ExecBorrow(ctx context.Context, patronID string, bookID uint64, decide func(BorrowSnapshot) (*Loan, error)) error
	ExecReturn(ctx context.Context, patronID string, bookID uint64, decide func(ReturnSnapshot) (*Loan, error)) error
	GetLoanByULID(ctx context.Context, ulid string) (*LoanRow, error)
	LatestLoan(ctx context.Context, patronID string, bookID uint64) (*Loan, error)
	ListLoans(ctx context.Context, f LoanFilter, p catalog.Page) ([]LoanRow, int64, error)
	LoansByPatron(ctx context.Context, patronID string) ([]LoanRow, error)
}

const (
	tableLoans = "loans"
	tableBooks = "books"
)

var (
	dialect     = goqu.Dialect("mysql")
	loanColumns = []any{"loan_id", "loan_ulid", "patron_id", "book_id", "borrowed_at", "due_at", "returned_at", "status"}
)

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

var _ LoanStore = (*Store)(nil)

func (s *Store) ExecBorrow(ctx context.Context, patronID string, bookID uint64, decide func(BorrowSnapshot) (*Loan, error)) error {
	return db.RunInTxRetry(ctx, s.db, nil, func(ctx context.Context, tx *sqlx.Tx) error {
		var snap BorrowSnapshot

		book, err := lockBookIfExists(ctx, tx, bookID)
		if err != nil {
			return err
		}
		snap.Book = book

		if book != nil {
			// 利用者の貸出中レコードをロックして件数を数える（同一利用者の同時貸出を直列化）
			openBookIDs, err := lockOpenLoanBookIDs(ctx, tx, patronID)
			if err != nil {
				return err
			}
			snap.OpenLoans = len(openBookIDs)
			for _, id := range openBookIDs {
				if id == bookID {
					snap.HasOpenLoanForBook = true
				}
			}
		}

		loan, err := decide(snap)
		if err != nil {
			return err
		}

		if err := catalog.DecrementAvailable(ctx, tx, bookID); err != nil {
			return err
		}
		return insertLoan(ctx, tx, loan)
	})
}

func (s *Store) ExecReturn(ctx context.Context, patronID string, bookID uint64, decide func(ReturnSnapshot) (*Loan, error)) error {
	return db.RunInTxRetry(ctx, s.db, nil, func(ctx context.Context, tx *sqlx.Tx) error {
		var snap ReturnSnapshot

		book, err := lockBookIfExists(ctx, tx, bookID)
		if err != nil {
			return err
		}
		snap.Book = book

		if book != nil {
			latest, err := selectLatestLoan(ctx, tx, patronID, bookID, true)
			if err != nil {
				return err
			}
			snap.LatestLoan = latest
			if latest != nil && latest.IsOpen() {
				snap.OpenLoan = latest
			}
		}

		loan, err := decide(snap)
		if err != nil {
			return err
		}

		if err := closeLoan(ctx, tx, loan); err != nil {
			return err
		}
		return catalog.IncrementAvailable(ctx, tx, bookID)
	})
}

func (s *Store) GetLoanByULID(ctx context.Context, ulid string) (*LoanRow, error) {
	q, args, err := loanRowSelect().Where(goqu.I("l.loan_ulid").Eq(ulid)).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select loan: %w", err)
	}
	var row LoanRow
	if err := s.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound(msgLoanNotFound)
		}
		return nil, fmt.Errorf("select loan: %w", err)
	}
	return &row, nil
}

func (s *Store) LatestLoan(ctx context.Context, patronID string, bookID uint64) (*Loan, error) {
	l, err := selectLatestLoan(ctx, s.db, patronID, bookID, false)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, apperr.ErrNotFound(msgLoanNotFound)
	}
	return l, nil
}

// ListLoans は件数とページを同じ読み取りスナップショットから返す
func (s *Store) ListLoans(ctx context.Context, f LoanFilter, p catalog.Page) ([]LoanRow, int64, error) {
	where := loanFilter(f)

	countSQL, countArgs, err := dialect.From(goqu.T(tableLoans).As("l")).Prepared(true).
		Select(goqu.COUNT("*")).Where(where...).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count loans: %w", err)
	}

	ds := loanRowSelect().Where(where...)
	if p.Order == "asc" {
		ds = ds.Order(goqu.I("l.borrowed_at").Asc(), goqu.I("l.loan_id").Asc())
	} else {
		ds = ds.Order(goqu.I("l.borrowed_at").Desc(), goqu.I("l.loan_id").Desc())
	}
	if p.Limit > 0 {
		ds = ds.Limit(uint(p.Limit)).Offset(uint(p.Offset))
	}
	q, args, err := ds.ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build list loans: %w", err)
	}

	var total int64
	rows := []LoanRow{}
	err = db.ReadOnly(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
			return fmt.Errorf("count loans: %w", err)
		}
		if err := tx.SelectContext(ctx, &rows, q, args...); err != nil {
			return fmt.Errorf("list loans: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// LoansByPatron returns every loan of the patron, newest first.
func (s *Store) LoansByPatron(ctx context.Context, patronID string) ([]LoanRow, error) {
	q, args, err := loanRowSelect().
		Where(goqu.I("l.patron_id").Eq(patronID)).
		Order(goqu.I("l.borrowed_at").Desc(), goqu.I("l.loan_id").Desc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build patron loans: %w", err)
	}
	rows := []LoanRow{}
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("patron loans: %w", err)
	}
	return rows, nil
}

// ---------- tx helpers ----------

func lockBookIfExists(ctx context.Context, q db.DBTX, bookID uint64) (*catalog.Book, error) {
	book, err := catalog.LockBook(ctx, q, bookID)
	if err != nil {
		if api, ok := apperr.As(err); ok && api.Code == apperr.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return book, nil
}

func lockOpenLoanBookIDs(ctx context.Context, q db.DBTX, patronID string) ([]uint64, error) {
	query, args, err := dialect.From(tableLoans).Prepared(true).
		Select("book_id").
		Where(goqu.C("patron_id").Eq(patronID), goqu.C("status").Eq(string(StatusOpen))).
		ForUpdate(exp.Wait).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build open loans: %w", err)
	}
	ids := []uint64{}
	if err := q.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("lock open loans: %w", err)
	}
	return ids, nil
}

func selectLatestLoan(ctx context.Context, q db.DBTX, patronID string, bookID uint64, forUpdate bool) (*Loan, error) {
	ds := dialect.From(tableLoans).Prepared(true).
		Select(loanColumns...).
		Where(goqu.C("patron_id").Eq(patronID), goqu.C("book_id").Eq(bookID)).
		Order(goqu.C("borrowed_at").Desc(), goqu.C("loan_id").Desc()).
		Limit(1)
	if forUpdate {
		ds = ds.ForUpdate(exp.Wait)
	}
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build latest loan: %w", err)
	}
	var l Loan
	if err := q.GetContext(ctx, &l, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select latest loan: %w", err)
	}
	return &l, nil
}

func insertLoan(ctx context.Context, q db.DBTX, l *Loan) error {
	query, args, err := dialect.Insert(tableLoans).Prepared(true).Rows(goqu.Record{
		"loan_ulid":   l.ULID,
		"patron_id":   l.PatronID,
		"book_id":     l.BookID,
		"borrowed_at": l.BorrowedAt,
		"due_at":      l.DueAt,
		"status":      string(StatusOpen),
	}).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert loan: %w", err)
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		// uq_loans_open_pair
		if db.IsDuplicateKey(err) {
			return apperr.ErrConflict(MsgAlreadyBorrowed)
		}
		return fmt.Errorf("insert loan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}
	l.ID = uint64(id)
	return nil
}

func closeLoan(ctx context.Context, q db.DBTX, l *Loan) error {
	if l.ReturnedAt == nil {
		return apperr.ErrInternal("closing a loan without returned_at")
	}
	query, args, err := dialect.Update(tableLoans).Prepared(true).
		Set(goqu.Record{"status": string(StatusClosed), "returned_at": *l.ReturnedAt}).
		Where(goqu.C("loan_id").Eq(l.ID), goqu.C("status").Eq(string(StatusOpen))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build close loan: %w", err)
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("close loan: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close loan: %w", err)
	}
	if aff != 1 {
		return apperr.ErrInternal("failed to close loan")
	}
	return nil
}

func loanRowSelect() *goqu.SelectDataset {
	return dialect.From(goqu.T(tableLoans).As("l")).Prepared(true).
		Join(goqu.T(tableBooks).As("b"), goqu.On(goqu.I("b.book_id").Eq(goqu.I("l.book_id")))).
		Select(
			goqu.I("l.loan_id"), goqu.I("l.loan_ulid"), goqu.I("l.patron_id"), goqu.I("l.book_id"),
			goqu.I("l.borrowed_at"), goqu.I("l.due_at"), goqu.I("l.returned_at"), goqu.I("l.status"),
			goqu.I("b.title"), goqu.I("b.author"), goqu.I("b.isbn"),
		)
}

func loanFilter(f LoanFilter) []exp.Expression {
	var where []exp.Expression
	if f.PatronID != nil {
		where = append(where, goqu.I("l.patron_id").Eq(*f.PatronID))
	}
	if f.BookID != nil {
		where = append(where, goqu.I("l.book_id").Eq(*f.BookID))
	}
	if f.Status != nil {
		where = append(where, goqu.I("l.status").Eq(string(*f.Status)))
	}
	if f.From != nil {
		where = append(where, goqu.I("l.borrowed_at").Gte(*f.From))
	}
	if f.To != nil {
		where = append(where, goqu.I("l.borrowed_at").Lt(*f.To))
	}
	return where
}
