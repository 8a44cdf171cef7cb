package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"library-backend/internal/library/apperr"
	"library-backend/internal/platform/db"
)

const (
	MsgBookNotFound  = "Book not found."
	MsgDuplicateISBN = "a book with this isbn already exists"
)

// BookStore is the durable catalog. Implementations must make InsertBook's uniqueness check
// atomic with the insert.
type BookStore interface {
	InsertBook(ctx context.Context, b *Book) error
	GetBookByID(ctx context.Context, id uint64) (*Book, error)
	GetBookByISBN(ctx context.Context, isbn string) (*Book, error)
	ListBooks(ctx context.Context, q BookQuery) ([]Book, int64, error)
}

const tableBooks = "books"

var (
	dialect     = goqu.Dialect("mysql")
	bookColumns = []any{"book_id", "isbn", "title", "author", "total_copies", "available_copies", "created_at"}
)

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

var _ BookStore = (*Store)(nil)

func (s *Store) InsertBook(ctx context.Context, b *Book) error {
	q, args, err := dialect.Insert(tableBooks).Prepared(true).Rows(goqu.Record{
		"isbn":             b.ISBN,
		"title":            b.Title,
		"author":           b.Author,
		"total_copies":     b.TotalCopies,
		"available_copies": b.AvailableCopies,
		"created_at":       b.CreatedAt,
	}).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert book: %w", err)
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		if db.IsDuplicateKey(err) {
			return apperr.ErrConflict(MsgDuplicateISBN)
		}
		return fmt.Errorf("insert book: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	b.ID = uint64(id)
	return nil
}

func (s *Store) GetBookByID(ctx context.Context, id uint64) (*Book, error) {
	return getBook(ctx, s.db, goqu.C("book_id").Eq(id), false)
}

func (s *Store) GetBookByISBN(ctx context.Context, isbn string) (*Book, error) {
	return getBook(ctx, s.db, goqu.C("isbn").Eq(isbn), false)
}

func (s *Store) ListBooks(ctx context.Context, bq BookQuery) ([]Book, int64, error) {
	where := bookFilter(bq)

	countSQL, countArgs, err := dialect.From(tableBooks).Prepared(true).
		Select(goqu.COUNT("*")).Where(where...).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count books: %w", err)
	}
	var total int64
	if err := s.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	ds := dialect.From(tableBooks).Prepared(true).Select(bookColumns...).Where(where...)
	if bq.Page.Order == "desc" {
		ds = ds.Order(goqu.C("book_id").Desc())
	} else {
		ds = ds.Order(goqu.C("book_id").Asc())
	}
	// Limit 0 は全件
	if bq.Page.Limit > 0 {
		ds = ds.Limit(uint(bq.Page.Limit)).Offset(uint(bq.Page.Offset))
	}
	q, args, err := ds.ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build list books: %w", err)
	}
	books := []Book{}
	if err := s.db.SelectContext(ctx, &books, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	return books, total, nil
}

func bookFilter(bq BookQuery) []exp.Expression {
	var where []exp.Expression
	if bq.Title != "" {
		where = append(where, goqu.C("title").ILike("%"+escapeLike(bq.Title)+"%"))
	}
	if bq.Author != "" {
		where = append(where, goqu.C("author").ILike("%"+escapeLike(bq.Author)+"%"))
	}
	if bq.ISBN != "" {
		where = append(where, goqu.C("isbn").Eq(bq.ISBN))
	}
	return where
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// ---------- row helpers used inside lending transactions ----------

// LockBook reads one book row with FOR UPDATE. Call it inside a transaction.
func LockBook(ctx context.Context, q db.DBTX, id uint64) (*Book, error) {
	return getBook(ctx, q, goqu.C("book_id").Eq(id), true)
}

// DecrementAvailable takes one copy off the shelf. It never drives the count below zero.
func DecrementAvailable(ctx context.Context, q db.DBTX, id uint64) error {
	aff, err := adjustAvailable(ctx, q, id,
		goqu.L("available_copies - 1"),
		goqu.C("available_copies").Gt(0),
	)
	if err != nil {
		return err
	}
	if aff != 1 {
		return apperr.ErrInternal("failed to update books.available_copies")
	}
	return nil
}

// IncrementAvailable puts one copy back. The count is capped at total_copies, so a row that is
// already full is left unchanged rather than reported as an error.
func IncrementAvailable(ctx context.Context, q db.DBTX, id uint64) error {
	_, err := adjustAvailable(ctx, q, id,
		goqu.L("LEAST(available_copies + 1, total_copies)"),
	)
	return err
}

func adjustAvailable(ctx context.Context, q db.DBTX, id uint64, value exp.LiteralExpression, guards ...exp.Expression) (int64, error) {
	where := append([]exp.Expression{goqu.C("book_id").Eq(id)}, guards...)
	query, args, err := dialect.Update(tableBooks).Prepared(true).
		Set(goqu.Record{"available_copies": value}).
		Where(where...).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build update books.available_copies: %w", err)
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update books.available_copies: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update books.available_copies: %w", err)
	}
	return aff, nil
}

func getBook(ctx context.Context, q db.DBTX, where exp.Expression, forUpdate bool) (*Book, error) {
	ds := dialect.From(tableBooks).Prepared(true).Select(bookColumns...).Where(where)
	if forUpdate {
		ds = ds.ForUpdate(exp.Wait)
	}
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select book: %w", err)
	}
	var b Book
	if err := q.GetContext(ctx, &b, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound(MsgBookNotFound)
		}
		return nil, fmt.Errorf("select book: %w", err)
	}
	return &b, nil
}
