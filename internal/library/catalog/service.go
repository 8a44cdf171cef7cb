package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"library-backend/internal/library/apperr"
)

const maxTitleLength = 200

// -------------- Clock --------------

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// -------------- Service --------------

type Service struct {
	store BookStore
	clock Clock
	log   *zap.Logger
}

type Option func(*Service)

func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

func NewService(store BookStore, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{store: store, clock: realClock{}, log: logger.Named("catalog")}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AddBook validates and admits a new title. Rule violations come back as a failed Outcome;
// the error is reserved for store failures.
func (s *Service) AddBook(ctx context.Context, in AddBookRequest) (apperr.Outcome, error) {
	b, err := s.CreateBook(ctx, in)
	if err != nil {
		return apperr.Resolve(err)
	}
	return apperr.Succeeded(AddedMessage(b.Title)), nil
}

// CreateBook is AddBook for callers that need the stored record. Rule violations are *apperr.APIError.
func (s *Service) CreateBook(ctx context.Context, in AddBookRequest) (*Book, error) {
	in, err := validateAddBook(in)
	if err != nil {
		return nil, err
	}

	b := &Book{
		ISBN:            in.ISBN,
		Title:           in.Title,
		Author:          in.Author,
		TotalCopies:     in.TotalCopies,
		AvailableCopies: in.TotalCopies,
		CreatedAt:       s.clock.Now(),
	}
	// 重複チェックはストア側で INSERT と同時に行う
	if err := s.store.InsertBook(ctx, b); err != nil {
		if _, ok := apperr.As(err); !ok {
			s.log.Error("insert book failed", zap.String("isbn", b.ISBN), zap.Error(err))
		}
		return nil, err
	}
	s.log.Info("book added",
		zap.Uint64("book_id", b.ID),
		zap.String("isbn", b.ISBN),
		zap.Int("copies", b.TotalCopies),
	)
	return b, nil
}

func AddedMessage(title string) string {
	return fmt.Sprintf(`Book "%s" has been successfully added to the catalog.`, title)
}

func (s *Service) GetBook(ctx context.Context, id uint64) (BookResponse, error) {
	b, err := s.store.GetBookByID(ctx, id)
	if err != nil {
		return BookResponse{}, err
	}
	return ToResponse(*b), nil
}

func (s *Service) GetBookByISBN(ctx context.Context, isbn string) (BookResponse, error) {
	b, err := s.store.GetBookByISBN(ctx, isbn)
	if err != nil {
		return BookResponse{}, err
	}
	return ToResponse(*b), nil
}

// ListBooks returns one page of the catalog. An empty catalog is an empty, non-nil list.
func (s *Service) ListBooks(ctx context.Context, q BookQuery) (ListBooksResult, error) {
	q.Page = q.Page.Normalize()
	books, total, err := s.store.ListBooks(ctx, q)
	if err != nil {
		return ListBooksResult{}, err
	}
	items := make([]BookResponse, 0, len(books))
	for _, b := range books {
		items = append(items, ToResponse(b))
	}
	return ListBooksResult{Items: items, Total: total, NextOffset: q.Page.NextOffset(total)}, nil
}

// validateAddBook checks title, isbn, copies in that order and returns the trimmed request.
func validateAddBook(in AddBookRequest) (AddBookRequest, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)

	if in.Title == "" {
		return in, apperr.ErrInvalid("title is required")
	}
	if utf8.RuneCountInString(in.Title) > maxTitleLength {
		return in, apperr.ErrInvalid(fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	if !IsISBN13(in.ISBN) {
		return in, apperr.ErrInvalid("ISBN must be exactly 13 digits")
	}
	if in.TotalCopies <= 0 {
		return in, apperr.ErrInvalid("total copies must be a positive integer")
	}
	return in, nil
}

// IsISBN13 reports whether s is exactly 13 ASCII digits. No checksum is applied.
func IsISBN13(s string) bool {
	if len(s) != 13 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
