package search

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"library-backend/internal/library/apperr"
	"library-backend/internal/library/catalog"
)

type Field string

const (
	FieldTitle  Field = "title"
	FieldAuthor Field = "author"
	FieldISBN   Field = "isbn"
)

// Index answers catalog searches. It holds no state of its own; every call reads the store.
type Index struct {
	books catalog.BookStore
}

func NewIndex(books catalog.BookStore) *Index { return &Index{books: books} }

// Search matches title and author by case-insensitive substring and isbn exactly.
// A blank term, an unknown field or no match all give an empty, non-nil slice.
func (ix *Index) Search(ctx context.Context, term, field string) ([]catalog.Book, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []catalog.Book{}, nil
	}

	switch Field(strings.ToLower(strings.TrimSpace(field))) {
	case FieldISBN:
		b, err := ix.books.GetBookByISBN(ctx, term)
		if err != nil {
			if api, ok := apperr.As(err); ok && api.Code == apperr.CodeNotFound {
				return []catalog.Book{}, nil
			}
			return nil, err
		}
		return []catalog.Book{*b}, nil

	case FieldTitle:
		return ix.scan(ctx, term, func(b catalog.Book) string { return b.Title })

	case FieldAuthor:
		return ix.scan(ctx, term, func(b catalog.Book) string { return b.Author })

	default:
		return []catalog.Book{}, nil
	}
}

func (ix *Index) scan(ctx context.Context, term string, value func(catalog.Book) string) ([]catalog.Book, error) {
	// Limit 0 = 全件
	books, _, err := ix.books.ListBooks(ctx, catalog.BookQuery{Page: catalog.Page{Order: "asc"}})
	if err != nil {
		return nil, err
	}

	fold := cases.Fold()
	needle := fold.String(norm.NFKC.String(term))

	out := make([]catalog.Book, 0)
	for _, b := range books {
		if strings.Contains(fold.String(norm.NFKC.String(value(b))), needle) {
			out = append(out, b)
		}
	}
	return out, nil
}
