// Package sampledata seeds a small demo catalog.
package sampledata

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"library-backend/internal/library/apperr"
	"library-backend/internal/library/catalog"
	"library-backend/internal/library/lends"
)

// SamplePatron holds the one copy of 1984 after Load.
const SamplePatron = "123456"

var Books = []catalog.AddBookRequest{
	{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", ISBN: "9780743273565", TotalCopies: 3},
	{Title: "To Kill a Mockingbird", Author: "Harper Lee", ISBN: "9780061120084", TotalCopies: 2},
	{Title: "1984", Author: "George Orwell", ISBN: "9780451524935", TotalCopies: 1},
}

const lentISBN = "9780451524935"

// Load adds the sample books and lends out 1984. Books that already exist are skipped,
// so running it twice is harmless.
func Load(ctx context.Context, books *catalog.Service, loans *lends.Service, log *zap.Logger) error {
	for _, req := range Books {
		b, err := books.CreateBook(ctx, req)
		if err != nil {
			if api, ok := apperr.As(err); ok && api.Code == apperr.CodeConflict {
				log.Debug("sample book already present", zap.String("isbn", req.ISBN))
				continue
			}
			return fmt.Errorf("seed %q: %w", req.Title, err)
		}

		if b.ISBN != lentISBN {
			continue
		}
		out, err := loans.Borrow(ctx, SamplePatron, b.ID)
		if err != nil {
			return fmt.Errorf("seed loan: %w", err)
		}
		if !out.Success {
			return fmt.Errorf("seed loan: %s", out.Message)
		}
	}
	log.Info("sample data loaded", zap.Int("books", len(Books)))
	return nil
}
