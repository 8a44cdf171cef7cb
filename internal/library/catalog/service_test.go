package catalog_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"library-backend/internal/library/apperr"
	"library-backend/internal/library/catalog"
	"library-backend/internal/platform/memdb"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newService(t *testing.T) (*catalog.Service, *memdb.DB) {
	t.Helper()
	store := memdb.New()
	clock := fixedClock{t: time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)}
	return catalog.NewService(store, zap.NewNop(), catalog.WithClock(clock)), store
}

func TestAddBook_Success(t *testing.T) {
	// arrange
	svc, store := newService(t)
	ctx := context.Background()

	// act
	out, err := svc.AddBook(ctx, catalog.AddBookRequest{
		Title: "SANDYS WRITINGS!", Author: "Sandy Mourad", ISBN: "1111111111111", TotalCopies: 4,
	})

	// assert
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Contains(t, strings.ToLower(out.Message), "success")
	assert.Equal(t, `Book "SANDYS WRITINGS!" has been successfully added to the catalog.`, out.Message)

	b, err := store.GetBookByISBN(ctx, "1111111111111")
	require.NoError(t, err)
	assert.Equal(t, "SANDYS WRITINGS!", b.Title)
	assert.Equal(t, 4, b.TotalCopies)
	assert.Equal(t, 4, b.AvailableCopies)
	assert.Equal(t, time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC), b.CreatedAt)
}

func TestAddBook_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     catalog.AddBookRequest
		keyword string
	}{
		{"blank title", catalog.AddBookRequest{Title: "   ", Author: "A", ISBN: "2222222222222", TotalCopies: 2}, "title"},
		{"title too long", catalog.AddBookRequest{Title: strings.Repeat("X", 205), Author: "A", ISBN: "3333333333333", TotalCopies: 2}, "title"},
		{"isbn too short", catalog.AddBookRequest{Title: "Book", Author: "A", ISBN: "12345", TotalCopies: 2}, "13 digits"},
		{"isbn with letters", catalog.AddBookRequest{Title: "Book", Author: "A", ISBN: "12345678901X3", TotalCopies: 2}, "13 digits"},
		{"zero copies", catalog.AddBookRequest{Title: "Math Text", Author: "A", ISBN: "4444444444444", TotalCopies: 0}, "positive"},
		{"negative copies", catalog.AddBookRequest{Title: "Math Text", Author: "A", ISBN: "4444444444444", TotalCopies: -3}, "positive"},
		// title is checked before isbn and copies
		{"everything wrong", catalog.AddBookRequest{Title: "", ISBN: "1", TotalCopies: 0}, "title"},
		// isbn is checked before copies
		{"isbn and copies wrong", catalog.AddBookRequest{Title: "Ok", ISBN: "1", TotalCopies: 0}, "13 digits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newService(t)
			ctx := context.Background()

			out, err := svc.AddBook(ctx, tt.req)

			require.NoError(t, err)
			assert.False(t, out.Success)
			assert.Equal(t, apperr.CodeInvalidArgument, out.Code)
			assert.Contains(t, strings.ToLower(out.Message), strings.ToLower(tt.keyword))

			_, total, err := store.ListBooks(ctx, catalog.BookQuery{})
			require.NoError(t, err)
			assert.Zero(t, total, "no partial write on validation failure")
		})
	}
}

func TestAddBook_TitleOf200RunesIsAccepted(t *testing.T) {
	svc, _ := newService(t)

	out, err := svc.AddBook(context.Background(), catalog.AddBookRequest{
		Title: strings.Repeat("é", 200), ISBN: "9999999999999", TotalCopies: 1,
	})

	require.NoError(t, err)
	assert.True(t, out.Success, out.Message)
}

func TestAddBook_DuplicateISBN(t *testing.T) {
	// arrange
	svc, store := newService(t)
	ctx := context.Background()
	first, err := svc.AddBook(ctx, catalog.AddBookRequest{Title: "First Entry", Author: "Author A", ISBN: "5555555555555", TotalCopies: 2})
	require.NoError(t, err)
	require.True(t, first.Success)

	// act
	out, err := svc.AddBook(ctx, catalog.AddBookRequest{Title: "Second Entry", Author: "Author B", ISBN: "5555555555555", TotalCopies: 3})

	// assert
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, apperr.CodeConflict, out.Code)
	assert.Contains(t, strings.ToLower(out.Message), "isbn")

	b, err := store.GetBookByISBN(ctx, "5555555555555")
	require.NoError(t, err)
	assert.Equal(t, "First Entry", b.Title)
}

func TestAddBook_ConcurrentDuplicateISBN(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := svc.AddBook(ctx, catalog.AddBookRequest{Title: "Race", ISBN: "7777777777777", TotalCopies: 1})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if out.Success {
				mu.Lock()
				successes++
				mu.Unlock()
			} else {
				assert.Contains(t, strings.ToLower(out.Message), "isbn")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	_, total, err := store.ListBooks(ctx, catalog.BookQuery{ISBN: "7777777777777"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestListBooks_Paging(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	empty, err := svc.ListBooks(ctx, catalog.BookQuery{})
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)

	for _, isbn := range []string{"1000000000001", "1000000000002", "1000000000003"} {
		out, err := svc.AddBook(ctx, catalog.AddBookRequest{Title: "Book " + isbn, Author: "A", ISBN: isbn, TotalCopies: 1})
		require.NoError(t, err)
		require.True(t, out.Success)
	}

	page1, err := svc.ListBooks(ctx, catalog.BookQuery{Page: catalog.Page{Limit: 2}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page1.Total)
	require.Len(t, page1.Items, 2)
	assert.Equal(t, "1000000000001", page1.Items[0].ISBN)
	assert.Equal(t, 2, page1.NextOffset)

	page2, err := svc.ListBooks(ctx, catalog.BookQuery{Page: catalog.Page{Limit: 2, Offset: page1.NextOffset}})
	require.NoError(t, err)
	require.Len(t, page2.Items, 1)
	assert.Equal(t, "1000000000003", page2.Items[0].ISBN)
	assert.Equal(t, 0, page2.NextOffset)

	for _, b := range page1.Items {
		assert.LessOrEqual(t, b.AvailableCopies, b.TotalCopies)
	}
}

func TestGetBook_NotFound(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.GetBook(context.Background(), 99999)

	api, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeNotFound, api.Code)
	assert.Contains(t, strings.ToLower(api.Message), "not found")
}

func TestIsISBN13(t *testing.T) {
	assert.True(t, catalog.IsISBN13("9780743273565"))
	assert.False(t, catalog.IsISBN13("978074327356"))
	assert.False(t, catalog.IsISBN13("97807432735651"))
	assert.False(t, catalog.IsISBN13("978-074327356"))
	assert.False(t, catalog.IsISBN13("９７８０７４３２７３５６５"))
}

func TestPage_Normalize(t *testing.T) {
	p := catalog.Page{Limit: 1000, Offset: -4, Order: "DESC"}.Normalize()
	assert.Equal(t, 200, p.Limit)
	assert.Equal(t, 0, p.Offset)
	assert.Equal(t, "desc", p.Order)

	p = catalog.Page{}.Normalize()
	assert.Equal(t, 50, p.Limit)
	assert.Equal(t, "asc", p.Order)
}
