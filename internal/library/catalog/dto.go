package catalog

import (
	"strings"
	"time"
)

// ===== Requests =====

type AddBookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	TotalCopies int    `json:"total_copies"`
}

// BookQuery filters ListBooks. Title and Author are case-insensitive substring filters,
// ISBN is an exact match. Empty fields do not filter.
type BookQuery struct {
	Title  string
	Author string
	ISBN   string
	Page   Page
}

type Page struct {
	Limit  int
	Offset int
	Order  string // asc | desc
}

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Normalize clamps the page to sane bounds. Limit 0 becomes the default.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if strings.ToLower(p.Order) == "desc" {
		p.Order = "desc"
	} else {
		p.Order = "asc"
	}
	return p
}

// NextOffset returns the offset of the following page, 0 when this page is the last one.
func (p Page) NextOffset(total int64) int {
	next := p.Offset + p.Limit
	if next >= int(total) {
		return 0
	}
	return next
}

// ===== Responses =====

type BookResponse struct {
	BookID          uint64    `json:"book_id"`
	ISBN            string    `json:"isbn"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
}

type ListBooksResult struct {
	Items      []BookResponse `json:"items"`
	Total      int64          `json:"total"`
	NextOffset int            `json:"next_offset"`
}

type AddBookResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Book    *BookResponse `json:"book,omitempty"`
}

func ToResponse(b Book) BookResponse {
	return BookResponse{
		BookID:          b.ID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		CreatedAt:       b.CreatedAt,
	}
}
