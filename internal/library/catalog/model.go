package catalog

import "time"

type Book struct {
	ID              uint64    `db:"book_id"`
	ISBN            string    `db:"isbn"`
	Title           string    `db:"title"`
	Author          string    `db:"author"`
	TotalCopies     int       `db:"total_copies"`
	AvailableCopies int       `db:"available_copies"`
	CreatedAt       time.Time `db:"created_at"`
}

// Available reports whether at least one copy is on the shelf.
func (b Book) Available() bool { return b.AvailableCopies > 0 }
