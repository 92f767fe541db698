package model

import "time"

// BorrowRecord links a borrower identity to a book. A borrower may hold
// multiple open records for the same book.
type BorrowRecord struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	BookID     string    `json:"book_id" bson:"book_id" validate:"required,mongodb"`
	BookTitle  string    `json:"book_title,omitempty" bson:"book_title,omitempty" validate:"omitempty,max=300"`
	Email      string    `json:"email" bson:"email" validate:"required,email"`
	BorrowedAt time.Time `json:"borrowed_at" bson:"borrowed_at" validate:"required"`
	ReturnBy   time.Time `json:"return_by,omitempty" bson:"return_by,omitempty" validate:"omitempty,gtfield=BorrowedAt"`
}
