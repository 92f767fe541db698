package errors

import "errors"

var (
	ErrNotFound = errors.New("book not found")

	ErrInvalidID = errors.New("invalid book ID format")

	// ErrNoCopies means the conditional decrement matched the book but found
	// no available copies left.
	ErrNoCopies = errors.New("no copies available")
)
