package errors

import "errors"

var (
	ErrNotFound = errors.New("borrow record not found")

	ErrInvalidID = errors.New("invalid borrow record ID format")
)
