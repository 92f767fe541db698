package validator

import (
	"strings"
	"testing"

	"autolibrarian/pkg/logger"
	"autolibrarian/pkg/model"
)

func newTestValidator() *BookValidator {
	return NewBookValidator(logger.New(logger.Config{Level: "error", Service: "test"}))
}

func TestValidate_ValidBook(t *testing.T) {
	v := newTestValidator()

	book := &model.Book{
		Title:    "The Go Programming Language",
		Author:   "Donovan & Kernighan",
		Category: "Programming",
		Copies:   3,
	}

	if err := v.Validate(book); err != nil {
		t.Errorf("expected valid book, got %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name      string
		book      *model.Book
		wantField string
	}{
		{
			name:      "missing title",
			book:      &model.Book{Category: "Programming", Copies: 1},
			wantField: "Title",
		},
		{
			name:      "missing category",
			book:      &model.Book{Title: "Some Book", Copies: 1},
			wantField: "Category",
		},
		{
			name:      "negative copies",
			book:      &model.Book{Title: "Some Book", Category: "Fiction", Copies: -1},
			wantField: "Copies",
		},
		{
			name:      "malformed id",
			book:      &model.Book{ID: "nope", Title: "Some Book", Category: "Fiction", Copies: 1},
			wantField: "ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.book)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("expected error mentioning %s, got %v", tt.wantField, err)
			}
		})
	}
}
