package service

import (
	"context"
	"errors"
	"time"

	borrowerrors "autolibrarian/internal/borrows/errors"
	"autolibrarian/internal/borrows/repository"
	"autolibrarian/internal/borrows/validator"
	catalogerrors "autolibrarian/internal/catalog/errors"
	catalogrepo "autolibrarian/internal/catalog/repository"
	"autolibrarian/pkg/config"
	apperrors "autolibrarian/pkg/errors"
	"autolibrarian/pkg/kafka"
	"autolibrarian/pkg/middleware"
	"autolibrarian/pkg/model"
	"autolibrarian/pkg/sanitizer"
)

// LoanEventPublisher emits loan lifecycle events. A nil publisher disables
// event emission without branching at every call site.
type LoanEventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type BorrowService interface {
	// Borrow creates a borrow record and decrements the book's available
	// copies in one transaction. The record's email must match the verified
	// session identity.
	Borrow(ctx context.Context, record *model.BorrowRecord, claimEmail string) error

	ListByOwner(ctx context.Context, email string) ([]*model.BorrowRecord, error)

	// Return deletes the borrow record and restores the copy in one
	// transaction. Only the record's owner may return it.
	Return(ctx context.Context, id string, claimEmail string) error
}

type borrowService struct {
	repo      repository.BorrowRecordRepository
	bookRepo  catalogrepo.BookRepository
	validator *validator.BorrowRecordValidator
	publisher LoanEventPublisher
	cfg       *config.Config
}

func NewBorrowService(
	repo repository.BorrowRecordRepository,
	bookRepo catalogrepo.BookRepository,
	recordValidator *validator.BorrowRecordValidator,
	publisher LoanEventPublisher,
	cfg *config.Config,
) BorrowService {
	return &borrowService{
		repo:      repo,
		bookRepo:  bookRepo,
		validator: recordValidator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *borrowService) Borrow(ctx context.Context, record *model.BorrowRecord, claimEmail string) error {
	record.Email = sanitizer.NormalizeEmail(record.Email)
	if record.BorrowedAt.IsZero() {
		record.BorrowedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	if err := s.validator.Validate(record); err != nil {
		s.cfg.Log.Warn("Borrow record validation failed", "error", err)
		return apperrors.Validation("Borrow record validation failed", map[string]any{"error": err.Error()})
	}

	if record.Email != claimEmail {
		return apperrors.Forbidden("borrow records can only be created for your own identity")
	}

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		book, err := s.bookRepo.FindByID(txCtx, record.BookID)
		if err != nil {
			return s.mapBookError(err, record.BookID)
		}
		if record.BookTitle == "" {
			record.BookTitle = book.Title
		}

		if _, err := s.bookRepo.AdjustCopies(txCtx, record.BookID, -1); err != nil {
			return s.mapBookError(err, record.BookID)
		}

		if err := s.repo.Create(txCtx, record); err != nil {
			s.cfg.Log.Error("Failed to create borrow record", "error", err)
			return apperrors.Internal("Failed to create borrow record", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Borrow record created",
		"id", record.ID,
		"book_id", record.BookID,
		"email", record.Email,
	)
	s.publishLoanEvent(ctx, kafka.EventLoanCreated, record)
	return nil
}

func (s *borrowService) ListByOwner(ctx context.Context, email string) ([]*model.BorrowRecord, error) {
	records, err := s.repo.FindByEmail(ctx, sanitizer.NormalizeEmail(email))
	if err != nil {
		s.cfg.Log.Error("Failed to list borrow records", "error", err)
		return nil, apperrors.Internal("Failed to retrieve borrow records", err)
	}
	return records, nil
}

func (s *borrowService) Return(ctx context.Context, id string, claimEmail string) error {
	if id == "" {
		return apperrors.InvalidInput("Borrow record ID cannot be empty")
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapRecordError(err, id)
	}

	if record.Email != claimEmail {
		return apperrors.Forbidden("only the borrower can return this record")
	}

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return s.mapRecordError(err, id)
		}
		if _, err := s.bookRepo.AdjustCopies(txCtx, record.BookID, +1); err != nil {
			return s.mapBookError(err, record.BookID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Borrow record returned",
		"id", id,
		"book_id", record.BookID,
		"email", record.Email,
	)
	s.publishLoanEvent(ctx, kafka.EventLoanReturned, record)
	return nil
}

// publishLoanEvent is best effort: the loan is already committed, so a broker
// failure only logs.
func (s *borrowService) publishLoanEvent(ctx context.Context, eventType string, record *model.BorrowRecord) {
	if s.publisher == nil {
		return
	}

	builder := kafka.NewMessage().
		WithKey(record.Email).
		WithValue(record).
		WithEventType(eventType).
		WithSource("librarian")

	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		builder.WithCorrelationID(requestID)
	}

	if err := s.publisher.Publish(ctx, builder.Build()); err != nil {
		s.cfg.Log.Error("Failed to publish loan event",
			"event_type", eventType,
			"record_id", record.ID,
			"error", err,
		)
	}
}

func (s *borrowService) mapBookError(err error, bookID string) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, catalogerrors.ErrNoCopies) {
		return apperrors.InsufficientInventory(bookID)
	}
	if errors.Is(err, catalogerrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Book", bookID)
	}
	if errors.Is(err, catalogerrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid book ID format")
	}
	return apperrors.Internal("Failed to update book inventory", err)
}

func (s *borrowService) mapRecordError(err error, id string) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, borrowerrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Borrow record", id)
	}
	if errors.Is(err, borrowerrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid borrow record ID format")
	}
	return apperrors.Internal("Failed to access borrow record", err)
}
