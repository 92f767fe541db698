package service

import (
	"context"
	"errors"
	"sync"
	"time"

	catalogerrors "autolibrarian/internal/catalog/errors"
	"autolibrarian/internal/catalog/repository"
	"autolibrarian/internal/catalog/validator"
	"autolibrarian/pkg/config"
	apperrors "autolibrarian/pkg/errors"
	"autolibrarian/pkg/model"
	"autolibrarian/pkg/sanitizer"
)

type BookService interface {
	Create(ctx context.Context, book *model.Book) error
	GetByID(ctx context.Context, id string) (*model.Book, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Book, int64, error)
	Delete(ctx context.Context, id string) error
	GetCategories(ctx context.Context) ([]*model.Category, error)

	// AdjustCopies is the inventory ledger: delta is ±1 at both call sites
	// (borrow = -1, return = +1). Returns the updated count.
	AdjustCopies(ctx context.Context, id string, delta int) (int, error)
}

type bookService struct {
	repo         repository.BookRepository
	categoryRepo repository.CategoryRepository
	validator    *validator.BookValidator
	cfg          *config.Config
}

func NewBookService(
	repo repository.BookRepository,
	categoryRepo repository.CategoryRepository,
	bookValidator *validator.BookValidator,
	cfg *config.Config,
) BookService {
	return &bookService{
		repo:         repo,
		categoryRepo: categoryRepo,
		validator:    bookValidator,
		cfg:          cfg,
	}
}

func (s *bookService) Create(ctx context.Context, book *model.Book) error {
	book.Title = sanitizer.NormalizeTitle(book.Title)
	book.Author = sanitizer.NormalizeTitle(book.Author)
	book.Category = sanitizer.TrimAndNormalize(book.Category)

	if err := s.validator.Validate(book); err != nil {
		s.cfg.Log.Warn("Book validation failed", "error", err)
		return apperrors.Validation("Book validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, book); err != nil {
		s.cfg.Log.Error("Failed to create book", "error", err)
		return apperrors.Internal("Failed to create book", err)
	}

	s.cfg.Log.Info("Book created successfully", "id", book.ID, "title", book.Title)
	return nil
}

func (s *bookService) GetByID(ctx context.Context, id string) (*model.Book, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Book ID cannot be empty")
	}

	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapBookError(err, id, "Failed to retrieve book")
	}

	return book, nil
}

func (s *bookService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Book, int64, error) {
	var count int64
	var books []*model.Book
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count books", "error", errCount)
			errCount = apperrors.Internal("Failed to count books", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		books, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list books", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve books", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return books, count, nil
}

func (s *bookService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Book ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapBookError(err, id, "Failed to delete book")
	}

	s.cfg.Log.Info("Book deleted successfully", "id", id)
	return nil
}

func (s *bookService) GetCategories(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list categories", "error", err)
		return nil, apperrors.Internal("Failed to retrieve categories", err)
	}
	return categories, nil
}

func (s *bookService) AdjustCopies(ctx context.Context, id string, delta int) (int, error) {
	if id == "" {
		return 0, apperrors.InvalidInput("Book ID cannot be empty")
	}
	if delta == 0 {
		return 0, apperrors.InvalidInput("Adjustment delta cannot be zero")
	}

	updated, err := s.repo.AdjustCopies(ctx, id, delta)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrNoCopies) {
			return 0, apperrors.InsufficientInventory(id)
		}
		return 0, s.mapBookError(err, id, "Failed to adjust copies")
	}

	s.cfg.Log.Info("Inventory adjusted",
		"id", id,
		"delta", delta,
		"copies", updated,
		"at", time.Now().UTC(),
	)
	return updated, nil
}

func (s *bookService) mapBookError(err error, id, internalMsg string) *apperrors.AppError {
	if errors.Is(err, catalogerrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Book", id)
	}
	if errors.Is(err, catalogerrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid book ID format")
	}
	return apperrors.Internal(internalMsg, err)
}
