package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	catalogerrors "autolibrarian/internal/catalog/errors"
	"autolibrarian/internal/catalog/validator"
	"autolibrarian/pkg/config"
	mongotx "autolibrarian/pkg/db/mongo"
	apperrors "autolibrarian/pkg/errors"
	"autolibrarian/pkg/logger"
	"autolibrarian/pkg/model"
)

type mockBookRepository struct {
	createFunc       func(ctx context.Context, book *model.Book) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Book, error)
	findAllFunc      func(ctx context.Context, limit int, offset int64) ([]*model.Book, error)
	countFunc        func(ctx context.Context) (int64, error)
	deleteFunc       func(ctx context.Context, id string) error
	adjustCopiesFunc func(ctx context.Context, id string, delta int) (int, error)
}

func (m *mockBookRepository) Create(ctx context.Context, book *model.Book) error {
	return m.createFunc(ctx, book)
}

func (m *mockBookRepository) FindByID(ctx context.Context, id string) (*model.Book, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockBookRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Book, error) {
	return m.findAllFunc(ctx, limit, offset)
}

func (m *mockBookRepository) Count(ctx context.Context) (int64, error) {
	return m.countFunc(ctx)
}

func (m *mockBookRepository) Delete(ctx context.Context, id string) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockBookRepository) AdjustCopies(ctx context.Context, id string, delta int) (int, error) {
	return m.adjustCopiesFunc(ctx, id, delta)
}

func (m *mockBookRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

type mockCategoryRepository struct {
	findAllFunc func(ctx context.Context) ([]*model.Category, error)
}

func (m *mockCategoryRepository) FindAll(ctx context.Context) ([]*model.Category, error) {
	return m.findAllFunc(ctx)
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{Level: "error", Service: "test"}),
	}
}

func newTestService(repo *mockBookRepository, catRepo *mockCategoryRepository) BookService {
	cfg := testConfig()
	return NewBookService(repo, catRepo, validator.NewBookValidator(cfg.Log), cfg)
}

// memoryBookStore backs the inventory scenarios with an actual mutable count
// so adjustments can be observed across calls.
type memoryBookStore struct {
	books map[string]*model.Book
}

func (s *memoryBookStore) adjust(_ context.Context, id string, delta int) (int, error) {
	book, ok := s.books[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", catalogerrors.ErrNotFound, id)
	}
	if delta < 0 && book.Copies < -delta {
		return 0, fmt.Errorf("%w: %s", catalogerrors.ErrNoCopies, id)
	}
	book.Copies += delta
	return book.Copies, nil
}

func asAppError(t *testing.T, err error) *apperrors.AppError {
	t.Helper()
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	return appErr
}

func TestCreate_SanitizesAndValidates(t *testing.T) {
	var stored *model.Book
	repo := &mockBookRepository{
		createFunc: func(_ context.Context, book *model.Book) error {
			stored = book
			return nil
		},
	}
	svc := newTestService(repo, nil)

	book := &model.Book{
		Title:    "  the   pragmatic programmer  ",
		Author:   " hunt ",
		Category: " Programming ",
		Copies:   2,
	}

	if err := svc.Create(context.Background(), book); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil {
		t.Fatal("expected book to reach repository")
	}
	if stored.Title != "The Pragmatic Programmer" {
		t.Errorf("expected normalized title, got %q", stored.Title)
	}
	if stored.Category != "Programming" {
		t.Errorf("expected trimmed category, got %q", stored.Category)
	}
}

func TestCreate_InvalidBook(t *testing.T) {
	repo := &mockBookRepository{
		createFunc: func(_ context.Context, _ *model.Book) error {
			t.Fatal("repository should not be called for invalid input")
			return nil
		},
	}
	svc := newTestService(repo, nil)

	err := svc.Create(context.Background(), &model.Book{Category: "Fiction"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr := asAppError(t, err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected %s, got %v", apperrors.CodeValidation, err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := &mockBookRepository{
		findByIDFunc: func(_ context.Context, id string) (*model.Book, error) {
			return nil, fmt.Errorf("%w: %s", catalogerrors.ErrNotFound, id)
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.GetByID(context.Background(), "65f000000000000000000001")
	appErr := asAppError(t, err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %v", apperrors.CodeNotFound, err)
	}
}

func TestGetByID_InvalidID(t *testing.T) {
	repo := &mockBookRepository{
		findByIDFunc: func(_ context.Context, id string) (*model.Book, error) {
			return nil, fmt.Errorf("%w: %s", catalogerrors.ErrInvalidID, id)
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.GetByID(context.Background(), "nope")
	appErr := asAppError(t, err)
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected %s, got %v", apperrors.CodeInvalidInput, err)
	}
}

func TestGetAll_ReturnsBooksAndCount(t *testing.T) {
	repo := &mockBookRepository{
		countFunc: func(_ context.Context) (int64, error) {
			return 42, nil
		},
		findAllFunc: func(_ context.Context, limit int, offset int64) ([]*model.Book, error) {
			if limit != 10 || offset != 20 {
				t.Errorf("expected limit=10 offset=20, got limit=%d offset=%d", limit, offset)
			}
			return []*model.Book{{Title: "A"}, {Title: "B"}}, nil
		},
	}
	svc := newTestService(repo, nil)

	books, count, err := svc.GetAll(context.Background(), 10, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 42 {
		t.Errorf("expected count 42, got %d", count)
	}
	if len(books) != 2 {
		t.Errorf("expected 2 books, got %d", len(books))
	}
}

func TestGetAll_CountError(t *testing.T) {
	repo := &mockBookRepository{
		countFunc: func(_ context.Context) (int64, error) {
			return 0, errors.New("connection lost")
		},
		findAllFunc: func(_ context.Context, _ int, _ int64) ([]*model.Book, error) {
			return nil, nil
		},
	}
	svc := newTestService(repo, nil)

	if _, _, err := svc.GetAll(context.Background(), 10, 0); err == nil {
		t.Fatal("expected error when count fails")
	}
}

func TestAdjustCopies_BorrowThenReturnRestoresCount(t *testing.T) {
	store := &memoryBookStore{books: map[string]*model.Book{
		"65f000000000000000000001": {ID: "65f000000000000000000001", Title: "B1", Copies: 3},
	}}
	repo := &mockBookRepository{adjustCopiesFunc: store.adjust}
	svc := newTestService(repo, nil)

	after, err := svc.AdjustCopies(context.Background(), "65f000000000000000000001", -1)
	if err != nil {
		t.Fatalf("borrow adjustment failed: %v", err)
	}
	if after != 2 {
		t.Errorf("expected 2 copies after borrow, got %d", after)
	}

	after, err = svc.AdjustCopies(context.Background(), "65f000000000000000000001", +1)
	if err != nil {
		t.Fatalf("return adjustment failed: %v", err)
	}
	if after != 3 {
		t.Errorf("expected 3 copies after return, got %d", after)
	}
}

func TestAdjustCopies_MissingBookCreatesNothing(t *testing.T) {
	store := &memoryBookStore{books: map[string]*model.Book{}}
	repo := &mockBookRepository{adjustCopiesFunc: store.adjust}
	svc := newTestService(repo, nil)

	_, err := svc.AdjustCopies(context.Background(), "65f0000000000000000000ff", -1)
	appErr := asAppError(t, err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %v", apperrors.CodeNotFound, err)
	}
	if len(store.books) != 0 {
		t.Errorf("expected no document to be created, store has %d", len(store.books))
	}
}

func TestAdjustCopies_ExhaustedInventory(t *testing.T) {
	store := &memoryBookStore{books: map[string]*model.Book{
		"65f000000000000000000001": {ID: "65f000000000000000000001", Title: "B1", Copies: 0},
	}}
	repo := &mockBookRepository{adjustCopiesFunc: store.adjust}
	svc := newTestService(repo, nil)

	_, err := svc.AdjustCopies(context.Background(), "65f000000000000000000001", -1)
	appErr := asAppError(t, err)
	if appErr.Code != apperrors.CodeInsufficientInventory {
		t.Errorf("expected %s, got %v", apperrors.CodeInsufficientInventory, err)
	}
	if store.books["65f000000000000000000001"].Copies != 0 {
		t.Errorf("expected count unchanged at 0, got %d", store.books["65f000000000000000000001"].Copies)
	}
}

func TestAdjustCopies_ZeroDelta(t *testing.T) {
	svc := newTestService(&mockBookRepository{}, nil)

	_, err := svc.AdjustCopies(context.Background(), "65f000000000000000000001", 0)
	appErr := asAppError(t, err)
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected %s, got %v", apperrors.CodeInvalidInput, err)
	}
}

func TestGetCategories(t *testing.T) {
	catRepo := &mockCategoryRepository{
		findAllFunc: func(_ context.Context) ([]*model.Category, error) {
			return []*model.Category{{Name: "Fiction"}, {Name: "Science"}}, nil
		},
	}
	svc := newTestService(&mockBookRepository{}, catRepo)

	categories, err := svc.GetCategories(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(categories) != 2 {
		t.Errorf("expected 2 categories, got %d", len(categories))
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockBookRepository{
		deleteFunc: func(_ context.Context, id string) error {
			return fmt.Errorf("%w: %s", catalogerrors.ErrNotFound, id)
		},
	}
	svc := newTestService(repo, nil)

	err := svc.Delete(context.Background(), "65f000000000000000000001")
	appErr := asAppError(t, err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %v", apperrors.CodeNotFound, err)
	}
}
