package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"autolibrarian/internal/auth/middleware"
	"autolibrarian/internal/auth/token"
	apperrors "autolibrarian/pkg/errors"
	"autolibrarian/pkg/logger"
	"autolibrarian/pkg/model"
)

const testSecret = "test-secret"

type mockBorrowService struct {
	borrowFunc      func(ctx context.Context, record *model.BorrowRecord, claimEmail string) error
	listByOwnerFunc func(ctx context.Context, email string) ([]*model.BorrowRecord, error)
	returnFunc      func(ctx context.Context, id string, claimEmail string) error
}

func (m *mockBorrowService) Borrow(ctx context.Context, record *model.BorrowRecord, claimEmail string) error {
	return m.borrowFunc(ctx, record, claimEmail)
}

func (m *mockBorrowService) ListByOwner(ctx context.Context, email string) ([]*model.BorrowRecord, error) {
	return m.listByOwnerFunc(ctx, email)
}

func (m *mockBorrowService) Return(ctx context.Context, id string, claimEmail string) error {
	return m.returnFunc(ctx, id, claimEmail)
}

func newTestRouter(svc *mockBorrowService) *httprouter.Router {
	log := logger.New(logger.Config{Level: "error", Service: "test"})
	guard := middleware.NewGuard(testSecret, log)
	router := httprouter.New()
	NewBorrowHandler(svc, log).RegisterRoutes(router, guard)
	return router
}

func withSession(t *testing.T, req *http.Request, email string) *http.Request {
	t.Helper()
	signed, err := token.Issue(email, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: signed})
	return req
}

func TestBorrow_RequiresSession(t *testing.T) {
	router := newTestRouter(&mockBorrowService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/borrow-books", strings.NewReader(`{}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestBorrow_PassesClaimIdentity(t *testing.T) {
	var gotClaim string
	svc := &mockBorrowService{
		borrowFunc: func(_ context.Context, record *model.BorrowRecord, claimEmail string) error {
			gotClaim = claimEmail
			record.ID = "65f100000000000000000001"
			return nil
		},
	}
	router := newTestRouter(svc)

	body := `{"book_id":"65f000000000000000000001","email":"a@x.com"}`
	req := withSession(t, httptest.NewRequest(http.MethodPost, "/borrow-books", strings.NewReader(body)), "a@x.com")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotClaim != "a@x.com" {
		t.Errorf("expected claim email a@x.com, got %q", gotClaim)
	}

	var resp struct {
		Data model.BorrowRecord `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.ID == "" {
		t.Error("expected created record id in response")
	}
}

func TestBorrow_MalformedBody(t *testing.T) {
	router := newTestRouter(&mockBorrowService{})

	req := withSession(t, httptest.NewRequest(http.MethodPost, "/borrow-books", strings.NewReader("{not json")), "a@x.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestListByOwner_OwnRecords(t *testing.T) {
	svc := &mockBorrowService{
		listByOwnerFunc: func(_ context.Context, email string) ([]*model.BorrowRecord, error) {
			return []*model.BorrowRecord{{ID: "65f100000000000000000001", Email: email}}, nil
		},
	}
	router := newTestRouter(svc)

	req := withSession(t, httptest.NewRequest(http.MethodGet, "/borrowed-books/a@x.com", nil), "a@x.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data []model.BorrowRecord `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Errorf("expected 1 record, got %d", len(resp.Data))
	}
}

func TestListByOwner_CrossIdentityForbidden(t *testing.T) {
	svc := &mockBorrowService{
		listByOwnerFunc: func(_ context.Context, _ string) ([]*model.BorrowRecord, error) {
			t.Fatal("service should not be reached for another borrower's records")
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	req := withSession(t, httptest.NewRequest(http.MethodGet, "/borrowed-books/b@x.com", nil), "a@x.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	var resp struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != apperrors.CodeForbidden {
		t.Errorf("expected code %s, got %s", apperrors.CodeForbidden, resp.Code)
	}
}

func TestListByOwner_CaseVariantOfOwnEmailForbidden(t *testing.T) {
	svc := &mockBorrowService{
		listByOwnerFunc: func(_ context.Context, _ string) ([]*model.BorrowRecord, error) {
			t.Fatal("service should not be reached: ownership is byte-for-byte")
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	req := withSession(t, httptest.NewRequest(http.MethodGet, "/borrowed-books/A@X.com", nil), "a@x.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a case variant of the caller's own email, got %d", rec.Code)
	}
}

func TestListByOwner_NoSession(t *testing.T) {
	router := newTestRouter(&mockBorrowService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/borrowed-books/a@x.com", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestReturn_Success(t *testing.T) {
	var gotID, gotClaim string
	svc := &mockBorrowService{
		returnFunc: func(_ context.Context, id string, claimEmail string) error {
			gotID = id
			gotClaim = claimEmail
			return nil
		},
	}
	router := newTestRouter(svc)

	req := withSession(t, httptest.NewRequest(http.MethodDelete, "/borrowed-books/65f100000000000000000001", nil), "a@x.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if gotID != "65f100000000000000000001" || gotClaim != "a@x.com" {
		t.Errorf("unexpected call: id=%q claim=%q", gotID, gotClaim)
	}
}

func TestReturn_NotFound(t *testing.T) {
	svc := &mockBorrowService{
		returnFunc: func(_ context.Context, id string, _ string) error {
			return apperrors.NotFoundWithID("Borrow record", id)
		},
	}
	router := newTestRouter(svc)

	req := withSession(t, httptest.NewRequest(http.MethodDelete, "/borrowed-books/65f100000000000000000001", nil), "a@x.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
