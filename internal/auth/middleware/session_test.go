package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"autolibrarian/internal/auth/token"
	apperrors "autolibrarian/pkg/errors"
	"autolibrarian/pkg/logger"
)

const testSecret = "guard-test-secret"

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Service: "test"})
}

func noopHandle(called *bool) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}
}

func TestGuard_NoCookie(t *testing.T) {
	guard := NewGuard(testSecret, testLogger())

	var called bool
	h := guard.Handle(CapabilitySession, noopHandle(&called))

	req := httptest.NewRequest(http.MethodGet, "/borrowed-books/a@x.com", nil)
	rec := httptest.NewRecorder()
	h(rec, req, httprouter.Params{{Key: "email", Value: "a@x.com"}})

	if called {
		t.Error("handler must not run without a session cookie")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestGuard_InvalidCookie(t *testing.T) {
	guard := NewGuard(testSecret, testLogger())

	var called bool
	h := guard.Handle(CapabilitySession, noopHandle(&called))

	req := httptest.NewRequest(http.MethodGet, "/borrowed-books/a@x.com", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	rec := httptest.NewRecorder()
	h(rec, req, nil)

	if called {
		t.Error("handler must not run with an invalid session cookie")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestGuard_WrongSecret(t *testing.T) {
	guard := NewGuard(testSecret, testLogger())

	tok, err := token.Issue("a@x.com", "another-secret", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	var called bool
	h := guard.Handle(CapabilitySession, noopHandle(&called))

	req := httptest.NewRequest(http.MethodGet, "/borrowed-books/a@x.com", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: tok})
	rec := httptest.NewRecorder()
	h(rec, req, nil)

	if called {
		t.Error("handler must not run with a token signed by another secret")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestGuard_ValidSession(t *testing.T) {
	guard := NewGuard(testSecret, testLogger())

	tok, err := token.Issue("a@x.com", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	var gotEmail string
	h := guard.Handle(CapabilitySession, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Fatal("claims missing from context")
		}
		gotEmail = claims.Email
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/borrowed-books/a@x.com", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: tok})
	rec := httptest.NewRecorder()
	h(rec, req, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotEmail != "a@x.com" {
		t.Errorf("expected claim email a@x.com, got %s", gotEmail)
	}
}

func TestGuard_CapabilityNoneSkipsGate(t *testing.T) {
	guard := NewGuard(testSecret, testLogger())

	var called bool
	h := guard.Handle(CapabilityNone, noopHandle(&called))

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	rec := httptest.NewRecorder()
	h(rec, req, nil)

	if !called {
		t.Error("unauthenticated route must run without a cookie")
	}
}

func TestRequireOwner(t *testing.T) {
	claims := &token.Claims{Email: "a@x.com"}
	ctx := context.WithValue(context.Background(), claimsKey{}, claims)

	if err := RequireOwner(ctx, "a@x.com"); err != nil {
		t.Errorf("exact match must be allowed, got %v", err)
	}

	err := RequireOwner(ctx, "b@y.com")
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeForbidden {
		t.Errorf("mismatch must be FORBIDDEN, got %s", appErr.Code)
	}

	// Case differences are a mismatch too: comparison is byte-for-byte.
	if err := RequireOwner(ctx, "A@x.com"); err == nil {
		t.Error("case-differing identity must be rejected")
	}

	err = RequireOwner(context.Background(), "a@x.com")
	appErr = apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeUnauthorized {
		t.Errorf("missing claims must be UNAUTHORIZED, got %s", appErr.Code)
	}
}
