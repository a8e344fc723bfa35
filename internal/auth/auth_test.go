package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/strideapp/stride/internal/db"
	"github.com/strideapp/stride/internal/repository"
)

func testService(t *testing.T) *Service {
	t.Helper()

	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(conn.DB); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	return NewService(repository.NewUserRepository(conn), "test-secret", time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := testService(t)

	user, token, err := svc.Register("Alex@Example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "alex@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if token == "" {
		t.Error("expected a token on register")
	}

	loggedIn, token, err := svc.Login("alex@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("login returned user %q, want %q", loggedIn.ID, user.ID)
	}

	userID, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != user.ID {
		t.Errorf("token subject = %q, want %q", userID, user.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := testService(t)

	if _, _, err := svc.Register("not-an-email", "long enough password"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}
	if _, _, err := svc.Register("a@example.com", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := testService(t)

	if _, _, err := svc.Register("a@example.com", "first password"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, _, err := svc.Register("a@example.com", "second password"); !errors.Is(err, repository.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := testService(t)
	if _, _, err := svc.Register("a@example.com", "the right password"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login("a@example.com", "the wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login("nobody@example.com", "whatever password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := testService(t)
	svc.expiry = -time.Minute

	_, token, err := svc.Register("a@example.com", "long enough password")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	svc := testService(t)
	other := NewService(nil, "other-secret", time.Hour)

	_, token, err := svc.Register("a@example.com", "long enough password")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken across secrets, got %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	svc := testService(t)
	user, token, err := svc.Register("a@example.com", "long enough password")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	var gotUserID string
	handler := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserID(r.Context())
	}))

	// Valid bearer token.
	req := httptest.NewRequest("GET", "/api/v1/goals", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: status %d", rec.Code)
	}
	if gotUserID != user.ID {
		t.Errorf("context user = %q, want %q", gotUserID, user.ID)
	}

	// Missing header.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/goals", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing header: status %d", rec.Code)
	}

	// Garbage token.
	req = httptest.NewRequest("GET", "/api/v1/goals", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status %d", rec.Code)
	}
}
