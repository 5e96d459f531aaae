package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeVerifier struct {
	userID string
	err    error
}

func (f fakeVerifier) VerifyAccess(string) (string, error) {
	return f.userID, f.err
}

func TestRequireAuthFromCookie(t *testing.T) {
	var seenUserID string
	handler := RequireAuth(fakeVerifier{userID: "user-1"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "token"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seenUserID != "user-1" {
		t.Fatalf("expected user-1 in context, got %q", seenUserID)
	}
}

func TestRequireAuthFromBearerHeader(t *testing.T) {
	handler := RequireAuth(fakeVerifier{userID: "user-2"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	handler := RequireAuth(fakeVerifier{userID: "user-1"})(next)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized || called {
		t.Fatalf("expected 401 without token, got %d called=%v", rec.Code, called)
	}

	handler = RequireAuth(fakeVerifier{err: errors.New("expired")})(next)
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "stale"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized || called {
		t.Fatalf("expected 401 for invalid token, got %d called=%v", rec.Code, called)
	}
}

func TestOptionalAuthPassesAnonymously(t *testing.T) {
	var seenUserID string
	handler := OptionalAuth(fakeVerifier{err: errors.New("nope")})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/channel/alice", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seenUserID != "" {
		t.Fatalf("expected anonymous context, got %q", seenUserID)
	}
}
