package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/crewhub/internal/app/system/auth"
	"go.uber.org/zap"
)

func newManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-key-0123456789", "crewhub-test-session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return sm
}

func TestCurrentUser_NotSignedIn(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := auth.CurrentUser(req); ok {
		t.Error("expected no current user on a bare request")
	}
}

func TestWithTestUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u1", Name: "Test", Role: "user"})

	u, ok := auth.CurrentUser(req)
	if !ok {
		t.Fatal("expected current user in context")
	}
	if u.ID != "u1" || u.Role != "user" {
		t.Errorf("unexpected user: %+v", u)
	}
}

func TestRequireSignedIn_Unauthorized(t *testing.T) {
	sm := newManager(t)
	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without a user")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireSignedIn_PassesThrough(t *testing.T) {
	sm := newManager(t)
	called := false
	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := auth.WithTestUser(httptest.NewRequest(http.MethodGet, "/", nil), &auth.SessionUser{ID: "u1"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("expected handler to run for signed-in user")
	}
}

func TestSignInThenLoad(t *testing.T) {
	sm := newManager(t)

	// Sign in and capture the cookie.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	if err := sm.SignIn(rec, req, auth.SessionUser{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: "user"}); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	// Replay the cookie through the loader middleware.
	var got *auth.SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req2.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req2)

	if got == nil {
		t.Fatal("expected user loaded from session cookie")
	}
	if got.ID != "u1" || got.Email != "ada@example.com" {
		t.Errorf("unexpected user: %+v", got)
	}
}
