package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newSessionTestContext(t *testing.T, cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func issuedCookies(t *testing.T, rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	t.Helper()
	cookies := make(map[string]*http.Cookie)
	res := http.Response{Header: rec.Header()}
	for _, c := range res.Cookies() {
		cookies[c.Name] = c
	}
	return cookies
}

func TestSessionManager_Issue(t *testing.T) {
	mgr := NewSessionManager(time.Hour)
	c, rec := newSessionTestContext(t)

	mgr.Issue(c, &User{Username: "alice", Role: RoleAdmin})

	cookies := issuedCookies(t, rec)
	identity, ok := cookies["user_session"]
	if !ok {
		t.Fatal("expected user_session cookie to be set")
	}
	if identity.Value != "alice" {
		t.Errorf("expected identity cookie alice, got %q", identity.Value)
	}
	if identity.MaxAge != 3600 {
		t.Errorf("expected 3600s max-age, got %d", identity.MaxAge)
	}
	if !identity.HttpOnly {
		t.Error("expected identity cookie to be HttpOnly")
	}
	if identity.SameSite != http.SameSiteLaxMode {
		t.Errorf("expected SameSite Lax, got %v", identity.SameSite)
	}

	role, ok := cookies["user_role"]
	if !ok {
		t.Fatal("expected user_role cookie to be set")
	}
	if role.Value != "admin" {
		t.Errorf("expected role cookie admin, got %q", role.Value)
	}
}

func TestSessionManager_Clear(t *testing.T) {
	mgr := NewSessionManager(time.Hour)
	c, rec := newSessionTestContext(t,
		&http.Cookie{Name: "user_session", Value: "alice"},
		&http.Cookie{Name: "user_role", Value: "user"},
	)

	mgr.Clear(c)

	for name, cookie := range issuedCookies(t, rec) {
		if cookie.MaxAge >= 0 {
			t.Errorf("expected cookie %s to be expired, got max-age %d", name, cookie.MaxAge)
		}
	}
}

func TestSessionManager_Current(t *testing.T) {
	mgr := NewSessionManager(time.Hour)

	c, _ := newSessionTestContext(t,
		&http.Cookie{Name: "user_session", Value: "alice"},
		&http.Cookie{Name: "user_role", Value: "admin"},
	)
	session, err := mgr.Current(c)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if session.Username != "alice" || !session.IsAdmin() {
		t.Errorf("unexpected session: %+v", session)
	}
}

func TestSessionManager_Current_NoCookie(t *testing.T) {
	mgr := NewSessionManager(time.Hour)
	c, _ := newSessionTestContext(t)

	if _, err := mgr.Current(c); err == nil {
		t.Fatal("expected error without identity cookie")
	}
}

// A tampered role cookie never grants privileges; an unrecognized value
// degrades to the standard role.
func TestSessionManager_Current_BogusRole(t *testing.T) {
	mgr := NewSessionManager(time.Hour)
	c, _ := newSessionTestContext(t,
		&http.Cookie{Name: "user_session", Value: "alice"},
		&http.Cookie{Name: "user_role", Value: "root"},
	)

	session, err := mgr.Current(c)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if session.IsAdmin() {
		t.Error("expected bogus role to not grant admin")
	}
	if session.Role != RoleUser {
		t.Errorf("expected role to degrade to user, got %q", session.Role)
	}
}

func TestRequireAuth(t *testing.T) {
	mgr := NewSessionManager(time.Hour)
	handler := mgr.RequireAuth()(func(c echo.Context) error {
		return c.String(http.StatusOK, GetSession(c).Username)
	})

	// Authenticated request passes through with the session on the context.
	c, rec := newSessionTestContext(t,
		&http.Cookie{Name: "user_session", Value: "alice"},
		&http.Cookie{Name: "user_role", Value: "user"},
	)
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "alice") {
		t.Errorf("expected handler to see session for alice, got %q", rec.Body.String())
	}

	// Anonymous request is rejected before the handler runs.
	c, _ = newSessionTestContext(t)
	if err := handler(c); err == nil {
		t.Fatal("expected anonymous request to be rejected")
	}
}

func TestRequireAdmin(t *testing.T) {
	mgr := NewSessionManager(time.Hour)
	handler := mgr.RequireAdmin()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	c, _ := newSessionTestContext(t,
		&http.Cookie{Name: "user_session", Value: "root"},
		&http.Cookie{Name: "user_role", Value: "admin"},
	)
	if err := handler(c); err != nil {
		t.Fatalf("expected admin to pass, got %v", err)
	}

	c, _ = newSessionTestContext(t,
		&http.Cookie{Name: "user_session", Value: "alice"},
		&http.Cookie{Name: "user_role", Value: "user"},
	)
	if err := handler(c); err == nil {
		t.Fatal("expected non-admin to be rejected")
	}

	c, _ = newSessionTestContext(t)
	if err := handler(c); err == nil {
		t.Fatal("expected anonymous request to be rejected")
	}
}

func TestOptionalAuth(t *testing.T) {
	mgr := NewSessionManager(time.Hour)
	handler := mgr.OptionalAuth()(func(c echo.Context) error {
		if s := GetSession(c); s != nil {
			return c.String(http.StatusOK, s.Username)
		}
		return c.String(http.StatusOK, "anonymous")
	})

	c, rec := newSessionTestContext(t,
		&http.Cookie{Name: "user_session", Value: "alice"},
		&http.Cookie{Name: "user_role", Value: "user"},
	)
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Body.String() != "alice" {
		t.Errorf("expected alice, got %q", rec.Body.String())
	}

	c, rec = newSessionTestContext(t)
	if err := handler(c); err != nil {
		t.Fatalf("expected anonymous request to pass, got %v", err)
	}
	if rec.Body.String() != "anonymous" {
		t.Errorf("expected anonymous, got %q", rec.Body.String())
	}
}
