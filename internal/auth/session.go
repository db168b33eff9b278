package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fornolabs/gliderblog/internal/apperror"
)

// Cookie names for the client-held session. The identity cookie carries the
// username, the role cookie the role marker. Sessions live entirely on the
// client: the server keeps no session table, expiry is enforced by the
// cookies' own max-age, and an issued session cannot be revoked before it
// expires. Accepted limitation of this design, not an oversight -- logout
// only clears the cookies on the client that asked.
const (
	identityCookieName = "user_session"
	roleCookieName     = "user_role"
)

// Context keys for storing session data in Echo context.
const contextKeySession = "auth_session"

// Session is the authenticated identity/role pair carried between requests.
type Session struct {
	Username string
	Role     Role
}

// IsAdmin returns true if the session carries the administrator marker.
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// SessionManager issues and validates the client-held session cookies.
type SessionManager struct {
	ttl time.Duration
}

// NewSessionManager creates a session manager issuing sessions with the
// given lifetime (60 minutes by default config).
func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{ttl: ttl}
}

// Issue sets the session cookies for a freshly authenticated user. The
// cookies are HttpOnly (JS can't read them), Secure behind TLS, SameSite=Lax.
func (m *SessionManager) Issue(c echo.Context, user *User) {
	maxAge := int(m.ttl.Seconds())
	setCookie(c, identityCookieName, user.Username, maxAge)
	setCookie(c, roleCookieName, string(user.Role), maxAge)
}

// Clear removes the session cookies, logging the client out.
func (m *SessionManager) Clear(c echo.Context) {
	setCookie(c, identityCookieName, "", -1)
	setCookie(c, roleCookieName, "", -1)
}

// Current reads the session from the request cookies. Returns
// NotAuthenticated if the identity cookie is absent or empty. A missing
// role cookie degrades to the standard role rather than failing the
// request -- role only matters at admin gates.
func (m *SessionManager) Current(c echo.Context) (*Session, error) {
	username := cookieValue(c, identityCookieName)
	if username == "" {
		return nil, apperror.NewNotAuthenticated()
	}

	role := Role(cookieValue(c, roleCookieName))
	if !role.Valid() {
		role = RoleUser
	}

	return &Session{Username: username, Role: role}, nil
}

// RequireAuth returns middleware that rejects requests without a session
// and injects the session into the request context for downstream handlers.
func (m *SessionManager) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, err := m.Current(c)
			if err != nil {
				return err
			}
			c.Set(contextKeySession, session)
			return next(c)
		}
	}
}

// RequireAdmin returns middleware that additionally requires the
// administrator role marker. Missing session is NotAuthenticated;
// authenticated but non-admin is Forbidden.
func (m *SessionManager) RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, err := m.Current(c)
			if err != nil {
				return err
			}
			if !session.IsAdmin() {
				return apperror.NewForbidden("administrator access required")
			}
			c.Set(contextKeySession, session)
			return next(c)
		}
	}
}

// OptionalAuth returns middleware that injects the session when present
// but lets anonymous requests through. Used on pages that render for
// everyone and merely personalize when a session exists.
func (m *SessionManager) OptionalAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if session, err := m.Current(c); err == nil {
				c.Set(contextKeySession, session)
			}
			return next(c)
		}
	}
}

// GetSession retrieves the authenticated session from the Echo context.
// Returns nil if the request is not authenticated (middleware not applied).
func GetSession(c echo.Context) *Session {
	session, ok := c.Get(contextKeySession).(*Session)
	if !ok {
		return nil
	}
	return session
}

// --- Cookie helpers ---

// cookieValue reads a cookie's value, empty string if absent.
func cookieValue(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// setCookie writes a session cookie. MaxAge -1 deletes it.
func setCookie(c echo.Context, name, value string, maxAge int) {
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}
