package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fornolabs/gliderblog/internal/apperror"
)

// Handler handles HTTP requests for the account lifecycle. Handlers are
// thin: they bind the request, call the service, and answer with a redirect
// (browser form flows) or JSON (API callers). No
// business logic lives here, and no status-code decisions beyond the
// success shape -- failures flow through the central apperror handler.
type Handler struct {
	service  AuthService
	sessions *SessionManager
}

// NewHandler creates a new auth handler with the given dependencies.
func NewHandler(service AuthService, sessions *SessionManager) *Handler {
	return &Handler{service: service, sessions: sessions}
}

// Register processes a self-service signup (POST /register).
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	if msg := validateCredentials(req.Username, req.Email, req.Password); msg != "" {
		return apperror.NewBadRequest(msg)
	}

	user, err := h.service.Register(c.Request().Context(), RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	if wantsJSON(c) {
		return c.JSON(http.StatusCreated, user)
	}
	return c.Redirect(http.StatusSeeOther, "/login?registered=1")
}

// Activate consumes an emailed activation token (GET /activate?token=...).
func (h *Handler) Activate(c echo.Context) error {
	if err := h.service.Activate(c.Request().Context(), c.QueryParam("token")); err != nil {
		return err
	}

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, map[string]string{"status": "activated"})
	}
	return c.Redirect(http.StatusSeeOther, "/login?activated=1")
}

// Login processes the login form (POST /login). On success the session
// cookies are issued and the browser lands on the feed.
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	user, err := h.service.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	h.sessions.Issue(c, user)

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, user)
	}
	return c.Redirect(http.StatusSeeOther, "/feed")
}

// Logout clears the session cookies (GET /logout) and returns to the
// public feed.
func (h *Handler) Logout(c echo.Context) error {
	h.sessions.Clear(c)

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, map[string]string{"status": "logged_out"})
	}
	return c.Redirect(http.StatusFound, "/feed")
}

// ForgotPassword starts a password reset (POST /forgot-password).
// The response is identical whether or not the email is registered.
func (h *Handler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if req.Email == "" {
		return apperror.NewBadRequest("email is required")
	}

	if err := h.service.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}

	if wantsJSON(c) {
		return c.JSON(http.StatusAccepted, map[string]string{"status": "reset_requested"})
	}
	return c.Redirect(http.StatusSeeOther, "/login?reset=sent")
}

// ResetPassword consumes an emailed reset token (POST /reset-password).
func (h *Handler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if req.Token == "" {
		return apperror.NewBadRequest("token is required")
	}
	if msg := validatePassword(req.Password); msg != "" {
		return apperror.NewBadRequest(msg)
	}

	if err := h.service.CompletePasswordReset(c.Request().Context(), req.Token, req.Password); err != nil {
		return err
	}

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, map[string]string{"status": "password_reset"})
	}
	return c.Redirect(http.StatusSeeOther, "/login?reset=success")
}

// --- Admin handlers (mounted behind RequireAdmin) ---

// CreateUser provisions an account with a chosen role (POST /admin/users).
func (h *Handler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	if msg := validateCredentials(req.Username, req.Email, req.Password); msg != "" {
		return apperror.NewBadRequest(msg)
	}

	user, err := h.service.CreateUser(c.Request().Context(), CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     Role(req.Role),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

// ListUsers returns all accounts (GET /admin/users).
func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.service.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"users": users})
}

// --- Helpers ---

// wantsJSON returns true if the client asked for JSON rather than the
// browser redirect flow.
func wantsJSON(c echo.Context) bool {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	return strings.Contains(accept, echo.MIMEApplicationJSON) ||
		strings.Contains(contentType, echo.MIMEApplicationJSON)
}

// validateCredentials performs basic server-side validation on a signup.
// Returns an error message or empty string.
func validateCredentials(username, email, password string) string {
	if username == "" {
		return "username is required"
	}
	if len(username) < 2 {
		return "username must be at least 2 characters"
	}
	if len(username) > 64 {
		return "username must be at most 64 characters"
	}
	if email == "" {
		return "email is required"
	}
	if !strings.Contains(email, "@") {
		return "email is not valid"
	}
	return validatePassword(password)
}

// validatePassword checks only presence and length bounds. There is
// deliberately no complexity policy.
func validatePassword(password string) string {
	if password == "" {
		return "password is required"
	}
	if len(password) < 8 {
		return "password must be at least 8 characters"
	}
	if len(password) > 128 {
		return "password must be at most 128 characters"
	}
	return ""
}
