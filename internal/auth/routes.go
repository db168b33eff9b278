package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all auth-related routes on the given Echo instance.
// The lifecycle routes are public -- anyone may register, activate, or ask
// for a reset. Admin provisioning lives under /admin behind the role gate.
func RegisterRoutes(e *echo.Echo, h *Handler, sessions *SessionManager) {
	// Public lifecycle routes.
	e.POST("/register", h.Register)
	e.GET("/activate", h.Activate)
	e.POST("/login", h.Login)
	e.GET("/logout", h.Logout)
	e.POST("/forgot-password", h.ForgotPassword)
	e.POST("/reset-password", h.ResetPassword)

	// Admin provisioning -- requires the administrator role marker.
	admin := e.Group("/admin", sessions.RequireAdmin())
	admin.POST("/users", h.CreateUser)
	admin.GET("/users", h.ListUsers)
}
