package blog

import (
	"github.com/labstack/echo/v4"

	"github.com/fornolabs/gliderblog/internal/auth"
)

// RegisterRoutes sets up the blog routes. The feed is public; writing
// requires a session.
func RegisterRoutes(e *echo.Echo, h *Handler, sessions *auth.SessionManager) {
	e.GET("/feed", h.Feed, sessions.OptionalAuth())

	authed := e.Group("/posts", sessions.RequireAuth())
	authed.POST("", h.AddPost)
	authed.DELETE("/:id", h.DeletePost)

	// Link-based delete for plain HTML forms, same handler.
	authed.GET("/delete/:id", h.DeletePost)
}
