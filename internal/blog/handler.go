package blog

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fornolabs/gliderblog/internal/apperror"
	"github.com/fornolabs/gliderblog/internal/auth"
)

// Handler handles HTTP requests for the blog. Thin by convention: bind,
// call the service, answer with JSON or a redirect.
type Handler struct {
	service BlogService
}

// NewHandler creates a new blog handler with the given service.
func NewHandler(service BlogService) *Handler {
	return &Handler{service: service}
}

// Feed serves the public feed (GET /feed). Accessible without a session;
// when one is present the response also names the viewer, so a client can
// render its logged-in state.
func (h *Handler) Feed(c echo.Context) error {
	posts, err := h.service.Feed(c.Request().Context())
	if err != nil {
		return err
	}

	resp := map[string]any{"posts": posts}
	if session := auth.GetSession(c); session != nil {
		resp["username"] = session.Username
	}

	return c.JSON(http.StatusOK, resp)
}

// AddPost creates a post for the logged-in user (POST /posts).
func (h *Handler) AddPost(c echo.Context) error {
	session := auth.GetSession(c)
	if session == nil {
		return apperror.NewNotAuthenticated()
	}

	var req AddPostRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if strings.TrimSpace(req.Title) == "" {
		return apperror.NewBadRequest("title is required")
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperror.NewBadRequest("body is required")
	}

	if err := h.service.AddPost(c.Request().Context(), session.Username, req.Title, req.Body); err != nil {
		return err
	}

	if wantsJSON(c) {
		return c.JSON(http.StatusCreated, map[string]string{"status": "created"})
	}
	return c.Redirect(http.StatusSeeOther, "/feed")
}

// DeletePost removes one of the caller's posts. Mounted both as
// DELETE /posts/:id and as GET /posts/delete/:id so plain HTML links can
// trigger it without JavaScript.
func (h *Handler) DeletePost(c echo.Context) error {
	session := auth.GetSession(c)
	if session == nil {
		return apperror.NewNotAuthenticated()
	}

	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperror.NewBadRequest("invalid post id")
	}

	if err := h.service.DeletePost(c.Request().Context(), session.Username, postID); err != nil {
		return err
	}

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
	}
	return c.Redirect(http.StatusSeeOther, "/feed")
}

// wantsJSON returns true if the client asked for JSON rather than the
// browser redirect flow.
func wantsJSON(c echo.Context) bool {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	return strings.Contains(accept, echo.MIMEApplicationJSON) ||
		strings.Contains(contentType, echo.MIMEApplicationJSON)
}
