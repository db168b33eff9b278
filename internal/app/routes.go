package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fornolabs/gliderblog/internal/auth"
	"github.com/fornolabs/gliderblog/internal/blog"
	"github.com/fornolabs/gliderblog/internal/device"
)

// RegisterRoutes builds each feature package's repository/service/handler
// chain from the shared infrastructure and mounts its routes. This is the
// single place where all routes are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// --- Auth: account lifecycle, sessions, admin provisioning ---
	sessions := auth.NewSessionManager(a.Config.Auth.SessionTTL)
	userRepo := auth.NewUserRepository(a.DB)
	authService := auth.NewAuthService(userRepo, a.Mail, a.Config.BaseURL)
	auth.RegisterRoutes(e, auth.NewHandler(authService, sessions), sessions)

	// --- Blog: public feed + authenticated posting ---
	blogRepo := blog.NewBlogRepository(a.DB)
	blogService := blog.NewBlogService(blogRepo, a.Redis)
	blog.RegisterRoutes(e, blog.NewHandler(blogService), sessions)

	// --- Device: guarded machine-to-machine endpoint ---
	deviceRepo := device.NewDeviceRepository(a.DB)
	deviceService := device.NewDeviceService(deviceRepo)
	device.RegisterRoutes(e, device.NewHandler(deviceService), deviceService)

	// --- Public utility routes ---

	// The feed is the landing page.
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/feed")
	})

	// Login landing spot for the redirect flows. The HTML front-end mounts
	// here; until then the query flags are echoed back so clients can
	// render the post-redirect state.
	e.GET("/login", func(c echo.Context) error {
		resp := map[string]string{"page": "login"}
		for _, flag := range []string{"registered", "activated", "reset", "error"} {
			if v := c.QueryParam(flag); v != "" {
				resp[flag] = v
			}
		}
		return c.JSON(http.StatusOK, resp)
	})

	// Health check endpoint for container orchestration.
	e.GET("/healthz", a.healthz)
}

// healthz verifies the dependencies this process cannot work without.
// Redis is deliberately excluded: the feed cache degrades gracefully.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := a.DB.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"db":     err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
