package device

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the device endpoints behind the credential guard.
func RegisterRoutes(e *echo.Echo, h *Handler, service DeviceService) {
	g := e.Group("/device", RequireDevice(service))
	g.POST("/wifi", h.UpdateWifi)
}
