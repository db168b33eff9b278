package device

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fornolabs/gliderblog/internal/apperror"
)

// Handler handles HTTP requests from devices. The guard middleware has
// already verified the caller by the time these run.
type Handler struct {
	service DeviceService
}

// NewHandler creates a new device handler with the given service.
func NewHandler(service DeviceService) *Handler {
	return &Handler{service: service}
}

// UpdateWifi stores the wifi settings a device reports (POST /device/wifi).
func (h *Handler) UpdateWifi(c echo.Context) error {
	var req UpdateWifiRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	deviceID := GetDeviceID(c)
	if deviceID == "" {
		return apperror.NewUnauthorized("invalid device token")
	}

	if err := h.service.UpdateWifi(c.Request().Context(), deviceID, req.SSID, req.Password); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
