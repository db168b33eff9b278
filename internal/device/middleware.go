package device

import (
	"github.com/labstack/echo/v4"
)

// Header names devices use to present their credentials.
const (
	headerDeviceID    = "X-Device-ID"
	headerDeviceToken = "X-Device-Token"
)

// deviceIDContextKey is the Echo context key for the verified device id.
const deviceIDContextKey = "device_id"

// GetDeviceID retrieves the verified device id from the request context.
// Returns empty string if the guard middleware was not applied.
func GetDeviceID(c echo.Context) string {
	id, _ := c.Get(deviceIDContextKey).(string)
	return id
}

// RequireDevice returns middleware that authenticates machine callers via
// the device credential headers. The verified device id is stored in the
// context for downstream handlers. Any verification miss fails closed.
func RequireDevice(service DeviceService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			deviceID := c.Request().Header.Get(headerDeviceID)
			token := c.Request().Header.Get(headerDeviceToken)

			if err := service.Verify(c.Request().Context(), deviceID, token); err != nil {
				return err
			}

			c.Set(deviceIDContextKey, deviceID)
			return next(c)
		}
	}
}
