// Package device authenticates non-human callers. Devices hold a pre-shared
// opaque token checked by exact match -- structurally parallel to the human
// session but unrelated to it: no hashing, no lifecycle, no roles. The only
// device-facing operation is updating the device's own wifi settings.
package device

// Device represents a provisioned device row. Read-only from this
// package's perspective apart from the wifi columns.
type Device struct {
	DeviceID     string  `json:"device_id"`
	Token        *string `json:"-"` // Pre-shared secret. Never expose.
	WifiSSID     *string `json:"ssid_wifi,omitempty"`
	WifiPassword *string `json:"-"`
}

// UpdateWifiRequest is the payload a device posts to store its wifi
// settings.
type UpdateWifiRequest struct {
	SSID     string `json:"ssid_wifi" form:"ssid_wifi"`
	Password string `json:"password_wifi" form:"password_wifi"`
}
