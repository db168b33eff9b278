package device

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fornolabs/gliderblog/internal/apperror"
)

// DeviceService defines the business logic contract for device calls.
type DeviceService interface {
	// Verify checks the pre-shared (device_id, token) pair. Fails closed:
	// any miss -- unknown device, wrong token, missing values -- is the
	// same Unauthorized.
	Verify(ctx context.Context, deviceID, token string) error

	// UpdateWifi stores the wifi settings a verified device reports.
	UpdateWifi(ctx context.Context, deviceID, ssid, password string) error
}

// deviceService implements DeviceService.
type deviceService struct {
	repo DeviceRepository
}

// NewDeviceService creates a new device service with the given repository.
func NewDeviceService(repo DeviceRepository) DeviceService {
	return &deviceService{repo: repo}
}

// Verify authenticates a device by exact credential match.
func (s *deviceService) Verify(ctx context.Context, deviceID, token string) error {
	if deviceID == "" || token == "" {
		return apperror.NewUnauthorized("invalid device token")
	}

	ok, err := s.repo.CredentialsMatch(ctx, deviceID, token)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("verifying device: %w", err))
	}
	if !ok {
		slog.Warn("device verification failed", slog.String("device_id", deviceID))
		return apperror.NewUnauthorized("invalid device token")
	}

	return nil
}

// UpdateWifi stores wifi settings for an already-verified device.
func (s *deviceService) UpdateWifi(ctx context.Context, deviceID, ssid, password string) error {
	if ssid == "" {
		return apperror.NewBadRequest("ssid_wifi is required")
	}

	if err := s.repo.UpsertWifi(ctx, deviceID, ssid, password); err != nil {
		return apperror.NewInternal(fmt.Errorf("updating device wifi: %w", err))
	}

	slog.Info("device wifi updated", slog.String("device_id", deviceID))
	return nil
}
