package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DeviceRepository defines the data access contract for device records.
type DeviceRepository interface {
	// CredentialsMatch reports whether a device row exists with exactly
	// this (device_id, device_token) pair. A device with no token set
	// never matches.
	CredentialsMatch(ctx context.Context, deviceID, token string) (bool, error)

	// UpsertWifi stores the wifi settings for a device, creating the row
	// if it doesn't exist yet.
	UpsertWifi(ctx context.Context, deviceID, ssid, password string) error
}

// deviceRepository implements DeviceRepository with hand-written MariaDB queries.
type deviceRepository struct {
	db *sql.DB
}

// NewDeviceRepository creates a new device repository backed by the given DB pool.
func NewDeviceRepository(db *sql.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

// CredentialsMatch checks the exact pair in one keyed lookup.
func (r *deviceRepository) CredentialsMatch(ctx context.Context, deviceID, token string) (bool, error) {
	query := `SELECT 1 FROM devices WHERE device_id = ? AND device_token = ?`

	var one int
	err := r.db.QueryRowContext(ctx, query, deviceID, token).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking device credentials: %w", err)
	}
	return true, nil
}

// UpsertWifi writes the wifi settings, inserting the device row if needed.
func (r *deviceRepository) UpsertWifi(ctx context.Context, deviceID, ssid, password string) error {
	query := `INSERT INTO devices (device_id, ssid_wifi, password_wifi)
	          VALUES (?, ?, ?)
	          ON DUPLICATE KEY UPDATE
	              ssid_wifi = VALUES(ssid_wifi),
	              password_wifi = VALUES(password_wifi)`

	if _, err := r.db.ExecContext(ctx, query, deviceID, ssid, password); err != nil {
		return fmt.Errorf("upserting device wifi: %w", err)
	}
	return nil
}
