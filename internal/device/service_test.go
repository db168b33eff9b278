package device

import (
	"context"
	"errors"
	"testing"

	"github.com/fornolabs/gliderblog/internal/apperror"
)

// mockDeviceRepo implements DeviceRepository for testing.
type mockDeviceRepo struct {
	credentialsMatchFn func(ctx context.Context, deviceID, token string) (bool, error)
	upsertWifiFn       func(ctx context.Context, deviceID, ssid, password string) error
}

func (m *mockDeviceRepo) CredentialsMatch(ctx context.Context, deviceID, token string) (bool, error) {
	if m.credentialsMatchFn != nil {
		return m.credentialsMatchFn(ctx, deviceID, token)
	}
	return false, nil
}

func (m *mockDeviceRepo) UpsertWifi(ctx context.Context, deviceID, ssid, password string) error {
	if m.upsertWifiFn != nil {
		return m.upsertWifiFn(ctx, deviceID, ssid, password)
	}
	return nil
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected unauthorized error, got nil")
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != 401 || appErr.Type != "unauthorized" {
		t.Errorf("expected 401/unauthorized, got %d/%s", appErr.Code, appErr.Type)
	}
}

func TestVerify_Success(t *testing.T) {
	repo := &mockDeviceRepo{
		credentialsMatchFn: func(ctx context.Context, deviceID, token string) (bool, error) {
			return deviceID == "glider-01" && token == "secret", nil
		},
	}

	if err := NewDeviceService(repo).Verify(context.Background(), "glider-01", "secret"); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerify_WrongToken(t *testing.T) {
	repo := &mockDeviceRepo{
		credentialsMatchFn: func(ctx context.Context, deviceID, token string) (bool, error) {
			return false, nil
		},
	}

	assertUnauthorized(t, NewDeviceService(repo).Verify(context.Background(), "glider-01", "wrong"))
}

// Missing credentials are rejected before the repository is consulted.
func TestVerify_MissingCredentials(t *testing.T) {
	called := false
	repo := &mockDeviceRepo{
		credentialsMatchFn: func(ctx context.Context, deviceID, token string) (bool, error) {
			called = true
			return true, nil
		},
	}
	svc := NewDeviceService(repo)

	assertUnauthorized(t, svc.Verify(context.Background(), "", "secret"))
	assertUnauthorized(t, svc.Verify(context.Background(), "glider-01", ""))
	if called {
		t.Error("expected no repository call for missing credentials")
	}
}

// A repository failure must not let a device through.
func TestVerify_RepoError(t *testing.T) {
	repo := &mockDeviceRepo{
		credentialsMatchFn: func(ctx context.Context, deviceID, token string) (bool, error) {
			return false, errors.New("connection lost")
		},
	}

	if err := NewDeviceService(repo).Verify(context.Background(), "glider-01", "secret"); err == nil {
		t.Fatal("expected error when repository fails")
	}
}

func TestUpdateWifi(t *testing.T) {
	var gotID, gotSSID, gotPassword string
	repo := &mockDeviceRepo{
		upsertWifiFn: func(ctx context.Context, deviceID, ssid, password string) error {
			gotID, gotSSID, gotPassword = deviceID, ssid, password
			return nil
		},
	}

	err := NewDeviceService(repo).UpdateWifi(context.Background(), "glider-01", "HomeNet", "wifipass")
	if err != nil {
		t.Fatalf("UpdateWifi: %v", err)
	}
	if gotID != "glider-01" || gotSSID != "HomeNet" || gotPassword != "wifipass" {
		t.Errorf("unexpected upsert args: %q %q %q", gotID, gotSSID, gotPassword)
	}
}

func TestUpdateWifi_MissingSSID(t *testing.T) {
	err := NewDeviceService(&mockDeviceRepo{}).UpdateWifi(context.Background(), "glider-01", "", "wifipass")
	if err == nil {
		t.Fatal("expected error for missing ssid")
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 400 {
		t.Errorf("expected 400, got %v", err)
	}
}
