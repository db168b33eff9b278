package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fornolabs/gliderblog/internal/apperror"
)

// --- Mock Repository ---

// mockUserRepo implements UserRepository for testing.
type mockUserRepo struct {
	createFn         func(ctx context.Context, user *User) error
	findByUsernameFn func(ctx context.Context, username string) (*User, error)
	findByEmailFn    func(ctx context.Context, email string) (*User, error)
	usernameExistsFn func(ctx context.Context, username string) (bool, error)
	emailExistsFn    func(ctx context.Context, email string) (bool, error)
	activateFn       func(ctx context.Context, token string) error
	setResetTokenFn  func(ctx context.Context, email, token string) error
	completeResetFn  func(ctx context.Context, token, passwordHash string) error
	listUsersFn      func(ctx context.Context) ([]User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*User, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	if m.usernameExistsFn != nil {
		return m.usernameExistsFn(ctx, username)
	}
	return false, nil
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.emailExistsFn != nil {
		return m.emailExistsFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepo) Activate(ctx context.Context, token string) error {
	if m.activateFn != nil {
		return m.activateFn(ctx, token)
	}
	return apperror.NewInvalidToken()
}

func (m *mockUserRepo) SetResetToken(ctx context.Context, email, token string) error {
	if m.setResetTokenFn != nil {
		return m.setResetTokenFn(ctx, email, token)
	}
	return nil
}

func (m *mockUserRepo) CompleteReset(ctx context.Context, token, passwordHash string) error {
	if m.completeResetFn != nil {
		return m.completeResetFn(ctx, token, passwordHash)
	}
	return apperror.NewInvalidToken()
}

func (m *mockUserRepo) ListUsers(ctx context.Context) ([]User, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(ctx)
	}
	return nil, nil
}

// --- Mock Mail Dispatcher ---

// mockMail implements MailDispatcher and captures enqueued messages.
type mockMail struct {
	lastTo      string
	lastSubject string
	lastBody    string
	count       int
}

func (m *mockMail) Enqueue(to, subject, body string) {
	m.lastTo = to
	m.lastSubject = subject
	m.lastBody = body
	m.count++
}

// --- Test Helpers ---

func newTestService(repo *mockUserRepo, mail *mockMail) AuthService {
	return NewAuthService(repo, mail, "https://blog.example.com")
}

// assertAppError checks that err is an *apperror.AppError with the expected
// status code and type.
func assertAppError(t *testing.T, err error, code int, errType string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", errType)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != code || appErr.Type != errType {
		t.Errorf("expected %d/%s, got %d/%s (message: %s)",
			code, errType, appErr.Code, appErr.Type, appErr.Message)
	}
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	var created *User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			user.ID = 7
			created = user
			return nil
		},
	}
	mail := &mockMail{}

	user, err := newTestService(repo, mail).Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "  Alice@Example.COM ",
		Password: "a strong password",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if created == nil {
		t.Fatal("expected repository Create to be called")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("expected email lowercased and trimmed, got %q", user.Email)
	}
	if user.Role != RoleUser {
		t.Errorf("expected role user, got %q", user.Role)
	}
	if user.IsActive {
		t.Error("expected new account to start pending")
	}
	if user.ActivationToken == nil || *user.ActivationToken == "" {
		t.Fatal("expected activation token to be set")
	}
	if user.PasswordHash == "" || user.PasswordHash == "a strong password" {
		t.Error("expected password to be hashed before storage")
	}

	if mail.count != 1 {
		t.Fatalf("expected 1 activation email, got %d", mail.count)
	}
	if mail.lastTo != "alice@example.com" {
		t.Errorf("activation email sent to %q", mail.lastTo)
	}
	if !strings.Contains(mail.lastBody, "/activate?token="+*user.ActivationToken) {
		t.Errorf("activation email body missing activation link: %q", mail.lastBody)
	}
}

func TestRegister_UsernameTaken(t *testing.T) {
	repo := &mockUserRepo{
		usernameExistsFn: func(ctx context.Context, username string) (bool, error) {
			return true, nil
		},
	}
	mail := &mockMail{}

	_, err := newTestService(repo, mail).Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "a strong password",
	})
	assertAppError(t, err, 409, "conflict")

	if mail.count != 0 {
		t.Errorf("expected no email on conflict, got %d", mail.count)
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	repo := &mockUserRepo{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}

	_, err := newTestService(repo, &mockMail{}).Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "a strong password",
	})
	assertAppError(t, err, 409, "conflict")
}

// Two registrations can pass the existence pre-checks concurrently; the
// loser's insert trips the unique key and must surface as Conflict.
func TestRegister_InsertRace(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			return apperror.NewConflict("username or email already in use")
		},
	}

	_, err := newTestService(repo, &mockMail{}).Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "a strong password",
	})
	assertAppError(t, err, 409, "conflict")
}

// --- CreateUser ---

func TestCreateUser_AdminRole(t *testing.T) {
	var created *User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			created = user
			return nil
		},
	}
	mail := &mockMail{}

	user, err := newTestService(repo, mail).CreateUser(context.Background(), CreateUserInput{
		Username: "root",
		Email:    "root@example.com",
		Password: "a strong password",
		Role:     RoleAdmin,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created == nil || user.Role != RoleAdmin {
		t.Errorf("expected admin role, got %v", user.Role)
	}
	// Admin-created accounts still activate by email like self-service ones.
	if user.IsActive {
		t.Error("expected admin-created account to start pending")
	}
	if mail.count != 1 {
		t.Errorf("expected activation email for admin-created account, got %d", mail.count)
	}
}

func TestCreateUser_UnknownRole(t *testing.T) {
	_, err := newTestService(&mockUserRepo{}, &mockMail{}).CreateUser(context.Background(), CreateUserInput{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "a strong password",
		Role:     Role("superuser"),
	})
	assertAppError(t, err, 400, "bad_request")
}

// --- Activate ---

func TestActivate_Success(t *testing.T) {
	var consumed string
	repo := &mockUserRepo{
		activateFn: func(ctx context.Context, token string) error {
			consumed = token
			return nil
		},
	}

	if err := newTestService(repo, &mockMail{}).Activate(context.Background(), "tok123"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if consumed != "tok123" {
		t.Errorf("expected token tok123 consumed, got %q", consumed)
	}
}

func TestActivate_UnknownOrConsumedToken(t *testing.T) {
	// The default mock behavior reports no matching pending account, which is
	// what both an unknown and an already-consumed token look like.
	err := newTestService(&mockUserRepo{}, &mockMail{}).Activate(context.Background(), "stale")
	assertAppError(t, err, 400, "invalid_token")
}

func TestActivate_EmptyToken(t *testing.T) {
	called := false
	repo := &mockUserRepo{
		activateFn: func(ctx context.Context, token string) error {
			called = true
			return nil
		},
	}

	err := newTestService(repo, &mockMail{}).Activate(context.Background(), "")
	assertAppError(t, err, 400, "invalid_token")
	if called {
		t.Error("expected no repository call for an empty token")
	}
}

// --- RequestPasswordReset ---

func TestRequestPasswordReset_KnownEmail(t *testing.T) {
	var storedEmail, storedToken string
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return &User{ID: 3, Username: "alice", Email: email, IsActive: true}, nil
		},
		setResetTokenFn: func(ctx context.Context, email, token string) error {
			storedEmail, storedToken = email, token
			return nil
		},
	}
	mail := &mockMail{}

	if err := newTestService(repo, mail).RequestPasswordReset(context.Background(), "Alice@Example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}

	if storedEmail != "alice@example.com" || storedToken == "" {
		t.Errorf("expected reset token stored for alice@example.com, got %q/%q", storedEmail, storedToken)
	}
	if mail.count != 1 {
		t.Fatalf("expected 1 reset email, got %d", mail.count)
	}
	if !strings.Contains(mail.lastBody, "/reset-password?token="+storedToken) {
		t.Errorf("reset email body missing reset link: %q", mail.lastBody)
	}
}

// An unknown email reports the same success as a known one, with no
// mutation and no mail, so callers cannot probe which addresses exist.
func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	stored := false
	repo := &mockUserRepo{
		setResetTokenFn: func(ctx context.Context, email, token string) error {
			stored = true
			return nil
		},
	}
	mail := &mockMail{}

	if err := newTestService(repo, mail).RequestPasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("expected uniform success for unknown email, got %v", err)
	}
	if stored {
		t.Error("expected no token stored for unknown email")
	}
	if mail.count != 0 {
		t.Errorf("expected no email for unknown address, got %d", mail.count)
	}
}

// A second reset request replaces the first token rather than stacking.
func TestRequestPasswordReset_ReplacesToken(t *testing.T) {
	var tokens []string
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return &User{ID: 3, Username: "alice", Email: email, IsActive: true}, nil
		},
		setResetTokenFn: func(ctx context.Context, email, token string) error {
			tokens = append(tokens, token)
			return nil
		},
	}
	svc := newTestService(repo, &mockMail{})

	for i := 0; i < 2; i++ {
		if err := svc.RequestPasswordReset(context.Background(), "alice@example.com"); err != nil {
			t.Fatalf("RequestPasswordReset #%d: %v", i+1, err)
		}
	}
	if len(tokens) != 2 || tokens[0] == tokens[1] {
		t.Errorf("expected two distinct stored tokens, got %v", tokens)
	}
}

// --- CompletePasswordReset ---

func TestCompletePasswordReset_Success(t *testing.T) {
	var consumedToken, storedHash string
	repo := &mockUserRepo{
		completeResetFn: func(ctx context.Context, token, passwordHash string) error {
			consumedToken, storedHash = token, passwordHash
			return nil
		},
	}

	err := newTestService(repo, &mockMail{}).CompletePasswordReset(context.Background(), "tok456", "new password here")
	if err != nil {
		t.Fatalf("CompletePasswordReset: %v", err)
	}
	if consumedToken != "tok456" {
		t.Errorf("expected token tok456 consumed, got %q", consumedToken)
	}
	if !VerifyPassword("new password here", storedHash) {
		t.Error("expected stored hash to verify against the new password")
	}
}

func TestCompletePasswordReset_BogusToken(t *testing.T) {
	err := newTestService(&mockUserRepo{}, &mockMail{}).CompletePasswordReset(context.Background(), "bogus", "new password here")
	assertAppError(t, err, 400, "invalid_token")
}

func TestCompletePasswordReset_EmptyToken(t *testing.T) {
	err := newTestService(&mockUserRepo{}, &mockMail{}).CompletePasswordReset(context.Background(), "", "new password here")
	assertAppError(t, err, 400, "invalid_token")
}

// --- Login ---

func activeUser(t *testing.T, username, password string) *User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return &User{
		ID:           5,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         RoleUser,
		IsActive:     true,
	}
}

func TestLogin_Success(t *testing.T) {
	stored := activeUser(t, "alice", "a strong password")
	repo := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*User, error) {
			if username != "alice" {
				return nil, apperror.NewNotFound("user not found")
			}
			return stored, nil
		},
	}

	user, err := newTestService(repo, &mockMail{}).Login(context.Background(), "alice", "a strong password")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Username != "alice" || user.Role != RoleUser {
		t.Errorf("unexpected user returned: %+v", user)
	}
}

// Unknown username and wrong password must be indistinguishable.
func TestLogin_InvalidCredentials(t *testing.T) {
	stored := activeUser(t, "alice", "a strong password")
	repo := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*User, error) {
			if username != "alice" {
				return nil, apperror.NewNotFound("user not found")
			}
			return stored, nil
		},
	}
	svc := newTestService(repo, &mockMail{})

	_, errUnknown := svc.Login(context.Background(), "mallory", "a strong password")
	assertAppError(t, errUnknown, 401, "invalid_credentials")

	_, errWrong := svc.Login(context.Background(), "alice", "wrong password")
	assertAppError(t, errWrong, 401, "invalid_credentials")

	var a, b *apperror.AppError
	errors.As(errUnknown, &a)
	errors.As(errWrong, &b)
	if a.Message != b.Message {
		t.Errorf("unknown-user and wrong-password messages differ: %q vs %q", a.Message, b.Message)
	}
}

// A pending account with the right password is told it isn't active; with
// the wrong password it gets plain InvalidCredentials, leaking nothing.
func TestLogin_PendingAccount(t *testing.T) {
	stored := activeUser(t, "bob", "a strong password")
	stored.IsActive = false
	repo := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*User, error) {
			return stored, nil
		},
	}
	svc := newTestService(repo, &mockMail{})

	_, err := svc.Login(context.Background(), "bob", "a strong password")
	assertAppError(t, err, 403, "account_not_active")

	_, err = svc.Login(context.Background(), "bob", "wrong password")
	assertAppError(t, err, 401, "invalid_credentials")
}

// --- Full Lifecycle ---

// Drives register -> failed pending login -> activate -> login -> reset ->
// login with the new password through an in-memory repository.
func TestLifecycle_RegisterActivateLoginReset(t *testing.T) {
	var stored *User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			user.ID = 1
			stored = user
			return nil
		},
		findByUsernameFn: func(ctx context.Context, username string) (*User, error) {
			if stored == nil || stored.Username != username {
				return nil, apperror.NewNotFound("user not found")
			}
			return stored, nil
		},
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			if stored == nil || stored.Email != email {
				return nil, apperror.NewNotFound("user not found")
			}
			return stored, nil
		},
		activateFn: func(ctx context.Context, token string) error {
			if stored == nil || stored.ActivationToken == nil || *stored.ActivationToken != token {
				return apperror.NewInvalidToken()
			}
			stored.IsActive = true
			stored.ActivationToken = nil
			return nil
		},
		setResetTokenFn: func(ctx context.Context, email, token string) error {
			stored.ResetToken = &token
			return nil
		},
		completeResetFn: func(ctx context.Context, token, passwordHash string) error {
			if stored.ResetToken == nil || *stored.ResetToken != token {
				return apperror.NewInvalidToken()
			}
			stored.PasswordHash = passwordHash
			stored.ResetToken = nil
			return nil
		},
	}
	mail := &mockMail{}
	svc := newTestService(repo, mail)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{
		Username: "carol",
		Email:    "carol@example.com",
		Password: "original password",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(ctx, "carol", "original password"); err == nil {
		t.Fatal("expected login to fail before activation")
	}

	activationToken := *stored.ActivationToken
	if err := svc.Activate(ctx, activationToken); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	// The token is gone after use.
	if err := svc.Activate(ctx, activationToken); err == nil {
		t.Fatal("expected second activation with the same token to fail")
	}

	if _, err := svc.Login(ctx, "carol", "original password"); err != nil {
		t.Fatalf("Login after activation: %v", err)
	}

	if err := svc.RequestPasswordReset(ctx, "carol@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	resetToken := *stored.ResetToken
	if err := svc.CompletePasswordReset(ctx, resetToken, "replacement password"); err != nil {
		t.Fatalf("CompletePasswordReset: %v", err)
	}
	// Single use here too.
	if err := svc.CompletePasswordReset(ctx, resetToken, "third password"); err == nil {
		t.Fatal("expected second reset with the same token to fail")
	}

	if _, err := svc.Login(ctx, "carol", "original password"); err == nil {
		t.Fatal("expected old password to be rejected after reset")
	}
	if _, err := svc.Login(ctx, "carol", "replacement password"); err != nil {
		t.Fatalf("Login with new password: %v", err)
	}
}
