package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fornolabs/gliderblog/internal/apperror"
)

// MailDispatcher enqueues outbound mail for background delivery. Enqueue
// never blocks and never reports delivery failures back -- mail is
// fire-and-forget from the lifecycle's point of view.
type MailDispatcher interface {
	Enqueue(to, subject, body string)
}

// AuthService defines the account lifecycle contract. Handlers call these
// methods -- they never touch the repository directly.
//
// An account moves Pending -> Active exactly once, by consuming its
// activation token. Independently it can hold at most one pending reset
// token, consumed by CompletePasswordReset.
type AuthService interface {
	// Register creates a standard-role account from a self-service signup.
	Register(ctx context.Context, input RegisterInput) (*User, error)

	// CreateUser is admin-initiated provisioning; it may assign any role.
	// Everything else matches Register: the account starts pending and the
	// activation email goes out.
	CreateUser(ctx context.Context, input CreateUserInput) (*User, error)

	// Activate consumes an activation token. A consumed, expired-by-use, or
	// unknown token all produce the same InvalidToken.
	Activate(ctx context.Context, token string) error

	// RequestPasswordReset starts a reset for the account with this email.
	// It reports success whether or not the email is registered, so callers
	// cannot enumerate accounts; the token and email exist only on the
	// registered path.
	RequestPasswordReset(ctx context.Context, email string) error

	// CompletePasswordReset consumes a reset token and replaces the password.
	CompletePasswordReset(ctx context.Context, token, newPassword string) error

	// Login authenticates by username and password. Unknown username and
	// wrong password are indistinguishable (InvalidCredentials); a correct
	// password on a pending account is AccountNotActive.
	Login(ctx context.Context, username, password string) (*User, error)

	// ListUsers returns all accounts for the admin view.
	ListUsers(ctx context.Context) ([]User, error)
}

// authService implements AuthService.
type authService struct {
	repo    UserRepository
	mail    MailDispatcher
	baseURL string
}

// NewAuthService creates a new auth service with the given dependencies.
// baseURL is the public URL used to build activation and reset links.
func NewAuthService(repo UserRepository, mail MailDispatcher, baseURL string) AuthService {
	return &authService{
		repo:    repo,
		mail:    mail,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Register creates a new standard-role account.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*User, error) {
	return s.create(ctx, input.Username, input.Email, input.Password, RoleUser)
}

// CreateUser provisions an account with the given role.
func (s *authService) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	if !input.Role.Valid() {
		return nil, apperror.NewBadRequest(fmt.Sprintf("unknown role %q", input.Role))
	}
	return s.create(ctx, input.Username, input.Email, input.Password, input.Role)
}

// create is the shared registration path: uniqueness checks, password
// hashing, activation token, pending insert, activation email.
func (s *authService) create(ctx context.Context, username, email, password string, role Role) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	// Check both identities before doing expensive hashing. The unique keys
	// on the users table catch the race this leaves open.
	taken, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking username: %w", err))
	}
	if taken {
		return nil, apperror.NewConflict("username already taken")
	}
	taken, err = s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if taken {
		return nil, apperror.NewConflict("an account with this email already exists")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("generating activation token: %w", err))
	}

	user := &User{
		Username:        username,
		Email:           email,
		PasswordHash:    hash,
		Role:            role,
		IsActive:        false,
		ActivationToken: &token,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	// Fire-and-forget: a lost activation email is recoverable (the admin
	// can re-provision), a failed registration is not.
	s.mail.Enqueue(user.Email,
		"Activate your GliderBlog account",
		fmt.Sprintf(
			"Welcome to GliderBlog, %s!\r\n\r\n"+
				"Confirm your email address to activate your account:\r\n\r\n"+
				"%s/activate?token=%s\r\n",
			user.Username, s.baseURL, token,
		),
	)

	slog.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
		slog.String("role", string(role)),
	)

	return user, nil
}

// Activate consumes an activation token and flips the account to active.
func (s *authService) Activate(ctx context.Context, token string) error {
	if token == "" {
		return apperror.NewInvalidToken()
	}

	if err := s.repo.Activate(ctx, token); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperror.NewInternal(fmt.Errorf("activating account: %w", err))
	}

	slog.Info("account activated")
	return nil
}

// RequestPasswordReset starts a password reset. The outcome is uniformly
// success: an unregistered email performs no mutation and sends no mail,
// but the caller cannot tell.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			slog.Debug("password reset requested for unknown email")
			return nil
		}
		return apperror.NewInternal(fmt.Errorf("finding user for reset: %w", err))
	}

	token, err := GenerateToken()
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("generating reset token: %w", err))
	}

	if err := s.repo.SetResetToken(ctx, user.Email, token); err != nil {
		return apperror.NewInternal(fmt.Errorf("storing reset token: %w", err))
	}

	s.mail.Enqueue(user.Email,
		"Reset your GliderBlog password",
		fmt.Sprintf(
			"Hi %s,\r\n\r\n"+
				"Someone asked to reset the password for this account. If that\r\n"+
				"was you, follow this link to choose a new password:\r\n\r\n"+
				"%s/reset-password?token=%s\r\n\r\n"+
				"If it wasn't you, ignore this message.\r\n",
			user.Username, s.baseURL, token,
		),
	)

	slog.Info("password reset requested", slog.Int64("user_id", user.ID))
	return nil
}

// CompletePasswordReset consumes a reset token, replacing the password.
func (s *authService) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return apperror.NewInvalidToken()
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing new password: %w", err))
	}

	if err := s.repo.CompleteReset(ctx, token, hash); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperror.NewInternal(fmt.Errorf("completing reset: %w", err))
	}

	slog.Info("password reset completed")
	return nil
}

// Login authenticates a user by username and password.
func (s *authService) Login(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NewInvalidCredentials()
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, apperror.NewInvalidCredentials()
	}

	// Only after the password checks out may the caller learn the account
	// exists but isn't activated yet.
	if !user.IsActive {
		return nil, apperror.NewAccountNotActive()
	}

	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// ListUsers returns all accounts for the admin view.
func (s *authService) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing users: %w", err))
	}
	return users, nil
}

// isNotFound reports whether err is the repository's NotFound outcome.
func isNotFound(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr) && appErr.Type == "not_found"
}
