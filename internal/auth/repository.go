package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/fornolabs/gliderblog/internal/apperror"
)

// UserRepository defines the data access contract for user records.
// All SQL lives in the concrete implementation -- no SQL leaks out.
//
// The token-consuming operations (Activate, CompleteReset) are single
// conditional UPDATEs keyed on the token being consumed, so the check and
// the state change commit atomically; a concurrent caller presenting the
// same token loses the race and sees InvalidToken.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// Activate marks the account holding this activation token active and
	// clears the token in the same statement. Returns InvalidToken if no
	// pending account holds the token.
	Activate(ctx context.Context, token string) error

	// SetResetToken stores a fresh reset token on the account with this
	// email, replacing any previous one.
	SetResetToken(ctx context.Context, email, token string) error

	// CompleteReset replaces the password hash on the account holding this
	// reset token and clears the token in the same statement. Returns
	// InvalidToken if no account holds the token.
	CompleteReset(ctx context.Context, token, passwordHash string) error

	// Admin operations.
	ListUsers(ctx context.Context) ([]User, error)
}

// userRepository implements UserRepository with hand-written MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// userColumns is the SELECT column list for user queries.
const userColumns = `id, username, email, password_hash, role, is_active,
	activation_token, reset_token, created_at`

// mysqlDuplicateEntry is the MySQL error number for unique key violations.
const mysqlDuplicateEntry = 1062

// Create inserts a new user row. The caller supplies the hashed password
// and activation token; the database assigns the id. Unique key violations
// (username, email) come back as Conflict, which also closes the race
// window left open by the service's existence pre-checks.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (username, email, password_hash, role, is_active, activation_token)
	          VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.ActivationToken,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return apperror.NewConflict("username or email already taken")
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading inserted user id: %w", err)
	}
	user.ID = id

	return nil
}

// FindByUsername retrieves a user by username.
// Returns apperror.NotFound if no user exists with this username.
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

// FindByEmail retrieves a user by email address.
// Returns apperror.NotFound if no user exists with this email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// UsernameExists returns true if a user with the given username exists.
// Used during registration to check for duplicates before hashing the password.
func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking username existence: %w", err)
	}
	return exists, nil
}

// EmailExists returns true if a user with the given email exists.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}
	return exists, nil
}

// Activate consumes an activation token. The WHERE clause carries both the
// token and the pending state, so a second call with the same token affects
// zero rows and reports InvalidToken -- indistinguishable from a token that
// never existed.
func (r *userRepository) Activate(ctx context.Context, token string) error {
	query := `UPDATE users SET is_active = TRUE, activation_token = NULL
	          WHERE activation_token = ? AND is_active = FALSE`

	result, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("activating account: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewInvalidToken()
	}
	return nil
}

// SetResetToken stores a reset token on the account with this email.
// A repeated request simply replaces the previous token.
func (r *userRepository) SetResetToken(ctx context.Context, email, token string) error {
	query := `UPDATE users SET reset_token = ? WHERE email = ?`

	result, err := r.db.ExecContext(ctx, query, token, email)
	if err != nil {
		return fmt.Errorf("setting reset token: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

// CompleteReset consumes a reset token: the password hash is replaced and
// the token cleared in one statement keyed on the token.
func (r *userRepository) CompleteReset(ctx context.Context, token, passwordHash string) error {
	query := `UPDATE users SET password_hash = ?, reset_token = NULL
	          WHERE reset_token = ?`

	result, err := r.db.ExecContext(ctx, query, passwordHash, token)
	if err != nil {
		return fmt.Errorf("completing password reset: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewInvalidToken()
	}
	return nil
}

// ListUsers returns all users ordered by creation date, newest first.
// Deliberately excludes password hashes and tokens -- admin list views
// don't need credential data.
func (r *userRepository) ListUsers(ctx context.Context) ([]User, error) {
	query := `SELECT id, username, email, role, is_active, created_at
	          FROM users ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// scanUser scans a full user row, mapping sql.ErrNoRows to NotFound.
func (r *userRepository) scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.ActivationToken,
		&user.ResetToken,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return user, nil
}
