// Package auth handles user accounts, credentials, and sessions for
// GliderBlog: registration with email verification, login, password reset,
// and role-gated access. The lifecycle logic lives in AuthService; storage
// in UserRepository; the client-held session in SessionManager.
package auth

import (
	"time"
)

// Role is the access level attached to a user account.
type Role string

const (
	// RoleAdmin may provision accounts and access admin routes.
	RoleAdmin Role = "admin"

	// RoleUser is the standard role assigned to self-service registrations.
	RoleUser Role = "user"
)

// Valid returns true for the two roles the schema knows about.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents a registered account. This is the domain model used
// throughout the application; database scanning and JSON marshaling use
// this struct directly.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON responses.
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`

	// ActivationToken and ResetToken are single-use secrets. Nil means no
	// token is pending for that purpose. Never expose.
	ActivationToken *string `json:"-"`
	ResetToken      *string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest holds the data submitted by the registration form.
type RegisterRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// LoginRequest holds the data submitted by the login form.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// ForgotPasswordRequest holds the email submitted to start a reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email"`
}

// ResetPasswordRequest holds the reset token and replacement password.
type ResetPasswordRequest struct {
	Token    string `json:"token" form:"token"`
	Password string `json:"password" form:"password"`
}

// CreateUserRequest is the admin provisioning form. Unlike self-service
// registration it may assign the admin role.
type CreateUserRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

// --- Service Input DTOs (passed from handler to service) ---

// RegisterInput is the validated input for creating a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// CreateUserInput is the validated input for admin-initiated provisioning.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     Role
}
