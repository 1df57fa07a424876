// Package user defines back-office and customer accounts.
package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/windevexpert/windevexpert/internal/domain"
)

// Role represents the authorization level of a user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEditor   Role = "editor"
	RoleCustomer Role = "customer"
)

// ValidRoles is the set of all valid user roles.
var ValidRoles = map[Role]bool{
	RoleAdmin:    true,
	RoleEditor:   true,
	RoleCustomer: true,
}

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// User is a platform account.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"passwordHash"` // never serialized
	Role         Role      `json:"role" db:"role"`
	Enabled      bool      `json:"enabled" db:"enabled"`
	CreatedAt    time.Time `json:"createdAt" db:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updatedAt"`
}

// CreateRequest is the input for registering a new user.
type CreateRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
	Role     Role   `json:"role"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	if len(r.Password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	if r.Role == "" {
		r.Role = RoleCustomer
	}
	if !ValidRoles[r.Role] {
		return errors.New("invalid role: must be admin, editor, or customer")
	}
	return nil
}

// UpdateRequest is the input for updating an existing user.
type UpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	Role     *Role   `json:"role,omitempty"`
	Enabled  *bool   `json:"enabled,omitempty"`
	Password *string `json:"password,omitempty"` //nolint:gosec // request field, not a hardcoded secret
}

// Validate checks the fields that are present.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return errors.New("name is required")
	}
	if r.Role != nil && !ValidRoles[*r.Role] {
		return errors.New("invalid role: must be admin, editor, or customer")
	}
	if r.Password != nil && len(*r.Password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// Checked runs v and wraps its error with domain.ErrValidation so the HTTP
// layer answers 400.
func Checked(v interface{ Validate() error }) error {
	if err := v.Validate(); err != nil {
		return domain.Validationf("%s", err.Error())
	}
	return nil
}

// New builds an enabled user from a validated request and password hash.
func New(id string, r CreateRequest, hash string, now time.Time) User {
	return User{
		ID:           id,
		Email:        r.Email,
		Name:         strings.TrimSpace(r.Name),
		PasswordHash: hash,
		Role:         r.Role,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Apply merges a partial update into u. The password is hashed by the
// caller and passed as hash; an empty hash keeps the current one.
func (u *User) Apply(r UpdateRequest, hash string, now time.Time) {
	if r.Name != nil {
		u.Name = strings.TrimSpace(*r.Name)
	}
	if r.Role != nil {
		u.Role = *r.Role
	}
	if r.Enabled != nil {
		u.Enabled = *r.Enabled
	}
	if hash != "" {
		u.PasswordHash = hash
	}
	u.UpdatedAt = now
}
