package user

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/field-booking-backend/internal/auth"
	"github.com/nekogravitycat/field-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.NotFound("user not found")
	ErrEmailAlreadyUsed   = apperror.New(http.StatusConflict, apperror.KindConflict, "email already used")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, apperror.KindUnauthenticated, "invalid email or password")
	ErrEmailRequired      = apperror.Validation("email is required")
	ErrPasswordTooShort   = apperror.Validation("password must be at least 8 characters")
	ErrInvalidRole        = apperror.Validation("role must be customer or admin")
	ErrInvalidSort        = apperror.Validation("invalid sort field")
	ErrSelfDemotion       = apperror.Validation("admins cannot revoke their own admin role or deactivate themselves")
)

const minPasswordLength = 8

// User is an account that can sign in. Role decides what the account may do
// with bookings, schedules and fields.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  *string
	Phone        *string
	Role         auth.Role
	IsActive     bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// Name returns the display name, falling back to the email.
func (u *User) Name() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.Email
}

// Principal returns the identity carried into the access token.
func (u *User) Principal() auth.Principal {
	return auth.Principal{ID: u.ID, Role: u.Role}
}

// Filter defines filter options for listing users.
type Filter struct {
	Email       string
	DisplayName string
	Role        auth.Role
	IsActive    *bool

	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

var sortColumns = map[string]string{
	"created_at": "created_at",
	"email":      "email",
	"name":       "display_name",
}
