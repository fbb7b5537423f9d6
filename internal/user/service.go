package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nekogravitycat/field-booking-backend/internal/auth"
)

// UpdateRequest carries admin changes to an account. Nil fields are left as is.
type UpdateRequest struct {
	DisplayName *string
	Phone       *string
	Role        *auth.Role
	IsActive    *bool
}

// Service defines business logic related to users.
type Service interface {
	Register(ctx context.Context, email, password, displayName string) (*User, error)
	// Login verifies credentials. Unknown, inactive and mismatching accounts
	// all yield ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, filter Filter) ([]*User, int, error)
	Update(ctx context.Context, actor auth.Principal, id string, req UpdateRequest) (*User, error)
	// EnsureAdmin creates the admin account if the email is unused, or
	// promotes the existing account.
	EnsureAdmin(ctx context.Context, email, password string) (*User, error)
}

type service struct {
	repo   Repository
	hasher auth.PasswordHasher
	logger zerolog.Logger
}

func NewService(repo Repository, hasher auth.PasswordHasher, logger zerolog.Logger) Service {
	return &service{
		repo:   repo,
		hasher: hasher,
		logger: logger.With().Str("module", "user").Logger(),
	}
}

func (s *service) Register(ctx context.Context, email, password, displayName string) (*User, error) {
	return s.create(ctx, email, password, displayName, auth.RoleCustomer)
}

func (s *service) create(ctx context.Context, email, password, displayName string, role auth.Role) (*User, error) {
	cleanEmail := normalizeEmail(email)
	if cleanEmail == "" {
		return nil, ErrEmailRequired
	}
	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	u := &User{
		Email:        cleanEmail,
		PasswordHash: hash,
		DisplayName:  trimmed(displayName),
		Role:         role,
		IsActive:     true,
	}
	// The unique index on email reports duplicates.
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("user registered")
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, error) {
	cleanEmail := normalizeEmail(email)
	if cleanEmail == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, cleanEmail)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("fetch user by email failed: %w", err)
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, u.ID, now); err != nil {
		s.logger.Warn().Err(err).Str("user_id", u.ID).Msg("failed to record last login")
	} else {
		u.LastLoginAt = &now
	}
	return u, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*User, int, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, 0, ErrInvalidRole
	}
	if _, ok := sortColumns[filter.SortBy]; filter.SortBy != "" && !ok {
		return nil, 0, ErrInvalidSort
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, actor auth.Principal, id string, req UpdateRequest) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil && !req.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if actor.ID == id {
		if (req.Role != nil && *req.Role != auth.RoleAdmin) || (req.IsActive != nil && !*req.IsActive) {
			return nil, ErrSelfDemotion
		}
	}

	if req.DisplayName != nil {
		u.DisplayName = trimmed(*req.DisplayName)
	}
	if req.Phone != nil {
		u.Phone = trimmed(*req.Phone)
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", id).Str("actor_id", actor.ID).Str("role", string(u.Role)).Bool("is_active", u.IsActive).Msg("user updated")
	return u, nil
}

func (s *service) EnsureAdmin(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return s.create(ctx, email, password, "", auth.RoleAdmin)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch admin account failed: %w", err)
	}
	if u.Role == auth.RoleAdmin && u.IsActive {
		return u, nil
	}

	u.Role = auth.RoleAdmin
	u.IsActive = true
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", u.ID).Msg("account promoted to admin")
	return u, nil
}

// normalizeEmail trims spaces and lowercases the email.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmed(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
