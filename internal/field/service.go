package field

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CreateRequest struct {
	Name         string
	FieldType    string
	Description  string
	PricePerHour decimal.Decimal
	IsActive     *bool
}

type UpdateRequest struct {
	Name         *string
	FieldType    *string
	Description  *string
	PricePerHour *decimal.Decimal
	IsActive     *bool
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Field, error)
	GetByID(ctx context.Context, id string) (*Field, error)
	List(ctx context.Context, filter Filter) ([]*Field, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Field, error)
	Delete(ctx context.Context, id string) error
}

// AvailabilityInvalidator drops cached availability for a field.
type AvailabilityInvalidator interface {
	InvalidateField(ctx context.Context, fieldID string) error
}

// BlobRemover deletes stored objects by path.
type BlobRemover interface {
	Delete(ctx context.Context, path string) error
}

type service struct {
	repo   Repository
	cache  AvailabilityInvalidator
	blobs  BlobRemover
	logger zerolog.Logger
}

func NewService(repo Repository, cache AvailabilityInvalidator, blobs BlobRemover, logger zerolog.Logger) Service {
	return &service{
		repo:   repo,
		cache:  cache,
		blobs:  blobs,
		logger: logger.With().Str("module", "field").Logger(),
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Field, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if req.PricePerHour.IsNegative() {
		return nil, ErrInvalidPrice
	}

	f := &Field{
		Name:         name,
		FieldType:    strings.TrimSpace(req.FieldType),
		Description:  req.Description,
		PricePerHour: req.PricePerHour,
		IsActive:     true,
	}
	if req.IsActive != nil {
		f.IsActive = *req.IsActive
	}

	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Field, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Field, int, error) {
	if filter.SortBy != "" {
		if _, ok := sortColumns[filter.SortBy]; !ok {
			return nil, 0, ErrInvalidSort
		}
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Field, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
		f.Name = name
	}
	if req.FieldType != nil {
		f.FieldType = strings.TrimSpace(*req.FieldType)
	}
	if req.Description != nil {
		f.Description = *req.Description
	}
	if req.PricePerHour != nil {
		if req.PricePerHour.IsNegative() {
			return nil, ErrInvalidPrice
		}
		f.PricePerHour = *req.PricePerHour
	}
	availabilityChanged := req.IsActive != nil && *req.IsActive != f.IsActive
	if req.IsActive != nil {
		f.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, f); err != nil {
		return nil, err
	}

	if availabilityChanged {
		s.invalidate(ctx, id)
	}
	return f, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	paths, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	// Blob cleanup runs after commit; a failure leaves an orphaned file, not an orphaned row.
	for _, p := range paths {
		if err := s.blobs.Delete(ctx, p); err != nil {
			s.logger.Warn().Err(err).Str("path", p).Msg("failed to remove photo blob")
		}
	}
	s.invalidate(ctx, id)

	s.logger.Info().Str("field_id", id).Int("photos", len(paths)).Msg("field deleted")
	return nil
}

func (s *service) invalidate(ctx context.Context, id string) {
	if err := s.cache.InvalidateField(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("field_id", id).Msg("failed to invalidate slot cache")
	}
}
