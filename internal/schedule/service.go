package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/nekogravitycat/field-booking-backend/internal/auth"
	"github.com/nekogravitycat/field-booking-backend/internal/field"
)

type CreateRequest struct {
	FieldID     string
	DayOfWeek   int
	StartTime   time.Time
	EndTime     time.Time
	IsAvailable *bool
}

type UpdateRequest struct {
	DayOfWeek   *int
	StartTime   *time.Time
	EndTime     *time.Time
	IsAvailable *bool
}

type Service interface {
	Create(ctx context.Context, actor auth.Principal, req CreateRequest) (*WeeklySchedule, error)
	GetByID(ctx context.Context, id string) (*WeeklySchedule, error)
	// GetForDay returns the available window of a field on a day of week, or
	// ErrNotFound when the field is closed that day.
	GetForDay(ctx context.Context, fieldID string, dayOfWeek int) (*WeeklySchedule, error)
	ListByField(ctx context.Context, fieldID string) ([]*WeeklySchedule, error)
	Update(ctx context.Context, actor auth.Principal, id string, req UpdateRequest) (*WeeklySchedule, error)
	Delete(ctx context.Context, actor auth.Principal, id string) error
}

// FieldGetter looks up catalog fields.
type FieldGetter interface {
	GetByID(ctx context.Context, id string) (*field.Field, error)
}

// AvailabilityInvalidator drops cached availability for a field.
type AvailabilityInvalidator interface {
	InvalidateField(ctx context.Context, fieldID string) error
}

type service struct {
	repo   Repository
	fields FieldGetter
	cache  AvailabilityInvalidator
	logger zerolog.Logger
}

func NewService(repo Repository, fields FieldGetter, cache AvailabilityInvalidator, logger zerolog.Logger) Service {
	return &service{
		repo:   repo,
		fields: fields,
		cache:  cache,
		logger: logger.With().Str("module", "schedule").Logger(),
	}
}

func (s *service) Create(ctx context.Context, actor auth.Principal, req CreateRequest) (*WeeklySchedule, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if !validDay(req.DayOfWeek) {
		return nil, ErrDayOfWeekOutOfRange
	}
	if err := validRange(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if err := s.ensureField(ctx, req.FieldID); err != nil {
		return nil, err
	}

	// Uniqueness ignores is_available. schedules_field_day_key backs this check.
	if _, err := s.repo.FindByFieldDay(ctx, req.FieldID, req.DayOfWeek); err == nil {
		return nil, ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	ws := &WeeklySchedule{
		FieldID:     req.FieldID,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsAvailable: true,
	}
	if req.IsAvailable != nil {
		ws.IsAvailable = *req.IsAvailable
	}

	if err := s.repo.Create(ctx, ws); err != nil {
		return nil, err
	}

	s.invalidate(ctx, ws.FieldID)
	s.logger.Info().
		Str("field_id", ws.FieldID).
		Int("day_of_week", ws.DayOfWeek).
		Str("actor_id", actor.ID).
		Msg("schedule created")
	return ws, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*WeeklySchedule, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetForDay(ctx context.Context, fieldID string, dayOfWeek int) (*WeeklySchedule, error) {
	if !validDay(dayOfWeek) {
		return nil, ErrDayOfWeekOutOfRange
	}
	return s.repo.GetForDay(ctx, fieldID, dayOfWeek)
}

func (s *service) ListByField(ctx context.Context, fieldID string) ([]*WeeklySchedule, error) {
	if err := s.ensureField(ctx, fieldID); err != nil {
		return nil, err
	}
	return s.repo.ListByField(ctx, fieldID)
}

func (s *service) Update(ctx context.Context, actor auth.Principal, id string, req UpdateRequest) (*WeeklySchedule, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	ws, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DayOfWeek != nil {
		if !validDay(*req.DayOfWeek) {
			return nil, ErrDayOfWeekOutOfRange
		}
		if *req.DayOfWeek != ws.DayOfWeek {
			if _, err := s.repo.FindByFieldDay(ctx, ws.FieldID, *req.DayOfWeek); err == nil {
				return nil, ErrDuplicate
			} else if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
		}
		ws.DayOfWeek = *req.DayOfWeek
	}
	if req.StartTime != nil {
		ws.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		ws.EndTime = *req.EndTime
	}
	if err := validRange(ws.StartTime, ws.EndTime); err != nil {
		return nil, err
	}
	if req.IsAvailable != nil {
		ws.IsAvailable = *req.IsAvailable
	}

	if err := s.repo.Update(ctx, ws); err != nil {
		return nil, err
	}

	s.invalidate(ctx, ws.FieldID)
	return ws, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Principal, id string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	ws, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, ws.FieldID)
	return nil
}

func (s *service) ensureField(ctx context.Context, fieldID string) error {
	if _, err := s.fields.GetByID(ctx, fieldID); err != nil {
		if errors.Is(err, field.ErrNotFound) {
			return ErrFieldNotFound
		}
		return err
	}
	return nil
}

func (s *service) invalidate(ctx context.Context, fieldID string) {
	if err := s.cache.InvalidateField(ctx, fieldID); err != nil {
		s.logger.Warn().Err(err).Str("field_id", fieldID).Msg("failed to invalidate slot cache")
	}
}
