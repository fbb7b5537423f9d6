package booking

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/nekogravitycat/field-booking-backend/internal/auth"
	"github.com/nekogravitycat/field-booking-backend/internal/field"
	"github.com/nekogravitycat/field-booking-backend/internal/metrics"
	"github.com/nekogravitycat/field-booking-backend/internal/pkg/apperror"
)

// CreateRequest describes a new booking. A zero BookingDate is taken from
// StartTime and a zero Duration from the range.
type CreateRequest struct {
	FieldID     string
	BookingDate time.Time
	StartTime   time.Time
	EndTime     time.Time
	Duration    int
}

// RescheduleRequest carries the booking attributes to change. Nil fields keep
// their current value.
type RescheduleRequest struct {
	FieldID     *string
	BookingDate *time.Time
	StartTime   *time.Time
	EndTime     *time.Time
	Duration    *int
}

type Service interface {
	Create(ctx context.Context, actor auth.Principal, req CreateRequest) (*Booking, error)
	Get(ctx context.Context, actor auth.Principal, id string) (*Booking, error)
	// List returns bookings matching q. Customers only ever see their own.
	List(ctx context.Context, actor auth.Principal, q Query) ([]*Booking, int, error)
	Summary(ctx context.Context, actor auth.Principal) (*Summary, error)
	Confirm(ctx context.Context, actor auth.Principal, id string) (*Booking, error)
	Reject(ctx context.Context, actor auth.Principal, id string) (*Booking, error)
	Complete(ctx context.Context, actor auth.Principal, id string) (*Booking, error)
	Cancel(ctx context.Context, actor auth.Principal, id string) (*Booking, error)
	Reschedule(ctx context.Context, actor auth.Principal, id string, req RescheduleRequest) (*Booking, error)
	// CompleteEnded completes confirmed bookings whose end time has passed.
	CompleteEnded(ctx context.Context) (int, error)
}

// Options tunes time handling of the booking services.
type Options struct {
	// Location is the venue's fixed offset. Calendar dates and schedule hours
	// are interpreted in it.
	Location *time.Location
	// Lockout is how long before start a customer may no longer cancel or
	// reschedule.
	Lockout time.Duration
	Now     func() time.Time
}

const (
	DefaultLockout = time.Hour
	upcomingWindow = 7 * 24 * time.Hour
)

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Lockout <= 0 {
		o.Lockout = DefaultLockout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type service struct {
	repo     Repository
	fields   FieldLookup
	detector *ConflictDetector
	cache    SlotCache
	opts     Options
	logger   zerolog.Logger
}

func NewService(repo Repository, fields FieldLookup, cache SlotCache, opts Options, logger zerolog.Logger) Service {
	return &service{
		repo:     repo,
		fields:   fields,
		detector: NewConflictDetector(repo),
		cache:    cache,
		opts:     opts.withDefaults(),
		logger:   logger.With().Str("module", "booking").Logger(),
	}
}

// observe records the outcome of a lifecycle operation.
func observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			outcome = appErr.Kind
		}
	}
	metrics.BookingOp(op, outcome)
}

// activeField returns the field if it exists and takes bookings.
func (s *service) activeField(ctx context.Context, fieldID string) (*field.Field, error) {
	f, err := s.fields.GetByID(ctx, fieldID)
	if err != nil {
		if errors.Is(err, field.ErrNotFound) {
			return nil, ErrFieldNotFound
		}
		return nil, err
	}
	if !f.Bookable() {
		return nil, ErrFieldInactive
	}
	return f, nil
}

// checkRange validates a proposed booking range and returns its length in
// hours. duration 0 means "derive from the range".
func (s *service) checkRange(date, start, end time.Time, duration int) (int, error) {
	if !start.Before(end) {
		return 0, ErrInvalidTimeRange
	}
	span := end.Sub(start)
	if span%time.Hour != 0 {
		return 0, ErrNotWholeHours
	}
	hours := int(span / time.Hour)
	if duration != 0 && duration != hours {
		return 0, ErrDurationMismatch
	}
	if !DateOf(start, s.opts.Location).Equal(date) {
		return 0, ErrDateMismatch
	}
	if end.After(LocalMidnight(date, s.opts.Location).Add(24 * time.Hour)) {
		return 0, ErrCrossesMidnight
	}
	if !start.After(s.opts.Now()) {
		return 0, ErrStartTimePast
	}
	return hours, nil
}

func (s *service) invalidate(ctx context.Context, bookings ...*Booking) {
	for _, b := range bookings {
		if err := s.cache.Invalidate(ctx, b.FieldID, b.BookingDate); err != nil {
			s.logger.Warn().Err(err).Str("field_id", b.FieldID).Msg("failed to invalidate slot cache")
		}
	}
}

func (s *service) Create(ctx context.Context, actor auth.Principal, req CreateRequest) (b *Booking, err error) {
	defer func() { observe("create", err) }()

	if actor.ID == "" {
		return nil, auth.ErrMissingToken
	}

	date := req.BookingDate
	if date.IsZero() {
		date = DateOf(req.StartTime, s.opts.Location)
	}
	hours, err := s.checkRange(date, req.StartTime, req.EndTime, req.Duration)
	if err != nil {
		return nil, err
	}

	f, err := s.activeField(ctx, req.FieldID)
	if err != nil {
		return nil, err
	}

	conflict, err := s.detector.HasConflict(ctx, req.FieldID, date, req.StartTime, req.EndTime, "")
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrSlotConflict
	}

	b = &Booking{
		CustomerID:  actor.ID,
		FieldID:     f.ID,
		BookingDate: date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Duration:    hours,
		TotalPrice:  f.PriceFor(hours),
		Status:      StatusPending,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.invalidate(ctx, b)
	s.logger.Info().
		Str("booking_id", b.ID).
		Str("field_id", b.FieldID).
		Str("customer_id", b.CustomerID).
		Time("start_time", b.StartTime).
		Msg("booking created")
	return b, nil
}

func (s *service) Get(ctx context.Context, actor auth.Principal, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(b.CustomerID) {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *service) List(ctx context.Context, actor auth.Principal, q Query) ([]*Booking, int, error) {
	if !actor.IsAdmin() {
		q.CustomerID = actor.ID
	}
	if err := q.Normalize(); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, q)
}

func (s *service) Summary(ctx context.Context, actor auth.Principal) (*Summary, error) {
	customerID := actor.ID
	if actor.IsAdmin() {
		customerID = ""
	}
	now := s.opts.Now()
	return s.repo.Summary(ctx, customerID, now, now.Add(upcomingWindow))
}

// transition moves a booking to target on behalf of an admin.
func (s *service) transition(ctx context.Context, actor auth.Principal, id, op string, target Status) (b *Booking, err error) {
	defer func() { observe(op, err) }()

	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	b, err = s.repo.Modify(ctx, id, func(current *Booking) (*Booking, error) {
		if !current.Status.CanTransitionTo(target) {
			return nil, ErrInvalidStateTransition
		}
		current.Status = target
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	if !target.IsActive() {
		s.invalidate(ctx, b)
	}
	s.logger.Info().
		Str("booking_id", b.ID).
		Str("status", string(b.Status)).
		Str("operation", op).
		Str("actor_id", actor.ID).
		Msg("booking status changed")
	return b, nil
}

func (s *service) Confirm(ctx context.Context, actor auth.Principal, id string) (*Booking, error) {
	return s.transition(ctx, actor, id, "confirm", StatusConfirmed)
}

func (s *service) Reject(ctx context.Context, actor auth.Principal, id string) (*Booking, error) {
	return s.transition(ctx, actor, id, "reject", StatusRejected)
}

func (s *service) Complete(ctx context.Context, actor auth.Principal, id string) (*Booking, error) {
	return s.transition(ctx, actor, id, "complete", StatusCompleted)
}

// outsideLockout reports whether start is far enough away for a customer to
// still change the booking.
func (s *service) outsideLockout(start time.Time) bool {
	return s.opts.Now().Before(start.Add(-s.opts.Lockout))
}

func (s *service) Cancel(ctx context.Context, actor auth.Principal, id string) (b *Booking, err error) {
	defer func() { observe("cancel", err) }()

	b, err = s.repo.Modify(ctx, id, func(current *Booking) (*Booking, error) {
		if !actor.IsAdmin() && !actor.Owns(current.CustomerID) {
			return nil, ErrForbidden
		}
		if !current.Status.CanTransitionTo(StatusCancelled) {
			return nil, ErrInvalidStateTransition
		}
		if !actor.IsAdmin() && !s.outsideLockout(current.StartTime) {
			return nil, ErrCancellationWindow
		}
		current.Status = StatusCancelled
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, b)
	s.logger.Info().
		Str("booking_id", b.ID).
		Str("actor_id", actor.ID).
		Bool("by_admin", actor.IsAdmin()).
		Msg("booking cancelled")
	return b, nil
}

func (s *service) Reschedule(ctx context.Context, actor auth.Principal, id string, req RescheduleRequest) (b *Booking, err error) {
	defer func() { observe("reschedule", err) }()

	snapshot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(snapshot.CustomerID) {
		return nil, ErrForbidden
	}
	if !snapshot.Status.IsActive() {
		return nil, ErrInvalidStateTransition
	}

	// Field lookups stay outside the write transaction.
	fieldID := snapshot.FieldID
	if req.FieldID != nil {
		fieldID = *req.FieldID
	}
	f, err := s.activeField(ctx, fieldID)
	if err != nil {
		return nil, err
	}

	var previous Booking
	b, err = s.repo.Modify(ctx, id, func(current *Booking) (*Booking, error) {
		previous = *current

		if !actor.Owns(current.CustomerID) {
			return nil, ErrForbidden
		}
		if !current.Status.IsActive() {
			return nil, ErrInvalidStateTransition
		}
		if !actor.IsAdmin() && !s.outsideLockout(current.StartTime) {
			return nil, ErrCancellationWindow
		}

		next := s.applyReschedule(current, req)
		if next.FieldID != f.ID {
			// Moved to another field since the snapshot was read.
			return nil, ErrSlotConflict
		}

		duration := 0
		if req.Duration != nil {
			duration = *req.Duration
		}
		hours, err := s.checkRange(next.BookingDate, next.StartTime, next.EndTime, duration)
		if err != nil {
			return nil, err
		}

		next.FieldName = f.Name
		next.Duration = hours
		next.TotalPrice = f.PriceFor(hours)
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, &previous, b)
	s.logger.Info().
		Str("booking_id", b.ID).
		Str("field_id", b.FieldID).
		Time("start_time", b.StartTime).
		Msg("booking rescheduled")
	return b, nil
}

// applyReschedule overlays req on current. A new booking_date without new
// times keeps the booking's local wall-clock range on that date.
func (s *service) applyReschedule(current *Booking, req RescheduleRequest) *Booking {
	next := current.clone()
	if req.FieldID != nil {
		next.FieldID = *req.FieldID
	}
	if req.StartTime != nil {
		next.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		next.EndTime = *req.EndTime
	}

	switch {
	case req.BookingDate != nil && req.StartTime == nil && req.EndTime == nil:
		days := int(req.BookingDate.Sub(current.BookingDate) / (24 * time.Hour))
		next.BookingDate = *req.BookingDate
		next.StartTime = current.StartTime.In(s.opts.Location).AddDate(0, 0, days)
		next.EndTime = current.EndTime.In(s.opts.Location).AddDate(0, 0, days)
	case req.BookingDate != nil:
		next.BookingDate = *req.BookingDate
	case req.StartTime != nil:
		next.BookingDate = DateOf(next.StartTime, s.opts.Location)
	}
	return next
}

func (s *service) CompleteEnded(ctx context.Context) (int, error) {
	n, err := s.repo.CompleteEnded(ctx, s.opts.Now())
	if err != nil {
		return 0, err
	}
	metrics.BookingsSwept(n)
	return n, nil
}
