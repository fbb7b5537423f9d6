package booking

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/nekogravitycat/field-booking-backend/internal/field"
	"github.com/nekogravitycat/field-booking-backend/internal/metrics"
	"github.com/nekogravitycat/field-booking-backend/internal/schedule"
)

// DayAvailability is the slot listing of one field on one date. IsOpen is
// false when the field is inactive or has no available schedule that day.
type DayAvailability struct {
	FieldID string    `json:"field_id"`
	Date    time.Time `json:"date"`
	IsOpen  bool      `json:"is_open"`
	Slots   []Slot    `json:"slots"`
}

// FieldLookup reads catalog fields.
type FieldLookup interface {
	GetByID(ctx context.Context, id string) (*field.Field, error)
}

// ScheduleLookup returns the available weekly window of a field for a day.
type ScheduleLookup interface {
	GetForDay(ctx context.Context, fieldID string, dayOfWeek int) (*schedule.WeeklySchedule, error)
}

type AvailabilityService struct {
	fields    FieldLookup
	schedules ScheduleLookup
	bookings  OverlapFinder
	cache     SlotCache
	loc       *time.Location
	now       func() time.Time
	logger    zerolog.Logger
}

func NewAvailabilityService(
	fields FieldLookup,
	schedules ScheduleLookup,
	bookings OverlapFinder,
	cache SlotCache,
	opts Options,
	logger zerolog.Logger,
) *AvailabilityService {
	opts = opts.withDefaults()
	return &AvailabilityService{
		fields:    fields,
		schedules: schedules,
		bookings:  bookings,
		cache:     cache,
		loc:       opts.Location,
		now:       opts.Now,
		logger:    logger.With().Str("module", "availability").Logger(),
	}
}

// Slots returns the free one-hour slots of a field on date. Slots that have
// already started are left out.
func (s *AvailabilityService) Slots(ctx context.Context, fieldID string, date time.Time) (*DayAvailability, error) {
	y, m, d := date.Date()
	date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	f, err := s.fields.GetByID(ctx, fieldID)
	if err != nil {
		if errors.Is(err, field.ErrNotFound) {
			return nil, ErrFieldNotFound
		}
		return nil, err
	}
	if !f.Bookable() {
		return &DayAvailability{FieldID: fieldID, Date: date, Slots: []Slot{}}, nil
	}

	day, hit, err := s.cache.Get(ctx, fieldID, date)
	switch {
	case err != nil:
		metrics.SlotCacheLookup("error")
		s.logger.Warn().Err(err).Str("field_id", fieldID).Msg("slot cache read failed")
	case hit:
		metrics.SlotCacheLookup("hit")
	default:
		metrics.SlotCacheLookup("miss")
	}

	if !hit {
		day, err = s.compute(ctx, fieldID, date)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, day); err != nil {
			s.logger.Warn().Err(err).Str("field_id", fieldID).Msg("slot cache write failed")
		}
	}

	return s.upcoming(day), nil
}

func (s *AvailabilityService) compute(ctx context.Context, fieldID string, date time.Time) (*DayAvailability, error) {
	day := &DayAvailability{FieldID: fieldID, Date: date, Slots: []Slot{}}

	ws, err := s.schedules.GetForDay(ctx, fieldID, int(date.Weekday()))
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			return day, nil
		}
		return nil, err
	}

	midnight := LocalMidnight(date, s.loc)
	bookings, err := s.bookings.FindActiveOverlaps(ctx, fieldID, date, midnight, midnight.Add(24*time.Hour), "")
	if err != nil {
		return nil, err
	}

	day.IsOpen = true
	day.Slots = append(day.Slots, GenerateSlots(ws, bookings, date, s.loc)...)
	return day, nil
}

func (s *AvailabilityService) upcoming(day *DayAvailability) *DayAvailability {
	now := s.now()
	out := &DayAvailability{FieldID: day.FieldID, Date: day.Date, IsOpen: day.IsOpen, Slots: make([]Slot, 0, len(day.Slots))}
	for _, slot := range day.Slots {
		if slot.StartTime.After(now) {
			out.Slots = append(out.Slots, slot)
		}
	}
	return out
}
