package schedule

import (
	"net/http"
	"strings"
	"time"

	"github.com/nekogravitycat/field-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound            = apperror.NotFound("schedule not found")
	ErrFieldNotFound       = apperror.NotFound("field not found")
	ErrDuplicate           = apperror.New(http.StatusConflict, apperror.KindDuplicateSchedule, "a schedule already exists for this field and day of week")
	ErrInvalidRange        = apperror.Validation("start_time must be before end_time")
	ErrWindowTooLong       = apperror.Validation("schedule window cannot exceed 24 hours")
	ErrDayOfWeekOutOfRange = apperror.Validation("day_of_week must be between 0 and 6")
	ErrInvalidClock        = apperror.Validation("time must be HH:MM or RFC3339")
	ErrForbidden           = apperror.Forbidden("forbidden: admin access required")
)

// WeeklySchedule is the recurring open window of a field on one day of the week.
// DayOfWeek follows time.Weekday: 0 is Sunday.
type WeeklySchedule struct {
	ID          string
	FieldID     string
	DayOfWeek   int
	StartTime   time.Time
	EndTime     time.Time
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LocalHours returns the whole-hour window [startHour, endHour) of the
// schedule in loc. A window that ends at or past local midnight closes at 24.
// A window too short to hold a full hour yields startHour == endHour.
func (s *WeeklySchedule) LocalHours(loc *time.Location) (startHour, endHour int) {
	start := s.StartTime.In(loc)
	end := s.EndTime.In(loc)

	startHour = start.Hour()
	if start.Minute() > 0 || start.Second() > 0 || start.Nanosecond() > 0 {
		startHour++
	}

	endHour = end.Hour()
	if dateOf(end).After(dateOf(start)) {
		endHour = 24
	}

	if endHour < startHour {
		endHour = startHour
	}
	return startHour, endHour
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validDay(day int) bool {
	return day >= 0 && day <= 6
}

func validRange(start, end time.Time) error {
	if !start.Before(end) {
		return ErrInvalidRange
	}
	if end.Sub(start) > 24*time.Hour {
		return ErrWindowTooLong
	}
	return nil
}

// referenceDay anchors wall-clock inputs. Only the clock part of a stored
// window is meaningful.
var referenceDay = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// ParseWindow parses the bounds of a window given as "HH:MM" wall-clock values
// in loc, or as RFC3339 timestamps. An end of "00:00" or "24:00" is midnight
// at the close of the day.
func ParseWindow(start, end string, loc *time.Location) (time.Time, time.Time, error) {
	s, err := parseClock(start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := parseClock(end, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if strings.TrimSpace(end) == "00:00" {
		e = e.AddDate(0, 0, 1)
	}
	return s, e, nil
}

func parseClock(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}

	y, m, d := referenceDay.Date()
	if v == "24:00" {
		return time.Date(y, m, d+1, 0, 0, 0, 0, loc), nil
	}

	t, err := time.Parse("15:04", v)
	if err != nil {
		return time.Time{}, ErrInvalidClock
	}
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc), nil
}

// FormatClock renders a window bound as "HH:MM" in loc. ref is the window
// start; a bound on a later day than ref renders as "24:00".
func FormatClock(t, ref time.Time, loc *time.Location) string {
	local := t.In(loc)
	if local.Hour() == 0 && local.Minute() == 0 && dateOf(local).After(dateOf(ref.In(loc))) {
		return "24:00"
	}
	return local.Format("15:04")
}
