package booking

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/field-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound               = apperror.NotFound("booking not found")
	ErrFieldNotFound          = apperror.NotFound("field not found")
	ErrFieldInactive          = apperror.Validation("field is not available for booking")
	ErrInvalidTimeRange       = apperror.Validation("start_time must be before end_time")
	ErrNotWholeHours          = apperror.Validation("booking must cover a whole number of hours")
	ErrDurationMismatch       = apperror.Validation("duration does not match the booked time range")
	ErrDateMismatch           = apperror.Validation("booking_date must be the local date of start_time")
	ErrCrossesMidnight        = apperror.Validation("booking must end by midnight of booking_date")
	ErrStartTimePast          = apperror.Validation("cannot book a time in the past")
	ErrInvalidStatus          = apperror.Validation("invalid booking status")
	ErrInvalidSort            = apperror.Validation("invalid sort field")
	ErrInvalidDateRange       = apperror.Validation("date_from must not be after date_to")
	ErrForbidden              = apperror.Forbidden("forbidden: you do not have access to this booking")
	ErrSlotConflict           = apperror.New(http.StatusConflict, apperror.KindSlotConflict, "time slot overlaps an existing booking")
	ErrInvalidStateTransition = apperror.New(http.StatusConflict, apperror.KindInvalidStateTransition, "operation not allowed for the current booking status")
	ErrCancellationWindow     = apperror.New(http.StatusUnprocessableEntity, apperror.KindCancellationWindow, "booking can no longer be changed this close to its start time")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// ActiveStatuses hold a field's time. Only these take part in overlap checks.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Booking is a customer's reservation of a field for a time range.
// BookingDate is the local calendar date at UTC midnight.
type Booking struct {
	ID           string
	CustomerID   string
	CustomerName string
	FieldID      string
	FieldName    string
	BookingDate  time.Time
	StartTime    time.Time
	EndTime      time.Time
	Duration     int
	TotalPrice   decimal.Decimal
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (b *Booking) clone() *Booking {
	cp := *b
	return &cp
}

// DateOf returns the calendar date of t in loc, expressed as UTC midnight.
func DateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LocalMidnight returns the start of date in loc.
func LocalMidnight(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Query filters the booking list. CustomerID scopes results to one customer.
type Query struct {
	CustomerID string
	FieldID    string
	Status     Status
	DateFrom   *time.Time
	DateTo     *time.Time
	SortBy     string
	SortOrder  string
	Page       int
	PageSize   int
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

var sortColumns = map[string]string{
	"created_at":   "b.created_at",
	"booking_date": "b.booking_date",
	"start_time":   "b.start_time",
	"total_price":  "b.total_price",
	"status":       "b.status",
}

// Normalize validates the query and fills in paging and sort defaults.
func (q *Query) Normalize() error {
	if q.Status != "" && !q.Status.Valid() {
		return ErrInvalidStatus
	}
	if q.SortBy == "" {
		q.SortBy = "created_at"
	}
	if _, ok := sortColumns[q.SortBy]; !ok {
		return ErrInvalidSort
	}
	switch q.SortOrder {
	case "ASC", "asc":
		q.SortOrder = "ASC"
	default:
		q.SortOrder = "DESC"
	}
	if q.DateFrom != nil && q.DateTo != nil && q.DateFrom.After(*q.DateTo) {
		return ErrInvalidDateRange
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	return nil
}

// Summary aggregates a customer's bookings, or all bookings for admins.
type Summary struct {
	Total         int
	Pending       int
	Confirmed     int
	Cancelled     int
	Rejected      int
	Completed     int
	Upcoming      int
	TotalSpending decimal.Decimal
}
