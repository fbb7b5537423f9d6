package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/field-booking-backend/internal/booking"
	"github.com/nekogravitycat/field-booking-backend/internal/pkg/request"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	FieldID  string     `form:"field_id" binding:"omitempty,uuid"`
	Status   string     `form:"status" binding:"omitempty,oneof=pending confirmed cancelled rejected completed"`
	DateFrom *time.Time `form:"date_from" time_format:"2006-01-02" time_utc:"1"`
	DateTo   *time.Time `form:"date_to" time_format:"2006-01-02" time_utc:"1"`
	SortBy   string     `form:"sort_by" binding:"omitempty,oneof=created_at booking_date start_time total_price status"`
}

// Tag is a compact reference to a related entity.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BookingResponse struct {
	ID          string          `json:"id"`
	Customer    Tag             `json:"customer"`
	Field       Tag             `json:"field"`
	BookingDate string          `json:"booking_date"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
	Duration    int             `json:"duration"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking, loc *time.Location) BookingResponse {
	return BookingResponse{
		ID:          b.ID,
		Customer:    Tag{ID: b.CustomerID, Name: b.CustomerName},
		Field:       Tag{ID: b.FieldID, Name: b.FieldName},
		BookingDate: b.BookingDate.Format(time.DateOnly),
		StartTime:   b.StartTime.In(loc),
		EndTime:     b.EndTime.In(loc),
		Duration:    b.Duration,
		TotalPrice:  b.TotalPrice,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// CreateBookingRequest: booking_date and duration may be omitted and are then
// derived from the time range.
type CreateBookingRequest struct {
	FieldID     string    `json:"field_id" binding:"required,uuid"`
	BookingDate string    `json:"booking_date" binding:"omitempty,datetime=2006-01-02"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
	Duration    int       `json:"duration" binding:"omitempty,min=1"`
}

type RescheduleBookingRequest struct {
	FieldID     *string    `json:"field_id" binding:"omitempty,uuid"`
	BookingDate *string    `json:"booking_date" binding:"omitempty,datetime=2006-01-02"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Duration    *int       `json:"duration" binding:"omitempty,min=1"`
}

type SummaryResponse struct {
	Total         int             `json:"total"`
	Pending       int             `json:"pending"`
	Confirmed     int             `json:"confirmed"`
	Cancelled     int             `json:"cancelled"`
	Rejected      int             `json:"rejected"`
	Completed     int             `json:"completed"`
	Upcoming      int             `json:"upcoming"`
	TotalSpending decimal.Decimal `json:"total_spending"`
}

func NewSummaryResponse(s *booking.Summary) SummaryResponse {
	return SummaryResponse{
		Total:         s.Total,
		Pending:       s.Pending,
		Confirmed:     s.Confirmed,
		Cancelled:     s.Cancelled,
		Rejected:      s.Rejected,
		Completed:     s.Completed,
		Upcoming:      s.Upcoming,
		TotalSpending: s.TotalSpending,
	}
}

type SlotsRequest struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

type SlotResponse struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type AvailabilityResponse struct {
	FieldID string         `json:"field_id"`
	Date    string         `json:"date"`
	IsOpen  bool           `json:"is_open"`
	Message string         `json:"message,omitempty"`
	Slots   []SlotResponse `json:"slots"`
}

func NewAvailabilityResponse(day *booking.DayAvailability, loc *time.Location) AvailabilityResponse {
	resp := AvailabilityResponse{
		FieldID: day.FieldID,
		Date:    day.Date.Format(time.DateOnly),
		IsOpen:  day.IsOpen,
		Slots:   make([]SlotResponse, len(day.Slots)),
	}
	if !day.IsOpen {
		resp.Message = "field is not available on this day"
	}
	for i, s := range day.Slots {
		resp.Slots[i] = SlotResponse{StartTime: s.StartTime.In(loc), EndTime: s.EndTime.In(loc)}
	}
	return resp
}
