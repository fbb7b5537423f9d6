package http

import (
	"time"

	"github.com/nekogravitycat/field-booking-backend/internal/schedule"
)

type ScheduleResponse struct {
	ID          string    `json:"id"`
	FieldID     string    `json:"field_id"`
	DayOfWeek   int       `json:"day_of_week"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewScheduleResponse(s *schedule.WeeklySchedule, loc *time.Location) ScheduleResponse {
	return ScheduleResponse{
		ID:          s.ID,
		FieldID:     s.FieldID,
		DayOfWeek:   s.DayOfWeek,
		StartTime:   schedule.FormatClock(s.StartTime, s.StartTime, loc),
		EndTime:     schedule.FormatClock(s.EndTime, s.StartTime, loc),
		IsAvailable: s.IsAvailable,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// CreateScheduleRequest takes start_time and end_time as "HH:MM" in the
// venue's offset, or as RFC3339 timestamps.
type CreateScheduleRequest struct {
	FieldID     string `json:"field_id" binding:"required,uuid"`
	DayOfWeek   *int   `json:"day_of_week" binding:"required"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time" binding:"required"`
	IsAvailable *bool  `json:"is_available"`
}

type UpdateScheduleRequest struct {
	DayOfWeek   *int    `json:"day_of_week"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	IsAvailable *bool   `json:"is_available"`
}

type FieldURI struct {
	ID string `uri:"id" binding:"required,uuid"`
}
