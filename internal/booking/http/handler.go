package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/field-booking-backend/internal/auth"
	"github.com/nekogravitycat/field-booking-backend/internal/booking"
	"github.com/nekogravitycat/field-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/field-booking-backend/internal/pkg/response"
)

// SlotLister computes day availability for a field.
type SlotLister interface {
	Slots(ctx context.Context, fieldID string, date time.Time) (*booking.DayAvailability, error)
}

type Handler struct {
	service      booking.Service
	availability SlotLister
	loc          *time.Location
}

func NewHandler(service booking.Service, availability SlotLister, loc *time.Location) *Handler {
	return &Handler{service: service, availability: availability, loc: loc}
}

func (h *Handler) principal(c *gin.Context) (auth.Principal, bool) {
	p, ok := auth.GetPrincipal(c)
	if !ok {
		response.Error(c, auth.ErrMissingToken)
	}
	return p, ok
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}

	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	q := booking.Query{
		FieldID:   req.FieldID,
		Status:    booking.Status(req.Status),
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}

	bookings, total, err := h.service.List(c.Request.Context(), actor, q)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b, h.loc)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Summary(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}

	s, err := h.service.Summary(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSummaryResponse(s))
}

func (h *Handler) Get(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}

	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	b, err := h.service.Get(c.Request.Context(), actor, uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b, h.loc))
}

func (h *Handler) Create(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}

	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	req := booking.CreateRequest{
		FieldID:   body.FieldID,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Duration:  body.Duration,
	}
	if body.BookingDate != "" {
		// Format already checked by binding.
		req.BookingDate, _ = time.Parse(time.DateOnly, body.BookingDate)
	}

	b, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b, h.loc))
}

func (h *Handler) Reschedule(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}

	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body RescheduleBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	req := booking.RescheduleRequest{
		FieldID:   body.FieldID,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Duration:  body.Duration,
	}
	if body.BookingDate != nil {
		date, _ := time.Parse(time.DateOnly, *body.BookingDate)
		req.BookingDate = &date
	}

	b, err := h.service.Reschedule(c.Request.Context(), actor, uri.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b, h.loc))
}

type transitionFunc func(ctx context.Context, actor auth.Principal, id string) (*booking.Booking, error)

// transition adapts a single-booking lifecycle operation to a handler.
func (h *Handler) transition(fn transitionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := h.principal(c)
		if !ok {
			return
		}

		var uri request.ByIDRequest
		if err := c.ShouldBindUri(&uri); err != nil {
			response.BadRequest(c, "invalid request", err)
			return
		}

		b, err := fn(c.Request.Context(), actor, uri.ID)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, NewBookingResponse(b, h.loc))
	}
}

func (h *Handler) Confirm(c *gin.Context)  { h.transition(h.service.Confirm)(c) }
func (h *Handler) Reject(c *gin.Context)   { h.transition(h.service.Reject)(c) }
func (h *Handler) Complete(c *gin.Context) { h.transition(h.service.Complete)(c) }
func (h *Handler) Cancel(c *gin.Context)   { h.transition(h.service.Cancel)(c) }

func (h *Handler) Slots(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var req SlotsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "date query parameter is required (YYYY-MM-DD)", err)
		return
	}
	date, _ := time.Parse(time.DateOnly, req.Date)

	day, err := h.availability.Slots(c.Request.Context(), uri.ID, date)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAvailabilityResponse(day, h.loc))
}
