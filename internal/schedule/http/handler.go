package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/field-booking-backend/internal/auth"
	"github.com/nekogravitycat/field-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/field-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/field-booking-backend/internal/schedule"
)

type Handler struct {
	service schedule.Service
	loc     *time.Location
}

func NewHandler(service schedule.Service, loc *time.Location) *Handler {
	return &Handler{service: service, loc: loc}
}

func (h *Handler) Create(c *gin.Context) {
	actor, ok := auth.GetPrincipal(c)
	if !ok {
		response.Error(c, auth.ErrMissingToken)
		return
	}

	var body CreateScheduleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	start, end, err := schedule.ParseWindow(body.StartTime, body.EndTime, h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}

	ws, err := h.service.Create(c.Request.Context(), actor, schedule.CreateRequest{
		FieldID:     body.FieldID,
		DayOfWeek:   *body.DayOfWeek,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: body.IsAvailable,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewScheduleResponse(ws, h.loc))
}

func (h *Handler) ListByField(c *gin.Context) {
	var uri FieldURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	schedules, err := h.service.ListByField(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ScheduleResponse, len(schedules))
	for i, s := range schedules {
		items[i] = NewScheduleResponse(s, h.loc)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	ws, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewScheduleResponse(ws, h.loc))
}

func (h *Handler) Update(c *gin.Context) {
	actor, ok := auth.GetPrincipal(c)
	if !ok {
		response.Error(c, auth.ErrMissingToken)
		return
	}

	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body UpdateScheduleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	req := schedule.UpdateRequest{
		DayOfWeek:   body.DayOfWeek,
		IsAvailable: body.IsAvailable,
	}

	// Window changes need both bounds.
	if body.StartTime != nil || body.EndTime != nil {
		if body.StartTime == nil || body.EndTime == nil {
			response.BadRequest(c, "start_time and end_time must be updated together", nil)
			return
		}
		start, end, err := schedule.ParseWindow(*body.StartTime, *body.EndTime, h.loc)
		if err != nil {
			response.Error(c, err)
			return
		}
		req.StartTime, req.EndTime = &start, &end
	}

	ws, err := h.service.Update(c.Request.Context(), actor, uri.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewScheduleResponse(ws, h.loc))
}

func (h *Handler) Delete(c *gin.Context) {
	actor, ok := auth.GetPrincipal(c)
	if !ok {
		response.Error(c, auth.ErrMissingToken)
		return
	}

	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
