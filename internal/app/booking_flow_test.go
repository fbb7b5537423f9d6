package app

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/field-booking-backend/internal/auth"
	bookingHttp "github.com/nekogravitycat/field-booking-backend/internal/booking/http"
	fieldHttp "github.com/nekogravitycat/field-booking-backend/internal/field/http"
	"github.com/nekogravitycat/field-booking-backend/internal/pkg/response"
	userHttp "github.com/nekogravitycat/field-booking-backend/internal/user/http"
)

// setupField creates a field open 08:00-22:00 on the weekday of date.
func setupField(t *testing.T, adminToken string, weekday int) string {
	t.Helper()

	w := executeRequest(http.MethodPost, "/v1/fields", map[string]any{
		"name":           "Center Court",
		"field_type":     "futsal",
		"price_per_hour": "100000",
	}, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	f := decode[fieldHttp.FieldResponse](t, w)

	w = executeRequest(http.MethodPost, "/v1/schedules", map[string]any{
		"field_id":    f.ID,
		"day_of_week": weekday,
		"start_time":  "08:00",
		"end_time":    "22:00",
	}, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = executeRequest(http.MethodPost, "/v1/schedules", map[string]any{
		"field_id":    f.ID,
		"day_of_week": weekday,
		"start_time":  "09:00",
		"end_time":    "12:00",
	}, adminToken)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_SCHEDULE", decode[response.ErrorResponse](t, w).Code)

	return f.ID
}

func TestAuthFlow(t *testing.T) {
	requireDB(t)
	clearTables(t)

	w := executeRequest(http.MethodPost, "/v1/auth/register", map[string]any{
		"email": "Carol@Example.com", "password": "password123", "display_name": "Carol",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = executeRequest(http.MethodPost, "/v1/auth/register", map[string]any{
		"email": "carol@example.com", "password": "password123",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = executeRequest(http.MethodPost, "/v1/auth/login", map[string]any{
		"email": "carol@example.com", "password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[userHttp.LoginResponse](t, w)
	assert.Equal(t, "customer", login.User.Role)

	w = executeRequest(http.MethodGet, "/v1/me", nil, login.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "carol@example.com", decode[userHttp.MeResponse](t, w).User.Email)

	w = executeRequest(http.MethodGet, "/v1/users", nil, login.AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = executeRequest(http.MethodPost, "/v1/auth/login", map[string]any{
		"email": "carol@example.com", "password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingLifecycle(t *testing.T) {
	requireDB(t)
	clearTables(t)

	_, adminToken := createTestUser(t, "admin@field.test", auth.RoleAdmin)
	alice, aliceToken := createTestUser(t, "alice@field.test", auth.RoleCustomer)
	_, bobToken := createTestUser(t, "bob@field.test", auth.RoleCustomer)

	date, weekday := futureDay(14)
	fieldID := setupField(t, adminToken, weekday)
	slotsPath := fmt.Sprintf("/v1/fields/%s/slots?date=%s", fieldID, date.Format("2006-01-02"))

	var bookingID string

	t.Run("SlotsBeforeBooking", func(t *testing.T) {
		w := executeRequest(http.MethodGet, slotsPath, nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		day := decode[bookingHttp.AvailabilityResponse](t, w)
		assert.True(t, day.IsOpen)
		assert.Len(t, day.Slots, 14)
	})

	t.Run("Create", func(t *testing.T) {
		w := executeRequest(http.MethodPost, "/v1/bookings", map[string]any{
			"field_id":     fieldID,
			"booking_date": date.Format("2006-01-02"),
			"start_time":   venueTime(date, 10),
			"end_time":     venueTime(date, 12),
			"duration":     2,
		}, aliceToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		b := decode[bookingHttp.BookingResponse](t, w)
		bookingID = b.ID
		assert.Equal(t, "pending", b.Status)
		assert.Equal(t, alice.ID, b.Customer.ID)
		assert.Equal(t, "200000", b.TotalPrice.String())
	})

	t.Run("OverlapRejected", func(t *testing.T) {
		w := executeRequest(http.MethodPost, "/v1/bookings", map[string]any{
			"field_id":   fieldID,
			"start_time": venueTime(date, 11),
			"end_time":   venueTime(date, 13),
		}, bobToken)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "SLOT_CONFLICT", decode[response.ErrorResponse](t, w).Code)
	})

	t.Run("SlotsExcludeBooking", func(t *testing.T) {
		w := executeRequest(http.MethodGet, slotsPath, nil, "")
		day := decode[bookingHttp.AvailabilityResponse](t, w)
		assert.Len(t, day.Slots, 12)
		for _, s := range day.Slots {
			h := s.StartTime.In(venue).Hour()
			assert.False(t, h == 10 || h == 11, "hour %d should be taken", h)
		}
	})

	t.Run("OwnershipScoping", func(t *testing.T) {
		w := executeRequest(http.MethodGet, "/v1/bookings/"+bookingID, nil, bobToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = executeRequest(http.MethodGet, "/v1/bookings", nil, bobToken)
		page := decode[response.PageResponse[bookingHttp.BookingResponse]](t, w)
		assert.Equal(t, 0, page.Total)

		w = executeRequest(http.MethodGet, "/v1/bookings", nil, adminToken)
		page = decode[response.PageResponse[bookingHttp.BookingResponse]](t, w)
		assert.Equal(t, 1, page.Total)
	})

	t.Run("Reschedule", func(t *testing.T) {
		w := executeRequest(http.MethodPatch, "/v1/bookings/"+bookingID, map[string]any{
			"start_time": venueTime(date, 14),
			"end_time":   venueTime(date, 15),
		}, aliceToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		b := decode[bookingHttp.BookingResponse](t, w)
		assert.Equal(t, 1, b.Duration)
		assert.Equal(t, "100000", b.TotalPrice.String())
	})

	t.Run("ConfirmThenReject", func(t *testing.T) {
		w := executeRequest(http.MethodPost, "/v1/bookings/"+bookingID+"/confirm", nil, aliceToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = executeRequest(http.MethodPost, "/v1/bookings/"+bookingID+"/confirm", nil, adminToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "confirmed", decode[bookingHttp.BookingResponse](t, w).Status)

		w = executeRequest(http.MethodPost, "/v1/bookings/"+bookingID+"/reject", nil, adminToken)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "INVALID_STATE_TRANSITION", decode[response.ErrorResponse](t, w).Code)
	})

	t.Run("Summary", func(t *testing.T) {
		w := executeRequest(http.MethodGet, "/v1/bookings/summary", nil, aliceToken)
		require.Equal(t, http.StatusOK, w.Code)
		s := decode[bookingHttp.SummaryResponse](t, w)
		assert.Equal(t, 1, s.Total)
		assert.Equal(t, 1, s.Confirmed)
		assert.Equal(t, "100000", s.TotalSpending.String())
	})

	t.Run("CancelFreesSlot", func(t *testing.T) {
		w := executeRequest(http.MethodPost, "/v1/bookings/"+bookingID+"/cancel", nil, aliceToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "cancelled", decode[bookingHttp.BookingResponse](t, w).Status)

		w = executeRequest(http.MethodPost, "/v1/bookings/"+bookingID+"/cancel", nil, aliceToken)
		assert.Equal(t, http.StatusConflict, w.Code)

		w = executeRequest(http.MethodPost, "/v1/bookings", map[string]any{
			"field_id":   fieldID,
			"start_time": venueTime(date, 14),
			"end_time":   venueTime(date, 15),
		}, bobToken)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("DeleteFieldCascades", func(t *testing.T) {
		w := executeRequest(http.MethodDelete, "/v1/fields/"+fieldID, nil, adminToken)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		w = executeRequest(http.MethodGet, "/v1/bookings/"+bookingID, nil, adminToken)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = executeRequest(http.MethodGet, fmt.Sprintf("/v1/fields/%s/schedules", fieldID), nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestConcurrentBookingsForSameSlot(t *testing.T) {
	requireDB(t)
	clearTables(t)

	_, adminToken := createTestUser(t, "admin@race.test", auth.RoleAdmin)
	date, weekday := futureDay(21)
	fieldID := setupField(t, adminToken, weekday)

	const contenders = 8
	tokens := make([]string, contenders)
	for i := range tokens {
		_, tokens[i] = createTestUser(t, fmt.Sprintf("racer%d@race.test", i), auth.RoleCustomer)
	}

	var wg sync.WaitGroup
	codes := make([]int, contenders)
	for i := range contenders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Overlapping but not identical ranges race on the same hours.
			start := 16 + i%2
			w := executeRequest(http.MethodPost, "/v1/bookings", map[string]any{
				"field_id":   fieldID,
				"start_time": venueTime(date, start),
				"end_time":   venueTime(date, start+2),
			}, tokens[i])
			codes[i] = w.Code
		}()
	}
	wg.Wait()

	var created, conflicts int
	for _, c := range codes {
		switch c {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		}
	}
	assert.Equal(t, 1, created, "codes: %v", codes)
	assert.Equal(t, contenders-1, conflicts, "codes: %v", codes)
}
