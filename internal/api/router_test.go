package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/field-booking-backend/internal/auth"
	"github.com/nekogravitycat/field-booking-backend/internal/metrics"
)

func newTestRouter(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	metrics.Register()
	return NewRouter(Config{
		Location:       time.FixedZone("UTC+07:00", 7*60*60),
		Logger:         zerolog.Nop(),
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
		JWTManager:     auth.NewJWTManager("test-secret", time.Minute),
	})
}

func TestRoutesRegistered(t *testing.T) {
	r := newTestRouter(0, 0)

	have := map[string]bool{}
	for _, rt := range r.Routes() {
		have[rt.Method+" "+rt.Path] = true
	}

	for _, want := range []string{
		"GET /healthz",
		"GET /metrics",
		"POST /v1/auth/register",
		"POST /v1/auth/login",
		"GET /v1/me",
		"GET /v1/users",
		"GET /v1/fields",
		"DELETE /v1/fields/:id",
		"GET /v1/fields/:id/schedules",
		"POST /v1/schedules",
		"GET /v1/fields/:id/slots",
		"GET /v1/fields/:id/photos",
		"POST /v1/bookings",
		"GET /v1/bookings/summary",
		"PATCH /v1/bookings/:id",
		"POST /v1/bookings/:id/confirm",
		"POST /v1/bookings/:id/reject",
		"POST /v1/bookings/:id/cancel",
		"POST /v1/bookings/:id/complete",
		"GET /v1/files/:id/thumbnail",
	} {
		assert.True(t, have[want], "missing route %s", want)
	}
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(0, 0)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	r := newTestRouter(0, 0)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/bookings", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimit(t *testing.T) {
	r := newTestRouter(0.001, 2)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	require.Len(t, codes, 3)
	assert.Equal(t, http.StatusUnauthorized, codes[0])
	assert.Equal(t, http.StatusUnauthorized, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])

	// Other clients have their own bucket.
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.RemoteAddr = "198.51.100.1:5000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
