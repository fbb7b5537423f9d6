package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("DefaultLevel", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(Options{Output: &buf})
		assert.Equal(t, zerolog.InfoLevel, l.GetLevel())

		l.Debug().Msg("hidden")
		assert.Empty(t, buf.String())

		l.Info().Msg("shown")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		l := New(Options{Level: "nope", Output: &bytes.Buffer{}})
		assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
	})

	t.Run("DebugLevel", func(t *testing.T) {
		l := New(Options{Level: "DEBUG", Output: &bytes.Buffer{}})
		assert.Equal(t, zerolog.DebugLevel, l.GetLevel())
	})

	t.Run("Console", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(Options{Format: "console", Output: &buf})
		l.Info().Msg("pretty")
		assert.Contains(t, buf.String(), "pretty")
		assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
	})
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	base := New(Options{Output: &buf})

	r := gin.New()
	r.Use(RequestLogger(base))
	r.GET("/ping", func(c *gin.Context) {
		// The request context must carry the logger.
		zerolog.Ctx(c.Request.Context()).Info().Msg("inside handler")
		c.Status(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &entry))
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, "warn", entry["level"])
}
