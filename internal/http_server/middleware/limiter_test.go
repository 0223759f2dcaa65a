package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/service"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestSlidingWindowLimiter(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	limiter := NewSlidingWindowLimiter(time.Minute, 2)
	limiter.now = func() time.Time { return now }

	allowed, _ := limiter.Allow("a")
	assert.True(t, allowed)
	now = now.Add(20 * time.Second)
	allowed, _ = limiter.Allow("a")
	assert.True(t, allowed)

	allowed, retryAfter := limiter.Allow("a")
	assert.False(t, allowed)
	assert.Equal(t, 40*time.Second, retryAfter)

	allowed, _ = limiter.Allow("b")
	assert.True(t, allowed)

	now = now.Add(41 * time.Second)
	allowed, _ = limiter.Allow("a")
	assert.True(t, allowed)

	now = now.Add(3 * time.Minute)
	limiter.cleanup()
	assert.Empty(t, limiter.records)
}

func TestUserKeyFunc(t *testing.T) {
	e := echo.New()
	tests := []struct {
		name  string
		token any
		want  string
	}{
		{"claims", jwt.NewWithClaims(jwt.SigningMethodHS512, &service.Claims{Uid: 42}), "uid:42|/api/detections"},
		{"no token", nil, "192.0.2.10|/api/detections"},
		{"foreign claims", jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{}), "192.0.2.10|/api/detections"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/detections", nil)
			req.RemoteAddr = "192.0.2.10:40000"
			ctx := e.NewContext(req, httptest.NewRecorder())
			ctx.SetPath("/api/detections")
			if tt.token != nil {
				ctx.Set("user", tt.token)
			}
			assert.Equal(t, tt.want, UserKeyFunc(ctx))
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	e := echo.New()
	limiter := NewSlidingWindowLimiter(time.Minute, 1)
	handler := RateLimitMiddleware(limiter, func(echo.Context) string { return "k" })(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	assert.NoError(t, handler(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	assert.NoError(t, handler(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), service.ErrRateLimited.StatusName)
}
