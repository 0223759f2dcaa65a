// Package middleware
package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/service"
	"github.com/labstack/echo/v4"
)

// SlidingWindowLimiter 滑动窗口限流器, 每个键独立计数
type SlidingWindowLimiter struct {
	windowSize  time.Duration
	maxRequests int
	records     map[string][]time.Time
	now         func() time.Time
	mu          sync.Mutex
}

func NewSlidingWindowLimiter(windowSize time.Duration, maxRequests int) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		records:     make(map[string][]time.Time),
		now:         time.Now,
	}
}

// Allow 记录一次请求, 超出窗口配额时返回 false 以及最早可重试的等待时间
func (l *SlidingWindowLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.windowSize)
	records := l.records[key]
	expired := 0
	for expired < len(records) && !records[expired].After(windowStart) {
		expired++
	}
	records = records[expired:]

	if len(records) >= l.maxRequests {
		l.records[key] = records
		return false, records[0].Add(l.windowSize).Sub(now)
	}

	l.records[key] = append(records, now)
	return true, 0
}

// StartCleanup 定期清理长时间没有请求的键
func (l *SlidingWindowLimiter) StartCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			l.cleanup()
		}
	}()
}

func (l *SlidingWindowLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	threshold := l.now().Add(-2 * l.windowSize)
	for key, records := range l.records {
		if len(records) == 0 || records[len(records)-1].Before(threshold) {
			delete(l.records, key)
		}
	}
}

// RateLimitMiddleware 按 keyFunc 分组限流, 超限时返回 429 与 Retry-After
func RateLimitMiddleware(limiter *SlidingWindowLimiter, keyFunc func(c echo.Context) string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, retryAfter := limiter.Allow(keyFunc(c))
			if !allowed {
				seconds := int(retryAfter.Round(time.Second) / time.Second)
				if seconds < 1 {
					seconds = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				return service.NewErrorResponse(c, &service.ErrRateLimited)
			}
			return next(c)
		}
	}
}

// CombinedKeyFunc 组合IP和端点生成键
func CombinedKeyFunc(c echo.Context) string {
	return c.RealIP() + "|" + c.Path()
}

// UserKeyFunc 组合JWT中的用户和端点生成键, 必须挂在JWT中间件之后
func UserKeyFunc(c echo.Context) string {
	if token, ok := c.Get("user").(*jwt.Token); ok {
		if claims, ok := token.Claims.(*service.Claims); ok {
			return "uid:" + strconv.FormatUint(uint64(claims.Uid), 10) + "|" + c.Path()
		}
	}
	return CombinedKeyFunc(c)
}
