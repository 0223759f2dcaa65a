// Package config
package config

import (
	"errors"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
)

type HttpServerLimit struct {
	RateLimit         int           `json:"rate_limit"`
	RateLimitWindow   string        `json:"rate_limit_window"`
	RateLimitDuration time.Duration `json:"-"`
	UserRateLimit     int           `json:"user_rate_limit"`
	PageSizeMax       int           `json:"page_size_max"`
}

func defaultHttpServerLimit() *HttpServerLimit {
	return &HttpServerLimit{
		RateLimit:       60,
		RateLimitWindow: "1m",
		UserRateLimit:   10,
		PageSizeMax:     100,
	}
}

func (config *HttpServerLimit) checkValid(_ log.LoggerInterface) *ValidResult {
	if result := parseDuration("http_server.limits.rate_limit_window", config.RateLimitWindow, &config.RateLimitDuration); result.IsFail() {
		return result
	}
	if config.RateLimit <= 0 {
		return ValidFail(errors.New("invalid json field http_server.limits.rate_limit, value must larger than 0"))
	}
	if config.UserRateLimit <= 0 {
		return ValidFail(errors.New("invalid json field http_server.limits.user_rate_limit, value must larger than 0"))
	}
	if config.PageSizeMax <= 0 {
		return ValidFail(errors.New("invalid json field http_server.limits.page_size_max, value must larger than 0"))
	}
	return ValidPass()
}
