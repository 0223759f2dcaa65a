// Package config
package config

import (
	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	"github.com/thanhpk/randstr"
)

// JWTConfig holds the secret shared with the portal that issues user tokens
type JWTConfig struct {
	Secret string `json:"secret"`
	Issuer string `json:"issuer"`
}

func defaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		Secret: randstr.String(64),
		Issuer: "FlightSchoolPortal",
	}
}

func (config *JWTConfig) checkValid(logger log.LoggerInterface) *ValidResult {
	if config.Secret == "" {
		config.Secret = randstr.String(64)
		logger.Warn("JWT secret is empty, generated a random one; tokens from the portal will not verify until it is shared")
	}
	return ValidPass()
}
