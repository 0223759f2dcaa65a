// Package config
package config

import (
	"fmt"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
)

type HttpServerConfig struct {
	Enabled   bool             `json:"enabled"`
	Host      string           `json:"host"`
	Port      uint             `json:"port"`
	Address   string           `json:"-"`
	ProxyType int              `json:"proxy_type"`
	BodyLimit string           `json:"body_limit"`
	Limits    *HttpServerLimit `json:"limits"`
	Email     *EmailConfig     `json:"email"`
	JWT       *JWTConfig       `json:"jwt"`
	SSL       *SSLConfig       `json:"ssl"`
}

func defaultHttpServerConfig() *HttpServerConfig {
	return &HttpServerConfig{
		Enabled:   true,
		Host:      "0.0.0.0",
		Port:      6820,
		ProxyType: 0,
		BodyLimit: "1MB",
		Limits:    defaultHttpServerLimit(),
		Email:     defaultEmailConfig(),
		JWT:       defaultJWTConfig(),
		SSL:       defaultSSLConfig(),
	}
}

func (config *HttpServerConfig) checkValid(logger log.LoggerInterface) *ValidResult {
	// email is validated even without the api, notifications depend on it
	if result := config.Email.checkValid(logger); result.IsFail() {
		return result
	}
	if !config.Enabled {
		return ValidPass()
	}
	if result := checkPort(config.Port); result.IsFail() {
		return result
	}

	config.Address = fmt.Sprintf("%s:%d", config.Host, config.Port)

	if config.BodyLimit == "" {
		logger.WarnF("body_limit is empty, where the length of the request body is not restricted. This is a very dangerous behavior")
	}

	if result := config.SSL.checkValid(logger); result.IsFail() {
		return result
	}
	if result := config.Limits.checkValid(logger); result.IsFail() {
		return result
	}
	if result := config.JWT.checkValid(logger); result.IsFail() {
		return result
	}
	return ValidPass()
}
