// Package config
package config

import "github.com/half-nothing/simple-wxguard/internal/interfaces/log"

type SSLConfig struct {
	Enable          bool   `json:"enable"`
	ForceSSL        bool   `json:"force_ssl"`
	HstsExpiredTime int    `json:"hsts_expired_time"`
	IncludeDomain   bool   `json:"include_domain"`
	CertFile        string `json:"cert_file"`
	KeyFile         string `json:"key_file"`
}

func defaultSSLConfig() *SSLConfig {
	return &SSLConfig{
		HstsExpiredTime: 5184000,
	}
}

func (config *SSLConfig) checkValid(logger log.LoggerInterface) *ValidResult {
	if config.Enable && (config.CertFile == "" || config.KeyFile == "") {
		logger.WarnF("HTTPS requires both cert and key files (cert: %q, key: %q), falling back to HTTP", config.CertFile, config.KeyFile)
		config.Enable = false
	}
	if !config.Enable {
		if config.ForceSSL {
			logger.Warn("force_ssl requires ssl to be enabled, disabling force_ssl")
		}
		config.ForceSSL = false
		config.HstsExpiredTime = 0
		config.IncludeDomain = false
	}
	return ValidPass()
}
