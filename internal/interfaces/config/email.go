// Package config
package config

import (
	"errors"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	"gopkg.in/gomail.v2"
)

type EmailConfig struct {
	Enabled     bool                 `json:"enabled"`
	Host        string               `json:"host"`
	Port        int                  `json:"port"`
	EmailServer *gomail.Dialer       `json:"-"`
	Username    string               `json:"username"`
	Password    string               `json:"password"`
	From        string               `json:"from"`
	Template    *EmailTemplateConfig `json:"template"`
}

func defaultEmailConfig() *EmailConfig {
	return &EmailConfig{
		Enabled:  false,
		Host:     "smtp.example.com",
		Port:     465,
		Username: "dispatch@example.com",
		Password: "123456",
		From:     "dispatch@example.com",
		Template: defaultEmailTemplateConfig(),
	}
}

func (config *EmailConfig) checkValid(logger log.LoggerInterface) *ValidResult {
	if !config.Enabled {
		logger.Warn("Email delivery is disabled, notifications will only be stored in-app")
		return ValidPass()
	}

	if result := config.Template.checkValid(logger); result.IsFail() {
		return result
	}

	if config.From == "" {
		config.From = config.Username
	}

	config.EmailServer = gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	dial, err := config.EmailServer.Dial()
	if err != nil {
		return ValidFailWith(errors.New("connecting to smtp server fail"), err)
	}
	_ = dial.Close()

	return ValidPass()
}
