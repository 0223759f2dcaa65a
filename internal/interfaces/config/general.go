// Package config
package config

import (
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
)

type GeneralConfig struct {
	// Timezone availability patterns are expressed in
	Timezone string         `json:"timezone"`
	Location *time.Location `json:"-"`
}

func defaultGeneralConfig() *GeneralConfig {
	return &GeneralConfig{
		Timezone: "UTC",
	}
}

func (config *GeneralConfig) checkValid(_ log.LoggerInterface) *ValidResult {
	location, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return invalidField("server.general.timezone", err)
	}
	config.Location = location
	return ValidPass()
}
