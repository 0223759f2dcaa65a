// Package config
package config

import (
	"errors"
	"fmt"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/weather"
)

type Config struct {
	ConfigVersion string           `json:"config_version"`
	Server        *ServerConfig    `json:"server"`
	Database      *DatabaseConfig  `json:"database"`
	Weather       *WeatherConfig   `json:"weather"`
	Reasoning     *ReasoningConfig `json:"reasoning"`
	Pipeline      *PipelineConfig  `json:"pipeline"`
	Dispatch      *DispatchConfig  `json:"dispatch"`
	Minima        *MinimaConfig    `json:"minima"`
}

func DefaultConfig() *Config {
	return &Config{
		ConfigVersion: ConfVersion.String(),
		Server:        defaultServerConfig(),
		Database:      defaultDatabaseConfig(),
		Weather:       defaultWeatherConfig(),
		Reasoning:     defaultReasoningConfig(),
		Pipeline:      defaultPipelineConfig(),
		Dispatch:      defaultDispatchConfig(),
		Minima:        &MinimaConfig{Profiles: weather.DefaultMinimaProfiles()},
	}
}

func (c *Config) CheckValid(logger log.LoggerInterface) *ValidResult {
	if version, err := newVersion(c.ConfigVersion); err != nil {
		return ValidFailWith(errors.New("version string parse fail"), err)
	} else if result := ConfVersion.checkVersion(version); result != AllMatch {
		return ValidFail(fmt.Errorf("config version mismatch, expected %s, got %s", ConfVersion.String(), version.String()))
	}
	checks := []interface {
		checkValid(logger log.LoggerInterface) *ValidResult
	}{c.Database, c.Server, c.Weather, c.Reasoning, c.Pipeline, c.Dispatch, c.Minima}
	for _, section := range checks {
		if result := section.checkValid(logger); result.IsFail() {
			return result
		}
	}
	return ValidPass()
}
