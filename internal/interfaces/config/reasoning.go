// Package config
package config

import (
	"errors"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
)

// ReasoningConfig points at an OpenAI compatible chat completions endpoint
type ReasoningConfig struct {
	BaseUrl         string        `json:"base_url"`
	ApiKey          string        `json:"api_key"`
	Model           string        `json:"model"`
	RequestTimeout  string        `json:"request_timeout"`
	RequestDuration time.Duration `json:"-"`
	Temperature     float64       `json:"temperature"`
}

func defaultReasoningConfig() *ReasoningConfig {
	return &ReasoningConfig{
		BaseUrl:        "https://api.openai.com/v1",
		ApiKey:         "",
		Model:          "gpt-4o-mini",
		RequestTimeout: "30s",
		Temperature:    0.2,
	}
}

func (config *ReasoningConfig) checkValid(logger log.LoggerInterface) *ValidResult {
	if config.ApiKey == "" {
		logger.Warn("reasoning.api_key is empty, conflicts will stay in ai_processing until it is configured")
	}
	if config.Model == "" {
		return ValidFail(errors.New("invalid json field reasoning.model, value must not be empty"))
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return ValidFail(errors.New("invalid json field reasoning.temperature, value must between 0 and 2"))
	}
	return parseDuration("reasoning.request_timeout", config.RequestTimeout, &config.RequestDuration)
}
