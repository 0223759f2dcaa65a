// Package config
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
)

type DispatchType string

const (
	MemoryDispatch DispatchType = "memory"
	NatsDispatch   DispatchType = "nats"
)

var allowedDispatchType = []DispatchType{MemoryDispatch, NatsDispatch}

type DispatchConfig struct {
	Type            string        `json:"type"`
	DispatchType    DispatchType  `json:"-"`
	NatsUrl         string        `json:"nats_url"`
	SubjectPrefix   string        `json:"subject_prefix"`
	QueueGroup      string        `json:"queue_group"`
	Workers         int           `json:"workers"`
	QueueSize       int           `json:"queue_size"`
	MaxAttempts     int           `json:"max_attempts"`
	Backoff         string        `json:"backoff"`
	BackoffDuration time.Duration `json:"-"`
	HandlerTimeout  string        `json:"handler_timeout"`
	HandlerDuration time.Duration `json:"-"`
}

func defaultDispatchConfig() *DispatchConfig {
	return &DispatchConfig{
		Type:           string(MemoryDispatch),
		NatsUrl:        "nats://127.0.0.1:4222",
		SubjectPrefix:  "wxguard.jobs",
		QueueGroup:     "wxguard",
		Workers:        4,
		QueueSize:      256,
		MaxAttempts:    3,
		Backoff:        "2s",
		HandlerTimeout: "2m",
	}
}

func (config *DispatchConfig) checkValid(_ log.LoggerInterface) *ValidResult {
	config.DispatchType = DispatchType(config.Type)
	if !slices.Contains(allowedDispatchType, config.DispatchType) {
		return ValidFail(fmt.Errorf("dispatch type %s is not allowed, support type is %v", config.Type, allowedDispatchType))
	}
	if config.DispatchType == NatsDispatch && config.NatsUrl == "" {
		return ValidFail(errors.New("invalid json field dispatch.nats_url, value must not be empty when type is nats"))
	}
	if config.Workers <= 0 {
		return ValidFail(errors.New("invalid json field dispatch.workers, value must larger than 0"))
	}
	if config.QueueSize <= 0 {
		return ValidFail(errors.New("invalid json field dispatch.queue_size, value must larger than 0"))
	}
	if config.MaxAttempts <= 0 {
		return ValidFail(errors.New("invalid json field dispatch.max_attempts, value must larger than 0"))
	}
	if result := parseDuration("dispatch.backoff", config.Backoff, &config.BackoffDuration); result.IsFail() {
		return result
	}
	return parseDuration("dispatch.handler_timeout", config.HandlerTimeout, &config.HandlerDuration)
}
