// Package config
package config

import (
	"errors"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
)

// PipelineConfig empty intervals leave triggering to an external scheduler calling the api
type PipelineConfig struct {
	DetectionLookahead         string        `json:"detection_lookahead"`
	DetectionLookaheadDuration time.Duration `json:"-"`
	SlotHorizonDays            int           `json:"slot_horizon_days"`
	SlotStep                   string        `json:"slot_step"`
	SlotStepDuration           time.Duration `json:"-"`
	MaxCandidates              int           `json:"max_candidates"`
	ProposalsPerConflict       int           `json:"proposals_per_conflict"`
	StaleGrace                 string        `json:"stale_grace"`
	StaleGraceDuration         time.Duration `json:"-"`
	DetectionInterval          string        `json:"detection_interval"`
	DetectionIntervalDuration  time.Duration `json:"-"`
	RedriveInterval            string        `json:"redrive_interval"`
	RedriveIntervalDuration    time.Duration `json:"-"`
}

func defaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		DetectionLookahead:   "3h",
		SlotHorizonDays:      7,
		SlotStep:             "1h",
		MaxCandidates:        20,
		ProposalsPerConflict: 3,
		StaleGrace:           "15m",
		DetectionInterval:    "",
		RedriveInterval:      "",
	}
}

func (config *PipelineConfig) checkValid(_ log.LoggerInterface) *ValidResult {
	if result := parseDuration("pipeline.detection_lookahead", config.DetectionLookahead, &config.DetectionLookaheadDuration); result.IsFail() {
		return result
	}
	if result := parseDuration("pipeline.slot_step", config.SlotStep, &config.SlotStepDuration); result.IsFail() {
		return result
	}
	if config.SlotStepDuration <= 0 {
		return ValidFail(errors.New("invalid json field pipeline.slot_step, value must larger than 0"))
	}
	if result := parseDuration("pipeline.stale_grace", config.StaleGrace, &config.StaleGraceDuration); result.IsFail() {
		return result
	}
	if result := parseOptionalDuration("pipeline.detection_interval", config.DetectionInterval, &config.DetectionIntervalDuration); result.IsFail() {
		return result
	}
	if result := parseOptionalDuration("pipeline.redrive_interval", config.RedriveInterval, &config.RedriveIntervalDuration); result.IsFail() {
		return result
	}
	if config.SlotHorizonDays <= 0 {
		return ValidFail(errors.New("invalid json field pipeline.slot_horizon_days, value must larger than 0"))
	}
	if config.MaxCandidates <= 0 {
		return ValidFail(errors.New("invalid json field pipeline.max_candidates, value must larger than 0"))
	}
	if config.ProposalsPerConflict <= 0 || config.ProposalsPerConflict > config.MaxCandidates {
		return ValidFail(errors.New("invalid json field pipeline.proposals_per_conflict, value must between 1 and max_candidates"))
	}
	return ValidPass()
}
