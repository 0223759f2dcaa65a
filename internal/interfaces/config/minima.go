// Package config
package config

import (
	"errors"
	"fmt"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/weather"
)

type MinimaConfig struct {
	Profiles map[string]*weather.MinimaProfile `json:"profiles"`
}

func (config *MinimaConfig) checkValid(_ log.LoggerInterface) *ValidResult {
	if len(config.Profiles) == 0 {
		return ValidFail(errors.New("invalid json field minima.profiles, at least one tier is required"))
	}
	for name, profile := range config.Profiles {
		if profile == nil {
			return ValidFail(fmt.Errorf("invalid json field minima.profiles.%s, value must not be null", name))
		}
		profile.Name = name
		if profile.MinVisibilityMiles < 0 || profile.MinCeilingFeet < 0 {
			return ValidFail(fmt.Errorf("invalid json field minima.profiles.%s, minimums must not be negative", name))
		}
		if profile.MaxWindKnots <= 0 || profile.MaxCrosswindKnots <= 0 {
			return ValidFail(fmt.Errorf("invalid json field minima.profiles.%s, wind limits must larger than 0", name))
		}
		if profile.MaxCloudCover <= 0 || profile.MaxCloudCover > 100 {
			return ValidFail(fmt.Errorf("invalid json field minima.profiles.%s, max_cloud_cover must between 1 and 100", name))
		}
	}
	return ValidPass()
}
