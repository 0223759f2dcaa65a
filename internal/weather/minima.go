// Package weather
package weather

import (
	"fmt"
	"slices"

	. "github.com/half-nothing/simple-wxguard/internal/interfaces/weather"
	"github.com/samber/lo"
)

const (
	// CrosswindRatio estimates the crosswind component from total wind
	// without runway heading data
	CrosswindRatio = 0.8
	// clearSkiesMaxCloudCover is the most cloud still reported as clear
	clearSkiesMaxCloudCover = 10
	strictestProfileName    = "strictest"
)

// MinimaTable is the immutable tier -> profile map loaded at startup
type MinimaTable struct {
	profiles  map[string]*MinimaProfile
	strictest *MinimaProfile
}

func NewMinimaTable(profiles map[string]*MinimaProfile) *MinimaTable {
	table := &MinimaTable{profiles: make(map[string]*MinimaProfile, len(profiles))}
	names := lo.Keys(profiles)
	slices.Sort(names)
	for _, name := range names {
		profile := *profiles[name]
		profile.Name = name
		table.profiles[name] = &profile
		if table.strictest == nil {
			table.strictest = &profile
		} else {
			table.strictest = table.strictest.Stricter(&profile)
		}
	}
	if table.strictest != nil {
		table.strictest.Name = strictestProfileName
	}
	return table
}

// Profile returns a copy of the tier profile, unknown tiers get the
// field-wise strictest profile of the table
func (table *MinimaTable) Profile(trainingLevel string) *MinimaProfile {
	if profile, ok := table.profiles[trainingLevel]; ok {
		return profile.Stricter(nil)
	}
	return table.strictest.Stricter(nil)
}

// Effective merges the pilot tier with an optional aircraft override
func (table *MinimaTable) Effective(trainingLevel string, aircraft *MinimaProfile) *MinimaProfile {
	return table.Profile(trainingLevel).Stricter(aircraft)
}

func CrosswindEstimate(observation *Observation) float64 {
	return observation.EffectiveWindKnots() * CrosswindRatio
}

// Evaluate returns every breached limit at every checkpoint, an unknown
// checkpoint is itself a violation
func Evaluate(profile *MinimaProfile, checkpoints []CheckpointObservation) []string {
	violations := make([]string, 0)
	for _, checkpoint := range checkpoints {
		violations = append(violations, evaluateCheckpoint(profile, &checkpoint)...)
	}
	return violations
}

func evaluateCheckpoint(profile *MinimaProfile, checkpoint *CheckpointObservation) []string {
	name := checkpoint.Checkpoint
	if checkpoint.Unknown() {
		reason := checkpoint.Error
		if reason == "" {
			reason = "no data"
		}
		return []string{fmt.Sprintf("%s: unable to verify conditions (%s)", name, reason)}
	}

	o := checkpoint.Observation
	violations := make([]string, 0)
	if profile.MinVisibilityMiles > 0 && o.VisibilityMiles < profile.MinVisibilityMiles {
		violations = append(violations, fmt.Sprintf("%s: visibility %.1f mi below minimum %.1f mi", name, o.VisibilityMiles, profile.MinVisibilityMiles))
	}
	if profile.MinCeilingFeet > 0 && o.CeilingFeet != nil && *o.CeilingFeet < profile.MinCeilingFeet {
		violations = append(violations, fmt.Sprintf("%s: ceiling %d ft below minimum %d ft", name, *o.CeilingFeet, profile.MinCeilingFeet))
	}
	wind := o.EffectiveWindKnots()
	if profile.MaxWindKnots > 0 && wind > profile.MaxWindKnots {
		violations = append(violations, fmt.Sprintf("%s: wind %.0f kt exceeds maximum %.0f kt", name, wind, profile.MaxWindKnots))
	}
	crosswind := CrosswindEstimate(o)
	if profile.MaxCrosswindKnots > 0 && crosswind > profile.MaxCrosswindKnots {
		violations = append(violations, fmt.Sprintf("%s: estimated crosswind %.0f kt exceeds maximum %.0f kt", name, crosswind, profile.MaxCrosswindKnots))
	}
	if profile.MaxCloudCover > 0 && o.CloudCover > profile.MaxCloudCover {
		violations = append(violations, fmt.Sprintf("%s: cloud cover %d%% exceeds maximum %d%%", name, o.CloudCover, profile.MaxCloudCover))
	}
	if profile.NoThunderstorms && o.HasThunderstorm {
		violations = append(violations, fmt.Sprintf("%s: thunderstorms reported (%s)", name, o.Description))
	}
	if profile.NoIcing && o.HasIcing {
		violations = append(violations, fmt.Sprintf("%s: icing conditions likely at %.0f°C", name, o.TemperatureC))
	}
	if profile.ClearSkiesRequired && o.CloudCover > clearSkiesMaxCloudCover {
		violations = append(violations, fmt.Sprintf("%s: clear skies required, cloud cover %d%%", name, o.CloudCover))
	}
	return violations
}
