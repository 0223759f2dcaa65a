// Package weather
package weather

import "math"

type TrainingLevel string

const (
	StudentPilot    TrainingLevel = "student_pilot"
	PrivatePilot    TrainingLevel = "private_pilot"
	InstrumentRated TrainingLevel = "instrument_rated"
	CommercialPilot TrainingLevel = "commercial_pilot"
)

// MinimaProfile is a tier of weather thresholds. Zero-valued limits of an
// aircraft override are treated as "no narrowing" when merged.
type MinimaProfile struct {
	Name               string  `json:"name"`
	MinVisibilityMiles float64 `json:"min_visibility_miles"`
	MinCeilingFeet     int     `json:"min_ceiling_feet"`
	MaxWindKnots       float64 `json:"max_wind_knots"`
	MaxCrosswindKnots  float64 `json:"max_crosswind_knots"`
	MaxCloudCover      int     `json:"max_cloud_cover"`
	NoThunderstorms    bool    `json:"no_thunderstorms"`
	NoIcing            bool    `json:"no_icing"`
	ClearSkiesRequired bool    `json:"clear_skies_required"`
}

// Stricter returns a new profile holding, field by field, the more
// restrictive limit of p and other. A nil other returns a copy of p.
func (p *MinimaProfile) Stricter(other *MinimaProfile) *MinimaProfile {
	result := *p
	if other == nil {
		return &result
	}
	result.Name = p.Name + "+" + other.Name
	result.MinVisibilityMiles = math.Max(p.MinVisibilityMiles, other.MinVisibilityMiles)
	result.MinCeilingFeet = max(p.MinCeilingFeet, other.MinCeilingFeet)
	result.MaxWindKnots = minPositive(p.MaxWindKnots, other.MaxWindKnots)
	result.MaxCrosswindKnots = minPositive(p.MaxCrosswindKnots, other.MaxCrosswindKnots)
	result.MaxCloudCover = int(minPositive(float64(p.MaxCloudCover), float64(other.MaxCloudCover)))
	result.NoThunderstorms = p.NoThunderstorms || other.NoThunderstorms
	result.NoIcing = p.NoIcing || other.NoIcing
	result.ClearSkiesRequired = p.ClearSkiesRequired || other.ClearSkiesRequired
	return &result
}

// minPositive picks the smaller limit, where a non-positive value means unset
func minPositive(a, b float64) float64 {
	switch {
	case a <= 0:
		return b
	case b <= 0:
		return a
	default:
		return math.Min(a, b)
	}
}

func DefaultMinimaProfiles() map[string]*MinimaProfile {
	return map[string]*MinimaProfile{
		string(StudentPilot): {
			Name:               string(StudentPilot),
			MinVisibilityMiles: 5,
			MinCeilingFeet:     5000,
			MaxWindKnots:       10,
			MaxCrosswindKnots:  7,
			MaxCloudCover:      25,
			NoThunderstorms:    true,
			NoIcing:            true,
		},
		string(PrivatePilot): {
			Name:               string(PrivatePilot),
			MinVisibilityMiles: 3,
			MinCeilingFeet:     1000,
			MaxWindKnots:       20,
			MaxCrosswindKnots:  15,
			MaxCloudCover:      75,
			NoThunderstorms:    true,
			NoIcing:            true,
		},
		string(InstrumentRated): {
			Name:               string(InstrumentRated),
			MinVisibilityMiles: 1,
			MinCeilingFeet:     500,
			MaxWindKnots:       25,
			MaxCrosswindKnots:  20,
			MaxCloudCover:      100,
			NoThunderstorms:    true,
			NoIcing:            true,
		},
		string(CommercialPilot): {
			Name:               string(CommercialPilot),
			MinVisibilityMiles: 1,
			MinCeilingFeet:     500,
			MaxWindKnots:       30,
			MaxCrosswindKnots:  25,
			MaxCloudCover:      100,
			NoThunderstorms:    true,
			NoIcing:            true,
		},
	}
}
