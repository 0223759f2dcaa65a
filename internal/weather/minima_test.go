package weather

import (
	"strings"
	"testing"

	. "github.com/half-nothing/simple-wxguard/internal/interfaces/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestEvaluateScenarios(t *testing.T) {
	table := NewMinimaTable(DefaultMinimaProfiles())
	storm := []CheckpointObservation{{
		Checkpoint: "KAUS",
		Observation: &Observation{
			AirportCode:     "KAUS",
			VisibilityMiles: 1.5,
			CeilingFeet:     intPtr(800),
			WindSpeedKnots:  30,
			CloudCover:      98,
		},
	}}
	clear := []CheckpointObservation{{
		Checkpoint:  "KAUS",
		Observation: &Observation{AirportCode: "KAUS", VisibilityMiles: 10, WindSpeedKnots: 5, CloudCover: 0},
	}}

	testCases := []struct {
		name       string
		level      string
		input      []CheckpointObservation
		violations int
		contains   []string
	}{
		{
			name:       "student pilot in low weather",
			level:      string(StudentPilot),
			input:      storm,
			violations: 5,
			contains:   []string{"visibility 1.5 mi", "ceiling 800 ft", "wind 30 kt", "crosswind 24 kt", "cloud cover 98%"},
		},
		{"private pilot in clear weather", string(PrivatePilot), clear, 0, nil},
		{"instrument rated in low weather", string(InstrumentRated), storm, 2, []string{"wind 30 kt", "crosswind 24 kt"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			violations := Evaluate(table.Effective(tc.level, nil), tc.input)
			assert.Len(t, violations, tc.violations)
			joined := strings.Join(violations, "\n")
			for _, fragment := range tc.contains {
				assert.Contains(t, joined, fragment)
			}
		})
	}
}

func TestEvaluateCollectsEveryCheckpoint(t *testing.T) {
	profile := NewMinimaTable(DefaultMinimaProfiles()).Profile(string(PrivatePilot))
	violations := Evaluate(profile, []CheckpointObservation{
		{Checkpoint: "KAUS", Observation: &Observation{VisibilityMiles: 2, CloudCover: 10}},
		{Checkpoint: "KSAT", Error: "provider timeout"},
		{Checkpoint: "KGTU", Observation: &Observation{VisibilityMiles: 10, HasThunderstorm: true, Description: "thunderstorm with rain"}},
	})
	require.Len(t, violations, 3)
	assert.True(t, strings.HasPrefix(violations[0], "KAUS: visibility"))
	assert.Equal(t, "KSAT: unable to verify conditions (provider timeout)", violations[1])
	assert.True(t, strings.HasPrefix(violations[2], "KGTU: thunderstorms"))
}

func TestMinimaTableUnknownTierIsStrictest(t *testing.T) {
	profiles := map[string]*MinimaProfile{
		"a": {MinVisibilityMiles: 3, MinCeilingFeet: 3000, MaxWindKnots: 20, MaxCrosswindKnots: 12, MaxCloudCover: 50},
		"b": {MinVisibilityMiles: 5, MinCeilingFeet: 1000, MaxWindKnots: 15, MaxCrosswindKnots: 15, MaxCloudCover: 75, ClearSkiesRequired: true},
	}
	table := NewMinimaTable(profiles)

	strictest := table.Profile("glider")
	assert.Equal(t, strictestProfileName, strictest.Name)
	assert.Equal(t, 5.0, strictest.MinVisibilityMiles)
	assert.Equal(t, 3000, strictest.MinCeilingFeet)
	assert.Equal(t, 15.0, strictest.MaxWindKnots)
	assert.Equal(t, 12.0, strictest.MaxCrosswindKnots)
	assert.Equal(t, 50, strictest.MaxCloudCover)
	assert.True(t, strictest.ClearSkiesRequired)

	strictest.MaxWindKnots = 99
	assert.Equal(t, 15.0, table.Profile("glider").MaxWindKnots, "profiles are copies")
}

func TestMinimaTableAircraftOverride(t *testing.T) {
	table := NewMinimaTable(DefaultMinimaProfiles())
	override := &MinimaProfile{Name: "N172WX", MaxCrosswindKnots: 10, NoIcing: true}

	effective := table.Effective(string(PrivatePilot), override)
	assert.Equal(t, 3.0, effective.MinVisibilityMiles)
	assert.Equal(t, 20.0, effective.MaxWindKnots, "unset override fields do not widen or narrow")
	assert.Equal(t, 10.0, effective.MaxCrosswindKnots)

	effective = table.Effective(string(StudentPilot), override)
	assert.Equal(t, 7.0, effective.MaxCrosswindKnots, "override never relaxes the tier")
}

func TestEvaluateSpecialRestrictions(t *testing.T) {
	profile := &MinimaProfile{NoIcing: true, ClearSkiesRequired: true}
	violations := Evaluate(profile, []CheckpointObservation{{
		Checkpoint:  "KEDC",
		Observation: &Observation{VisibilityMiles: 10, CloudCover: 40, HasIcing: true, TemperatureC: -3},
	}})
	require.Len(t, violations, 2)
	assert.Contains(t, violations[0], "icing")
	assert.Contains(t, violations[1], "clear skies required")
}
