package domain

import (
	"fmt"
	"strings"
	"time"
)

// SeismicLevel is the operator-selected simulation intensity.
type SeismicLevel int

const (
	SeismicNormal SeismicLevel = iota
	SeismicModerate
	SeismicCritical
)

func (l SeismicLevel) String() string {
	switch l {
	case SeismicModerate:
		return "Moderate"
	case SeismicCritical:
		return "Critical"
	default:
		return "Normal"
	}
}

// Next cycles Normal -> Moderate -> Critical -> Normal.
func (l SeismicLevel) Next() SeismicLevel {
	switch l {
	case SeismicNormal:
		return SeismicModerate
	case SeismicModerate:
		return SeismicCritical
	default:
		return SeismicNormal
	}
}

func (l SeismicLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *SeismicLevel) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "normal":
		*l = SeismicNormal
	case "moderate":
		*l = SeismicModerate
	case "critical":
		*l = SeismicCritical
	default:
		return fmt.Errorf("unknown seismic level %q", b)
	}
	return nil
}

// base returns the vibration (g) and stress (MPa) magnitudes for the level.
func (l SeismicLevel) base() (vibration, stress float64) {
	switch l {
	case SeismicModerate:
		return 1.5, 40
	case SeismicCritical:
		return 4.5, 85
	default:
		return 0.05, 15
	}
}

// evacuationLoad is the extra stress (MPa) applied while emergency mode is on.
const evacuationLoad = 10

// Noise supplies uniform random values in [0, 1). *rand.Rand satisfies it.
type Noise interface {
	Float64() float64
}

// GenerateSample synthesizes one sensor reading for the given conditions.
func GenerateSample(now time.Time, level SeismicLevel, emergency bool, noise Noise) Sample {
	vibration, stress := level.base()
	if emergency {
		stress += evacuationLoad
	}
	vibration += noise.Float64() * 0.5
	stress += noise.Float64() * 10

	return Sample{
		Timestamp:   now,
		Vibration:   vibration,
		Stress:      stress,
		Temperature: 28 + noise.Float64(),
		Humidity:    65 + noise.Float64()*5,
	}
}

// LiveState is the part of the dashboard the estimator advances each tick.
type LiveState struct {
	Window    SampleWindow
	Health    float64
	Emergency bool
}

// Tick folds sample into state. baseline may be nil when no assessment has
// run yet, in which case a stress-only placeholder estimate is used. The
// emergency flag is only ever set here, never cleared.
func Tick(state LiveState, baseline *AnalysisResult, sample Sample) LiveState {
	state.Window.Push(sample)

	if baseline == nil {
		state.Health = clamp(100-sample.Stress*0.5, 0, 100)
		return state
	}

	score := baseline.VulnerabilityScore
	riskFactor := score / 100
	stressPenalty := (sample.Stress / 100) * 20 * (1 + riskFactor)
	state.Health = clamp(100-score-stressPenalty, 0, 100)

	if sample.Vibration > SafetyThreshold(score) && !state.Emergency {
		state.Emergency = true
	}
	return state
}

// SafetyThreshold is the vibration (g) above which a building with the given
// vulnerability score trips emergency mode. Stronger buildings tolerate more.
func SafetyThreshold(score float64) float64 {
	return 5 * (1 - score/100)
}

// HealthStatus labels a live-health reading for display.
func HealthStatus(health float64, hasBaseline bool) string {
	switch {
	case health < 40:
		return "CRITICAL INSTABILITY"
	case hasBaseline:
		return "Real-time AI adjusted"
	default:
		return "Baseline Estimate"
	}
}

// SensorCounts reports how many simulated sensors a building carries and how
// many are streaming: four per floor plus six at base and roof, with a tenth
// dropped outside emergency mode.
func SensorCounts(floors int, emergency bool) (active, total int) {
	if floors < 0 {
		floors = 0
	}
	total = floors*4 + 6
	if emergency {
		return total, total
	}
	return total * 9 / 10, total
}
