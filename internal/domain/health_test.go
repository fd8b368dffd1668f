package domain

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNoise returns the same value for every draw.
type fixedNoise float64

func (f fixedNoise) Float64() float64 { return float64(f) }

// seqNoise returns its values in order, repeating the last one.
type seqNoise struct {
	values []float64
	i      int
}

func (s *seqNoise) Float64() float64 {
	v := s.values[min(s.i, len(s.values)-1)]
	s.i++
	return v
}

var testNow = time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)

func TestGenerateSample_BaseByLevel(t *testing.T) {
	tests := []struct {
		level     SeismicLevel
		vibration float64
		stress    float64
	}{
		{SeismicNormal, 0.05, 15},
		{SeismicModerate, 1.5, 40},
		{SeismicCritical, 4.5, 85},
	}

	for _, tc := range tests {
		t.Run(tc.level.String(), func(t *testing.T) {
			s := GenerateSample(testNow, tc.level, false, fixedNoise(0))
			assert.Equal(t, tc.vibration, s.Vibration)
			assert.Equal(t, tc.stress, s.Stress)
			assert.Equal(t, testNow, s.Timestamp)
		})
	}
}

func TestGenerateSample_IndependentNoise(t *testing.T) {
	noise := &seqNoise{values: []float64{0.5, 0.2, 0.1, 0.4}}

	s := GenerateSample(testNow, SeismicModerate, false, noise)

	assert.InDelta(t, 1.75, s.Vibration, 1e-9)
	assert.InDelta(t, 42, s.Stress, 1e-9)
	assert.InDelta(t, 28.1, s.Temperature, 1e-9)
	assert.InDelta(t, 67, s.Humidity, 1e-9)
}

func TestGenerateSample_EmergencyAddsEvacuationLoad(t *testing.T) {
	calm := GenerateSample(testNow, SeismicNormal, false, fixedNoise(0.3))
	evac := GenerateSample(testNow, SeismicNormal, true, fixedNoise(0.3))

	assert.InDelta(t, 10, evac.Stress-calm.Stress, 1e-9)
	assert.Equal(t, calm.Vibration, evac.Vibration)
}

func TestTick_WithoutBaselineUsesPlaceholder(t *testing.T) {
	state := Tick(LiveState{}, nil, Sample{Stress: 20, Vibration: 9})

	assert.Equal(t, 90.0, state.Health)
	assert.False(t, state.Emergency, "no baseline means no auto-trip")
	assert.Equal(t, 1, state.Window.Len())
}

func TestTick_WithBaseline(t *testing.T) {
	baseline := &AnalysisResult{VulnerabilityScore: 50}

	state := Tick(LiveState{}, baseline, Sample{Stress: 40, Vibration: 0.1})

	// 100 - 50 - (0.4 * 20 * 1.5)
	assert.InDelta(t, 38, state.Health, 1e-9)
	assert.False(t, state.Emergency)
}

func TestTick_HealthAlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := range 2000 {
		score := float64(i % 101)
		level := SeismicLevel(i % 3)
		emergency := i%2 == 0
		sample := GenerateSample(testNow, level, emergency, rng)

		withBaseline := Tick(LiveState{}, &AnalysisResult{VulnerabilityScore: score}, sample)
		require.GreaterOrEqual(t, withBaseline.Health, 0.0)
		require.LessOrEqual(t, withBaseline.Health, 100.0)

		placeholder := Tick(LiveState{}, nil, sample)
		require.GreaterOrEqual(t, placeholder.Health, 0.0)
		require.LessOrEqual(t, placeholder.Health, 100.0)
	}
}

func TestTick_EmergencyAutoTripIsSticky(t *testing.T) {
	baseline := &AnalysisResult{VulnerabilityScore: 90}
	require.InDelta(t, 0.5, SafetyThreshold(90), 1e-9)

	state := Tick(LiveState{}, baseline, Sample{Vibration: 1.0, Stress: 15})
	require.True(t, state.Emergency, "1.0g exceeds the 0.5g threshold")

	for range 5 {
		state = Tick(state, baseline, Sample{Vibration: 0.05, Stress: 15})
		assert.True(t, state.Emergency, "emergency never auto-clears")
	}
}

func TestTick_StrongBuildingToleratesModerateShaking(t *testing.T) {
	baseline := &AnalysisResult{VulnerabilityScore: 20}

	state := Tick(LiveState{}, baseline, Sample{Vibration: 1.9, Stress: 45})

	assert.False(t, state.Emergency, "threshold is 4g for a score of 20")
}

func TestTick_IsPure(t *testing.T) {
	before := LiveState{Health: 77}
	before.Window.Push(Sample{Stress: 1})

	after := Tick(before, nil, Sample{Stress: 2})

	assert.Equal(t, 1, before.Window.Len(), "input window must not change")
	assert.Equal(t, 77.0, before.Health)
	assert.Equal(t, 2, after.Window.Len())
}

func TestSeismicLevel_Cycle(t *testing.T) {
	assert.Equal(t, SeismicModerate, SeismicNormal.Next())
	assert.Equal(t, SeismicCritical, SeismicModerate.Next())
	assert.Equal(t, SeismicNormal, SeismicCritical.Next())
}

func TestSeismicLevel_Text(t *testing.T) {
	b, err := SeismicCritical.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Critical", string(b))

	var l SeismicLevel
	require.NoError(t, l.UnmarshalText([]byte("moderate")))
	assert.Equal(t, SeismicModerate, l)
	assert.Error(t, l.UnmarshalText([]byte("apocalyptic")))
}

func TestHealthStatus(t *testing.T) {
	assert.Equal(t, "CRITICAL INSTABILITY", HealthStatus(39.9, true))
	assert.Equal(t, "Real-time AI adjusted", HealthStatus(75, true))
	assert.Equal(t, "Baseline Estimate", HealthStatus(75, false))
}

func TestSensorCounts(t *testing.T) {
	active, total := SensorCounts(5, false)
	assert.Equal(t, 26, total)
	assert.Equal(t, 23, active)

	active, total = SensorCounts(5, true)
	assert.Equal(t, 26, total)
	assert.Equal(t, 26, active)
}
