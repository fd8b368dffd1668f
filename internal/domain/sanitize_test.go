package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRaw(t *testing.T, payload string) RawAnalysisResult {
	t.Helper()
	var raw RawAnalysisResult
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	return raw
}

func TestSanitizeResult_EmptyPayload(t *testing.T) {
	result := SanitizeResult(decodeRaw(t, `{}`))

	assert.Equal(t, 50.0, result.VulnerabilityScore)
	assert.Equal(t, "Analysis completed. Review structural details below.", result.Summary)
	assert.NotNil(t, result.CriticalZones)
	assert.Empty(t, result.CriticalZones)
	assert.NotNil(t, result.Recommendations)
	assert.Empty(t, result.Recommendations)
}

func TestSanitizeResult_WellFormedPassesThrough(t *testing.T) {
	raw := decodeRaw(t, `{
		"vulnerabilityScore": 72,
		"summary": "Soft storey present.",
		"criticalZones": ["Ground Floor Columns"],
		"recommendations": [
			{"id": "dampers", "name": "Fluid Viscous Dampers", "description": "d", "costEstimate": "₹50 Lakh+", "roi": 6.5, "riskReduction": 85, "type": "damping"}
		]
	}`)

	result := SanitizeResult(raw)

	assert.Equal(t, 72.0, result.VulnerabilityScore)
	assert.Equal(t, "Soft storey present.", result.Summary)
	assert.Equal(t, []string{"Ground Floor Columns"}, result.CriticalZones)
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, "dampers", result.Recommendations[0].ID)
	assert.Equal(t, Damping, result.Recommendations[0].Category)
}

func TestSanitizeResult_ClampsAndRejectsNonFinite(t *testing.T) {
	high := 140.0
	assert.Equal(t, 100.0, SanitizeResult(RawAnalysisResult{VulnerabilityScore: &high}).VulnerabilityScore)

	nan := math.NaN()
	assert.Equal(t, 50.0, SanitizeResult(RawAnalysisResult{VulnerabilityScore: &nan}).VulnerabilityScore)

	zero := 0.0
	assert.Equal(t, 0.0, SanitizeResult(RawAnalysisResult{VulnerabilityScore: &zero}).VulnerabilityScore)
}

func TestSanitizeResult_AssignsMissingAndDuplicateIDs(t *testing.T) {
	raw := RawAnalysisResult{Recommendations: []RetrofitOption{
		{Name: "A"},
		{ID: "x", Name: "B"},
		{ID: "x", Name: "C"},
	}}

	result := SanitizeResult(raw)

	assert.Equal(t, "rec_1", result.Recommendations[0].ID)
	assert.Equal(t, "x", result.Recommendations[1].ID)
	assert.Equal(t, "rec_3", result.Recommendations[2].ID)
}

func TestValidateConfiguration(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })

	valid := DefaultConfiguration()
	require.NoError(t, ValidateConfiguration(valid))

	noFloors := valid
	noFloors.Floors = 0
	err := ValidateConfiguration(noFloors)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "floors")

	future := valid
	future.Year = 2030
	err = ValidateConfiguration(future)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "year")

	unknownEnums := valid
	unknownEnums.Typology = "Lighthouse"
	unknownEnums.Material = "Bamboo"
	assert.NoError(t, ValidateConfiguration(unknownEnums))
}

func TestNewAssessment_StampsClock(t *testing.T) {
	at := time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { SetClock(nil) })

	cfg := DefaultConfiguration()
	a := NewAssessment(cfg, Assess(cfg), SourceFallback)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, at, a.AssessedAt)
	assert.Equal(t, SourceFallback, a.Source)

	e := AssessmentCompleted(a)
	assert.Equal(t, EventAssessmentCompleted, e.Type)
	assert.Equal(t, a.ID, e.AssessmentID)
	assert.Equal(t, a.Result.VulnerabilityScore, e.VulnerabilityScore)
	assert.NotEqual(t, a.ID, e.ID)
}

func TestModelFor(t *testing.T) {
	stilt := ModelFor(BuildingConfiguration{Typology: StiltApartment, Floors: 5})
	assert.Equal(t, BuildingModel{Variant: "stilt-apartment", Storeys: 5, OpenGround: true}, stilt)

	temple := ModelFor(BuildingConfiguration{Typology: Temple, Floors: 4})
	assert.Equal(t, 1, temple.Storeys)
	assert.True(t, temple.PitchedRoof)

	unknown := ModelFor(BuildingConfiguration{Typology: "Pagoda", Floors: 0})
	assert.Equal(t, BuildingModel{Variant: "generic", Storeys: 1}, unknown)
}
