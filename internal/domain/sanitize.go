package domain

import (
	"fmt"
	"math"
)

const (
	// neutralScore stands in for a missing score from the analysis service.
	neutralScore   = 50
	genericSummary = "Analysis completed. Review structural details below."
)

// RawAnalysisResult is an analysis-service payload before sanitizing. Pointer
// fields distinguish "absent" from a zero value.
type RawAnalysisResult struct {
	VulnerabilityScore *float64         `json:"vulnerabilityScore"`
	Summary            *string          `json:"summary"`
	CriticalZones      []string         `json:"criticalZones"`
	Recommendations    []RetrofitOption `json:"recommendations"`
}

// SanitizeResult coerces a possibly malformed payload into a usable result:
// missing arrays become empty, a missing or non-finite score becomes the
// neutral midpoint, a missing summary becomes generic text, and the score is
// clamped to [0, 100]. Recommendations without an ID get a positional one.
func SanitizeResult(raw RawAnalysisResult) AnalysisResult {
	score := float64(neutralScore)
	if raw.VulnerabilityScore != nil && !math.IsNaN(*raw.VulnerabilityScore) && !math.IsInf(*raw.VulnerabilityScore, 0) {
		score = clamp(*raw.VulnerabilityScore, 0, 100)
	}

	summary := genericSummary
	if raw.Summary != nil && *raw.Summary != "" {
		summary = *raw.Summary
	}

	zones := raw.CriticalZones
	if zones == nil {
		zones = []string{}
	}

	recs := make([]RetrofitOption, 0, len(raw.Recommendations))
	seen := make(map[string]bool, len(raw.Recommendations))
	for i, rec := range raw.Recommendations {
		if rec.ID == "" || seen[rec.ID] {
			rec.ID = fmt.Sprintf("rec_%d", i+1)
		}
		seen[rec.ID] = true
		recs = append(recs, rec)
	}

	return AnalysisResult{
		VulnerabilityScore: score,
		Summary:            summary,
		CriticalZones:      zones,
		Recommendations:    recs,
	}
}
