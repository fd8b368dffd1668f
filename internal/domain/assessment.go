package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Source records which analyzer produced an assessment.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// Assessment is an AnalysisResult together with the request it answers.
type Assessment struct {
	ID            string                `json:"id"`
	Source        Source                `json:"source"`
	AssessedAt    time.Time             `json:"assessedAt"`
	Configuration BuildingConfiguration `json:"configuration"`
	Result        AnalysisResult        `json:"result"`
}

// NewAssessment stamps result with a fresh ID and the current time.
func NewAssessment(cfg BuildingConfiguration, result AnalysisResult, source Source) Assessment {
	return Assessment{
		ID:            uuid.NewString(),
		Source:        source,
		AssessedAt:    clock.Now().UTC(),
		Configuration: cfg,
		Result:        result,
	}
}

// ErrInvalidConfiguration is wrapped by ValidateConfiguration failures.
var ErrInvalidConfiguration = errors.New("invalid building configuration")

// earliestYear bounds construction years accepted at the API boundary.
const earliestYear = 1800

// ValidateConfiguration rejects numeric attributes the heuristic cannot
// meaningfully score. Unknown enum values are accepted and contribute nothing.
func ValidateConfiguration(cfg BuildingConfiguration) error {
	if cfg.Floors < 1 {
		return fmt.Errorf("%w: floors must be at least 1, got %d", ErrInvalidConfiguration, cfg.Floors)
	}
	latest := clock.Now().Year() + 1
	if cfg.Year < earliestYear || cfg.Year > latest {
		return fmt.Errorf("%w: year must be between %d and %d, got %d", ErrInvalidConfiguration, earliestYear, latest, cfg.Year)
	}
	return nil
}
