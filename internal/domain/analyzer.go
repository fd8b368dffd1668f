package domain

import "context"

// Analyzer asks an external analysis service to assess a building. The raw
// payload must be passed through SanitizeResult before use.
type Analyzer interface {
	Analyze(ctx context.Context, cfg BuildingConfiguration) (RawAnalysisResult, error)
}
