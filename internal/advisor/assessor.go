package advisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/retrofit-advisor/internal/domain"
	"github.com/couchcryptid/retrofit-advisor/internal/observability"
)

// Recorder persists completed assessments.
type Recorder interface {
	RecordAssessment(ctx context.Context, a domain.Assessment) error
}

// EventSink accepts events for asynchronous delivery.
type EventSink interface {
	Emit(e domain.Event)
}

// Assessor produces an assessment for a building, preferring the remote
// analysis service and falling back to the local heuristic.
type Assessor struct {
	analyzer domain.Analyzer
	recorder Recorder
	events   EventSink
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// Option configures optional Assessor collaborators.
type Option func(*Assessor)

// WithAnalyzer enables the remote analysis service.
func WithAnalyzer(a domain.Analyzer) Option {
	return func(s *Assessor) { s.analyzer = a }
}

// WithRecorder persists every assessment to the history store.
func WithRecorder(r Recorder) Option {
	return func(s *Assessor) { s.recorder = r }
}

// WithEvents emits an assessment.completed event for every assessment.
func WithEvents(e EventSink) Option {
	return func(s *Assessor) { s.events = e }
}

// New creates an Assessor. Without WithAnalyzer every request is served by
// the local heuristic.
func New(logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Assessor {
	a := &Assessor{logger: logger, metrics: metrics}
	for _, opt := range opts {
		opt(a)
	}
	if a.analyzer != nil {
		metrics.PredictorEnabled.Set(1)
	}
	return a
}

// Assess never fails: transport or decode errors from the analysis service
// are logged and answered by the local heuristic, and malformed payloads are
// sanitized.
//
// A call whose ctx is cancelled before analysis finishes is abandoned: it
// returns the local heuristic result but is not counted, recorded or emitted.
func (s *Assessor) Assess(ctx context.Context, cfg domain.BuildingConfiguration) domain.Assessment {
	start := time.Now()

	result, source, err := s.analyze(ctx, cfg)
	if err != nil {
		s.logger.Info("assessment abandoned", "reason", err, "typology", cfg.Typology)
		return domain.NewAssessment(cfg, domain.Assess(cfg), domain.SourceFallback)
	}
	a := domain.NewAssessment(cfg, result, source)

	s.metrics.Assessments.WithLabelValues(string(source)).Inc()
	s.metrics.AssessmentDuration.Observe(time.Since(start).Seconds())
	s.metrics.VulnerabilityScore.Observe(result.VulnerabilityScore)

	s.logger.Info("assessment completed",
		"assessment_id", a.ID,
		"source", source,
		"typology", cfg.Typology,
		"score", result.VulnerabilityScore,
		"recommendations", len(result.Recommendations),
	)

	s.record(ctx, a)
	if s.events != nil {
		s.events.Emit(domain.AssessmentCompleted(a))
	}
	return a
}

// analyze returns ctx.Err() once the caller has given up, so no fallback is
// computed on its behalf.
func (s *Assessor) analyze(ctx context.Context, cfg domain.BuildingConfiguration) (domain.AnalysisResult, domain.Source, error) {
	if s.analyzer == nil {
		if err := ctx.Err(); err != nil {
			return domain.AnalysisResult{}, "", err
		}
		return domain.Assess(cfg), domain.SourceFallback, nil
	}

	raw, err := s.analyzer.Analyze(ctx, cfg)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.AnalysisResult{}, "", ctxErr
	}
	if err != nil {
		s.logger.Warn("analysis service unavailable, using local heuristic", "error", err)
		return domain.Assess(cfg), domain.SourceFallback, nil
	}
	return domain.SanitizeResult(raw), domain.SourceRemote, nil
}

// record writes the assessment to history. Cancellation of the caller after
// analysis does not interrupt the write.
func (s *Assessor) record(ctx context.Context, a domain.Assessment) {
	if s.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := s.recorder.RecordAssessment(ctx, a); err != nil {
		s.metrics.PersistenceError.WithLabelValues("history").Inc()
		s.logger.Warn("record assessment failed", "error", err, "assessment_id", a.ID)
	}
}

const recordTimeout = 5 * time.Second
