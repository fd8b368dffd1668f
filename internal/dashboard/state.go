package dashboard

import (
	"slices"

	"github.com/couchcryptid/retrofit-advisor/internal/domain"
)

// initialHealth is shown before the first tick.
const initialHealth = 100

// State is the dashboard's mutable application state. It is owned by a
// single Session goroutine and changed only through the methods below.
type State struct {
	Configuration domain.BuildingConfiguration
	Analysis      *domain.Assessment
	Live          domain.LiveState
	Level         domain.SeismicLevel
	Retrofits     map[domain.RetrofitCategory]bool

	OnboardingComplete bool
}

// NewState returns a fresh state for cfg.
func NewState(cfg domain.BuildingConfiguration) State {
	return State{
		Configuration: cfg,
		Live:          domain.LiveState{Health: initialHealth},
		Retrofits:     make(map[domain.RetrofitCategory]bool),
	}
}

// SetConfiguration replaces the building profile. An existing analysis is
// kept until the operator re-assesses.
func (s *State) SetConfiguration(cfg domain.BuildingConfiguration) {
	s.Configuration = cfg
}

// ApplyAssessment installs a as the baseline, clears emergency mode and
// returns the simulation to normal conditions.
func (s *State) ApplyAssessment(a domain.Assessment) {
	s.Analysis = &a
	s.Live.Emergency = false
	s.Level = domain.SeismicNormal
}

// CycleSeismicLevel advances the simulated intensity and returns the new level.
func (s *State) CycleSeismicLevel() domain.SeismicLevel {
	s.Level = s.Level.Next()
	return s.Level
}

// ToggleEmergency flips emergency mode and returns the new value.
func (s *State) ToggleEmergency() bool {
	s.Live.Emergency = !s.Live.Emergency
	return s.Live.Emergency
}

// ToggleRetrofit flips whether category c is visualised and returns the new value.
func (s *State) ToggleRetrofit(c domain.RetrofitCategory) bool {
	on := !s.Retrofits[c]
	if on {
		s.Retrofits[c] = true
	} else {
		delete(s.Retrofits, c)
	}
	return on
}

// CompleteOnboarding marks the operator's first-run profile as finished.
func (s *State) CompleteOnboarding() {
	s.OnboardingComplete = true
}

// Reset returns to the defaults, discarding analysis, samples, emergency
// mode, retrofit selections and onboarding.
func (s *State) Reset() {
	*s = NewState(domain.DefaultConfiguration())
}

// baseline is the analysis result the estimator adjusts, or nil.
func (s *State) baseline() *domain.AnalysisResult {
	if s.Analysis == nil {
		return nil
	}
	return &s.Analysis.Result
}

// Snapshot is a read-only view of the dashboard, safe to hand to other
// goroutines.
type Snapshot struct {
	Configuration   domain.BuildingConfiguration `json:"configuration"`
	Analysis        *domain.Assessment           `json:"analysis,omitempty"`
	RiskLevel       domain.RiskLevel             `json:"riskLevel,omitempty"`
	SafetyThreshold *float64                     `json:"safetyThreshold,omitempty"` // g
	Active          bool                         `json:"active"`
	SeismicLevel    domain.SeismicLevel          `json:"seismicLevel"`
	Emergency       bool                         `json:"emergency"`
	LiveHealth      float64                      `json:"liveHealth"`
	HealthStatus    string                       `json:"healthStatus"`
	Samples         []domain.Sample              `json:"samples"`
	ActiveSensors   int                          `json:"activeSensors"`
	TotalSensors    int                          `json:"totalSensors"`
	Retrofits       []domain.RetrofitCategory    `json:"retrofits"`
	Model           domain.BuildingModel         `json:"model"`

	OnboardingComplete bool `json:"onboardingComplete"`
}

func (s *State) snapshot(active bool) Snapshot {
	snap := Snapshot{
		Configuration: s.Configuration,
		Active:        active,
		SeismicLevel:  s.Level,
		Emergency:     s.Live.Emergency,
		LiveHealth:    s.Live.Health,
		HealthStatus:  domain.HealthStatus(s.Live.Health, s.Analysis != nil),
		Samples:       s.Live.Window.Samples(),
		Retrofits:     make([]domain.RetrofitCategory, 0, len(s.Retrofits)),
		Model:         domain.ModelFor(s.Configuration),

		OnboardingComplete: s.OnboardingComplete,
	}
	snap.ActiveSensors, snap.TotalSensors = domain.SensorCounts(s.Configuration.Floors, s.Live.Emergency)

	if s.Analysis != nil {
		a := *s.Analysis
		snap.Analysis = &a
		snap.RiskLevel = domain.RiskLevelFor(a.Result.VulnerabilityScore)
		threshold := domain.SafetyThreshold(a.Result.VulnerabilityScore)
		snap.SafetyThreshold = &threshold
	}

	for c := range s.Retrofits {
		snap.Retrofits = append(snap.Retrofits, c)
	}
	slices.Sort(snap.Retrofits)
	return snap
}
