// Package dashboard runs the live monitoring session: it owns the operator's
// building profile, the current analysis and the live health estimate, and
// advances the estimate on a fixed tick while active.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/retrofit-advisor/internal/domain"
	"github.com/couchcryptid/retrofit-advisor/internal/observability"
	"github.com/jonboulle/clockwork"
)

var (
	// ErrSuperseded is returned by Assess when a newer assessment started
	// before this one finished. Its result is discarded.
	ErrSuperseded = errors.New("dashboard: assessment superseded by a newer request")

	// ErrStopped is returned once the session loop has exited.
	ErrStopped = errors.New("dashboard: session stopped")

	// ErrUnknownRetrofit is returned for a retrofit category outside the known set.
	ErrUnknownRetrofit = errors.New("dashboard: unknown retrofit category")
)

// Assessor produces an assessment for a configuration. It must not fail.
type Assessor interface {
	Assess(ctx context.Context, cfg domain.BuildingConfiguration) domain.Assessment
}

// ConfigStore persists the operator's profile.
type ConfigStore interface {
	SaveConfiguration(ctx context.Context, cfg domain.BuildingConfiguration) error
	CompleteOnboarding(ctx context.Context) error
	Reset(ctx context.Context) error
}

// EventSink accepts events for asynchronous delivery.
type EventSink interface {
	Emit(e domain.Event)
}

// Session serialises every state change through one goroutine, Run. Public
// methods submit commands to it and wait for them to be applied.
type Session struct {
	assessor Assessor
	store    ConfigStore
	events   EventSink
	clock    clockwork.Clock
	noise    domain.Noise
	interval time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics

	cmds    chan func()
	done    chan struct{}
	running atomic.Bool

	// Owned by the Run goroutine.
	state        State
	ticker       clockwork.Ticker
	assessSeq    uint64
	cancelAssess context.CancelFunc
}

// Option configures optional Session collaborators.
type Option func(*Session)

// WithClock replaces the real clock, typically with a fake in tests.
func WithClock(c clockwork.Clock) Option { return func(s *Session) { s.clock = c } }

// WithNoise replaces the random source used for synthetic samples.
func WithNoise(n domain.Noise) Option { return func(s *Session) { s.noise = n } }

// WithInterval sets the tick period.
func WithInterval(d time.Duration) Option { return func(s *Session) { s.interval = d } }

// WithStore persists configuration changes and resets.
func WithStore(cs ConfigStore) Option { return func(s *Session) { s.store = cs } }

// WithOnboardingComplete restores a previously finished onboarding.
func WithOnboardingComplete(done bool) Option {
	return func(s *Session) { s.state.OnboardingComplete = done }
}

// WithEvents emits emergency transitions.
func WithEvents(e EventSink) Option { return func(s *Session) { s.events = e } }

// NewSession creates a session starting from cfg. Call Run to start it.
func NewSession(cfg domain.BuildingConfiguration, assessor Assessor, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Session {
	s := &Session{
		assessor: assessor,
		clock:    clockwork.NewRealClock(),
		noise:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		interval: time.Second,
		logger:   logger,
		metrics:  metrics,
		cmds:     make(chan func()),
		done:     make(chan struct{}),
		state:    NewState(cfg),
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.LiveHealth.Set(s.state.Live.Health)
	return s
}

// Run owns the session state until ctx is cancelled. It must be called once.
func (s *Session) Run(ctx context.Context) error {
	s.running.Store(true)
	defer s.running.Store(false)
	defer close(s.done)

	s.logger.Info("dashboard session started", "tick_interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.stopTicker()
			s.cancelInFlight()
			s.logger.Info("dashboard session stopping", "reason", ctx.Err())
			return nil
		case fn := <-s.cmds:
			fn()
		case now := <-s.tickC():
			s.tick(now)
		}
	}
}

// CheckReadiness reports whether the session loop is running.
func (s *Session) CheckReadiness(_ context.Context) error {
	if !s.running.Load() {
		return errors.New("dashboard session is not running")
	}
	return nil
}

// do runs fn on the session goroutine and waits for it to finish.
func (s *Session) do(ctx context.Context, fn func()) error {
	applied := make(chan struct{})
	select {
	case s.cmds <- func() { fn(); close(applied) }:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-applied
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func() { snap = s.state.snapshot(s.ticker != nil) })
	return snap, err
}

// Activate starts the tick loop. Activating an active session is a no-op.
func (s *Session) Activate(ctx context.Context) error {
	return s.do(ctx, func() {
		if s.ticker != nil {
			return
		}
		s.ticker = s.clock.NewTicker(s.interval)
		s.metrics.SessionActive.Set(1)
		s.logger.Info("dashboard activated")
	})
}

// Deactivate stops the tick loop. The current estimate is retained.
func (s *Session) Deactivate(ctx context.Context) error {
	return s.do(ctx, func() {
		if s.ticker == nil {
			return
		}
		s.stopTicker()
		s.logger.Info("dashboard deactivated")
	})
}

// SetConfiguration validates and applies cfg, then persists it. A persistence
// failure is logged but does not undo the change.
func (s *Session) SetConfiguration(ctx context.Context, cfg domain.BuildingConfiguration) error {
	if err := domain.ValidateConfiguration(cfg); err != nil {
		return err
	}
	if err := s.do(ctx, func() { s.state.SetConfiguration(cfg) }); err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.SaveConfiguration(ctx, cfg); err != nil {
			s.metrics.PersistenceError.WithLabelValues("profile").Inc()
			s.logger.Warn("persist configuration failed", "error", err)
		}
	}
	return nil
}

// CompleteOnboarding records that the operator finished the first-run
// profile, then persists the flag. A persistence failure is logged.
func (s *Session) CompleteOnboarding(ctx context.Context) error {
	if err := s.do(ctx, func() { s.state.CompleteOnboarding() }); err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.CompleteOnboarding(ctx); err != nil {
			s.metrics.PersistenceError.WithLabelValues("profile").Inc()
			s.logger.Warn("persist onboarding failed", "error", err)
		}
	}
	s.logger.Info("onboarding completed")
	return nil
}

// Assess analyses the current configuration and installs the result. Only
// the most recently started assessment is applied; an older one that
// finishes later returns ErrSuperseded.
func (s *Session) Assess(ctx context.Context) (domain.Assessment, error) {
	var (
		cfg  domain.BuildingConfiguration
		seq  uint64
		actx context.Context
	)
	err := s.do(ctx, func() {
		s.cancelInFlight()
		s.assessSeq++
		seq = s.assessSeq
		cfg = s.state.Configuration
		actx, s.cancelAssess = context.WithCancel(ctx)
	})
	if err != nil {
		return domain.Assessment{}, err
	}

	a := s.assessor.Assess(actx, cfg)

	superseded := false
	err = s.do(context.WithoutCancel(ctx), func() {
		if seq != s.assessSeq {
			superseded = true
			return
		}
		s.cancelInFlight()
		wasEmergency := s.state.Live.Emergency
		s.state.ApplyAssessment(a)
		s.metrics.EmergencyActive.Set(0)
		if wasEmergency {
			s.emit(domain.EmergencyCleared("reassessed"))
		}
	})
	if err != nil {
		return domain.Assessment{}, err
	}
	if superseded {
		s.metrics.SupersededRuns.Inc()
		s.logger.Info("assessment superseded, discarding result", "assessment_id", a.ID)
		return domain.Assessment{}, ErrSuperseded
	}
	return a, nil
}

// CycleSeismicLevel advances Normal -> Moderate -> Critical -> Normal.
func (s *Session) CycleSeismicLevel(ctx context.Context) (domain.SeismicLevel, error) {
	var level domain.SeismicLevel
	err := s.do(ctx, func() {
		level = s.state.CycleSeismicLevel()
		s.logger.Info("seismic level changed", "level", level)
	})
	return level, err
}

// ToggleEmergency flips emergency mode on operator request.
func (s *Session) ToggleEmergency(ctx context.Context) (bool, error) {
	var on bool
	err := s.do(ctx, func() {
		on = s.state.ToggleEmergency()
		s.setEmergencyGauge(on)
		if on {
			e := domain.NewEvent(domain.EventEmergencyTripped)
			e.Reason = "operator"
			s.emit(e)
			return
		}
		s.emit(domain.EmergencyCleared("operator"))
	})
	return on, err
}

// ToggleRetrofit flips whether category c is visualised.
func (s *Session) ToggleRetrofit(ctx context.Context, c domain.RetrofitCategory) (bool, error) {
	if !c.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownRetrofit, c)
	}
	var on bool
	err := s.do(ctx, func() { on = s.state.ToggleRetrofit(c) })
	return on, err
}

// Reset stops the tick loop, discards any in-flight assessment and returns
// the dashboard to its defaults, then clears the persisted profile.
func (s *Session) Reset(ctx context.Context) error {
	err := s.do(ctx, func() {
		s.stopTicker()
		s.cancelInFlight()
		s.assessSeq++
		wasEmergency := s.state.Live.Emergency
		s.state.Reset()
		s.setEmergencyGauge(false)
		s.metrics.LiveHealth.Set(s.state.Live.Health)
		if wasEmergency {
			s.emit(domain.EmergencyCleared("reset"))
		}
	})
	if err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.Reset(ctx); err != nil {
			s.metrics.PersistenceError.WithLabelValues("profile").Inc()
			s.logger.Warn("reset persisted profile failed", "error", err)
		}
	}
	s.logger.Info("dashboard reset")
	return nil
}

// tick advances the live estimate by one sample.
func (s *Session) tick(now time.Time) {
	sample := domain.GenerateSample(now, s.state.Level, s.state.Live.Emergency, s.noise)
	wasEmergency := s.state.Live.Emergency
	s.state.Live = domain.Tick(s.state.Live, s.state.baseline(), sample)

	s.metrics.Ticks.Inc()
	s.metrics.LiveHealth.Set(s.state.Live.Health)

	if s.state.Live.Emergency && !wasEmergency {
		score := s.state.Analysis.Result.VulnerabilityScore
		s.setEmergencyGauge(true)
		s.metrics.EmergencyTrips.Inc()
		s.logger.Warn("emergency mode tripped",
			"vibration", sample.Vibration,
			"safety_threshold", domain.SafetyThreshold(score),
			"score", score,
		)
		s.emit(domain.EmergencyTripped(score, sample.Vibration))
	}
}

func (s *Session) tickC() <-chan time.Time {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.Chan()
}

func (s *Session) stopTicker() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	s.ticker = nil
	s.metrics.SessionActive.Set(0)
}

func (s *Session) cancelInFlight() {
	if s.cancelAssess != nil {
		s.cancelAssess()
		s.cancelAssess = nil
	}
}

func (s *Session) setEmergencyGauge(on bool) {
	if on {
		s.metrics.EmergencyActive.Set(1)
		return
	}
	s.metrics.EmergencyActive.Set(0)
}

func (s *Session) emit(e domain.Event) {
	if s.events != nil {
		s.events.Emit(e)
	}
}
