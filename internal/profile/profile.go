// Package profile persists the operator's building configuration and
// onboarding state under versioned keys, migrating values written by older
// releases on first read.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/retrofit-advisor/internal/domain"
)

// ErrNotFound is returned by KV.Get for a missing key.
var ErrNotFound = errors.New("profile: key not found")

// KV is the string key/value store profiles are kept in.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

const (
	paramsKey     = "safe_building_params"
	onboardingKey = "safe_onboarding_complete"

	legacyParamsKey     = "structura_building_params"
	legacyOnboardingKey = "structura_onboarding_complete"
)

// Profile is the persisted operator state.
type Profile struct {
	Configuration      domain.BuildingConfiguration `json:"configuration"`
	OnboardingComplete bool                         `json:"onboardingComplete"`
}

// Store reads and writes profiles.
type Store struct {
	kv     KV
	logger *slog.Logger
}

// NewStore creates a Store backed by kv.
func NewStore(kv KV, logger *slog.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// Load returns the stored profile. Missing or unreadable values yield the
// defaults; only store failures are returned as errors.
func (s *Store) Load(ctx context.Context) (Profile, error) {
	p := Profile{Configuration: domain.DefaultConfiguration()}

	raw, err := s.read(ctx, paramsKey, legacyParamsKey)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return p, err
	default:
		p.Configuration = mergeConfiguration(raw, s.logger)
	}

	flag, err := s.read(ctx, onboardingKey, legacyOnboardingKey)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return p, err
	default:
		p.OnboardingComplete = flag == "true"
	}

	return p, nil
}

// SaveConfiguration persists cfg under the current key.
func (s *Store) SaveConfiguration(ctx context.Context, cfg domain.BuildingConfiguration) error {
	b, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode configuration: %w", err)
	}
	if err := s.kv.Set(ctx, paramsKey, string(b)); err != nil {
		return fmt.Errorf("save configuration: %w", err)
	}
	if err := s.kv.Delete(ctx, legacyParamsKey); err != nil {
		return fmt.Errorf("delete legacy configuration: %w", err)
	}
	return nil
}

// CompleteOnboarding records that the operator finished onboarding.
func (s *Store) CompleteOnboarding(ctx context.Context) error {
	if err := s.kv.Set(ctx, onboardingKey, "true"); err != nil {
		return fmt.Errorf("save onboarding flag: %w", err)
	}
	if err := s.kv.Delete(ctx, legacyOnboardingKey); err != nil {
		return fmt.Errorf("delete legacy onboarding flag: %w", err)
	}
	return nil
}

// Reset deletes every current and legacy key.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.kv.Delete(ctx, paramsKey, onboardingKey, legacyParamsKey, legacyOnboardingKey); err != nil {
		return fmt.Errorf("reset profile: %w", err)
	}
	return nil
}

// read returns the value under key, falling back to legacy. A legacy hit is
// copied to key and the legacy entry removed.
func (s *Store) read(ctx context.Context, key, legacy string) (string, error) {
	v, err := s.kv.Get(ctx, key)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("read %s: %w", key, err)
	}

	v, err = s.kv.Get(ctx, legacy)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read %s: %w", legacy, err)
	}

	if err := s.kv.Set(ctx, key, v); err != nil {
		s.logger.Warn("migrate legacy key failed", "key", legacy, "error", err)
		return v, nil
	}
	if err := s.kv.Delete(ctx, legacy); err != nil {
		s.logger.Warn("delete legacy key failed", "key", legacy, "error", err)
	}
	s.logger.Info("migrated legacy profile key", "from", legacy, "to", key)
	return v, nil
}

// mergeConfiguration overlays the stored JSON onto the defaults so fields
// added since the value was written keep their default.
func mergeConfiguration(raw string, logger *slog.Logger) domain.BuildingConfiguration {
	cfg := domain.DefaultConfiguration()
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		logger.Warn("stored configuration unreadable, using defaults", "error", err)
		return domain.DefaultConfiguration()
	}
	return cfg
}
