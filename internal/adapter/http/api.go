package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/couchcryptid/retrofit-advisor/internal/dashboard"
	"github.com/couchcryptid/retrofit-advisor/internal/domain"
)

const (
	maxBodyBytes        = 64 << 10
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Assessor runs a one-off assessment.
type Assessor interface {
	Assess(ctx context.Context, cfg domain.BuildingConfiguration) domain.Assessment
}

// Dashboard is the live session driven by the operator.
type Dashboard interface {
	Snapshot(ctx context.Context) (dashboard.Snapshot, error)
	SetConfiguration(ctx context.Context, cfg domain.BuildingConfiguration) error
	Assess(ctx context.Context) (domain.Assessment, error)
	Activate(ctx context.Context) error
	Deactivate(ctx context.Context) error
	CycleSeismicLevel(ctx context.Context) (domain.SeismicLevel, error)
	ToggleEmergency(ctx context.Context) (bool, error)
	ToggleRetrofit(ctx context.Context, c domain.RetrofitCategory) (bool, error)
	CompleteOnboarding(ctx context.Context) error
	Reset(ctx context.Context) error
}

// Catalog lists the values the onboarding form offers.
type Catalog struct {
	Typologies         []domain.Typology            `json:"typologies"`
	Materials          []domain.Material            `json:"materials"`
	SeismicZones       []domain.SeismicZone         `json:"seismicZones"`
	Occupancies        []domain.Occupancy           `json:"occupancies"`
	RetrofitCategories []domain.RetrofitCategory    `json:"retrofitCategories"`
	Defaults           domain.BuildingConfiguration `json:"defaults"`
}

// History lists recorded assessments, newest first.
type History interface {
	ListAssessments(ctx context.Context, limit int) ([]domain.Assessment, error)
}

// API serves the advisor's JSON endpoints.
type API struct {
	assessor  Assessor
	dashboard Dashboard
	history   History
	logger    *slog.Logger
}

// NewAPI creates the API handlers. history may be nil when no database is configured.
func NewAPI(assessor Assessor, dash Dashboard, history History, logger *slog.Logger) *API {
	return &API{assessor: assessor, dashboard: dash, history: history, logger: logger}
}

func (a *API) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/assess", a.handleAssess)
	mux.HandleFunc("GET /api/assessments", a.handleHistory)
	mux.HandleFunc("GET /api/catalog", a.handleCatalog)
	mux.HandleFunc("POST /api/profile/onboarding", a.snapshotAfter(a.dashboard.CompleteOnboarding))

	mux.HandleFunc("GET /api/dashboard", a.handleSnapshot)
	mux.HandleFunc("PUT /api/dashboard/configuration", a.handleSetConfiguration)
	mux.HandleFunc("POST /api/dashboard/assess", a.handleDashboardAssess)
	mux.HandleFunc("POST /api/dashboard/activate", a.snapshotAfter(a.dashboard.Activate))
	mux.HandleFunc("POST /api/dashboard/deactivate", a.snapshotAfter(a.dashboard.Deactivate))
	mux.HandleFunc("POST /api/dashboard/reset", a.snapshotAfter(a.dashboard.Reset))
	mux.HandleFunc("POST /api/dashboard/seismic/cycle", a.handleCycleSeismic)
	mux.HandleFunc("POST /api/dashboard/emergency/toggle", a.handleToggleEmergency)
	mux.HandleFunc("POST /api/dashboard/retrofits/{category}/toggle", a.handleToggleRetrofit)
}

func (a *API) handleAssess(w http.ResponseWriter, r *http.Request) {
	cfg, ok := a.decodeConfiguration(w, r)
	if !ok {
		return
	}
	if err := domain.ValidateConfiguration(cfg); err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.assessor.Assess(r.Context(), cfg))
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusNotFound, "assessment history is not enabled")
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := a.history.ListAssessments(r.Context(), limit)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Catalog{
		Typologies:         domain.Typologies,
		Materials:          domain.Materials,
		SeismicZones:       domain.SeismicZones,
		Occupancies:        domain.Occupancies,
		RetrofitCategories: domain.RetrofitCategories,
		Defaults:           domain.DefaultConfiguration(),
	})
}

func (a *API) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := a.dashboard.Snapshot(r.Context())
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *API) handleSetConfiguration(w http.ResponseWriter, r *http.Request) {
	cfg, ok := a.decodeConfiguration(w, r)
	if !ok {
		return
	}
	if err := a.dashboard.SetConfiguration(r.Context(), cfg); err != nil {
		a.writeDomainError(w, err)
		return
	}
	a.handleSnapshot(w, r)
}

func (a *API) handleDashboardAssess(w http.ResponseWriter, r *http.Request) {
	assessment, err := a.dashboard.Assess(r.Context())
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (a *API) handleCycleSeismic(w http.ResponseWriter, r *http.Request) {
	level, err := a.dashboard.CycleSeismicLevel(r.Context())
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.SeismicLevel{"seismicLevel": level})
}

func (a *API) handleToggleEmergency(w http.ResponseWriter, r *http.Request) {
	on, err := a.dashboard.ToggleEmergency(r.Context())
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"emergency": on})
}

func (a *API) handleToggleRetrofit(w http.ResponseWriter, r *http.Request) {
	category := domain.RetrofitCategory(r.PathValue("category"))
	on, err := a.dashboard.ToggleRetrofit(r.Context(), category)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": category, "active": on})
}

// snapshotAfter runs op and replies with the resulting snapshot.
func (a *API) snapshotAfter(op func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := op(r.Context()); err != nil {
			a.writeDomainError(w, err)
			return
		}
		a.handleSnapshot(w, r)
	}
}

func (a *API) decodeConfiguration(w http.ResponseWriter, r *http.Request) (domain.BuildingConfiguration, bool) {
	var cfg domain.BuildingConfiguration
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid configuration body: %v", err))
		return cfg, false
	}
	return cfg, true
}

// writeDomainError maps service errors onto HTTP status codes.
func (a *API) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidConfiguration), errors.Is(err, dashboard.ErrUnknownRetrofit):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, dashboard.ErrSuperseded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, dashboard.ErrStopped), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		a.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseLimit(s string) (int, error) {
	if s == "" {
		return defaultHistoryLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxHistoryLimit {
		return 0, fmt.Errorf("limit must be an integer between 1 and %d", maxHistoryLimit)
	}
	return n, nil
}
