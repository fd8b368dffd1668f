package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/couchcryptid/retrofit-advisor/internal/domain"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store keeps the assessment history in PostgreSQL.
// It implements advisor.Recorder.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Connect opens the database, verifies the connection and applies migrations.
func Connect(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	s := &Store{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate executes every embedded migration in lexical order. Migrations are
// written to be re-runnable.
func (s *Store) migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", name, err)
		}
		s.logger.Debug("migration applied", "name", name)
	}
	return nil
}

const insertAssessment = `
	INSERT INTO assessments (
		id, source, assessed_at, typology, material, seismic_zone,
		year_built, floors, vulnerability_score, configuration, result
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO NOTHING
`

// RecordAssessment inserts a. Re-recording the same ID is a no-op.
func (s *Store) RecordAssessment(ctx context.Context, a domain.Assessment) error {
	cfgJSON, resultJSON, err := encodeAssessment(a)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, insertAssessment,
		a.ID,
		string(a.Source),
		a.AssessedAt,
		string(a.Configuration.Typology),
		string(a.Configuration.Material),
		string(a.Configuration.SeismicZone),
		a.Configuration.Year,
		a.Configuration.Floors,
		a.Result.VulnerabilityScore,
		cfgJSON,
		resultJSON,
	)
	if err != nil {
		return fmt.Errorf("insert assessment %s: %w", a.ID, err)
	}
	return nil
}

const selectRecent = `
	SELECT id, source, assessed_at, configuration, result
	FROM assessments
	ORDER BY assessed_at DESC
	LIMIT $1
`

// ListAssessments returns up to limit assessments, newest first.
func (s *Store) ListAssessments(ctx context.Context, limit int) ([]domain.Assessment, error) {
	rows, err := s.db.QueryContext(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Assessment, 0, limit)
	for rows.Next() {
		var (
			a                   domain.Assessment
			source              string
			cfgJSON, resultJSON []byte
		)
		if err := rows.Scan(&a.ID, &source, &a.AssessedAt, &cfgJSON, &resultJSON); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		a.Source = domain.Source(source)
		a.AssessedAt = a.AssessedAt.UTC()
		if err := decodeAssessment(&a, cfgJSON, resultJSON); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assessments: %w", err)
	}
	return out, nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func encodeAssessment(a domain.Assessment) (cfgJSON, resultJSON []byte, err error) {
	cfgJSON, err = json.Marshal(a.Configuration)
	if err != nil {
		return nil, nil, fmt.Errorf("encode configuration: %w", err)
	}
	resultJSON, err = json.Marshal(a.Result)
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return cfgJSON, resultJSON, nil
}

func decodeAssessment(a *domain.Assessment, cfgJSON, resultJSON []byte) error {
	if err := json.Unmarshal(cfgJSON, &a.Configuration); err != nil {
		return fmt.Errorf("decode configuration of %s: %w", a.ID, err)
	}
	if err := json.Unmarshal(resultJSON, &a.Result); err != nil {
		return fmt.Errorf("decode result of %s: %w", a.ID, err)
	}
	if a.Result.Recommendations == nil {
		a.Result.Recommendations = []domain.RetrofitOption{}
	}
	if a.Result.CriticalZones == nil {
		a.Result.CriticalZones = []string{}
	}
	return nil
}
