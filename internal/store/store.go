package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pinball/internal/models"
	"github.com/playmatatu/pinball/internal/table"
)

// ErrRunNotFound is returned when no run exists for a session.
var ErrRunNotFound = errors.New("run not found")

// Store persists tables and simulation runs in Postgres.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// ListTables returns every stored table without its source.
func (s *Store) ListTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	err := s.db.SelectContext(ctx, &tables, `
		SELECT id, name, description, '' AS source, created_by, created_at, updated_at
		FROM tables
		ORDER BY name
	`)
	return tables, err
}

func (s *Store) GetTable(ctx context.Context, name string) (*models.Table, error) {
	var t models.Table
	err := s.db.GetContext(ctx, &t, `
		SELECT id, name, description, source, created_by, created_at, updated_at
		FROM tables WHERE name = $1
	`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", table.ErrTableNotFound, name)
		}
		return nil, err
	}
	return &t, nil
}

// UpsertTable validates def and stores it under its name.
func (s *Store) UpsertTable(ctx context.Context, def *table.Definition, createdBy string) (*models.Table, error) {
	source, err := def.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode table: %w", err)
	}

	var t models.Table
	err = s.db.GetContext(ctx, &t, `
		INSERT INTO tables (name, description, source, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NOW(), NOW())
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			source = EXCLUDED.source,
			created_by = COALESCE(EXCLUDED.created_by, tables.created_by),
			updated_at = NOW()
		RETURNING id, name, description, source, created_by, created_at, updated_at
	`, def.Name, def.Description, string(source), createdBy)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TableDefinition loads and parses a stored table.
func (s *Store) TableDefinition(ctx context.Context, name string) (*table.Definition, error) {
	t, err := s.GetTable(ctx, name)
	if err != nil {
		return nil, err
	}
	def, err := table.Parse([]byte(t.Source))
	if err != nil {
		return nil, fmt.Errorf("stored table %q: %w", name, err)
	}
	return def, nil
}

func (s *Store) CreateRun(ctx context.Context, run *models.SimulationRun) error {
	return s.db.GetContext(ctx, &run.ID, `
		INSERT INTO simulation_runs (session_id, table_name, seed, status, started_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id
	`, run.SessionID, run.TableName, run.Seed, models.RunStatusRunning)
}

// FinishRun records the final counters of a run.
func (s *Store) FinishRun(ctx context.Context, run *models.SimulationRun) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE simulation_runs SET
			status = $2,
			sim_time_msec = $3,
			ticks = $4,
			collisions = $5,
			bumper_hits = $6,
			end_reason = $7,
			ended_at = NOW()
		WHERE session_id = $1
	`, run.SessionID, models.RunStatusFinished, run.SimTimeMsec, run.Ticks, run.Collisions, run.BumperHits, run.EndReason)
	return err
}

func (s *Store) GetRun(ctx context.Context, sessionID string) (*models.SimulationRun, error) {
	var run models.SimulationRun
	err := s.db.GetContext(ctx, &run, `
		SELECT id, session_id, table_name, seed, status, sim_time_msec, ticks, collisions,
		       bumper_hits, end_reason, started_at, ended_at
		FROM simulation_runs WHERE session_id = $1
	`, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first. An empty tableName
// lists every table.
func (s *Store) ListRuns(ctx context.Context, tableName string, limit, offset int) ([]models.SimulationRun, error) {
	var runs []models.SimulationRun
	err := s.db.SelectContext(ctx, &runs, `
		SELECT id, session_id, table_name, seed, status, sim_time_msec, ticks, collisions,
		       bumper_hits, end_reason, started_at, ended_at
		FROM simulation_runs
		WHERE ($1 = '' OR table_name = $1)
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3
	`, tableName, limit, offset)
	return runs, err
}
