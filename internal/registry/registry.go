// Package registry is an optional SQLite ledger of dispatched sweeps.
// One experiment row per expansion, one run row per variant checkpoint,
// with a coarse status that dispatch updates as runs progress. The
// checkpoint tree stays the source of truth; the registry only makes it
// queryable without walking the filesystem.
package registry

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/sweep/internal/variant"
)

//go:embed schema.sql
var schemaSQL string

// Run statuses, in lifecycle order.
const (
	StatusPending   = "pending"
	StatusSubmitted = "submitted"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Experiment is one recorded expansion.
type Experiment struct {
	ID         string
	Root       string
	Mode       string
	ConfigPath string
	CreatedAt  time.Time
}

// Run is one recorded variant.
type Run struct {
	ID           string
	ExperimentID string
	Name         string
	Seed         *int64
	Checkpoint   string
	Status       string
	UpdatedAt    time.Time
}

// Registry wraps the SQLite database. SQLite allows a single writer, so
// the pool is pinned to one connection.
type Registry struct {
	db *sql.DB
}

// Open creates or opens the registry database at path, applying pragmas
// and the schema. Idempotent.
func Open(path string) (*Registry, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect registry: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply registry schema: %w", err)
	}

	return &Registry{db: db}, nil
}

func (r *Registry) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CreateExperiment records one expansion and returns its row.
func (r *Registry) CreateExperiment(ctx context.Context, root, mode, configPath string) (Experiment, error) {
	exp := Experiment{
		ID:         uuid.NewString(),
		Root:       root,
		Mode:       mode,
		ConfigPath: configPath,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO experiments (id, root, mode, config_path, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, exp.ID, exp.Root, exp.Mode, exp.ConfigPath, exp.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Experiment{}, fmt.Errorf("record experiment: %w", err)
	}
	return exp, nil
}

// AddRun records one variant checkpoint under an experiment, pending.
// Re-recording the same checkpoint is silently ignored.
func (r *Registry) AddRun(ctx context.Context, experimentID string, v variant.Variant, checkpoint string) (Run, error) {
	run := Run{
		ID:           uuid.NewString(),
		ExperimentID: experimentID,
		Name:         v.Dir,
		Seed:         v.Seed,
		Checkpoint:   checkpoint,
		Status:       StatusPending,
		UpdatedAt:    time.Now().UTC(),
	}
	var seed sql.NullInt64
	if v.Seed != nil {
		seed = sql.NullInt64{Int64: *v.Seed, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (id, experiment_id, name, seed, checkpoint, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(experiment_id, checkpoint) DO NOTHING
	`, run.ID, run.ExperimentID, run.Name, seed, run.Checkpoint, run.Status,
		run.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}

// SetStatus moves a run's checkpoint to a new status.
func (r *Registry) SetStatus(ctx context.Context, experimentID, checkpoint, status string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, updated_at = ?
		WHERE experiment_id = ? AND checkpoint = ?
	`, status, time.Now().UTC().Format(time.RFC3339Nano), experimentID, checkpoint)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update run status: no run for checkpoint %s", checkpoint)
	}
	return nil
}

// Runs lists an experiment's runs in name order.
func (r *Registry) Runs(ctx context.Context, experimentID string) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, experiment_id, name, seed, checkpoint, status, updated_at
		FROM runs WHERE experiment_id = ? ORDER BY name
	`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			seed      sql.NullInt64
			updatedAt string
		)
		if err := rows.Scan(&run.ID, &run.ExperimentID, &run.Name, &seed,
			&run.Checkpoint, &run.Status, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if seed.Valid {
			v := seed.Int64
			run.Seed = &v
		}
		run.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Experiments lists all recorded experiments, newest first.
func (r *Registry) Experiments(ctx context.Context) ([]Experiment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, root, mode, config_path, created_at
		FROM experiments ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	defer rows.Close()

	var exps []Experiment
	for rows.Next() {
		var (
			exp       Experiment
			createdAt string
		)
		if err := rows.Scan(&exp.ID, &exp.Root, &exp.Mode, &exp.ConfigPath, &createdAt); err != nil {
			return nil, fmt.Errorf("scan experiment: %w", err)
		}
		exp.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse experiment timestamp: %w", err)
		}
		exps = append(exps, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	return exps, nil
}
