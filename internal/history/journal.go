// Package history records the outcome of every install, uninstall and
// cleanup run in a SQLite journal.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	causeSeparator = "\n"
	// fixed width so that started_at sorts as text
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Run is one recorded pipeline run
type Run struct {
	ID        string
	Operation string
	PackageID string
	Version   string
	Status    string
	Message   string
	Causes    []string
	StartedAt time.Time
	Duration  time.Duration
}

type runRow struct {
	ID         string `db:"id"`
	Operation  string `db:"operation"`
	PackageID  string `db:"package_id"`
	Version    string `db:"version"`
	Status     string `db:"status"`
	Message    string `db:"message"`
	Causes     string `db:"causes"`
	StartedAt  string `db:"started_at"`
	DurationMs int64  `db:"duration_ms"`
}

// Journal is a SQLite backed run history
type Journal struct {
	db *sqlx.DB
}

// Open opens or creates the journal at path and migrates its schema.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &StoreError{Op: "Open", Message: err.Error(), Err: ErrConnectionFailed}
		}
	}
	db, err := sqlx.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, &StoreError{Op: "Open", Message: "failed to open database", Err: ErrConnectionFailed}
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StoreError{Op: "Open", Message: fmt.Sprintf("failed to ping database: %v", err), Err: ErrConnectionFailed}
	}
	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, &StoreError{Op: "Open", Message: err.Error(), Err: ErrMigrationFailed}
	}
	return &Journal{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

/**
 * Record a run
 * @param {*Run} run - Run to store; an empty ID is filled with a new uuid
 */
func (j *Journal) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	row := runRow{
		ID:         run.ID,
		Operation:  run.Operation,
		PackageID:  run.PackageID,
		Version:    run.Version,
		Status:     run.Status,
		Message:    run.Message,
		Causes:     strings.Join(run.Causes, causeSeparator),
		StartedAt:  run.StartedAt.UTC().Format(timeLayout),
		DurationMs: run.Duration.Milliseconds(),
	}
	_, err := j.db.NamedExecContext(ctx, `
		INSERT INTO runs (id, operation, package_id, version, status, message, causes, started_at, duration_ms)
		VALUES (:id, :operation, :package_id, :version, :status, :message, :causes, :started_at, :duration_ms)`, row)
	if err != nil {
		return &StoreError{Op: "Record", ID: run.ID, Message: err.Error(), Err: err}
	}
	return nil
}

// Get returns the run with the given id.
func (j *Journal) Get(ctx context.Context, id string) (*Run, error) {
	var row runRow
	err := j.db.GetContext(ctx, &row, `SELECT * FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &StoreError{Op: "Get", ID: id, Message: "run not found", Err: ErrNotFound}
	}
	if err != nil {
		return nil, &StoreError{Op: "Get", ID: id, Message: err.Error(), Err: err}
	}
	return row.toRun(), nil
}

/**
 * List the most recent runs, newest first
 * @param {string} packageId - Restrict to one package (case-insensitive), empty for all
 * @param {int} limit - Maximum number of runs, <= 0 means 50
 */
func (j *Journal) List(ctx context.Context, packageId string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []runRow
	var err error
	if packageId == "" {
		err = j.db.SelectContext(ctx, &rows,
			`SELECT * FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	} else {
		err = j.db.SelectContext(ctx, &rows,
			`SELECT * FROM runs WHERE package_id = ? COLLATE NOCASE ORDER BY started_at DESC, rowid DESC LIMIT ?`,
			packageId, limit)
	}
	if err != nil {
		return nil, &StoreError{Op: "List", Message: err.Error(), Err: err}
	}
	runs := make([]*Run, 0, len(rows))
	for i := range rows {
		runs = append(runs, rows[i].toRun())
	}
	return runs, nil
}

func (r *runRow) toRun() *Run {
	run := &Run{
		ID:        r.ID,
		Operation: r.Operation,
		PackageID: r.PackageID,
		Version:   r.Version,
		Status:    r.Status,
		Message:   r.Message,
		Duration:  time.Duration(r.DurationMs) * time.Millisecond,
	}
	if r.Causes != "" {
		run.Causes = strings.Split(r.Causes, causeSeparator)
	}
	run.StartedAt, _ = time.Parse(timeLayout, r.StartedAt)
	return run
}
