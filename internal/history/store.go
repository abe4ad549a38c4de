package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cogengine/internal/config"
	"cogengine/internal/services"
	"cogengine/internal/workflow"
)

// Store persists run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Run is one recorded engine run.
type Run struct {
	RunID        string          `json:"run_id"`
	Workflow     string          `json:"workflow"`
	Path         string          `json:"path,omitempty"`
	StepCount    int             `json:"step_count"`
	Status       workflow.Status `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
	StepsRun     int             `json:"steps_run"`
	ErrorKind    string          `json:"error_kind,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// Duration reports how long the run took, or zero while it is unfinished.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Step is one recorded step outcome.
type Step struct {
	RunID        string
	Index        int
	ID           string
	Type         string
	StartedAt    time.Time
	Duration     time.Duration
	Status       workflow.Status
	ErrorMessage string
}

// Open initializes or connects to the history database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrExternalIO, "history", "open", "ensure directories", err)
	}

	dbPath := cfg.HistoryPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalIO, "history", "open", "open sqlite db", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, services.Wrap(services.ErrExternalIO, "history", "open", fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, services.Wrap(services.ErrExternalIO, "history", "migrate", "apply migrations", err)
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// RunStarted inserts a running row for the run.
func (s *Store) RunStarted(ctx context.Context, run workflow.RunInfo) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (run_id, workflow, path, step_count, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.Workflow,
		nullableString(run.Path),
		run.StepCount,
		workflow.StatusRunning,
		formatTime(run.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}
	return nil
}

// StepFinished records the outcome of a single step.
func (s *Store) StepFinished(ctx context.Context, event workflow.StepEvent) error {
	status := workflow.StatusCompleted
	var message string
	if event.Err != nil {
		status = workflow.StatusFailed
		message = event.Err.Error()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO steps (
            run_id, step_index, step_id, task_type, started_at, duration_ms, status, error_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.RunID,
		event.Index,
		event.ID,
		event.Type,
		formatTime(event.StartedAt),
		event.Duration.Milliseconds(),
		status,
		nullableString(message),
	)
	if err != nil {
		return fmt.Errorf("insert step %s/%d: %w", event.RunID, event.Index, err)
	}
	return nil
}

// RunFinished stamps the final status of the run.
func (s *Store) RunFinished(ctx context.Context, run workflow.RunInfo, outcome workflow.RunOutcome) error {
	finished := outcome.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	var kind, message string
	if outcome.Err != nil {
		kind = services.Kind(outcome.Err)
		message = outcome.Err.Error()
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, finished_at = ?, steps_run = ?, error_kind = ?, error_message = ?
         WHERE run_id = ?`,
		outcome.Status,
		formatTime(finished),
		outcome.StepsRun,
		nullableString(kind),
		nullableString(message),
		run.RunID,
	)
	if err != nil {
		return fmt.Errorf("update run %s: %w", run.RunID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update run %s: no such run", run.RunID)
	}
	return nil
}

const runColumns = `run_id, workflow, path, step_count, status, started_at, finished_at, steps_run, error_kind, error_message`

// Recent returns the most recently started runs, newest first. A
// non-positive limit returns every run.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, run_id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalIO, "history", "recent", "query runs", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrExternalIO, "history", "recent", "iterate runs", err)
	}
	return runs, nil
}

// Get fetches a single run by identifier. The boolean is false when the run
// does not exist.
func (s *Store) Get(ctx context.Context, runID string) (Run, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE run_id = ?", strings.TrimSpace(runID))
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

// Steps returns the recorded steps of a run in execution order.
func (s *Store) Steps(ctx context.Context, runID string) ([]Step, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT run_id, step_index, step_id, task_type, started_at, duration_ms, status, error_message
         FROM steps WHERE run_id = ? ORDER BY step_index`,
		runID,
	)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalIO, "history", "steps", "query steps", err)
	}
	defer rows.Close()

	var steps []Step
	for rows.Next() {
		var (
			step       Step
			startedAt  string
			durationMS int64
			status     string
			message    sql.NullString
		)
		if err := rows.Scan(&step.RunID, &step.Index, &step.ID, &step.Type, &startedAt, &durationMS, &status, &message); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		step.StartedAt, _ = parseTimeString(startedAt)
		step.Duration = time.Duration(durationMS) * time.Millisecond
		step.Status = workflow.Status(status)
		step.ErrorMessage = message.String
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// Prune deletes runs that started before cutoff along with their steps.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE started_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, services.Wrap(services.ErrExternalIO, "history", "prune", "delete runs", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run        Run
		path       sql.NullString
		status     string
		startedAt  string
		finishedAt sql.NullString
		kind       sql.NullString
		message    sql.NullString
	)
	if err := scanner.Scan(
		&run.RunID,
		&run.Workflow,
		&path,
		&run.StepCount,
		&status,
		&startedAt,
		&finishedAt,
		&run.StepsRun,
		&kind,
		&message,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Path = path.String
	run.Status = workflow.Status(status)
	run.StartedAt, _ = parseTimeString(startedAt)
	if finishedAt.Valid {
		run.FinishedAt, _ = parseTimeString(finishedAt.String)
	}
	run.ErrorKind = kind.String
	run.ErrorMessage = message.String
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// timeLayout is fixed width so stored timestamps order correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(value time.Time) string {
	if value.IsZero() {
		value = time.Now()
	}
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

var _ workflow.Observer = (*Store)(nil)
