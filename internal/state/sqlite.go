package state

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite state store instance.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database and runs migrations.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	} else {
		dsn = ":memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// A single connection keeps in-memory databases coherent and avoids
	// writer contention on file-backed ones.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path

	if err := s.Migrate(); err != nil {
		db.Close()
		return err
	}

	s.logger.Debug("state store opened", "path", path)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// --- Run operations ---

// CreateRun creates a new run. The experiment name may be empty for
// plain pipeline runs.
func (s *SQLiteStore) CreateRun(env, experiment string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:          generateID(),
		Environment: env,
		Experiment:  experiment,
		Status:      RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, environment, experiment, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Environment, run.Experiment, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := s.db.QueryRow(
		`SELECT id, environment, experiment, status, started_at, completed_at, error FROM runs WHERE id = ?`,
		id,
	).Scan(&run.ID, &run.Environment, &run.Experiment, &run.Status, &run.StartedAt, &completedAt, &errMsg)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}

	return run, nil
}

// CompleteRun marks a run as completed with the given status.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	result, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		status, now, errorPtr, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("run not found: %s", id)
	}

	return nil
}

// ListRuns retrieves the most recent runs, newest first.
// A limit of 0 returns all runs.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	query := `SELECT id, environment, experiment, status, started_at, completed_at, error
	          FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var completedAt sql.NullTime
		var errMsg sql.NullString

		if err := rows.Scan(&run.ID, &run.Environment, &run.Experiment, &run.Status, &run.StartedAt, &completedAt, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		if errMsg.Valid {
			run.Error = errMsg.String
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// --- Stage run operations ---

// RecordStageRun records a new stage execution.
func (s *SQLiteStore) RecordStageRun(stageRun *StageRun) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if stageRun.ID == "" {
		stageRun.ID = generateID()
	}
	stageRun.StartedAt = time.Now().UTC()

	_, err := s.db.Exec(
		`INSERT INTO stage_runs (id, run_id, stage, status, started_at, error, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stageRun.ID, stageRun.RunID, stageRun.Stage, stageRun.Status, stageRun.StartedAt, stageRun.Error, stageRun.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("failed to record stage run: %w", err)
	}

	return nil
}

// UpdateStageRun updates the status of a stage run. The duration is
// derived from the recorded start time.
func (s *SQLiteStore) UpdateStageRun(id string, status StageStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	var startedAt time.Time
	err := s.db.QueryRow(`SELECT started_at FROM stage_runs WHERE id = ?`, id).Scan(&startedAt)
	if err != nil {
		return fmt.Errorf("failed to get stage run start time: %w", err)
	}

	durationMS := now.Sub(startedAt).Milliseconds()

	result, err := s.db.Exec(
		`UPDATE stage_runs SET status = ?, completed_at = ?, error = ?, duration_ms = ? WHERE id = ?`,
		status, now, errorPtr, durationMS, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update stage run: %w", err)
	}

	rowsUpdated, _ := result.RowsAffected()
	if rowsUpdated == 0 {
		return fmt.Errorf("stage run not found: %s", id)
	}

	return nil
}

// GetStageRunsForRun retrieves all stage runs for a run, in start order.
func (s *SQLiteStore) GetStageRunsForRun(runID string) ([]*StageRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, stage, status, started_at, completed_at, error, duration_ms
		 FROM stage_runs WHERE run_id = ? ORDER BY started_at`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stage runs: %w", err)
	}
	defer rows.Close()

	var stageRuns []*StageRun
	for rows.Next() {
		sr := &StageRun{}
		var completedAt sql.NullTime
		var errMsg sql.NullString

		if err := rows.Scan(&sr.ID, &sr.RunID, &sr.Stage, &sr.Status, &sr.StartedAt, &completedAt, &errMsg, &sr.DurationMS); err != nil {
			return nil, fmt.Errorf("failed to scan stage run: %w", err)
		}

		if completedAt.Valid {
			sr.CompletedAt = &completedAt.Time
		}
		if errMsg.Valid {
			sr.Error = errMsg.String
		}
		stageRuns = append(stageRuns, sr)
	}

	return stageRuns, rows.Err()
}

// --- Tracking operations ---

// LogParam records a hyperparameter for a run. Re-logging a key
// overwrites its value.
func (s *SQLiteStore) LogParam(runID, key, value string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(
		`INSERT INTO params (run_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(run_id, key) DO UPDATE SET value = excluded.value`,
		runID, key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to log param: %w", err)
	}

	return nil
}

// LogMetric records a scalar metric for a run.
func (s *SQLiteStore) LogMetric(runID, key string, value float64) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(
		`INSERT INTO metrics (run_id, key, value, logged_at) VALUES (?, ?, ?, ?)`,
		runID, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to log metric: %w", err)
	}

	return nil
}

// LogArtifact records an artifact reference for a run.
func (s *SQLiteStore) LogArtifact(runID, name, path string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(
		`INSERT INTO artifacts (run_id, name, path, created_at) VALUES (?, ?, ?, ?)`,
		runID, name, path, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to log artifact: %w", err)
	}

	return nil
}

// GetParams retrieves all params logged for a run.
func (s *SQLiteStore) GetParams(runID string) ([]*Param, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(`SELECT run_id, key, value FROM params WHERE run_id = ? ORDER BY key`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get params: %w", err)
	}
	defer rows.Close()

	var params []*Param
	for rows.Next() {
		p := &Param{}
		if err := rows.Scan(&p.RunID, &p.Key, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan param: %w", err)
		}
		params = append(params, p)
	}

	return params, rows.Err()
}

// GetMetrics retrieves all metrics logged for a run.
func (s *SQLiteStore) GetMetrics(runID string) ([]*Metric, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(`SELECT run_id, key, value, logged_at FROM metrics WHERE run_id = ? ORDER BY key`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics: %w", err)
	}
	defer rows.Close()

	var out []*Metric
	for rows.Next() {
		m := &Metric{}
		if err := rows.Scan(&m.RunID, &m.Key, &m.Value, &m.LoggedAt); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		out = append(out, m)
	}

	return out, rows.Err()
}

// GetArtifacts retrieves all artifact references logged for a run.
func (s *SQLiteStore) GetArtifacts(runID string) ([]*Artifact, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(`SELECT run_id, name, path, created_at FROM artifacts WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get artifacts: %w", err)
	}
	defer rows.Close()

	var out []*Artifact
	for rows.Next() {
		a := &Artifact{}
		if err := rows.Scan(&a.RunID, &a.Name, &a.Path, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

// Ensure SQLiteStore implements the Store interface
var _ Store = (*SQLiteStore)(nil)
