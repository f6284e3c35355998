// Package state provides run-history storage using SQLite.
// It tracks pipeline runs, per-stage execution, and the experiment
// tracking records (params, metrics, artifacts) attached to runs.
package state

import "time"

// RunStatus represents the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one invocation of the pipeline, or one tracked experiment run.
type Run struct {
	ID          string
	Environment string
	Experiment  string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// StageStatus represents the outcome of one stage within a run.
type StageStatus string

const (
	StageStatusPending StageStatus = "pending"
	StageStatusRunning StageStatus = "running"
	StageStatusSuccess StageStatus = "success"
	StageStatusFailed  StageStatus = "failed"
	StageStatusSkipped StageStatus = "skipped"
)

// StageRun records the execution of a single stage within a run.
type StageRun struct {
	ID          string
	RunID       string
	Stage       string
	Status      StageStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
	DurationMS  int64
}

// Param is a key/value hyperparameter logged against a run.
type Param struct {
	RunID string
	Key   string
	Value string
}

// Metric is a scalar metric logged against a run.
type Metric struct {
	RunID    string
	Key      string
	Value    float64
	LoggedAt time.Time
}

// Artifact is a file reference logged against a run.
type Artifact struct {
	RunID     string
	Name      string
	Path      string
	CreatedAt time.Time
}

// Store is the run-history storage interface.
type Store interface {
	CreateRun(env, experiment string) (*Run, error)
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	ListRuns(limit int) ([]*Run, error)

	RecordStageRun(stageRun *StageRun) error
	UpdateStageRun(id string, status StageStatus, errMsg string) error
	GetStageRunsForRun(runID string) ([]*StageRun, error)

	LogParam(runID, key, value string) error
	LogMetric(runID, key string, value float64) error
	LogArtifact(runID, name, path string) error
	GetParams(runID string) ([]*Param, error)
	GetMetrics(runID string) ([]*Metric, error)
	GetArtifacts(runID string) ([]*Artifact, error)

	Close() error
}
