// Package tracking provides experiment tracking: run-scoped logging of
// hyperparameters, scalar metrics, and file artifacts.
//
// Two implementations exist: Local records directly into the state
// database, Client talks to a tracking server over HTTP. The serve
// command exposes the matching server.
package tracking

import (
	"context"
	"time"
)

// RunOutcome is the terminal status of a tracked run.
type RunOutcome string

const (
	OutcomeFinished RunOutcome = "FINISHED"
	OutcomeFailed   RunOutcome = "FAILED"
)

// RunInfo describes a tracked run as exposed over the API.
type RunInfo struct {
	RunID      string     `json:"run_id"`
	Experiment string     `json:"experiment"`
	Status     string     `json:"status"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// StatusRunning is the status of a tracked run that has not ended.
const StatusRunning = "RUNNING"

// Tracker is the run-scoped experiment tracking interface.
type Tracker interface {
	// StartRun opens a tracked run under the named experiment and
	// returns its ID.
	StartRun(ctx context.Context, experiment string) (string, error)
	// LogParam records a key/value hyperparameter.
	LogParam(ctx context.Context, runID, key, value string) error
	// LogMetric records a scalar metric.
	LogMetric(ctx context.Context, runID, key string, value float64) error
	// LogArtifact records the file at path as a run artifact named name.
	LogArtifact(ctx context.Context, runID, name, path string) error
	// EndRun closes the run with the given outcome.
	EndRun(ctx context.Context, runID string, outcome RunOutcome) error
}
