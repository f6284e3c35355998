package tracking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapml/internal/state"
)

// Local is a Tracker backed directly by the state database. It is used
// when no tracking URI is configured.
type Local struct {
	store  state.Store
	env    string
	logger *slog.Logger
}

// NewLocal creates a store-backed tracker.
func NewLocal(store state.Store, env string, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Local{store: store, env: env, logger: logger}
}

// StartRun opens a tracked run in the state database.
func (l *Local) StartRun(_ context.Context, experiment string) (string, error) {
	run, err := l.store.CreateRun(l.env, experiment)
	if err != nil {
		return "", fmt.Errorf("failed to start tracked run: %w", err)
	}

	l.logger.Info("tracked run started", "run_id", run.ID, "experiment", experiment)
	return run.ID, nil
}

// LogParam records a hyperparameter.
func (l *Local) LogParam(_ context.Context, runID, key, value string) error {
	return l.store.LogParam(runID, key, value)
}

// LogMetric records a scalar metric.
func (l *Local) LogMetric(_ context.Context, runID, key string, value float64) error {
	return l.store.LogMetric(runID, key, value)
}

// LogArtifact records a reference to an artifact already on local disk.
func (l *Local) LogArtifact(_ context.Context, runID, name, path string) error {
	return l.store.LogArtifact(runID, name, path)
}

// EndRun closes the tracked run.
func (l *Local) EndRun(_ context.Context, runID string, outcome RunOutcome) error {
	status := state.RunStatusCompleted
	var errMsg string
	if outcome == OutcomeFailed {
		status = state.RunStatusFailed
		errMsg = "tracked run failed"
	}

	if err := l.store.CompleteRun(runID, status, errMsg); err != nil {
		return fmt.Errorf("failed to end tracked run: %w", err)
	}

	l.logger.Info("tracked run ended", "run_id", runID, "outcome", outcome)
	return nil
}

var _ Tracker = (*Local)(nil)
