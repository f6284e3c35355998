package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/leapstack-labs/leapml/internal/artifact"
	"github.com/leapstack-labs/leapml/internal/config"
	"github.com/leapstack-labs/leapml/internal/state"
	"github.com/leapstack-labs/leapml/internal/tracking"
)

// ErrValidationFailed is returned when a gated stage runs before data
// validation has succeeded.
var ErrValidationFailed = errors.New("prerequisite stage failed: data validation did not succeed")

// Pipeline executes the training workflow against one configuration.
type Pipeline struct {
	cfg     *config.Config
	store   state.Store
	tracker tracking.Tracker
	logger  *slog.Logger
}

// New creates a pipeline: it opens the state store at the configured
// path and selects a tracker (HTTP when a tracking URI is configured,
// otherwise store-backed).
func New(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	var tracker tracking.Tracker
	if cfg.Tracking.URI != "" {
		tracker = tracking.NewClient(cfg.Tracking.URI)
	} else {
		tracker = tracking.NewLocal(store, cfg.Environment, logger)
	}

	return &Pipeline{cfg: cfg, store: store, tracker: tracker, logger: logger}, nil
}

// Store returns the underlying state store.
func (p *Pipeline) Store() state.Store {
	return p.store
}

// Close releases the pipeline's resources.
func (p *Pipeline) Close() error {
	return p.store.Close()
}

// Run executes all stages in order, stopping at the first failure.
// Stages after a failed one are recorded as skipped. Within a single
// run the validation result is threaded in-process; the status file is
// still written for standalone stage invocations.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.RunFrom(ctx, StageIngest)
}

// RunFrom executes the pipeline starting at the given stage. When the
// starting stage needs a prior validation, the status artifact gates it
// the same way standalone stage commands are gated.
func (p *Pipeline) RunFrom(ctx context.Context, start Stage) error {
	if start.gated() {
		ok, err := artifact.ReadStatus(p.cfg.StatusPath())
		if err != nil {
			return fmt.Errorf("failed to check validation status: %w", err)
		}
		if !ok {
			return ErrValidationFailed
		}
	}

	run, err := p.store.CreateRun(p.cfg.Environment, p.cfg.Tracking.Experiment)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	p.logger.Info("pipeline run started", "run_id", run.ID, "environment", p.cfg.Environment, "from", start)

	var failed error
	started := false
	for _, stage := range Stages() {
		if stage == start {
			started = true
		}
		if !started {
			continue
		}
		if failed != nil {
			p.recordSkipped(run.ID, stage)
			continue
		}
		if err := p.runRecorded(ctx, run.ID, stage); err != nil {
			failed = fmt.Errorf("stage %s: %w", stage, err)
		}
	}

	if failed != nil {
		if err := p.store.CompleteRun(run.ID, state.RunStatusFailed, failed.Error()); err != nil {
			p.logger.Error("failed to record run outcome", "run_id", run.ID, "error", err)
		}
		return failed
	}

	if err := p.store.CompleteRun(run.ID, state.RunStatusCompleted, ""); err != nil {
		p.logger.Error("failed to record run outcome", "run_id", run.ID, "error", err)
	}

	p.logger.Info("pipeline run completed", "run_id", run.ID)
	return nil
}

// RunStage executes one stage standalone, recorded as its own run.
// Gated stages first check the validation status artifact and fail
// before any stage logic when its trailing token is not the success
// flag.
func (p *Pipeline) RunStage(ctx context.Context, stage Stage) error {
	if stage.gated() {
		ok, err := artifact.ReadStatus(p.cfg.StatusPath())
		if err != nil {
			return fmt.Errorf("failed to check validation status: %w", err)
		}
		if !ok {
			return ErrValidationFailed
		}
	}

	run, err := p.store.CreateRun(p.cfg.Environment, p.cfg.Tracking.Experiment)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	if err := p.runRecorded(ctx, run.ID, stage); err != nil {
		stageErr := fmt.Errorf("stage %s: %w", stage, err)
		if err := p.store.CompleteRun(run.ID, state.RunStatusFailed, stageErr.Error()); err != nil {
			p.logger.Error("failed to record run outcome", "run_id", run.ID, "error", err)
		}
		return stageErr
	}

	if err := p.store.CompleteRun(run.ID, state.RunStatusCompleted, ""); err != nil {
		p.logger.Error("failed to record run outcome", "run_id", run.ID, "error", err)
	}

	return nil
}

// runRecorded executes one stage and records its outcome on the run.
func (p *Pipeline) runRecorded(ctx context.Context, runID string, stage Stage) error {
	sr := &state.StageRun{RunID: runID, Stage: string(stage), Status: state.StageStatusRunning}
	if err := p.store.RecordStageRun(sr); err != nil {
		return fmt.Errorf("failed to record stage: %w", err)
	}

	p.logger.Info("stage started", "stage", stage)
	start := time.Now()

	if err := p.execute(ctx, stage); err != nil {
		p.logger.Error("stage failed", "stage", stage, "error", err)
		if uerr := p.store.UpdateStageRun(sr.ID, state.StageStatusFailed, err.Error()); uerr != nil {
			p.logger.Error("failed to record stage outcome", "stage", stage, "error", uerr)
		}
		return err
	}

	if err := p.store.UpdateStageRun(sr.ID, state.StageStatusSuccess, ""); err != nil {
		p.logger.Error("failed to record stage outcome", "stage", stage, "error", err)
	}

	p.logger.Info("stage completed", "stage", stage, "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func (p *Pipeline) recordSkipped(runID string, stage Stage) {
	sr := &state.StageRun{RunID: runID, Stage: string(stage), Status: state.StageStatusSkipped}
	if err := p.store.RecordStageRun(sr); err != nil {
		p.logger.Error("failed to record skipped stage", "stage", stage, "error", err)
	}
}

func (p *Pipeline) execute(ctx context.Context, stage Stage) error {
	switch stage {
	case StageIngest:
		return p.ingest(ctx)
	case StageValidate:
		return p.validate(ctx)
	case StageSplit:
		return p.split(ctx)
	case StageTrain:
		return p.train(ctx)
	case StageEvaluate:
		return p.evaluate(ctx)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}
