package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapml/internal/artifact"
	"github.com/leapstack-labs/leapml/internal/dataset"
	"github.com/leapstack-labs/leapml/internal/metrics"
	"github.com/leapstack-labs/leapml/internal/regression"
	"github.com/leapstack-labs/leapml/internal/tracking"
)

// ingest acquires the raw dataset into the ingestion artifacts
// directory, downloading http(s) sources and copying local files.
func (p *Pipeline) ingest(ctx context.Context) error {
	source := p.cfg.Ingestion.Source
	if source == "" {
		return fmt.Errorf("ingestion source is not configured")
	}

	if err := artifact.EnsureDirs(p.logger, p.cfg.IngestionDir()); err != nil {
		return err
	}

	dest := p.cfg.RawDataPath()
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		if err := p.download(ctx, source, dest); err != nil {
			return err
		}
	} else {
		if err := copyFile(source, dest); err != nil {
			return err
		}
	}

	p.logger.Info("raw dataset ingested", "source", source, "path", dest)
	return nil
}

func (p *Pipeline) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: %s", url, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}

	return nil
}

// validate checks the raw dataset against the configured schema and
// writes the status artifact consumed by downstream stages. A schema
// mismatch writes a failure status and returns an error; read failures
// propagate without touching the status file.
func (p *Pipeline) validate(_ context.Context) error {
	schema, err := dataset.LoadSchema(p.cfg.Validation.SchemaPath)
	if err != nil {
		return err
	}

	frame, err := dataset.ReadCSV(p.cfg.RawDataPath())
	if err != nil {
		return err
	}

	if err := artifact.EnsureDirs(p.logger, p.cfg.ValidationDir()); err != nil {
		return err
	}

	if verr := schema.Validate(frame); verr != nil {
		if err := artifact.WriteStatus(p.logger, p.cfg.StatusPath(), false); err != nil {
			return err
		}
		return fmt.Errorf("data validation failed: %w", verr)
	}

	if err := artifact.WriteStatus(p.logger, p.cfg.StatusPath(), true); err != nil {
		return err
	}

	p.logger.Info("dataset validated", "rows", frame.NumRows(), "columns", frame.NumCols())
	return nil
}

// split divides the validated dataset into train and test CSVs using a
// seeded shuffle, deterministic for a fixed seed.
func (p *Pipeline) split(_ context.Context) error {
	frame, err := dataset.ReadCSV(p.cfg.RawDataPath())
	if err != nil {
		return err
	}

	train, test, err := dataset.TrainTestSplit(frame, p.cfg.Split.TestSize, p.cfg.Split.Seed)
	if err != nil {
		return err
	}

	if err := artifact.EnsureDirs(p.logger, p.cfg.SplitDir()); err != nil {
		return err
	}

	if err := train.WriteCSV(p.cfg.TrainPath()); err != nil {
		return err
	}
	if err := test.WriteCSV(p.cfg.TestPath()); err != nil {
		return err
	}

	p.logger.Info("dataset split",
		"train_rows", train.NumRows(), "train_cols", train.NumCols(),
		"test_rows", test.NumRows(), "test_cols", test.NumCols())
	return nil
}

// train fits an ElasticNet model on the training split and persists it.
// The test split is read to surface missing-file errors early but is
// not used for fitting.
func (p *Pipeline) train(_ context.Context) error {
	trainFrame, err := dataset.ReadCSV(p.cfg.TrainPath())
	if err != nil {
		return err
	}
	if _, err := dataset.ReadCSV(p.cfg.TestPath()); err != nil {
		return err
	}

	X, y, err := trainFrame.SplitXY(p.cfg.Training.TargetColumn)
	if err != nil {
		return err
	}

	model := regression.NewElasticNet(p.cfg.Training.Alpha, p.cfg.Training.L1Ratio)
	if p.cfg.Training.MaxIter > 0 {
		model.MaxIter = p.cfg.Training.MaxIter
	}
	if p.cfg.Training.Tol > 0 {
		model.Tol = p.cfg.Training.Tol
	}

	if err := model.Fit(X, y); err != nil {
		return fmt.Errorf("failed to fit model: %w", err)
	}

	if err := artifact.EnsureDirs(p.logger, p.cfg.TrainingDir()); err != nil {
		return err
	}
	if err := artifact.SaveModel(p.logger, p.cfg.ModelPath(), model); err != nil {
		return err
	}

	p.logger.Info("model trained",
		"alpha", model.Alpha, "l1_ratio", model.L1Ratio, "iterations", model.NIter)
	return nil
}

// evaluate scores the trained model on the held-out split, persists the
// metrics JSON, and records the run with the experiment tracker.
func (p *Pipeline) evaluate(ctx context.Context) error {
	testFrame, err := dataset.ReadCSV(p.cfg.TestPath())
	if err != nil {
		return err
	}

	var model regression.ElasticNet
	if err := artifact.LoadModel(p.logger, p.cfg.ModelPath(), &model); err != nil {
		return err
	}

	X, y, err := testFrame.SplitXY(p.cfg.Training.TargetColumn)
	if err != nil {
		return err
	}

	pred, err := model.Predict(X)
	if err != nil {
		return err
	}

	rmse, err := metrics.RMSE(y, pred)
	if err != nil {
		return err
	}
	mae, err := metrics.MAE(y, pred)
	if err != nil {
		return err
	}
	r2, err := metrics.R2Score(y, pred)
	if err != nil {
		return err
	}

	if err := artifact.EnsureDirs(p.logger, p.cfg.EvaluationDir(), p.cfg.ExportDir()); err != nil {
		return err
	}

	scores := map[string]float64{"rmse": rmse, "mae": mae, "r2_square": r2}
	if err := artifact.SaveJSON(p.logger, p.cfg.MetricsPath(), scores); err != nil {
		return err
	}

	exportPath := filepath.Join(p.cfg.ExportDir(), p.cfg.Training.ModelName)
	if err := copyFile(p.cfg.ModelPath(), exportPath); err != nil {
		return fmt.Errorf("failed to export model: %w", err)
	}

	if err := p.trackEvaluation(ctx, &model, scores); err != nil {
		return err
	}

	p.logger.Info("model evaluated", "rmse", rmse, "mae", mae, "r2_square", r2)
	return nil
}

// trackEvaluation records hyperparameters, metrics, and artifacts of
// an evaluation as one tracked run.
func (p *Pipeline) trackEvaluation(ctx context.Context, model *regression.ElasticNet, scores map[string]float64) error {
	runID, err := p.tracker.StartRun(ctx, p.cfg.Tracking.Experiment)
	if err != nil {
		return err
	}

	record := func() error {
		params := map[string]string{
			"alpha":         strconv.FormatFloat(model.Alpha, 'g', -1, 64),
			"l1_ratio":      strconv.FormatFloat(model.L1Ratio, 'g', -1, 64),
			"max_iter":      strconv.Itoa(model.MaxIter),
			"target_column": p.cfg.Training.TargetColumn,
		}
		for key, value := range params {
			if err := p.tracker.LogParam(ctx, runID, key, value); err != nil {
				return err
			}
		}

		for key, value := range scores {
			if err := p.tracker.LogMetric(ctx, runID, key, value); err != nil {
				return err
			}
		}

		if err := p.tracker.LogArtifact(ctx, runID, p.cfg.Training.ModelName, p.cfg.ModelPath()); err != nil {
			return err
		}
		return p.tracker.LogArtifact(ctx, runID, p.cfg.Evaluation.MetricsFile, p.cfg.MetricsPath())
	}

	if err := record(); err != nil {
		if endErr := p.tracker.EndRun(ctx, runID, tracking.OutcomeFailed); endErr != nil {
			p.logger.Error("failed to end tracked run", "run_id", runID, "error", endErr)
		}
		return fmt.Errorf("failed to record tracked run: %w", err)
	}

	return p.tracker.EndRun(ctx, runID, tracking.OutcomeFinished)
}
