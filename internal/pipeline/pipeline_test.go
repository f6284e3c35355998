package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapml/internal/artifact"
	"github.com/leapstack-labs/leapml/internal/config"
	"github.com/leapstack-labs/leapml/internal/testutil"
)

// writeWineCSV writes an n-row synthetic dataset with a linear target
// column "quality" and returns its path.
func writeWineCSV(t *testing.T, dir string, n int) string {
	t.Helper()

	rng := rand.New(rand.NewSource(7))
	var sb strings.Builder
	sb.WriteString("acidity,sugar,quality\n")
	for i := 0; i < n; i++ {
		x1 := rng.Float64() * 10
		x2 := rng.Float64() * 5
		y := 2*x1 - x2 + 3 + rng.NormFloat64()*0.1
		fmt.Fprintf(&sb, "%g,%g,%g\n", x1, x2, y)
	}

	path := filepath.Join(dir, "wine.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func writeSchemaYAML(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const wineSchema = `columns:
  acidity: float64
  sugar: float64
  quality: float64
target: quality
`

// setupPipeline builds a pipeline over a temp directory with an n-row
// source dataset.
func setupPipeline(t *testing.T, rows int) (*Pipeline, *config.Config) {
	t.Helper()

	root := t.TempDir()
	cfg := &config.Config{
		ArtifactsDir: filepath.Join(root, "artifacts"),
		StatePath:    filepath.Join(root, ".leapml", "state.db"),
		Environment:  "test",
		Ingestion: config.IngestionConfig{
			Source:  writeWineCSV(t, root, rows),
			RawFile: "data.csv",
		},
		Validation: config.ValidationConfig{
			SchemaPath: writeSchemaYAML(t, root, wineSchema),
			StatusFile: "status.txt",
		},
		Split: config.SplitConfig{TestSize: 0.2, Seed: 42},
		Training: config.TrainingConfig{
			TargetColumn: "quality",
			Alpha:        0.001,
			L1Ratio:      0.5,
			MaxIter:      1000,
			Tol:          1e-4,
			ModelName:    "model.gob",
		},
		Evaluation: config.EvaluationConfig{MetricsFile: "metrics.json"},
		Tracking:   config.TrackingConfig{Experiment: "wine-quality"},
	}

	p, err := New(cfg, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	return p, cfg
}

func TestParseStage(t *testing.T) {
	for _, s := range Stages() {
		got, err := ParseStage(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStage("compile")
	assert.Error(t, err)
}

func TestRunStage_GateBlocksOnFailedValidation(t *testing.T) {
	p, cfg := setupPipeline(t, 20)
	ctx := context.Background()

	require.NoError(t, p.RunStage(ctx, StageIngest))
	require.NoError(t, artifact.EnsureDirs(testutil.NewTestLogger(t), cfg.ValidationDir()))
	require.NoError(t, artifact.WriteStatus(testutil.NewTestLogger(t), cfg.StatusPath(), false))

	for _, stage := range []Stage{StageSplit, StageTrain} {
		err := p.RunStage(ctx, stage)
		require.ErrorIs(t, err, ErrValidationFailed, "stage %s", stage)
	}

	// Gate failure must not create any stage outputs.
	assert.NoFileExists(t, cfg.TrainPath())
	assert.NoFileExists(t, cfg.TestPath())
	assert.NoFileExists(t, cfg.ModelPath())
}

func TestRunStage_GateRequiresStatusFile(t *testing.T) {
	p, _ := setupPipeline(t, 20)

	err := p.RunStage(context.Background(), StageSplit)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, err.Error(), "validation status")
}

func TestRun_ValidationFailureSkipsDownstream(t *testing.T) {
	p, cfg := setupPipeline(t, 20)
	cfg.Validation.SchemaPath = writeSchemaYAML(t, t.TempDir(), `columns:
  acidity: float64
  density: float64
target: quality
`)

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data validation failed")

	// The status artifact records the failure for standalone stages.
	ok, serr := artifact.ReadStatus(cfg.StatusPath())
	require.NoError(t, serr)
	assert.False(t, ok)

	assert.NoFileExists(t, cfg.TrainPath())
	assert.NoFileExists(t, cfg.ModelPath())

	runs, err := p.Store().ListRuns(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	stageRuns, err := p.Store().GetStageRunsForRun(runs[0].ID)
	require.NoError(t, err)
	require.Len(t, stageRuns, 5)

	byStage := map[string]string{}
	for _, sr := range stageRuns {
		byStage[sr.Stage] = string(sr.Status)
	}
	assert.Equal(t, "success", byStage["ingest"])
	assert.Equal(t, "failed", byStage["validate"])
	assert.Equal(t, "skipped", byStage["split"])
	assert.Equal(t, "skipped", byStage["train"])
	assert.Equal(t, "skipped", byStage["evaluate"])
}

func TestRun_MissingTargetColumnFailsTraining(t *testing.T) {
	p, cfg := setupPipeline(t, 20)
	cfg.Training.TargetColumn = "density"

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage train")
	assert.NoFileExists(t, cfg.ModelPath())
}

func TestRunFrom_SkipsEarlierStages(t *testing.T) {
	p, _ := setupPipeline(t, 100)
	ctx := context.Background()

	require.NoError(t, p.RunStage(ctx, StageIngest))
	require.NoError(t, p.RunStage(ctx, StageValidate))

	require.NoError(t, p.RunFrom(ctx, StageSplit))

	runs, err := p.Store().ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 4) // ingest, validate, partial run, tracked evaluation

	var partial []string
	for _, run := range runs {
		stageRuns, err := p.Store().GetStageRunsForRun(run.ID)
		require.NoError(t, err)
		if len(stageRuns) == 3 {
			for _, sr := range stageRuns {
				partial = append(partial, sr.Stage)
			}
		}
	}
	assert.ElementsMatch(t, []string{"split", "train", "evaluate"}, partial)
}

func TestRunFrom_GatedStartRequiresValidation(t *testing.T) {
	p, _ := setupPipeline(t, 100)
	ctx := context.Background()

	require.NoError(t, p.RunStage(ctx, StageIngest))

	err := p.RunFrom(ctx, StageTrain)
	require.Error(t, err)
}

func TestIngest_MissingSource(t *testing.T) {
	p, cfg := setupPipeline(t, 20)
	cfg.Ingestion.Source = filepath.Join(t.TempDir(), "nope.csv")

	err := p.RunStage(context.Background(), StageIngest)
	require.Error(t, err)
}
