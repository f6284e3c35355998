// Package commands implements the leapml subcommands.
package commands

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapml/internal/config"
	"github.com/leapstack-labs/leapml/internal/pipeline"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Pipeline *pipeline.Pipeline
}

// NewCommandContext creates a CommandContext with a pipeline.
// Returns the context and a cleanup function that must be called
// (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = p.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Pipeline: p,
	}, cleanup, nil
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back
// to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	cfg := &config.Config{
		ArtifactsDir: getEnvOrDefault("LEAPML_ARTIFACTS_DIR", config.DefaultArtifactsDir),
		StatePath:    getEnvOrDefault("LEAPML_STATE_PATH", config.DefaultStateFile),
		Environment:  getEnvOrDefault("LEAPML_ENVIRONMENT", config.DefaultEnv),
		Verbose:      os.Getenv("LEAPML_VERBOSE") == "true",
	}
	cfg.Ingestion.RawFile = config.DefaultRawFile
	cfg.Validation.SchemaPath = config.DefaultSchemaFile
	cfg.Validation.StatusFile = config.DefaultStatusFile
	cfg.Split.TestSize = config.DefaultTestSize
	cfg.Split.Seed = config.DefaultSeed
	cfg.Training.Alpha = config.DefaultAlpha
	cfg.Training.L1Ratio = config.DefaultL1Ratio
	cfg.Training.MaxIter = config.DefaultMaxIter
	cfg.Training.Tol = config.DefaultTol
	cfg.Training.ModelName = config.DefaultModelName
	cfg.Training.TargetColumn = os.Getenv("LEAPML_TRAINING__TARGET_COLUMN")
	cfg.Evaluation.MetricsFile = config.DefaultMetricsFile
	cfg.Tracking.Experiment = config.DefaultExperiment

	return cfg
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}
