package config

import (
	"errors"
	"fmt"
)

// Validate checks that the loaded configuration is internally consistent.
// All violations are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.ArtifactsDir == "" {
		errs = append(errs, errors.New("artifacts_dir is required"))
	}
	if c.StatePath == "" {
		errs = append(errs, errors.New("state_path is required"))
	}

	if c.Split.TestSize <= 0 || c.Split.TestSize >= 1 {
		errs = append(errs, fmt.Errorf("split.test_size must be in (0, 1), got %g", c.Split.TestSize))
	}

	if c.Training.TargetColumn == "" {
		errs = append(errs, errors.New("training.target_column is required"))
	}
	if c.Training.Alpha < 0 {
		errs = append(errs, fmt.Errorf("training.alpha must be >= 0, got %g", c.Training.Alpha))
	}
	if c.Training.L1Ratio < 0 || c.Training.L1Ratio > 1 {
		errs = append(errs, fmt.Errorf("training.l1_ratio must be in [0, 1], got %g", c.Training.L1Ratio))
	}
	if c.Training.MaxIter <= 0 {
		errs = append(errs, fmt.Errorf("training.max_iter must be > 0, got %d", c.Training.MaxIter))
	}
	if c.Training.ModelName == "" {
		errs = append(errs, errors.New("training.model_name is required"))
	}

	if c.Evaluation.MetricsFile == "" {
		errs = append(errs, errors.New("evaluation.metrics_file is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
