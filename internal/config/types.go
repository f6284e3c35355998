// Package config provides configuration management for the leapml CLI.
//
// Configuration is loaded in layers with the following precedence
// (highest to lowest): CLI flags > environment variables > config file
// > defaults. The result is a fully typed Config validated at load time.
package config

import "path/filepath"

// Config holds all pipeline configuration options.
type Config struct {
	ArtifactsDir string `koanf:"artifacts_dir"`
	StatePath    string `koanf:"state_path"`
	Environment  string `koanf:"environment"`
	Verbose      bool   `koanf:"verbose"`

	Ingestion  IngestionConfig  `koanf:"ingestion"`
	Validation ValidationConfig `koanf:"validation"`
	Split      SplitConfig      `koanf:"split"`
	Training   TrainingConfig   `koanf:"training"`
	Evaluation EvaluationConfig `koanf:"evaluation"`
	Tracking   TrackingConfig   `koanf:"tracking"`

	// ProjectRoot is the inferred project directory. Not read from the
	// config file; relative paths are resolved against it.
	ProjectRoot string `koanf:"-"`
}

// IngestionConfig configures the data ingestion stage.
type IngestionConfig struct {
	// Source is a local file path or an http(s) URL to the raw dataset.
	Source string `koanf:"source"`
	// RawFile is the file name the raw dataset is stored under inside
	// the ingestion artifacts directory.
	RawFile string `koanf:"raw_file"`
}

// ValidationConfig configures the data validation stage.
type ValidationConfig struct {
	// SchemaPath points to the YAML schema describing expected columns.
	SchemaPath string `koanf:"schema_path"`
	// StatusFile is the name of the status artifact written after
	// validation, consumed by downstream stages.
	StatusFile string `koanf:"status_file"`
}

// SplitConfig configures the train/test split stage.
type SplitConfig struct {
	TestSize float64 `koanf:"test_size"`
	Seed     int64   `koanf:"seed"`
}

// TrainingConfig configures the model training stage.
type TrainingConfig struct {
	TargetColumn string  `koanf:"target_column"`
	Alpha        float64 `koanf:"alpha"`
	L1Ratio      float64 `koanf:"l1_ratio"`
	MaxIter      int     `koanf:"max_iter"`
	Tol          float64 `koanf:"tol"`
	ModelName    string  `koanf:"model_name"`
}

// EvaluationConfig configures the model evaluation stage.
type EvaluationConfig struct {
	MetricsFile string `koanf:"metrics_file"`
}

// TrackingConfig configures experiment tracking.
type TrackingConfig struct {
	// URI is the base URL of a tracking server. When empty, runs are
	// recorded in the local state database instead.
	URI        string `koanf:"uri"`
	Experiment string `koanf:"experiment"`
}

// Per-stage artifact subdirectories. Fixed relative to ArtifactsDir so
// stages always find each other's outputs.
const (
	ingestionSubdir  = "data_ingestion"
	validationSubdir = "data_validation"
	splitSubdir      = "data_split"
	trainingSubdir   = "model_training"
	evaluationSubdir = "model_evaluation"
)

// IngestionDir returns the ingestion stage artifacts directory.
func (c *Config) IngestionDir() string {
	return filepath.Join(c.ArtifactsDir, ingestionSubdir)
}

// RawDataPath returns the path of the ingested raw dataset.
func (c *Config) RawDataPath() string {
	return filepath.Join(c.IngestionDir(), c.Ingestion.RawFile)
}

// ValidationDir returns the validation stage artifacts directory.
func (c *Config) ValidationDir() string {
	return filepath.Join(c.ArtifactsDir, validationSubdir)
}

// StatusPath returns the path of the validation status artifact.
func (c *Config) StatusPath() string {
	return filepath.Join(c.ValidationDir(), c.Validation.StatusFile)
}

// SplitDir returns the split stage artifacts directory.
func (c *Config) SplitDir() string {
	return filepath.Join(c.ArtifactsDir, splitSubdir)
}

// TrainPath returns the path of the training split CSV.
func (c *Config) TrainPath() string {
	return filepath.Join(c.SplitDir(), "train.csv")
}

// TestPath returns the path of the test split CSV.
func (c *Config) TestPath() string {
	return filepath.Join(c.SplitDir(), "test.csv")
}

// TrainingDir returns the training stage artifacts directory.
func (c *Config) TrainingDir() string {
	return filepath.Join(c.ArtifactsDir, trainingSubdir)
}

// ModelPath returns the path of the serialized trained model.
func (c *Config) ModelPath() string {
	return filepath.Join(c.TrainingDir(), c.Training.ModelName)
}

// EvaluationDir returns the evaluation stage artifacts directory.
func (c *Config) EvaluationDir() string {
	return filepath.Join(c.ArtifactsDir, evaluationSubdir)
}

// MetricsPath returns the path of the metrics JSON artifact.
func (c *Config) MetricsPath() string {
	return filepath.Join(c.EvaluationDir(), c.Evaluation.MetricsFile)
}

// ExportDir returns the directory the evaluated model is exported to.
func (c *Config) ExportDir() string {
	return filepath.Join(c.EvaluationDir(), "model")
}
