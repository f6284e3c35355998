package config

// Default configuration values.
const (
	DefaultArtifactsDir = "artifacts"
	DefaultStateFile    = ".leapml/state.db"
	DefaultEnv          = "dev"
	DefaultRawFile      = "data.csv"
	DefaultSchemaFile   = "schema.yaml"
	DefaultStatusFile   = "status.txt"
	DefaultModelName    = "model.gob"
	DefaultMetricsFile  = "metrics.json"
	DefaultExperiment   = "default"
)

// Default hyperparameters. Alpha and L1Ratio mirror the conventional
// ElasticNet defaults; Seed keeps splits reproducible across runs.
const (
	DefaultTestSize = 0.2
	DefaultSeed     = int64(42)
	DefaultAlpha    = 1.0
	DefaultL1Ratio  = 0.5
	DefaultMaxIter  = 1000
	DefaultTol      = 1e-4
)
