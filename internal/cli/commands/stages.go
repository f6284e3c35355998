package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapml/internal/pipeline"
)

// stageCommandSpec describes one standalone stage command.
type stageCommandSpec struct {
	stage   pipeline.Stage
	short   string
	long    string
	example string
}

var stageSpecs = []stageCommandSpec{
	{
		stage: pipeline.StageIngest,
		short: "Ingest the raw dataset",
		long: `Acquire the configured source dataset into the artifacts tree.

Local file sources are copied; http(s) sources are downloaded.`,
		example: `  # Ingest the configured source
  leapml ingest`,
	},
	{
		stage: pipeline.StageValidate,
		short: "Validate the raw dataset against the schema",
		long: `Check that the ingested dataset contains the columns declared in
the schema file, then write the validation status artifact consumed by
downstream stages.`,
		example: `  # Validate the ingested dataset
  leapml validate`,
	},
	{
		stage: pipeline.StageSplit,
		short: "Split the dataset into train and test sets",
		long: `Split the validated dataset into train.csv and test.csv using a
seeded shuffle. Requires a successful validation status.`,
		example: `  # Split with the configured test size and seed
  leapml split`,
	},
	{
		stage: pipeline.StageTrain,
		short: "Train the ElasticNet model",
		long: `Fit an ElasticNet regression model on the training split with the
configured alpha and l1_ratio, and persist it to the artifacts tree.
Requires a successful validation status.`,
		example: `  # Train on the current split
  leapml train`,
	},
	{
		stage: pipeline.StageEvaluate,
		short: "Evaluate the trained model",
		long: `Score the trained model against the held-out test split, write the
metrics JSON, and log parameters, metrics, and artifacts to the
experiment tracker.`,
		example: `  # Evaluate and record the run
  leapml evaluate`,
	},
}

// NewStageCommands creates one standalone command per pipeline stage.
func NewStageCommands() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(stageSpecs))
	for _, spec := range stageSpecs {
		cmds = append(cmds, newStageCommand(spec))
	}
	return cmds
}

func newStageCommand(spec stageCommandSpec) *cobra.Command {
	return &cobra.Command{
		Use:     string(spec.stage),
		Short:   spec.short,
		Long:    spec.long,
		Example: spec.example,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			fmt.Fprintf(cmd.OutOrStdout(), ">>> Stage %s started\n", spec.stage)
			if err := cc.Pipeline.RunStage(cmd.Context(), spec.stage); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), ">>> Stage %s completed\n", spec.stage)

			return nil
		},
	}
}
