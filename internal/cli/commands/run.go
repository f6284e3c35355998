package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapml/internal/pipeline"
)

// NewRunCommand creates the run command, which executes the full
// pipeline in stage order.
func NewRunCommand() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full training pipeline",
		Long: `Execute all pipeline stages in order: ingest, validate, split,
train, evaluate.

The run stops at the first failing stage; remaining stages are recorded
as skipped. Every run is recorded in the state database and the
evaluation results are logged to the configured experiment tracker.`,
		Example: `  # Run the full pipeline
  leapml run

  # Re-run from the split stage, reusing the ingested data
  leapml run --from split

  # Run against a specific config file
  leapml run --config experiments/leapml.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := pipeline.StageIngest
			if from != "" {
				var err error
				start, err = pipeline.ParseStage(from)
				if err != nil {
					return err
				}
			}

			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			fmt.Fprintln(cmd.OutOrStdout(), ">>> Pipeline started")
			if err := cc.Pipeline.RunFrom(cmd.Context(), start); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ">>> Pipeline completed")

			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Start at this stage instead of ingest (ingest|validate|split|train|evaluate)")

	return cmd
}
