package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new leapml project",
		Long: `Initialize a new leapml project with a default configuration and a
sample dataset.

This creates:
  - leapml.yaml configuration file
  - schema.yaml describing the expected dataset columns
  - data/winequality.csv sample dataset

After init, 'leapml run' executes the full pipeline against the sample.`,
		Example: `  # Initialize in the current directory
  leapml init

  # Initialize in a new directory
  leapml init my-experiment

  # Force overwrite existing config
  leapml init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := dir + "/leapml.yaml"
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("leapml.yaml already exists. Use --force to overwrite")
	}

	if err := copyTemplate("project", dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	out := cmd.OutOrStdout()
	files, _ := listTemplateFiles("project")
	for _, f := range files {
		fmt.Fprintf(out, "  created %s\n", f)
	}

	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "leapml project initialized!")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Point ingestion.source at your dataset (or keep the sample)")
	fmt.Fprintln(out, "  2. Adjust the hyperparameters in leapml.yaml")
	fmt.Fprintln(out, "  3. Run 'leapml run' to execute the pipeline")
	fmt.Fprintln(out, "  4. Run 'leapml runs' to inspect recorded runs")

	return nil
}
