package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapml/internal/state"
)

// RunsOptions holds options for the runs command.
type RunsOptions struct {
	Limit      int
	JSONOutput bool
}

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	opts := &RunsOptions{}

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show recorded pipeline runs",
		Long: `List recorded runs from the state database, or show the stages,
parameters, metrics, and artifacts of a single run.`,
		Example: `  # List the most recent runs
  leapml runs

  # Show one run in detail
  leapml runs 1f8b4c9e-...

  # List runs as JSON
  leapml runs --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if len(args) == 1 {
				return showRun(cmd, cc, args[0], opts.JSONOutput)
			}
			return listRuns(cmd, cc, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "Output as JSON")

	return cmd
}

func listRuns(cmd *cobra.Command, cc *CommandContext, opts *RunsOptions) error {
	runs, err := cc.Pipeline.Store().ListRuns(opts.Limit)
	if err != nil {
		return err
	}

	if opts.JSONOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet. Run 'leapml run' first.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run ID", "Experiment", "Env", "Status", "Started", "Duration"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID,
			run.Experiment,
			run.Environment,
			run.Status,
			run.StartedAt.Format(time.RFC3339),
			formatRunDuration(run),
		})
	}
	t.Render()

	return nil
}

func formatRunDuration(run *state.Run) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}

// runDetail is the JSON shape of a single-run view.
type runDetail struct {
	Run       *state.Run        `json:"run"`
	Stages    []*state.StageRun `json:"stages"`
	Params    []*state.Param    `json:"params"`
	Metrics   []*state.Metric   `json:"metrics"`
	Artifacts []*state.Artifact `json:"artifacts"`
}

func showRun(cmd *cobra.Command, cc *CommandContext, runID string, jsonOutput bool) error {
	store := cc.Pipeline.Store()

	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}

	stages, err := store.GetStageRunsForRun(runID)
	if err != nil {
		return err
	}
	params, err := store.GetParams(runID)
	if err != nil {
		return err
	}
	metrics, err := store.GetMetrics(runID)
	if err != nil {
		return err
	}
	artifacts, err := store.GetArtifacts(runID)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(runDetail{Run: run, Stages: stages, Params: params, Metrics: metrics, Artifacts: artifacts})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.Status)
	fmt.Fprintf(out, "Experiment: %s  Environment: %s\n", run.Experiment, run.Environment)
	if run.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", run.Error)
	}

	if len(stages) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Stage", "Status", "Duration", "Error"})
		for _, sr := range stages {
			t.AppendRow(table.Row{sr.Stage, sr.Status, time.Duration(sr.DurationMS) * time.Millisecond, sr.Error})
		}
		t.Render()
	}

	if len(params) > 0 || len(metrics) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Kind", "Key", "Value"})
		for _, p := range params {
			t.AppendRow(table.Row{"param", p.Key, p.Value})
		}
		for _, m := range metrics {
			t.AppendRow(table.Row{"metric", m.Key, formatFloat(m.Value)})
		}
		t.Render()
	}

	for _, a := range artifacts {
		fmt.Fprintf(out, "artifact %s -> %s\n", a.Name, a.Path)
	}

	return nil
}
