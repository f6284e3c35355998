package commands

import (
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapml/internal/tracking"
)

// NewServeCommand creates the serve command, which runs the tracking
// server over the local state database.
func NewServeCommand() *cobra.Command {
	var port int
	var artifactRoot string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the experiment tracking server",
		Long: `Start an HTTP tracking server backed by the local state database.

Pipelines on other machines can log runs to it by setting tracking.uri
in their configuration to this server's address. Uploaded artifacts are
stored under the artifact root, one directory per run.`,
		Example: `  # Serve on the default port
  leapml serve

  # Serve on a custom port
  leapml serve --port 9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			root := artifactRoot
			if root == "" {
				root = filepath.Join(cc.Cfg.ArtifactsDir, "tracking")
			}

			srv := tracking.NewServer(tracking.ServerConfig{
				Store:        cc.Pipeline.Store(),
				ArtifactRoot: root,
				Environment:  cc.Cfg.Environment,
				Port:         port,
				Logger:       cc.Logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Serve(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8060, "Port to listen on")
	cmd.Flags().StringVar(&artifactRoot, "artifact-root", "", "Directory for uploaded artifacts (default: <artifacts-dir>/tracking)")

	return cmd
}
