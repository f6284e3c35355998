package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestInitCommand_ScaffoldsProject(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := execute(t, NewInitCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "leapml project initialized")

	assert.FileExists(t, filepath.Join(dir, "leapml.yaml"))
	assert.FileExists(t, filepath.Join(dir, "schema.yaml"))
	assert.FileExists(t, filepath.Join(dir, "data", "winequality.csv"))
	assert.FileExists(t, filepath.Join(dir, ".gitignore"))
}

func TestInitCommand_RefusesExistingConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := execute(t, NewInitCommand())
	require.NoError(t, err)

	_, err = execute(t, NewInitCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, NewInitCommand(), "--force")
	assert.NoError(t, err)
}

func TestInitCommand_TargetDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := execute(t, NewInitCommand(), "my-experiment")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "my-experiment", "leapml.yaml"))
}

func TestStageCommandsMetadata(t *testing.T) {
	cmds := NewStageCommands()
	require.Len(t, cmds, 5)

	names := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		assert.NotEmpty(t, cmd.Short, "stage %s", cmd.Use)
		assert.NotEmpty(t, cmd.Example, "stage %s", cmd.Use)
		names = append(names, cmd.Use)
	}
	assert.Equal(t, []string{"ingest", "validate", "split", "train", "evaluate"}, names)
}
