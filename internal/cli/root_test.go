package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	expected := []string{
		"version", "run", "ingest", "validate", "split", "train",
		"evaluate", "runs", "serve", "init",
	}
	for _, name := range expected {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		assert.True(t, found, "missing subcommand %s", name)
	}
}

func TestRootCmd_VersionWithoutConfig(t *testing.T) {
	// version must work in a directory with no leapml.yaml
	t.Chdir(t.TempDir())

	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "leapml v")
}

func TestRootCmd_RunFailsWithoutTargetColumn(t *testing.T) {
	// Without a config file the target column is unset, so config
	// validation rejects the run before any stage executes.
	t.Chdir(t.TempDir())

	root := NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"run"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target_column")
}
