package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSchema(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSchema(t *testing.T) {
	path := writeSchema(t, `
columns:
  fixed_acidity: float64
  alcohol: float64
  quality: int64
target: quality
`)

	s, err := LoadSchema(path)
	require.NoError(t, err)
	assert.Len(t, s.Columns, 3)
	assert.Equal(t, "quality", s.Target)
}

func TestLoadSchema_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSchema(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("no columns", func(t *testing.T) {
		_, err := LoadSchema(writeSchema(t, "target: quality\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no columns")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadSchema(writeSchema(t, "columns: [oops\n"))
		assert.Error(t, err)
	})
}

func TestSchemaValidate(t *testing.T) {
	s := &Schema{
		Columns: map[string]string{"a": "float64", "b": "float64"},
		Target:  "quality",
	}

	t.Run("all present", func(t *testing.T) {
		f := &Frame{Columns: []string{"a", "b", "quality"}}
		assert.NoError(t, s.Validate(f))
	})

	t.Run("missing column", func(t *testing.T) {
		f := &Frame{Columns: []string{"a", "quality"}}
		err := s.Validate(f)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"b"`)
	})

	t.Run("missing target", func(t *testing.T) {
		f := &Frame{Columns: []string{"a", "b"}}
		err := s.Validate(f)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "target column")
	})
}
