package dataset

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticFrame builds an n-row frame whose first column is the row index.
func syntheticFrame(n int) *Frame {
	f := &Frame{Columns: []string{"idx", "value"}}
	for i := 0; i < n; i++ {
		f.Rows = append(f.Rows, []float64{float64(i), float64(i) * 0.5})
	}
	return f
}

func TestTrainTestSplit_Proportions(t *testing.T) {
	tests := []struct {
		n         int
		testSize  float64
		wantTest  int
		wantTrain int
	}{
		{100, 0.2, 20, 80},
		{10, 0.2, 2, 8},
		{101, 0.2, 21, 80},
		{5, 0.5, 3, 2},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d size=%g", tt.n, tt.testSize), func(t *testing.T) {
			train, test, err := TrainTestSplit(syntheticFrame(tt.n), tt.testSize, 42)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTrain, train.NumRows())
			assert.Equal(t, tt.wantTest, test.NumRows())
		})
	}
}

func TestTrainTestSplit_Deterministic(t *testing.T) {
	f := syntheticFrame(100)

	train1, test1, err := TrainTestSplit(f, 0.2, 42)
	require.NoError(t, err)
	train2, test2, err := TrainTestSplit(f, 0.2, 42)
	require.NoError(t, err)

	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)

	// A different seed shuffles differently
	_, test3, err := TrainTestSplit(f, 0.2, 7)
	require.NoError(t, err)
	assert.NotEqual(t, test1, test3)
}

func TestTrainTestSplit_PartitionsRows(t *testing.T) {
	n := 100
	train, test, err := TrainTestSplit(syntheticFrame(n), 0.2, 42)
	require.NoError(t, err)

	seen := make([]float64, 0, n)
	for _, row := range train.Rows {
		seen = append(seen, row[0])
	}
	for _, row := range test.Rows {
		seen = append(seen, row[0])
	}
	require.Len(t, seen, n)

	sort.Float64s(seen)
	for i := 0; i < n; i++ {
		assert.Equal(t, float64(i), seen[i])
	}
}

func TestTrainTestSplit_Errors(t *testing.T) {
	f := syntheticFrame(10)

	_, _, err := TrainTestSplit(f, 0, 42)
	assert.Error(t, err)

	_, _, err = TrainTestSplit(f, 1, 42)
	assert.Error(t, err)

	// One row cannot be split
	_, _, err = TrainTestSplit(syntheticFrame(1), 0.2, 42)
	assert.Error(t, err)
}
