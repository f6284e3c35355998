package dataset

import (
	"fmt"
	"math"
	"math/rand"
)

// TrainTestSplit partitions the frame into train and test subsets.
// Rows are shuffled with the given seed before splitting, so the result
// is deterministic for a fixed seed and input. The test set holds
// ceil(n * testSize) rows.
func TrainTestSplit(f *Frame, testSize float64, seed int64) (train, test *Frame, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0, 1), got %g", testSize)
	}

	n := f.NumRows()
	nTest := int(math.Ceil(float64(n) * testSize))
	if nTest == 0 || nTest == n {
		return nil, nil, fmt.Errorf("dataset with %d rows is too small for a %g split", n, testSize)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)

	test = &Frame{Columns: f.Columns, Rows: make([][]float64, 0, nTest)}
	train = &Frame{Columns: f.Columns, Rows: make([][]float64, 0, n-nTest)}

	for _, idx := range perm[:nTest] {
		test.Rows = append(test.Rows, f.Rows[idx])
	}
	for _, idx := range perm[nTest:] {
		train.Rows = append(train.Rows, f.Rows[idx])
	}

	return train, test, nil
}
