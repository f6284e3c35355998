package regression

import (
	"bytes"
	"encoding/gob"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// linearData generates n samples of y = 2*x0 - x1 + 3 with small noise.
func linearData(t *testing.T, n int) (*mat.Dense, *mat.VecDense) {
	t.Helper()
	rng := rand.New(rand.NewSource(1))

	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x0 := rng.Float64() * 10
		x1 := rng.Float64() * 10
		X.Set(i, 0, x0)
		X.Set(i, 1, x1)
		y.SetVec(i, 2*x0-x1+3+rng.NormFloat64()*0.01)
	}
	return X, y
}

func TestFit_RecoversCoefficients(t *testing.T) {
	X, y := linearData(t, 200)

	en := NewElasticNet(0.0001, 0.5)
	require.NoError(t, en.Fit(X, y))
	require.True(t, en.IsFitted())

	coef := en.Coefficients()
	require.Len(t, coef, 2)
	assert.InDelta(t, 2.0, coef[0], 0.05)
	assert.InDelta(t, -1.0, coef[1], 0.05)
	assert.InDelta(t, 3.0, en.Intercept, 0.2)
	assert.Greater(t, en.NIter, 0)
}

func TestFit_StrongPenaltyShrinksToZero(t *testing.T) {
	X, y := linearData(t, 100)

	en := NewElasticNet(1e6, 1.0)
	require.NoError(t, en.Fit(X, y))

	for _, c := range en.Coefficients() {
		assert.Zero(t, c)
	}

	// With all weights at zero the intercept is the target mean
	var mean float64
	for i := 0; i < y.Len(); i++ {
		mean += y.AtVec(i)
	}
	mean /= float64(y.Len())
	assert.InDelta(t, mean, en.Intercept, 1e-9)
}

func TestFit_Validation(t *testing.T) {
	X, y := linearData(t, 10)

	t.Run("dimension mismatch", func(t *testing.T) {
		en := NewElasticNet(1, 0.5)
		bad := mat.NewVecDense(5, nil)
		assert.Error(t, en.Fit(X, bad))
	})

	t.Run("negative alpha", func(t *testing.T) {
		en := NewElasticNet(-1, 0.5)
		assert.Error(t, en.Fit(X, y))
	})

	t.Run("l1 ratio out of range", func(t *testing.T) {
		en := NewElasticNet(1, 1.5)
		assert.Error(t, en.Fit(X, y))
	})
}

func TestPredict(t *testing.T) {
	X, y := linearData(t, 100)

	en := NewElasticNet(0.001, 0.5)
	require.NoError(t, en.Fit(X, y))

	pred, err := en.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, 100, pred.Len())

	// Near-noiseless data: predictions track the target closely
	for i := 0; i < 10; i++ {
		assert.InDelta(t, y.AtVec(i), pred.AtVec(i), 0.5)
	}
}

func TestPredict_Errors(t *testing.T) {
	t.Run("not fitted", func(t *testing.T) {
		en := NewElasticNet(1, 0.5)
		_, err := en.Predict(mat.NewDense(2, 2, nil))
		assert.ErrorIs(t, err, ErrNotFitted)
	})

	t.Run("feature count mismatch", func(t *testing.T) {
		X, y := linearData(t, 20)
		en := NewElasticNet(0.1, 0.5)
		require.NoError(t, en.Fit(X, y))

		_, err := en.Predict(mat.NewDense(2, 3, nil))
		assert.Error(t, err)
	})
}

func TestGobRoundTrip(t *testing.T) {
	X, y := linearData(t, 100)

	en := NewElasticNet(0.01, 0.5)
	require.NoError(t, en.Fit(X, y))

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(en))

	var restored ElasticNet
	require.NoError(t, gob.NewDecoder(&buf).Decode(&restored))
	require.True(t, restored.IsFitted())

	want, err := en.Predict(X)
	require.NoError(t, err)
	got, err := restored.Predict(X)
	require.NoError(t, err)

	for i := 0; i < want.Len(); i++ {
		assert.Equal(t, want.AtVec(i), got.AtVec(i))
	}
}
