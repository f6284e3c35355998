package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func vec(values ...float64) *mat.VecDense {
	return mat.NewVecDense(len(values), values)
}

func TestPerfectPrediction(t *testing.T) {
	yTrue := vec(1, 2, 3, 4)
	yPred := vec(1, 2, 3, 4)

	rmse, err := RMSE(yTrue, yPred)
	require.NoError(t, err)
	assert.Zero(t, rmse)

	mae, err := MAE(yTrue, yPred)
	require.NoError(t, err)
	assert.Zero(t, mae)

	r2, err := R2Score(yTrue, yPred)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r2)
}

func TestKnownValues(t *testing.T) {
	yTrue := vec(3, -0.5, 2, 7)
	yPred := vec(2.5, 0.0, 2, 8)

	mse, err := MSE(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.375, mse, 1e-12)

	rmse, err := RMSE(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.6123724356957945, rmse, 1e-12)

	mae, err := MAE(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, mae, 1e-12)

	r2, err := R2Score(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.9486081370449679, r2, 1e-12)
}

func TestValidationErrors(t *testing.T) {
	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := MSE(vec(1, 2), vec(1))
		assert.Error(t, err)
		_, err = MAE(vec(1, 2), vec(1))
		assert.Error(t, err)
		_, err = R2Score(vec(1, 2), vec(1))
		assert.Error(t, err)
	})

	t.Run("no variance", func(t *testing.T) {
		_, err := R2Score(vec(2, 2, 2), vec(1, 2, 3))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no variance")
	})
}
