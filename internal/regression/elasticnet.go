// Package regression implements ElasticNet linear regression fitted by
// coordinate descent.
package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrNotFitted is returned when Predict is called before Fit.
var ErrNotFitted = errors.New("model is not fitted")

// ElasticNet is a linear regression model with combined L1 and L2
// regularization:
//
//	1/(2n) ||y - Xw - b||² + alpha*l1_ratio*||w||₁ + alpha*(1-l1_ratio)/2*||w||²
//
// All fields are exported so the model survives gob round-trips.
type ElasticNet struct {
	// Hyperparameters
	Alpha   float64
	L1Ratio float64
	MaxIter int
	Tol     float64

	// Learned parameters, set by Fit. Weights is a plain slice so the
	// whole struct survives gob encoding.
	Weights   []float64
	Intercept float64
	NFeatures int
	NIter     int
}

// NewElasticNet creates a model with the given regularization strength
// and L1/L2 mixing ratio, using conventional defaults for the solver.
func NewElasticNet(alpha, l1Ratio float64) *ElasticNet {
	return &ElasticNet{
		Alpha:   alpha,
		L1Ratio: l1Ratio,
		MaxIter: 1000,
		Tol:     1e-4,
	}
}

// IsFitted reports whether the model has learned parameters.
func (en *ElasticNet) IsFitted() bool {
	return en.Weights != nil
}

// softThreshold is the proximal operator of the L1 penalty.
func softThreshold(z, gamma float64) float64 {
	switch {
	case z > gamma:
		return z - gamma
	case z < -gamma:
		return z + gamma
	default:
		return 0
	}
}

// Fit estimates the weights and intercept by cyclic coordinate descent.
// X and y are centered first; the intercept is recovered from the
// column means, so the penalty never applies to it.
func (en *ElasticNet) Fit(X mat.Matrix, y *mat.VecDense) error {
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return errors.New("ElasticNet.Fit: empty data")
	}
	if y.Len() != n {
		return fmt.Errorf("ElasticNet.Fit: dimension mismatch: X has %d rows, y has %d", n, y.Len())
	}
	if en.Alpha < 0 {
		return fmt.Errorf("ElasticNet.Fit: alpha must be >= 0, got %g", en.Alpha)
	}
	if en.L1Ratio < 0 || en.L1Ratio > 1 {
		return fmt.Errorf("ElasticNet.Fit: l1_ratio must be in [0, 1], got %g", en.L1Ratio)
	}

	maxIter := en.MaxIter
	if maxIter <= 0 {
		maxIter = 1000
	}
	tol := en.Tol
	if tol <= 0 {
		tol = 1e-4
	}

	// Center features and target
	colMeans := make([]float64, p)
	for j := 0; j < p; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += X.At(i, j)
		}
		colMeans[j] = sum / float64(n)
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += y.AtVec(i)
	}
	yMean /= float64(n)

	Xc := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			Xc.Set(i, j, X.At(i, j)-colMeans[j])
		}
	}

	// Per-column squared norms, fixed during descent
	colNorms := make([]float64, p)
	for j := 0; j < p; j++ {
		col := Xc.ColView(j)
		colNorms[j] = mat.Dot(col, col)
	}

	w := make([]float64, p)

	// Residual r = yc - Xc*w, starts at yc since w = 0
	r := make([]float64, n)
	for i := 0; i < n; i++ {
		r[i] = y.AtVec(i) - yMean
	}

	l1Penalty := en.Alpha * en.L1Ratio * float64(n)
	l2Penalty := en.Alpha * (1 - en.L1Ratio) * float64(n)

	var iter int
	for iter = 0; iter < maxIter; iter++ {
		var maxChange float64

		for j := 0; j < p; j++ {
			if colNorms[j] == 0 {
				continue
			}

			// rho = x_j · (r + x_j*w_j): the correlation of feature j
			// with the residual, excluding its own contribution
			var rho float64
			for i := 0; i < n; i++ {
				xij := Xc.At(i, j)
				rho += xij * (r[i] + xij*w[j])
			}

			wNew := softThreshold(rho, l1Penalty) / (colNorms[j] + l2Penalty)

			if delta := wNew - w[j]; delta != 0 {
				for i := 0; i < n; i++ {
					r[i] -= Xc.At(i, j) * delta
				}
				if abs := math.Abs(delta); abs > maxChange {
					maxChange = abs
				}
				w[j] = wNew
			}
		}

		if maxChange < tol {
			iter++
			break
		}
	}

	en.Weights = w
	en.NFeatures = p
	en.NIter = iter

	en.Intercept = yMean
	for j := 0; j < p; j++ {
		en.Intercept -= colMeans[j] * w[j]
	}

	return nil
}

// Predict returns the predicted target values for X.
func (en *ElasticNet) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if !en.IsFitted() {
		return nil, fmt.Errorf("ElasticNet.Predict: %w", ErrNotFitted)
	}

	n, p := X.Dims()
	if p != en.NFeatures {
		return nil, fmt.Errorf("ElasticNet.Predict: expected %d features, got %d", en.NFeatures, p)
	}

	pred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		v := en.Intercept
		for j := 0; j < p; j++ {
			v += X.At(i, j) * en.Weights[j]
		}
		pred.SetVec(i, v)
	}

	return pred, nil
}

// Coefficients returns a copy of the learned weights.
func (en *ElasticNet) Coefficients() []float64 {
	if en.Weights == nil {
		return nil
	}

	out := make([]float64, len(en.Weights))
	copy(out, en.Weights)
	return out
}
