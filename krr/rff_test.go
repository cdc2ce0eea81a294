package krr

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/krego/kernel"
	kregoerr "github.com/YuminosukeSato/krego/pkg/errors"
)

func newDecayRFF(t *testing.T, order int, rho float64, seed uint64) *RFF {
	t.Helper()
	mapper, err := kernel.NewRandomFourier(order, []float64{0.1})
	require.NoError(t, err)
	return NewRFF(mapper, rho, rand.New(rand.NewPCG(seed, 0)))
}

func TestRFFFit(t *testing.T) {
	x, y := decayDataSet(11, 50)

	t.Run("derived shapes", func(t *testing.T) {
		r := newDecayRFF(t, 64, 1e-4, 1)
		require.NoError(t, r.Fit(x, y))
		assert.Equal(t, 64, r.H())
		assert.Equal(t, 1, r.L())
		assert.Equal(t, 1, r.Q())
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			x, y *mat.Dense
			rho  float64
		}{
			{"sample count mismatch", mat.NewDense(1, 3, nil), mat.NewDense(1, 4, nil), 1e-4},
			{"single sample", mat.NewDense(1, 1, []float64{1}), mat.NewDense(1, 1, []float64{1}), 1e-4},
			{"negative rho", x, y, -1},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r := newDecayRFF(t, 16, tt.rho, 1)
				assert.Error(t, r.Fit(tt.x, tt.y))
			})
		}
	})
}

// Fitting a second estimator with the first one's drawn frequencies and
// phases must reproduce its predictions exactly.
func TestRFFStateReuse(t *testing.T) {
	xTrain, yTrain := decayDataSet(12, 50)
	_, yTest := decayDataSet(13, 10)

	first := newDecayRFF(t, 64, 1e-4, 7)
	require.NoError(t, first.Fit(xTrain, yTrain))

	second := newDecayRFF(t, 64, 1e-4, 999) // seed is irrelevant for FitWith
	require.NoError(t, second.FitWith(xTrain, yTrain, first.Freq(), first.Phase()))

	want, err := first.Predict(yTest)
	require.NoError(t, err)
	got, err := second.Predict(yTest)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, got, 1e-12))
}

func TestRFFStateAccessorsCopy(t *testing.T) {
	xTrain, yTrain := decayDataSet(14, 30)

	r := newDecayRFF(t, 32, 1e-4, 3)
	require.NoError(t, r.Fit(xTrain, yTrain))

	freq := r.Freq()
	freq.Set(0, 0, 1e9)
	assert.NotEqual(t, 1e9, r.Freq().At(0, 0))

	phase := r.Phase()
	phase[0] = -1
	assert.NotEqual(t, -1.0, r.Phase()[0])
}

func TestRFFPredict(t *testing.T) {
	xTrain, yTrain := decayDataSet(15, 120)
	xTest, yTest := decayDataSet(16, 20)

	t.Run("not fitted", func(t *testing.T) {
		r := newDecayRFF(t, 32, 1e-4, 1)
		_, err := r.Predict(yTest)
		require.Error(t, err)
		var nf *kregoerr.NotFittedError
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("approximates the exact estimator", func(t *testing.T) {
		r := newDecayRFF(t, 256, 1e-4, 21)
		require.NoError(t, r.Fit(xTrain, yTrain))

		xHat, err := r.Predict(yTest)
		require.NoError(t, err)

		l, n := xHat.Dims()
		require.Equal(t, 1, l)
		require.Equal(t, 20, n)

		var sum float64
		for j := 0; j < n; j++ {
			sum += math.Abs(xHat.At(0, j)-xTest.At(0, j)) / xTest.At(0, j)
		}
		assert.Less(t, sum/float64(n), 0.2, "mean relative error")
	})

	t.Run("feature dimension mismatch", func(t *testing.T) {
		r := newDecayRFF(t, 32, 1e-4, 1)
		require.NoError(t, r.Fit(xTrain, yTrain))
		_, err := r.Predict(mat.NewDense(2, 5, nil))
		assert.Error(t, err)
	})
}

func TestRFFPredictWithRho(t *testing.T) {
	xTrain, yTrain := decayDataSet(17, 60)
	_, yTest := decayDataSet(18, 10)

	r := newDecayRFF(t, 64, 1e-3, 9)
	require.NoError(t, r.Fit(xTrain, yTrain))

	t.Run("matches Predict at the fitted rho", func(t *testing.T) {
		want, err := r.Predict(yTest)
		require.NoError(t, err)
		got, err := r.PredictWithRho(yTest, r.Rho())
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(want, got, 1e-10))
	})

	t.Run("stored covariances stay untouched", func(t *testing.T) {
		before := append([]float64(nil), r.czz.RawMatrix().Data...)
		_, err := r.PredictWithRho(yTest, 0.5)
		require.NoError(t, err)
		assert.Equal(t, before, r.czz.RawMatrix().Data)
	})

	t.Run("negative rho rejected", func(t *testing.T) {
		_, err := r.PredictWithRho(yTest, -1)
		assert.Error(t, err)
	})
}

func TestRFFPredictTimed(t *testing.T) {
	xTrain, yTrain := decayDataSet(19, 40)
	_, yTest := decayDataSet(20, 5)

	r := newDecayRFF(t, 32, 1e-3, 5)
	require.NoError(t, r.Fit(xTrain, yTrain))

	xHat, elapsed, err := r.PredictTimed(yTest)
	require.NoError(t, err)
	require.NotNil(t, xHat)
	assert.Greater(t, elapsed.Nanoseconds(), int64(0))
}
