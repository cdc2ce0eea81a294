package kernel

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewRBF(t *testing.T) {
	tests := []struct {
		name         string
		lengthscales []float64
		wantErr      bool
	}{
		{name: "valid", lengthscales: []float64{1.0, 2.0}, wantErr: false},
		{name: "empty", lengthscales: nil, wantErr: true},
		{name: "zero lengthscale", lengthscales: []float64{1.0, 0}, wantErr: true},
		{name: "negative lengthscale", lengthscales: []float64{-1.0}, wantErr: true},
		{name: "NaN lengthscale", lengthscales: []float64{math.NaN()}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRBF(tt.lengthscales)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRBFEvaluate(t *testing.T) {
	k, err := NewRBF([]float64{1.0})
	require.NoError(t, err)

	t.Run("diagonal is one for identical points", func(t *testing.T) {
		y := mat.NewDense(1, 3, []float64{0.5, 1.5, -2.0})
		gram, err := k.Evaluate(y, y)
		require.NoError(t, err)

		r, c := gram.Dims()
		assert.Equal(t, 3, r)
		assert.Equal(t, 3, c)
		for i := 0; i < 3; i++ {
			assert.InDelta(t, 1.0, gram.At(i, i), 1e-15)
		}
	})

	t.Run("symmetry", func(t *testing.T) {
		y := mat.NewDense(1, 4, []float64{0, 1, 2, 4})
		gram, err := k.Evaluate(y, y)
		require.NoError(t, err)

		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				assert.InDelta(t, gram.At(j, i), gram.At(i, j), 1e-15)
			}
		}
	})

	t.Run("known value", func(t *testing.T) {
		a := mat.NewDense(1, 1, []float64{0})
		b := mat.NewDense(1, 1, []float64{2})
		gram, err := k.Evaluate(a, b)
		require.NoError(t, err)

		// exp(-0.5 * (2/1)^2) = exp(-2)
		assert.InDelta(t, math.Exp(-2), gram.At(0, 0), 1e-15)
	})

	t.Run("lengthscale scaling", func(t *testing.T) {
		wide, err := NewRBF([]float64{10.0})
		require.NoError(t, err)

		a := mat.NewDense(1, 1, []float64{0})
		b := mat.NewDense(1, 1, []float64{2})

		narrowGram, err := k.Evaluate(a, b)
		require.NoError(t, err)
		wideGram, err := wide.Evaluate(a, b)
		require.NoError(t, err)

		assert.Greater(t, wideGram.At(0, 0), narrowGram.At(0, 0))
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		a := mat.NewDense(2, 3, nil)
		b := mat.NewDense(1, 3, nil)
		_, err := k.Evaluate(a, b)
		assert.Error(t, err)
	})

	t.Run("rectangular shapes", func(t *testing.T) {
		k2, err := NewRBF([]float64{1.0, 2.0})
		require.NoError(t, err)

		a := mat.NewDense(2, 5, []float64{
			0, 1, 2, 3, 4,
			1, 1, 1, 1, 1,
		})
		b := mat.NewDense(2, 3, []float64{
			0, 1, 2,
			1, 2, 3,
		})
		gram, err := k2.Evaluate(a, b)
		require.NoError(t, err)

		r, c := gram.Dims()
		assert.Equal(t, 5, r)
		assert.Equal(t, 3, c)
	})
}

func TestRandomFourier(t *testing.T) {
	t.Run("constructor validation", func(t *testing.T) {
		_, err := NewRandomFourier(0, []float64{1})
		assert.Error(t, err)

		_, err = NewRandomFourier(10, nil)
		assert.Error(t, err)

		_, err = NewRandomFourier(10, []float64{-1})
		assert.Error(t, err)
	})

	t.Run("map shapes", func(t *testing.T) {
		rf, err := NewRandomFourier(64, []float64{1.0, 2.0})
		require.NoError(t, err)

		rng := rand.New(rand.NewPCG(42, 42))
		y := mat.NewDense(2, 7, nil)
		for j := 0; j < 7; j++ {
			y.Set(0, j, rng.Float64())
			y.Set(1, j, rng.Float64())
		}

		z, freq, phase, err := rf.Map(y, rng)
		require.NoError(t, err)

		zr, zc := z.Dims()
		assert.Equal(t, 64, zr)
		assert.Equal(t, 7, zc)

		fr, fc := freq.Dims()
		assert.Equal(t, 64, fr)
		assert.Equal(t, 2, fc)
		assert.Len(t, phase, 64)
	})

	t.Run("MapWith reproduces training features", func(t *testing.T) {
		rf, err := NewRandomFourier(32, []float64{0.5})
		require.NoError(t, err)

		rng := rand.New(rand.NewPCG(7, 7))
		y := mat.NewDense(1, 10, nil)
		for j := 0; j < 10; j++ {
			y.Set(0, j, float64(j)*0.1)
		}

		z1, freq, phase, err := rf.Map(y, rng)
		require.NoError(t, err)

		z2, err := rf.MapWith(y, freq, phase)
		require.NoError(t, err)

		assert.True(t, mat.Equal(z1, z2), "feature map must be reproducible from stored state")
	})

	t.Run("feature values are bounded", func(t *testing.T) {
		rf, err := NewRandomFourier(16, []float64{1.0})
		require.NoError(t, err)

		rng := rand.New(rand.NewPCG(1, 2))
		y := mat.NewDense(1, 5, []float64{-2, -1, 0, 1, 2})
		z, _, _, err := rf.Map(y, rng)
		require.NoError(t, err)

		bound := math.Sqrt(2.0 / 16.0)
		r, c := z.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				assert.LessOrEqual(t, math.Abs(z.At(i, j)), bound+1e-15)
			}
		}
	})

	t.Run("state shape mismatch", func(t *testing.T) {
		rf, err := NewRandomFourier(8, []float64{1.0})
		require.NoError(t, err)

		y := mat.NewDense(1, 3, []float64{0, 1, 2})
		freq := mat.NewDense(8, 1, nil)
		_, err = rf.MapWith(y, freq, make([]float64, 4))
		assert.Error(t, err)
	})
}
