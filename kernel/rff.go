package kernel

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/krego/pkg/errors"
)

// RandomFourier approximates an RBF kernel with H random Fourier features:
//
//	z_h(y) = sqrt(2/H) * cos(w_h . y + p_h)
//
// where w_h is drawn from N(0, diag(L^-2)) and p_h from U(0, 2*pi).
// The generated (freq, phase) state must be carried from training to
// prediction so both phases see the same feature map.
type RandomFourier struct {
	order        int
	lengthscales []float64
}

// NewRandomFourier creates a random Fourier feature map of the given
// approximation order H with one lengthscale per feature dimension.
func NewRandomFourier(order int, lengthscales []float64) (*RandomFourier, error) {
	if order < 1 {
		return nil, errors.NewValidationError("order", "must be at least 1", order)
	}
	if len(lengthscales) == 0 {
		return nil, errors.NewValueError("NewRandomFourier", "at least one lengthscale is required")
	}
	for _, l := range lengthscales {
		if l <= 0 || math.IsNaN(l) || math.IsInf(l, 0) {
			return nil, errors.NewValidationError("lengthscales", "must be positive and finite", l)
		}
	}
	ls := make([]float64, len(lengthscales))
	copy(ls, lengthscales)
	return &RandomFourier{order: order, lengthscales: ls}, nil
}

// Order returns the approximation order H.
func (r *RandomFourier) Order() int { return r.order }

// Map draws fresh frequencies and phases from rng and maps y [Q,T] to
// features z [H,T]. The generated freq [H,Q] and phase [H] are returned so
// prediction can reproduce the identical map via MapWith.
func (r *RandomFourier) Map(y mat.Matrix, rng *rand.Rand) (*mat.Dense, *mat.Dense, []float64, error) {
	q := len(r.lengthscales)
	if err := checkFeatureDims("RandomFourier.Map", y, q); err != nil {
		return nil, nil, nil, err
	}
	if rng == nil {
		return nil, nil, nil, errors.NewValueError("RandomFourier.Map", "rng must not be nil")
	}

	h := r.order
	freq := mat.NewDense(h, q, nil)
	for d := 0; d < q; d++ {
		// Spectral density of the RBF kernel: frequencies scale with 1/L.
		normal := distuv.Normal{Mu: 0, Sigma: 1 / r.lengthscales[d], Src: rng}
		for i := 0; i < h; i++ {
			freq.Set(i, d, normal.Rand())
		}
	}

	phase := make([]float64, h)
	uniform := distuv.Uniform{Min: 0, Max: 2 * math.Pi, Src: rng}
	for i := range phase {
		phase[i] = uniform.Rand()
	}

	z, err := r.MapWith(y, freq, phase)
	if err != nil {
		return nil, nil, nil, err
	}
	return z, freq, phase, nil
}

// MapWith maps y [Q,T] to features z [H,T] using previously generated
// frequencies and phases.
func (r *RandomFourier) MapWith(y mat.Matrix, freq *mat.Dense, phase []float64) (*mat.Dense, error) {
	q := len(r.lengthscales)
	if err := checkFeatureDims("RandomFourier.MapWith", y, q); err != nil {
		return nil, err
	}

	h, fq := freq.Dims()
	if h != len(phase) {
		return nil, errors.NewDimensionError("RandomFourier.MapWith", h, len(phase), 0)
	}
	if fq != q {
		return nil, errors.NewDimensionError("RandomFourier.MapWith", q, fq, 0)
	}

	_, t := y.Dims()
	scale := math.Sqrt(2 / float64(h))

	z := mat.NewDense(h, t, nil)
	for i := 0; i < h; i++ {
		for j := 0; j < t; j++ {
			var arg float64
			for d := 0; d < q; d++ {
				arg += freq.At(i, d) * y.At(d, j)
			}
			z.Set(i, j, scale*math.Cos(arg+phase[i]))
		}
	}
	return z, nil
}
