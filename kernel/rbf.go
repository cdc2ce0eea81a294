package kernel

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/krego/core/parallel"
	"github.com/YuminosukeSato/krego/pkg/errors"
)

// RBF is a squared-exponential (Gaussian) kernel with one lengthscale per
// feature dimension:
//
//	k(a, b) = exp( -1/2 * sum_q ((a_q - b_q) / L_q)^2 )
type RBF struct {
	lengthscales []float64
}

// NewRBF creates an RBF kernel. Every lengthscale must be positive.
func NewRBF(lengthscales []float64) (*RBF, error) {
	if len(lengthscales) == 0 {
		return nil, errors.NewValueError("NewRBF", "at least one lengthscale is required")
	}
	for _, l := range lengthscales {
		if l <= 0 || math.IsNaN(l) || math.IsInf(l, 0) {
			return nil, errors.NewValidationError("lengthscales", "must be positive and finite", l)
		}
	}
	ls := make([]float64, len(lengthscales))
	copy(ls, lengthscales)
	return &RBF{lengthscales: ls}, nil
}

// Lengthscales returns a copy of the kernel's per-dimension lengthscales.
func (k *RBF) Lengthscales() []float64 {
	out := make([]float64, len(k.lengthscales))
	copy(out, k.lengthscales)
	return out
}

// Evaluate computes the Gram matrix [Ta,Tb] between a [Q,Ta] and b [Q,Tb].
func (k *RBF) Evaluate(a, b mat.Matrix) (*mat.Dense, error) {
	q := len(k.lengthscales)
	if err := checkFeatureDims("RBF.Evaluate", a, q); err != nil {
		return nil, err
	}
	if err := checkFeatureDims("RBF.Evaluate", b, q); err != nil {
		return nil, err
	}

	_, ta := a.Dims()
	_, tb := b.Dims()
	gram := mat.NewDense(ta, tb, nil)

	fill := func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < tb; j++ {
				var d2 float64
				for d := 0; d < q; d++ {
					diff := (a.At(d, i) - b.At(d, j)) / k.lengthscales[d]
					d2 += diff * diff
				}
				gram.Set(i, j, math.Exp(-0.5*d2))
			}
		}
	}

	// Goroutine overhead dominates on small Gram matrices.
	const parallelThreshold = 4096
	if ta*tb >= parallelThreshold {
		parallel.Chunked(ta, fill)
	} else {
		fill(0, ta)
	}

	return gram, nil
}
