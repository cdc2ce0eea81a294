// Package kernel provides the kernel capability consumed by the krr
// estimators: exact kernels computing a full Gram matrix between two
// feature collections, and random Fourier feature maps approximating a
// kernel with a finite randomized basis.
//
// Feature collections are column-per-sample matrices: a collection of T
// samples with Q feature dimensions has shape [Q,T].
package kernel

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/krego/pkg/errors"
)

// Kernel computes an exact Gram matrix between two feature collections.
type Kernel interface {
	// Evaluate returns the pairwise similarity matrix [Ta,Tb] for
	// a [Q,Ta] and b [Q,Tb]. The feature dimensions of a and b must match.
	Evaluate(a, b mat.Matrix) (*mat.Dense, error)
}

// FeatureMapper generates random feature maps approximating a kernel.
type FeatureMapper interface {
	// Map draws fresh frequencies and phases from rng and returns the
	// feature map z [H,T] of y [Q,T] together with the generated state:
	// freq [H,Q] and phase [H].
	Map(y mat.Matrix, rng *rand.Rand) (z, freq *mat.Dense, phase []float64, err error)

	// MapWith reproduces a feature map using previously generated state,
	// so a fitted approximation can be re-applied to new data.
	MapWith(y mat.Matrix, freq *mat.Dense, phase []float64) (*mat.Dense, error)
}

// checkFeatureDims validates that a feature collection has the expected
// number of feature dimensions.
func checkFeatureDims(op string, y mat.Matrix, want int) error {
	q, t := y.Dims()
	if t == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if q != want {
		return errors.NewDimensionError(op, want, q, 0)
	}
	return nil
}
