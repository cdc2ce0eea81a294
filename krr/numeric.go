package krr

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/krego/pkg/errors"
)

// rowMeansOf returns the mean of each row of m.
func rowMeansOf(m *mat.Dense) []float64 {
	r, c := m.Dims()
	means := make([]float64, r)
	for i := 0; i < r; i++ {
		var sum float64
		for j := 0; j < c; j++ {
			sum += m.At(i, j)
		}
		means[i] = errors.SafeDivide(sum, float64(c))
	}
	return means
}

// colMeansOf returns the mean of each column of m.
func colMeansOf(m *mat.Dense) []float64 {
	r, c := m.Dims()
	means := make([]float64, c)
	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += m.At(i, j)
		}
		means[j] = errors.SafeDivide(sum, float64(r))
	}
	return means
}

// subRowBroadcast subtracts v[i] from every entry of row i.
func subRowBroadcast(m *mat.Dense, v []float64) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, m.At(i, j)-v[i])
		}
	}
}

// subColBroadcast subtracts v[j] from every entry of column j.
func subColBroadcast(m *mat.Dense, v []float64) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, m.At(i, j)-v[j])
		}
	}
}

// doubleCenter removes the row means of m, then the column means of the
// row-centered matrix, in that exact order, and returns the pre-centering
// row means. The two-pass order is the double-centering convention the
// predictor relies on when centering cross-Gram columns with the stored
// row means.
func doubleCenter(m *mat.Dense) []float64 {
	rowMeans := rowMeansOf(m)
	subRowBroadcast(m, rowMeans)
	subColBroadcast(m, colMeansOf(m))
	return rowMeans
}

// addToDiag adds v to every diagonal entry of the square matrix m.
func addToDiag(m *mat.Dense, v float64) {
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		m.Set(i, i, m.At(i, i)+v)
	}
}

// scaledCross computes a * b^T * scale, the covariance building block.
// a is [Ra,T], b is [Rb,T]; the result is [Ra,Rb].
func scaledCross(a, b *mat.Dense, scale float64) *mat.Dense {
	ra, _ := a.Dims()
	rb, _ := b.Dims()
	out := mat.NewDense(ra, rb, nil)
	out.Mul(a, b.T())
	out.Scale(scale, out)
	return out
}

// condWarnThreshold is the estimated condition number above which a
// regularized system is reported through the warning system.
const condWarnThreshold = 1e12

// rightSolve solves x * a = b for x, where a is square [T,T] and b is
// [L,T], by solving the transposed system a^T * x^T = b^T. An
// ill-conditioned system raises a warning with the rho it was regularized
// with; a factorization failure is surfaced as a singular-matrix model
// error.
func rightSolve(op string, a mat.Matrix, b *mat.Dense, rho float64) (*mat.Dense, error) {
	var lu mat.LU
	lu.Factorize(a.T())
	if cond := lu.Cond(); cond > condWarnThreshold {
		errors.Warn(errors.NewIllConditionedWarning(op, cond, rho))
	}

	var xt mat.Dense
	if err := lu.SolveTo(&xt, false, b.T()); err != nil {
		return nil, errors.NewModelError(op, "regularized solve failed", errors.ErrSingularMatrix)
	}

	l, _ := b.Dims()
	_, t := a.Dims()
	x := mat.NewDense(l, t, nil)
	x.Copy(xt.T())
	return x, nil
}

// Combine stacks observed features y [Q,T] and known parameters nu [K,T]
// along the feature axis, y rows first. Training and prediction must use
// the same ordering; swapping it silently produces wrong estimates.
// A nil nu returns a copy of y.
func Combine(y mat.Matrix, nu mat.Matrix) (*mat.Dense, error) {
	const op = "krr.Combine"

	q, t := y.Dims()
	out := mat.NewDense(q, t, nil)
	out.Copy(y)
	if nu == nil {
		return out, nil
	}

	k, tn := nu.Dims()
	if tn != t {
		return nil, errors.NewDimensionError(op, t, tn, 1)
	}

	stacked := mat.NewDense(q+k, t, nil)
	stacked.Slice(0, q, 0, t).(*mat.Dense).Copy(y)
	stacked.Slice(q, q+k, 0, t).(*mat.Dense).Copy(nu)
	return stacked, nil
}

// SqueezeVec reduces an estimate [L,N] to a flat vector when L==1 (length
// N) or N==1 (length L). Estimates with both dimensions above one cannot
// be squeezed.
func SqueezeVec(m *mat.Dense) ([]float64, error) {
	r, c := m.Dims()
	switch {
	case r == 1:
		out := make([]float64, c)
		mat.Row(out, 0, m)
		return out, nil
	case c == 1:
		out := make([]float64, r)
		mat.Col(out, 0, m)
		return out, nil
	default:
		return nil, errors.NewValueError("krr.SqueezeVec", "matrix has no unit dimension to squeeze")
	}
}

// SqueezeScalar reduces a [1,1] estimate to a scalar.
func SqueezeScalar(m *mat.Dense) (float64, error) {
	r, c := m.Dims()
	if r != 1 || c != 1 {
		return 0, errors.NewValueError("krr.SqueezeScalar", "matrix is not 1x1")
	}
	return m.At(0, 0), nil
}
