package krr

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/krego/core/model"
	"github.com/YuminosukeSato/krego/kernel"
	"github.com/YuminosukeSato/krego/pkg/errors"
)

// Exact is the exact-kernel ridge regression estimator. Fit evaluates the
// full Gram matrix over the training features, double-centers it, and
// precomputes the regularized solve; Predict maps new features to latent
// parameter estimates through the stored combination.
//
// A fitted Exact is immutable: Predict never writes to the stored training
// artifact, so one instance may serve concurrent prediction calls.
type Exact struct {
	model.BaseEstimator

	kern kernel.Kernel
	rho  float64

	y        *mat.Dense // [Q,T] training features, as given
	x        *mat.Dense // [L,T] de-meaned latent parameters
	xMean    []float64  // [L] latent means removed from x
	gram     *mat.Dense // [T,T] double-centered Gram matrix
	rowMeans []float64  // [T] pre-centering row means of the Gram matrix
	xKinv    *mat.Dense // [L,T] x * (gram + T*rho*I)^-1
}

// NewExact creates an exact-kernel estimator with the given kernel and
// Tikhonov regularization rho.
func NewExact(k kernel.Kernel, rho float64) *Exact {
	return &Exact{kern: k, rho: rho}
}

// T returns the number of training samples, derived from the stored shapes.
func (e *Exact) T() int {
	if e.x == nil {
		return 0
	}
	_, t := e.x.Dims()
	return t
}

// L returns the number of latent parameter dimensions.
func (e *Exact) L() int {
	if e.x == nil {
		return 0
	}
	l, _ := e.x.Dims()
	return l
}

// Q returns the number of feature dimensions.
func (e *Exact) Q() int {
	if e.y == nil {
		return 0
	}
	q, _ := e.y.Dims()
	return q
}

// Rho returns the regularization the estimator was constructed with.
func (e *Exact) Rho() float64 { return e.rho }

// Fit builds the training artifact from latent parameters x [L,T] and
// features y [Q,T]. All validation happens before any state is written,
// so a failed Fit leaves the estimator unfitted.
func (e *Exact) Fit(x, y mat.Matrix) (err error) {
	const op = "Exact.Fit"
	defer errors.Recover(&err, op)

	l, t := x.Dims()
	q, ty := y.Dims()
	if l == 0 || t == 0 || q == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if ty != t {
		return errors.NewDimensionError(op, t, ty, 1)
	}
	if t < 2 {
		return errors.NewValidationError("T", "training set must contain at least 2 samples", t)
	}
	if e.rho < 0 {
		return errors.NewValueError(op, "rho must be nonnegative")
	}

	gram, err := e.kern.Evaluate(y, y)
	if err != nil {
		return errors.Wrap(err, op)
	}
	rowMeans := doubleCenter(gram)

	xc := mat.NewDense(l, t, nil)
	xc.Copy(x)
	xMean := rowMeansOf(xc)
	subRowBroadcast(xc, xMean)

	reg := mat.NewDense(t, t, nil)
	reg.Copy(gram)
	addToDiag(reg, float64(t)*e.rho)

	xKinv, err := rightSolve(op, reg, xc, e.rho)
	if err != nil {
		return err
	}

	yc := mat.NewDense(q, t, nil)
	yc.Copy(y)

	e.y = yc
	e.x = xc
	e.xMean = xMean
	e.gram = gram
	e.rowMeans = rowMeans
	e.xKinv = xKinv
	e.SetFitted()
	return nil
}

// Predict estimates latent parameters [L,N] for new features yNew [Q,N].
// The cross-Gram between training and new features is centered with the
// stored row means and combined with the precomputed regularized solve;
// nothing in the artifact is written, so concurrent calls are safe.
func (e *Exact) Predict(yNew mat.Matrix) (*mat.Dense, error) {
	const op = "Exact.Predict"
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("Exact", "Predict")
	}

	q, n := yNew.Dims()
	if q != e.Q() {
		return nil, errors.NewInputShapeError("prediction", []int{e.Q(), -1}, []int{q, n})
	}

	k, err := e.kern.Evaluate(e.y, yNew)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	subRowBroadcast(k, e.rowMeans)

	xHat := mat.NewDense(e.L(), n, nil)
	xHat.Mul(e.xKinv, k)
	subRowBroadcast(xHat, negate(e.xMean))
	return xHat, nil
}

// PredictWithRho estimates latent parameters using a regularization other
// than the one the artifact was trained with. The stored Gram matrix is
// cloned into a per-call scratch buffer before the diagonal is shifted, so
// the artifact stays bit-identical and the call is safe under concurrency.
func (e *Exact) PredictWithRho(yNew mat.Matrix, rho float64) (*mat.Dense, error) {
	const op = "Exact.PredictWithRho"
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("Exact", "PredictWithRho")
	}
	if rho < 0 {
		return nil, errors.NewValueError(op, "rho must be nonnegative")
	}

	q, n := yNew.Dims()
	if q != e.Q() {
		return nil, errors.NewInputShapeError("prediction", []int{e.Q(), -1}, []int{q, n})
	}

	k, err := e.kern.Evaluate(e.y, yNew)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	subRowBroadcast(k, e.rowMeans)

	t := e.T()
	reg := mat.NewDense(t, t, nil)
	reg.Copy(e.gram)
	addToDiag(reg, float64(t)*rho)

	var sol mat.Dense
	if err := sol.Solve(reg, k); err != nil {
		return nil, errors.NewModelError(op, "regularized solve failed", errors.ErrSingularMatrix)
	}

	xHat := mat.NewDense(e.L(), n, nil)
	xHat.Mul(e.x, &sol)
	subRowBroadcast(xHat, negate(e.xMean))
	return xHat, nil
}

// PredictTimed is Predict plus the wall-clock time the prediction took.
// The measurement is for external benchmarking only.
func (e *Exact) PredictTimed(yNew mat.Matrix) (*mat.Dense, time.Duration, error) {
	start := time.Now()
	xHat, err := e.Predict(yNew)
	return xHat, time.Since(start), err
}

// negate returns -v as a fresh slice, for re-adding means through
// subRowBroadcast.
func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = -x
	}
	return out
}
