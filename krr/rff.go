package krr

import (
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/krego/core/model"
	"github.com/YuminosukeSato/krego/kernel"
	"github.com/YuminosukeSato/krego/pkg/errors"
)

// RFF is the random-Fourier-feature approximation of kernel ridge
// regression. Instead of a [T,T] Gram matrix it works with covariance
// statistics of an [H,T] random feature map, so training and prediction
// cost scale with the approximation order H rather than the sample count.
//
// The freq/phase state generated at Fit time is stored on the artifact and
// reused verbatim at prediction time; mixing state between artifacts
// produces garbage estimates.
type RFF struct {
	model.BaseEstimator

	mapper kernel.FeatureMapper
	rho    float64
	rng    *rand.Rand

	freq      *mat.Dense // [H,Q] random frequencies
	phase     []float64  // [H] random phases
	zMean     []float64  // [H] feature map means
	xMean     []float64  // [L] latent means
	cxz       *mat.Dense // [L,H] latent/feature cross-covariance
	czz       *mat.Dense // [H,H] feature auto-covariance
	cxzCzzInv *mat.Dense // [L,H] cxz * (czz + rho*I)^-1
}

// NewRFF creates an RFF estimator. rng supplies the frequencies and phases
// drawn during Fit; it must not be shared with concurrent users.
func NewRFF(mapper kernel.FeatureMapper, rho float64, rng *rand.Rand) *RFF {
	return &RFF{mapper: mapper, rho: rho, rng: rng}
}

// H returns the approximation order, derived from the stored state.
func (r *RFF) H() int {
	if r.freq == nil {
		return 0
	}
	h, _ := r.freq.Dims()
	return h
}

// L returns the number of latent parameter dimensions.
func (r *RFF) L() int {
	if r.cxz == nil {
		return 0
	}
	l, _ := r.cxz.Dims()
	return l
}

// Q returns the number of feature dimensions.
func (r *RFF) Q() int {
	if r.freq == nil {
		return 0
	}
	_, q := r.freq.Dims()
	return q
}

// Rho returns the regularization the estimator was constructed with.
func (r *RFF) Rho() float64 { return r.rho }

// Freq returns a copy of the stored random frequencies [H,Q].
func (r *RFF) Freq() *mat.Dense {
	if r.freq == nil {
		return nil
	}
	out := mat.DenseCopyOf(r.freq)
	return out
}

// Phase returns a copy of the stored random phases [H].
func (r *RFF) Phase() []float64 {
	out := make([]float64, len(r.phase))
	copy(out, r.phase)
	return out
}

// Fit draws fresh freq/phase state from the estimator's rng and builds the
// covariance training artifact from x [L,T] and y [Q,T].
func (r *RFF) Fit(x, y mat.Matrix) error {
	if r.rng == nil {
		return errors.NewValueError("RFF.Fit", "rng must not be nil")
	}
	return r.fit(x, y, nil, nil)
}

// FitWith builds the artifact with caller-supplied freq/phase state
// instead of drawing fresh state, reproducing a previous approximation.
func (r *RFF) FitWith(x, y mat.Matrix, freq *mat.Dense, phase []float64) error {
	if freq == nil || phase == nil {
		return errors.NewValueError("RFF.FitWith", "freq and phase must not be nil")
	}
	return r.fit(x, y, freq, phase)
}

func (r *RFF) fit(x, y mat.Matrix, freq *mat.Dense, phase []float64) (err error) {
	const op = "RFF.Fit"
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
	if r.rho < 0 {
		return errors.NewValueError(op, "rho must be nonnegative")
	}

	var z *mat.Dense
	if freq == nil {
		z, freq, phase, err = r.mapper.Map(y, r.rng)
	} else {
		z, err = r.mapper.MapWith(y, freq, phase)
	}
	if err != nil {
		return errors.Wrap(err, op)
	}

	zMean := rowMeansOf(z)
	subRowBroadcast(z, zMean)

	xc := mat.NewDense(l, t, nil)
	xc.Copy(x)
	xMean := rowMeansOf(xc)
	subRowBroadcast(xc, xMean)

	// Covariances over T samples; SafeDivide keeps the T=0 convention at 0.
	invT := errors.SafeDivide(1, float64(t))
	czz := scaledCross(z, z, invT)
	cxz := scaledCross(xc, z, invT)

	h, _ := czz.Dims()
	reg := mat.NewDense(h, h, nil)
	reg.Copy(czz)
	addToDiag(reg, r.rho)

	cxzCzzInv, err := rightSolve(op, reg, cxz, r.rho)
	if err != nil {
		return err
	}

	r.freq = freq
	r.phase = phase
	r.zMean = zMean
	r.xMean = xMean
	r.czz = czz
	r.cxz = cxz
	r.cxzCzzInv = cxzCzzInv
	r.SetFitted()
	return nil
}

// Predict estimates latent parameters [L,N] for new features yNew [Q,N],
// re-evaluating the feature map with the stored freq/phase state. The
// artifact is read-only during prediction.
func (r *RFF) Predict(yNew mat.Matrix) (*mat.Dense, error) {
	const op = "RFF.Predict"
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError("RFF", "Predict")
	}

	q, n := yNew.Dims()
	if q != r.Q() {
		return nil, errors.NewInputShapeError("prediction", []int{r.Q(), -1}, []int{q, n})
	}

	z, err := r.mapper.MapWith(yNew, r.freq, r.phase)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	subRowBroadcast(z, r.zMean)

	xHat := mat.NewDense(r.L(), n, nil)
	xHat.Mul(r.cxzCzzInv, z)
	subRowBroadcast(xHat, negate(r.xMean))
	return xHat, nil
}

// PredictWithRho estimates latent parameters using a regularization other
// than the one the artifact was trained with, solving against a per-call
// scratch clone of the stored feature auto-covariance.
func (r *RFF) PredictWithRho(yNew mat.Matrix, rho float64) (*mat.Dense, error) {
	const op = "RFF.PredictWithRho"
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError("RFF", "PredictWithRho")
	}
	if rho < 0 {
		return nil, errors.NewValueError(op, "rho must be nonnegative")
	}

	q, n := yNew.Dims()
	if q != r.Q() {
		return nil, errors.NewInputShapeError("prediction", []int{r.Q(), -1}, []int{q, n})
	}

	z, err := r.mapper.MapWith(yNew, r.freq, r.phase)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	subRowBroadcast(z, r.zMean)

	h := r.H()
	reg := mat.NewDense(h, h, nil)
	reg.Copy(r.czz)
	addToDiag(reg, rho)

	var sol mat.Dense
	if err := sol.Solve(reg, z); err != nil {
		return nil, errors.NewModelError(op, "regularized solve failed", errors.ErrSingularMatrix)
	}

	xHat := mat.NewDense(r.L(), n, nil)
	xHat.Mul(r.cxz, &sol)
	subRowBroadcast(xHat, negate(r.xMean))
	return xHat, nil
}

// PredictTimed is Predict plus the wall-clock time the prediction took.
func (r *RFF) PredictTimed(yNew mat.Matrix) (*mat.Dense, time.Duration, error) {
	start := time.Now()
	xHat, err := r.Predict(yNew)
	return xHat, time.Since(start), err
}
