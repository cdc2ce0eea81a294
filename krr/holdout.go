package krr

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/krego/core/model"
	"github.com/YuminosukeSato/krego/core/parallel"
	"github.com/YuminosukeSato/krego/kernel"
	"github.com/YuminosukeSato/krego/metrics"
	"github.com/YuminosukeSato/krego/pkg/errors"
	"github.com/YuminosukeSato/krego/pkg/log"
	"github.com/YuminosukeSato/krego/synth"
)

// Estimator is the training/prediction capability the holdout selector
// drives: one instance per (lambda, rho) grid cell.
type Estimator = model.Estimator

// EstimatorFactory builds an estimator for one grid cell. lengthscales has
// one entry per feature dimension; rng is a cell-private generator for
// implementations that draw state (random Fourier features).
type EstimatorFactory func(lengthscales []float64, rho float64, rng *rand.Rand) (Estimator, error)

// ExactFactory returns a factory producing exact RBF-kernel estimators.
func ExactFactory() EstimatorFactory {
	return func(lengthscales []float64, rho float64, _ *rand.Rand) (Estimator, error) {
		k, err := kernel.NewRBF(lengthscales)
		if err != nil {
			return nil, err
		}
		return NewExact(k, rho), nil
	}
}

// RFFFactory returns a factory producing random-Fourier-feature estimators
// of the given approximation order.
func RFFFactory(order int) EstimatorFactory {
	return func(lengthscales []float64, rho float64, rng *rand.Rand) (Estimator, error) {
		m, err := kernel.NewRandomFourier(order, lengthscales)
		if err != nil {
			return nil, err
		}
		return NewRFF(m, rho, rng), nil
	}
}

// HoldoutOptions configures a holdout hyperparameter search.
type HoldoutOptions struct {
	// NTest and NTrain are the synthetic test and training set sizes.
	NTest  int
	NTrain int

	// LambdaGrid and RhoGrid are the candidate bandwidth scales and
	// regularizations. Cells are scanned lambda-outer, rho-inner.
	LambdaGrid []float64
	RhoGrid    []float64

	// Weights scale the relative error per latent dimension in the cost;
	// nil means unit weights. When supplied its length must match the
	// latent distribution count.
	Weights []float64

	// TestDists and TrainDists draw the latent parameters of the test and
	// training sets. They may differ to model distribution shift.
	TestDists  []synth.Distribution
	TrainDists []synth.Distribution

	// TestKnownDists and TrainKnownDists draw known (non-latent)
	// parameters; both nil when the models take none.
	TestKnownDists  []synth.Distribution
	TrainKnownDists []synth.Distribution

	// Noise is added independently per feature channel; nil is noiseless.
	Noise synth.Distribution

	// Models are the forward signal models, stacked along the feature axis.
	Models []synth.SignalModel

	// Factory builds the per-cell estimator.
	Factory EstimatorFactory

	// Seed makes the whole search reproducible: dataset sampling and
	// per-cell state derive from it deterministically.
	Seed uint64

	// Workers bounds the number of concurrent grid cells; <=0 uses all
	// CPU cores.
	Workers int

	// Logger receives per-cell debug records; nil uses the slog default.
	Logger log.Logger
}

// HoldoutResult is the outcome of a grid search: the selected
// hyperparameters and the full cost surface [len(LambdaGrid), len(RhoGrid)].
type HoldoutResult struct {
	BestLambda float64
	BestRho    float64
	Surface    *mat.Dense
}

// lengthscaleFloor prevents a zero lengthscale when a feature dimension is
// exactly zero on average.
const lengthscaleFloor = 1e-8

// Holdout draws one synthetic test set and one synthetic training set,
// then trains and evaluates an estimator for every (lambda, rho) grid
// cell, selecting the cell with the smallest weighted relative-error cost.
// Ties resolve to the earliest lambda index, then the earliest rho index.
//
// Cells are independent and run concurrently; each derives its own random
// state from Seed, so results are identical across runs and worker counts.
// Any cell error aborts the whole search.
func Holdout(opts HoldoutOptions) (*HoldoutResult, error) {
	const op = "krr.Holdout"

	if err := validateHoldout(&opts); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.With(log.ComponentKey, "krr", log.OperationKey, "holdout")

	rng := rand.New(rand.NewPCG(opts.Seed, 0))

	test, err := synth.Generate(rng, opts.NTest, opts.TestDists, opts.TestKnownDists, opts.Noise, opts.Models)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	train, err := synth.Generate(rng, opts.NTrain, opts.TrainDists, opts.TrainKnownDists, opts.Noise, opts.Models)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	yTest, err := Combine(test.Y, test.Nu)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	yTrain, err := Combine(train.Y, train.Nu)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	scale := featureScale(yTest)

	nl := len(opts.LambdaGrid)
	nr := len(opts.RhoGrid)
	surface := mat.NewDense(nl, nr, nil)
	cellErrs := make([]error, nl*nr)

	parallel.For(nl*nr, opts.Workers, func(c int) {
		il, ir := c/nr, c%nr
		lambda := opts.LambdaGrid[il]
		rho := opts.RhoGrid[ir]

		lengthscales := make([]float64, len(scale))
		for d, s := range scale {
			lengthscales[d] = lambda * s
		}

		// Cell-private generator keyed by the flattened index, so RFF
		// state is reproducible regardless of scheduling.
		cellRng := rand.New(rand.NewPCG(opts.Seed, uint64(c)+1))

		est, err := opts.Factory(lengthscales, rho, cellRng)
		if err != nil {
			cellErrs[c] = errors.Wrapf(err, "%s: cell (lambda=%g, rho=%g)", op, lambda, rho)
			return
		}
		if err := est.Fit(train.X, yTrain); err != nil {
			cellErrs[c] = errors.Wrapf(err, "%s: cell (lambda=%g, rho=%g)", op, lambda, rho)
			return
		}

		start := time.Now()
		xHat, err := est.Predict(yTest)
		if err != nil {
			cellErrs[c] = errors.Wrapf(err, "%s: cell (lambda=%g, rho=%g)", op, lambda, rho)
			return
		}
		elapsed := time.Since(start)

		werr, err := metrics.WeightedRelativeError(xHat, test.X, opts.Weights)
		if err != nil {
			cellErrs[c] = errors.Wrapf(err, "%s: cell (lambda=%g, rho=%g)", op, lambda, rho)
			return
		}
		cost, err := metrics.HoldoutCost(werr, opts.NTest)
		if err != nil {
			cellErrs[c] = errors.Wrapf(err, "%s: cell (lambda=%g, rho=%g)", op, lambda, rho)
			return
		}

		surface.Set(il, ir, cost)
		logger.Debug("holdout cell evaluated",
			log.CellKey, c,
			log.LambdaKey, lambda,
			log.RhoKey, rho,
			log.CostKey, cost,
			log.DurationMsKey, elapsed.Milliseconds(),
		)
	})

	// First failure in scan order aborts the search; no sentinel costs.
	for _, cellErr := range cellErrs {
		if cellErr != nil {
			return nil, cellErr
		}
	}

	bestIl, bestIr := 0, 0
	best := surface.At(0, 0)
	for il := 0; il < nl; il++ {
		for ir := 0; ir < nr; ir++ {
			if v := surface.At(il, ir); v < best {
				best = v
				bestIl, bestIr = il, ir
			}
		}
	}

	logger.Info("holdout search finished",
		log.LambdaKey, opts.LambdaGrid[bestIl],
		log.RhoKey, opts.RhoGrid[bestIr],
		log.CostKey, best,
	)

	return &HoldoutResult{
		BestLambda: opts.LambdaGrid[bestIl],
		BestRho:    opts.RhoGrid[bestIr],
		Surface:    surface,
	}, nil
}

// validateHoldout checks option consistency before any sampling happens.
func validateHoldout(opts *HoldoutOptions) error {
	if opts.NTest < 1 {
		return errors.NewValidationError("NTest", "must be at least 1", opts.NTest)
	}
	if opts.NTrain < 2 {
		return errors.NewValidationError("NTrain", "must be at least 2", opts.NTrain)
	}
	if len(opts.LambdaGrid) == 0 {
		return errors.NewValidationError("LambdaGrid", "must not be empty", opts.LambdaGrid)
	}
	if len(opts.RhoGrid) == 0 {
		return errors.NewValidationError("RhoGrid", "must not be empty", opts.RhoGrid)
	}
	if len(opts.Models) == 0 {
		return errors.NewValueError("krr.Holdout", "at least one signal model is required")
	}
	if opts.Factory == nil {
		return errors.NewValueError("krr.Holdout", "an estimator factory is required")
	}
	if len(opts.TestDists) == 0 || len(opts.TestDists) != len(opts.TrainDists) {
		return errors.NewValidationError("TrainDists",
			"test and train latent distribution counts must match and be nonzero",
			len(opts.TrainDists))
	}
	if opts.Weights != nil && len(opts.Weights) != len(opts.TestDists) {
		return errors.NewValidationError("Weights",
			"length must match the latent distribution count",
			len(opts.Weights))
	}
	if len(opts.TestKnownDists) != len(opts.TrainKnownDists) {
		return errors.NewValidationError("TrainKnownDists",
			"test and train known distribution counts must match",
			len(opts.TrainKnownDists))
	}
	return nil
}

// featureScale returns the mean absolute value of each feature row,
// floored away from zero. Kernel lengthscales per grid cell are this
// scale times the cell's lambda.
func featureScale(y *mat.Dense) []float64 {
	q, n := y.Dims()
	scale := make([]float64, q)
	for i := 0; i < q; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			sum += math.Abs(y.At(i, j))
		}
		scale[i] = math.Max(errors.SafeDivide(sum, float64(n)), lengthscaleFloor)
	}
	return scale
}
