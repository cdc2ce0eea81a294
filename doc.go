// Package krego provides kernel ridge regression for estimating latent
// parameters from noisy observed signals.
//
// krego calibrates a regression-based estimator from simulated training data
// generated by a user-supplied forward signal model plus noise, then applies
// that estimator to new observations. Two training/prediction paths are
// provided: an exact path built on a full Gram matrix, and an approximate
// path built on random Fourier features (RFF). Hyperparameters (the kernel
// bandwidth scale lambda and the Tikhonov regularization rho) are selected
// automatically by a holdout grid search over a synthetic test set.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//	    "math"
//
//	    "github.com/YuminosukeSato/krego/krr"
//	    "github.com/YuminosukeSato/krego/synth"
//	)
//
//	func main() {
//	    decay := synth.SignalModel{F: func(x, nu []float64) complex128 {
//	        return complex(math.Exp(-nu[0]/x[0]), 0)
//	    }}
//	    res, err := krr.Holdout(krr.HoldoutOptions{
//	        NTest:      100,
//	        NTrain:     200,
//	        LambdaGrid: []float64{0.5, 1, 2},
//	        RhoGrid:    []float64{1e-4, 1e-2, 1},
//	        TestDists:  []synth.Distribution{synth.Uniform{Min: 0.5, Max: 1.5}},
//	        TrainDists: []synth.Distribution{synth.Uniform{Min: 0.5, Max: 1.5}},
//	        TestKnownDists:  []synth.Distribution{synth.Constant{Value: 1}},
//	        TrainKnownDists: []synth.Distribution{synth.Constant{Value: 1}},
//	        Noise:      synth.Normal{Sigma: 0.01},
//	        Models:     []synth.SignalModel{decay},
//	        Factory:    krr.ExactFactory(),
//	        Seed:       42,
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("best lambda:", res.BestLambda, "best rho:", res.BestRho)
//	}
//
// # Packages
//
//   - kernel: exact RBF kernels and random Fourier feature maps
//   - synth: parameter distributions, signal models, synthetic data generation
//   - krr: training, prediction, and holdout hyperparameter selection
//   - metrics: weighted relative error and the holdout cost
//   - core/model: estimator interfaces and base types
//   - core/parallel: parallel processing utilities
//   - pkg/errors, pkg/log: structured errors and logging
//
// # License
//
// krego is released under the MIT License.
package krego
