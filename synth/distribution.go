// Package synth generates synthetic calibration data: latent and known
// parameters drawn from user-selected distributions, pushed through forward
// signal models, with additive observation noise.
//
// All sampling threads an explicit *rand.Rand through every call. There is
// no package-level random state, so runs are reproducible from a seed.
package synth

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution draws n real values using the supplied generator.
type Distribution interface {
	Sample(rng *rand.Rand, n int) []float64
}

// Uniform is the continuous uniform distribution on [Min, Max).
type Uniform struct {
	Min, Max float64
}

// Sample implements Distribution.
func (d Uniform) Sample(rng *rand.Rand, n int) []float64 {
	u := distuv.Uniform{Min: d.Min, Max: d.Max, Src: rng}
	out := make([]float64, n)
	for i := range out {
		out[i] = u.Rand()
	}
	return out
}

// Normal is the Gaussian distribution with mean Mu and standard deviation Sigma.
type Normal struct {
	Mu, Sigma float64
}

// Sample implements Distribution.
func (d Normal) Sample(rng *rand.Rand, n int) []float64 {
	norm := distuv.Normal{Mu: d.Mu, Sigma: d.Sigma, Src: rng}
	out := make([]float64, n)
	for i := range out {
		out[i] = norm.Rand()
	}
	return out
}

// LogNormal is the log-normal distribution: exp(N(Mu, Sigma)).
type LogNormal struct {
	Mu, Sigma float64
}

// Sample implements Distribution.
func (d LogNormal) Sample(rng *rand.Rand, n int) []float64 {
	ln := distuv.LogNormal{Mu: d.Mu, Sigma: d.Sigma, Src: rng}
	out := make([]float64, n)
	for i := range out {
		out[i] = ln.Rand()
	}
	return out
}

// Constant is the degenerate distribution that always returns Value.
// Useful for pinning known parameters in holdout scenarios.
type Constant struct {
	Value float64
}

// Sample implements Distribution.
func (d Constant) Sample(_ *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Value
	}
	return out
}
