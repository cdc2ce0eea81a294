package synth

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/krego/pkg/errors"
)

// SignalModel is a forward model mapping latent parameters (and optional
// known parameters) to one observed signal value. Real-valued models
// contribute one feature row; complex-valued models contribute two rows,
// the real channel followed by the imaginary channel.
type SignalModel struct {
	// F evaluates the model for one sample. latent has one entry per
	// latent dimension and known one entry per known dimension (empty
	// slice when no known parameters are configured).
	F func(latent, known []float64) complex128

	// Complex marks the model output as complex-valued, producing two
	// feature rows instead of one.
	Complex bool
}

// DataSet is one synthetic draw: latent parameters X [L,n], optional known
// parameters Nu [K,n] (nil when no known distributions were supplied), and
// observed features Y [Q,n], where Q counts one row per real model output
// and two per complex output.
type DataSet struct {
	X  *mat.Dense
	Nu *mat.Dense
	Y  *mat.Dense
}

// N returns the number of samples.
func (d *DataSet) N() int {
	_, n := d.X.Dims()
	return n
}

// L returns the number of latent parameter dimensions.
func (d *DataSet) L() int {
	l, _ := d.X.Dims()
	return l
}

// K returns the number of known parameter dimensions, 0 when none.
func (d *DataSet) K() int {
	if d.Nu == nil {
		return 0
	}
	k, _ := d.Nu.Dims()
	return k
}

// Q returns the number of feature dimensions.
func (d *DataSet) Q() int {
	q, _ := d.Y.Dims()
	return q
}

// FeatureRows returns the number of feature rows the models produce:
// one per real-valued model, two per complex-valued model.
func FeatureRows(models []SignalModel) int {
	q := 0
	for _, m := range models {
		if m.Complex {
			q += 2
		} else {
			q++
		}
	}
	return q
}

// Generate draws n samples. Latent (and known) parameters are sampled per
// dimension from their distributions, each model is evaluated per sample
// and stacked along the feature axis, and noise is added independently per
// channel; the real and imaginary channels of a complex model receive
// independent draws. A nil noise distribution produces noiseless signals.
func Generate(rng *rand.Rand, n int, latentDists, knownDists []Distribution, noise Distribution, models []SignalModel) (*DataSet, error) {
	const op = "synth.Generate"
	if rng == nil {
		return nil, errors.NewValueError(op, "rng must not be nil")
	}
	if n < 1 {
		return nil, errors.NewValidationError("n", "must be at least 1", n)
	}
	if len(latentDists) == 0 {
		return nil, errors.NewValueError(op, "at least one latent distribution is required")
	}
	if len(models) == 0 {
		return nil, errors.NewValueError(op, "at least one signal model is required")
	}

	l := len(latentDists)
	k := len(knownDists)

	x := mat.NewDense(l, n, nil)
	for d, dist := range latentDists {
		x.SetRow(d, dist.Sample(rng, n))
	}

	var nu *mat.Dense
	if k > 0 {
		nu = mat.NewDense(k, n, nil)
		for d, dist := range knownDists {
			nu.SetRow(d, dist.Sample(rng, n))
		}
	}

	q := FeatureRows(models)
	y := mat.NewDense(q, n, nil)

	latent := make([]float64, l)
	known := make([]float64, k)
	for t := 0; t < n; t++ {
		for d := 0; d < l; d++ {
			latent[d] = x.At(d, t)
		}
		for d := 0; d < k; d++ {
			known[d] = nu.At(d, t)
		}

		row := 0
		for _, m := range models {
			v := m.F(latent, known)
			y.Set(row, t, real(v))
			row++
			if m.Complex {
				y.Set(row, t, imag(v))
				row++
			}
		}
	}

	if noise != nil {
		for row := 0; row < q; row++ {
			draws := noise.Sample(rng, n)
			for t := 0; t < n; t++ {
				y.Set(row, t, y.At(row, t)+draws[t])
			}
		}
	}

	if err := errors.CheckMatrix(op, y, q, n); err != nil {
		return nil, err
	}

	return &DataSet{X: x, Nu: nu, Y: y}, nil
}
