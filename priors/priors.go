package priors

import (
	. "bitbucket.org/dtolpin/infergo/dist"
	"bitbucket.org/dtolpin/infergo/model"
)

// Priors own the leading NTheta parameters of a readout and
// put a prior on all of them, and on the weights that follow.
// The weights are a priori independent zero-mean normals with
// standard deviation WeightStdDev.
type Priors interface {
	model.Model
	NTheta() int
	WeightStdDev() float64
}

// ReadoutPriors over x = [log noise, w_1, ..., w_m].
type ReadoutPriors struct {
	// Standard deviation of the weights, 1 when zero.
	WeightStd float64
	grad      []float64
}

func (m *ReadoutPriors) NTheta() int {
	return 1
}

func (m *ReadoutPriors) WeightStdDev() float64 {
	if m.WeightStd == 0 {
		return 1
	}
	return m.WeightStd
}

func (m *ReadoutPriors) Observe(x []float64) float64 {
	const (
		s  = iota // log noise
		w0        // first weight
	)

	std := m.WeightStdDev()

	ll := 0.
	m.grad = make([]float64, len(x))

	// Targets are standardised, noise is a fraction of their
	// spread.
	ll += Normal.Logp(-1, 1, x[s])
	m.grad[s] = -(x[s] + 1)

	// With random features, each weight is a coefficient of
	// the approximate GP prior f(x) = φ(x)·w.
	ll += Normal.Logps(0, std, x[w0:]...)
	for i := w0; i != len(x); i++ {
		m.grad[i] = -x[i] / (std * std)
	}

	return ll
}

func (m *ReadoutPriors) Gradient() []float64 {
	return m.grad
}
