// Package model is a linear readout on top of random features:
// y = φ(x)·w + ε, ε ~ N(0, σ²). Together with its priors this is
// Bayesian linear regression in feature space, the weight-space view
// of an approximate Gaussian process.
package model

import (
	"bitbucket.org/dtolpin/infergo/infer"
	"bitbucket.org/dtolpin/infergo/model"
	. "bitbucket.org/dtolpin/infergo/dist"
	"bitbucket.org/dtolpin/rfm/priors"
	"errors"
	"fmt"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"math"
)

// Readout is the log posterior of the readout parameters
// x = [theta..., w_1, ..., w_m] given the features Phi (n × m) and
// the targets Y. theta are the parameters owned by Priors; the first
// of them is the log noise.
type Readout struct {
	Priors priors.Priors
	Phi    *mat.Dense
	Y      []float64
	grad   []float64
}

// NParams is the length of the parameter vector.
func (m *Readout) NParams() int {
	_, nw := m.Phi.Dims()
	return m.Priors.NTheta() + nw
}

func (m *Readout) Observe(x []float64) float64 {
	const (
		s = iota // log noise
	)

	llPriors, gPriors := m.Priors.Observe(x), model.Gradient(m.Priors)

	m.grad = make([]float64, len(x))
	copy(m.grad, gPriors)

	k := m.Priors.NTheta()
	noise := math.Exp(x[s])
	w := mat.NewVecDense(len(x)-k, x[k:])
	var f mat.VecDense
	f.MulVec(m.Phi, w)

	// Residuals scaled by the noise variance, for the gradient.
	r := mat.NewVecDense(len(m.Y), nil)
	ll := llPriors
	for i, y := range m.Y {
		fi := f.AtVec(i)
		ll += Normal.Logp(fi, noise, y)
		d := y - fi
		m.grad[s] += d*d/(noise*noise) - 1
		r.SetVec(i, d/(noise*noise))
	}

	gw := mat.NewVecDense(len(x)-k, m.grad[k:])
	gw.MulVec(m.Phi.T(), r)
	for j := range m.grad[k:] {
		m.grad[k+j] += gPriors[k+j]
	}

	return ll
}

func (m *Readout) Gradient() []float64 {
	return m.grad
}

// Predict returns the predictive mean and standard deviation for
// the features Phi under the parameters x. The mean is φ·w; the
// variance is σ² + φᵀΣφ, where Σ = (ΦᵀΦ/σ² + I/s²)⁻¹ is the
// posterior covariance of the weights given the training features,
// σ the noise and s the prior standard deviation of the weights.
func (m *Readout) Predict(x []float64, Phi mat.Matrix) (mu, sigma []float64, err error) {
	k := m.Priors.NTheta()
	n, nw := Phi.Dims()
	if _, mw := m.Phi.Dims(); nw != len(x)-k || nw != mw {
		return nil, nil, fmt.Errorf("readout: %d features, want %d", nw, len(x)-k)
	}
	var f mat.VecDense
	f.MulVec(Phi, mat.NewVecDense(nw, x[k:]))

	Sigma, err := m.posteriorCov(x)
	if err != nil {
		return nil, nil, err
	}

	mu = make([]float64, n)
	sigma = make([]float64, n)
	noise := math.Exp(x[0])
	phi := mat.NewVecDense(nw, nil)
	for i := range mu {
		mu[i] = f.AtVec(i)
		mat.Row(phi.RawVector().Data, i, Phi)
		sigma[i] = math.Sqrt(noise*noise + mat.Inner(phi, Sigma, phi))
	}
	return mu, sigma, nil
}

// posteriorCov is the posterior covariance of the weights,
// (ΦᵀΦ/σ² + I/s²)⁻¹.
func (m *Readout) posteriorCov(x []float64) (*mat.SymDense, error) {
	noise := math.Exp(x[0])
	s := m.Priors.WeightStdDev()

	var A mat.SymDense
	A.SymOuterK(1/(noise*noise), m.Phi.T())
	_, nw := m.Phi.Dims()
	for j := 0; j != nw; j++ {
		A.SetSym(j, j, A.At(j, j)+1/(s*s))
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(&A); !ok {
		return nil, errors.New("readout: posterior precision is not positive definite")
	}
	var Sigma mat.SymDense
	if err := chol.InverseTo(&Sigma); err != nil {
		// An ill-conditioned inverse is still returned.
		if _, ok := err.(mat.Condition); !ok {
			return nil, fmt.Errorf("readout: posterior covariance: %v", err)
		}
	}
	return &Sigma, nil
}

// Fit maximises the log posterior starting from x0, for at most
// iterations major iterations when iterations is positive.
func Fit(m *Readout, x0 []float64, iterations int) ([]float64, error) {
	if len(x0) != m.NParams() {
		return nil, fmt.Errorf("readout: %d parameters, want %d", len(x0), m.NParams())
	}
	Func, Grad := infer.FuncGrad(m)
	p := optimize.Problem{Func: Func, Grad: Grad}
	result, err := optimize.Minimize(
		p, x0, &optimize.Settings{
			MajorIterations:   iterations,
			GradientThreshold: 1e-6,
		}, nil)
	if result == nil {
		if err == nil {
			err = errors.New("readout: no result")
		}
		return nil, err
	}
	// A few iterations bring most of the improvement, an error
	// matters only when the optimizer stopped right away.
	if err != nil && result.Stats.MajorIterations <= 1 {
		return result.X, fmt.Errorf("readout: %v", err)
	}
	model.DropGradient(m)
	return result.X, nil
}
