package model

import (
	"bitbucket.org/dtolpin/rfm/priors"
	"bitbucket.org/dtolpin/rfm/rff"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"math"
	"testing"
)

const (
	dx  = 1e-7
	eps = 1e-4
)

// features embeds n points from [0, 4) with a seeded RBF layer.
func features(t *testing.T, n, nFeatures int, seed uint64) *mat.Dense {
	layer, err := rff.NewRBF(nFeatures, rff.WithSeed(seed))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := layer.Build(1); err != nil {
		t.Fatal(err)
	}
	X := mat.NewDense(n, 1, nil)
	for i := 0; i != n; i++ {
		X.Set(i, 0, 4*float64(i)/float64(n))
	}
	Phi, err := layer.Forward(X)
	if err != nil {
		t.Fatal(err)
	}
	return Phi
}

func TestGradient(t *testing.T) {
	for i, c := range []struct {
		x []float64
		Y []float64
	}{
		{
			x: []float64{0, 0, 0, 0, 0},
			Y: []float64{-0.3, 0.2},
		},
		{
			x: []float64{1, 1, 1, 1, 1},
			Y: []float64{-0.3, 0.3},
		},
		{
			x: []float64{-1, 0.5, -0.5, 0.1, 0.2},
			Y: []float64{-0.3, 0.2, -0.1},
		},
		{
			x: []float64{0.5, 0, 1, 0, -1},
			Y: []float64{-0.3, 0.2, -0.1, 0},
		},
	} {
		m := &Readout{
			Priors: &priors.ReadoutPriors{},
			Phi:    features(t, len(c.Y), 2, 1),
			Y:      c.Y,
		}
		if m.NParams() != len(c.x) {
			t.Fatalf("%d: NParams = %d, want %d", i, m.NParams(), len(c.x))
		}
		ll0 := m.Observe(c.x)
		grad := append([]float64(nil), m.Gradient()...)
		for j := range c.x {
			x0 := c.x[j]
			c.x[j] += dx
			ll := m.Observe(c.x)
			dldx := (ll - ll0) / dx
			c.x[j] = x0
			if math.Abs(grad[j]-dldx) > eps {
				t.Errorf("%d: dl/dx%d mismatch: got %.8f, want %.4f",
					i, j, dldx, grad[j])
			}
		}
	}
}

func TestFit(t *testing.T) {
	const (
		n         = 200
		nFeatures = 20
		noise     = 0.05
	)
	Phi := features(t, n, nFeatures, 2)

	// Targets from the model itself, with known weights.
	rng := rand.New(rand.NewSource(3))
	w := make([]float64, 2*nFeatures)
	for j := range w {
		w[j] = rng.NormFloat64()
	}
	var f mat.VecDense
	f.MulVec(Phi, mat.NewVecDense(len(w), w))
	Y := make([]float64, n)
	for i := range Y {
		Y[i] = f.AtVec(i) + noise*rng.NormFloat64()
	}

	m := &Readout{
		Priors: &priors.ReadoutPriors{},
		Phi:    Phi,
		Y:      Y,
	}
	x0 := make([]float64, m.NParams())
	x, err := Fit(m, x0, 0)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if ll, ll0 := m.Observe(x), m.Observe(x0); ll <= ll0 {
		t.Errorf("log posterior did not improve: %.4f <= %.4f", ll, ll0)
	}

	mu, sigma, err := m.Predict(x, Phi)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	sse := 0.
	for i := range Y {
		d := Y[i] - mu[i]
		sse += d * d
	}
	if rmse := math.Sqrt(sse / n); rmse > 0.2 {
		t.Errorf("training RMSE %.4f, want below 0.2", rmse)
	}
	if sigma[0] > 0.2 {
		t.Errorf("noise %.4f, want below 0.2", sigma[0])
	}

	if _, err := Fit(m, x0[1:], 0); err == nil {
		t.Errorf("fit: no error for a short parameter vector")
	}
	if _, _, err := m.Predict(x[1:], Phi); err == nil {
		t.Errorf("predict: no error for a short parameter vector")
	}
}

func TestPredictVariance(t *testing.T) {
	// One feature, so that Σ = 1/(Σφ²/σ² + 1/s²) in closed form.
	for i, c := range []struct {
		phi   []float64
		x     []float64
		wstd  float64
		query float64
	}{
		{
			phi:   []float64{1, 0.5, -0.2},
			x:     []float64{0, 0.3},
			wstd:  1,
			query: 0.8,
		},
		{
			phi:   []float64{0.1, 0.2},
			x:     []float64{-1, 1},
			wstd:  2,
			query: -1.5,
		},
		{
			phi:   []float64{0, 0},
			x:     []float64{math.Log(0.5), 0},
			wstd:  0.3,
			query: 1,
		},
	} {
		m := &Readout{
			Priors: &priors.ReadoutPriors{WeightStd: c.wstd},
			Phi:    mat.NewDense(len(c.phi), 1, c.phi),
			Y:      make([]float64, len(c.phi)),
		}
		noise := math.Exp(c.x[0])
		ss := 0.
		for _, v := range c.phi {
			ss += v * v
		}
		post := 1 / (ss/(noise*noise) + 1/(c.wstd*c.wstd))
		wantMu := c.query * c.x[1]
		wantSigma := math.Sqrt(noise*noise + c.query*c.query*post)

		mu, sigma, err := m.Predict(c.x, mat.NewDense(1, 1, []float64{c.query}))
		if err != nil {
			t.Fatalf("%d: predict: %v", i, err)
		}
		if math.Abs(mu[0]-wantMu) > 1e-12 {
			t.Errorf("%d: mean %.8f, want %.8f", i, mu[0], wantMu)
		}
		if math.Abs(sigma[0]-wantSigma) > 1e-9 {
			t.Errorf("%d: std %.8f, want %.8f", i, sigma[0], wantSigma)
		}
	}
}

func TestPredictVarianceShrinks(t *testing.T) {
	// The weight spread vanishes with data: the predictive std
	// is above the noise and approaches it as n grows.
	x := make([]float64, 1+4)
	x[0] = math.Log(0.1)
	query := features(t, 1, 2, 5)
	prev := math.Inf(1)
	for _, n := range []int{5, 50, 500} {
		m := &Readout{
			Priors: &priors.ReadoutPriors{},
			Phi:    features(t, n, 2, 5),
			Y:      make([]float64, n),
		}
		_, sigma, err := m.Predict(x, query)
		if err != nil {
			t.Fatalf("n=%d: predict: %v", n, err)
		}
		if sigma[0] < 0.1 {
			t.Errorf("n=%d: std %.6f below the noise", n, sigma[0])
		}
		if sigma[0] > prev {
			t.Errorf("n=%d: std %.6f grew from %.6f", n, sigma[0], prev)
		}
		prev = sigma[0]
	}
}
