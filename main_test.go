package main

import (
	"bitbucket.org/dtolpin/rfm/kernel"
	"gonum.org/v1/gonum/stat"
	"math"
	"testing"
)

func TestStandardize(t *testing.T) {
	X := [][]float64{
		{1, 10, 5},
		{2, 20, 5},
		{3, 30, 5},
		{100, -7, 1},
	}
	Xn := standardize(X, 3)

	col := make([]float64, 3)
	for j := 0; j != 2; j++ {
		for i := range col {
			col[i] = Xn[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if math.Abs(mean) > 1e-12 || math.Abs(std-1) > 1e-12 {
			t.Errorf("column %d: mean %.6f, std %.6f, want 0 and 1",
				j, mean, std)
		}
	}
	// Constant column is centred only.
	if Xn[0][2] != 0 || Xn[3][2] != -4 {
		t.Errorf("constant column: got %v, %v, want 0, -4",
			Xn[0][2], Xn[3][2])
	}
	// Held-out rows use the training statistics.
	if got, want := Xn[3][0], 98.; math.Abs(got-want) > 1e-12 {
		t.Errorf("held-out row: got %.6f, want %.6f", got, want)
	}
	if X[0][0] != 1 {
		t.Errorf("input modified")
	}
}

func TestExactKernelGradient(t *testing.T) {
	const (
		dx  = 1e-6
		eps = 1e-6
	)
	for i, c := range []struct {
		k *exactKernel
		x []float64
	}{
		{
			k: &exactKernel{Sampler: kernel.RBF, NDim: 1},
			x: []float64{0.3, -0.4},
		},
		{
			k: &exactKernel{Sampler: kernel.Matern32, NDim: 2, LengthScale: 0.5},
			x: []float64{0, 1, 0.5, 0.2},
		},
		{
			k: &exactKernel{Sampler: kernel.Matern52, NDim: 2, LengthScale: 2},
			x: []float64{1, -1, -0.5, 0.7},
		},
	} {
		c.k.Observe(c.x)
		grad := append([]float64(nil), c.k.Gradient()...)
		for j := range c.x {
			x0 := c.x[j]
			c.x[j] = x0 + dx
			kp := c.k.Observe(c.x)
			c.x[j] = x0 - dx
			km := c.k.Observe(c.x)
			c.x[j] = x0
			dkdx := (kp - km) / (2 * dx)
			if math.Abs(grad[j]-dkdx) > eps {
				t.Errorf("%d: dk/dx%d mismatch: got %.8f, want %.8f",
					i, j, grad[j], dkdx)
			}
		}
	}

	k := &exactKernel{Sampler: kernel.Matern52, NDim: 1}
	if v := k.Observe([]float64{0.2, 0.2}); v != 1 {
		t.Errorf("k(x, x) = %v, want 1", v)
	}
	for j, g := range k.Gradient() {
		if g != 0 {
			t.Errorf("gradient at r=0: dk/dx%d = %v, want 0", j, g)
		}
	}
}
