package main

import (
	"bitbucket.org/dtolpin/rfm/kernel"
	"gonum.org/v1/gonum/floats"
)

// exactKernel is the similarity kernel of the exact GP over
// x = [xa..., xb...], k(|xa - xb|/l). The GP differentiates it
// with respect to the inputs when absorbing observations.
type exactKernel struct {
	kernel.Sampler
	NDim        int
	LengthScale float64
	grad        []float64
}

func (k *exactKernel) Observe(x []float64) float64 {
	xa, xb := x[:k.NDim], x[k.NDim:]
	r := floats.Distance(xa, xb, 2)
	l := k.LengthScale
	if l == 0 {
		l = 1
	}

	k.grad = make([]float64, 2*k.NDim)
	if r > 0 {
		// dk/dxa = k'(r/l)/l · (xa - xb)/r, dk/dxb = -dk/dxa
		c := k.DCov(r/l) / (l * r)
		for i := range xa {
			k.grad[i] = c * (xa[i] - xb[i])
			k.grad[k.NDim+i] = -k.grad[i]
		}
	}
	return k.Cov(r / l)
}

func (k *exactKernel) Gradient() []float64 {
	return k.grad
}

func (*exactKernel) NTheta() int { return 0 }
