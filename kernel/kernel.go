// Package kernel provides random feature weight samplers for
// stationary kernels. A sampler draws projection frequencies from the
// spectral density of its kernel, so that trigonometric features of
// the projected inputs approximate the kernel (Bochner's theorem).
// All kernels have unit length scale and unit variance.
package kernel

import (
	gpkernel "bitbucket.org/dtolpin/gogp/kernel"
	"fmt"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	"math"
	"strings"
)

// Sampler draws an inputDim × nFeatures projection matrix from
// the spectral density of a kernel family.
type Sampler interface {
	// Sample panics if either dimension is not positive.
	Sample(inputDim, nFeatures int, src rand.Source) *mat.Dense
	// Cov is the exact kernel value at Euclidean distance r.
	Cov(r float64) float64
	// DCov is the derivative of Cov with respect to r.
	DCov(r float64) float64
	String() string
}

// The RBF (squared exponential) kernel.
type rbf struct{}

var RBF rbf

func (rbf) Sample(inputDim, nFeatures int, src rand.Source) *mat.Dense {
	return SampleRBF(inputDim, nFeatures, src)
}

func (rbf) Cov(r float64) float64 {
	return gpkernel.Normal.Cov(1, r, 0)
}

func (rbf) DCov(r float64) float64 {
	return -r * gpkernel.Normal.Cov(1, r, 0)
}

func (rbf) String() string { return "rbf" }

// The Matérn kernel of order ν = p + 0.5.
type matern struct {
	p float64
}

var (
	Matern32 = matern{p: 1}
	Matern52 = matern{p: 2}
)

// Matern returns the Matérn sampler of smoothness order p.
// Only p = 1 (Matérn-3/2) and p = 2 (Matérn-5/2) are supported.
func Matern(p float64) (Sampler, error) {
	switch p {
	case Matern32.p:
		return Matern32, nil
	case Matern52.p:
		return Matern52, nil
	default:
		return nil, &UnsupportedKernelError{P: p}
	}
}

func (k matern) Sample(inputDim, nFeatures int, src rand.Source) *mat.Dense {
	return SampleMatern(inputDim, nFeatures, k.p, src)
}

func (k matern) Cov(r float64) float64 {
	switch k.p {
	case 1:
		return gpkernel.Matern32.Cov(1, r, 0)
	case 2:
		// gogp's Matern52 evaluates 5/3 in integers, dropping the r² weight.
		d := math.Sqrt(5) * r
		return (1 + d + d*d/3) * math.Exp(-d)
	}
	panic(&UnsupportedKernelError{P: k.p})
}

func (k matern) DCov(r float64) float64 {
	switch k.p {
	case 1:
		d := math.Sqrt(3) * r
		return -3 * r * math.Exp(-d)
	case 2:
		d := math.Sqrt(5) * r
		return -5. / 3 * r * (1 + d) * math.Exp(-d)
	}
	panic(&UnsupportedKernelError{P: k.p})
}

// P returns the smoothness order.
func (k matern) P() float64 { return k.p }

func (k matern) String() string {
	return fmt.Sprintf("matern%d2", int(2*k.p+1))
}

// Lookup returns the sampler by name: rbf, matern32 or matern52.
func Lookup(name string) (Sampler, error) {
	for _, k := range []Sampler{RBF, Matern32, Matern52} {
		if strings.EqualFold(name, k.String()) {
			return k, nil
		}
	}
	return nil, &UnsupportedKernelError{Name: name}
}

// DegreesOfFreedom of the Student-t spectral density of the Matérn
// kernel of order p, 2ν = 2(p + 0.5).
func DegreesOfFreedom(p float64) float64 {
	return 2 * (p + 0.5)
}

// SampleRBF draws every entry from the standard normal distribution,
// the spectral density of the RBF kernel.
func SampleRBF(inputDim, nFeatures int, src rand.Source) *mat.Dense {
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	P := mat.NewDense(inputDim, nFeatures, nil)
	for i := 0; i != inputDim; i++ {
		for j := 0; j != nFeatures; j++ {
			P.Set(i, j, norm.Rand())
		}
	}
	return P
}

// SampleMatern draws columns from the multivariate Student-t
// distribution with DegreesOfFreedom(p) degrees of freedom:
// x = y·sqrt(df/u), y ~ N(0, I), u ~ χ²(df), one u per column.
func SampleMatern(inputDim, nFeatures int, p float64, src rand.Source) *mat.Dense {
	df := DegreesOfFreedom(p)
	P := SampleRBF(inputDim, nFeatures, src)
	chi2 := distuv.ChiSquared{K: df, Src: src}
	for j := 0; j != nFeatures; j++ {
		s := math.Sqrt(df / chi2.Rand())
		for i := 0; i != inputDim; i++ {
			P.Set(i, j, s*P.At(i, j))
		}
	}
	return P
}
