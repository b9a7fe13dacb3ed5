// Package rff implements random Fourier feature layers. A layer
// embeds inputs into 2·n trigonometric features whose inner product
// approximates a stationary kernel chosen from package kernel.
//
// A layer is constructed with the number of features, built once the
// input dimension is known (this draws the projection), and then
// applied to input batches. Forward is a pure function of the batch
// and the projection and may be called concurrently; Build is not
// synchronised with other calls on the same layer.
package rff

import (
	"bitbucket.org/dtolpin/rfm/kernel"
	"errors"
	"fmt"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"math"
	"time"
)

// Layer is the contract between a layer and the code composing
// layers into a model: dimension bookkeeping, build, and forward.
// The composer calls Build before Forward.
type Layer interface {
	Name() string
	InputDim() int
	OutputDim() int
	Build(inputDim int) (Layer, error)
	Forward(X mat.Matrix) (*mat.Dense, error)
}

// RandomFeatures is the random feature layer of a kernel family.
type RandomFeatures struct {
	sampler   kernel.Sampler
	nFeatures int
	inputDim  int
	name      string
	scale     float64 // length scale
	src       rand.Source
	p         *mat.Dense // inputDim × nFeatures, nil until built
}

// Option configures a layer at construction.
type Option func(*RandomFeatures)

// WithInputDim sets the input dimension ahead of Build.
func WithInputDim(inputDim int) Option {
	return func(r *RandomFeatures) {
		r.inputDim = inputDim
	}
}

// WithName sets the name used in diagnostics.
func WithName(name string) Option {
	return func(r *RandomFeatures) {
		r.name = name
	}
}

// WithLengthScale sets the length scale of the kernel; inputs are
// divided by it before the projection. The default is 1.
func WithLengthScale(scale float64) Option {
	return func(r *RandomFeatures) {
		r.scale = scale
	}
}

// WithSeed seeds the layer's private random source.
func WithSeed(seed uint64) Option {
	return func(r *RandomFeatures) {
		r.src = rand.NewSource(seed)
	}
}

// WithSource makes the layer draw from src. The source must not be
// shared with concurrently building layers.
func WithSource(src rand.Source) Option {
	return func(r *RandomFeatures) {
		r.src = src
	}
}

// New constructs a layer with nFeatures random frequencies drawn by
// sampler. The layer must be built before use.
func New(sampler kernel.Sampler, nFeatures int, opts ...Option) (*RandomFeatures, error) {
	if sampler == nil {
		return nil, errors.New("rff: nil kernel sampler")
	}
	if nFeatures < 1 {
		return nil, fmt.Errorf("rff: %d features, want at least one", nFeatures)
	}
	r := &RandomFeatures{
		sampler:   sampler,
		nFeatures: nFeatures,
		name:      sampler.String(),
		scale:     1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if !(r.scale > 0) || math.IsInf(r.scale, 1) {
		return nil, fmt.Errorf("rff: length scale %g, want positive", r.scale)
	}
	if r.src == nil {
		r.src = rand.NewSource(uint64(time.Now().UnixNano()))
	}
	return r, nil
}

// NewRBF constructs a layer approximating the RBF kernel.
func NewRBF(nFeatures int, opts ...Option) (*RandomFeatures, error) {
	return New(kernel.RBF, nFeatures, opts...)
}

// NewMatern32 constructs a layer approximating the Matérn-3/2 kernel.
func NewMatern32(nFeatures int, opts ...Option) (*RandomFeatures, error) {
	return New(kernel.Matern32, nFeatures, opts...)
}

// NewMatern52 constructs a layer approximating the Matérn-5/2 kernel.
func NewMatern52(nFeatures int, opts ...Option) (*RandomFeatures, error) {
	return New(kernel.Matern52, nFeatures, opts...)
}

func (r *RandomFeatures) Name() string { return r.name }

func (r *RandomFeatures) String() string { return r.name }

func (r *RandomFeatures) InputDim() int { return r.inputDim }

func (r *RandomFeatures) OutputDim() int { return 2 * r.nFeatures }

func (r *RandomFeatures) NFeatures() int { return r.nFeatures }

func (r *RandomFeatures) Kernel() kernel.Sampler { return r.sampler }

func (r *RandomFeatures) LengthScale() float64 { return r.scale }

// Built reports whether the projection has been drawn.
func (r *RandomFeatures) Built() bool { return r.p != nil }

// Build resolves the input dimension and draws a fresh projection,
// discarding the previous one. A non-positive inputDim keeps the
// dimension given earlier.
func (r *RandomFeatures) Build(inputDim int) (Layer, error) {
	if inputDim > 0 {
		r.inputDim = inputDim
	}
	if r.inputDim <= 0 {
		return nil, fmt.Errorf("%s: build: %w", r, ErrConfiguration)
	}
	P := r.sampler.Sample(r.inputDim, r.nFeatures, r.src)
	// The projection is kept in single precision.
	P.Apply(func(_, _ int, v float64) float64 {
		return float64(float32(v))
	}, P)
	r.p = P
	return r, nil
}

// Projection returns a copy of the projection, or nil before Build.
func (r *RandomFeatures) Projection() *mat.Dense {
	if r.p == nil {
		return nil
	}
	return mat.DenseCopyOf(r.p)
}

// scaled divides X by the length scale.
func (r *RandomFeatures) scaled(X mat.Matrix) mat.Matrix {
	if r.scale == 1 {
		return X
	}
	var Xs mat.Dense
	Xs.Scale(1/r.scale, X)
	return &Xs
}

// Forward embeds the batch X, one input per row.
func (r *RandomFeatures) Forward(X mat.Matrix) (*mat.Dense, error) {
	if r.p == nil {
		return nil, fmt.Errorf("%s: forward: %w", r, ErrConfiguration)
	}
	Phi, err := Transform(r.scaled(X), r.p)
	if err != nil {
		return nil, fmt.Errorf("%s: forward: %w", r, err)
	}
	return Phi, nil
}

// Gradient returns dL/dX given G = dL/dPhi for the batch X.
func (r *RandomFeatures) Gradient(X, G mat.Matrix) (*mat.Dense, error) {
	if r.p == nil {
		return nil, fmt.Errorf("%s: gradient: %w", r, ErrConfiguration)
	}
	dX, err := TransformGradient(r.scaled(X), r.p, G)
	if err != nil {
		return nil, fmt.Errorf("%s: gradient: %w", r, err)
	}
	if r.scale != 1 {
		dX.Scale(1/r.scale, dX)
	}
	return dX, nil
}

// Approx returns the approximate kernel value φ(xa)·φ(xb).
func (r *RandomFeatures) Approx(xa, xb []float64) (float64, error) {
	if r.p == nil {
		return 0, fmt.Errorf("%s: approx: %w", r, ErrConfiguration)
	}
	inputDim, _ := r.p.Dims()
	for _, x := range [][]float64{xa, xb} {
		if len(x) != inputDim {
			return 0, &ShapeMismatchError{
				Rows: 1, Cols: len(x),
				WantCols: inputDim,
			}
		}
	}
	X := mat.NewDense(2, inputDim, nil)
	X.SetRow(0, xa)
	X.SetRow(1, xb)
	Phi, err := r.Forward(X)
	if err != nil {
		return 0, err
	}
	return floats.Dot(Phi.RawRowView(0), Phi.RawRowView(1)), nil
}

// Exact returns the kernel value that Approx approximates.
// It panics if xa and xb differ in length.
func (r *RandomFeatures) Exact(xa, xb []float64) float64 {
	return r.sampler.Cov(floats.Distance(xa, xb, 2) / r.scale)
}
