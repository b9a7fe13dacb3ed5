package main

import (
	"bitbucket.org/dtolpin/rfm/kernel"
	"bitbucket.org/dtolpin/rfm/rff"
	"flag"
	"fmt"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"os"
	"time"
)

var (
	KERNEL    = "matern52"
	N         = 100
	NFEATURES = 1000
	STEP      = 0.1
	NOISE     = 0.1
	SEED      = 0
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			`Generate test data from the approximate GP prior
f(x) = φ(x)·w, w ~ N(0, I), plus noise. Invocation:
	%s  [OPTIONS] > OUTPUT
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.StringVar(&KERNEL, "kernel", KERNEL, "kernel: rbf, matern32 or matern52")
	flag.IntVar(&N, "n", N, "number of points")
	flag.IntVar(&NFEATURES, "features", NFEATURES, "number of random features")
	flag.Float64Var(&STEP, "step", STEP, "distance between inputs")
	flag.Float64Var(&NOISE, "noise", NOISE, "observation noise")
	flag.IntVar(&SEED, "seed", SEED, "random seed, from the clock when 0")
}

func main() {
	flag.Parse()

	seed := uint64(SEED)
	if seed == 0 {
		seed = uint64(time.Now().UTC().UnixNano())
	}
	rng := rand.New(rand.NewSource(seed))

	sampler, err := kernel.Lookup(KERNEL)
	if err != nil {
		panic(err)
	}
	layer, err := rff.New(sampler, NFEATURES, rff.WithSeed(rng.Uint64()))
	if err != nil {
		panic(err)
	}
	if _, err := layer.Build(1); err != nil {
		panic(err)
	}

	X := mat.NewDense(N, 1, nil)
	for i := 0; i != N; i++ {
		X.Set(i, 0, float64(i)*STEP)
	}
	Phi, err := layer.Forward(X)
	if err != nil {
		panic(fmt.Errorf("forward: %v", err))
	}

	w := mat.NewVecDense(layer.OutputDim(), nil)
	for j := 0; j != layer.OutputDim(); j++ {
		w.SetVec(j, rng.NormFloat64())
	}
	var f mat.VecDense
	f.MulVec(Phi, w)

	for i := 0; i != N; i++ {
		y := f.AtVec(i) + NOISE*rng.NormFloat64()
		fmt.Printf("%f,%f\n", X.At(i, 0), y)
	}
}
