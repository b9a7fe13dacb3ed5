package main

import (
	"bitbucket.org/dtolpin/gogp/gp"
	adkernel "bitbucket.org/dtolpin/gogp/kernel/ad"
	"bitbucket.org/dtolpin/rfm/kernel"
	"bitbucket.org/dtolpin/rfm/model"
	"bitbucket.org/dtolpin/rfm/priors"
	"bitbucket.org/dtolpin/rfm/rff"
	"encoding/csv"
	"flag"
	"fmt"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var (
	KERNEL    = "matern52"
	NFEATURES = 500
	NTRAIN    = 0
	SEED      = 0
	ITER      = 0
	WSTD      = 1.
	EXACT     = false
	NOISE     = 0.01
	LENSCALE  = 1.
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			`Regression on random Fourier features. Invocation:
  %s [OPTIONS] < INPUT > OUTPUT
or
  %s [OPTIONS] selfcheck
The first NTRAIN rows of INPUT are used for training, the rest
are forecast. In 'selfcheck' mode, the data hard-coded into the
program is used, to demonstrate basic functionality.
`, os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}
	flag.StringVar(&KERNEL, "kernel", KERNEL, "kernel: rbf, matern32 or matern52")
	flag.IntVar(&NFEATURES, "features", NFEATURES, "number of random features")
	flag.IntVar(&NTRAIN, "train", NTRAIN,
		"number of training rows, three quarters when 0")
	flag.IntVar(&SEED, "seed", SEED, "random seed, from the clock when 0")
	flag.IntVar(&ITER, "iter", ITER, "optimizer iterations, unlimited when 0")
	flag.Float64Var(&WSTD, "wstd", WSTD, "prior standard deviation of weights")
	flag.BoolVar(&EXACT, "exact", EXACT, "forecast with the exact GP")
	flag.Float64Var(&NOISE, "noise", NOISE, "noise of the exact GP")
	flag.Float64Var(&LENSCALE, "lenscale", LENSCALE,
		"kernel length scale, in standardised inputs")
}

func main() {
	var (
		input  io.Reader = os.Stdin
		output io.Writer = os.Stdout
	)

	flag.Parse()
	selfcheck := false
	switch {
	case flag.NArg() == 0:
	case flag.NArg() == 1 && flag.Arg(0) == "selfcheck":
		input = strings.NewReader(selfCheckData)
		selfcheck = true
	default:
		panic("usage")
	}

	sampler, err := kernel.Lookup(KERNEL)
	if err != nil {
		panic(err)
	}

	// Load the data
	fmt.Fprint(os.Stderr, "loading...")
	X, Y, err := load(input)
	if err != nil {
		panic(err)
	}
	fmt.Fprintln(os.Stderr, "done")
	if len(X) < 2 {
		panic(fmt.Sprintf("%d rows, need at least 2", len(X)))
	}
	ndim := len(X[0])

	ntrain := NTRAIN
	if ntrain <= 0 {
		ntrain = 3 * len(X) / 4
	}
	if ntrain >= len(X) {
		panic(fmt.Sprintf("%d training rows out of %d", ntrain, len(X)))
	}

	// Standardize inputs and normalize Y by the training rows
	Xn := standardize(X, ntrain)
	meany, stdy := stat.MeanStdDev(Y[:ntrain], nil)
	Yn := make([]float64, len(Y))
	for i := range Y {
		Yn[i] = (Y[i] - meany) / stdy
	}

	var mu, sigma []float64
	if EXACT {
		fmt.Fprint(os.Stderr, "forecasting with the exact GP...")
		g := &gp.GP{
			NDim:  ndim,
			Simil: &exactKernel{
				Sampler:     sampler,
				NDim:        ndim,
				LengthScale: LENSCALE,
			},
			Noise: adkernel.ConstantNoise(NOISE),
		}
		if err := g.Absorb(Xn[:ntrain], Yn[:ntrain]); err != nil {
			panic(fmt.Errorf("absorb: %v", err))
		}
		mu, sigma, err = g.Produce(Xn[ntrain:])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to forecast: %v\n", err)
		}
		fmt.Fprintln(os.Stderr, "done")
	} else {
		opts := []rff.Option{
			rff.WithName("features"),
			rff.WithLengthScale(LENSCALE),
		}
		if SEED != 0 {
			opts = append(opts, rff.WithSeed(uint64(SEED)))
		}
		layer, err := rff.New(sampler, NFEATURES, opts...)
		if err != nil {
			panic(err)
		}
		if _, err := layer.Build(ndim); err != nil {
			panic(err)
		}
		if selfcheck {
			fmt.Fprintf(os.Stderr, "worst kernel approximation error: %.4f\n",
				gramError(layer, Xn[:ntrain]))
		}

		Phi, err := layer.Forward(dense(Xn[:ntrain]))
		if err != nil {
			panic(err)
		}
		m := &model.Readout{
			Priors: &priors.ReadoutPriors{WeightStd: WSTD},
			Phi:    Phi,
			Y:      Yn[:ntrain],
		}
		x := make([]float64, m.NParams())
		lml0 := m.Observe(x)
		fmt.Fprint(os.Stderr, "fitting...")
		x, err = model.Fit(m, x, ITER)
		if err != nil {
			// There was a problem and the optimizer stopped
			// on first iteration.
			fmt.Fprintf(os.Stderr, "Failed to optimize: %v\n", err)
			if x == nil {
				os.Exit(1)
			}
		}
		lml := m.Observe(x)
		fmt.Fprintf(os.Stderr, "done: log posterior %.4f -> %.4f, noise %.4f\n",
			lml0, lml, math.Exp(x[0]))

		Phi, err = layer.Forward(dense(Xn[ntrain:]))
		if err != nil {
			panic(err)
		}
		mu, sigma, err = m.Predict(x, Phi)
		if err != nil {
			panic(err)
		}
	}

	// Output forecasts in the original scale
	for i := range mu {
		z := X[ntrain+i]
		for j := range z {
			fmt.Fprintf(output, "%f,", z[j])
		}
		fmt.Fprintf(output, "%f,%f,%f\n",
			Y[ntrain+i], mu[i]*stdy+meany, sigma[i]*stdy)
	}
}

// dense packs rows into a matrix.
func dense(rows [][]float64) *mat.Dense {
	X := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		X.SetRow(i, row)
	}
	return X
}

// standardize scales each column of X to zero mean and unit
// standard deviation of its first ntrain rows. Constant columns
// are only centred.
func standardize(X [][]float64, ntrain int) [][]float64 {
	ndim := len(X[0])
	mean := make([]float64, ndim)
	std := make([]float64, ndim)
	col := make([]float64, ntrain)
	for j := 0; j != ndim; j++ {
		for i := range col {
			col[i] = X[i][j]
		}
		mean[j], std[j] = stat.MeanStdDev(col, nil)
		if !(std[j] > 0) {
			std[j] = 1
		}
	}

	Xn := make([][]float64, len(X))
	for i, x := range X {
		Xn[i] = make([]float64, ndim)
		for j := range x {
			Xn[i][j] = (x[j] - mean[j]) / std[j]
		}
	}
	return Xn
}

// gramError is the largest absolute difference between the exact
// and the approximate kernel over all pairs of rows.
func gramError(layer *rff.RandomFeatures, X [][]float64) float64 {
	worst := 0.
	for i := range X {
		for j := 0; j <= i; j++ {
			approx, err := layer.Approx(X[i], X[j])
			if err != nil {
				panic(err)
			}
			exact := layer.Exact(X[i], X[j])
			worst = math.Max(worst, math.Abs(approx-exact))
		}
	}
	return worst
}

// load parses the data from csv and returns inputs and outputs.
// The last field of each record is the output.
func load(rdr io.Reader) (
	x [][]float64,
	y []float64,
	err error,
) {
	csv := csv.NewReader(rdr)
RECORDS:
	for {
		record, err := csv.Read()
		switch err {
		case nil:
			last := len(record) - 1
			xi := make([]float64, last)
			for i := range xi {
				xi[i], err = strconv.ParseFloat(record[i], 64)
				if err != nil {
					return x, y, err
				}
			}
			yi, err := strconv.ParseFloat(record[last], 64)
			if err != nil {
				return x, y, err
			}
			x = append(x, xi)
			y = append(y, yi)
		case io.EOF:
			break RECORDS
		default:
			// i/o error
			return x, y, err
		}
	}

	return x, y, nil
}

var selfCheckData = `0.1,0.590752
0.3,0.727630
0.5,0.637579
0.7,0.659883
0.9,0.636581
1.1,0.522970
1.3,0.625499
1.5,0.432578
1.7,0.638895
1.9,0.707909
2.1,0.843521
2.3,1.000331
2.5,1.051197
2.7,0.967939
2.9,0.753121
3.1,0.596138
3.3,0.058974
3.5,-0.607619
3.7,-0.814382
3.9,-1.199249
4.1,-1.369845
4.3,-1.232404
4.5,-1.300653
4.7,-1.287307
4.9,-0.815897
5.1,-0.619882
5.3,-0.484707
5.5,-0.299396
5.7,-0.185295
5.9,-0.107594
6.1,-0.171352
6.3,-0.148818
6.5,0.035624
6.7,-0.153144
6.9,0.004245
7.1,0.297705
7.3,0.725226
7.5,0.853000
7.7,1.340596
7.9,1.257056
`
