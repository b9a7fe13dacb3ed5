package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"io"
	"log"
	"math"
	"os"
	"strconv"
)

var (
	COMMA  = ","
	SKIP   = 0
	HEADER = false
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			`Scores forecasts: negative log predictive density, standardised
mean squared error and R². The last three fields of each record are
the observed value, the predicted mean and the predicted standard
deviation. Invocation:
	%s  [OPTIONS] < FORECASTS
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.StringVar(&COMMA, "comma", COMMA, "field separator")
	flag.IntVar(&SKIP, "s", SKIP, "initial records to skip")
	flag.BoolVar(&HEADER, "header", HEADER, "the first line is a header")
}

// Scores of a set of forecasts.
type Scores struct {
	NLPD, SMSE, R2 float64
}

func score(y, mean, std []float64) Scores {
	nlpd := 0.
	sse := 0.
	for i := range y {
		nlpd -= distuv.Normal{Mu: mean[i], Sigma: std[i]}.LogProb(y[i])
		d := y[i] - mean[i]
		sse += d * d
	}
	n := float64(len(y))
	return Scores{
		NLPD: nlpd / n,
		SMSE: sse / n / stat.Variance(y, nil),
		R2:   stat.RSquaredFrom(mean, y, nil),
	}
}

func main() {
	flag.Parse()

	rdr := csv.NewReader(os.Stdin)
	rdr.Comma = rune(COMMA[0])
	rdr.FieldsPerRecord = -1

	if HEADER {
		rdr.Read()
	}
	var y, mean, std []float64
	for n := 0; ; n++ {
		record, err := rdr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal(err)
		}
		if n < SKIP {
			continue
		}
		if len(record) < 3 {
			log.Fatalf("record %d: %d fields, want at least 3", n, len(record))
		}

		var v [3]float64
		for i, field := range record[len(record)-3:] {
			v[i], err = strconv.ParseFloat(field, 64)
			if err != nil {
				log.Fatalf("record %d: %v", n, err)
			}
		}
		y = append(y, v[0])
		mean = append(mean, v[1])
		std = append(std, math.Abs(v[2]))
	}
	if len(y) < 2 {
		log.Fatalf("%d forecasts, need at least 2", len(y))
	}

	s := score(y, mean, std)
	fmt.Printf("nlpd\tsmse\tr2\n%f\t%f\t%f\n", s.NLPD, s.SMSE, s.R2)
}
