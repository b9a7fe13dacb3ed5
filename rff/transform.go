package rff

import (
	"gonum.org/v1/gonum/mat"
	"math"
)

// Transform maps the batch X (batch × inputDim) through the
// projection P (inputDim × n) to the embedding
// [cos(XP) | sin(XP)] / sqrt(n) of width 2n.
func Transform(X, P mat.Matrix) (*mat.Dense, error) {
	batch, dim := X.Dims()
	inputDim, n := P.Dims()
	if dim != inputDim {
		return nil, &ShapeMismatchError{
			Rows: batch, Cols: dim,
			WantCols: inputDim,
		}
	}

	var Z mat.Dense
	Z.Mul(X, P)

	scale := 1 / math.Sqrt(float64(n))
	Phi := mat.NewDense(batch, 2*n, nil)
	for i := 0; i != batch; i++ {
		for j := 0; j != n; j++ {
			z := Z.At(i, j)
			Phi.Set(i, j, scale*math.Cos(z))
			Phi.Set(i, n+j, scale*math.Sin(z))
		}
	}
	return Phi, nil
}

// TransformGradient is the vector-Jacobian product of Transform with
// respect to X: given G = dL/dPhi (batch × 2n) it returns dL/dX
// (batch × inputDim).
func TransformGradient(X, P, G mat.Matrix) (*mat.Dense, error) {
	batch, dim := X.Dims()
	inputDim, n := P.Dims()
	if dim != inputDim {
		return nil, &ShapeMismatchError{
			Rows: batch, Cols: dim,
			WantCols: inputDim,
		}
	}
	if gr, gc := G.Dims(); gr != batch || gc != 2*n {
		return nil, &ShapeMismatchError{
			Rows: gr, Cols: gc,
			WantRows: batch, WantCols: 2 * n,
		}
	}

	var Z mat.Dense
	Z.Mul(X, P)

	// dL/dZ, the cos half contributes -sin, the sin half cos.
	scale := 1 / math.Sqrt(float64(n))
	D := mat.NewDense(batch, n, nil)
	for i := 0; i != batch; i++ {
		for j := 0; j != n; j++ {
			z := Z.At(i, j)
			D.Set(i, j, scale*(-math.Sin(z)*G.At(i, j)+math.Cos(z)*G.At(i, n+j)))
		}
	}

	var dX mat.Dense
	dX.Mul(D, P.T())
	return &dX, nil
}
