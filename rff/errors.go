package rff

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when a layer is used before its
	// input dimension is known, that is before Build.
	ErrConfiguration = errors.New("rff: input dimension is unresolved")

	// ErrShapeMismatch is matched by every ShapeMismatchError.
	ErrShapeMismatch = errors.New("rff: shape mismatch")
)

// ShapeMismatchError reports a matrix whose shape disagrees with the
// projection. A zero WantRows accepts any number of rows.
type ShapeMismatchError struct {
	Rows, Cols         int
	WantRows, WantCols int
}

func (e *ShapeMismatchError) Error() string {
	if e.WantRows == 0 {
		return fmt.Sprintf("%v: got %d×%d, want *×%d",
			ErrShapeMismatch, e.Rows, e.Cols, e.WantCols)
	}
	return fmt.Sprintf("%v: got %d×%d, want %d×%d",
		ErrShapeMismatch, e.Rows, e.Cols, e.WantRows, e.WantCols)
}

func (e *ShapeMismatchError) Unwrap() error {
	return ErrShapeMismatch
}
