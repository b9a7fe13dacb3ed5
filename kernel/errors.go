package kernel

import (
	"errors"
	"fmt"
)

// ErrUnsupportedKernel is matched by every UnsupportedKernelError.
var ErrUnsupportedKernel = errors.New("kernel: unsupported kernel")

// UnsupportedKernelError reports a kernel that has no sampler,
// either by name or by Matérn smoothness order.
type UnsupportedKernelError struct {
	Name string
	P    float64
}

func (e *UnsupportedKernelError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%v: %q", ErrUnsupportedKernel, e.Name)
	}
	return fmt.Sprintf("%v: matern p=%g, want 1 or 2", ErrUnsupportedKernel, e.P)
}

func (e *UnsupportedKernelError) Unwrap() error {
	return ErrUnsupportedKernel
}
