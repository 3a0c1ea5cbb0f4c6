package layers

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ReLU applies max(0, x) element-wise.
type ReLU struct {
	lastInput *mat.Dense
}

func NewReLU() *ReLU { return &ReLU{} }

func (r *ReLU) Forward(x *mat.Dense) (*mat.Dense, error) {
	r.lastInput = mat.DenseCopyOf(x)
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(i, j int, v float64) float64 {
		if v < 0 {
			return 0
		}
		return v
	}, x)
	return out, nil
}

// Backward zeroes the gradient wherever the cached input was non-positive.
func (r *ReLU) Backward(grad *mat.Dense) (*mat.Dense, error) {
	if r.lastInput == nil {
		return nil, fmt.Errorf("relu backward: no cached input")
	}
	gr, gc := grad.Dims()
	ir, ic := r.lastInput.Dims()
	if gr != ir || gc != ic {
		return nil, fmt.Errorf("relu backward: gradient shape (%d,%d), cached input shape (%d,%d)", gr, gc, ir, ic)
	}
	out := mat.NewDense(gr, gc, nil)
	out.Apply(func(i, j int, v float64) float64 {
		if r.lastInput.At(i, j) <= 0 {
			return 0
		}
		return v
	}, grad)
	return out, nil
}

func (r *ReLU) Tag() string { return "ReLU" }
