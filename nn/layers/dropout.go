package layers

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Dropout zeroes each unit independently with probability P during
// training and scales survivors by 1/(1-P). In evaluation mode it is the
// identity.
type Dropout struct {
	P float64

	rng      *rand.Rand
	training bool
	mask     *mat.Dense // scaled keep mask from the last training forward
}

func NewDropout(p float64) *Dropout {
	return &Dropout{P: p, rng: rand.New(rand.NewSource(rand.Int63()))}
}

// SetTraining switches the layer between training and evaluation mode.
func (d *Dropout) SetTraining(training bool) { d.training = training }

func (d *Dropout) Training() bool { return d.training }

// Reseed makes the mask sequence deterministic.
func (d *Dropout) Reseed(seed int64) { d.rng = rand.New(rand.NewSource(seed)) }

func (d *Dropout) Forward(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if !d.training || d.P == 0 {
		d.mask = nil
		return mat.DenseCopyOf(x), nil
	}
	if d.P >= 1 {
		d.mask = mat.NewDense(rows, cols, nil)
		return mat.NewDense(rows, cols, nil), nil
	}

	scale := 1 / (1 - d.P)
	d.mask = mat.NewDense(rows, cols, nil)
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if d.rng.Float64() >= d.P {
				d.mask.Set(i, j, scale)
				out.Set(i, j, x.At(i, j)*scale)
			}
		}
	}
	return out, nil
}

// Backward applies the mask captured by the last training forward; in
// evaluation mode the gradient passes through unchanged.
func (d *Dropout) Backward(grad *mat.Dense) (*mat.Dense, error) {
	if d.mask == nil {
		return mat.DenseCopyOf(grad), nil
	}
	gr, gc := grad.Dims()
	mr, mc := d.mask.Dims()
	if gr != mr || gc != mc {
		return nil, fmt.Errorf("dropout backward: gradient shape (%d,%d), mask shape (%d,%d)", gr, gc, mr, mc)
	}
	out := mat.NewDense(gr, gc, nil)
	out.MulElem(grad, d.mask)
	return out, nil
}

func (d *Dropout) Tag() string { return fmt.Sprintf("Dropout_%g", d.P) }
