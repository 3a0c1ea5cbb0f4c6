package layers

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Linear is a fully-connected layer computing y = xW + b for batch-row
// inputs. W has shape (in, out); B has length out.
type Linear struct {
	W *mat.Dense
	B *mat.VecDense

	// gradients accumulated by Backward, cleared by ZeroGrad
	GradW *mat.Dense
	GradB *mat.VecDense

	lastInput *mat.Dense
}

// NewLinear builds an inDim→outDim layer with uniform ±1/sqrt(inDim)
// weights and zero bias.
func NewLinear(inDim, outDim int) *Linear {
	return &Linear{
		W:     mat.NewDense(inDim, outDim, randomArray(inDim*outDim, float64(inDim))),
		B:     mat.NewVecDense(outDim, nil),
		GradW: mat.NewDense(inDim, outDim, nil),
		GradB: mat.NewVecDense(outDim, nil),
	}
}

func randomArray(size int, v float64) []float64 {
	dist := distuv.Uniform{
		Min: -1 / math.Sqrt(v),
		Max: 1 / math.Sqrt(v),
	}

	data := make([]float64, size)
	for i := 0; i < size; i++ {
		data[i] = dist.Rand()
	}
	return data
}

func (l *Linear) InDim() int {
	r, _ := l.W.Dims()
	return r
}

func (l *Linear) OutDim() int {
	_, c := l.W.Dims()
	return c
}

// Forward computes xW + b. x is (batch, in); the input is cached for the
// backward pass.
func (l *Linear) Forward(x *mat.Dense) (*mat.Dense, error) {
	batch, in := x.Dims()
	if in != l.InDim() {
		return nil, fmt.Errorf("linear forward: input width %d, layer expects %d", in, l.InDim())
	}
	l.lastInput = mat.DenseCopyOf(x)

	out := mat.NewDense(batch, l.OutDim(), nil)
	out.Mul(x, l.W)
	for i := 0; i < batch; i++ {
		floats.Add(out.RawRowView(i), l.B.RawVector().Data)
	}
	return out, nil
}

// Backward accumulates GradW = xᵀg and GradB = the column sums of g, then
// returns the gradient with respect to the layer input, g·Wᵀ.
func (l *Linear) Backward(grad *mat.Dense) (*mat.Dense, error) {
	if l.lastInput == nil {
		return nil, fmt.Errorf("linear backward: no cached input")
	}
	batch, out := grad.Dims()
	if out != l.OutDim() {
		return nil, fmt.Errorf("linear backward: gradient width %d, layer expects %d", out, l.OutDim())
	}
	if cached, _ := l.lastInput.Dims(); cached != batch {
		return nil, fmt.Errorf("linear backward: gradient batch %d, cached input batch %d", batch, cached)
	}

	var gw mat.Dense
	gw.Mul(l.lastInput.T(), grad)
	l.GradW.Add(l.GradW, &gw)

	col := make([]float64, batch)
	for j := 0; j < out; j++ {
		mat.Col(col, j, grad)
		l.GradB.SetVec(j, l.GradB.AtVec(j)+floats.Sum(col))
	}

	gradIn := mat.NewDense(batch, l.InDim(), nil)
	gradIn.Mul(grad, l.W.T())
	return gradIn, nil
}

// ZeroGrad clears the accumulated gradients.
func (l *Linear) ZeroGrad() {
	l.GradW.Zero()
	l.GradB.Zero()
}

func (l *Linear) Tag() string {
	return fmt.Sprintf("Linear_%d_%d", l.InDim(), l.OutDim())
}
