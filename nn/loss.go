package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LogSoftmax applies a numerically stable log-softmax to each row: the row
// maximum is subtracted before exponentiation to avoid overflow.
func LogSoftmax(logits *mat.Dense) *mat.Dense {
	rows, cols := logits.Dims()
	out := mat.NewDense(rows, cols, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, logits)
		max := floats.Max(row)
		sum := 0.0
		for _, v := range row {
			sum += math.Exp(v - max)
		}
		lse := max + math.Log(sum)
		for j, v := range row {
			out.Set(i, j, v-lse)
		}
	}
	return out
}

// NLLLoss is the negative log-likelihood over log-probability rows and
// integer class labels.
type NLLLoss struct{}

// Forward returns the mean negative log-likelihood of the true classes.
func (NLLLoss) Forward(logProbs *mat.Dense, labels []int) (float64, error) {
	rows, cols := logProbs.Dims()
	if len(labels) != rows {
		return 0, fmt.Errorf("nll loss: %d labels for %d rows", len(labels), rows)
	}
	total := 0.0
	for i, label := range labels {
		if label < 0 || label >= cols {
			return 0, fmt.Errorf("nll loss: label %d out of range [0,%d)", label, cols)
		}
		total -= logProbs.At(i, label)
	}
	return total / float64(rows), nil
}

// Backward computes the gradient of the mean loss with respect to the
// logits: (softmax - one_hot) / batch. The log-softmax derivative and the
// loss derivative cancel into this single term.
func (NLLLoss) Backward(logProbs *mat.Dense, labels []int) (*mat.Dense, error) {
	rows, cols := logProbs.Dims()
	if len(labels) != rows {
		return nil, fmt.Errorf("nll loss: %d labels for %d rows", len(labels), rows)
	}
	grad := mat.NewDense(rows, cols, nil)
	inv := 1 / float64(rows)
	for i, label := range labels {
		if label < 0 || label >= cols {
			return nil, fmt.Errorf("nll loss: label %d out of range [0,%d)", label, cols)
		}
		for j := 0; j < cols; j++ {
			grad.Set(i, j, math.Exp(logProbs.At(i, j))*inv)
		}
		grad.Set(i, label, grad.At(i, label)-inv)
	}
	return grad, nil
}
