package nn

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

func TestLogSoftmaxRowsNormalize(t *testing.T) {
	logits := mat.NewDense(3, 4, []float64{
		1, 2, 3, 4,
		-1, 0, 1, 2,
		1000, 1000, 1000, 1000, // overflow without the max shift
	})
	out := LogSoftmax(logits)

	rows, cols := out.Dims()
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			v := out.At(i, j)
			if v > 1e-12 {
				t.Errorf("row %d: log-prob %v > 0", i, v)
			}
			sum += math.Exp(v)
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("row %d: sum(exp) = %v, want 1", i, sum)
		}
	}
}

func TestNLLLossForward(t *testing.T) {
	var loss NLLLoss
	logProbs := mat.NewDense(2, 3, []float64{
		-0.1, -2.5, -3.0,
		-1.2, -0.4, -2.2,
	})
	got, err := loss.Forward(logProbs, []int{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	want := (0.1 + 0.4) / 2
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("loss = %v, want %v", got, want)
	}
}

func TestNLLLossLabelOutOfRange(t *testing.T) {
	var loss NLLLoss
	logProbs := mat.NewDense(1, 3, []float64{-1, -1, -1})
	if _, err := loss.Forward(logProbs, []int{3}); err == nil {
		t.Fatal("expected error for out-of-range label")
	}
	if _, err := loss.Backward(logProbs, []int{-1}); err == nil {
		t.Fatal("expected error for negative label")
	}
	if _, err := loss.Forward(logProbs, []int{0, 1}); err == nil {
		t.Fatal("expected error for label count mismatch")
	}
}

func TestNLLLossBackwardRowsSumToZero(t *testing.T) {
	var loss NLLLoss
	logits := mat.NewDense(2, 4, []float64{
		0.3, -1.1, 2.0, 0.7,
		-0.2, 0.9, 0.4, -1.5,
	})
	logProbs := LogSoftmax(logits)
	grad, err := loss.Backward(logProbs, []int{2, 0})
	if err != nil {
		t.Fatal(err)
	}
	rows, cols := grad.Dims()
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			sum += grad.At(i, j)
		}
		if math.Abs(sum) > 1e-12 {
			t.Errorf("row %d: gradient sums to %v, want 0", i, sum)
		}
	}
	if grad.At(0, 2) >= 0 {
		t.Errorf("gradient at the true class should be negative, got %v", grad.At(0, 2))
	}
}

// Backward is checked against finite differences of the composed
// log-softmax + NLL objective over raw logits.
func TestNLLLossBackwardMatchesNumericalGradient(t *testing.T) {
	var loss NLLLoss
	labels := []int{1, 3, 0}
	logits := []float64{
		0.5, -0.3, 1.2, 0.1,
		-1.0, 0.8, 0.3, 0.9,
		2.0, -0.5, 0.0, 1.1,
	}

	objective := func(z []float64) float64 {
		l, err := loss.Forward(LogSoftmax(mat.NewDense(3, 4, z)), labels)
		if err != nil {
			t.Fatal(err)
		}
		return l
	}
	numerical := fd.Gradient(nil, objective, logits, nil)

	grad, err := loss.Backward(LogSoftmax(mat.NewDense(3, 4, logits)), labels)
	if err != nil {
		t.Fatal(err)
	}
	analytic := grad.RawMatrix().Data
	for i := range numerical {
		if math.Abs(numerical[i]-analytic[i]) > 1e-6 {
			t.Errorf("gradient[%d] = %v, numerical %v", i, analytic[i], numerical[i])
		}
	}
}
