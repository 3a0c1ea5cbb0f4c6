package nn

import (
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"fashionnet/dataset"
)

// Output is the writer where training progress lines are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// Train runs epochs passes of mini-batch gradient descent over
// trainBatches. Every evalInterval processed batches (a global counter
// across epochs) the model is switched to evaluation mode, validated, and a
// progress line is printed; the running-loss accumulator resets after each
// report. The model is left in evaluation mode. No checkpoint is written;
// the caller saves explicitly after training.
func Train(model *Network, trainBatches, valBatches []dataset.Batch, loss NLLLoss, opt *SGD, epochs, evalInterval int) error {
	step := 0
	running := 0.0
	runningCount := 0

	for epoch := 1; epoch <= epochs; epoch++ {
		model.SetTraining(true)
		for _, batch := range trainBatches {
			opt.ZeroGrad()
			logProbs, err := model.Forward(batch.Inputs)
			if err != nil {
				return fmt.Errorf("forward at step %d: %w", step, err)
			}
			l, err := loss.Forward(logProbs, batch.Labels)
			if err != nil {
				return fmt.Errorf("loss at step %d: %w", step, err)
			}
			if math.IsNaN(l) || math.IsInf(l, 0) {
				return fmt.Errorf("non-finite loss %v at step %d", l, step)
			}
			grad, err := loss.Backward(logProbs, batch.Labels)
			if err != nil {
				return fmt.Errorf("loss backward at step %d: %w", step, err)
			}
			if err := model.Backward(grad); err != nil {
				return fmt.Errorf("backward at step %d: %w", step, err)
			}
			opt.Step()

			running += l
			runningCount++
			step++

			if evalInterval > 0 && step%evalInterval == 0 && len(valBatches) > 0 {
				model.SetTraining(false)
				valLoss, valAcc, err := Validate(model, valBatches, loss)
				if err != nil {
					return fmt.Errorf("validation at step %d: %w", step, err)
				}
				fmt.Fprintf(Output, "Epoch %d/%d | Step %d | Train loss: %.4f | Val loss: %.4f | Val acc: %.4f\n",
					epoch, epochs, step,
					running/float64(runningCount),
					valLoss/float64(len(valBatches)),
					valAcc)
				running, runningCount = 0, 0
				model.SetTraining(true)
			}
		}
	}

	model.SetTraining(false)
	return nil
}

// Validate runs the model over batches and returns the total loss (summed
// across batches; divide by the batch count for a mean) and the accuracy,
// a running mean across batches of the per-batch fraction of correct
// argmax predictions. The caller is responsible for the model's mode.
func Validate(model *Network, batches []dataset.Batch, loss NLLLoss) (totalLoss, accuracy float64, err error) {
	for k, batch := range batches {
		logProbs, err := model.Forward(batch.Inputs)
		if err != nil {
			return 0, 0, fmt.Errorf("validate batch %d: %w", k, err)
		}
		l, err := loss.Forward(logProbs, batch.Labels)
		if err != nil {
			return 0, 0, fmt.Errorf("validate batch %d: %w", k, err)
		}
		totalLoss += l

		rows, _ := logProbs.Dims()
		correct := 0
		for i := 0; i < rows; i++ {
			if argmaxRow(logProbs, i) == batch.Labels[i] {
				correct++
			}
		}
		batchAcc := float64(correct) / float64(rows)
		accuracy += (batchAcc - accuracy) / float64(k+1)
	}
	return totalLoss, accuracy, nil
}

func argmaxRow(m *mat.Dense, i int) int {
	_, cols := m.Dims()
	best := 0
	highest := m.At(i, 0)
	for j := 1; j < cols; j++ {
		if m.At(i, j) > highest {
			best = j
			highest = m.At(i, j)
		}
	}
	return best
}
