// fashionnet-infer: evaluate a saved checkpoint against a labelled CSV
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"

	"gonum.org/v1/gonum/mat"

	"fashionnet/dataset"
	"fashionnet/nn"
	"fashionnet/utils"
)

var (
	checkpointFile = flag.String("checkpoint", "", "Checkpoint JSON file")
	inputFile      = flag.String("input", "", "Labelled CSV to evaluate (label-first pixel rows)")
	batchSize      = flag.Int("batch", 64, "Evaluation batch size")
	topK           = flag.Int("topk", 3, "Top predictions to show in demo mode")
	verbose        = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                  fashionnet Inference                        ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")

	if *checkpointFile == "" {
		fmt.Println("\nNo checkpoint file. Running demo mode...")
		runDemo()
		return
	}

	ck, err := utils.ReadCheckpoint(*checkpointFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading checkpoint: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Checkpoint: %d -> %v -> %d (%d tensors)\n",
		ck.InputSize, ck.HiddenLayers, ck.OutputSize, len(ck.StateDict))

	// Dropout is irrelevant in evaluation mode
	model, err := utils.Load(ck, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading checkpoint: %v\n", err)
		os.Exit(1)
	}

	if *inputFile == "" {
		fmt.Println("No -input CSV given; nothing to evaluate.")
		return
	}
	samples, err := dataset.LoadCSV(*inputFile, ck.InputSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading input: %v\n", err)
		os.Exit(1)
	}
	batches, err := dataset.Batches(samples, *batchSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error batching input: %v\n", err)
		os.Exit(1)
	}

	var loss nn.NLLLoss
	totalLoss, accuracy, err := nn.Validate(model, batches, loss)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error evaluating: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nSamples:  %d\n", len(samples))
	fmt.Printf("Loss:     %.4f\n", totalLoss/float64(len(batches)))
	fmt.Printf("Accuracy: %.2f%%\n", accuracy*100)

	printPerClass(model, batches, ck.OutputSize)
}

// printPerClass reports the fraction correct for each class separately.
func printPerClass(model *nn.Network, batches []dataset.Batch, classes int) {
	correct := make([]int, classes)
	total := make([]int, classes)
	for _, batch := range batches {
		logProbs, err := model.Forward(batch.Inputs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error evaluating: %v\n", err)
			os.Exit(1)
		}
		rows, cols := logProbs.Dims()
		for i := 0; i < rows; i++ {
			label := batch.Labels[i]
			if label < 0 || label >= classes {
				continue
			}
			total[label]++
			best := 0
			for j := 1; j < cols; j++ {
				if logProbs.At(i, j) > logProbs.At(i, best) {
					best = j
				}
			}
			if best == label {
				correct[label]++
			}
		}
	}
	fmt.Println("\nPer-class accuracy:")
	for c := 0; c < classes; c++ {
		if total[c] == 0 {
			fmt.Printf("  class %d: no samples\n", c)
			continue
		}
		fmt.Printf("  class %d: %.2f%% (%d/%d)\n", c,
			100*float64(correct[c])/float64(total[c]), correct[c], total[c])
	}
}

// runDemo builds an untrained default network and classifies one random
// input, showing the top-k log-probabilities.
func runDemo() {
	model, err := nn.NewNetwork(784, 10, []int{512, 256, 128}, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building model: %v\n", err)
		os.Exit(1)
	}
	input := mat.NewDense(1, 784, nil)
	for j := 0; j < 784; j++ {
		input.Set(0, j, rand.Float64())
	}
	logProbs, err := model.Forward(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error in forward pass: %v\n", err)
		os.Exit(1)
	}

	type pred struct {
		class int
		logP  float64
	}
	preds := make([]pred, 10)
	for j := 0; j < 10; j++ {
		preds[j] = pred{class: j, logP: logProbs.At(0, j)}
	}
	sort.Slice(preds, func(i, j int) bool { return preds[i].logP > preds[j].logP })

	k := *topK
	if k > len(preds) {
		k = len(preds)
	}
	fmt.Printf("\nTop %d predictions (untrained network):\n", k)
	for _, p := range preds[:k] {
		fmt.Printf("  class %d: log-prob %.4f\n", p.class, p.logP)
	}
}
