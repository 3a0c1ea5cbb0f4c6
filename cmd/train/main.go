// fashionnet-train: standalone trainer for the feedforward classifier
//
// Usage:
//
//	fashionnet-train --hidden="512 256 128" --epochs=5 --lr=0.01 --output=model.json
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"fashionnet/dataset"
	"fashionnet/nn"
	"fashionnet/utils"
)

var (
	hiddenStr    = flag.String("hidden", "512 256 128", "Hidden layer widths, space separated")
	epochs       = flag.Int("epochs", 5, "Number of training epochs")
	learningRate = flag.Float64("lr", 0.01, "Learning rate")
	momentum     = flag.Float64("momentum", 0.9, "SGD momentum")
	dropProb     = flag.Float64("dropout", 0.2, "Dropout probability for hidden layers")
	batchSize    = flag.Int("batch", 64, "Mini-batch size")
	evalInterval = flag.Int("eval-every", 100, "Batches between validation reports")
	seed         = flag.Int64("seed", 42, "Random seed")
	samples      = flag.Int("samples", 6400, "Number of synthetic samples when no CSV is given")
	trainFile    = flag.String("train", "", "Training CSV (label-first pixel rows)")
	testFile     = flag.String("test", "", "Validation CSV (label-first pixel rows)")
	inputSize    = flag.Int("input", 784, "Input width (flattened image size)")
	classes      = flag.Int("classes", 10, "Number of output classes")
	outputFile   = flag.String("output", "", "Output checkpoint file (JSON)")
	verbose      = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose
	rng := rand.New(rand.NewSource(*seed))

	hidden, err := utils.ParseArchitecture(*hiddenStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -hidden: %v\n", err)
		os.Exit(1)
	}
	config := &utils.RunConfig{
		Hidden:       hidden,
		BatchSize:    *batchSize,
		Epochs:       *epochs,
		EvalInterval: *evalInterval,
		LearningRate: *learningRate,
		Momentum:     *momentum,
		Dropout:      *dropProb,
	}
	if err := utils.ValidateRun(config); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                   fashionnet Trainer                         ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nConfiguration:\n")
	fmt.Printf("  Architecture:  %d -> %v -> %d\n", *inputSize, hidden, *classes)
	fmt.Printf("  Epochs:        %d\n", *epochs)
	fmt.Printf("  Learning Rate: %.4f\n", *learningRate)
	fmt.Printf("  Momentum:      %.2f\n", *momentum)
	fmt.Printf("  Dropout:       %.2f\n", *dropProb)
	fmt.Printf("  Batch Size:    %d\n", *batchSize)
	fmt.Println()

	stats := &utils.TimingStats{}
	totalStart := time.Now()

	// Load or synthesize data
	start := time.Now()
	trainSamples, valSamples := loadData(rng)
	stats.DataLoadingTime = time.Since(start)
	fmt.Printf("Loaded %d training and %d validation samples\n", len(trainSamples), len(valSamples))

	start = time.Now()
	model, err := nn.NewNetwork(*inputSize, *classes, hidden, *dropProb)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building model: %v\n", err)
		os.Exit(1)
	}
	stats.ModelInitTime = time.Since(start)

	valBatches, err := dataset.Batches(valSamples, *batchSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error batching validation data: %v\n", err)
		os.Exit(1)
	}

	opt := nn.NewSGD(model, *learningRate, *momentum)
	var loss nn.NLLLoss

	fmt.Println("\nStarting training...")
	step := 0
	running := 0.0
	runningCount := 0
	for epoch := 1; epoch <= *epochs; epoch++ {
		dataset.Shuffle(trainSamples, rng)
		trainBatches, err := dataset.Batches(trainSamples, *batchSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error batching training data: %v\n", err)
			os.Exit(1)
		}

		model.SetTraining(true)
		epochStart := time.Now()
		bar := progressbar.Default(int64(len(trainBatches)))
		for _, batch := range trainBatches {
			trainStart := time.Now()
			opt.ZeroGrad()
			logProbs, err := model.Forward(batch.Inputs)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error at step %d: %v\n", step, err)
				os.Exit(1)
			}
			l, err := loss.Forward(logProbs, batch.Labels)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error at step %d: %v\n", step, err)
				os.Exit(1)
			}
			grad, err := loss.Backward(logProbs, batch.Labels)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error at step %d: %v\n", step, err)
				os.Exit(1)
			}
			if err := model.Backward(grad); err != nil {
				fmt.Fprintf(os.Stderr, "Error at step %d: %v\n", step, err)
				os.Exit(1)
			}
			opt.Step()
			stats.TrainingTime += time.Since(trainStart)

			running += l
			runningCount++
			step++
			bar.Add(1)

			if step%*evalInterval == 0 && len(valBatches) > 0 {
				evalStart := time.Now()
				model.SetTraining(false)
				valLoss, valAcc, err := nn.Validate(model, valBatches, loss)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error validating at step %d: %v\n", step, err)
					os.Exit(1)
				}
				model.SetTraining(true)
				stats.EvalTime += time.Since(evalStart)
				fmt.Printf("Epoch %d/%d | Step %d | Train loss: %.4f | Val loss: %.4f | Val acc: %.4f\n",
					epoch, *epochs, step, running/float64(runningCount),
					valLoss/float64(len(valBatches)), valAcc)
				running, runningCount = 0, 0
			}
		}
		fmt.Printf("Epoch %d of %d complete | Time: %.2fs\n", epoch, *epochs, time.Since(epochStart).Seconds())
	}
	model.SetTraining(false)

	stats.TotalTime = time.Since(totalStart)
	fmt.Printf("\nTraining complete! Total time: %.2fs\n", stats.TotalTime.Seconds())
	if *verbose {
		utils.PrintTimingStats(stats, step)
	}

	if *outputFile != "" {
		fmt.Printf("\nSaving checkpoint to %s...\n", *outputFile)
		start = time.Now()
		if err := utils.WriteCheckpoint(*outputFile, utils.Save(model)); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving: %v\n", err)
			os.Exit(1)
		}
		stats.CheckpointTime = time.Since(start)
		fmt.Println("Done!")
	}
}

// loadData reads CSV data when paths are given, otherwise generates
// synthetic separable samples with a 90/10 train/validation split.
func loadData(rng *rand.Rand) (trainSamples, valSamples []dataset.Sample) {
	if *trainFile != "" {
		var err error
		trainSamples, err = dataset.LoadCSV(*trainFile, *inputSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading training data: %v\n", err)
			os.Exit(1)
		}
		if *testFile != "" {
			valSamples, err = dataset.LoadCSV(*testFile, *inputSize)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading validation data: %v\n", err)
				os.Exit(1)
			}
		}
		return trainSamples, valSamples
	}

	fmt.Printf("No -train CSV given, generating %d synthetic samples...\n", *samples)
	all := dataset.Synthetic(rng, *samples, *inputSize, *classes)
	split := len(all) * 9 / 10
	return all[:split], all[split:]
}
