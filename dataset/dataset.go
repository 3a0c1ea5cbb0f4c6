// Package dataset loads, normalizes and batches label-first CSV image data
// (MNIST/Fashion-MNIST pixel rows) and generates synthetic substitutes.
package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Sample is one example: a flattened feature vector and its class label.
type Sample struct {
	Input []float64
	Label int
}

// Batch groups samples into a (batch, features) matrix plus labels.
type Batch struct {
	Inputs *mat.Dense
	Labels []int
}

// LoadCSV reads label-first rows: the first value is the class, the rest
// are pixel intensities scaled into (0.01, 1.0].
func LoadCSV(path string, inputSize int) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer file.Close()

	var samples []Sample
	r := csv.NewReader(bufio.NewReader(file))
	lineNum := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}
		lineNum++
		if len(record) != inputSize+1 {
			return nil, errInvalidRow{lineNum: lineNum, fields: len(record), expected: inputSize + 1}
		}

		label, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing label: %w", lineNum, err)
		}
		inputs := make([]float64, inputSize)
		for i := range inputs {
			x, err := strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: parsing pixel %d: %w", lineNum, i, err)
			}
			inputs[i] = (x / 255.0 * 0.99) + 0.01
		}
		samples = append(samples, Sample{Input: inputs, Label: label})
	}
	return samples, nil
}

type errInvalidRow struct {
	lineNum  int
	fields   int
	expected int
}

func (e errInvalidRow) Error() string {
	return fmt.Sprintf("at line %d, expected %d values, got %d",
		e.lineNum, e.expected, e.fields)
}

// Mean returns the per-feature mean across samples.
func Mean(samples []Sample) []float64 {
	if len(samples) == 0 {
		return nil
	}
	mean := make([]float64, len(samples[0].Input))
	for _, s := range samples {
		floats.Add(mean, s.Input)
	}
	floats.Scale(1/float64(len(samples)), mean)
	return mean
}

// StdDev returns the per-feature population standard deviation.
func StdDev(samples []Sample) []float64 {
	if len(samples) == 0 {
		return nil
	}
	mean := Mean(samples)
	std := make([]float64, len(mean))
	for _, s := range samples {
		for i, x := range s.Input {
			diff := x - mean[i]
			std[i] += diff * diff
		}
	}
	for i := range std {
		std[i] = math.Sqrt(std[i] / float64(len(samples)))
	}
	return std
}

// Normalize returns samples with (x-mean)/std features. Features with zero
// deviation pass through centred only.
func Normalize(samples []Sample, mean, std []float64) []Sample {
	out := make([]Sample, len(samples))
	for i, s := range samples {
		inputs := make([]float64, len(s.Input))
		for j, x := range s.Input {
			if std[j] == 0 {
				inputs[j] = x - mean[j]
				continue
			}
			inputs[j] = (x - mean[j]) / std[j]
		}
		out[i] = Sample{Input: inputs, Label: s.Label}
	}
	return out
}

// Shuffle permutes samples in place.
func Shuffle(samples []Sample, rng *rand.Rand) {
	rng.Shuffle(len(samples), func(i, j int) {
		samples[i], samples[j] = samples[j], samples[i]
	})
}

// Batches splits samples into batches of batchSize rows; the final batch
// may be smaller.
func Batches(samples []Sample, batchSize int) ([]Batch, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size %d must be positive", batchSize)
	}
	if len(samples) == 0 {
		return nil, nil
	}
	inputSize := len(samples[0].Input)
	numBatches := (len(samples) + batchSize - 1) / batchSize
	batches := make([]Batch, 0, numBatches)
	for start := 0; start < len(samples); start += batchSize {
		end := start + batchSize
		if end > len(samples) {
			end = len(samples)
		}
		part := samples[start:end]
		inputs := mat.NewDense(len(part), inputSize, nil)
		labels := make([]int, len(part))
		for i, s := range part {
			if len(s.Input) != inputSize {
				return nil, fmt.Errorf("sample %d: feature width %d, expected %d", start+i, len(s.Input), inputSize)
			}
			inputs.SetRow(i, s.Input)
			labels[i] = s.Label
		}
		batches = append(batches, Batch{Inputs: inputs, Labels: labels})
	}
	return batches, nil
}

// Synthetic generates n linearly separable samples over `classes` classes:
// each class has a distinct active block of features plus Gaussian noise.
func Synthetic(rng *rand.Rand, n, inputSize, classes int) []Sample {
	samples := make([]Sample, n)
	for i := range samples {
		label := rng.Intn(classes)
		inputs := make([]float64, inputSize)
		for j := range inputs {
			inputs[j] = rng.NormFloat64() * 0.1
			if j%classes == label {
				inputs[j] += 1.0
			}
		}
		samples[i] = Sample{Input: inputs, Label: label}
	}
	return samples
}
