package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// RunConfig holds training configuration
type RunConfig struct {
	Hidden       []int
	BatchSize    int
	Epochs       int
	EvalInterval int
	LearningRate float64
	Momentum     float64
	Dropout      float64
}

// ParseArchitecture parses a hidden-layer width string ("512 256 128")
// into a slice of integers. An empty string is a valid empty architecture.
func ParseArchitecture(archStr string) ([]int, error) {
	archParts := strings.Fields(archStr)
	arch := make([]int, len(archParts))
	for i, s := range archParts {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, err
		}
		arch[i] = n
	}
	return arch, nil
}

// ValidateRun validates training configuration
func ValidateRun(config *RunConfig) error {
	for i, h := range config.Hidden {
		if h <= 0 {
			return fmt.Errorf("hidden layer %d width must be positive", i)
		}
	}

	if config.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}

	if config.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive")
	}

	if config.EvalInterval <= 0 {
		return fmt.Errorf("eval interval must be positive")
	}

	if config.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive")
	}

	if config.Momentum < 0 || config.Momentum >= 1 {
		return fmt.Errorf("momentum must be in [0,1)")
	}

	if config.Dropout < 0 || config.Dropout > 1 {
		return fmt.Errorf("dropout probability must be in [0,1]")
	}

	return nil
}
