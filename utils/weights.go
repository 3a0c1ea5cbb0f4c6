package utils

import (
	"encoding/json"
	"fmt"
	"os"

	"fashionnet/nn"
)

// WeightData is one serialized parameter tensor.
type WeightData struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// Checkpoint is a durable snapshot of a network: the three size fields
// fully determine every state_dict tensor shape, which Load verifies.
type Checkpoint struct {
	Version      string                 `json:"version,omitempty"`
	InputSize    int                    `json:"input_size"`
	OutputSize   int                    `json:"output_size"`
	HiddenLayers []int                  `json:"hidden_layers"`
	StateDict    map[string]*WeightData `json:"state_dict"`
}

// CheckpointVersion is written into new checkpoints. Readers do not require
// it; absent or unknown versions still load.
const CheckpointVersion = "1"

// layerName maps a linear's stack position to its state_dict key prefix.
func layerName(i, total int) string {
	if i == total-1 {
		return "output"
	}
	return fmt.Sprintf("linear_%d", i)
}

// Save captures the model's architecture (read from the constructed
// layers) and a copy of its current parameter values.
func Save(model *nn.Network) *Checkpoint {
	ck := &Checkpoint{
		Version:      CheckpointVersion,
		InputSize:    model.InputSize(),
		OutputSize:   model.OutputSize(),
		HiddenLayers: model.HiddenSizes(),
		StateDict:    make(map[string]*WeightData),
	}
	lins := model.Linears()
	for i, l := range lins {
		name := layerName(i, len(lins))
		rows, cols := l.W.Dims()
		ck.StateDict[name+".weight"] = &WeightData{
			Name:  name + ".weight",
			Shape: []int{rows, cols},
			Data:  append([]float64(nil), l.W.RawMatrix().Data...),
		}
		ck.StateDict[name+".bias"] = &WeightData{
			Name:  name + ".bias",
			Shape: []int{l.B.Len()},
			Data:  append([]float64(nil), l.B.RawVector().Data...),
		}
	}
	return ck
}

// Load reconstructs a network from the checkpoint's size metadata and
// overwrites its parameters with the stored values. Any state_dict tensor
// whose shape disagrees with the reconstructed architecture fails with
// *nn.ShapeMismatchError. The checkpoint does not carry the dropout
// probability; the caller supplies it.
func Load(ck *Checkpoint, dropProb float64) (*nn.Network, error) {
	model, err := nn.NewNetwork(ck.InputSize, ck.OutputSize, ck.HiddenLayers, dropProb)
	if err != nil {
		return nil, fmt.Errorf("reconstructing architecture: %w", err)
	}
	lins := model.Linears()
	for i, l := range lins {
		name := layerName(i, len(lins))
		rows, cols := l.W.Dims()

		wd, ok := ck.StateDict[name+".weight"]
		if !ok {
			return nil, fmt.Errorf("checkpoint missing %s.weight", name)
		}
		if len(wd.Shape) != 2 || wd.Shape[0] != rows || wd.Shape[1] != cols || len(wd.Data) != rows*cols {
			return nil, &nn.ShapeMismatchError{Name: name + ".weight", Want: []int{rows, cols}, Got: wd.Shape}
		}
		copy(l.W.RawMatrix().Data, wd.Data)

		bd, ok := ck.StateDict[name+".bias"]
		if !ok {
			return nil, fmt.Errorf("checkpoint missing %s.bias", name)
		}
		if len(bd.Shape) != 1 || bd.Shape[0] != cols || len(bd.Data) != cols {
			return nil, &nn.ShapeMismatchError{Name: name + ".bias", Want: []int{cols}, Got: bd.Shape}
		}
		copy(l.B.RawVector().Data, bd.Data)
	}
	return model, nil
}

// WriteCheckpoint saves a checkpoint to a JSON file.
func WriteCheckpoint(filepath string, ck *Checkpoint) error {
	data, err := json.MarshalIndent(ck, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	return os.WriteFile(filepath, data, 0644)
}

// ReadCheckpoint loads a checkpoint from a JSON file.
func ReadCheckpoint(filepath string) (*Checkpoint, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}
	var ck Checkpoint
	if err := json.Unmarshal(data, &ck); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &ck, nil
}
