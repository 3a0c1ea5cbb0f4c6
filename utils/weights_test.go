package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"fashionnet/nn"
)

func randomInput(rows, cols int) *mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Set(i, j, float64((i*cols+j)%7)/7)
		}
	}
	return m
}

func TestCheckpointRoundTripPreservesForward(t *testing.T) {
	model, err := nn.NewNetwork(12, 5, []int{8, 6}, 0.3)
	require.NoError(t, err)
	model.SetTraining(false)

	x := randomInput(4, 12)
	before, err := model.Forward(x)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, WriteCheckpoint(path, Save(model)))

	ck, err := ReadCheckpoint(path)
	require.NoError(t, err)
	restored, err := Load(ck, 0.3)
	require.NoError(t, err)
	restored.SetTraining(false)

	after, err := restored.Forward(x)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(before, after, 1e-12),
		"restored network should reproduce the original forward pass")
}

func TestSaveMetadataAndKeys(t *testing.T) {
	model, err := nn.NewNetwork(10, 3, []int{7, 4}, 0)
	require.NoError(t, err)

	ck := Save(model)
	assert.Equal(t, CheckpointVersion, ck.Version)
	assert.Equal(t, 10, ck.InputSize)
	assert.Equal(t, 3, ck.OutputSize)
	assert.Equal(t, []int{7, 4}, ck.HiddenLayers)

	for _, key := range []string{
		"linear_0.weight", "linear_0.bias",
		"linear_1.weight", "linear_1.bias",
		"output.weight", "output.bias",
	} {
		require.Contains(t, ck.StateDict, key)
		assert.Equal(t, key, ck.StateDict[key].Name)
	}
	assert.Len(t, ck.StateDict, 6)
	assert.Equal(t, []int{10, 7}, ck.StateDict["linear_0.weight"].Shape)
	assert.Equal(t, []int{4}, ck.StateDict["linear_1.bias"].Shape)
	assert.Equal(t, []int{4, 3}, ck.StateDict["output.weight"].Shape)
}

func TestSaveCopiesParameters(t *testing.T) {
	model, err := nn.NewNetwork(4, 2, nil, 0)
	require.NoError(t, err)
	ck := Save(model)

	lin := model.Linears()[0]
	original := ck.StateDict["output.weight"].Data[0]
	lin.W.RawMatrix().Data[0] = original + 100
	assert.Equal(t, original, ck.StateDict["output.weight"].Data[0],
		"checkpoint should not alias live parameters")
}

func TestLoadShapeMismatch(t *testing.T) {
	model, err := nn.NewNetwork(6, 3, []int{5}, 0)
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(ck *Checkpoint)
	}{
		{"weight rows", func(ck *Checkpoint) {
			ck.StateDict["linear_0.weight"].Shape = []int{7, 5}
		}},
		{"weight data length", func(ck *Checkpoint) {
			ck.StateDict["output.weight"].Data = ck.StateDict["output.weight"].Data[:3]
		}},
		{"bias length", func(ck *Checkpoint) {
			ck.StateDict["output.bias"].Shape = []int{4}
		}},
		{"metadata disagrees", func(ck *Checkpoint) {
			ck.HiddenLayers = []int{9}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ck := Save(model)
			tc.mutate(ck)
			_, err := Load(ck, 0)
			require.Error(t, err)
			var shapeErr *nn.ShapeMismatchError
			require.ErrorAs(t, err, &shapeErr)
		})
	}
}

func TestLoadMissingTensor(t *testing.T) {
	model, err := nn.NewNetwork(6, 3, []int{5}, 0)
	require.NoError(t, err)
	ck := Save(model)
	delete(ck.StateDict, "linear_0.weight")

	_, err = Load(ck, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "linear_0.weight")
}

func TestLoadBadMetadata(t *testing.T) {
	ck := &Checkpoint{InputSize: 0, OutputSize: 10, StateDict: map[string]*WeightData{}}
	_, err := Load(ck, 0)
	require.Error(t, err)
	var cfgErr *nn.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestCheckpointJSONFieldNames(t *testing.T) {
	model, err := nn.NewNetwork(3, 2, []int{2}, 0)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, WriteCheckpoint(path, Save(model)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	for _, field := range []string{
		`"input_size"`, `"output_size"`, `"hidden_layers"`, `"state_dict"`,
		`"linear_0.weight"`, `"output.bias"`, `"shape"`, `"data"`,
	} {
		assert.True(t, strings.Contains(text, field), "checkpoint JSON missing %s", field)
	}
}

func TestReadCheckpointErrors(t *testing.T) {
	_, err := ReadCheckpoint(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = ReadCheckpoint(bad)
	require.Error(t, err)
}

func TestEmptyHiddenCheckpointRoundTrip(t *testing.T) {
	model, err := nn.NewNetwork(5, 2, nil, 0)
	require.NoError(t, err)
	ck := Save(model)
	assert.Empty(t, ck.HiddenLayers)
	require.Contains(t, ck.StateDict, "output.weight")
	assert.Len(t, ck.StateDict, 2)

	restored, err := Load(ck, 0)
	require.NoError(t, err)
	x := randomInput(2, 5)
	want, err := model.Forward(x)
	require.NoError(t, err)
	got, err := restored.Forward(x)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, got, 1e-12))
}
