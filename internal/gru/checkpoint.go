package gru

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/irfndi/gruforecast/internal/compute"
)

// DefaultCheckpointName is the fixed artifact name the best model is saved
// under. An existing file at that name is overwritten; there is no versioning.
const DefaultCheckpointName = "best_model.json"

// checkpoint is the serialized form of a model: dimensions plus every weight
// matrix in Parameters() order. Optimizer state is not persisted.
type checkpoint struct {
	InputDim    int           `json:"input_dim"`
	HiddenDim   int           `json:"hidden_dim"`
	NumLayers   int           `json:"num_layers"`
	OutputDim   int           `json:"output_dim"`
	DropoutRate float64       `json:"dropout_rate"`
	Weights     [][][]float64 `json:"weights"`
}

// Checkpointer persists model parameters to a fixed path.
type Checkpointer struct {
	Path string
}

// NewCheckpointer builds a checkpointer writing to path, or to
// DefaultCheckpointName when path is empty.
func NewCheckpointer(path string) *Checkpointer {
	if path == "" {
		path = DefaultCheckpointName
	}
	return &Checkpointer{Path: path}
}

// Save writes the model's weights as JSON, overwriting any previous artifact,
// and returns the path written.
func (c *Checkpointer) Save(model *Model) (string, error) {
	ckpt := checkpoint{
		InputDim:    model.InputDim,
		HiddenDim:   model.HiddenDim,
		NumLayers:   model.NumLayers,
		OutputDim:   model.OutputDim,
		DropoutRate: model.DropoutRate,
	}
	for _, p := range model.Parameters() {
		ckpt.Weights = append(ckpt.Weights, denseToRows(p))
	}

	data, err := json.Marshal(ckpt)
	if err != nil {
		return "", fmt.Errorf("gru: marshal checkpoint: %w", err)
	}
	if err := os.WriteFile(c.Path, data, 0o644); err != nil {
		return "", fmt.Errorf("gru: write checkpoint: %w", err)
	}
	return c.Path, nil
}

// Load restores a model from a checkpoint file. The restored model starts in
// eval mode.
func (c *Checkpointer) Load(ctx *compute.Context) (*Model, error) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("gru: read checkpoint: %w", err)
	}
	var ckpt checkpoint
	if err := json.Unmarshal(data, &ckpt); err != nil {
		return nil, fmt.Errorf("gru: parse checkpoint: %w", err)
	}

	model := NewModel(ctx, ckpt.InputDim, ckpt.HiddenDim, ckpt.NumLayers, ckpt.OutputDim, ckpt.DropoutRate)
	params := model.Parameters()
	if len(params) != len(ckpt.Weights) {
		return nil, fmt.Errorf("gru: checkpoint has %d weight blocks, model expects %d", len(ckpt.Weights), len(params))
	}
	for i, rows := range ckpt.Weights {
		r, cols := params[i].Dims()
		if len(rows) != r {
			return nil, fmt.Errorf("gru: weight block %d has %d rows, expected %d", i, len(rows), r)
		}
		for j, row := range rows {
			if len(row) != cols {
				return nil, fmt.Errorf("gru: weight block %d row %d has %d values, expected %d", i, j, len(row), cols)
			}
			params[i].SetRow(j, row)
		}
	}
	return model, nil
}

func denseToRows(d *mat.Dense) [][]float64 {
	r, c := d.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = make([]float64, c)
		mat.Row(rows[i], i, d)
	}
	return rows
}
