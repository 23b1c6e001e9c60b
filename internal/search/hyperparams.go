// Package search implements the hyperparameter grid search: the walk-forward
// evaluation loop per configuration and the best-candidate bookkeeping that
// spans the full grid.
package search

import (
	"fmt"

	"github.com/irfndi/gruforecast/internal/gru"
)

// HyperparameterSet is one point of the search grid. Identity is value
// equality of the fields.
type HyperparameterSet struct {
	HiddenDim    int     `json:"hidden_dim"`
	NumLayers    int     `json:"num_layers"`
	LearningRate float64 `json:"learning_rate"`
	SeqLength    int     `json:"seq_length"`
	DropoutRate  float64 `json:"dropout_rate"`
}

// String renders the set the way run logs and error messages identify a
// configuration.
func (h HyperparameterSet) String() string {
	return fmt.Sprintf("hidden=%d layers=%d lr=%g seq=%d dropout=%g",
		h.HiddenDim, h.NumLayers, h.LearningRate, h.SeqLength, h.DropoutRate)
}

// Grid holds the candidate values per hyperparameter axis.
type Grid struct {
	HiddenDims    []int     `mapstructure:"hidden_dims" json:"hidden_dims"`
	NumLayers     []int     `mapstructure:"num_layers" json:"num_layers"`
	LearningRates []float64 `mapstructure:"learning_rates" json:"learning_rates"`
	SeqLengths    []int     `mapstructure:"seq_lengths" json:"seq_lengths"`
	DropoutRates  []float64 `mapstructure:"dropout_rates" json:"dropout_rates"`
}

// Size returns the number of combinations in the Cartesian product.
func (g *Grid) Size() int {
	return len(g.DropoutRates) * len(g.HiddenDims) * len(g.LearningRates) * len(g.NumLayers) * len(g.SeqLengths)
}

// Combinations enumerates the Cartesian product in a fixed order:
// lexicographic over the axis names (dropout_rate, hidden_dim,
// learning_rate, num_layers, seq_length), first axis outermost. The order is
// stable between runs given the same grid.
func (g *Grid) Combinations() []HyperparameterSet {
	combos := make([]HyperparameterSet, 0, g.Size())
	for _, dropout := range g.DropoutRates {
		for _, hidden := range g.HiddenDims {
			for _, lr := range g.LearningRates {
				for _, layers := range g.NumLayers {
					for _, seq := range g.SeqLengths {
						combos = append(combos, HyperparameterSet{
							HiddenDim:    hidden,
							NumLayers:    layers,
							LearningRate: lr,
							SeqLength:    seq,
							DropoutRate:  dropout,
						})
					}
				}
			}
		}
	}
	return combos
}

// PredictionRecord captures one walk-forward cycle's forecast: the raw model
// output, its denormalized form, and the realized row for the same date when
// the market produced one. Actual stays nil when no data exists for the
// forecast date; reporting must treat that as missing, never as zeros.
type PredictionRecord struct {
	ForecastDate string    `json:"forecast_date"`
	Normalized   []float64 `json:"normalized"`
	Denormalized []float64 `json:"denormalized"`
	Actual       []float64 `json:"actual,omitempty"`
}

// BestCandidate is the retained winner of a search run: configuration, an
// independent copy of the trained model, its prediction record and loss.
type BestCandidate struct {
	Params HyperparameterSet
	Model  *gru.Model
	Record PredictionRecord
	Loss   float64
}
