package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/gruforecast/internal/compute"
	"github.com/irfndi/gruforecast/internal/gru"
)

func TestGridCombinationsCoverCartesianProduct(t *testing.T) {
	grid := &Grid{
		HiddenDims:    []int{4, 8},
		NumLayers:     []int{1, 2, 3},
		LearningRates: []float64{0.01},
		SeqLengths:    []int{8, 10},
		DropoutRates:  []float64{0, 0.1},
	}

	combos := grid.Combinations()
	assert.Len(t, combos, 2*3*1*2*2)
	assert.Equal(t, grid.Size(), len(combos))

	seen := make(map[HyperparameterSet]bool)
	for _, c := range combos {
		assert.False(t, seen[c], "duplicate combination %s", c)
		seen[c] = true
	}
}

func TestGridCombinationsOrderIsStable(t *testing.T) {
	grid := &Grid{
		HiddenDims:    []int{4, 8},
		NumLayers:     []int{1},
		LearningRates: []float64{0.01},
		SeqLengths:    []int{8},
		DropoutRates:  []float64{0, 0.2},
	}
	assert.Equal(t, grid.Combinations(), grid.Combinations())
	// First axis in the fixed ordering is the dropout rate.
	combos := grid.Combinations()
	assert.Equal(t, 0.0, combos[0].DropoutRate)
	assert.Equal(t, 0.2, combos[len(combos)-1].DropoutRate)
}

func TestOrchestratorRunsWalkForwardPerCombination(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	provider := syntheticProvider(base, 40, 3)
	logger, _ := test.NewNullLogger()

	orchestrator := &GridSearchOrchestrator{
		Provider:  provider,
		Compute:   compute.NewContext(1),
		Logger:    logger,
		Ticker:    "TEST",
		StartDate: base,
		EndDate:   base.AddDate(0, 0, 30),
		Cycles:    1,
		Epochs:    1,
	}
	grid := &Grid{
		HiddenDims:    []int{4, 8},
		NumLayers:     []int{1},
		LearningRates: []float64{0.01},
		SeqLengths:    []int{8, 10},
		DropoutRates:  []float64{0},
	}

	best, err := orchestrator.Run(context.Background(), grid)
	require.NoError(t, err)
	require.NotNil(t, best)
	// One training fetch per combination with a single cycle each.
	assert.Equal(t, 4, provider.trainingFetches(base))
}

func TestOrchestratorEndToEndSingleCombination(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	provider := syntheticProvider(base, 30, 5)
	logger, _ := test.NewNullLogger()

	orchestrator := &GridSearchOrchestrator{
		Provider:  provider,
		Compute:   compute.NewContext(42),
		Logger:    logger,
		Ticker:    "TEST",
		StartDate: base,
		EndDate:   base.AddDate(0, 0, 30),
		Cycles:    1,
		Epochs:    3,
	}
	grid := &Grid{
		HiddenDims:    []int{32},
		NumLayers:     []int{2},
		LearningRates: []float64{0.001},
		SeqLengths:    []int{10},
		DropoutRates:  []float64{0.1},
	}

	best, err := orchestrator.Run(context.Background(), grid)
	require.NoError(t, err)
	require.NotNil(t, best)

	assert.Equal(t, 1, provider.trainingFetches(base), "exactly one training run")
	assert.Len(t, best.Record.Denormalized, 5)
	assert.Equal(t, grid.Combinations()[0], best.Params)

	path := filepath.Join(t.TempDir(), "best_model.json")
	saved, err := gru.NewCheckpointer(path).Save(best.Model)
	require.NoError(t, err)
	info, err := os.Stat(saved)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestOrchestratorFailingConfigurationAbortsSearch(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	provider := syntheticProvider(base, 30, 3)
	logger, _ := test.NewNullLogger()

	orchestrator := &GridSearchOrchestrator{
		Provider:  provider,
		Compute:   compute.NewContext(1),
		Logger:    logger,
		Ticker:    "TEST",
		StartDate: base,
		EndDate:   base.AddDate(0, 0, 30),
		Cycles:    1,
		Epochs:    1,
	}
	// Second combination cannot be windowed; the whole search must abort.
	grid := &Grid{
		HiddenDims:    []int{4},
		NumLayers:     []int{1},
		LearningRates: []float64{0.01},
		SeqLengths:    []int{8, 50},
		DropoutRates:  []float64{0},
	}

	best, err := orchestrator.Run(context.Background(), grid)
	assert.Error(t, err)
	assert.Nil(t, best)
}

func TestOrchestratorRejectsEmptyGrid(t *testing.T) {
	logger, _ := test.NewNullLogger()
	orchestrator := &GridSearchOrchestrator{Logger: logger}

	_, err := orchestrator.Run(context.Background(), &Grid{})
	assert.Error(t, err)
}
