package benchmark

import (
	"math"
	"testing"

	"github.com/irfndi/gruforecast/internal/compute"
	"github.com/irfndi/gruforecast/internal/gru"
)

func benchmarkData(count, steps, features int) (windows [][][]float64, targets [][]float64) {
	for i := 0; i < count; i++ {
		window := make([][]float64, steps)
		for t := range window {
			row := make([]float64, features)
			for j := range row {
				row[j] = math.Sin(float64(i+t+j) * 0.1)
			}
			window[t] = row
		}
		target := make([]float64, features)
		for j := range target {
			target[j] = math.Sin(float64(i+steps+j) * 0.1)
		}
		windows = append(windows, window)
		targets = append(targets, target)
	}
	return windows, targets
}

func BenchmarkTrainerEpoch(b *testing.B) {
	windows, targets := benchmarkData(60, 20, 21)
	ctx := compute.NewContext(1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		model := gru.NewModel(ctx, 21, 32, 2, 21, 0.1)
		trainer := gru.NewTrainer(0.001, 1, nil)
		trainer.Fit(model, windows, targets)
	}
}

func BenchmarkForward(b *testing.B) {
	windows, _ := benchmarkData(1, 60, 21)
	ctx := compute.NewContext(1)
	model := gru.NewModel(ctx, 21, 64, 2, 21, 0)
	model.Eval()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		model.Forward(windows[0])
	}
}
