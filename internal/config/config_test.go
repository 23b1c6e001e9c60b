package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/gruforecast/internal/search"
)

func validConfig() *Config {
	return &Config{
		Environment: "development",
		LogLevel:    "info",
		Forecast: ForecastConfig{
			Ticker:         "SPY",
			StartDate:      "2019-01-01",
			EndDate:        "2024-01-01",
			Cycles:         1,
			Epochs:         150,
			CheckpointPath: "best_model.json",
			Seed:           42,
		},
		Grid: search.Grid{
			HiddenDims:    []int{32, 64},
			NumLayers:     []int{2},
			LearningRates: []float64{0.001},
			SeqLengths:    []int{60},
			DropoutRates:  []float64{0.1},
		},
		Data: DataConfig{CandlesCSV: "data/candles.csv"},
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), cfg.StartDate())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cfg.EndDate())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing ticker", func(c *Config) { c.Forecast.Ticker = "" }},
		{"bad start date", func(c *Config) { c.Forecast.StartDate = "01/01/2019" }},
		{"bad end date", func(c *Config) { c.Forecast.EndDate = "soon" }},
		{"end before start", func(c *Config) { c.Forecast.EndDate = "2018-01-01" }},
		{"end equals start", func(c *Config) { c.Forecast.EndDate = "2019-01-01" }},
		{"zero cycles", func(c *Config) { c.Forecast.Cycles = 0 }},
		{"negative epochs", func(c *Config) { c.Forecast.Epochs = -1 }},
		{"empty grid axis", func(c *Config) { c.Grid.HiddenDims = nil }},
		{"non-positive hidden dim", func(c *Config) { c.Grid.HiddenDims = []int{0} }},
		{"non-positive layers", func(c *Config) { c.Grid.NumLayers = []int{-1} }},
		{"zero learning rate", func(c *Config) { c.Grid.LearningRates = []float64{0} }},
		{"zero seq length", func(c *Config) { c.Grid.SeqLengths = []int{0} }},
		{"negative dropout", func(c *Config) { c.Grid.DropoutRates = []float64{-0.1} }},
		{"dropout of one", func(c *Config) { c.Grid.DropoutRates = []float64{1.0} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateZeroEpochsIsAllowed(t *testing.T) {
	cfg := validConfig()
	cfg.Forecast.Epochs = 0
	assert.NoError(t, cfg.Validate())
}
