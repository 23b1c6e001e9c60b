package search

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/gruforecast/internal/compute"
	"github.com/irfndi/gruforecast/internal/dataset"
)

// stubProvider serves a synthetic daily matrix and records every fetch.
type stubProvider struct {
	matrix *dataset.FeatureMatrix
	calls  []fetchCall
}

type fetchCall struct {
	start time.Time
	end   time.Time
}

func syntheticProvider(base time.Time, days, cols int) *stubProvider {
	columns := make([]string, cols)
	dates := make([]time.Time, days)
	rows := make([][]float64, days)
	for j := range columns {
		columns[j] = "f" + string(rune('0'+j))
	}
	for i := 0; i < days; i++ {
		dates[i] = base.AddDate(0, 0, i)
		row := make([]float64, cols)
		for j := range row {
			row[j] = math.Sin(float64(i)*0.3+float64(j)) + float64(i)*0.01
		}
		rows[i] = row
	}
	matrix := &dataset.FeatureMatrix{Columns: columns, Dates: dates, Rows: rows}
	return &stubProvider{matrix: matrix}
}

func (s *stubProvider) Fetch(_ context.Context, _ string, start, end time.Time) (*dataset.FeatureMatrix, error) {
	s.calls = append(s.calls, fetchCall{start: start, end: end})
	var dates []time.Time
	var rows [][]float64
	for i, date := range s.matrix.Dates {
		if date.Before(start) || !date.Before(end) {
			continue
		}
		dates = append(dates, date)
		rows = append(rows, s.matrix.Rows[i])
	}
	return &dataset.FeatureMatrix{Columns: s.matrix.Columns, Dates: dates, Rows: rows}, nil
}

// trainingFetches counts fetches anchored at the fixed start date, i.e. one
// per walk-forward cycle.
func (s *stubProvider) trainingFetches(start time.Time) int {
	n := 0
	for _, call := range s.calls {
		if call.start.Equal(start) {
			n++
		}
	}
	return n
}

func fastParams() HyperparameterSet {
	return HyperparameterSet{HiddenDim: 4, NumLayers: 1, LearningRate: 0.01, SeqLength: 8, DropoutRate: 0}
}

func TestWalkForwardAdvancesEndDateByCycleCount(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	provider := syntheticProvider(base, 40, 3)
	tracker := NewBestCandidateTracker()
	logger, _ := test.NewNullLogger()

	endDate := base.AddDate(0, 0, 30)
	controller := NewWalkForwardController(
		fastParams(), provider, compute.NewContext(1), tracker, logger,
		"TEST", base, endDate, 3, 2, nil, nil,
	)

	finalEnd, err := controller.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, endDate.AddDate(0, 0, 3), finalEnd)
	assert.Equal(t, 3, provider.trainingFetches(base))

	best := tracker.Best()
	require.NotNil(t, best)
	assert.False(t, math.IsNaN(best.Loss))
	assert.Len(t, best.Record.Denormalized, 3)
}

func TestWalkForwardRecordsActualWhenAvailable(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	provider := syntheticProvider(base, 40, 3)
	tracker := NewBestCandidateTracker()
	logger, _ := test.NewNullLogger()

	controller := NewWalkForwardController(
		fastParams(), provider, compute.NewContext(1), tracker, logger,
		"TEST", base, base.AddDate(0, 0, 30), 1, 2, nil, nil,
	)
	_, err := controller.Run(context.Background())
	require.NoError(t, err)

	best := tracker.Best()
	require.NotNil(t, best)
	// Day 30 exists in the synthetic series.
	assert.Equal(t, provider.matrix.Rows[30], best.Record.Actual)
	assert.Equal(t, base.AddDate(0, 0, 30).Format("2006-01-02"), best.Record.ForecastDate)
}

func TestWalkForwardMissingActualStaysAbsent(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	provider := syntheticProvider(base, 30, 3) // nothing beyond the window
	tracker := NewBestCandidateTracker()
	logger, _ := test.NewNullLogger()

	controller := NewWalkForwardController(
		fastParams(), provider, compute.NewContext(1), tracker, logger,
		"TEST", base, base.AddDate(0, 0, 30), 1, 2, nil, nil,
	)
	_, err := controller.Run(context.Background())
	require.NoError(t, err)

	best := tracker.Best()
	require.NotNil(t, best)
	assert.Nil(t, best.Record.Actual, "missing market data must stay nil, not zeros")
}

func TestWalkForwardInsufficientDataAborts(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	provider := syntheticProvider(base, 30, 3)
	tracker := NewBestCandidateTracker()
	logger, _ := test.NewNullLogger()

	params := fastParams()
	params.SeqLength = 50
	controller := NewWalkForwardController(
		params, provider, compute.NewContext(1), tracker, logger,
		"TEST", base, base.AddDate(0, 0, 30), 1, 2, nil, nil,
	)
	_, err := controller.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrInsufficientData)
	assert.Contains(t, err.Error(), params.String(), "error must identify the configuration")
	assert.Nil(t, tracker.Best(), "no candidate recorded on failure")
}

type countingCycleObserver struct {
	cycles []int
}

func (c *countingCycleObserver) ObserveCycle(_ HyperparameterSet, cycle int, _ PredictionRecord, _ float64) {
	c.cycles = append(c.cycles, cycle)
}

func TestWalkForwardNotifiesCycleObserver(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	provider := syntheticProvider(base, 40, 3)
	tracker := NewBestCandidateTracker()
	logger, _ := test.NewNullLogger()
	observer := &countingCycleObserver{}

	controller := NewWalkForwardController(
		fastParams(), provider, compute.NewContext(1), tracker, logger,
		"TEST", base, base.AddDate(0, 0, 30), 2, 1, nil, observer,
	)
	_, err := controller.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, observer.cycles)
}
