package marketdata

import (
	"context"
	"strings"
	"time"

	"github.com/irfndi/gruforecast/internal/dataset"
)

// CSVProvider serves feature matrices from a candle file loaded once at
// startup. The indicator pipeline runs once over the full history so that
// single-day queries (the walk-forward "actual" fetch) still have fully
// warmed-up indicator values. It stands in for a live market-data vendor:
// queries for days the file does not cover come back empty, exactly like
// querying a vendor for a future or non-trading date.
type CSVProvider struct {
	ticker string
	matrix *dataset.FeatureMatrix
}

// NewCSVProvider loads candles for one ticker from path and precomputes the
// feature matrix. A nil builder uses the default indicator periods.
func NewCSVProvider(ticker, path string, builder *FeatureBuilder) (*CSVProvider, error) {
	candles, err := LoadCandlesCSV(path)
	if err != nil {
		return nil, err
	}
	if builder == nil {
		builder = NewFeatureBuilder(nil)
	}
	matrix, err := builder.Build(candles)
	if err != nil {
		return nil, err
	}
	return &CSVProvider{ticker: ticker, matrix: matrix}, nil
}

// Fetch returns the feature rows with start <= date < end. Unknown tickers
// and uncovered ranges yield an empty matrix, not an error.
func (p *CSVProvider) Fetch(_ context.Context, ticker string, start, end time.Time) (*dataset.FeatureMatrix, error) {
	var dates []time.Time
	var rows [][]float64
	if strings.EqualFold(ticker, p.ticker) {
		for i, date := range p.matrix.Dates {
			if date.Before(start) || !date.Before(end) {
				continue
			}
			dates = append(dates, date)
			rows = append(rows, p.matrix.Rows[i])
		}
	}
	return dataset.NewFeatureMatrix(p.matrix.Columns, dates, rows)
}
