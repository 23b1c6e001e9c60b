// Package marketdata supplies feature matrices for the forecasting engine:
// daily candles, the technical-indicator feature pipeline, and the provider
// contract the walk-forward loop consumes.
package marketdata

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/irfndi/gruforecast/internal/dataset"
)

// Candle is one daily OHLCV bar. Prices are decimals at the ingestion
// boundary; the feature pipeline converts to float64 for model math.
type Candle struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// Provider returns a finished, gap-free feature matrix for a ticker and date
// range. An empty matrix is a legal result (weekends, future dates); callers
// must handle it without erroring.
type Provider interface {
	Fetch(ctx context.Context, ticker string, start, end time.Time) (*dataset.FeatureMatrix, error)
}
