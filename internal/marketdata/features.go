package marketdata

import (
	"fmt"
	"math"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/cinar/indicator/v2/volatility"
	"github.com/cinar/indicator/v2/volume"

	"github.com/irfndi/gruforecast/internal/dataset"
)

// FeatureConfig holds the indicator periods for the feature pipeline.
type FeatureConfig struct {
	BBPeriod    int     `json:"bb_period"`
	BBStdDev    float64 `json:"bb_std_dev"`
	MACDFast    int     `json:"macd_fast"`
	MACDSlow    int     `json:"macd_slow"`
	MACDSignal  int     `json:"macd_signal"`
	RSIPeriod   int     `json:"rsi_period"`
	VWAPPeriod  int     `json:"vwap_period"`
	SMAPeriod   int     `json:"sma_period"`
	EMAPeriod   int     `json:"ema_period"`
	StochPeriod int     `json:"stoch_period"`
	StochSignal int     `json:"stoch_signal"`
	ATRPeriod   int     `json:"atr_period"`
	CCIPeriod   int     `json:"cci_period"`
}

// DefaultFeatureConfig returns the periods the forecaster was built around.
func DefaultFeatureConfig() *FeatureConfig {
	return &FeatureConfig{
		BBPeriod:    20,
		BBStdDev:    2.0,
		MACDFast:    12,
		MACDSlow:    26,
		MACDSignal:  9,
		RSIPeriod:   14,
		VWAPPeriod:  14,
		SMAPeriod:   14,
		EMAPeriod:   14,
		StochPeriod: 14,
		StochSignal: 3,
		ATRPeriod:   14,
		CCIPeriod:   20,
	}
}

// FeatureBuilder turns raw candles into the model's feature matrix: OHLCV
// plus the technical-indicator columns. Rows inside each indicator's warm-up
// period are dropped so the matrix has no undefined values.
type FeatureBuilder struct {
	config *FeatureConfig
}

// NewFeatureBuilder builds a feature builder; a nil config uses defaults.
func NewFeatureBuilder(config *FeatureConfig) *FeatureBuilder {
	if config == nil {
		config = DefaultFeatureConfig()
	}
	return &FeatureBuilder{config: config}
}

// featureColumns is the fixed column order of the produced matrix.
var featureColumns = []string{
	"open", "high", "low", "close", "volume",
	"bb_mid", "bb_high", "bb_low",
	"macd", "macd_signal", "macd_diff",
	"rsi", "vwap", "daily_return",
	"sma", "ema",
	"stoch_k", "stoch_d",
	"atr", "cci", "obv",
}

// Build computes every feature column and returns the tail-aligned matrix.
// Indicator outputs are aligned to the end of the candle series, so the
// common defined region is the last N rows where N is the shortest column.
func (fb *FeatureBuilder) Build(candles []Candle) (*dataset.FeatureMatrix, error) {
	if len(candles) == 0 {
		matrix, _ := dataset.NewFeatureMatrix(featureColumns, nil, nil)
		return matrix, nil
	}

	n := len(candles)
	dates := make([]time.Time, n)
	opens := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, c := range candles {
		dates[i] = c.Date
		opens[i] = c.Open.InexactFloat64()
		highs[i] = c.High.InexactFloat64()
		lows[i] = c.Low.InexactFloat64()
		closes[i] = c.Close.InexactFloat64()
		volumes[i] = c.Volume.InexactFloat64()
	}
	cfg := fb.config

	bbMid, bbHigh, bbLow := bollingerBands(closes, cfg.BBPeriod, cfg.BBStdDev)

	macdIndicator := trend.NewMacdWithPeriod[float64](cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	macdChan, signalChan := macdIndicator.Compute(helper.SliceToChan(closes))
	// Both outputs share an unbuffered upstream; drain them concurrently or
	// the producer blocks.
	signalDone := make(chan []float64, 1)
	go func() { signalDone <- helper.ChanToSlice(signalChan) }()
	macdLine := helper.ChanToSlice(macdChan)
	macdSignal := <-signalDone
	macdDiff := subTail(macdLine, macdSignal)

	rsiIndicator := momentum.NewRsiWithPeriod[float64](cfg.RSIPeriod)
	rsi := helper.ChanToSlice(rsiIndicator.Compute(helper.SliceToChan(closes)))

	smaIndicator := trend.NewSmaWithPeriod[float64](cfg.SMAPeriod)
	sma := helper.ChanToSlice(smaIndicator.Compute(helper.SliceToChan(closes)))

	emaIndicator := trend.NewEmaWithPeriod[float64](cfg.EMAPeriod)
	ema := helper.ChanToSlice(emaIndicator.Compute(helper.SliceToChan(closes)))

	atrIndicator := volatility.NewAtr[float64]()
	atr := helper.ChanToSlice(atrIndicator.Compute(
		helper.SliceToChan(highs), helper.SliceToChan(lows), helper.SliceToChan(closes)))

	obvIndicator := volume.NewObv[float64]()
	obv := helper.ChanToSlice(obvIndicator.Compute(
		helper.SliceToChan(closes), helper.SliceToChan(volumes)))

	stochK, stochD := stochastic(highs, lows, closes, cfg.StochPeriod, cfg.StochSignal)

	columns := [][]float64{
		opens, highs, lows, closes, volumes,
		bbMid, bbHigh, bbLow,
		macdLine, macdSignal, macdDiff,
		rsi,
		vwap(highs, lows, closes, volumes, cfg.VWAPPeriod),
		dailyReturns(closes),
		sma, ema,
		stochK, stochD,
		atr,
		cci(highs, lows, closes, cfg.CCIPeriod),
		obv,
	}

	// Shortest column bounds the defined region.
	aligned := n
	for _, col := range columns {
		if len(col) < aligned {
			aligned = len(col)
		}
	}
	if aligned == 0 {
		return nil, fmt.Errorf("marketdata: %d candles are inside the indicator warm-up period", n)
	}

	rows := make([][]float64, aligned)
	for i := 0; i < aligned; i++ {
		row := make([]float64, len(columns))
		for j, col := range columns {
			row[j] = col[len(col)-aligned+i]
		}
		rows[i] = row
	}
	return dataset.NewFeatureMatrix(featureColumns, dates[n-aligned:], rows)
}

// bollingerBands returns middle/upper/lower bands, warm-up trimmed.
func bollingerBands(closes []float64, period int, stdDev float64) (mid, high, low []float64) {
	if len(closes) < period {
		return nil, nil, nil
	}
	out := len(closes) - period + 1
	mid = make([]float64, out)
	high = make([]float64, out)
	low = make([]float64, out)
	for i := 0; i < out; i++ {
		window := closes[i : i+period]
		var sum float64
		for _, v := range window {
			sum += v
		}
		mean := sum / float64(period)
		var variance float64
		for _, v := range window {
			d := v - mean
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(period))
		mid[i] = mean
		high[i] = mean + stdDev*sd
		low[i] = mean - stdDev*sd
	}
	return mid, high, low
}

// stochastic returns %K over period and %D as its signal-period average.
func stochastic(highs, lows, closes []float64, period, signal int) (k, d []float64) {
	if len(closes) < period+signal-1 {
		return nil, nil
	}
	kAll := make([]float64, len(closes)-period+1)
	for i := period - 1; i < len(closes); i++ {
		hi, lo := highs[i-period+1], lows[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		if hi == lo {
			kAll[i-period+1] = 50
		} else {
			kAll[i-period+1] = (closes[i] - lo) / (hi - lo) * 100
		}
	}
	d = make([]float64, len(kAll)-signal+1)
	for i := signal - 1; i < len(kAll); i++ {
		var sum float64
		for j := i - signal + 1; j <= i; j++ {
			sum += kAll[j]
		}
		d[i-signal+1] = sum / float64(signal)
	}
	return kAll, d
}

// vwap is the rolling volume-weighted average of the typical price.
func vwap(highs, lows, closes, volumes []float64, period int) []float64 {
	if len(closes) < period {
		return nil
	}
	out := make([]float64, len(closes)-period+1)
	for i := period - 1; i < len(closes); i++ {
		var pv, vol float64
		for j := i - period + 1; j <= i; j++ {
			tp := (highs[j] + lows[j] + closes[j]) / 3
			pv += tp * volumes[j]
			vol += volumes[j]
		}
		if vol == 0 {
			out[i-period+1] = closes[i]
		} else {
			out[i-period+1] = pv / vol
		}
	}
	return out
}

// cci is the commodity channel index over the typical price.
func cci(highs, lows, closes []float64, period int) []float64 {
	if len(closes) < period {
		return nil
	}
	tps := make([]float64, len(closes))
	for i := range closes {
		tps[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	out := make([]float64, len(closes)-period+1)
	for i := period - 1; i < len(tps); i++ {
		window := tps[i-period+1 : i+1]
		var sum float64
		for _, v := range window {
			sum += v
		}
		mean := sum / float64(period)
		var dev float64
		for _, v := range window {
			dev += math.Abs(v - mean)
		}
		dev /= float64(period)
		if dev == 0 {
			out[i-period+1] = 0
		} else {
			out[i-period+1] = (tps[i] - mean) / (0.015 * dev)
		}
	}
	return out
}

// dailyReturns is the one-day percent change of the close.
func dailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out[i-1] = (closes[i] - closes[i-1]) / closes[i-1] * 100
	}
	return out
}

// subTail subtracts b from a after aligning both to their common tail.
func subTail(a, b []float64) []float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = a[len(a)-n+i] - b[len(b)-n+i]
	}
	return out
}
