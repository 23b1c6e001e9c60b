package marketdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

const csvDateLayout = "2006-01-02"

// LoadCandlesCSV reads daily candles from a date,open,high,low,close,volume
// file with a header row. Rows must be date-ascending; the loader verifies
// ordering rather than sorting, so a malformed export fails loudly.
func LoadCandlesCSV(path string) ([]Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("marketdata: open candle file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("marketdata: read candle file: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("marketdata: candle file %s has no data rows", path)
	}

	candles := make([]Candle, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != 6 {
			return nil, fmt.Errorf("marketdata: row %d has %d fields, expected 6", i+2, len(record))
		}
		date, err := time.Parse(csvDateLayout, record[0])
		if err != nil {
			return nil, fmt.Errorf("marketdata: row %d: %w", i+2, err)
		}
		fields := make([]decimal.Decimal, 5)
		for j, raw := range record[1:] {
			fields[j], err = decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("marketdata: row %d column %d: %w", i+2, j+1, err)
			}
		}
		candle := Candle{
			Date:   date,
			Open:   fields[0],
			High:   fields[1],
			Low:    fields[2],
			Close:  fields[3],
			Volume: fields[4],
		}
		if len(candles) > 0 && !candle.Date.After(candles[len(candles)-1].Date) {
			return nil, fmt.Errorf("marketdata: row %d: dates out of order at %s", i+2, record[0])
		}
		candles = append(candles, candle)
	}
	return candles, nil
}
