package dataset

import (
	"errors"
	"fmt"
)

// Normalized values land in [-1, 1], matching the scaler range the forecaster
// was tuned against. Values outside the fitted range extrapolate linearly.
const (
	scaleMin = -1.0
	scaleMax = 1.0
)

// ErrDegenerateColumn reports a constant-valued feature column. A flat column
// gives the affine map zero spread, so fitting fails fast instead of clamping.
var ErrDegenerateColumn = errors.New("dataset: constant feature column cannot be normalized")

// Scaler holds the per-column affine parameters fitted from one matrix.
// InverseTransform is the exact inverse of the fitted map.
type Scaler struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// FitTransform fits column-wise min/max scaling on matrix and returns the
// normalized copy plus the fitted scaler. The input matrix is not modified.
func FitTransform(m *FeatureMatrix) (*FeatureMatrix, *Scaler, error) {
	if m.IsEmpty() {
		return nil, nil, errors.New("dataset: cannot fit scaler on empty matrix")
	}
	cols := m.NumCols()
	scaler := &Scaler{Min: make([]float64, cols), Max: make([]float64, cols)}
	for c := 0; c < cols; c++ {
		lo, hi := m.Rows[0][c], m.Rows[0][c]
		for _, row := range m.Rows[1:] {
			if row[c] < lo {
				lo = row[c]
			}
			if row[c] > hi {
				hi = row[c]
			}
		}
		if lo == hi {
			return nil, nil, fmt.Errorf("%w: column %q", ErrDegenerateColumn, m.Columns[c])
		}
		scaler.Min[c] = lo
		scaler.Max[c] = hi
	}

	rows := make([][]float64, m.NumRows())
	for i, row := range m.Rows {
		rows[i] = scaler.Transform(row)
	}
	normalized := &FeatureMatrix{Columns: m.Columns, Dates: m.Dates, Rows: rows}
	return normalized, scaler, nil
}

// Transform maps one row into the scaler's target interval.
func (s *Scaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for c, v := range row {
		span := s.Max[c] - s.Min[c]
		out[c] = scaleMin + (v-s.Min[c])*(scaleMax-scaleMin)/span
	}
	return out
}

// InverseTransform maps one normalized row back to original units.
func (s *Scaler) InverseTransform(row []float64) []float64 {
	out := make([]float64, len(row))
	for c, v := range row {
		span := s.Max[c] - s.Min[c]
		out[c] = s.Min[c] + (v-scaleMin)*span/(scaleMax-scaleMin)
	}
	return out
}
