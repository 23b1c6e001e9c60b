package dataset

import (
	"fmt"
	"time"
)

// FeatureMatrix is a time-ordered block of numeric feature rows. Rows are
// ordered by date ascending, every row has the same column count and no
// missing values. Providers hand out finished matrices; nothing mutates one
// after construction.
type FeatureMatrix struct {
	Columns []string
	Dates   []time.Time
	Rows    [][]float64
}

// NewFeatureMatrix validates row/date alignment and column widths.
func NewFeatureMatrix(columns []string, dates []time.Time, rows [][]float64) (*FeatureMatrix, error) {
	if len(dates) != len(rows) {
		return nil, fmt.Errorf("dataset: %d dates for %d rows", len(dates), len(rows))
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("dataset: row %d has %d values, expected %d", i, len(row), len(columns))
		}
	}
	return &FeatureMatrix{Columns: columns, Dates: dates, Rows: rows}, nil
}

// NumRows returns the row count.
func (m *FeatureMatrix) NumRows() int {
	if m == nil {
		return 0
	}
	return len(m.Rows)
}

// NumCols returns the feature column count.
func (m *FeatureMatrix) NumCols() int {
	if m == nil {
		return 0
	}
	return len(m.Columns)
}

// IsEmpty reports whether the matrix holds no rows. Providers legitimately
// return empty matrices for non-trading dates.
func (m *FeatureMatrix) IsEmpty() bool {
	return m.NumRows() == 0
}

// FirstRow returns the earliest row, or nil for an empty matrix.
func (m *FeatureMatrix) FirstRow() []float64 {
	if m.IsEmpty() {
		return nil
	}
	return m.Rows[0]
}
