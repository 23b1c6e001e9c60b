package dataset

import (
	"errors"
	"fmt"
)

// ErrInsufficientData reports a matrix too short to cut at least one
// window/target pair from.
var ErrInsufficientData = errors.New("dataset: not enough rows for the requested sequence length")

// Sequences pairs fixed-length input windows with their one-step-ahead
// target rows. Windows[i] holds seqLength consecutive rows; Targets[i] is
// the row immediately after Windows[i].
type Sequences struct {
	Windows [][][]float64
	Targets [][]float64
}

// Count returns the number of window/target pairs.
func (s *Sequences) Count() int {
	return len(s.Windows)
}

// LatestWindow returns the most recent input window, used for the
// next-step forecast after training.
func (s *Sequences) LatestWindow() [][]float64 {
	return s.Windows[len(s.Windows)-1]
}

// MakeSequences slides a window of seqLength rows one row at a time over the
// matrix, producing rows-seqLength-1 pairs. Window slices alias the matrix
// rows; callers treat them as read-only.
func MakeSequences(m *FeatureMatrix, seqLength int) (*Sequences, error) {
	if seqLength < 1 {
		return nil, fmt.Errorf("dataset: sequence length must be positive, got %d", seqLength)
	}
	n := m.NumRows() - seqLength - 1
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d rows, sequence length %d", ErrInsufficientData, m.NumRows(), seqLength)
	}

	seqs := &Sequences{
		Windows: make([][][]float64, 0, n),
		Targets: make([][]float64, 0, n),
	}
	for i := 0; i < n; i++ {
		seqs.Windows = append(seqs.Windows, m.Rows[i:i+seqLength])
		seqs.Targets = append(seqs.Targets, m.Rows[i+seqLength])
	}
	return seqs, nil
}
