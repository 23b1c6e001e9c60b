package search

import (
	"github.com/irfndi/gruforecast/internal/gru"
)

// BestCandidateTracker records the best candidate seen across a search run.
// It is owned by the orchestrator and passed by reference; there is no
// package-level state. The engine is strictly sequential, so Offer needs no
// locking here; a parallel orchestrator would have to serialize calls.
//
// A candidate replaces the current best when any of these holds:
//
//	(a) no best exists yet;
//	(b) its denormalized prediction is component-wise strictly greater
//	    than the stored one;
//	(c) its loss is strictly lower than the stored loss.
//
// Rules (b) and (c) are checked independently, matching the established
// selection behavior this engine replicates. See DESIGN.md for the decision
// to keep (b).
type BestCandidateTracker struct {
	best *BestCandidate
}

// NewBestCandidateTracker returns an empty tracker.
func NewBestCandidateTracker() *BestCandidateTracker {
	return &BestCandidateTracker{}
}

// Best returns the current best candidate, or nil before the first offer.
func (t *BestCandidateTracker) Best() *BestCandidate {
	return t.best
}

// Offer considers one cycle's result. On replacement the model is
// deep-cloned, so later training steps on the live model cannot corrupt the
// stored candidate. Returns true when the candidate became the new best.
func (t *BestCandidateTracker) Offer(params HyperparameterSet, model *gru.Model, record PredictionRecord, loss float64) bool {
	if t.best == nil {
		t.store(params, model, record, loss)
		return true
	}
	replaced := false
	if allGreater(record.Denormalized, t.best.Record.Denormalized) {
		t.store(params, model, record, loss)
		replaced = true
	}
	if loss < t.best.Loss {
		t.store(params, model, record, loss)
		replaced = true
	}
	return replaced
}

func (t *BestCandidateTracker) store(params HyperparameterSet, model *gru.Model, record PredictionRecord, loss float64) {
	t.best = &BestCandidate{
		Params: params,
		Model:  model.Clone(),
		Record: record,
		Loss:   loss,
	}
}

// allGreater reports whether every component of a strictly exceeds the
// corresponding component of b.
func allGreater(a, b []float64) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	for i := range a {
		if a[i] <= b[i] {
			return false
		}
	}
	return true
}
