package search

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/gruforecast/internal/compute"
	"github.com/irfndi/gruforecast/internal/gru"
	"github.com/irfndi/gruforecast/internal/marketdata"
)

// GridSearchOrchestrator runs the walk-forward procedure once per grid
// combination, folding every cycle's result into one shared tracker. The
// enumeration order is fixed (Grid.Combinations) so runs with the same grid
// evaluate configurations in the same sequence. A failure in any
// configuration aborts the whole search; configurations are not isolated.
type GridSearchOrchestrator struct {
	Provider marketdata.Provider
	Compute  *compute.Context
	Logger   *logrus.Logger

	Ticker    string
	StartDate time.Time
	EndDate   time.Time
	Cycles    int
	Epochs    int

	EpochObserver gru.EpochObserver
	CycleObserver CycleObserver
}

// Run evaluates the full grid and returns the overall best candidate.
func (o *GridSearchOrchestrator) Run(ctx context.Context, grid *Grid) (*BestCandidate, error) {
	if grid.Size() == 0 {
		return nil, errors.New("search: empty hyperparameter grid")
	}

	tracker := NewBestCandidateTracker()
	combos := grid.Combinations()
	for i, params := range combos {
		if o.Logger != nil {
			o.Logger.WithFields(logrus.Fields{
				"combination": i + 1,
				"of":          len(combos),
				"params":      params.String(),
			}).Info("Training configuration")
		}
		controller := NewWalkForwardController(
			params, o.Provider, o.Compute, tracker, o.Logger,
			o.Ticker, o.StartDate, o.EndDate, o.Cycles, o.Epochs,
			o.EpochObserver, o.CycleObserver,
		)
		if _, err := controller.Run(ctx); err != nil {
			return nil, err
		}
	}
	return tracker.Best(), nil
}
