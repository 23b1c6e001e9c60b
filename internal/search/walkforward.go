package search

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/gruforecast/internal/compute"
	"github.com/irfndi/gruforecast/internal/dataset"
	"github.com/irfndi/gruforecast/internal/gru"
	"github.com/irfndi/gruforecast/internal/marketdata"
)

// CycleObserver receives one observation per completed walk-forward cycle.
// Purely observational; it must not influence the search.
type CycleObserver interface {
	ObserveCycle(params HyperparameterSet, cycle int, record PredictionRecord, loss float64)
}

const dateLayout = "2006-01-02"

// WalkForwardController evaluates one hyperparameter configuration by
// repeatedly retraining on the data window and forecasting the next day,
// then growing the window by that day. The start date never moves; the end
// date advances by exactly one day per cycle.
type WalkForwardController struct {
	params   HyperparameterSet
	provider marketdata.Provider
	compute  *compute.Context
	tracker  *BestCandidateTracker
	logger   *logrus.Logger

	ticker    string
	startDate time.Time
	endDate   time.Time
	cycles    int
	epochs    int

	epochObserver gru.EpochObserver
	cycleObserver CycleObserver
}

// NewWalkForwardController wires a controller for one configuration.
// Observers may be nil.
func NewWalkForwardController(
	params HyperparameterSet,
	provider marketdata.Provider,
	computeCtx *compute.Context,
	tracker *BestCandidateTracker,
	logger *logrus.Logger,
	ticker string,
	startDate, endDate time.Time,
	cycles, epochs int,
	epochObserver gru.EpochObserver,
	cycleObserver CycleObserver,
) *WalkForwardController {
	return &WalkForwardController{
		params:        params,
		provider:      provider,
		compute:       computeCtx,
		tracker:       tracker,
		logger:        logger,
		ticker:        ticker,
		startDate:     startDate,
		endDate:       endDate,
		cycles:        cycles,
		epochs:        epochs,
		epochObserver: epochObserver,
		cycleObserver: cycleObserver,
	}
}

// Run executes the configured number of cycles and returns the final end
// date (start end date plus one day per cycle). The first failing cycle
// aborts the run; there is no retry and no early stopping.
func (c *WalkForwardController) Run(ctx context.Context) (time.Time, error) {
	endDate := c.endDate
	for cycle := 0; cycle < c.cycles; cycle++ {
		var err error
		endDate, err = c.runCycle(ctx, cycle, endDate)
		if err != nil {
			return endDate, fmt.Errorf("walk-forward cycle %d of configuration [%s]: %w", cycle, c.params, err)
		}
	}
	return endDate, nil
}

func (c *WalkForwardController) runCycle(ctx context.Context, cycle int, endDate time.Time) (time.Time, error) {
	matrix, err := c.provider.Fetch(ctx, c.ticker, c.startDate, endDate)
	if err != nil {
		return endDate, fmt.Errorf("fetch training data: %w", err)
	}

	normalized, scaler, err := dataset.FitTransform(matrix)
	if err != nil {
		return endDate, err
	}
	seqs, err := dataset.MakeSequences(normalized, c.params.SeqLength)
	if err != nil {
		return endDate, err
	}

	features := matrix.NumCols()
	model := gru.NewModel(c.compute, features, c.params.HiddenDim, c.params.NumLayers, features, c.params.DropoutRate)
	trainer := gru.NewTrainer(c.params.LearningRate, c.epochs, c.epochObserver)
	trainer.Fit(model, seqs.Windows, seqs.Targets)

	prediction := model.Forward(seqs.LatestWindow())
	denormalized := scaler.InverseTransform(prediction)

	nextDate := endDate.AddDate(0, 0, 1)
	actual, err := c.provider.Fetch(ctx, c.ticker, nextDate, nextDate.AddDate(0, 0, 1))
	if err != nil {
		return endDate, fmt.Errorf("fetch realized data for %s: %w", nextDate.Format(dateLayout), err)
	}

	record := PredictionRecord{
		ForecastDate: nextDate.Format(dateLayout),
		Normalized:   prediction,
		Denormalized: denormalized,
	}
	if !actual.IsEmpty() {
		record.Actual = actual.FirstRow()
	}

	// Training loss proxy for selection: the forecast against the most
	// recent realized target, both in normalized units.
	loss := gru.MSE(prediction, seqs.Targets[seqs.Count()-1])

	if c.tracker.Offer(c.params, model, record, loss) && c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"params": c.params.String(),
			"loss":   loss,
		}).Info("New best candidate")
	}
	if c.cycleObserver != nil {
		c.cycleObserver.ObserveCycle(c.params, cycle, record, loss)
	}

	return nextDate, nil
}
