// Package telemetry holds the progress sinks for training and walk-forward
// cycles. Sinks are observational only; nothing here feeds back into the
// search.
package telemetry

import (
	"github.com/sirupsen/logrus"

	"github.com/irfndi/gruforecast/internal/search"
)

// ProgressLogger logs epoch losses and cycle outcomes through logrus. It
// implements gru.EpochObserver and search.CycleObserver.
type ProgressLogger struct {
	logger *logrus.Logger
}

// NewProgressLogger wraps a logrus logger as a progress sink.
func NewProgressLogger(logger *logrus.Logger) *ProgressLogger {
	return &ProgressLogger{logger: logger}
}

// ObserveEpoch logs one training-loss observation.
func (p *ProgressLogger) ObserveEpoch(epoch int, loss float64) {
	p.logger.WithFields(logrus.Fields{
		"epoch": epoch,
		"loss":  loss,
	}).Debug("Train loss")
}

// ObserveCycle logs one cycle's forecast against the realized row. A missing
// actual is reported as absent, never as zeros.
func (p *ProgressLogger) ObserveCycle(params search.HyperparameterSet, cycle int, record search.PredictionRecord, loss float64) {
	fields := logrus.Fields{
		"params":        params.String(),
		"cycle":         cycle,
		"forecast_date": record.ForecastDate,
		"predicted":     record.Denormalized,
		"loss":          loss,
	}
	if record.Actual != nil {
		fields["actual"] = record.Actual
	} else {
		fields["actual"] = "not yet available"
	}
	p.logger.WithFields(fields).Info("Cycle complete")
}

// LogBestSummary reports the final selection of a search run.
func (p *ProgressLogger) LogBestSummary(best *search.BestCandidate) {
	fields := logrus.Fields{
		"params":        best.Params.String(),
		"loss":          best.Loss,
		"forecast_date": best.Record.ForecastDate,
		"predicted":     best.Record.Denormalized,
	}
	if best.Record.Actual != nil {
		fields["actual"] = best.Record.Actual
	} else {
		fields["actual"] = "not yet available"
	}
	p.logger.WithFields(fields).Info("Best configuration")
}
