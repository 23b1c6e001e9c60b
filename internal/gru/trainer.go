package gru

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// EpochObserver receives (epoch, loss) observations during training. It is a
// side channel for progress reporting and must not influence the numerics.
type EpochObserver interface {
	ObserveEpoch(epoch int, loss float64)
}

// lossReportInterval is the epoch cadence at which training loss is emitted.
const lossReportInterval = 10

// Adam hyperparameters. Only the learning rate is searched; the moment
// decay rates stay at their customary values.
const (
	adamBeta1 = 0.9
	adamBeta2 = 0.999
	adamEps   = 1e-8
)

// adamState carries bias-corrected first and second moment estimates for one
// parameter matrix.
type adamState struct {
	m []float64
	v []float64
}

// Trainer runs full-batch gradient descent with the Adam update rule.
// Optimizer state lives for one Fit call; walk-forward cycles always train a
// fresh model from scratch.
type Trainer struct {
	LearningRate float64
	Epochs       int
	Observer     EpochObserver
}

// NewTrainer builds a trainer. observer may be nil.
func NewTrainer(learningRate float64, epochs int, observer EpochObserver) *Trainer {
	return &Trainer{LearningRate: learningRate, Epochs: epochs, Observer: observer}
}

// Fit runs the configured number of full-batch epochs over the given
// window/target pairs and returns the loss of the final epoch. Zero epochs
// is a valid no-op: the model's initial weights pass through untouched and
// the returned loss is NaN. The model is left in eval mode.
func (t *Trainer) Fit(model *Model, windows [][][]float64, targets [][]float64) float64 {
	model.Train()
	defer model.Eval()

	batch := len(windows)
	y := mat.NewDense(batch, model.OutputDim, nil)
	for b, target := range targets {
		y.SetRow(b, target)
	}

	params := model.Parameters()
	states := make([]*adamState, len(params))
	for i, p := range params {
		n := len(p.RawMatrix().Data)
		states[i] = &adamState{m: make([]float64, n), v: make([]float64, n)}
	}

	loss := math.NaN()
	for epoch := 0; epoch < t.Epochs; epoch++ {
		out, cache := model.forwardBatch(windows)
		loss = mseDense(out, y)
		grads := model.backward(cache, y)
		t.step(params, grads, states, epoch+1)

		if t.Observer != nil && epoch%lossReportInterval == 0 {
			t.Observer.ObserveEpoch(epoch, loss)
		}
	}
	return loss
}

// step applies one bias-corrected Adam update to every parameter.
func (t *Trainer) step(params, grads []*mat.Dense, states []*adamState, stepCount int) {
	c1 := 1 - math.Pow(adamBeta1, float64(stepCount))
	c2 := 1 - math.Pow(adamBeta2, float64(stepCount))
	for i, p := range params {
		data := p.RawMatrix().Data
		g := grads[i].RawMatrix().Data
		st := states[i]
		for j := range data {
			st.m[j] = adamBeta1*st.m[j] + (1-adamBeta1)*g[j]
			st.v[j] = adamBeta2*st.v[j] + (1-adamBeta2)*g[j]*g[j]
			mHat := st.m[j] / c1
			vHat := st.v[j] / c2
			data[j] -= t.LearningRate * mHat / (math.Sqrt(vHat) + adamEps)
		}
	}
}
