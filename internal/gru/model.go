// Package gru implements the recurrent sequence regressor, its trainer and
// checkpointing. The model consumes a window of feature vectors and predicts
// the full feature vector of the next time step.
package gru

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/irfndi/gruforecast/internal/compute"
)

// layer holds the parameters of one stacked GRU layer. Input weights are
// in×hidden, recurrent weights hidden×hidden, biases 1×hidden.
type layer struct {
	Wz, Wr, Wh *mat.Dense
	Uz, Ur, Uh *mat.Dense
	Bz, Br, Bh *mat.Dense
}

// Model is a stacked GRU with a dropout layer on the final hidden state and
// a dense head mapping hidden width to the output feature count. Recurrent
// state is zeroed at the start of every forward pass; there is no cross-call
// memory. Dropout is active only in training mode.
type Model struct {
	InputDim    int
	HiddenDim   int
	NumLayers   int
	OutputDim   int
	DropoutRate float64

	layers []*layer
	Wy     *mat.Dense
	By     *mat.Dense

	training bool
	ctx      *compute.Context
}

// NewModel builds a model with uniform(-1/sqrt(hidden), 1/sqrt(hidden))
// initialized weights drawn from the compute context's random source.
func NewModel(ctx *compute.Context, inputDim, hiddenDim, numLayers, outputDim int, dropoutRate float64) *Model {
	m := &Model{
		InputDim:    inputDim,
		HiddenDim:   hiddenDim,
		NumLayers:   numLayers,
		OutputDim:   outputDim,
		DropoutRate: dropoutRate,
		ctx:         ctx,
	}
	bound := 1.0 / math.Sqrt(float64(hiddenDim))
	for l := 0; l < numLayers; l++ {
		in := inputDim
		if l > 0 {
			in = hiddenDim
		}
		m.layers = append(m.layers, &layer{
			Wz: m.randomDense(in, hiddenDim, bound),
			Wr: m.randomDense(in, hiddenDim, bound),
			Wh: m.randomDense(in, hiddenDim, bound),
			Uz: m.randomDense(hiddenDim, hiddenDim, bound),
			Ur: m.randomDense(hiddenDim, hiddenDim, bound),
			Uh: m.randomDense(hiddenDim, hiddenDim, bound),
			Bz: m.randomDense(1, hiddenDim, bound),
			Br: m.randomDense(1, hiddenDim, bound),
			Bh: m.randomDense(1, hiddenDim, bound),
		})
	}
	m.Wy = m.randomDense(hiddenDim, outputDim, bound)
	m.By = m.randomDense(1, outputDim, bound)
	return m
}

func (m *Model) randomDense(rows, cols int, bound float64) *mat.Dense {
	data := make([]float64, rows*cols)
	rng := m.ctx.Rand()
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * bound
	}
	return mat.NewDense(rows, cols, data)
}

// Train switches dropout on. The trainer calls this before the epoch loop.
func (m *Model) Train() { m.training = true }

// Eval switches dropout off for inference. The trainer leaves the model in
// this mode on return.
func (m *Model) Eval() { m.training = false }

// Training reports the current mode.
func (m *Model) Training() bool { return m.training }

// Parameters returns all weight matrices in a fixed order (per layer
// Wz,Wr,Wh,Uz,Ur,Uh,Bz,Br,Bh, then the output head). The trainer and
// checkpointer rely on this ordering.
func (m *Model) Parameters() []*mat.Dense {
	var params []*mat.Dense
	for _, l := range m.layers {
		params = append(params, l.Wz, l.Wr, l.Wh, l.Uz, l.Ur, l.Uh, l.Bz, l.Br, l.Bh)
	}
	return append(params, m.Wy, m.By)
}

// Clone deep-copies the model's parameters into an independent instance in
// eval mode. Mutating the original afterwards does not affect the clone.
func (m *Model) Clone() *Model {
	clone := &Model{
		InputDim:    m.InputDim,
		HiddenDim:   m.HiddenDim,
		NumLayers:   m.NumLayers,
		OutputDim:   m.OutputDim,
		DropoutRate: m.DropoutRate,
		Wy:          mat.DenseCopyOf(m.Wy),
		By:          mat.DenseCopyOf(m.By),
		ctx:         m.ctx,
	}
	for _, l := range m.layers {
		clone.layers = append(clone.layers, &layer{
			Wz: mat.DenseCopyOf(l.Wz), Wr: mat.DenseCopyOf(l.Wr), Wh: mat.DenseCopyOf(l.Wh),
			Uz: mat.DenseCopyOf(l.Uz), Ur: mat.DenseCopyOf(l.Ur), Uh: mat.DenseCopyOf(l.Uh),
			Bz: mat.DenseCopyOf(l.Bz), Br: mat.DenseCopyOf(l.Br), Bh: mat.DenseCopyOf(l.Bh),
		})
	}
	return clone
}

// Forward runs a single window through the network and returns the predicted
// feature vector for the next time step.
func (m *Model) Forward(window [][]float64) []float64 {
	out, _ := m.forwardBatch([][][]float64{window})
	pred := make([]float64, m.OutputDim)
	mat.Row(pred, 0, out)
	return pred
}

// layerCache keeps the per-timestep activations one layer needs for
// backpropagation through time.
type layerCache struct {
	xs  []*mat.Dense // layer input at each step
	hps []*mat.Dense // hidden state before each step
	zs  []*mat.Dense // update gate
	rs  []*mat.Dense // reset gate
	ns  []*mat.Dense // candidate state
	rhs []*mat.Dense // reset gate applied to previous hidden
}

type forwardCache struct {
	layers   []*layerCache
	dropMask *mat.Dense // nil outside training mode
	hDrop    *mat.Dense // final hidden after dropout
	output   *mat.Dense
}

// forwardBatch runs all windows through the stacked layers at once.
// Per step: z = sigm(xWz + hUz + bz), r = sigm(xWr + hUr + br),
// n = tanh(xWh + (r.h)Uh + bh), h' = (1-z).n + z.h.
func (m *Model) forwardBatch(windows [][][]float64) (*mat.Dense, *forwardCache) {
	batch := len(windows)
	steps := len(windows[0])

	// One B×inputDim matrix per timestep.
	inputs := make([]*mat.Dense, steps)
	for t := 0; t < steps; t++ {
		x := mat.NewDense(batch, m.InputDim, nil)
		for b, window := range windows {
			x.SetRow(b, window[t])
		}
		inputs[t] = x
	}

	cache := &forwardCache{}
	for _, l := range m.layers {
		lc := &layerCache{}
		h := mat.NewDense(batch, m.HiddenDim, nil)
		outs := make([]*mat.Dense, steps)
		for t := 0; t < steps; t++ {
			x := inputs[t]
			z := applySigmoid(addBias(sum2(mul(x, l.Wz), mul(h, l.Uz)), l.Bz))
			r := applySigmoid(addBias(sum2(mul(x, l.Wr), mul(h, l.Ur)), l.Br))
			rh := hadamard(r, h)
			n := applyTanh(addBias(sum2(mul(x, l.Wh), mul(rh, l.Uh)), l.Bh))

			hNext := mat.NewDense(batch, m.HiddenDim, nil)
			hNext.Apply(func(i, j int, zv float64) float64 {
				return (1-zv)*n.At(i, j) + zv*h.At(i, j)
			}, z)

			lc.xs = append(lc.xs, x)
			lc.hps = append(lc.hps, h)
			lc.zs = append(lc.zs, z)
			lc.rs = append(lc.rs, r)
			lc.ns = append(lc.ns, n)
			lc.rhs = append(lc.rhs, rh)

			h = hNext
			outs[t] = h
		}
		cache.layers = append(cache.layers, lc)
		inputs = outs
	}

	hLast := inputs[steps-1]
	hDrop := hLast
	if m.training && m.DropoutRate > 0 {
		keep := 1 - m.DropoutRate
		mask := mat.NewDense(batch, m.HiddenDim, nil)
		rng := m.ctx.Rand()
		mask.Apply(func(i, j int, _ float64) float64 {
			if rng.Float64() < keep {
				return 1 / keep
			}
			return 0
		}, mask)
		hDrop = hadamard(hLast, mask)
		cache.dropMask = mask
	}
	cache.hDrop = hDrop

	out := addBias(mul(hDrop, m.Wy), m.By)
	cache.output = out
	return out, cache
}

// backward computes mean-squared-error gradients for every parameter, in
// Parameters() order. Only the final timestep feeds the loss, but gradient
// flows back through the full recurrent chain of every layer.
func (m *Model) backward(cache *forwardCache, targets *mat.Dense) []*mat.Dense {
	batch, _ := cache.output.Dims()
	steps := len(cache.layers[0].xs)

	// d(mean((y-t)^2))/dy
	dy := mat.NewDense(batch, m.OutputDim, nil)
	dy.Apply(func(i, j int, y float64) float64 {
		return 2 * (y - targets.At(i, j)) / float64(batch*m.OutputDim)
	}, cache.output)

	dWy := mul(transpose(cache.hDrop), dy)
	dBy := colSums(dy)
	dhLast := mul(dy, transpose(m.Wy))
	if cache.dropMask != nil {
		dhLast = hadamard(dhLast, cache.dropMask)
	}

	// Gradient w.r.t. each layer's output at every timestep. The top layer
	// only receives signal at the last step.
	dOut := make([]*mat.Dense, steps)
	dOut[steps-1] = dhLast

	layerGrads := make([][]*mat.Dense, m.NumLayers)
	for li := m.NumLayers - 1; li >= 0; li-- {
		l := m.layers[li]
		lc := cache.layers[li]

		dWz := zerosLike(l.Wz)
		dWr := zerosLike(l.Wr)
		dWh := zerosLike(l.Wh)
		dUz := zerosLike(l.Uz)
		dUr := zerosLike(l.Ur)
		dUh := zerosLike(l.Uh)
		dBz := zerosLike(l.Bz)
		dBr := zerosLike(l.Br)
		dBh := zerosLike(l.Bh)

		dIn := make([]*mat.Dense, steps)
		var dhNext *mat.Dense
		for t := steps - 1; t >= 0; t-- {
			dh := dOut[t]
			if dh == nil {
				dh = mat.NewDense(batch, m.HiddenDim, nil)
			} else {
				dh = mat.DenseCopyOf(dh)
			}
			if dhNext != nil {
				dh.Add(dh, dhNext)
			}

			z, r, n := lc.zs[t], lc.rs[t], lc.ns[t]
			hPrev, rh, x := lc.hps[t], lc.rhs[t], lc.xs[t]

			// h' = (1-z).n + z.hPrev
			dn := hadamardFn(dh, z, func(g, zv float64) float64 { return g * (1 - zv) })
			dhPrev := hadamard(dh, z)
			dz := mat.NewDense(batch, m.HiddenDim, nil)
			dz.Apply(func(i, j int, g float64) float64 {
				return g * (hPrev.At(i, j) - n.At(i, j))
			}, dh)

			dan := hadamardFn(dn, n, func(g, nv float64) float64 { return g * (1 - nv*nv) })
			daz := hadamardFn(dz, z, func(g, zv float64) float64 { return g * zv * (1 - zv) })

			drh := mul(dan, transpose(l.Uh))
			dar := hadamardFn(hadamard(drh, hPrev), r, func(g, rv float64) float64 { return g * rv * (1 - rv) })
			dhPrev.Add(dhPrev, hadamard(drh, r))
			dhPrev.Add(dhPrev, mul(daz, transpose(l.Uz)))
			dhPrev.Add(dhPrev, mul(dar, transpose(l.Ur)))

			dIn[t] = sum3(mul(daz, transpose(l.Wz)), mul(dar, transpose(l.Wr)), mul(dan, transpose(l.Wh)))

			xT, hpT := transpose(x), transpose(hPrev)
			dWz.Add(dWz, mul(xT, daz))
			dWr.Add(dWr, mul(xT, dar))
			dWh.Add(dWh, mul(xT, dan))
			dUz.Add(dUz, mul(hpT, daz))
			dUr.Add(dUr, mul(hpT, dar))
			dUh.Add(dUh, mul(transpose(rh), dan))
			dBz.Add(dBz, colSums(daz))
			dBr.Add(dBr, colSums(dar))
			dBh.Add(dBh, colSums(dan))

			dhNext = dhPrev
		}

		layerGrads[li] = []*mat.Dense{dWz, dWr, dWh, dUz, dUr, dUh, dBz, dBr, dBh}
		dOut = dIn
	}

	var grads []*mat.Dense
	for _, lg := range layerGrads {
		grads = append(grads, lg...)
	}
	return append(grads, dWy, dBy)
}
