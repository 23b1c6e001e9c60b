package gru

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

func mul(a, b mat.Matrix) *mat.Dense {
	var c mat.Dense
	c.Mul(a, b)
	return &c
}

func transpose(a *mat.Dense) mat.Matrix {
	return a.T()
}

func sum2(a, b *mat.Dense) *mat.Dense {
	var c mat.Dense
	c.Add(a, b)
	return &c
}

func sum3(a, b, c *mat.Dense) *mat.Dense {
	var d mat.Dense
	d.Add(a, b)
	d.Add(&d, c)
	return &d
}

// addBias adds a 1×n bias row to every row of a.
func addBias(a, bias *mat.Dense) *mat.Dense {
	out := mat.DenseCopyOf(a)
	rows, _ := a.Dims()
	for i := 0; i < rows; i++ {
		row := out.RawRowView(i)
		for j := range row {
			row[j] += bias.At(0, j)
		}
	}
	return out
}

func hadamard(a, b *mat.Dense) *mat.Dense {
	var c mat.Dense
	c.MulElem(a, b)
	return &c
}

// hadamardFn combines two equally shaped matrices element-wise.
func hadamardFn(a, b *mat.Dense, fn func(av, bv float64) float64) *mat.Dense {
	out := zerosLike(a)
	out.Apply(func(i, j int, av float64) float64 {
		return fn(av, b.At(i, j))
	}, a)
	return out
}

func applySigmoid(a *mat.Dense) *mat.Dense {
	out := zerosLike(a)
	out.Apply(func(_, _ int, v float64) float64 {
		return 1 / (1 + math.Exp(-v))
	}, a)
	return out
}

func applyTanh(a *mat.Dense) *mat.Dense {
	out := zerosLike(a)
	out.Apply(func(_, _ int, v float64) float64 {
		return math.Tanh(v)
	}, a)
	return out
}

// colSums reduces a B×n matrix to a 1×n row of column sums (bias gradients).
func colSums(a *mat.Dense) *mat.Dense {
	rows, cols := a.Dims()
	out := mat.NewDense(1, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(0, j, out.At(0, j)+a.At(i, j))
		}
	}
	return out
}

// zerosLike allocates a zero matrix with the same shape as a.
func zerosLike(a *mat.Dense) *mat.Dense {
	rows, cols := a.Dims()
	return mat.NewDense(rows, cols, nil)
}

// MSE is the mean-squared error between two equal-length vectors, averaged
// over all components.
func MSE(pred, target []float64) float64 {
	var sum float64
	for i := range pred {
		d := pred[i] - target[i]
		sum += d * d
	}
	return sum / float64(len(pred))
}

func mseDense(pred, target *mat.Dense) float64 {
	rows, cols := pred.Dims()
	var sum float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d := pred.At(i, j) - target.At(i, j)
			sum += d * d
		}
	}
	return sum / float64(rows*cols)
}
