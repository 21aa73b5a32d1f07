/*
Package mat64 is a small reverse-mode autodiff tape over float64 matrices.

Every op computes its output immediately and, when the graph needs backprop,
records a closure that pushes the output gradient (DW) back into its inputs.
Backward replays those closures newest first.
*/
package mat64

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type backprop func()

/*
Graph is the neural network graph.
*/
type Graph struct {
	NeedsBackprop bool
	Backprop      []backprop // holds backprop functions
}

/*
NewGraph instantiates a new Graph
*/
func NewGraph(needsBackprop bool) *Graph {
	return &Graph{
		NeedsBackprop: needsBackprop,
		Backprop:      make([]backprop, 0),
	}
}

/*
AddBackprop adds the backpropagation function `f` to the end of the Backprop list.
*/
func (g *Graph) AddBackprop(f func()) {
	g.Backprop = append(g.Backprop, f)
}

/*
Backward runs all backpropagation functions, newest first, and empties the tape.
*/
func (g *Graph) Backward() {
	for i := len(g.Backprop) - 1; i >= 0; i-- {
		g.Backprop[i]()
	}
	g.Backprop = nil
}

/*
RowPluck plucks the rows of m named by ixs and lays them out as the columns
of the result, so the output is [m.ColumnCount, len(ixs)].
*/
func (g *Graph) RowPluck(m *Mat, ixs []int) *Mat {
	d := m.ColumnCount
	b := len(ixs)
	out := NewMat(d, b)

	for j, ix := range ixs {
		Assert(ix >= 0 && ix < m.RowCount, "RowPluck invalid number of rows")
		for k := 0; k < d; k++ {
			out.W[k*b+j] = m.W[ix*d+k]
		}
	}

	if g.NeedsBackprop {
		g.AddBackprop(func() {
			for j, ix := range ixs {
				for k := 0; k < d; k++ {
					m.DW[ix*d+k] += out.DW[k*b+j]
				}
			}
		})
	}
	return out
}

/*
Tanh does tanh nonlinearity
*/
func (g *Graph) Tanh(m *Mat) *Mat {
	out := NewMat(m.RowCount, m.ColumnCount)
	for ix, v := range m.W {
		out.W[ix] = math.Tanh(v)
	}

	if g.NeedsBackprop {
		g.AddBackprop(func() {
			for i, z := range out.W {
				// grad for z = tanh(x) is (1 - z^2)
				m.DW[i] += (1.0 - z*z) * out.DW[i]
			}
		})
	}
	return out
}

/*
Sigmoid does sigmoid nonlinearity
*/
func (g *Graph) Sigmoid(m *Mat) *Mat {
	out := NewMat(m.RowCount, m.ColumnCount)
	for ix, v := range m.W {
		out.W[ix] = 1.0 / (1 + math.Exp(-v))
	}

	if g.NeedsBackprop {
		g.AddBackprop(func() {
			for i, z := range out.W {
				m.DW[i] += z * (1.0 - z) * out.DW[i]
			}
		})
	}
	return out
}

/*
Relu clamps negatives to zero.
*/
func (g *Graph) Relu(m *Mat) *Mat {
	out := NewMat(m.RowCount, m.ColumnCount)
	for ix, v := range m.W {
		out.W[ix] = math.Max(0, v)
	}
	if g.NeedsBackprop {
		g.AddBackprop(func() {
			for i, v := range m.W {
				if v > 0 {
					m.DW[i] += out.DW[i]
				}
			}
		})
	}
	return out
}

/*
Mul multiplies two matrices
*/
func (g *Graph) Mul(m1 *Mat, m2 *Mat) *Mat {
	Assert(m1.ColumnCount == m2.RowCount, "matmul dimensions misaligned")

	out := NewMat(m1.RowCount, m2.ColumnCount)
	a, b := m1.Dense(), m2.Dense()
	out.Dense().Mul(a, b)

	if g.NeedsBackprop {
		g.AddBackprop(func() {
			dOut := out.gradDense()
			// dm1 += dOut * m2^T, dm2 += m1^T * dOut
			var da, db mat.Dense
			da.Mul(dOut, b.T())
			db.Mul(a.T(), dOut)
			floats.Add(m1.DW, da.RawMatrix().Data)
			floats.Add(m2.DW, db.RawMatrix().Data)
		})
	}
	return out
}

/*
Add adds two matrices of the same shape.
*/
func (g *Graph) Add(m1 *Mat, m2 *Mat) *Mat {
	Assert(len(m1.W) == len(m2.W), "Cannot add arrays")

	out := NewMat(m1.RowCount, m1.ColumnCount)
	floats.AddTo(out.W, m1.W, m2.W)

	if g.NeedsBackprop {
		g.AddBackprop(func() {
			floats.Add(m1.DW, out.DW)
			floats.Add(m2.DW, out.DW)
		})
	}
	return out
}

/*
AddBias adds the column vector bias to every column of m.
*/
func (g *Graph) AddBias(m *Mat, bias *Mat) *Mat {
	Assert(bias.ColumnCount == 1 && bias.RowCount == m.RowCount, "AddBias wants a column vector")

	n, d := m.RowCount, m.ColumnCount
	out := NewMat(n, d)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			out.W[i*d+j] = m.W[i*d+j] + bias.W[i]
		}
	}

	if g.NeedsBackprop {
		g.AddBackprop(func() {
			floats.Add(m.DW, out.DW)
			for i := 0; i < n; i++ {
				bias.DW[i] += floats.Sum(out.DW[i*d : i*d+d])
			}
		})
	}
	return out
}

/*
Eltmul does element-wise multiplication
*/
func (g *Graph) Eltmul(m1 *Mat, m2 *Mat) *Mat {
	Assert(len(m1.W) == len(m2.W), "Cannot Eltmul")

	out := NewMat(m1.RowCount, m1.ColumnCount)
	floats.MulTo(out.W, m1.W, m2.W)

	if g.NeedsBackprop {
		g.AddBackprop(func() {
			for i := range m1.W {
				m1.DW[i] += m2.W[i] * out.DW[i]
				m2.DW[i] += m1.W[i] * out.DW[i]
			}
		})
	}
	return out
}

/*
Dropout zeroes each element with probability rate and scales the survivors
by 1/(1-rate). A zero rate passes m through untouched.
*/
func (g *Graph) Dropout(m *Mat, rate float64, rng *rand.Rand) *Mat {
	if rate <= 0 {
		return m
	}
	Assert(rate < 1, "Dropout rate must be below 1")

	keep := 1.0 / (1.0 - rate)
	mask := make([]float64, len(m.W))
	for i := range mask {
		if rng.Float64() >= rate {
			mask[i] = keep
		}
	}
	out := NewMat(m.RowCount, m.ColumnCount)
	floats.MulTo(out.W, m.W, mask)

	if g.NeedsBackprop {
		g.AddBackprop(func() {
			for i, k := range mask {
				m.DW[i] += k * out.DW[i]
			}
		})
	}
	return out
}

/*
LogSoftmax normalizes every column of m into log-probabilities.
*/
func (g *Graph) LogSoftmax(m *Mat) *Mat {
	n, d := m.RowCount, m.ColumnCount
	out := NewMat(n, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		for i := 0; i < n; i++ {
			col[i] = m.W[i*d+j]
		}
		lse := floats.LogSumExp(col)
		for i := 0; i < n; i++ {
			out.W[i*d+j] = col[i] - lse
		}
	}

	if g.NeedsBackprop {
		g.AddBackprop(func() {
			// dx_i = dy_i - softmax_i * sum_k dy_k
			for j := 0; j < d; j++ {
				sum := 0.0
				for i := 0; i < n; i++ {
					sum += out.DW[i*d+j]
				}
				if sum == 0 {
					for i := 0; i < n; i++ {
						m.DW[i*d+j] += out.DW[i*d+j]
					}
					continue
				}
				for i := 0; i < n; i++ {
					m.DW[i*d+j] += out.DW[i*d+j] - math.Exp(out.W[i*d+j])*sum
				}
			}
		})
	}
	return out
}
