package mat64

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

/*
Mat holds a row-major matrix and the gradient accumulated against it.
*/
type Mat struct {
	RowCount    int
	ColumnCount int
	W           []float64
	DW          []float64 `json:"-"`
}

/*
NewMat instantiates a new zeroed matrix.
*/
func NewMat(n int, d int) *Mat {
	return &Mat{
		RowCount:    n,
		ColumnCount: d,
		W:           make([]float64, n*d),
		DW:          make([]float64, n*d),
	}
}

/*
RandMat fills a new Mat with values drawn uniformly from [-spread, spread].
*/
func RandMat(n int, d int, spread float64, rng *rand.Rand) *Mat {
	m := NewMat(n, d)
	FillUniform(m.W, spread, rng)
	return m
}

/*
FillUniform overwrites w with values drawn uniformly from [-spread, spread].
*/
func FillUniform(w []float64, spread float64, rng *rand.Rand) {
	if spread == 0 {
		clear(w)
		return
	}
	dist := distuv.Uniform{Min: -spread, Max: spread, Src: rng}
	for i := range w {
		w[i] = dist.Rand()
	}
}

// Dense views W as a gonum matrix without copying.
func (m *Mat) Dense() *mat.Dense {
	return mat.NewDense(m.RowCount, m.ColumnCount, m.W)
}

func (m *Mat) gradDense() *mat.Dense {
	return mat.NewDense(m.RowCount, m.ColumnCount, m.DW)
}

// At returns W[row, col].
func (m *Mat) At(row, col int) float64 {
	return m.W[row*m.ColumnCount+col]
}

/*
ZeroGrad clears the accumulated gradient. DW is allocated if the matrix was
decoded from storage without one.
*/
func (m *Mat) ZeroGrad() {
	if len(m.DW) != len(m.W) {
		m.DW = make([]float64, len(m.W))
		return
	}
	clear(m.DW)
}

/*
Clone copies the weights into a new Mat with an empty gradient.
*/
func (m *Mat) Clone() *Mat {
	out := NewMat(m.RowCount, m.ColumnCount)
	copy(out.W, m.W)
	return out
}

/*
Assert halts the program when a shape invariant is broken.
*/
func Assert(assertion bool, msg string) {
	if !assertion {
		panic(msg)
	}
}
