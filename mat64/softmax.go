package mat64

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

/*
Softmax computes the softmax of a matrix, treating all of W as one
distribution. Scores are divided by temperature first; below 1 the result
is more peaky, above 1 more diffuse.
*/
func Softmax(m *Mat, temperature float64) *Mat {
	Assert(temperature > 0, "softmax temperature must be positive")
	out := NewMat(m.RowCount, m.ColumnCount) // probability volume
	for i, w := range m.W {
		out.W[i] = w / temperature
	}
	maxval := floats.Max(out.W)
	for i := range out.W {
		out.W[i] = math.Exp(out.W[i] - maxval)
	}
	floats.Scale(1/floats.Sum(out.W), out.W)

	// no backward pass here needed
	// since the probabilities are only used for picking outputs
	return out
}

/*
ArgmaxI returns the index of the largest value in w.
*/
func ArgmaxI(w []float64) int {
	return floats.MaxIdx(w)
}

/*
SampleArgmaxI draws an index from w, assuming w are probabilities that sum
to one.
*/
func SampleArgmaxI(w []float64, rng *rand.Rand) int {
	r := rng.Float64()
	x := 0.0
	for i, p := range w {
		x += p
		if x > r {
			return i
		}
	}
	return len(w) - 1
}
