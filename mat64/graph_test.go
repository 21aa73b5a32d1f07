package mat64

import (
	"math"
	"math/rand/v2"
	"testing"
)

// weighted sums out against fixed random weights so every element of the
// output gets a distinct gradient.
func weighted(out *Mat, weights []float64) float64 {
	s := 0.0
	for i, v := range out.W {
		s += v * weights[i]
	}
	return s
}

func finiteDiffCheck(t *testing.T, name string, param *Mat, forward func(g *Graph) *Mat) {
	t.Helper()
	rng := rand.New(rand.NewPCG(11, 13))

	g := NewGraph(true)
	out := forward(g)
	weights := make([]float64, len(out.W))
	for i := range weights {
		weights[i] = rng.Float64()*2 - 1
	}
	copy(out.DW, weights)
	g.Backward()

	eps := 1e-6
	for i := range param.W {
		w0 := param.W[i]
		param.W[i] = w0 + eps
		lp := weighted(forward(NewGraph(false)), weights)
		param.W[i] = w0 - eps
		lm := weighted(forward(NewGraph(false)), weights)
		param.W[i] = w0

		numGrad := (lp - lm) / (2 * eps)
		if math.Abs(numGrad-param.DW[i]) > 1e-5 {
			t.Fatalf("%s[%d] grad mismatch: num=%.8g ana=%.8g", name, i, numGrad, param.DW[i])
		}
	}
}

func TestGraphGradients(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	t.Run("Mul pushes gradient into both factors", func(t *testing.T) {
		a := RandMat(3, 4, 1, rng)
		b := RandMat(4, 2, 1, rng)
		fwd := func(g *Graph) *Mat { return g.Mul(a, b) }
		finiteDiffCheck(t, "a", a, fwd)
		a.ZeroGrad()
		b.ZeroGrad()
		finiteDiffCheck(t, "b", b, fwd)
	})
	t.Run("Tanh Sigmoid and Eltmul chain correctly", func(t *testing.T) {
		x := RandMat(3, 2, 1, rng)
		y := RandMat(3, 2, 1, rng)
		finiteDiffCheck(t, "x", x, func(g *Graph) *Mat {
			return g.Eltmul(g.Tanh(x), g.Sigmoid(y))
		})
	})
	t.Run("AddBias spreads bias gradient over columns", func(t *testing.T) {
		m := RandMat(3, 4, 1, rng)
		bias := RandMat(3, 1, 1, rng)
		finiteDiffCheck(t, "bias", bias, func(g *Graph) *Mat { return g.Tanh(g.AddBias(m, bias)) })
	})
	t.Run("RowPluck accumulates repeated rows", func(t *testing.T) {
		emb := RandMat(5, 3, 1, rng)
		finiteDiffCheck(t, "emb", emb, func(g *Graph) *Mat { return g.Tanh(g.RowPluck(emb, []int{4, 1, 4})) })
	})
	t.Run("LogSoftmax matches numeric gradient", func(t *testing.T) {
		logits := RandMat(6, 3, 2, rng)
		finiteDiffCheck(t, "logits", logits, func(g *Graph) *Mat { return g.LogSoftmax(logits) })
	})
	t.Run("Add and Relu route gradient to positive inputs", func(t *testing.T) {
		x := RandMat(4, 2, 1, rng)
		y := RandMat(4, 2, 1, rng)
		finiteDiffCheck(t, "x", x, func(g *Graph) *Mat { return g.Relu(g.Add(x, y)) })
	})
}

func TestLogSoftmax(t *testing.T) {
	t.Run("every column exponentiates to one", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(5, 5))
		m := RandMat(7, 4, 30, rng)
		out := NewGraph(false).LogSoftmax(m)
		for j := 0; j < 4; j++ {
			s := 0.0
			for i := 0; i < 7; i++ {
				s += math.Exp(out.At(i, j))
			}
			if math.Abs(s-1) > 1e-12 {
				t.Fatalf("column %d sums to %v", j, s)
			}
		}
	})
}

func TestDropout(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	t.Run("zero rate is the identity", func(t *testing.T) {
		m := RandMat(2, 2, 1, rng)
		if NewGraph(false).Dropout(m, 0, rng) != m {
			t.Fatal("zero rate copied the input")
		}
	})
	t.Run("survivors are rescaled", func(t *testing.T) {
		m := NewMat(1, 1000)
		for i := range m.W {
			m.W[i] = 1
		}
		out := NewGraph(false).Dropout(m, 0.5, rng)
		zeros := 0
		for _, v := range out.W {
			switch v {
			case 0:
				zeros++
			case 2:
			default:
				t.Fatalf("unexpected value %v", v)
			}
		}
		if zeros < 400 || zeros > 600 {
			t.Fatalf("%d of 1000 dropped at rate 0.5", zeros)
		}
	})
}

func TestRandMat(t *testing.T) {
	t.Run("values stay inside the spread", func(t *testing.T) {
		m := RandMat(10, 10, 0.1, rand.New(rand.NewPCG(0, 0)))
		for _, v := range m.W {
			if v < -0.1 || v > 0.1 {
				t.Fatalf("value %v outside [-0.1, 0.1]", v)
			}
		}
	})
	t.Run("same seed gives the same matrix", func(t *testing.T) {
		a := RandMat(3, 3, 1, rand.New(rand.NewPCG(4, 2)))
		b := RandMat(3, 3, 1, rand.New(rand.NewPCG(4, 2)))
		for i := range a.W {
			if a.W[i] != b.W[i] {
				t.Fatal("seeded matrices differ")
			}
		}
	})
}
