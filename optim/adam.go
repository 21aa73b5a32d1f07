/*
Package optim updates model parameters from their accumulated gradients.
*/
package optim

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/ruffrey/recurrent-nn-word-go/lmerr"
	"github.com/ruffrey/recurrent-nn-word-go/mat64"
	"github.com/ruffrey/recurrent-nn-word-go/store"
)

/*
Adam is a solver with bias-corrected first and second moment estimates.
The moments are kept per parameter name so they can be saved next to, but
separately from, the model.
*/
type Adam struct {
	Beta1 float64
	Beta2 float64
	Eps   float64
	T     int
	M     map[string][]float64
	V     map[string][]float64
}

/*
NewAdam instantiates an Adam solver with the usual defaults.
*/
func NewAdam() *Adam {
	return &Adam{
		Beta1: 0.9,
		Beta2: 0.999,
		Eps:   1e-8,
		M:     make(map[string][]float64),
		V:     make(map[string][]float64),
	}
}

/*
Step applies one update with learning rate lr to every parameter:
p -= lr * mhat / (sqrt(vhat) + eps).
Gradients are left in place; clear them with ZeroGrad.
*/
func (s *Adam) Step(params map[string]*mat64.Mat, lr float64) {
	s.T++
	c1 := 1.0 / (1.0 - math.Pow(s.Beta1, float64(s.T)))
	c2 := 1.0 / (1.0 - math.Pow(s.Beta2, float64(s.T)))

	for key, p := range params {
		m, ok := s.M[key]
		if !ok || len(m) != len(p.W) {
			m = make([]float64, len(p.W))
			s.M[key] = m
			s.V[key] = make([]float64, len(p.W))
		}
		v := s.V[key]
		for i, g := range p.DW {
			m[i] = s.Beta1*m[i] + (1.0-s.Beta1)*g
			v[i] = s.Beta2*v[i] + (1.0-s.Beta2)*g*g
			mhat := m[i] * c1
			vhat := v[i] * c2
			p.W[i] -= lr * mhat / (math.Sqrt(vhat) + s.Eps)
		}
	}
}

/*
ClipGradNorm rescales all gradients together so their global L2 norm is at
most maxNorm. It returns the norm before clipping. A non-positive maxNorm
only measures.
*/
func ClipGradNorm(params map[string]*mat64.Mat, maxNorm float64) float64 {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	// sum in key order
	sort.Strings(keys)

	sq := 0.0
	for _, k := range keys {
		n := floats.Norm(params[k].DW, 2)
		sq += n * n
	}
	norm := math.Sqrt(sq)
	if maxNorm > 0 && norm > maxNorm {
		scale := maxNorm / (norm + 1e-6)
		for _, p := range params {
			floats.Scale(scale, p.DW)
		}
	}
	return norm
}

/*
ZeroGrad clears every parameter gradient.
*/
func ZeroGrad(params map[string]*mat64.Mat) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

/*
Save writes the solver state to path, replacing any previous file.
*/
func (s *Adam) Save(path string) error {
	for key, m := range s.M {
		for i := range m {
			if err := lmerr.CheckFinite("optimizer moment "+key, m[i]+s.V[key][i]); err != nil {
				return err
			}
		}
	}
	return store.SaveJSON(path, s)
}

/*
LoadAdam reads a solver state written by Save.
*/
func LoadAdam(path string) (*Adam, error) {
	s := NewAdam()
	if err := store.LoadJSON(path, s); err != nil {
		return nil, lmerr.Configuration("load optimizer state "+path, err)
	}
	if s.M == nil {
		s.M = make(map[string][]float64)
	}
	if s.V == nil {
		s.V = make(map[string][]float64)
	}
	return s, nil
}
