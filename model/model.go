/*
Package model is the recurrent sequence scorer: an embedding, one LSTM layer
and a projection to log-probabilities over the vocabulary.
*/
package model

import (
	"math/rand/v2"

	"github.com/ruffrey/recurrent-nn-word-go/corpus"
	"github.com/ruffrey/recurrent-nn-word-go/mat64"
	"github.com/ruffrey/recurrent-nn-word-go/vocab"
)

/*
Hyper holds the sizes and rates that shape a model. They are stored in the
checkpoint so a model can be rebuilt without the training configuration.
*/
type Hyper struct {
	EmbedSize   int
	HiddenSize  int
	Dropout     float64
	UniformInit float64
}

/*
Params is the set of trainable matrices, keyed by name.
*/
type Params map[string]*mat64.Mat

/*
State is the recurrent memory carried between time steps. Both matrices are
[hidden, batch].
*/
type State struct {
	Hidden *mat64.Mat
	Cell   *mat64.Mat
}

/*
LSTM is the sequence scorer. It owns its parameters; callers reach them
through Params for optimizer updates and through Save/Load for checkpoints.
*/
type LSTM struct {
	Hyper Hyper
	Vocab *vocab.Vocab
	Model Params

	rng *rand.Rand
}

/*
New builds a model for v with every parameter drawn from
U(-UniformInit, UniformInit).
*/
func New(v *vocab.Vocab, h Hyper, seed uint64) *LSTM {
	m := &LSTM{Hyper: h, Vocab: v}
	m.Seed(seed)
	m.Model = initParams(v.Size(), h, m.rng)
	return m
}

/*
Seed resets the generator used for dropout masks and initial states.
*/
func (m *LSTM) Seed(seed uint64) {
	m.rng = rand.New(rand.NewPCG(seed, seed*13/7))
}

func initParams(vocabSize int, h Hyper, rng *rand.Rand) Params {
	e, hs, init := h.EmbedSize, h.HiddenSize, h.UniformInit
	model := Params{}
	// word embedding vectors
	model["Wemb"] = mat64.RandMat(vocabSize, e, init, rng)
	// gates parameters
	model["Wix"] = mat64.RandMat(hs, e, init, rng)
	model["Wih"] = mat64.RandMat(hs, hs, init, rng)
	model["bi"] = mat64.RandMat(hs, 1, init, rng)
	model["Wfx"] = mat64.RandMat(hs, e, init, rng)
	model["Wfh"] = mat64.RandMat(hs, hs, init, rng)
	model["bf"] = mat64.RandMat(hs, 1, init, rng)
	model["Wox"] = mat64.RandMat(hs, e, init, rng)
	model["Woh"] = mat64.RandMat(hs, hs, init, rng)
	model["bo"] = mat64.RandMat(hs, 1, init, rng)
	// cell write params
	model["Wcx"] = mat64.RandMat(hs, e, init, rng)
	model["Wch"] = mat64.RandMat(hs, hs, init, rng)
	model["bc"] = mat64.RandMat(hs, 1, init, rng)
	// decoder params
	model["Whd"] = mat64.RandMat(vocabSize, hs, init, rng)
	model["bd"] = mat64.RandMat(vocabSize, 1, init, rng)
	return model
}

// ParamNames lists the parameter keys in a fixed order.
var ParamNames = []string{
	"Wemb",
	"Wix", "Wih", "bi",
	"Wfx", "Wfh", "bf",
	"Wox", "Woh", "bo",
	"Wcx", "Wch", "bc",
	"Whd", "bd",
}

/*
Params returns the live parameter matrices.
*/
func (m *LSTM) Params() Params {
	return m.Model
}

/*
InitialState returns the state a batch starts from. Training draws it from
U(-UniformInit, UniformInit); evaluation starts from zeros so repeated
scoring is deterministic.
*/
func (m *LSTM) InitialState(batchSize int, train bool) State {
	hs := m.Hyper.HiddenSize
	s := State{Hidden: mat64.NewMat(hs, batchSize), Cell: mat64.NewMat(hs, batchSize)}
	if train {
		mat64.FillUniform(s.Hidden.W, m.Hyper.UniformInit, m.rng)
		mat64.FillUniform(s.Cell.W, m.Hyper.UniformInit, m.rng)
	}
	return s
}

/*
Step runs one time step for a row of token ids and returns the
log-probabilities of the next token, [vocab, batch], and the new state.
*/
func (m *LSTM) Step(g *mat64.Graph, ids []int, prev State, train bool) (*mat64.Mat, State) {
	p := m.Model

	x := g.RowPluck(p["Wemb"], ids)
	x = g.Relu(x)
	if train {
		x = g.Dropout(x, m.Hyper.Dropout, m.rng)
	}

	gate := func(wx, wh, b string) *mat64.Mat {
		return g.AddBias(g.Add(g.Mul(p[wx], x), g.Mul(p[wh], prev.Hidden)), p[b])
	}
	inputGate := g.Sigmoid(gate("Wix", "Wih", "bi"))
	forgetGate := g.Sigmoid(gate("Wfx", "Wfh", "bf"))
	outputGate := g.Sigmoid(gate("Wox", "Woh", "bo"))
	cellWrite := g.Tanh(gate("Wcx", "Wch", "bc"))

	// compute new cell activation
	retainCell := g.Eltmul(forgetGate, prev.Cell) // what do we keep from cell
	writeCell := g.Eltmul(inputGate, cellWrite)   // what do we write to cell
	cell := g.Add(retainCell, writeCell)

	// compute hidden state as gated, saturated cell activations
	hidden := g.Eltmul(outputGate, g.Tanh(cell))

	logits := g.AddBias(g.Mul(p["Whd"], hidden), p["bd"])
	return g.LogSoftmax(logits), State{Hidden: hidden, Cell: cell}
}

/*
Score runs the batch through the network. The result has one entry per time
step t in [0, T-1): the distribution over the token at t+1. Pad positions are
scored like any other id; excluding them is the caller's job.
*/
func (m *LSTM) Score(g *mat64.Graph, b *corpus.Batch, train bool) ([]*mat64.Mat, State) {
	state := m.InitialState(b.Size(), train)
	steps := b.MaxLen() - 1
	if steps < 0 {
		steps = 0
	}
	logProbs := make([]*mat64.Mat, steps)
	for t := 0; t < steps; t++ {
		logProbs[t], state = m.Step(g, b.IDs[t], state, train)
	}
	return logProbs, state
}
