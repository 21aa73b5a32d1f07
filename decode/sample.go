package decode

import (
	"math/rand/v2"
	"strings"

	"github.com/ruffrey/recurrent-nn-word-go/mat64"
	"github.com/ruffrey/recurrent-nn-word-go/model"
	"github.com/ruffrey/recurrent-nn-word-go/vocab"
)

/*
SampleOptions control sentence generation.
*/
type SampleOptions struct {
	// Temperature below 1 makes predictions more peaky, above 1 more diffuse.
	Temperature float64
	// MaxWords stops a sentence that never predicts the end marker.
	MaxWords int
	// Greedy takes the most likely word instead of sampling.
	Greedy bool
	// Prefix is fed to the model before generation and left out of the result.
	Prefix string
}

/*
Sample generates one sentence from m, word by word, until the end marker is
predicted or MaxWords is reached.
*/
func Sample(m *model.LSTM, opts SampleOptions, rng *rand.Rand) string {
	if opts.Temperature <= 0 {
		opts.Temperature = 1
	}
	state := m.InitialState(1, false)
	ix := vocab.StartID
	for _, w := range strings.Fields(opts.Prefix) {
		_, state = m.Step(mat64.NewGraph(false), []int{ix}, state, false)
		ix = m.Vocab.ToID(w)
	}

	words := make([]string, 0)
	for len(words) < opts.MaxWords {
		var logProbs *mat64.Mat
		logProbs, state = m.Step(mat64.NewGraph(false), []int{ix}, state, false)
		probs := mat64.Softmax(logProbs, opts.Temperature)
		if opts.Greedy {
			ix = mat64.ArgmaxI(probs.W)
		} else {
			ix = mat64.SampleArgmaxI(probs.W, rng)
		}
		if ix == vocab.EndID || ix == vocab.StartID || ix == vocab.PadID {
			break // end predicted
		}
		word, err := m.Vocab.ToToken(ix)
		if err != nil {
			break
		}
		words = append(words, word)
	}
	return strings.Join(words, " ")
}
