package train

import (
	"sync"

	"github.com/ruffrey/recurrent-nn-word-go/corpus"
	"github.com/ruffrey/recurrent-nn-word-go/lmerr"
	"github.com/ruffrey/recurrent-nn-word-go/loss"
	"github.com/ruffrey/recurrent-nn-word-go/mat64"
	"github.com/ruffrey/recurrent-nn-word-go/model"
	"github.com/ruffrey/recurrent-nn-word-go/optim"
	"github.com/ruffrey/recurrent-nn-word-go/vocab"
)

/*
Optimizable is a model that can run one gradient step at a time.
*/
type Optimizable interface {
	// Forward scores the batch and returns its summed loss.
	Forward(b *corpus.Batch) (float64, error)
	// Backward accumulates gradients for the last Forward.
	Backward()
	// ClipGradients rescales gradients to a global norm of at most maxNorm
	// and returns the norm before clipping.
	ClipGradients(maxNorm float64) float64
	Step(lr float64)
	ZeroGrad()
}

/*
Evaluator measures the model on held out data.
*/
type Evaluator interface {
	ValidationPerplexity() (float64, error)
}

/*
Checkpointer persists the best model and brings it back.
*/
type Checkpointer interface {
	Save() error
	Restore() error
}

/*
Learner binds an LSTM to its Adam state, its dev set and its checkpoint
paths. Every method holds the lock, so an update step and a checkpoint swap
never interleave.
*/
type Learner struct {
	mu sync.Mutex

	model *model.LSTM
	optim *optim.Adam

	dev          [][]int
	devBatchSize int
	modelPath    string
	optimPath    string
	seed         uint64
	restores     uint64

	// the graph of the last Forward, waiting for Backward
	graph    *mat64.Graph
	logProbs []*mat64.Mat
	batch    *corpus.Batch
}

/*
NewLearner wraps m with a fresh Adam state.
*/
func NewLearner(m *model.LSTM, dev [][]int, devBatchSize int, modelPath, optimPath string, seed uint64) *Learner {
	if devBatchSize < 1 {
		devBatchSize = 1
	}
	return &Learner{
		model:        m,
		optim:        optim.NewAdam(),
		dev:          dev,
		devBatchSize: devBatchSize,
		modelPath:    modelPath,
		optimPath:    optimPath,
		seed:         seed,
	}
}

/*
Model returns the active model. It changes after Restore.
*/
func (l *Learner) Model() *model.LSTM {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.model
}

/*
Forward runs the batch with dropout and returns the summed loss over its
non-pad targets. A NaN or infinite loss is an error.
*/
func (l *Learner) Forward(b *corpus.Batch) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	g := mat64.NewGraph(true)
	logProbs, _ := l.model.Score(g, b, true)
	total := loss.SequenceLoss(logProbs, b, vocab.PadID)
	if err := lmerr.CheckFinite("training loss", total); err != nil {
		l.graph, l.logProbs, l.batch = nil, nil, nil
		return 0, err
	}
	l.graph, l.logProbs, l.batch = g, logProbs, b
	return total, nil
}

/*
Backward seeds the loss gradient and runs the tape. Without a pending
Forward it does nothing.
*/
func (l *Learner) Backward() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.graph == nil {
		return
	}
	loss.SeedGradients(l.logProbs, l.batch, vocab.PadID)
	l.graph.Backward()
	l.graph, l.logProbs, l.batch = nil, nil, nil
}

func (l *Learner) ClipGradients(maxNorm float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return optim.ClipGradNorm(l.model.Params(), maxNorm)
}

func (l *Learner) Step(lr float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.optim.Step(l.model.Params(), lr)
}

func (l *Learner) ZeroGrad() {
	l.mu.Lock()
	defer l.mu.Unlock()
	optim.ZeroGrad(l.model.Params())
}

/*
ValidationPerplexity scores the dev set without dropout or gradients.
*/
func (l *Learner) ValidationPerplexity() (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Perplexity(l.model, l.dev, l.devBatchSize)
}

/*
Perplexity is the corpus perplexity of m over data, scored in order in
batches of batchSize.
*/
func Perplexity(m *model.LSTM, data [][]int, batchSize int) (float64, error) {
	total := 0.0
	words := 0
	it := corpus.NewBatchIterator(data, batchSize, false, nil)
	for {
		b, ok := it.Next()
		if !ok {
			break
		}
		logProbs, _ := m.Score(mat64.NewGraph(false), b, false)
		total += loss.SequenceLoss(logProbs, b, vocab.PadID)
		words += b.TargetCount()
	}
	return loss.Perplexity(total, words)
}

/*
Save writes the model and the optimizer state to their paths.
*/
func (l *Learner) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.model.Save(l.modelPath); err != nil {
		return err
	}
	return l.optim.Save(l.optimPath)
}

/*
Restore replaces the model and the optimizer state with the last saved
pair. Both are loaded before either is swapped in, and any pending
gradients are dropped.
*/
func (l *Learner) Restore() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.restores++
	m, err := model.Load(l.modelPath, l.seed+l.restores)
	if err != nil {
		return err
	}
	o, err := optim.LoadAdam(l.optimPath)
	if err != nil {
		return err
	}
	l.model, l.optim = m, o
	l.graph, l.logProbs, l.batch = nil, nil, nil
	return nil
}
