package train

import (
	"math"
)

/*
Window accumulates loss, target words and examples between two log lines.
*/
type Window struct {
	Loss     float64
	Words    int
	Examples int
}

func (w *Window) add(loss float64, words, examples int) {
	w.Loss += loss
	w.Words += words
	w.Examples += examples
}

func (w *Window) reset() {
	*w = Window{}
}

// AvgLoss is the loss per example.
func (w *Window) AvgLoss() float64 {
	if w.Examples == 0 {
		return 0
	}
	return w.Loss / float64(w.Examples)
}

// Perplexity is exp of the loss per target word.
func (w *Window) Perplexity() float64 {
	if w.Words == 0 {
		return math.Inf(1)
	}
	return math.Exp(w.Loss / float64(w.Words))
}

/*
Progress is the mutable state of one training run. It is never persisted;
reloading a checkpoint after a trial keeps these counters climbing.
*/
type Progress struct {
	Epoch        int
	Iteration    int
	LearningRate float64
	Patience     int
	Trial        int
	BestScore    float64
	History      []float64

	Report     Window
	Cumulative Window
}

/*
NewProgress starts a run at learning rate lr.
*/
func NewProgress(lr float64) *Progress {
	return &Progress{LearningRate: lr, BestScore: math.Inf(-1)}
}

/*
Improves reports whether score beats every validation score seen so far.
The first score always does.
*/
func (p *Progress) Improves(score float64) bool {
	return len(p.History) == 0 || score > p.BestScore
}

/*
Record appends score to the history and keeps BestScore current.
*/
func (p *Progress) Record(score float64) {
	if p.Improves(score) {
		p.BestScore = score
	}
	p.History = append(p.History, score)
}
