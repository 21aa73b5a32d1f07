/*
Package train runs the training loop: batches, updates, periodic
validation, learning rate decay and early stopping.
*/
package train

import (
	"io"
	"log"
	"math/rand/v2"
	"time"

	"github.com/ruffrey/recurrent-nn-word-go/config"
	"github.com/ruffrey/recurrent-nn-word-go/corpus"
	"github.com/ruffrey/recurrent-nn-word-go/lmerr"
)

/*
State is where the controller is in its loop.
*/
type State int

const (
	Running State = iota
	Validating
	Decaying
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Validating:
		return "validating"
	case Decaying:
		return "decaying"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

/*
StopReason says why a run ended normally.
*/
type StopReason int

const (
	// EarlyStop means the trial budget ran out without improvement.
	EarlyStop StopReason = iota
	// MaxEpoch means the configured number of passes finished.
	MaxEpoch
)

func (r StopReason) String() string {
	if r == EarlyStop {
		return "early stop"
	}
	return "max epoch"
}

/*
Model is everything the controller needs from the thing it trains.
*/
type Model interface {
	Optimizable
	Evaluator
	Checkpointer
}

/*
Controller drives one training run. Construct with NewController.
*/
type Controller struct {
	Config   config.Config
	Progress *Progress

	model Model
	data  [][]int
	log   *log.Logger
	rng   *rand.Rand
	now   func() time.Time

	begin      time.Time
	reportTime time.Time
}

/*
NewController trains m on data. A nil logger discards progress lines.
*/
func NewController(cfg config.Config, m Model, data [][]int, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Controller{
		Config:   cfg,
		Progress: NewProgress(cfg.LR),
		model:    m,
		data:     data,
		log:      logger,
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed*13/7)),
		now:      time.Now,
	}
}

/*
Run trains until the trial budget or the epoch budget is spent. Both are
normal endings and return a nil error. Any other failure stops the run
and is returned.
*/
func (c *Controller) Run() (StopReason, error) {
	if len(c.data) == 0 {
		return EarlyStop, lmerr.Configurationf("train-src", "no training sentences")
	}
	c.begin = c.now()
	c.reportTime = c.begin
	c.log.Println("begin Maximum Likelihood training")

	for {
		c.Progress.Epoch++
		stopped, err := c.runEpoch()
		if err != nil {
			return EarlyStop, err
		}
		if stopped {
			return EarlyStop, nil
		}
		if c.Progress.Epoch >= c.Config.MaxEpoch {
			c.log.Println("reached maximum number of epochs!")
			return MaxEpoch, nil
		}
	}
}

// runEpoch makes one shuffled pass and reports whether the run stopped.
func (c *Controller) runEpoch() (bool, error) {
	done := make(chan struct{})
	defer close(done)

	it := corpus.NewBatchIterator(c.data, c.Config.BatchSize, true, c.rng)
	for b := range corpus.Prefetch(done, it, c.Config.Prefetch) {
		state, err := c.iterate(b)
		if err == nil && state == Validating {
			state, err = c.validate()
		}
		if err == nil && state == Decaying {
			state, err = c.decay()
		}
		if err != nil {
			return true, err
		}
		if state == Stopped {
			return true, nil
		}
	}
	return false, nil
}

// iterate performs one update on b.
func (c *Controller) iterate(b *corpus.Batch) (State, error) {
	p := c.Progress
	p.Iteration++

	c.model.ZeroGrad()
	batchLoss, err := c.model.Forward(b)
	if err != nil {
		return Stopped, err
	}
	c.model.Backward()
	if c.Config.ClipGrad > 0 {
		c.model.ClipGradients(c.Config.ClipGrad)
	}
	c.model.Step(p.LearningRate)

	words := b.TargetCount()
	p.Report.add(batchLoss, words, b.Size())
	p.Cumulative.add(batchLoss, words, b.Size())

	if p.Iteration%c.Config.LogEvery == 0 {
		now := c.now()
		c.log.Printf("epoch %d, iter %d, avg. loss %.2f, avg. ppl %.2f cum. examples %d, speed %.2f words/sec, time elapsed %.2f sec",
			p.Epoch, p.Iteration, p.Report.AvgLoss(), p.Report.Perplexity(), p.Cumulative.Examples,
			float64(p.Report.Words)/seconds(now.Sub(c.reportTime)), now.Sub(c.begin).Seconds())
		c.reportTime = now
		p.Report.reset()
	}

	if p.Iteration%c.Config.ValidNiter == 0 {
		return Validating, nil
	}
	return Running, nil
}

// validate scores the dev set and decides between keeping on and decaying.
func (c *Controller) validate() (State, error) {
	p := c.Progress
	c.log.Printf("epoch %d, iter %d, cum. loss %.2f, cum. ppl %.2f cum. examples %d",
		p.Epoch, p.Iteration, p.Cumulative.AvgLoss(), p.Cumulative.Perplexity(), p.Cumulative.Examples)
	p.Cumulative.reset()

	c.log.Println("begin validation ...")
	ppl, err := c.model.ValidationPerplexity()
	if err != nil {
		return Stopped, err
	}
	c.log.Printf("validation: iter %d, dev. ppl %f", p.Iteration, ppl)

	score := -ppl
	better := p.Improves(score)
	p.Record(score)

	if better {
		p.Patience = 0
		c.log.Printf("save currently the best model to [%s]", c.Config.SaveTo)
		if err := c.model.Save(); err != nil {
			return Stopped, err
		}
		return Running, nil
	}

	p.Patience++
	c.log.Printf("hit patience %d", p.Patience)
	if p.Patience >= c.Config.Patience {
		return Decaying, nil
	}
	return Running, nil
}

// decay spends a trial: stop, or halve the rate and go back to the best model.
func (c *Controller) decay() (State, error) {
	p := c.Progress
	p.Trial++
	c.log.Printf("hit #%d trial", p.Trial)
	if p.Trial >= c.Config.MaxNumTrial {
		c.log.Println("early stop!")
		return Stopped, nil
	}

	p.LearningRate *= c.Config.LRDecay
	c.log.Printf("load previously best model and decay learning rate to %f", p.LearningRate)
	c.log.Println("restore parameters of the optimizers")
	if err := c.model.Restore(); err != nil {
		return Stopped, err
	}
	p.Patience = 0
	return Running, nil
}

func seconds(d time.Duration) float64 {
	s := d.Seconds()
	if s <= 0 {
		return 1e-9
	}
	return s
}
