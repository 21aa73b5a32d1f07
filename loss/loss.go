/*
Package loss turns per-step log-probabilities into a summed negative
log-likelihood and a perplexity. Pad targets never contribute.
*/
package loss

import (
	"math"

	"github.com/ruffrey/recurrent-nn-word-go/corpus"
	"github.com/ruffrey/recurrent-nn-word-go/lmerr"
	"github.com/ruffrey/recurrent-nn-word-go/mat64"
)

/*
SequenceLoss sums -log p(target) over every non-pad target in the batch.
logProbs[t] is [vocab, batch] and predicts b.IDs[t+1]. The sum is not
averaged.
*/
func SequenceLoss(logProbs []*mat64.Mat, b *corpus.Batch, padID int) float64 {
	total := 0.0
	for t, lp := range logProbs {
		targets := b.IDs[t+1]
		for j, target := range targets {
			if target == padID {
				continue
			}
			total -= lp.At(target, j)
		}
	}
	return total
}

/*
SeedGradients writes d(SequenceLoss)/d(logProbs) into the DW of every step:
-1 at each non-pad target. Run the graph's Backward afterwards.
*/
func SeedGradients(logProbs []*mat64.Mat, b *corpus.Batch, padID int) {
	for t, lp := range logProbs {
		targets := b.IDs[t+1]
		for j, target := range targets {
			if target == padID {
				continue
			}
			lp.DW[target*lp.ColumnCount+j] -= 1
		}
	}
}

/*
Perplexity is exp(totalLoss / tokens). With no tokens it fails with an
EmptyBatchError; a NaN or infinite result fails with a
NumericInstabilityError.
*/
func Perplexity(totalLoss float64, tokens int) (float64, error) {
	if tokens <= 0 {
		return 0, &lmerr.EmptyBatchError{What: "perplexity"}
	}
	ppl := math.Exp(totalLoss / float64(tokens))
	if err := lmerr.CheckFinite("perplexity", ppl); err != nil {
		return 0, err
	}
	return ppl, nil
}
