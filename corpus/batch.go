package corpus

import (
	"math/rand/v2"

	"github.com/ruffrey/recurrent-nn-word-go/vocab"
)

/*
Batch is a time-major grid of token ids. IDs[t][j] is the token at step t of
sentence j; sentences shorter than the longest one are right padded with
vocab.PadID. Lengths holds the unpadded length of each sentence.
*/
type Batch struct {
	IDs     [][]int
	Lengths []int
}

/*
NewBatch pads and transposes sentences into a Batch.
*/
func NewBatch(sents [][]int) *Batch {
	maxLen := 0
	lengths := make([]int, len(sents))
	for j, s := range sents {
		lengths[j] = len(s)
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}
	ids := make([][]int, maxLen)
	for t := range ids {
		row := make([]int, len(sents))
		for j, s := range sents {
			if t < len(s) {
				row[j] = s[t]
			} else {
				row[j] = vocab.PadID
			}
		}
		ids[t] = row
	}
	return &Batch{IDs: ids, Lengths: lengths}
}

func (b *Batch) MaxLen() int { return len(b.IDs) }

func (b *Batch) Size() int { return len(b.Lengths) }

/*
Column returns sentence j without its padding.
*/
func (b *Batch) Column(j int) []int {
	out := make([]int, b.Lengths[j])
	for t := range out {
		out[t] = b.IDs[t][j]
	}
	return out
}

/*
TargetCount is the number of non-pad prediction targets in the batch.
*/
func (b *Batch) TargetCount() int {
	n := 0
	for _, l := range b.Lengths {
		if l > 1 {
			n += l - 1
		}
	}
	return n
}

/*
BatchIterator walks a corpus in contiguous chunks of batchSize sentences.
With shuffle set the sentence order is permuted once, when the iterator is
created; build a new iterator for every pass.
*/
type BatchIterator struct {
	data      [][]int
	order     []int
	batchSize int
	cursor    int
}

/*
NewBatchIterator prepares one pass over data. rng is only used when shuffle
is true and may be nil otherwise.
*/
func NewBatchIterator(data [][]int, batchSize int, shuffle bool, rng *rand.Rand) *BatchIterator {
	if batchSize < 1 {
		batchSize = 1
	}
	order := make([]int, len(data))
	for i := range order {
		order[i] = i
	}
	if shuffle {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	return &BatchIterator{data: data, order: order, batchSize: batchSize}
}

/*
Len is the number of batches in one pass: ceil(len(data) / batchSize).
*/
func (it *BatchIterator) Len() int {
	return (len(it.data) + it.batchSize - 1) / it.batchSize
}

/*
Next returns the following batch, or false when the pass is finished.
*/
func (it *BatchIterator) Next() (*Batch, bool) {
	if it.cursor >= len(it.order) {
		return nil, false
	}
	end := it.cursor + it.batchSize
	if end > len(it.order) {
		end = len(it.order)
	}
	sents := make([][]int, 0, end-it.cursor)
	for _, ix := range it.order[it.cursor:end] {
		sents = append(sents, it.data[ix])
	}
	it.cursor = end
	return NewBatch(sents), true
}

/*
Prefetch builds batches from it on a separate goroutine, keeping up to depth
of them ready. Order is unchanged. Close done to stop early; the returned
channel is closed when the pass ends or done is closed.
*/
func Prefetch(done <-chan struct{}, it *BatchIterator, depth int) <-chan *Batch {
	if depth < 0 {
		depth = 0
	}
	out := make(chan *Batch, depth)
	go func() {
		defer close(out)
		for {
			b, ok := it.Next()
			if !ok {
				return
			}
			select {
			case out <- b:
			case <-done:
				return
			}
		}
	}()
	return out
}
