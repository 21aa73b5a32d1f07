/*
Package decode scores held out sentences with a trained model.
*/
package decode

import (
	"bufio"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/getlantern/errors"

	"github.com/ruffrey/recurrent-nn-word-go/corpus"
	"github.com/ruffrey/recurrent-nn-word-go/lmerr"
	"github.com/ruffrey/recurrent-nn-word-go/loss"
	"github.com/ruffrey/recurrent-nn-word-go/mat64"
	"github.com/ruffrey/recurrent-nn-word-go/model"
	"github.com/ruffrey/recurrent-nn-word-go/vocab"
)

/*
Scorer computes the average cross-entropy of single sentences. It never
touches parameters or gradients.
*/
type Scorer struct {
	model *model.LSTM
}

func NewScorer(m *model.LSTM) *Scorer {
	return &Scorer{model: m}
}

/*
ScoreSentence returns the negative log-likelihood of a wrapped sentence
divided by its length, markers included.
*/
func (s *Scorer) ScoreSentence(sent []string) (float64, error) {
	if len(sent) < 2 {
		return 0, &lmerr.EmptyBatchError{What: "sentence"}
	}
	b := corpus.NewBatch([][]int{s.model.Vocab.Indices(sent)})
	logProbs, _ := s.model.Score(mat64.NewGraph(false), b, false)
	ce := loss.SequenceLoss(logProbs, b, vocab.PadID) / float64(len(sent))
	if err := lmerr.CheckFinite("sentence score", ce); err != nil {
		return 0, err
	}
	return ce, nil
}

/*
ScoreCorpus reads r one line at a time and calls emit with each score, in
input order. Blank lines are skipped.
*/
func (s *Scorer) ScoreCorpus(r io.Reader, emit func(ce float64) error) error {
	reader := corpus.NewReader(r)
	for reader.Next() {
		ce, err := s.ScoreSentence(reader.Sentence())
		if err != nil {
			return err
		}
		if err := emit(ce); err != nil {
			return err
		}
	}
	return errors.Wrap(reader.Err())
}

/*
WriteScores writes one score per line to w and returns how many it wrote.
*/
func (s *Scorer) WriteScores(w io.Writer, r io.Reader) (int, error) {
	bw := bufio.NewWriter(w)
	n := 0
	err := s.ScoreCorpus(r, func(ce float64) error {
		n++
		_, err := bw.WriteString(strconv.FormatFloat(ce, 'g', -1, 64) + "\n")
		return err
	})
	if err != nil {
		return n, err
	}
	return n, bw.Flush()
}

/*
Run loads the model at modelPath, scores every sentence of testPath and
writes the scores to outputPath.
*/
func Run(modelPath, testPath, outputPath string, logger *log.Logger) error {
	logger.Printf("load model from %s", modelPath)
	m, err := model.Load(modelPath, 0)
	if err != nil {
		return err
	}

	in, err := os.Open(testPath)
	if err != nil {
		return lmerr.Configuration("open test source "+testPath, err)
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return lmerr.Configuration("create output "+outputPath, err)
	}
	n, err := NewScorer(m).WriteScores(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	logger.Printf("decoded %d sentences to %s", n, outputPath)
	return nil
}
