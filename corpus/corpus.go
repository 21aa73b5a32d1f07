/*
Package corpus reads tokenized sentence files and cuts them into padded,
time-major batches.
*/
package corpus

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/ruffrey/recurrent-nn-word-go/lmerr"
	"github.com/ruffrey/recurrent-nn-word-go/vocab"
)

/*
Wrap splits a cleaned line on whitespace and adds the start and end markers.
*/
func Wrap(line string) []string {
	fields := strings.Fields(line)
	sent := make([]string, 0, len(fields)+2)
	sent = append(sent, vocab.StartToken)
	sent = append(sent, fields...)
	sent = append(sent, vocab.EndToken)
	return sent
}

/*
Reader yields wrapped sentences one line at a time. Blank lines are skipped.
*/
type Reader struct {
	scanner *bufio.Scanner
	sent    []string
}

func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{scanner: scanner}
}

/*
Next advances to the next sentence. It returns false at the end of input or
on a read error; check Err afterwards.
*/
func (r *Reader) Next() bool {
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		r.sent = Wrap(line)
		return true
	}
	return false
}

// Sentence is valid until the next call to Next.
func (r *Reader) Sentence() []string { return r.sent }

func (r *Reader) Err() error { return r.scanner.Err() }

/*
ReadCorpus loads a whole corpus file, one wrapped sentence per non-blank line.
*/
func ReadCorpus(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, lmerr.Configuration("open corpus "+path, err)
	}
	defer f.Close()

	sents := make([][]string, 0)
	r := NewReader(f)
	for r.Next() {
		sents = append(sents, r.Sentence())
	}
	if err := r.Err(); err != nil {
		return nil, lmerr.Configuration("read corpus "+path, err)
	}
	return sents, nil
}

/*
Index converts every sentence to vocabulary ids.
*/
func Index(v *vocab.Vocab, sents [][]string) [][]int {
	out := make([][]int, len(sents))
	for i, s := range sents {
		out[i] = v.Indices(s)
	}
	return out
}

/*
TargetCount is the number of predicted tokens in data: every token but the
leading start marker of each sentence.
*/
func TargetCount(data [][]int) int {
	n := 0
	for _, s := range data {
		if len(s) > 1 {
			n += len(s) - 1
		}
	}
	return n
}
