package corpus

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ruffrey/recurrent-nn-word-go/lmerr"
	"github.com/ruffrey/recurrent-nn-word-go/vocab"
)

func sampleData(n int) [][]int {
	data := make([][]int, n)
	for i := range data {
		s := []int{vocab.StartID}
		for k := 0; k < 1+i%4; k++ {
			s = append(s, 4+i+k)
		}
		data[i] = append(s, vocab.EndID)
	}
	return data
}

func TestReadCorpus(t *testing.T) {
	p := filepath.Join(t.TempDir(), "train.txt")
	if err := os.WriteFile(p, []byte("a b\n\n  \nc d e\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Run("wraps every non blank line with markers", func(t *testing.T) {
		sents, err := ReadCorpus(p)
		if err != nil {
			t.Fatal(err)
		}
		want := [][]string{{"<s>", "a", "b", "</s>"}, {"<s>", "c", "d", "e", "</s>"}}
		if !reflect.DeepEqual(sents, want) {
			t.Fatalf("got %v, want %v", sents, want)
		}
	})
	t.Run("missing file is a configuration error", func(t *testing.T) {
		_, err := ReadCorpus(filepath.Join(t.TempDir(), "missing.txt"))
		if !lmerr.IsConfiguration(err) {
			t.Fatalf("expected configuration error, got %v", err)
		}
	})
	t.Run("reader yields sentences lazily in order", func(t *testing.T) {
		r := NewReader(strings.NewReader("x\ny z\n"))
		var got [][]string
		for r.Next() {
			got = append(got, append([]string(nil), r.Sentence()...))
		}
		if r.Err() != nil || len(got) != 2 || got[1][2] != "z" {
			t.Fatalf("unexpected %v, %v", got, r.Err())
		}
	})
}

func TestBatchIterator(t *testing.T) {
	t.Run("unshuffled batches reproduce the corpus in order", func(t *testing.T) {
		for _, n := range []int{1, 7, 8, 9, 20} {
			for _, bs := range []int{1, 3, 8} {
				data := sampleData(n)
				it := NewBatchIterator(data, bs, false, nil)
				var got [][]int
				batches := 0
				for b, ok := it.Next(); ok; b, ok = it.Next() {
					batches++
					for j := 0; j < b.Size(); j++ {
						got = append(got, b.Column(j))
					}
				}
				if batches != it.Len() || batches != (n+bs-1)/bs {
					t.Fatalf("n=%d bs=%d: %d batches, Len %d", n, bs, batches, it.Len())
				}
				if !reflect.DeepEqual(got, data) {
					t.Fatalf("n=%d bs=%d: corpus not reproduced", n, bs)
				}
			}
		}
	})
	t.Run("shuffled pass keeps every sentence exactly once", func(t *testing.T) {
		data := sampleData(23)
		it := NewBatchIterator(data, 5, true, rand.New(rand.NewPCG(1, 2)))
		seen := make(map[int]int)
		for b, ok := it.Next(); ok; b, ok = it.Next() {
			for j := 0; j < b.Size(); j++ {
				seen[b.Column(j)[1]]++
			}
		}
		if len(seen) != len(data) {
			t.Fatalf("saw %d sentences, want %d", len(seen), len(data))
		}
		for k, c := range seen {
			if c != 1 {
				t.Fatalf("sentence starting %d seen %d times", k, c)
			}
		}
	})
	t.Run("same seed gives the same shuffle", func(t *testing.T) {
		data := sampleData(30)
		a := NewBatchIterator(data, 4, true, rand.New(rand.NewPCG(7, 7)))
		b := NewBatchIterator(data, 4, true, rand.New(rand.NewPCG(7, 7)))
		for {
			x, okx := a.Next()
			y, oky := b.Next()
			if okx != oky {
				t.Fatal("passes differ in length")
			}
			if !okx {
				break
			}
			if !reflect.DeepEqual(x, y) {
				t.Fatal("batches differ for the same seed")
			}
		}
	})
	t.Run("batches are right padded and time major", func(t *testing.T) {
		b := NewBatch([][]int{{1, 5, 2}, {1, 6, 7, 8, 2}})
		if b.MaxLen() != 5 || b.Size() != 2 {
			t.Fatalf("shape %dx%d", b.MaxLen(), b.Size())
		}
		if b.IDs[3][0] != vocab.PadID || b.IDs[4][0] != vocab.PadID || b.IDs[4][1] != 2 {
			t.Fatalf("bad padding %v", b.IDs)
		}
		if b.TargetCount() != 6 {
			t.Fatalf("target count %d, want 6", b.TargetCount())
		}
	})
}

func TestPrefetch(t *testing.T) {
	t.Run("prefetched order matches direct iteration", func(t *testing.T) {
		data := sampleData(17)
		direct := NewBatchIterator(data, 3, true, rand.New(rand.NewPCG(3, 3)))
		ahead := NewBatchIterator(data, 3, true, rand.New(rand.NewPCG(3, 3)))
		done := make(chan struct{})
		defer close(done)
		for b := range Prefetch(done, ahead, 2) {
			want, ok := direct.Next()
			if !ok || !reflect.DeepEqual(b, want) {
				t.Fatal("prefetch changed the batch order")
			}
		}
		if _, ok := direct.Next(); ok {
			t.Fatal("prefetch dropped batches")
		}
	})
	t.Run("closing done stops the producer", func(t *testing.T) {
		done := make(chan struct{})
		ch := Prefetch(done, NewBatchIterator(sampleData(50), 1, false, nil), 0)
		<-ch
		close(done)
		for range ch {
		}
	})
}
