/*
Package vocab maps word tokens to dense integer ids and back.
*/
package vocab

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"

	"github.com/ruffrey/recurrent-nn-word-go/lmerr"
)

// Reserved tokens and their fixed ids.
const (
	PadToken   = "<pad>"
	StartToken = "<s>"
	EndToken   = "</s>"
	UnkToken   = "<unk>"

	PadID   = 0
	StartID = 1
	EndID   = 2
	UnkID   = 3
)

var reserved = []string{PadToken, StartToken, EndToken, UnkToken}

/*
Vocab is the token <-> id mapping. It does not change after construction.
*/
type Vocab struct {
	WordToIndex map[string]int
	IndexToWord []string
}

/*
New builds a Vocab from tokens in order. Reserved tokens and repeats in the
list are skipped, so ids stay dense.
*/
func New(tokens []string) *Vocab {
	v := &Vocab{
		WordToIndex: make(map[string]int, len(tokens)+len(reserved)),
		IndexToWord: make([]string, 0, len(tokens)+len(reserved)),
	}
	for _, tok := range reserved {
		v.add(tok)
	}
	for _, tok := range tokens {
		v.add(tok)
	}
	return v
}

func (v *Vocab) add(tok string) {
	if _, ok := v.WordToIndex[tok]; ok {
		return
	}
	v.WordToIndex[tok] = len(v.IndexToWord)
	v.IndexToWord = append(v.IndexToWord, tok)
}

/*
Build scans whitespace-tokenized corpus files and assigns ids to every token
seen at least minFreq times, in the order each token was first encountered.
Files are read in argument order.
*/
func Build(minFreq int, paths ...string) (*Vocab, error) {
	if len(paths) == 0 {
		return nil, lmerr.Configurationf("build vocab", "no vocabulary source given")
	}
	if minFreq < 1 {
		minFreq = 1
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, lmerr.Configuration("open vocab source "+p, err)
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			for _, tok := range strings.Fields(scanner.Text()) {
				if _, ok := counts[tok]; !ok {
					order = append(order, tok)
				}
				counts[tok]++
			}
		}
		err = scanner.Err()
		f.Close()
		if err != nil {
			return nil, lmerr.Configuration("read vocab source "+p, err)
		}
	}

	// filter by count threshold
	kept := make([]string, 0, len(order))
	for _, tok := range order {
		if counts[tok] >= minFreq {
			kept = append(kept, tok)
		}
	}
	return New(kept), nil
}

/*
ToID returns the id of tok, or UnkID when tok is unknown.
*/
func (v *Vocab) ToID(tok string) int {
	if id, ok := v.WordToIndex[tok]; ok {
		return id
	}
	return UnkID
}

/*
ToToken returns the token for id.
*/
func (v *Vocab) ToToken(id int) (string, error) {
	if id < 0 || id >= len(v.IndexToWord) {
		return "", &lmerr.IndexError{Index: id, Size: len(v.IndexToWord)}
	}
	return v.IndexToWord[id], nil
}

// Size counts the reserved tokens too.
func (v *Vocab) Size() int {
	return len(v.IndexToWord)
}

/*
Indices converts a sentence to ids.
*/
func (v *Vocab) Indices(sent []string) []int {
	ids := make([]int, len(sent))
	for i, tok := range sent {
		ids[i] = v.ToID(tok)
	}
	return ids
}

/*
Tokens returns the id-ordered token list. The slice is shared; do not modify it.
*/
func (v *Vocab) Tokens() []string {
	return v.IndexToWord
}

/*
MarshalJSON writes the vocabulary as its id-ordered token list.
*/
func (v *Vocab) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.IndexToWord)
}

/*
UnmarshalJSON restores a vocabulary written by MarshalJSON. The reserved
tokens must occupy ids 0-3.
*/
func (v *Vocab) UnmarshalJSON(b []byte) error {
	var words []string
	if err := json.Unmarshal(b, &words); err != nil {
		return err
	}
	for i, tok := range reserved {
		if i >= len(words) || words[i] != tok {
			return lmerr.Configurationf("load vocab", "reserved token %q missing at id %d", tok, i)
		}
	}
	*v = *New(words[len(reserved):])
	if v.Size() != len(words) {
		return lmerr.Configurationf("load vocab", "duplicate tokens in stored vocabulary")
	}
	return nil
}
