package model

import (
	"github.com/ruffrey/recurrent-nn-word-go/lmerr"
	"github.com/ruffrey/recurrent-nn-word-go/store"
	"github.com/ruffrey/recurrent-nn-word-go/vocab"
)

// checkpoint is what gets persisted: enough to rebuild the scorer alone.
type checkpoint struct {
	Hyper Hyper
	Vocab *vocab.Vocab
	Model Params
}

/*
Save writes the parameters, hyperparameters and vocabulary to path,
replacing any previous file.
*/
func (m *LSTM) Save(path string) error {
	for name, p := range m.Model {
		for _, w := range p.W {
			if err := lmerr.CheckFinite("parameter "+name, w); err != nil {
				return err
			}
		}
	}
	return store.SaveJSON(path, checkpoint{Hyper: m.Hyper, Vocab: m.Vocab, Model: m.Model})
}

/*
Load reads a model written by Save. The generator for dropout and initial
states is seeded with seed.
*/
func Load(path string, seed uint64) (*LSTM, error) {
	var ck checkpoint
	if err := store.LoadJSON(path, &ck); err != nil {
		return nil, lmerr.Configuration("load model "+path, err)
	}
	if ck.Vocab == nil {
		return nil, lmerr.Configurationf("load model "+path, "checkpoint has no vocabulary")
	}

	v, e, h := ck.Vocab.Size(), ck.Hyper.EmbedSize, ck.Hyper.HiddenSize
	shapes := map[string][2]int{
		"Wemb": {v, e},
		"Wix":  {h, e}, "Wih": {h, h}, "bi": {h, 1},
		"Wfx": {h, e}, "Wfh": {h, h}, "bf": {h, 1},
		"Wox": {h, e}, "Woh": {h, h}, "bo": {h, 1},
		"Wcx": {h, e}, "Wch": {h, h}, "bc": {h, 1},
		"Whd": {v, h}, "bd": {v, 1},
	}
	for _, name := range ParamNames {
		p, ok := ck.Model[name]
		want := shapes[name]
		if !ok || p == nil {
			return nil, lmerr.Configurationf("load model "+path, "missing parameter %s", name)
		}
		if p.RowCount != want[0] || p.ColumnCount != want[1] || len(p.W) != want[0]*want[1] {
			return nil, lmerr.Configurationf("load model "+path, "parameter %s has shape %dx%d, want %dx%d",
				name, p.RowCount, p.ColumnCount, want[0], want[1])
		}
		p.ZeroGrad()
	}
	if len(ck.Model) != len(ParamNames) {
		return nil, lmerr.Configurationf("load model "+path, "unexpected parameters in checkpoint")
	}

	m := &LSTM{Hyper: ck.Hyper, Vocab: ck.Vocab, Model: ck.Model}
	m.Seed(seed)
	return m, nil
}
