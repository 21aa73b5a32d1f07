package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ruffrey/recurrent-nn-word-go/lmerr"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("a b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDefault(t *testing.T) {
	t.Run("defaults match the documented values", func(t *testing.T) {
		c := Default()
		if c.BatchSize != 32 || c.EmbedSize != 256 || c.HiddenSize != 256 || c.ClipGrad != 5.0 ||
			c.LogEvery != 10 || c.MaxEpoch != 30 || c.Patience != 5 || c.MaxNumTrial != 5 ||
			c.LRDecay != 0.5 || c.LR != 0.001 || c.UniformInit != 0.1 || c.ValidNiter != 2000 ||
			c.Dropout != 0.2 || c.Seed != 0 {
			t.Fatalf("unexpected defaults %+v", c)
		}
		if err := c.ValidateNumbers(); err != nil {
			t.Fatalf("defaults do not validate: %v", err)
		}
	})
	t.Run("optimizer path follows the model path", func(t *testing.T) {
		c := Default()
		c.SaveTo = "work/model.json"
		if c.OptimPath() != "work/model.json.optim" {
			t.Fatalf("got %s", c.OptimPath())
		}
		c.OptimSaveTo = "work/optim.json"
		if c.OptimPath() != "work/optim.json" {
			t.Fatalf("got %s", c.OptimPath())
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("yaml overlays only the keys it names", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "train.yaml")
		yml := "batch-size: 8\nlr: 0.01\ntrain-src: data/train.txt\n"
		if err := os.WriteFile(p, []byte(yml), 0o644); err != nil {
			t.Fatal(err)
		}
		c, err := Load(p)
		if err != nil {
			t.Fatal(err)
		}
		if c.BatchSize != 8 || c.LR != 0.01 || c.TrainSrc != "data/train.txt" || c.HiddenSize != 256 {
			t.Fatalf("unexpected config %+v", c)
		}
	})
	t.Run("unreadable file is a configuration error", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); !lmerr.IsConfiguration(err) {
			t.Fatalf("expected configuration error, got %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	valid := func() Config {
		c := Default()
		c.TrainSrc = touch(t, dir, "train.txt")
		c.DevSrc = touch(t, dir, "dev.txt")
		c.VocabSrc = touch(t, dir, "vocab.txt")
		return c
	}
	t.Run("complete config passes", func(t *testing.T) {
		c := valid()
		if err := c.Validate(); err != nil {
			t.Fatal(err)
		}
	})
	t.Run("bad values are configuration errors", func(t *testing.T) {
		cases := map[string]func(c *Config){
			"negative batch size": func(c *Config) { c.BatchSize = -1 },
			"zero hidden size":    func(c *Config) { c.HiddenSize = 0 },
			"zero learning rate":  func(c *Config) { c.LR = 0 },
			"dropout of one":      func(c *Config) { c.Dropout = 1 },
			"decay above one":     func(c *Config) { c.LRDecay = 1.5 },
			"missing train file":  func(c *Config) { c.TrainSrc = filepath.Join(dir, "nope.txt") },
			"empty dev path":      func(c *Config) { c.DevSrc = "" },
			"empty save path":     func(c *Config) { c.SaveTo = "" },
		}
		for name, mutate := range cases {
			c := valid()
			mutate(&c)
			if err := c.Validate(); !lmerr.IsConfiguration(err) {
				t.Fatalf("%s: expected configuration error, got %v", name, err)
			}
		}
	})
}
