/*
Package config holds the validated options for training and decoding.
*/
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ruffrey/recurrent-nn-word-go/lmerr"
)

/*
Config is every recognised option. YAML keys match the command line flag
names.
*/
type Config struct {
	TrainSrc    string `yaml:"train-src"`
	DevSrc      string `yaml:"dev-src"`
	VocabSrc    string `yaml:"vocab"`
	SaveTo      string `yaml:"save-to"`
	OptimSaveTo string `yaml:"optim-save-to"`

	Seed         uint64  `yaml:"seed"`
	BatchSize    int     `yaml:"batch-size"`
	DevBatchSize int     `yaml:"dev-batch-size"`
	EmbedSize    int     `yaml:"embed-size"`
	HiddenSize   int     `yaml:"hidden-size"`
	ClipGrad     float64 `yaml:"clip-grad"`
	LogEvery     int     `yaml:"log-every"`
	MaxEpoch     int     `yaml:"max-epoch"`
	Patience     int     `yaml:"patience"`
	MaxNumTrial  int     `yaml:"max-num-trial"`
	LRDecay      float64 `yaml:"lr-decay"`
	LR           float64 `yaml:"lr"`
	UniformInit  float64 `yaml:"uniform-init"`
	ValidNiter   int     `yaml:"valid-niter"`
	Dropout      float64 `yaml:"dropout"`
	VocabMinFreq int     `yaml:"vocab-min-freq"`
	Prefetch     int     `yaml:"prefetch"`
}

/*
Default returns the stock option values.
*/
func Default() Config {
	return Config{
		SaveTo:       "model.json",
		Seed:         0,
		BatchSize:    32,
		DevBatchSize: 128,
		EmbedSize:    256,
		HiddenSize:   256,
		ClipGrad:     5.0,
		LogEvery:     10,
		MaxEpoch:     30,
		Patience:     5,
		MaxNumTrial:  5,
		LRDecay:      0.5,
		LR:           0.001,
		UniformInit:  0.1,
		ValidNiter:   2000,
		Dropout:      0.2,
		VocabMinFreq: 1,
		Prefetch:     2,
	}
}

/*
Load overlays the YAML file at path on the defaults.
*/
func Load(path string) (Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, lmerr.Configuration("read config "+path, err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, lmerr.Configuration("parse config "+path, err)
	}
	return c, nil
}

/*
OptimPath is where optimizer state is written: OptimSaveTo, or SaveTo with
".optim" appended.
*/
func (c *Config) OptimPath() string {
	if c.OptimSaveTo != "" {
		return c.OptimSaveTo
	}
	return c.SaveTo + ".optim"
}

/*
Validate checks the options needed for training, including that the input
files exist.
*/
func (c *Config) Validate() error {
	for _, f := range []struct {
		name, path string
	}{
		{"train-src", c.TrainSrc},
		{"dev-src", c.DevSrc},
		{"vocab", c.VocabSrc},
	} {
		if f.path == "" {
			return lmerr.Configurationf(f.name, "a file path is required")
		}
		if _, err := os.Stat(f.path); err != nil {
			return lmerr.Configuration(f.name, err)
		}
	}
	if c.SaveTo == "" {
		return lmerr.Configurationf("save-to", "a file path is required")
	}
	return c.ValidateNumbers()
}

/*
ValidateNumbers checks the numeric options only.
*/
func (c *Config) ValidateNumbers() error {
	positive := []struct {
		name  string
		value int
	}{
		{"batch-size", c.BatchSize},
		{"dev-batch-size", c.DevBatchSize},
		{"embed-size", c.EmbedSize},
		{"hidden-size", c.HiddenSize},
		{"log-every", c.LogEvery},
		{"max-epoch", c.MaxEpoch},
		{"patience", c.Patience},
		{"max-num-trial", c.MaxNumTrial},
		{"valid-niter", c.ValidNiter},
		{"vocab-min-freq", c.VocabMinFreq},
	}
	for _, p := range positive {
		if p.value < 1 {
			return lmerr.Configurationf(p.name, "must be positive, got %d", p.value)
		}
	}
	if c.Prefetch < 0 {
		return lmerr.Configurationf("prefetch", "must not be negative, got %d", c.Prefetch)
	}
	if !(c.LR > 0) {
		return lmerr.Configurationf("lr", "must be positive, got %v", c.LR)
	}
	if !(c.LRDecay > 0 && c.LRDecay <= 1) {
		return lmerr.Configurationf("lr-decay", "must be in (0, 1], got %v", c.LRDecay)
	}
	if !(c.Dropout >= 0 && c.Dropout < 1) {
		return lmerr.Configurationf("dropout", "must be in [0, 1), got %v", c.Dropout)
	}
	if !(c.UniformInit >= 0) {
		return lmerr.Configurationf("uniform-init", "must not be negative, got %v", c.UniformInit)
	}
	if !(c.ClipGrad >= 0) {
		return lmerr.Configurationf("clip-grad", "must not be negative, got %v", c.ClipGrad)
	}
	return nil
}
