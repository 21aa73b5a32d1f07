package main

import (
	"fmt"
	"log"
	"math/rand/v2"
	"os"

	"github.com/getlantern/errors"
	"github.com/pkg/profile"
	"gopkg.in/urfave/cli.v1"

	"github.com/ruffrey/recurrent-nn-word-go/config"
	"github.com/ruffrey/recurrent-nn-word-go/corpus"
	"github.com/ruffrey/recurrent-nn-word-go/decode"
	"github.com/ruffrey/recurrent-nn-word-go/model"
	"github.com/ruffrey/recurrent-nn-word-go/train"
	"github.com/ruffrey/recurrent-nn-word-go/vocab"
)

func main() {
	newApp().Run(os.Args)
}

func newApp() *cli.App {
	defaults := config.Default()

	app := cli.NewApp()
	app.Name = "wordlm"
	app.Usage = "A recurrent neural word-level language model."
	app.Version = "0.1.0"
	app.Commands = []cli.Command{
		{
			Name:  "train",
			Usage: "Train a language model, keeping the best checkpoint by dev perplexity",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "config", Usage: "Optional YAML `file` with any of these options"},
				cli.StringFlag{Name: "train-src", Usage: "Training sentences, one per line `file`"},
				cli.StringFlag{Name: "dev-src", Usage: "Validation sentences, one per line `file`"},
				cli.StringFlag{Name: "vocab", Usage: "`file` the vocabulary is built from"},
				cli.StringFlag{Name: "save-to", Value: defaults.SaveTo, Usage: "`file` path to save the best model"},
				cli.StringFlag{Name: "optim-save-to", Usage: "`file` path for the optimizer state (default: save-to + .optim)"},
				cli.Uint64Flag{Name: "seed", Value: defaults.Seed, Usage: "Seed for shuffling, init and dropout"},
				cli.IntFlag{Name: "batch-size", Value: defaults.BatchSize},
				cli.IntFlag{Name: "dev-batch-size", Value: defaults.DevBatchSize},
				cli.IntFlag{Name: "embed-size", Value: defaults.EmbedSize},
				cli.IntFlag{Name: "hidden-size", Value: defaults.HiddenSize},
				cli.Float64Flag{Name: "clip-grad", Value: defaults.ClipGrad, Usage: "Max global gradient norm, 0 to disable"},
				cli.IntFlag{Name: "log-every", Value: defaults.LogEvery},
				cli.IntFlag{Name: "max-epoch", Value: defaults.MaxEpoch},
				cli.IntFlag{Name: "patience", Value: defaults.Patience},
				cli.IntFlag{Name: "max-num-trial", Value: defaults.MaxNumTrial},
				cli.Float64Flag{Name: "lr-decay", Value: defaults.LRDecay},
				cli.Float64Flag{Name: "lr", Value: defaults.LR},
				cli.Float64Flag{Name: "uniform-init", Value: defaults.UniformInit},
				cli.IntFlag{Name: "valid-niter", Value: defaults.ValidNiter},
				cli.Float64Flag{Name: "dropout", Value: defaults.Dropout},
				cli.IntFlag{Name: "vocab-min-freq", Value: defaults.VocabMinFreq},
				cli.IntFlag{Name: "prefetch", Value: defaults.Prefetch, Usage: "Batches prepared ahead of the model"},
			},
			Action: func(c *cli.Context) error {
				cfg, err := trainConfig(c)
				if err != nil {
					return cli.NewExitError(err.Error(), 1)
				}
				if err := training(cfg, log.New(os.Stderr, "", log.LstdFlags)); err != nil {
					return cli.NewExitError(err.Error(), 1)
				}
				return nil
			},
		},
		{
			Name:      "decode",
			Usage:     "Write the average cross-entropy of every test sentence",
			ArgsUsage: "MODEL_PATH TEST_SOURCE_FILE [TEST_TARGET_FILE] OUTPUT_FILE",
			Action: func(c *cli.Context) error {
				logger := log.New(os.Stderr, "", log.LstdFlags)
				args := c.Args()
				var modelPath, testPath, outputPath string
				switch len(args) {
				case 3:
					modelPath, testPath, outputPath = args[0], args[1], args[2]
				case 4:
					modelPath, testPath, outputPath = args[0], args[1], args[3]
					logger.Printf("ignoring test target file %s", args[2])
				default:
					return cli.NewExitError("usage: decode "+c.Command.ArgsUsage, 1)
				}
				if err := decode.Run(modelPath, testPath, outputPath, logger); err != nil {
					return cli.NewExitError(err.Error(), 1)
				}
				return nil
			},
		},
		{
			Name:  "sample",
			Usage: "Generate sentences from a trained model",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "load", Usage: "`file` path to load an existing model"},
				cli.StringFlag{Name: "prefix", Usage: "Words to start every sentence with"},
				cli.IntFlag{Name: "n", Value: 1, Usage: "How many sentences"},
				cli.IntFlag{Name: "max-words", Value: 50, Usage: "Max length of generated sentences"},
				cli.Float64Flag{Name: "temperature", Value: 1.0, Usage: "How peaky model predictions should be"},
				cli.BoolFlag{Name: "greedy", Usage: "Always take the most likely word"},
				cli.Uint64Flag{Name: "seed", Usage: "Seed for sampling"},
			},
			Action: func(c *cli.Context) error {
				loadFilepath := c.String("load")
				if loadFilepath == "" {
					return cli.NewExitError("Missing required filepath to model: --load", 1)
				}
				m, err := model.Load(loadFilepath, c.Uint64("seed"))
				if err != nil {
					return cli.NewExitError(err.Error(), 1)
				}
				seed := c.Uint64("seed")
				rng := rand.New(rand.NewPCG(seed, seed*13/7))
				opts := decode.SampleOptions{
					Temperature: c.Float64("temperature"),
					MaxWords:    c.Int("max-words"),
					Greedy:      c.Bool("greedy"),
					Prefix:      c.String("prefix"),
				}
				for i := 0; i < c.Int("n"); i++ {
					fmt.Fprintln(c.App.Writer, decode.Sample(m, opts, rng))
				}
				return nil
			},
		},
	}
	return app
}

/*
trainConfig starts from the defaults, overlays the --config file and then
any flag given on the command line.
*/
func trainConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}

	strs := map[string]*string{
		"train-src":     &cfg.TrainSrc,
		"dev-src":       &cfg.DevSrc,
		"vocab":         &cfg.VocabSrc,
		"save-to":       &cfg.SaveTo,
		"optim-save-to": &cfg.OptimSaveTo,
	}
	ints := map[string]*int{
		"batch-size":     &cfg.BatchSize,
		"dev-batch-size": &cfg.DevBatchSize,
		"embed-size":     &cfg.EmbedSize,
		"hidden-size":    &cfg.HiddenSize,
		"log-every":      &cfg.LogEvery,
		"max-epoch":      &cfg.MaxEpoch,
		"patience":       &cfg.Patience,
		"max-num-trial":  &cfg.MaxNumTrial,
		"valid-niter":    &cfg.ValidNiter,
		"vocab-min-freq": &cfg.VocabMinFreq,
		"prefetch":       &cfg.Prefetch,
	}
	floats := map[string]*float64{
		"clip-grad":    &cfg.ClipGrad,
		"lr-decay":     &cfg.LRDecay,
		"lr":           &cfg.LR,
		"uniform-init": &cfg.UniformInit,
		"dropout":      &cfg.Dropout,
	}
	for name, dst := range strs {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	for name, dst := range ints {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}
	for name, dst := range floats {
		if c.IsSet(name) {
			*dst = c.Float64(name)
		}
	}
	if c.IsSet("seed") {
		cfg.Seed = c.Uint64("seed")
	}
	return cfg, cfg.Validate()
}

func training(cfg config.Config, logger *log.Logger) error {
	// cpu profiling via PERF environment flag
	if profileWhich := os.Getenv("PERF"); profileWhich != "" {
		if profileWhich == "mem" {
			defer profile.Start(profile.MemProfile).Stop()
		} else if profileWhich == "cpu" {
			defer profile.Start(profile.CPUProfile).Stop()
		}
	}

	trainSents, err := corpus.ReadCorpus(cfg.TrainSrc)
	if err != nil {
		return err
	}
	devSents, err := corpus.ReadCorpus(cfg.DevSrc)
	if err != nil {
		return err
	}
	if len(devSents) == 0 {
		return errors.New("Cannot proceed - dev set %s is empty", cfg.DevSrc)
	}

	v, err := vocab.Build(cfg.VocabMinFreq, cfg.VocabSrc)
	if err != nil {
		return err
	}
	logger.Printf("vocab size = %d", v.Size())

	m := model.New(v, model.Hyper{
		EmbedSize:   cfg.EmbedSize,
		HiddenSize:  cfg.HiddenSize,
		Dropout:     cfg.Dropout,
		UniformInit: cfg.UniformInit,
	}, cfg.Seed)
	learner := train.NewLearner(m, corpus.Index(v, devSents), cfg.DevBatchSize, cfg.SaveTo, cfg.OptimPath(), cfg.Seed)

	reason, err := train.NewController(cfg, learner, corpus.Index(v, trainSents), logger).Run()
	if err != nil {
		return err
	}
	logger.Printf("training finished: %s", reason)
	return nil
}
