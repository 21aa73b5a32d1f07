package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"gopkg.in/urfave/cli.v1"

	"github.com/ruffrey/recurrent-nn-word-go/config"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestTrainConfig(t *testing.T) {
	t.Run("flags override the yaml file and the yaml overrides defaults", func(t *testing.T) {
		dir := t.TempDir()
		data := writeFile(t, dir, "train.txt", "a b c\n")
		yml := writeFile(t, dir, "c.yaml", "lr: 0.02\nbatch-size: 4\ntrain-src: "+data+"\n")

		var got config.Config
		app := newApp()
		app.Commands[0].Action = func(c *cli.Context) error {
			var err error
			got, err = trainConfig(c)
			return err
		}
		err := app.Run([]string{"wordlm", "train", "--config", yml,
			"--dev-src", data, "--vocab", data, "--batch-size", "8"})
		if err != nil {
			t.Fatal(err)
		}
		if got.LR != 0.02 || got.BatchSize != 8 || got.TrainSrc != data || got.HiddenSize != 256 {
			t.Fatalf("unexpected config %+v", got)
		}
	})
}

func TestCommands(t *testing.T) {
	t.Run("train then decode round trip", func(t *testing.T) {
		dir := t.TempDir()
		trainSrc := writeFile(t, dir, "train.txt", "the cat sat\non the mat\nthe cat sat on the mat\n")
		devSrc := writeFile(t, dir, "dev.txt", "the cat\n")
		modelPath := filepath.Join(dir, "work", "model.json")

		err := newApp().Run([]string{"wordlm", "train",
			"--train-src", trainSrc, "--dev-src", devSrc, "--vocab", trainSrc,
			"--save-to", modelPath, "--embed-size", "4", "--hidden-size", "4",
			"--batch-size", "2", "--valid-niter", "1", "--log-every", "1", "--max-epoch", "2"})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(modelPath + ".optim"); err != nil {
			t.Fatal(err)
		}

		testSrc := writeFile(t, dir, "test.txt", "a b\nc d e\n")
		target := writeFile(t, dir, "target.txt", "unused\n")
		out := filepath.Join(dir, "scores.txt")
		if err := newApp().Run([]string{"wordlm", "decode", modelPath, testSrc, target, out}); err != nil {
			t.Fatal(err)
		}
		b, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(string(b)), "\n")
		if len(lines) != 2 {
			t.Fatalf("unexpected output %q", b)
		}
		for _, line := range lines {
			if _, err := strconv.ParseFloat(line, 64); err != nil {
				t.Fatal(err)
			}
		}

		var sampled bytes.Buffer
		app := newApp()
		app.Writer = &sampled
		if err := app.Run([]string{"wordlm", "sample", "--load", modelPath, "--n", "2", "--max-words", "5"}); err != nil {
			t.Fatal(err)
		}
		if strings.Count(sampled.String(), "\n") != 2 {
			t.Fatalf("unexpected samples %q", sampled.String())
		}
	})
}
