package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/born-ml/sophie/internal/config"
	"github.com/born-ml/sophie/internal/corpus"
	"github.com/born-ml/sophie/internal/model"
	"github.com/born-ml/sophie/internal/nn"
	"github.com/born-ml/sophie/internal/optim"
	"github.com/born-ml/sophie/internal/tokenizer"
	"github.com/born-ml/sophie/internal/train"
)

// trainFlags are shared by train and run.
type trainFlags struct {
	corpus   *string
	config   *string
	steps    *int
	batch    *int
	lr       *float64
	workers  *int
	val      *float64
	progress *bool
}

func addTrainFlags(fs *flag.FlagSet) *trainFlags {
	return &trainFlags{
		corpus:   fs.String("corpus", "", "Dialogue corpus (UTF-8 text with 'User:'/'Bot:' labels)"),
		config:   fs.String("config", "", "YAML config file (defaults are used when empty)"),
		steps:    fs.Int("steps", 0, "Training steps (overrides config)"),
		batch:    fs.Int("batch", 0, "Windows per step (overrides config)"),
		lr:       fs.Float64("lr", 0, "AdamW learning rate (overrides config)"),
		workers:  fs.Int("workers", 0, "Goroutines per step, 1 = sequential (overrides config)"),
		val:      fs.Float64("val", 0, "Share of the corpus held out for validation (overrides config)"),
		progress: fs.Bool("progress", false, "Show a progress bar"),
	}
}

// apply copies explicitly set flags into cfg.
func (f *trainFlags) apply(fs *flag.FlagSet, cfg *config.Config) error {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "steps":
			cfg.Train.Steps = *f.steps
		case "batch":
			cfg.Train.BatchSize = *f.batch
		case "lr":
			cfg.Optimizer.LR = *f.lr
		case "workers":
			cfg.Workers = *f.workers
		case "val":
			cfg.Train.ValFraction = *f.val
			if cfg.Train.EvalEvery == 0 && cfg.Train.ValFraction > 0 {
				cfg.Train.EvalEvery = cfg.Train.LogEvery
			}
		}
	})
	return cfg.Validate()
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runTrain(args []string, _ io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	tf := addTrainFlags(fs)
	out := fs.String("out", "sophie.safetensors", "Checkpoint path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*tf.config)
	if err != nil {
		return err
	}
	if err := tf.apply(fs, &cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	session, err := trainCorpus(ctx, *tf.corpus, cfg, stdout, *tf.progress)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintf(stdout, "Interrupted after %d steps\n", session.result.Steps)
	}

	if err := session.lm.Save(*out, session.vocab, session.result.Steps, session.result.Loss); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	fmt.Fprintf(stdout, "Saved checkpoint to %s\n", *out)
	return nil
}

// trainSession is the outcome of training on one corpus.
type trainSession struct {
	lm     *model.DialogLM
	vocab  *tokenizer.Vocabulary
	result train.Result
}

// trainCorpus builds the vocabulary, encodes the corpus and trains a fresh
// model. On cancellation the partially trained session is returned with
// the context error.
func trainCorpus(ctx context.Context, corpusPath string, cfg config.Config, stdout io.Writer, progress bool) (*trainSession, error) {
	if corpusPath == "" {
		return nil, errors.New("-corpus is required")
	}
	text, err := corpus.ReadFile(corpusPath)
	if err != nil {
		return nil, err
	}

	vocab := tokenizer.BuildVocabulary(text, cfg.Vocab)
	stream, stats := corpus.EncodeWithStats(text, vocab)
	fmt.Fprintf(stdout, "Vocabulary: %d tokens, stream: %d ids (%.1f%% of words known)\n",
		vocab.Size(), stream.Len(), 100*stats.Coverage())

	mcfg := cfg.Model
	mcfg.VocabSize = vocab.Size()
	lm, err := model.New(mcfg)
	if err != nil {
		return nil, err
	}
	lm.SetParallel(cfg.Parallel())
	fmt.Fprintf(stdout, "Model: %d layers, %d parameters\n", mcfg.NumLayers, nn.CountParameters(lm.Parameters()))

	opts := []train.Option{train.WithLogger(log.New(stdout, "", 0))}
	if progress {
		opts = append(opts, train.WithProgress(os.Stderr))
	}
	trainer, err := train.New(lm, optim.NewAdamW(lm.Parameters(), cfg.Optimizer), stream, cfg.Train, opts...)
	if err != nil {
		return nil, err
	}

	result, err := trainer.Run(ctx)
	session := &trainSession{lm: lm, vocab: vocab, result: result}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return session, err
		}
		return nil, err
	}
	fmt.Fprintf(stdout, "Trained %d steps, final loss %.4f\n", result.Steps, result.Loss)
	return session, nil
}
