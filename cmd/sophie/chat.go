package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/born-ml/sophie/internal/config"
	"github.com/born-ml/sophie/internal/corpus"
	"github.com/born-ml/sophie/internal/generate"
	"github.com/born-ml/sophie/internal/model"
	"github.com/born-ml/sophie/internal/tokenizer"
)

// responder produces one bot turn per prompt.
type responder interface {
	Generate(prompt string, cfg generate.GenerateConfig) (generate.Response, error)
}

// generateFlags are shared by chat and run.
type generateFlags struct {
	maxLength   *int
	temperature *float64
	topK        *int
	topP        *float64
	seed        *int64
	noEcho      *bool
	tui         *bool
}

func addGenerateFlags(fs *flag.FlagSet) *generateFlags {
	return &generateFlags{
		maxLength:   fs.Int("max-length", 0, "Maximum tokens per reply (overrides config)"),
		temperature: fs.Float64("temperature", 0, "Sampling temperature, 0 = greedy (overrides config)"),
		topK:        fs.Int("top-k", 0, "Sample from the K most likely tokens (overrides config)"),
		topP:        fs.Float64("top-p", 0, "Nucleus sampling mass (overrides config)"),
		seed:        fs.Int64("seed", 0, "Sampling seed, -1 = random (overrides config)"),
		noEcho:      fs.Bool("no-echo", false, "Print only generated words, not the prompt"),
		tui:         fs.Bool("tui", false, "Full-screen chat interface"),
	}
}

// apply copies explicitly set flags into cfg.
func (f *generateFlags) apply(fs *flag.FlagSet, cfg *config.Config) error {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "max-length":
			cfg.Generate.MaxLength = *f.maxLength
		case "temperature":
			cfg.Sampling.Temperature = *f.temperature
		case "top-k":
			cfg.Sampling.TopK = *f.topK
		case "top-p":
			cfg.Sampling.TopP = *f.topP
		case "seed":
			cfg.Sampling.Seed = *f.seed
		case "no-echo":
			cfg.Generate.EchoPrompt = !*f.noEcho
		}
	})
	return cfg.Validate()
}

func runChat(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	modelPath := fs.String("model", "sophie.safetensors", "Checkpoint written by 'sophie train'")
	onnxPath := fs.String("onnx", "", "Exported ONNX model to chat with instead of a checkpoint")
	corpusPath := fs.String("corpus", "", "Corpus the ONNX model was trained on (rebuilds its vocabulary)")
	ortLib := fs.String("ort-lib", "", "Path to the onnxruntime shared library")
	configPath := fs.String("config", "", "YAML config file (defaults are used when empty)")
	gf := addGenerateFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := gf.apply(fs, &cfg); err != nil {
		return err
	}

	var (
		scorer model.Scorer
		vocab  *tokenizer.Vocabulary
	)
	if *onnxPath != "" {
		s, v, err := openONNX(*onnxPath, *corpusPath, *ortLib, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		scorer, vocab = s, v
	} else {
		lm, v, err := model.Load(*modelPath)
		if err != nil {
			return fmt.Errorf("load model: %w", err)
		}
		scorer, vocab = lm, v
	}

	gen, err := generate.NewGenerator(scorer, vocab, generate.NewSampler(cfg.Sampling))
	if err != nil {
		return err
	}
	return chat(gen, cfg.Generate, *gf.tui, stdin, stdout)
}

func openONNX(onnxPath, corpusPath, ortLib string, cfg config.Config) (*model.ONNXScorer, *tokenizer.Vocabulary, error) {
	if corpusPath == "" {
		return nil, nil, errors.New("-onnx needs -corpus to rebuild the vocabulary")
	}
	text, err := corpus.ReadFile(corpusPath)
	if err != nil {
		return nil, nil, err
	}
	vocab := tokenizer.BuildVocabulary(text, cfg.Vocab)

	ocfg := model.DefaultONNXConfig(onnxPath)
	ocfg.SharedLibraryPath = ortLib
	ocfg.ContextLen = cfg.Model.ContextLen
	ocfg.VocabSize = vocab.Size()
	s, err := model.NewONNXScorer(ocfg)
	if err != nil {
		return nil, nil, err
	}
	return s, vocab, nil
}

func chat(gen responder, cfg generate.GenerateConfig, tui bool, stdin io.Reader, stdout io.Writer) error {
	if tui {
		return runTUI(gen, cfg)
	}
	return chatLoop(stdin, stdout, gen, cfg)
}

// maxPromptBytes bounds one line of chat input.
const maxPromptBytes = 1 << 20

// chatLoop reads one prompt per line and prints a reply until exit, quit,
// or end of input.
func chatLoop(in io.Reader, out io.Writer, gen responder, cfg generate.GenerateConfig) error {
	fmt.Fprintln(out, "Dialogue bot (type 'exit' to quit)")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxPromptBytes)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := scanner.Text()
		if isExit(line) {
			return nil
		}

		resp, err := gen.Generate(line, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Sophie:", resp.Text)
	}
}

func isExit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit":
		return true
	}
	return false
}

func runTrainAndChat(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	tf := addTrainFlags(fs)
	gf := addGenerateFlags(fs)
	out := fs.String("out", "", "Also save the trained checkpoint here")
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
	if err := gf.apply(fs, &cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	session, err := trainCorpus(ctx, *tf.corpus, cfg, stdout, *tf.progress)
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if *out != "" {
		if err := session.lm.Save(*out, session.vocab, session.result.Steps, session.result.Loss); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
		fmt.Fprintf(stdout, "Saved checkpoint to %s\n", *out)
	}

	gen, err := generate.NewGenerator(session.lm, session.vocab, generate.NewSampler(cfg.Sampling))
	if err != nil {
		return err
	}
	return chat(gen, cfg.Generate, *gf.tui, stdin, stdout)
}
