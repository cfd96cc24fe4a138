// Package config loads the settings for training and chatting with a
// dialogue model.
//
// A YAML file overlays the defaults; fields it omits keep their default
// values and unknown fields are rejected:
//
//	vocab:
//	  max_words: 5000
//	  min_count: 3
//	model:
//	  embed_dim: 128
//	  num_heads: 4
//	  num_layers: 4
//	  context_len: 64
//	optimizer:
//	  lr: 0.0003
//	train:
//	  batch_size: 32
//	  steps: 1000
//	generate:
//	  max_length: 50
//	sampling:
//	  temperature: 1.0
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/sophie/internal/generate"
	"github.com/born-ml/sophie/internal/model"
	"github.com/born-ml/sophie/internal/optim"
	"github.com/born-ml/sophie/internal/parallel"
	"github.com/born-ml/sophie/internal/tokenizer"
	"github.com/born-ml/sophie/internal/train"
)

// Config is the complete set of tunables.
type Config struct {
	Vocab     tokenizer.VocabConfig   `yaml:"vocab"`
	Model     model.Config            `yaml:"model"`
	Optimizer optim.AdamWConfig       `yaml:"optimizer"`
	Train     train.Config            `yaml:"train"`
	Generate  generate.GenerateConfig `yaml:"generate"`
	Sampling  generate.SamplingConfig `yaml:"sampling"`

	// Workers bounds the goroutines used for one training step.
	// 0 uses GOMAXPROCS, 1 runs sequentially.
	Workers int `yaml:"workers"`
}

// Default returns the default settings of every component.
func Default() Config {
	return Config{
		Vocab:     tokenizer.DefaultVocabConfig(),
		Model:     model.DefaultConfig(),
		Optimizer: optim.DefaultAdamWConfig(),
		Train:     train.DefaultConfig(),
		Generate:  generate.DefaultGenerateConfig(),
		Sampling:  generate.DefaultSamplingConfig(),
	}
}

// Load reads path and overlays it on Default.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads YAML from r and overlays it on Default. An empty document
// yields the defaults.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks every section. The model vocabulary size is not known
// until the corpus is read, so it is not checked here.
func (c Config) Validate() error {
	if c.Vocab.MinCount < 0 {
		return fmt.Errorf("vocab: min_count must not be negative, got %d", c.Vocab.MinCount)
	}

	m := c.Model
	m.VocabSize = tokenizer.NumControlTokens
	if err := m.Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}

	if c.Optimizer.LR < 0 || c.Optimizer.WeightDecay < 0 || c.Optimizer.Eps < 0 {
		return errors.New("optimizer: lr, eps and weight_decay must not be negative")
	}
	for _, b := range c.Optimizer.Betas {
		if b < 0 || b >= 1 {
			return fmt.Errorf("optimizer: betas must be in [0, 1), got %v", c.Optimizer.Betas)
		}
	}

	if err := c.Train.Validate(); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	if c.Generate.MaxLength < 0 {
		return fmt.Errorf("generate: %w", generate.ErrInvalidMaxLength)
	}
	if err := c.Sampling.Validate(); err != nil {
		return fmt.Errorf("sampling: %w", err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// Parallel returns the worker settings for a training step.
func (c Config) Parallel() parallel.Config {
	switch c.Workers {
	case 0:
		return parallel.DefaultConfig()
	case 1:
		return parallel.Sequential()
	default:
		return parallel.Config{Enabled: true, NumWorkers: c.Workers, MinChunkSize: 1}
	}
}
