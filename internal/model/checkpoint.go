package model

import (
	"encoding/json"
	"fmt"

	"github.com/born-ml/sophie/internal/serialization"
	"github.com/born-ml/sophie/internal/tokenizer"
)

// Checkpoint packages the model with its vocabulary and training progress.
func (m *DialogLM) Checkpoint(vocab *tokenizer.Vocabulary, step int, loss float64) (*serialization.Checkpoint, error) {
	if vocab.Size() != m.Config.VocabSize {
		return nil, fmt.Errorf("%w: vocabulary has %d words, model %d", ErrInvalidConfig, vocab.Size(), m.Config.VocabSize)
	}
	cfg, err := json.Marshal(m.Config)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return &serialization.Checkpoint{
		Tensors: m.StateDict(),
		Config:  cfg,
		Vocab:   vocab.Words(),
		Step:    step,
		Loss:    loss,
	}, nil
}

// FromCheckpoint rebuilds a model and its vocabulary from c.
func FromCheckpoint(c *serialization.Checkpoint) (*DialogLM, *tokenizer.Vocabulary, error) {
	vocab, err := tokenizer.NewVocabulary(c.Vocab)
	if err != nil {
		return nil, nil, err
	}

	cfg := DefaultConfig()
	if len(c.Config) > 0 {
		if err := json.Unmarshal(c.Config, &cfg); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if cfg.VocabSize != vocab.Size() {
		return nil, nil, fmt.Errorf("%w: config vocab size %d, vocabulary %d", ErrInvalidConfig, cfg.VocabSize, vocab.Size())
	}

	m, err := New(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := m.LoadStateDict(c.Tensors); err != nil {
		return nil, nil, err
	}
	return m, vocab, nil
}

// Load reads a checkpoint file and rebuilds the model and vocabulary.
func Load(path string) (*DialogLM, *tokenizer.Vocabulary, error) {
	c, err := serialization.ReadCheckpoint(path)
	if err != nil {
		return nil, nil, err
	}
	return FromCheckpoint(c)
}

// Save writes the model, vocabulary, and progress to path.
func (m *DialogLM) Save(path string, vocab *tokenizer.Vocabulary, step int, loss float64) error {
	c, err := m.Checkpoint(vocab, step, loss)
	if err != nil {
		return err
	}
	return serialization.WriteCheckpoint(path, c)
}
