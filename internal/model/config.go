package model

import (
	"errors"
	"fmt"

	"github.com/born-ml/sophie/internal/nn"
)

// ErrInvalidConfig is returned for model configurations that cannot be built.
var ErrInvalidConfig = errors.New("invalid model config")

// Config describes the shape of a DialogLM.
type Config struct {
	VocabSize  int     `json:"vocab_size" yaml:"-"`
	EmbedDim   int     `json:"embed_dim" yaml:"embed_dim"`
	NumHeads   int     `json:"num_heads" yaml:"num_heads"`
	NumLayers  int     `json:"num_layers" yaml:"num_layers"`
	FFNDim     int     `json:"ffn_dim" yaml:"ffn_dim"`
	ContextLen int     `json:"context_len" yaml:"context_len"`
	InitStd    float64 `json:"init_std" yaml:"init_std"`
	NormEps    float64 `json:"norm_eps" yaml:"norm_eps"`
	Seed       uint64  `json:"seed" yaml:"seed"`
}

// DefaultConfig returns the standard dialogue model shape. VocabSize is left
// zero; it comes from the vocabulary.
func DefaultConfig() Config {
	return Config{
		EmbedDim:   128,
		NumHeads:   4,
		NumLayers:  4,
		FFNDim:     512,
		ContextLen: 64,
		InitStd:    nn.DefaultInitStd,
		NormEps:    nn.DefaultNormEps,
		Seed:       1,
	}
}

// Validate checks that every dimension is usable.
func (c Config) Validate() error {
	switch {
	case c.VocabSize <= 0:
		return fmt.Errorf("%w: vocab size %d", ErrInvalidConfig, c.VocabSize)
	case c.EmbedDim <= 0:
		return fmt.Errorf("%w: embed dim %d", ErrInvalidConfig, c.EmbedDim)
	case c.NumHeads <= 0 || c.EmbedDim%c.NumHeads != 0:
		return fmt.Errorf("%w: embed dim %d not divisible by %d heads", ErrInvalidConfig, c.EmbedDim, c.NumHeads)
	case c.NumLayers < 0:
		return fmt.Errorf("%w: %d layers", ErrInvalidConfig, c.NumLayers)
	case c.FFNDim <= 0:
		return fmt.Errorf("%w: ffn dim %d", ErrInvalidConfig, c.FFNDim)
	case c.ContextLen <= 0:
		return fmt.Errorf("%w: context length %d", ErrInvalidConfig, c.ContextLen)
	case c.InitStd <= 0:
		return fmt.Errorf("%w: init std %g", ErrInvalidConfig, c.InitStd)
	case c.NormEps <= 0:
		return fmt.Errorf("%w: norm eps %g", ErrInvalidConfig, c.NormEps)
	}
	return nil
}
