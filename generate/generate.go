// Package generate provides reply generation for dialogue models.
//
// This package wraps the internal generate implementations and provides
// a clean public API for text generation tasks.
//
// Components:
//   - Sampler: Sampling strategies (greedy, top-k, top-p, temperature)
//   - Generator: Bot turn generation that stops at the user marker
//
// Example usage:
//
//	import (
//	    "github.com/born-ml/sophie/generate"
//	    "github.com/born-ml/sophie/loader"
//	)
//
//	lm, vocab, err := loader.Load("sophie.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create sampler
//	sampler := generate.NewSampler(generate.SamplingConfig{
//	    Temperature: 0.7,
//	    TopP:        0.9,
//	    TopK:        40,
//	    Seed:        42,
//	})
//
//	gen, err := generate.NewGenerator(lm, vocab, sampler)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resp, err := gen.Generate("hello there", generate.DefaultGenerateConfig())
package generate

import (
	"golang.org/x/exp/rand"

	"github.com/born-ml/sophie/internal/generate"
	"github.com/born-ml/sophie/internal/model"
	"github.com/born-ml/sophie/internal/tokenizer"
)

// Scorer returns next-token distributions for a context window.
type Scorer = model.Scorer

// Generation errors.
var (
	ErrVocabMismatch       = generate.ErrVocabMismatch
	ErrInvalidMaxLength    = generate.ErrInvalidMaxLength
	ErrInvalidDistribution = generate.ErrInvalidDistribution
)

// SamplingConfig configures the sampling strategy for text generation.
type SamplingConfig = generate.SamplingConfig

// Sampler draws token IDs from probability distributions.
type Sampler = generate.Sampler

// DefaultSamplingConfig returns a plain categorical draw from the model
// distribution.
func DefaultSamplingConfig() SamplingConfig {
	return generate.DefaultSamplingConfig()
}

// NewSampler creates a new sampler with the given configuration.
func NewSampler(config SamplingConfig) *Sampler {
	return generate.NewSampler(config)
}

// NewSamplerWithSource creates a sampler that draws from src.
func NewSamplerWithSource(config SamplingConfig, src rand.Source) *Sampler {
	return generate.NewSamplerWithSource(config, src)
}

// StopReason tells why generation ended.
type StopReason = generate.StopReason

// Stop reasons.
const (
	StopTurnSwitch = generate.StopTurnSwitch
	StopMaxLength  = generate.StopMaxLength
)

// GenerateConfig configures text generation.
//
//nolint:revive // GenerateConfig is clearer than Config
type GenerateConfig = generate.GenerateConfig

// DefaultGenerateConfig returns 50-token replies that echo the prompt.
func DefaultGenerateConfig() GenerateConfig {
	return generate.DefaultGenerateConfig()
}

// Response is the result of one generation.
type Response = generate.Response

// GenerateResult is one streamed generation event.
//
//nolint:revive // GenerateResult is clearer than Result
type GenerateResult = generate.GenerateResult

// Generator produces bot turns from a Scorer.
type Generator = generate.Generator

// NewGenerator creates a generator for scorer and vocab. A nil sampler uses
// DefaultSamplingConfig.
func NewGenerator(scorer Scorer, vocab *tokenizer.Vocabulary, sampler *Sampler) (*Generator, error) {
	return generate.NewGenerator(scorer, vocab, sampler)
}
