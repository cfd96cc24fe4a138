// Package generate samples dialogue responses from a sequence model.
//
// This package implements the sampling strategies and the autoregressive
// loop that turns a prompt into a bot turn.
package generate

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidDistribution is returned when a probability vector cannot be
// sampled: empty, negative or NaN entries, or zero total mass.
var ErrInvalidDistribution = errors.New("invalid probability distribution")

// SamplingConfig configures the sampling strategy for text generation.
type SamplingConfig struct {
	// Temperature controls randomness. 0 = greedy, 1 = normal, >1 = more random.
	Temperature float64 `yaml:"temperature"`

	// TopK limits sampling to top K tokens. 0 = disabled.
	TopK int `yaml:"top_k"`

	// TopP (nucleus sampling) limits to the smallest set of tokens whose
	// cumulative probability reaches P. 1.0 = disabled.
	TopP float64 `yaml:"top_p"`

	// Seed for reproducibility. -1 = random.
	Seed int64 `yaml:"seed"`
}

// DefaultSamplingConfig returns a plain categorical draw from the model
// distribution.
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Temperature: 1.0,
		TopK:        0,
		TopP:        1.0,
		Seed:        -1,
	}
}

// Validate checks the config.
func (c SamplingConfig) Validate() error {
	switch {
	case c.Temperature < 0 || math.IsNaN(c.Temperature):
		return fmt.Errorf("temperature must not be negative, got %g", c.Temperature)
	case c.TopK < 0:
		return fmt.Errorf("top_k must not be negative, got %d", c.TopK)
	case c.TopP <= 0 || c.TopP > 1:
		return fmt.Errorf("top_p must be in (0, 1], got %g", c.TopP)
	}
	return nil
}

// Sampler draws token IDs from next-token distributions.
//
// A Sampler owns its random source and is not safe for concurrent use.
type Sampler struct {
	config SamplingConfig
	src    rand.Source
}

// NewSampler creates a new sampler with the given configuration.
func NewSampler(config SamplingConfig) *Sampler {
	seed := uint64(time.Now().UnixNano()) //nolint:gosec // G115: any bit pattern is a valid seed.
	if config.Seed >= 0 {
		seed = uint64(config.Seed)
	}
	return NewSamplerWithSource(config, rand.NewSource(seed))
}

// NewSamplerWithSource creates a sampler drawing from src.
func NewSamplerWithSource(config SamplingConfig, src rand.Source) *Sampler {
	return &Sampler{
		config: config,
		src:    src,
	}
}

// Config returns the sampling configuration.
func (s *Sampler) Config() SamplingConfig {
	return s.config
}

// Sample returns the next token ID from a probability vector.
//
// The sampling process:
//  1. Apply temperature scaling (argmax if temperature = 0)
//  2. Apply Top-K filtering
//  3. Apply Top-P (nucleus) filtering
//  4. Draw from the remaining categorical distribution
//
// probs is not modified and need not be normalized.
func (s *Sampler) Sample(probs []float64) (int32, error) {
	if err := checkDistribution(probs); err != nil {
		return 0, err
	}

	// Greedy decoding (temperature = 0)
	if s.config.Temperature == 0 {
		return int32(floats.MaxIdx(probs)), nil //nolint:gosec // G115: vocab size is bounded.
	}

	weights := append([]float64(nil), probs...)

	if s.config.Temperature != 1.0 {
		applyTemperature(weights, s.config.Temperature)
	}
	if s.config.TopK > 0 && s.config.TopK < len(weights) {
		topKFilter(weights, s.config.TopK)
	}
	if s.config.TopP > 0 && s.config.TopP < 1.0 {
		topPFilter(weights, s.config.TopP)
	}

	// NewCategorical normalizes the weights.
	dist := distuv.NewCategorical(weights, s.src)
	return int32(dist.Rand()), nil //nolint:gosec // G115: vocab size is bounded.
}

func checkDistribution(probs []float64) error {
	if len(probs) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidDistribution)
	}
	var sum float64
	for i, p := range probs {
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: entry %d is %g", ErrInvalidDistribution, i, p)
		}
		sum += p
	}
	if sum == 0 {
		return fmt.Errorf("%w: zero mass", ErrInvalidDistribution)
	}
	return nil
}

// applyTemperature raises each weight to 1/t, which is softmax(log(p)/t)
// up to normalization. Computed in log space relative to the maximum.
func applyTemperature(weights []float64, t float64) {
	maxLog := math.Log(floats.Max(weights))
	for i, w := range weights {
		if w == 0 {
			continue
		}
		weights[i] = math.Exp((math.Log(w) - maxLog) / t)
	}
}

// topKFilter keeps only the k largest weights and zeroes the rest.
// Ties at the threshold are all kept.
func topKFilter(weights []float64, k int) {
	sorted := append([]float64(nil), weights...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	threshold := sorted[k-1]

	for i := range weights {
		if weights[i] < threshold {
			weights[i] = 0
		}
	}
}

// topPFilter implements nucleus sampling: it keeps the most likely tokens
// until their share of the total mass reaches p. At least one token is kept.
func topPFilter(weights []float64, p float64) {
	total := floats.Sum(weights)

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return weights[order[a]] > weights[order[b]] })

	cumSum := 0.0
	cutoff := len(order)
	for i, idx := range order {
		cumSum += weights[idx] / total
		if cumSum >= p {
			cutoff = i + 1
			break
		}
	}

	for _, idx := range order[cutoff:] {
		weights[idx] = 0
	}
}
