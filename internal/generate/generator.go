package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/born-ml/sophie/internal/model"
	"github.com/born-ml/sophie/internal/tokenizer"
)

// Generation errors.
var (
	ErrVocabMismatch    = errors.New("tokenizer and model vocabulary sizes differ")
	ErrInvalidMaxLength = errors.New("max length must not be negative")
)

// StopReason tells why generation ended.
type StopReason string

// Stop reasons.
const (
	// StopTurnSwitch: the model sampled the user marker and handed the
	// conversation back.
	StopTurnSwitch StopReason = "turn_switch"

	// StopMaxLength: MaxLength tokens were generated.
	StopMaxLength StopReason = "max_length"
)

// GenerateConfig configures text generation.
//
//nolint:revive // GenerateConfig is clearer than Config
type GenerateConfig struct {
	// MaxLength is the maximum number of tokens to sample.
	MaxLength int `yaml:"max_length"`

	// EchoPrompt includes the prompt words in the output text.
	EchoPrompt bool `yaml:"echo_prompt"`
}

// DefaultGenerateConfig returns 50-token replies that echo the prompt.
func DefaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		MaxLength:  50,
		EchoPrompt: true,
	}
}

// Response is the result of one generation.
type Response struct {
	Text      string     // Rendered words, markers stripped
	TokenIDs  []int32    // Full sequence: prompt, <BOT>, sampled tokens
	Generated []int32    // Sampled tokens only
	Reason    StopReason // Why generation ended
}

// GenerateResult is a single result from streaming generation.
//
//nolint:revive // GenerateResult is clearer than Result
type GenerateResult struct {
	Token   string     // Decoded token text, empty for markers
	TokenID int32      // Token ID
	Done    bool       // Is generation complete
	Reason  StopReason // Set when Done
	Error   error      // Error if any
}

// Generator produces bot turns from a Scorer.
//
// A Generator is not safe for concurrent use because its Sampler is not.
type Generator struct {
	scorer  model.Scorer
	tok     tokenizer.Tokenizer
	sampler *Sampler
}

// NewGenerator creates a generator. A nil sampler uses
// DefaultSamplingConfig.
func NewGenerator(scorer model.Scorer, tok tokenizer.Tokenizer, sampler *Sampler) (*Generator, error) {
	if scorer.VocabSize() != tok.VocabSize() {
		return nil, fmt.Errorf("%w: %d vs %d", ErrVocabMismatch, tok.VocabSize(), scorer.VocabSize())
	}
	if sampler == nil {
		sampler = NewSampler(DefaultSamplingConfig())
	}
	return &Generator{
		scorer:  scorer,
		tok:     tok,
		sampler: sampler,
	}, nil
}

// Generate produces a response to prompt.
//
// The prompt words are encoded (unknown words become <UNK>) and the bot
// marker is appended. Up to MaxLength tokens are then sampled, each from the
// model distribution given the last ContextLen tokens of the sequence.
// Generation stops early when the user marker is sampled.
func (g *Generator) Generate(prompt string, config GenerateConfig) (Response, error) {
	inputIDs, err := g.tok.Encode(prompt)
	if err != nil {
		return Response{}, fmt.Errorf("encode prompt: %w", err)
	}
	return g.GenerateIDs(inputIDs, config)
}

// GenerateIDs is Generate for an already encoded prompt.
func (g *Generator) GenerateIDs(inputIDs []int32, config GenerateConfig) (Response, error) {
	seq, reason, err := g.generate(inputIDs, config, nil)
	if err != nil {
		return Response{}, err
	}

	resp := Response{
		TokenIDs:  seq,
		Generated: seq[len(inputIDs)+1:],
		Reason:    reason,
	}

	render := resp.Generated
	if config.EchoPrompt {
		render = resp.TokenIDs
	}
	resp.Text, err = g.tok.Decode(render)
	if err != nil {
		return Response{}, fmt.Errorf("decode: %w", err)
	}
	return resp, nil
}

// GenerateStream generates text and returns a channel of results.
//
// With EchoPrompt the decoded prompt is sent first. The final result has
// Done set, or Error on failure. The channel is closed afterwards.
// Cancelling ctx stops generation and closes the channel without a final
// result, so a consumer may stop reading once it cancels.
func (g *Generator) GenerateStream(ctx context.Context, prompt string, config GenerateConfig) (<-chan GenerateResult, error) {
	inputIDs, err := g.tok.Encode(prompt)
	if err != nil {
		return nil, fmt.Errorf("encode prompt: %w", err)
	}
	if config.MaxLength < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxLength, config.MaxLength)
	}

	ch := make(chan GenerateResult, 1)
	send := func(res GenerateResult) error {
		select {
		case ch <- res:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	go func() {
		defer close(ch)

		if config.EchoPrompt {
			promptText, _ := g.tok.Decode(inputIDs)
			if promptText != "" {
				if send(GenerateResult{Token: promptText, TokenID: -1}) != nil {
					return
				}
			}
		}

		_, reason, err := g.generate(inputIDs, config, send)
		switch {
		case ctx.Err() != nil:
		case err != nil:
			_ = send(GenerateResult{Done: true, Error: err})
		default:
			_ = send(GenerateResult{TokenID: -1, Done: true, Reason: reason})
		}
	}()

	return ch, nil
}

// generate is the core generation loop. It returns the full sequence.
func (g *Generator) generate(
	inputIDs []int32,
	config GenerateConfig,
	emit func(GenerateResult) error,
) ([]int32, StopReason, error) {
	if config.MaxLength < 0 {
		return nil, "", fmt.Errorf("%w: %d", ErrInvalidMaxLength, config.MaxLength)
	}

	seq := make([]int32, 0, len(inputIDs)+1+config.MaxLength)
	seq = append(seq, inputIDs...)
	seq = append(seq, g.tok.BotToken())

	contextLen := g.scorer.ContextLen()
	for i := 0; i < config.MaxLength; i++ {
		context := seq
		if len(context) > contextLen {
			context = context[len(context)-contextLen:]
		}

		probs, err := g.scorer.NextTokenProbs(context)
		if err != nil {
			return nil, "", fmt.Errorf("step %d: %w", i, err)
		}
		next, err := g.sampler.Sample(probs)
		if err != nil {
			return nil, "", fmt.Errorf("step %d: %w", i, err)
		}
		seq = append(seq, next)

		if emit != nil {
			token, _ := g.tok.Decode([]int32{next})
			if err := emit(GenerateResult{Token: token, TokenID: next}); err != nil {
				return nil, "", err
			}
		}

		if next == g.tok.UserToken() {
			return seq, StopTurnSwitch, nil
		}
	}

	return seq, StopMaxLength, nil
}
