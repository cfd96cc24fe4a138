package model

import (
	"errors"
	"fmt"
)

// Scorer predicts the next token of a dialogue.
//
// NextTokenProbs returns a probability distribution over the vocabulary for
// the token following context. Context must be non-empty and no longer than
// ContextLen.
type Scorer interface {
	NextTokenProbs(context []int32) ([]float64, error)
	ContextLen() int
	VocabSize() int
}

// Context errors.
var (
	ErrEmptyContext    = errors.New("empty context")
	ErrContextTooLong  = errors.New("context longer than model context length")
	ErrTokenOutOfVocab = errors.New("token id outside vocabulary")
)

// ValidateContext checks context against the limits of s.
func ValidateContext(s Scorer, context []int32) error {
	if len(context) == 0 {
		return ErrEmptyContext
	}
	if len(context) > s.ContextLen() {
		return fmt.Errorf("%w: %d > %d", ErrContextTooLong, len(context), s.ContextLen())
	}
	for _, id := range context {
		if id < 0 || int(id) >= s.VocabSize() {
			return fmt.Errorf("%w: %d not in [0, %d)", ErrTokenOutOfVocab, id, s.VocabSize())
		}
	}
	return nil
}
