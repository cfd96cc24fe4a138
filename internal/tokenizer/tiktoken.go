package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultBPEEncoding is the encoding used for corpus reports.
const DefaultBPEEncoding = "cl100k_base"

// TikToken wraps the pkoukk/tiktoken-go library.
//
// It is used to compare the word-level vocabulary against a subword
// tokenization of the same corpus. Encoding files are fetched (and cached)
// by tiktoken-go on first use.
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTikToken creates a new TikToken tokenizer with the specified encoding.
func NewTikToken(encodingName string) (*TikToken, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}

	return &TikToken{
		encoding: encoding,
		name:     encodingName,
	}, nil
}

// Encode converts text to BPE token IDs, ignoring special-token syntax.
func (t *TikToken) Encode(text string) []int {
	return t.encoding.EncodeOrdinary(text)
}

// Count returns the number of BPE tokens in text.
func (t *TikToken) Count(text string) int {
	return len(t.Encode(text))
}

// Name returns the encoding name.
func (t *TikToken) Name() string {
	return t.name
}
