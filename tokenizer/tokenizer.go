// Package tokenizer provides word-level tokenization for dialogue models.
//
// This package wraps the internal tokenizer implementations and provides
// a clean public API for tokenization tasks.
//
// Supported tokenizers:
//   - Vocabulary: Frequency-ranked word vocabulary with control tokens
//   - TikToken: OpenAI BPE tokenizers, used to compare corpus statistics
//   - Dialog Template: Render conversations in the "User:"/"Bot:" corpus format
//
// Example usage:
//
//	import "github.com/born-ml/sophie/tokenizer"
//
//	// Build a vocabulary from a corpus
//	vocab := tokenizer.BuildVocabulary(text, tokenizer.DefaultVocabConfig())
//
//	// Encode text
//	ids, err := vocab.Encode("hello there")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Decode tokens
//	text, err := vocab.Decode(ids)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Apply dialog template
//	messages := []tokenizer.ChatMessage{
//	    {Role: tokenizer.RoleUser, Content: "Hi!"},
//	    {Role: tokenizer.RoleBot, Content: "Hello."},
//	}
//	corpus := tokenizer.NewDialogTemplate().Apply(messages)
package tokenizer

import (
	"github.com/born-ml/sophie/internal/tokenizer"
)

// Tokenizer is the core interface for text tokenization.
//
// All tokenizer implementations must implement this interface.
type Tokenizer = tokenizer.Tokenizer

// ChatMessage represents a single message in a conversation.
type ChatMessage = tokenizer.ChatMessage

// ChatTemplate formats messages into corpus text.
type ChatTemplate = tokenizer.ChatTemplate

// Chat roles.
const (
	RoleUser = tokenizer.RoleUser
	RoleBot  = tokenizer.RoleBot
)

// Control tokens occupy the first vocabulary slots in this fixed order.
const (
	PadWord  = tokenizer.PadWord
	UnkWord  = tokenizer.UnkWord
	UserWord = tokenizer.UserWord
	BotWord  = tokenizer.BotWord

	PadID  = tokenizer.PadID
	UnkID  = tokenizer.UnkID
	UserID = tokenizer.UserID
	BotID  = tokenizer.BotID

	NumControlTokens = tokenizer.NumControlTokens
)

// ErrInvalidVocabulary is returned for malformed word lists.
var ErrInvalidVocabulary = tokenizer.ErrInvalidVocabulary

// Vocabulary maps words to dense IDs.
type Vocabulary = tokenizer.Vocabulary

// VocabConfig controls vocabulary construction.
type VocabConfig = tokenizer.VocabConfig

// WordCount is a word and its corpus frequency.
type WordCount = tokenizer.WordCount

// DefaultVocabConfig returns the default vocabulary limits.
func DefaultVocabConfig() VocabConfig {
	return tokenizer.DefaultVocabConfig()
}

// BuildVocabulary builds a vocabulary from corpus text.
//
// Speaker labels are skipped and words are ranked by frequency, ties broken
// by first appearance.
func BuildVocabulary(text string, cfg VocabConfig) *Vocabulary {
	return tokenizer.BuildVocabulary(text, cfg)
}

// NewVocabulary restores a vocabulary from its word list, control tokens
// first.
func NewVocabulary(words []string) (*Vocabulary, error) {
	return tokenizer.NewVocabulary(words)
}

// CountWords returns the content words of text by descending frequency.
func CountWords(text string) []WordCount {
	return tokenizer.CountWords(text)
}

// ControlWords returns the reserved tokens in ID order.
func ControlWords() []string {
	return tokenizer.ControlWords()
}

// TikToken counts BPE tokens with an OpenAI encoding.
type TikToken = tokenizer.TikToken

// DefaultBPEEncoding is the encoding used when none is given.
const DefaultBPEEncoding = tokenizer.DefaultBPEEncoding

// NewTikToken creates a new TikToken tokenizer with the specified encoding.
//
// Supported encodings: "cl100k_base" (GPT-4), "p50k_base" (GPT-3).
func NewTikToken(encodingName string) (*TikToken, error) {
	return tokenizer.NewTikToken(encodingName)
}

// DialogTemplate renders messages as "User: ..." and "Bot: ..." lines.
type DialogTemplate = tokenizer.DialogTemplate

// NewDialogTemplate creates a template with the default speaker labels.
func NewDialogTemplate() *DialogTemplate {
	return tokenizer.NewDialogTemplate()
}
