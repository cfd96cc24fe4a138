package tokenizer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrInvalidVocabulary is returned when a word list cannot form a vocabulary.
var ErrInvalidVocabulary = errors.New("invalid vocabulary")

// VocabConfig controls vocabulary construction.
type VocabConfig struct {
	// MaxWords is the number of most frequent words considered (top-K).
	// Negative disables the cut.
	MaxWords int `yaml:"max_words"`

	// MinCount drops words seen fewer times. Applied after the top-K cut.
	MinCount int `yaml:"min_count"`
}

// DefaultVocabConfig returns the default vocabulary limits: 5000 words seen
// at least 3 times.
func DefaultVocabConfig() VocabConfig {
	return VocabConfig{
		MaxWords: 5000,
		MinCount: 3,
	}
}

// Vocabulary is a fixed word-level vocabulary.
//
// IDs 0..3 are the control tokens [<PAD>, <UNK>, <USER>, <BOT>]; corpus words
// follow in descending frequency order. A Vocabulary is immutable once built
// and safe for concurrent use.
type Vocabulary struct {
	words []string
	ids   map[string]int32
}

// WordCount is a corpus word with its frequency.
type WordCount struct {
	Word  string
	Count int
}

// CountWords splits text on whitespace and counts each distinct word.
//
// The result is ordered by descending count; ties keep first-occurrence order.
func CountWords(text string) []WordCount {
	index := make(map[string]int)
	var counts []WordCount

	for _, w := range strings.Fields(text) {
		if i, ok := index[w]; ok {
			counts[i].Count++
			continue
		}
		index[w] = len(counts)
		counts = append(counts, WordCount{Word: w, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	return counts
}

// BuildVocabulary builds a vocabulary from raw corpus text.
//
// The MaxWords most frequent words are selected first, then words with fewer
// than MinCount occurrences are dropped from that selection, so the result
// never contains a word outside the top MaxWords.
// An empty corpus yields only the control tokens.
func BuildVocabulary(text string, cfg VocabConfig) *Vocabulary {
	counts := CountWords(text)
	if cfg.MaxWords >= 0 && len(counts) > cfg.MaxWords {
		counts = counts[:cfg.MaxWords]
	}

	words := ControlWords()
	for _, wc := range counts {
		if wc.Count < cfg.MinCount {
			continue
		}
		if _, reserved := controlIndex(wc.Word); reserved {
			// Literal control strings in the corpus stay mapped to their slot.
			continue
		}
		words = append(words, wc.Word)
	}

	v, err := NewVocabulary(words)
	if err != nil {
		// Unreachable: words are distinct and start with the control tokens.
		panic(err)
	}
	return v
}

// NewVocabulary restores a vocabulary from its ordered word list.
//
// The list must start with the control tokens and contain no duplicates.
func NewVocabulary(words []string) (*Vocabulary, error) {
	if len(words) < NumControlTokens {
		return nil, fmt.Errorf("%w: %d words, need at least %d", ErrInvalidVocabulary, len(words), NumControlTokens)
	}
	for i, cw := range controlWords {
		if words[i] != cw {
			return nil, fmt.Errorf("%w: slot %d is %q, want %q", ErrInvalidVocabulary, i, words[i], cw)
		}
	}

	ids := make(map[string]int32, len(words))
	for i, w := range words {
		if w == "" {
			return nil, fmt.Errorf("%w: empty word at %d", ErrInvalidVocabulary, i)
		}
		if prev, dup := ids[w]; dup {
			return nil, fmt.Errorf("%w: %q at %d and %d", ErrInvalidVocabulary, w, prev, i)
		}
		ids[w] = int32(i) //nolint:gosec // G115: vocabulary size is bounded by MaxWords.
	}

	return &Vocabulary{
		words: append([]string(nil), words...),
		ids:   ids,
	}, nil
}

// Size returns the number of tokens, control tokens included.
func (v *Vocabulary) Size() int {
	return len(v.words)
}

// Words returns a copy of the ordered word list.
func (v *Vocabulary) Words() []string {
	return append([]string(nil), v.words...)
}

// Lookup returns the ID of word and whether it is in the vocabulary.
func (v *Vocabulary) Lookup(word string) (int32, bool) {
	id, ok := v.ids[word]
	return id, ok
}

// ID returns the ID of word, or UnkID if it is not in the vocabulary.
func (v *Vocabulary) ID(word string) int32 {
	if id, ok := v.ids[word]; ok {
		return id
	}
	return UnkID
}

// Word returns the token string for id.
func (v *Vocabulary) Word(id int32) (string, bool) {
	if id < 0 || int(id) >= len(v.words) {
		return "", false
	}
	return v.words[id], true
}

// Fingerprint hashes the ordered word list.
//
// Two vocabularies with the same fingerprint assign the same IDs.
func (v *Vocabulary) Fingerprint() uint64 {
	h := xxhash.New()
	for _, w := range v.words {
		_, _ = h.WriteString(w)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// EncodeWords maps words to IDs, unknown words to UnkID.
func (v *Vocabulary) EncodeWords(words []string) []int32 {
	ids := make([]int32, len(words))
	for i, w := range words {
		ids[i] = v.ID(w)
	}
	return ids
}

// Encode converts whitespace-separated text to token IDs.
func (v *Vocabulary) Encode(text string) ([]int32, error) {
	return v.EncodeWords(strings.Fields(text)), nil
}

// Decode joins the words of tokens with single spaces.
//
// <PAD>, <USER> and <BOT> are skipped. IDs outside the vocabulary are an error.
func (v *Vocabulary) Decode(tokens []int32) (string, error) {
	out := make([]string, 0, len(tokens))
	for _, id := range tokens {
		if IsMarker(id) {
			continue
		}
		w, ok := v.Word(id)
		if !ok {
			return "", fmt.Errorf("token %d out of range [0, %d)", id, len(v.words))
		}
		out = append(out, w)
	}
	return strings.Join(out, " "), nil
}

// VocabSize returns the total vocabulary size.
func (v *Vocabulary) VocabSize() int { return len(v.words) }

// PadToken returns the padding token ID.
func (v *Vocabulary) PadToken() int32 { return PadID }

// UnkToken returns the unknown-word token ID.
func (v *Vocabulary) UnkToken() int32 { return UnkID }

// UserToken returns the user marker ID.
func (v *Vocabulary) UserToken() int32 { return UserID }

// BotToken returns the bot marker ID.
func (v *Vocabulary) BotToken() int32 { return BotID }

// IsSpecialToken reports whether token is one of the control tokens.
func (v *Vocabulary) IsSpecialToken(token int32) bool {
	return token >= 0 && token < NumControlTokens
}

func controlIndex(word string) (int32, bool) {
	for i, cw := range controlWords {
		if cw == word {
			return int32(i), true //nolint:gosec // G115: i < NumControlTokens.
		}
	}
	return 0, false
}
