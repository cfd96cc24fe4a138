package corpus

import (
	"strings"

	"github.com/born-ml/sophie/internal/tokenizer"
)

// Speaker is the encoder's current-turn state.
type Speaker uint8

// Speakers.
const (
	User Speaker = iota
	Bot
)

// InitialSpeaker is the state before any label has been seen.
const InitialSpeaker = User

// String returns the speaker name.
func (s Speaker) String() string {
	if s == Bot {
		return "bot"
	}
	return "user"
}

// TokenID returns the speaker marker ID interleaved after content words.
func (s Speaker) TokenID() int32 {
	if s == Bot {
		return tokenizer.BotID
	}
	return tokenizer.UserID
}

// IsLabel reports whether word is a speaker label, i.e. ends with ':'.
//
// Detection is purely lexical: an ordinary word ending in a colon is also
// treated as a label.
func IsLabel(word string) bool {
	return strings.HasSuffix(word, ":")
}

// Next advances the state machine by one word.
//
// For a label it returns Bot if the word contains "bot" (case-insensitive)
// and User otherwise, together with true. Any other word leaves the state
// unchanged and returns false.
func (s Speaker) Next(word string) (Speaker, bool) {
	if !IsLabel(word) {
		return s, false
	}
	if strings.Contains(strings.ToLower(word), "bot") {
		return Bot, true
	}
	return User, true
}
