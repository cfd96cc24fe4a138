package tokenizer

// Tokenizer is the core interface for word-level dialogue tokenization.
//
// Implementations map whitespace-separated words to token IDs and back.
type Tokenizer interface {
	// Encode converts text to token IDs. Unknown words map to UnkToken.
	Encode(text string) ([]int32, error)

	// Decode converts token IDs back to text.
	// Speaker markers and padding are not rendered.
	Decode(tokens []int32) (string, error)

	// VocabSize returns the total vocabulary size, control tokens included.
	VocabSize() int

	// PadToken returns the padding token ID.
	PadToken() int32

	// UnkToken returns the unknown-word token ID.
	UnkToken() int32

	// UserToken returns the user speaker marker ID.
	UserToken() int32

	// BotToken returns the bot speaker marker ID.
	BotToken() int32

	// IsSpecialToken checks if a token ID is a control token.
	IsSpecialToken(token int32) bool
}

// ChatMessage represents a single turn in a conversation.
type ChatMessage struct {
	// Role specifies the speaker ("user" or "bot").
	Role string

	// Content is the message text.
	Content string
}

// ChatTemplate formats messages into corpus text.
type ChatTemplate interface {
	// Apply formats a sequence of messages.
	Apply(messages []ChatMessage) string

	// Name returns the template name.
	Name() string
}
