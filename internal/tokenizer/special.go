package tokenizer

// Control tokens occupy the first vocabulary slots in this fixed order.
const (
	PadWord  = "<PAD>"
	UnkWord  = "<UNK>"
	UserWord = "<USER>"
	BotWord  = "<BOT>"
)

// Control token IDs.
const (
	PadID  int32 = 0
	UnkID  int32 = 1
	UserID int32 = 2
	BotID  int32 = 3
)

// NumControlTokens is the number of reserved slots before corpus words.
const NumControlTokens = 4

// controlWords lists the reserved tokens indexed by ID.
var controlWords = [NumControlTokens]string{PadWord, UnkWord, UserWord, BotWord}

// ControlWords returns the reserved tokens in ID order.
func ControlWords() []string {
	words := controlWords
	return words[:]
}

// IsMarker reports whether id is a speaker marker or padding,
// i.e. a token that never appears in rendered text.
func IsMarker(id int32) bool {
	return id == PadID || id == UserID || id == BotID
}
