// Package corpus turns dialogue text into the token stream used for training.
//
// The input is a sequence of whitespace-separated words. Words ending in ':'
// are speaker labels ("User:", "Bot:", "MyBot:") and switch the current
// speaker; every other word is emitted as a (token_id, speaker_id) pair:
//
//	"Bot: hello world User: hi"
//	  -> [hello <BOT> world <BOT> hi <USER>]
//
// The speaker starts as User before any label is seen.
package corpus
