package corpus

import (
	"strings"

	"github.com/born-ml/sophie/internal/tokenizer"
)

// Stats summarizes one encoding pass.
type Stats struct {
	Words        int // whitespace-separated words, labels included
	Labels       int // speaker-label words
	ContentWords int // words emitted into the stream
	UnknownWords int // content words mapped to <UNK>
	UserWords    int // content words tagged <USER>
	BotWords     int // content words tagged <BOT>
}

// Coverage returns the share of content words found in the vocabulary.
func (s Stats) Coverage() float64 {
	if s.ContentWords == 0 {
		return 0
	}
	return float64(s.ContentWords-s.UnknownWords) / float64(s.ContentWords)
}

// encoderState is the accumulator threaded through the word loop.
type encoderState struct {
	speaker Speaker
	ids     []int32
	stats   Stats
}

// step consumes one word and returns the next state.
func (st encoderState) step(word string, vocab *tokenizer.Vocabulary) encoderState {
	st.stats.Words++

	next, isLabel := st.speaker.Next(word)
	if isLabel {
		st.speaker = next
		st.stats.Labels++
		return st
	}

	id := vocab.ID(word)
	st.ids = append(st.ids, id, st.speaker.TokenID())

	st.stats.ContentWords++
	if id == tokenizer.UnkID {
		st.stats.UnknownWords++
	}
	if st.speaker == Bot {
		st.stats.BotWords++
	} else {
		st.stats.UserWords++
	}
	return st
}

// Encode converts raw corpus text into a Stream.
//
// Each non-label word yields (token_id, speaker_id); label words only switch
// the current speaker, which starts as User.
func Encode(text string, vocab *tokenizer.Vocabulary) Stream {
	s, _ := EncodeWithStats(text, vocab)
	return s
}

// EncodeWithStats is Encode plus counters for reporting.
func EncodeWithStats(text string, vocab *tokenizer.Vocabulary) (Stream, Stats) {
	words := strings.Fields(text)

	st := encoderState{
		speaker: InitialSpeaker,
		ids:     make([]int32, 0, 2*len(words)),
	}
	for _, w := range words {
		st = st.step(w, vocab)
	}

	return Stream{ids: st.ids}, st.stats
}
