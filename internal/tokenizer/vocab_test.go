package tokenizer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildVocabulary_MinCount(t *testing.T) {
	vocab := BuildVocabulary("a a a b b c", DefaultVocabConfig())

	assert.Equal(t, []string{"<PAD>", "<UNK>", "<USER>", "<BOT>", "a"}, vocab.Words())
	assert.Equal(t, int32(4), vocab.ID("a"))
	assert.Equal(t, UnkID, vocab.ID("b"))
	assert.Equal(t, UnkID, vocab.ID("c"))
}

func TestBuildVocabulary_Empty(t *testing.T) {
	for _, text := range []string{"", "   \n\t "} {
		vocab := BuildVocabulary(text, DefaultVocabConfig())
		assert.Equal(t, ControlWords(), vocab.Words())
		assert.Equal(t, NumControlTokens, vocab.Size())
	}
}

func TestBuildVocabulary_FrequencyOrder(t *testing.T) {
	// "b" and "a" tie; "b" is seen first.
	text := "b a c a b c c"
	vocab := BuildVocabulary(text, VocabConfig{MaxWords: 10, MinCount: 1})

	assert.Equal(t, []string{"<PAD>", "<UNK>", "<USER>", "<BOT>", "c", "b", "a"}, vocab.Words())
}

func TestBuildVocabulary_ThresholdAfterTopK(t *testing.T) {
	// Counts: a=4 b=3 c=3 d=1. Top-2 keeps a,b; c is excluded even though it
	// passes the threshold, d never qualifies.
	text := "a a a a b b b c c c d"
	vocab := BuildVocabulary(text, VocabConfig{MaxWords: 2, MinCount: 3})

	assert.Equal(t, []string{"<PAD>", "<UNK>", "<USER>", "<BOT>", "a", "b"}, vocab.Words())

	vocab = BuildVocabulary(text, VocabConfig{MaxWords: 4, MinCount: 3})
	assert.Equal(t, []string{"<PAD>", "<UNK>", "<USER>", "<BOT>", "a", "b", "c"}, vocab.Words())

	vocab = BuildVocabulary(text, VocabConfig{MaxWords: -1, MinCount: 1})
	assert.Equal(t, 8, vocab.Size())
}

func TestBuildVocabulary_SizeBound(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 6000; i++ {
		w := fmt.Sprintf("w%d ", i)
		sb.WriteString(strings.Repeat(w, 3))
	}

	vocab := BuildVocabulary(sb.String(), DefaultVocabConfig())
	assert.Equal(t, 5000+NumControlTokens, vocab.Size())

	for i, w := range ControlWords() {
		id, ok := vocab.Lookup(w)
		require.True(t, ok)
		assert.Equal(t, int32(i), id)
	}
}

func TestBuildVocabulary_PunctuationKept(t *testing.T) {
	vocab := BuildVocabulary("hi, hi, hi, hi hi hi", DefaultVocabConfig())

	_, ok := vocab.Lookup("hi,")
	assert.True(t, ok)
	_, ok = vocab.Lookup("hi")
	assert.True(t, ok)
}

func TestBuildVocabulary_LiteralControlWords(t *testing.T) {
	vocab := BuildVocabulary("<BOT> <BOT> <BOT> ok ok ok", DefaultVocabConfig())

	assert.Equal(t, []string{"<PAD>", "<UNK>", "<USER>", "<BOT>", "ok"}, vocab.Words())
	assert.Equal(t, BotID, vocab.ID("<BOT>"))
}

func TestVocabulary_Bijection(t *testing.T) {
	text := strings.Repeat("the cat sat on the mat and the dog sat too ", 5)
	vocab := BuildVocabulary(text, DefaultVocabConfig())

	for i := 0; i < vocab.Size(); i++ {
		w, ok := vocab.Word(int32(i))
		require.True(t, ok)
		assert.Equal(t, int32(i), vocab.ID(w))
	}

	_, ok := vocab.Word(int32(vocab.Size()))
	assert.False(t, ok)
	_, ok = vocab.Word(-1)
	assert.False(t, ok)
}

func TestNewVocabulary(t *testing.T) {
	tests := []struct {
		name    string
		words   []string
		wantErr bool
	}{
		{"control only", ControlWords(), false},
		{"with words", append(ControlWords(), "a", "b"), false},
		{"too short", []string{"<PAD>", "<UNK>"}, true},
		{"wrong order", []string{"<UNK>", "<PAD>", "<USER>", "<BOT>"}, true},
		{"duplicate", append(ControlWords(), "a", "a"), true},
		{"empty word", append(ControlWords(), ""), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vocab, err := NewVocabulary(tt.words)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidVocabulary)
				assert.Nil(t, vocab)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.words, vocab.Words())
		})
	}
}

func TestVocabulary_Fingerprint(t *testing.T) {
	a, err := NewVocabulary(append(ControlWords(), "x", "y"))
	require.NoError(t, err)
	b, err := NewVocabulary(append(ControlWords(), "x", "y"))
	require.NoError(t, err)
	c, err := NewVocabulary(append(ControlWords(), "y", "x"))
	require.NoError(t, err)
	d, err := NewVocabulary(append(ControlWords(), "xy"))
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint())
}

func TestVocabulary_EncodeDecode(t *testing.T) {
	vocab, err := NewVocabulary(append(ControlWords(), "hello", "world"))
	require.NoError(t, err)

	ids, err := vocab.Encode("hello  there world")
	require.NoError(t, err)
	assert.Equal(t, []int32{4, UnkID, 5}, ids)

	text, err := vocab.Decode([]int32{UserID, 4, PadID, UnkID, BotID, 5, UserID})
	require.NoError(t, err)
	assert.Equal(t, "hello <UNK> world", text)

	_, err = vocab.Decode([]int32{99})
	assert.Error(t, err)
}

func TestVocabulary_ImplementsTokenizer(t *testing.T) {
	var tok Tokenizer = BuildVocabulary("", DefaultVocabConfig())

	assert.Equal(t, NumControlTokens, tok.VocabSize())
	assert.Equal(t, PadID, tok.PadToken())
	assert.Equal(t, UnkID, tok.UnkToken())
	assert.Equal(t, UserID, tok.UserToken())
	assert.Equal(t, BotID, tok.BotToken())
	assert.True(t, tok.IsSpecialToken(BotID))
	assert.False(t, tok.IsSpecialToken(4))
}

func TestCountWords(t *testing.T) {
	counts := CountWords("b a b c a b")
	assert.Equal(t, []WordCount{{"b", 3}, {"a", 2}, {"c", 1}}, counts)
	assert.Empty(t, CountWords(""))
}

func TestControlWords_ReturnsCopy(t *testing.T) {
	words := ControlWords()
	words[0] = "mutated"
	assert.Equal(t, PadWord, ControlWords()[0])
}
