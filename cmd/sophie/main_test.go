package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/sophie/internal/generate"
	"github.com/born-ml/sophie/internal/model"
	"github.com/born-ml/sophie/internal/tokenizer"
)

const testCorpus = `User: hello there Bot: hi how are you User: fine thanks Bot: good to hear
User: hello again Bot: hi there User: how are you Bot: fine thanks User: bye Bot: bye`

const testConfig = `vocab:
  min_count: 1
model:
  embed_dim: 8
  num_heads: 2
  num_layers: 1
  ffn_dim: 16
  context_len: 4
train:
  batch_size: 2
  steps: 3
  log_every: 1
workers: 1
`

// echoResponder replies with the prompt in upper case.
type echoResponder struct {
	prompts []string
	err     error
}

func (r *echoResponder) Generate(prompt string, _ generate.GenerateConfig) (generate.Response, error) {
	r.prompts = append(r.prompts, prompt)
	if r.err != nil {
		return generate.Response{}, r.err
	}
	return generate.Response{Text: strings.ToUpper(prompt)}, nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDispatch(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, dispatch([]string{"version"}, nil, &out))
	assert.Equal(t, "sophie "+version+"\n", out.String())

	out.Reset()
	require.NoError(t, dispatch(nil, nil, &out))
	assert.Contains(t, out.String(), "Usage: sophie <command>")
	assert.Contains(t, out.String(), "inspect")

	out.Reset()
	err := dispatch([]string{"serve"}, nil, &out)
	assert.ErrorContains(t, err, `unknown command "serve"`)
}

func TestChatLoop(t *testing.T) {
	r := &echoResponder{}
	var out bytes.Buffer

	err := chatLoop(strings.NewReader("hello there\nhow are you\nEXIT\nnever read\n"), &out, r, generate.DefaultGenerateConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"hello there", "how are you"}, r.prompts)
	assert.Equal(t, "Dialogue bot (type 'exit' to quit)\n"+
		"You: Sophie: HELLO THERE\n"+
		"You: Sophie: HOW ARE YOU\n"+
		"You: ", out.String())
}

func TestChatLoop_EOF(t *testing.T) {
	r := &echoResponder{}
	var out bytes.Buffer

	require.NoError(t, chatLoop(strings.NewReader("hi"), &out, r, generate.DefaultGenerateConfig()))
	assert.Equal(t, []string{"hi"}, r.prompts)
	assert.True(t, strings.HasSuffix(out.String(), "You: \n"))
}

func TestChatLoop_LongLine(t *testing.T) {
	r := &echoResponder{}
	long := strings.Repeat("word ", 20000)

	err := chatLoop(strings.NewReader(long+"\nexit\n"), &bytes.Buffer{}, r, generate.DefaultGenerateConfig())
	require.NoError(t, err)
	require.Len(t, r.prompts, 1)
	assert.Len(t, r.prompts[0], len(long))
}

func TestChatLoop_Error(t *testing.T) {
	boom := errors.New("boom")
	err := chatLoop(strings.NewReader("hi\n"), &bytes.Buffer{}, &echoResponder{err: boom}, generate.DefaultGenerateConfig())
	assert.ErrorIs(t, err, boom)
}

func TestIsExit(t *testing.T) {
	assert.True(t, isExit("exit"))
	assert.True(t, isExit(" Quit "))
	assert.False(t, isExit("exit now"))
	assert.False(t, isExit(""))
}

func TestInspect(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, inspect(&out, "User: a a a Bot: b b c", tokenizer.VocabConfig{MaxWords: -1, MinCount: 2}, 2, nil))

	s := out.String()
	assert.Contains(t, s, "Corpus:      8 words, 5 distinct, 2 speaker labels")
	assert.Contains(t, s, "Turns:       3 user words, 3 bot words")
	assert.Contains(t, s, "Vocabulary:  6 tokens (4 control)")
	assert.Contains(t, s, "1 unknown")
	assert.Contains(t, s, "Stream:      12 ids")
	assert.Contains(t, s, "1. a")
	assert.NotContains(t, s, "3. ")
}

func TestTrainAndChat(t *testing.T) {
	corpusPath := writeFile(t, "corpus.txt", testCorpus)
	configPath := writeFile(t, "sophie.yaml", testConfig)
	ckpt := filepath.Join(t.TempDir(), "sophie.safetensors")

	var out bytes.Buffer
	err := dispatch([]string{"train", "-corpus", corpusPath, "-config", configPath, "-out", ckpt}, nil, &out)
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "step 1, loss ")
	assert.Contains(t, s, "step 3, loss ")
	assert.Contains(t, s, "Trained 3 steps")
	assert.Contains(t, s, "Saved checkpoint to "+ckpt)

	lm, vocab, err := model.Load(ckpt)
	require.NoError(t, err)
	assert.Equal(t, vocab.Size(), lm.VocabSize())
	assert.Equal(t, 4, lm.ContextLen())

	out.Reset()
	err = dispatch([]string{"chat", "-model", ckpt, "-max-length", "3", "-seed", "1"},
		strings.NewReader("hello there\nquit\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Sophie: hello there")
}

func TestTrain_Errors(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorContains(t, dispatch([]string{"train"}, nil, &out), "-corpus is required")

	// The default context length does not fit this corpus.
	corpusPath := writeFile(t, "corpus.txt", testCorpus)
	err := dispatch([]string{"train", "-corpus", corpusPath, "-out", filepath.Join(t.TempDir(), "x")}, nil, &out)
	assert.ErrorContains(t, err, "too short")

	err = dispatch([]string{"train", "-corpus", corpusPath, "-batch", "0"}, nil, &out)
	assert.ErrorContains(t, err, "batch_size")
}

func TestChat_MissingModel(t *testing.T) {
	err := dispatch([]string{"chat", "-model", filepath.Join(t.TempDir(), "missing.safetensors")}, nil, &bytes.Buffer{})
	assert.ErrorContains(t, err, "load model")

	err = dispatch([]string{"chat", "-onnx", "model.onnx"}, nil, &bytes.Buffer{})
	assert.ErrorContains(t, err, "-corpus")
}

func TestChatModel_Update(t *testing.T) {
	r := &echoResponder{}
	m := newChatModel(r, generate.DefaultGenerateConfig())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	m = next.(chatModel)
	assert.Equal(t, 56, m.view.Width)

	m.input.SetValue("hello")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(chatModel)
	require.NotNil(t, cmd)
	assert.True(t, m.waiting)
	assert.Empty(t, m.input.Value())

	// Input is ignored while waiting.
	m.input.SetValue("again")
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(chatModel)
	assert.Nil(t, cmd)

	reply := replyMsg{resp: generate.Response{Text: "HELLO"}}
	next, _ = m.Update(reply)
	m = next.(chatModel)
	assert.False(t, m.waiting)
	require.Len(t, m.lines, 3)
	assert.Equal(t, chatLine{speaker: "You", text: "hello"}, m.lines[1])
	assert.Equal(t, chatLine{speaker: "Sophie", text: "HELLO"}, m.lines[2])
	assert.Contains(t, m.View(), "Sophie")

	next, _ = m.Update(replyMsg{err: errors.New("boom")})
	m = next.(chatModel)
	assert.True(t, m.lines[3].err)
}

func TestChatModel_Generate(t *testing.T) {
	r := &echoResponder{}
	m := newChatModel(r, generate.DefaultGenerateConfig())
	m.input.SetValue("hi there")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(replyMsg)
	require.True(t, ok)
	assert.Equal(t, "HI THERE", msg.resp.Text)
	assert.Equal(t, []string{"hi there"}, r.prompts)
}

func TestChatModel_Quit(t *testing.T) {
	m := newChatModel(&echoResponder{}, generate.DefaultGenerateConfig())
	m.input.SetValue("quit")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}
