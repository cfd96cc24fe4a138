package loader_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/sophie/loader"
	"github.com/born-ml/sophie/tokenizer"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want loader.ModelFormat
	}{
		{"sophie.safetensors", loader.FormatSafeTensors},
		{"dir/Model.SafeTensors", loader.FormatSafeTensors},
		{"sophie.onnx", loader.FormatONNX},
		{"sophie.gguf", loader.FormatUnknown},
		{"sophie", loader.FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, loader.DetectFormat(tt.path))
		})
	}
}

func TestLoad(t *testing.T) {
	vocab := tokenizer.BuildVocabulary("User: hello there Bot: hi there",
		tokenizer.VocabConfig{MaxWords: -1, MinCount: 1})

	cfg := loader.DefaultConfig()
	cfg.VocabSize = vocab.Size()
	cfg.EmbedDim = 8
	cfg.NumHeads = 2
	cfg.NumLayers = 1
	cfg.FFNDim = 16
	cfg.ContextLen = 4
	lm, err := loader.New(cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sophie.safetensors")
	require.NoError(t, lm.Save(path, vocab, 7, 1.5))

	loaded, loadedVocab, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, vocab.Words(), loadedVocab.Words())
	assert.Equal(t, cfg, loaded.Config)

	want, err := lm.NextTokenProbs([]int32{tokenizer.BotID})
	require.NoError(t, err)
	got, err := loaded.NextTokenProbs([]int32{tokenizer.BotID})
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-6)

	ckpt, err := loader.ReadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, 7, ckpt.Step)
	assert.InDelta(t, 1.5, ckpt.Loss, 1e-12)
}

func TestLoad_Missing(t *testing.T) {
	_, _, err := loader.Load(filepath.Join(t.TempDir(), "missing.safetensors"))
	assert.Error(t, err)
}
