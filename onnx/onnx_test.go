package onnx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/sophie/internal/model"
	"github.com/born-ml/sophie/onnx"
)

func TestDefaultConfig(t *testing.T) {
	cfg := onnx.DefaultConfig("sophie.onnx")
	assert.Equal(t, "sophie.onnx", cfg.ModelPath)
	assert.Equal(t, "input_ids", cfg.InputName)
	assert.Equal(t, "logits", cfg.OutputName)
	assert.Equal(t, 64, cfg.ContextLen)
	assert.Zero(t, cfg.VocabSize)
}

func TestNewScorer_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*onnx.Config)
	}{
		{"missing vocab", func(*onnx.Config) {}},
		{"zero context", func(c *onnx.Config) { c.VocabSize = 10; c.ContextLen = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := onnx.DefaultConfig("sophie.onnx")
			tt.mutate(&cfg)

			s, err := onnx.NewScorer(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrInvalidConfig)
			assert.Nil(t, s)
		})
	}
}
