// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/born-ml/sophie/nn"
)

// TestModuleInterface verifies that concrete types implement Module interface.
func TestModuleInterface(t *testing.T) {
	src := rand.NewSource(1)

	attn, err := nn.NewCausalSelfAttention("attn", 8, 2, nn.DefaultInitStd, src)
	require.NoError(t, err)
	block, err := nn.NewTransformerBlock("block", nn.TransformerConfig{
		EmbedDim: 8, NumHeads: 2, FFNDim: 16, NormEps: nn.DefaultNormEps, InitStd: nn.DefaultInitStd,
	}, src)
	require.NoError(t, err)

	tests := []struct {
		name   string
		module nn.Module
		want   int
	}{
		{"Linear", nn.NewLinear("fc", 10, 5, true, nn.XavierStd(10, 5), src), 10*5 + 5},
		{"LinearNoBias", nn.NewLinear("fc", 10, 5, false, nn.DefaultInitStd, src), 10 * 5},
		{"Embedding", nn.NewEmbedding("wte", 12, 8, nn.DefaultInitStd, src), 12 * 8},
		{"LayerNorm", nn.NewLayerNorm("ln", 8, nn.DefaultNormEps), 2 * 8},
		{"ReLU", nn.NewReLU(), 0},
		{"Attention", attn, -1},
		{"TransformerBlock", block, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := tt.module.Parameters()
			if tt.want == 0 {
				assert.Empty(t, params)
				return
			}
			assert.NotEmpty(t, params)
			for _, p := range params {
				assert.NotEmpty(t, p.Name())
			}
			if tt.want > 0 {
				assert.Equal(t, tt.want, nn.CountParameters(params))
			}
		})
	}
}

func TestParameter(t *testing.T) {
	p := nn.NewParameter("w", nn.Zeros(3, 2))
	rows, cols := p.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 6, p.NumElements())

	p.Grad().Set(1, 1, 4)
	nn.ZeroGrad([]*nn.Parameter{p})
	assert.Zero(t, p.Grad().At(1, 1))
}

func TestCrossEntropyLoss(t *testing.T) {
	logits := nn.Zeros(2, 4)
	loss, grad, err := nn.NewCrossEntropyLoss(0).Forward(logits, []int32{0, 2})
	require.NoError(t, err)

	// Uniform logits give log(V) on the one counted position.
	assert.InDelta(t, 1.3862943611, loss, 1e-9)
	assert.Zero(t, grad.At(0, 2))

	probs := nn.Softmax([]float64{1, 1})
	assert.InDelta(t, 0.5, probs[0], 1e-12)
}
