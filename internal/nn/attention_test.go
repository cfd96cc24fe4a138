package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestNewCausalSelfAttention_Validation(t *testing.T) {
	tests := []struct {
		name    string
		embed   int
		heads   int
		wantErr bool
	}{
		{"divisible", 8, 2, false},
		{"single head", 5, 1, false},
		{"not divisible", 6, 4, true},
		{"zero heads", 8, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewCausalSelfAttention("attn", tt.embed, tt.heads, 0.02, testSource())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.embed/tt.heads, a.HeadDim)
			assert.Len(t, a.Parameters(), 4)
		})
	}
}

func TestCausalSelfAttention_ProbabilitiesAreCausal(t *testing.T) {
	a, err := NewCausalSelfAttention("attn", 4, 2, 0.5, testSource())
	require.NoError(t, err)
	x := randomDense(5, 4, testSource())

	_, c := a.Forward(x)

	for _, p := range c.probs {
		for i := 0; i < 5; i++ {
			row := p.RawRowView(i)
			assert.InDelta(t, 1, floats.Sum(row), 1e-12)
			for j := i + 1; j < 5; j++ {
				assert.Equal(t, 0.0, row[j])
			}
		}
	}
}

func TestCausalSelfAttention_FutureDoesNotLeak(t *testing.T) {
	a, err := NewCausalSelfAttention("attn", 4, 2, 0.5, testSource())
	require.NoError(t, err)
	x := randomDense(4, 4, testSource())

	before, _ := a.Forward(x)

	changed := mat.DenseCopyOf(x)
	changed.Set(3, 0, changed.At(3, 0)+10)
	after, _ := a.Forward(changed)

	for i := 0; i < 3; i++ {
		assert.InDeltaSlice(t, before.RawRowView(i), after.RawRowView(i), 1e-12, "row %d", i)
	}
	assert.NotEqual(t, before.RawRowView(3), after.RawRowView(3))
}

func TestCausalSelfAttention_Gradients(t *testing.T) {
	src := testSource()
	a, err := NewCausalSelfAttention("attn", 6, 3, 0.5, src)
	require.NoError(t, err)
	x := randomDense(4, 6, src)
	probe := randomDense(4, 6, src)

	loss := func() float64 {
		out, _ := a.Forward(x)
		return weightedSum(out, probe)
	}

	_, c := a.Forward(x)
	dx := a.Backward(c, probe)

	requireClose(t, numericGrad(x, loss), dx, "dx")
	for _, p := range a.Parameters() {
		requireClose(t, numericGrad(p.Value(), loss), p.Grad(), p.Name())
	}
}

func TestTransformerBlock_Gradients(t *testing.T) {
	src := testSource()
	b, err := NewTransformerBlock("blocks.0", TransformerConfig{
		EmbedDim: 4,
		NumHeads: 2,
		FFNDim:   8,
		NormEps:  DefaultNormEps,
		InitStd:  0.5,
	}, src)
	require.NoError(t, err)
	x := randomDense(3, 4, src)
	probe := randomDense(3, 4, src)

	loss := func() float64 {
		out, _ := b.Forward(x)
		return weightedSum(out, probe)
	}

	_, c := b.Forward(x)
	dx := b.Backward(c, probe)

	requireClose(t, numericGrad(x, loss), dx, "dx")
	for _, p := range b.Parameters() {
		requireClose(t, numericGrad(p.Value(), loss), p.Grad(), p.Name())
	}
}

func TestTransformerBlock_Validation(t *testing.T) {
	valid := TransformerConfig{EmbedDim: 4, NumHeads: 2, FFNDim: 8, NormEps: 1e-5, InitStd: 0.02}

	tests := []struct {
		name   string
		mutate func(*TransformerConfig)
	}{
		{"zero embed", func(c *TransformerConfig) { c.EmbedDim = 0 }},
		{"zero ffn", func(c *TransformerConfig) { c.FFNDim = 0 }},
		{"zero eps", func(c *TransformerConfig) { c.NormEps = 0 }},
		{"bad heads", func(c *TransformerConfig) { c.NumHeads = 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			_, err := NewTransformerBlock("b", cfg, testSource())
			require.Error(t, err)
		})
	}

	b, err := NewTransformerBlock("blocks.1", valid, testSource())
	require.NoError(t, err)
	names := make([]string, 0, len(b.Parameters()))
	for _, p := range b.Parameters() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{
		"blocks.1.attn_norm.gamma", "blocks.1.attn_norm.beta",
		"blocks.1.attn.query.weight", "blocks.1.attn.key.weight",
		"blocks.1.attn.value.weight", "blocks.1.attn.out.weight",
		"blocks.1.ffn_norm.gamma", "blocks.1.ffn_norm.beta",
		"blocks.1.ffn.fc1.weight", "blocks.1.ffn.fc1.bias",
		"blocks.1.ffn.fc2.weight", "blocks.1.ffn.fc2.bias",
	}, names)
}
