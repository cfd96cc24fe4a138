package nn

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// TransformerConfig defines the configuration for a Transformer Block.
type TransformerConfig struct {
	EmbedDim int     // d_model
	NumHeads int     // number of attention heads
	FFNDim   int     // FFN hidden dimension (typically 4 * EmbedDim)
	NormEps  float64 // LayerNorm epsilon
	InitStd  float64 // standard deviation of weight init
}

// TransformerBlock is a pre-norm decoder block with causal self-attention.
//
// Architecture:
//
//	x → LayerNorm → Attention → + → LayerNorm → FFN → + → output
//	         ↑_____________|            ↑_______|
//	           (residual)              (residual)
type TransformerBlock struct {
	Config    TransformerConfig
	AttnNorm  *LayerNorm
	Attention *CausalSelfAttention
	FFNNorm   *LayerNorm
	FFN       *FFN
}

// BlockCache holds what Backward needs from one Forward call.
type BlockCache struct {
	attnNorm *LayerNormCache
	attn     *AttentionCache
	ffnNorm  *LayerNormCache
	ffn      *FFNCache
}

// NewTransformerBlock creates a block named name (e.g. "blocks.0").
func NewTransformerBlock(name string, config TransformerConfig, src rand.Source) (*TransformerBlock, error) {
	if config.EmbedDim <= 0 {
		return nil, fmt.Errorf("transformer block: embed dim must be positive, got %d", config.EmbedDim)
	}
	if config.FFNDim <= 0 {
		return nil, fmt.Errorf("transformer block: ffn dim must be positive, got %d", config.FFNDim)
	}
	if config.NormEps <= 0 {
		return nil, fmt.Errorf("transformer block: norm eps must be positive, got %g", config.NormEps)
	}

	attn, err := NewCausalSelfAttention(name+".attn", config.EmbedDim, config.NumHeads, config.InitStd, src)
	if err != nil {
		return nil, err
	}

	return &TransformerBlock{
		Config:    config,
		AttnNorm:  NewLayerNorm(name+".attn_norm", config.EmbedDim, config.NormEps),
		Attention: attn,
		FFNNorm:   NewLayerNorm(name+".ffn_norm", config.EmbedDim, config.NormEps),
		FFN:       NewFFN(name+".ffn", config.EmbedDim, config.FFNDim, config.InitStd, src),
	}, nil
}

// Forward computes the block output for x [seq, embed_dim].
func (t *TransformerBlock) Forward(x *mat.Dense) (*mat.Dense, *BlockCache) {
	c := &BlockCache{}

	normed, nc := t.AttnNorm.Forward(x)
	c.attnNorm = nc
	attnOut, ac := t.Attention.Forward(normed)
	c.attn = ac

	rows, cols := x.Dims()
	h := mat.NewDense(rows, cols, nil)
	h.Add(x, attnOut)

	normed, nc = t.FFNNorm.Forward(h)
	c.ffnNorm = nc
	ffnOut, fc := t.FFN.Forward(normed)
	c.ffn = fc

	out := mat.NewDense(rows, cols, nil)
	out.Add(h, ffnOut)
	return out, c
}

// Backward accumulates gradients of every sub-layer and returns dL/dx.
func (t *TransformerBlock) Backward(c *BlockCache, gradOut *mat.Dense) *mat.Dense {
	// Residual: dh = gradOut + d(FFN(norm(h)))/dh
	d := t.FFN.Backward(c.ffn, gradOut)
	d = t.FFNNorm.Backward(c.ffnNorm, d)
	dh := mat.DenseCopyOf(gradOut)
	dh.Add(dh, d)

	d = t.Attention.Backward(c.attn, dh)
	d = t.AttnNorm.Backward(c.attnNorm, d)
	dh.Add(dh, d)
	return dh
}

// Parameters returns all block parameters in a stable order.
func (t *TransformerBlock) Parameters() []*Parameter {
	params := make([]*Parameter, 0, 12)
	params = append(params, t.AttnNorm.Parameters()...)
	params = append(params, t.Attention.Parameters()...)
	params = append(params, t.FFNNorm.Parameters()...)
	params = append(params, t.FFN.Parameters()...)
	return params
}
