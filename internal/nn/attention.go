package nn

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// CausalSelfAttention is multi-head self-attention where position i only
// attends to positions 0..i.
//
// Architecture:
//
//	Q, K, V = x @ Wq, x @ Wk, x @ Wv           // [seq, embed]
//	head_h  = softmax(mask(Q_h @ K_h.T / sqrt(d_h))) @ V_h
//	out     = concat(head_0..head_{H-1}) @ Wo
//
// Heads split the embedding dimension into NumHeads contiguous blocks.
type CausalSelfAttention struct {
	Query *Parameter // [embed, embed]
	Key   *Parameter // [embed, embed]
	Value *Parameter // [embed, embed]
	Out   *Parameter // [embed, embed]

	EmbedDim int
	NumHeads int
	HeadDim  int
}

// AttentionCache holds the activations of one Forward call needed by Backward.
type AttentionCache struct {
	x, q, k, v *mat.Dense
	probs      []*mat.Dense // per head attention weights [seq, seq]
	context    *mat.Dense   // concatenated head outputs [seq, embed]
}

// NewCausalSelfAttention creates an attention layer with N(0, std²) weights.
func NewCausalSelfAttention(name string, embedDim, numHeads int, std float64, src rand.Source) (*CausalSelfAttention, error) {
	if numHeads <= 0 || embedDim%numHeads != 0 {
		return nil, fmt.Errorf("attention: embed dim %d not divisible by %d heads", embedDim, numHeads)
	}

	return &CausalSelfAttention{
		Query:    NewParameter(name+".query.weight", Normal(embedDim, embedDim, std, src)),
		Key:      NewParameter(name+".key.weight", Normal(embedDim, embedDim, std, src)),
		Value:    NewParameter(name+".value.weight", Normal(embedDim, embedDim, std, src)),
		Out:      NewParameter(name+".out.weight", Normal(embedDim, embedDim, std, src)),
		EmbedDim: embedDim,
		NumHeads: numHeads,
		HeadDim:  embedDim / numHeads,
	}, nil
}

// Forward computes attention over x [seq, embed].
func (a *CausalSelfAttention) Forward(x *mat.Dense) (*mat.Dense, *AttentionCache) {
	seq, _ := x.Dims()
	scale := 1 / math.Sqrt(float64(a.HeadDim))

	c := &AttentionCache{
		x:       x,
		q:       mat.NewDense(seq, a.EmbedDim, nil),
		k:       mat.NewDense(seq, a.EmbedDim, nil),
		v:       mat.NewDense(seq, a.EmbedDim, nil),
		probs:   make([]*mat.Dense, a.NumHeads),
		context: mat.NewDense(seq, a.EmbedDim, nil),
	}
	c.q.Mul(x, a.Query.Value())
	c.k.Mul(x, a.Key.Value())
	c.v.Mul(x, a.Value.Value())

	for h := 0; h < a.NumHeads; h++ {
		lo, hi := h*a.HeadDim, (h+1)*a.HeadDim
		qh := c.q.Slice(0, seq, lo, hi)
		kh := c.k.Slice(0, seq, lo, hi)
		vh := c.v.Slice(0, seq, lo, hi)

		p := mat.NewDense(seq, seq, nil)
		p.Mul(qh, kh.T())
		for i := 0; i < seq; i++ {
			row := p.RawRowView(i)
			causalSoftmax(row[:i+1], scale)
			for j := i + 1; j < seq; j++ {
				row[j] = 0
			}
		}
		c.probs[h] = p

		ctx := c.context.Slice(0, seq, lo, hi).(*mat.Dense)
		ctx.Mul(p, vh)
	}

	out := mat.NewDense(seq, a.EmbedDim, nil)
	out.Mul(c.context, a.Out.Value())
	return out, c
}

// Backward accumulates parameter gradients for the cached Forward call and
// returns the gradient with respect to its input.
func (a *CausalSelfAttention) Backward(c *AttentionCache, gradOut *mat.Dense) *mat.Dense {
	seq, _ := c.x.Dims()
	scale := 1 / math.Sqrt(float64(a.HeadDim))

	var tmp mat.Dense
	tmp.Mul(c.context.T(), gradOut)
	a.Out.Grad().Add(a.Out.Grad(), &tmp)

	dContext := mat.NewDense(seq, a.EmbedDim, nil)
	dContext.Mul(gradOut, a.Out.Value().T())

	dq := mat.NewDense(seq, a.EmbedDim, nil)
	dk := mat.NewDense(seq, a.EmbedDim, nil)
	dv := mat.NewDense(seq, a.EmbedDim, nil)

	for h := 0; h < a.NumHeads; h++ {
		lo, hi := h*a.HeadDim, (h+1)*a.HeadDim
		qh := c.q.Slice(0, seq, lo, hi)
		kh := c.k.Slice(0, seq, lo, hi)
		vh := c.v.Slice(0, seq, lo, hi)
		dch := dContext.Slice(0, seq, lo, hi)
		p := c.probs[h]

		// dV_h = P.T @ dC_h
		dv.Slice(0, seq, lo, hi).(*mat.Dense).Mul(p.T(), dch)

		// dP = dC_h @ V_h.T, then through the row softmax:
		// dS_ij = P_ij * (dP_ij - sum_k P_ik * dP_ik), scaled.
		ds := mat.NewDense(seq, seq, nil)
		ds.Mul(dch, vh.T())
		for i := 0; i < seq; i++ {
			pRow := p.RawRowView(i)
			dRow := ds.RawRowView(i)
			dot := floats.Dot(pRow[:i+1], dRow[:i+1])
			for j := 0; j <= i; j++ {
				dRow[j] = pRow[j] * (dRow[j] - dot) * scale
			}
			for j := i + 1; j < seq; j++ {
				dRow[j] = 0
			}
		}

		dq.Slice(0, seq, lo, hi).(*mat.Dense).Mul(ds, kh)
		dk.Slice(0, seq, lo, hi).(*mat.Dense).Mul(ds.T(), qh)
	}

	tmp.Reset()
	tmp.Mul(c.x.T(), dq)
	a.Query.Grad().Add(a.Query.Grad(), &tmp)
	tmp.Reset()
	tmp.Mul(c.x.T(), dk)
	a.Key.Grad().Add(a.Key.Grad(), &tmp)
	tmp.Reset()
	tmp.Mul(c.x.T(), dv)
	a.Value.Grad().Add(a.Value.Grad(), &tmp)

	dx := mat.NewDense(seq, a.EmbedDim, nil)
	var part mat.Dense
	dx.Mul(dq, a.Query.Value().T())
	part.Mul(dk, a.Key.Value().T())
	dx.Add(dx, &part)
	part.Reset()
	part.Mul(dv, a.Value.Value().T())
	dx.Add(dx, &part)
	return dx
}

// Parameters returns the four projection weights.
func (a *CausalSelfAttention) Parameters() []*Parameter {
	return []*Parameter{a.Query, a.Key, a.Value, a.Out}
}

// causalSoftmax replaces row with softmax(row*scale) in place.
func causalSoftmax(row []float64, scale float64) {
	floats.Scale(scale, row)
	lse := floats.LogSumExp(row)
	for j := range row {
		row[j] = math.Exp(row[j] - lse)
	}
}
