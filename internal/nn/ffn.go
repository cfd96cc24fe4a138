package nn

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// FFN implements the position-wise feed-forward network of a transformer block.
//
// Architecture:
//
//	FFN(x) = Linear2(ReLU(Linear1(x)))
//
// Where:
//   - Linear1: [embed_dim → ffn_dim] (expansion)
//   - Linear2: [ffn_dim → embed_dim] (projection back)
type FFN struct {
	Linear1 *Linear
	Linear2 *Linear
	ReLU    *ReLU
}

// FFNCache holds the activations of one FFN Forward call.
type FFNCache struct {
	x      *mat.Dense
	hidden *mat.Dense
}

// NewFFN creates a feed-forward network with biased linear layers.
func NewFFN(name string, embedDim, ffnDim int, std float64, src rand.Source) *FFN {
	return &FFN{
		Linear1: NewLinear(name+".fc1", embedDim, ffnDim, true, std, src),
		Linear2: NewLinear(name+".fc2", ffnDim, embedDim, true, std, src),
		ReLU:    NewReLU(),
	}
}

// Forward computes the FFN output for x [seq, embed_dim].
func (f *FFN) Forward(x *mat.Dense) (*mat.Dense, *FFNCache) {
	hidden := f.ReLU.Forward(f.Linear1.Forward(x))
	return f.Linear2.Forward(hidden), &FFNCache{x: x, hidden: hidden}
}

// Backward accumulates gradients for both layers and returns dL/dx.
func (f *FFN) Backward(c *FFNCache, gradOut *mat.Dense) *mat.Dense {
	dHidden := f.Linear2.Backward(c.hidden, gradOut)
	dPre := f.ReLU.Backward(c.hidden, dHidden)
	return f.Linear1.Backward(c.x, dPre)
}

// Parameters returns the parameters of both linear layers.
func (f *FFN) Parameters() []*Parameter {
	return append(f.Linear1.Parameters(), f.Linear2.Parameters()...)
}
