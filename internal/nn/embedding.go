package nn

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Embedding is a lookup table that maps discrete indices to dense vectors.
//
// Architecture:
//   - Weight: [NumEmbed, EmbedDim] learnable parameter
//   - Forward: indices [seq] -> embeddings [seq, EmbedDim]
//   - Backward: gradients scatter-add to weight rows
type Embedding struct {
	Weight   *Parameter // Embedding weight matrix [NumEmbed, EmbedDim]
	NumEmbed int        // Number of embeddings (vocabulary size)
	EmbedDim int        // Embedding dimension (vector size)
}

// NewEmbedding creates a new Embedding layer initialized from N(0, std²).
func NewEmbedding(name string, numEmbeddings, embeddingDim int, std float64, src rand.Source) *Embedding {
	return &Embedding{
		Weight:   NewParameter(name+".weight", Normal(numEmbeddings, embeddingDim, std, src)),
		NumEmbed: numEmbeddings,
		EmbedDim: embeddingDim,
	}
}

// Forward looks up the rows for indices.
func (e *Embedding) Forward(indices []int32) (*mat.Dense, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("embedding: empty input")
	}

	out := mat.NewDense(len(indices), e.EmbedDim, nil)
	w := e.Weight.Value()
	for i, idx := range indices {
		if idx < 0 || int(idx) >= e.NumEmbed {
			return nil, fmt.Errorf("embedding: index %d out of range [0, %d)", idx, e.NumEmbed)
		}
		copy(out.RawRowView(i), w.RawRowView(int(idx)))
	}
	return out, nil
}

// Backward adds row i of grad into the gradient row of indices[i].
//
// Indices must be the ones passed to Forward.
func (e *Embedding) Backward(indices []int32, grad *mat.Dense) {
	g := e.Weight.Grad()
	for i, idx := range indices {
		dst := g.RawRowView(int(idx))
		for j, v := range grad.RawRowView(i) {
			dst[j] += v
		}
	}
}

// Parameters returns the embedding weight.
func (e *Embedding) Parameters() []*Parameter {
	return []*Parameter{e.Weight}
}

// Positions returns the indices 0..n-1, used with a positional embedding.
func Positions(n int) []int32 {
	pos := make([]int32, n)
	for i := range pos {
		pos[i] = int32(i) //nolint:gosec // G115: n is bounded by the context length.
	}
	return pos
}
