// Package nn implements the neural network layers of the dialogue model.
//
// This package provides building blocks on gonum dense matrices:
//   - Parameter: Trainable matrix with an accumulated gradient
//   - Embedding: Token and positional lookup tables
//   - CausalSelfAttention: Masked multi-head self-attention
//   - Linear: Fully connected layer
//   - CrossEntropyLoss: Softmax cross-entropy with an ignored index
//
// Layers have no autodiff tape. Each Forward returns what its Backward needs,
// and Backward accumulates into Parameter gradients and returns the gradient
// for the layer input.
package nn

// Module is the base interface for all layers.
type Module interface {
	// Parameters returns all trainable parameters of this module.
	Parameters() []*Parameter
}

// ZeroGrad clears the gradients of every parameter in params.
func ZeroGrad(params []*Parameter) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

// CountParameters returns the total number of scalar parameters.
func CountParameters(params []*Parameter) int {
	n := 0
	for _, p := range params {
		n += p.NumElements()
	}
	return n
}
