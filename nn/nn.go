// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/sophie/internal/nn"
)

// Module interface defines the common interface for all neural network modules.
type Module = nn.Module

// Parameter represents a trainable parameter in a neural network.
type Parameter = nn.Parameter

// NewParameter creates a new parameter with the given name and value.
func NewParameter(name string, value *mat.Dense) *Parameter {
	return nn.NewParameter(name, value)
}

// ZeroGrad clears the gradients of params.
func ZeroGrad(params []*Parameter) {
	nn.ZeroGrad(params)
}

// CountParameters returns the number of scalar weights in params.
func CountParameters(params []*Parameter) int {
	return nn.CountParameters(params)
}

// Initialization

// Default initialization constants.
const (
	DefaultInitStd = nn.DefaultInitStd
	DefaultNormEps = nn.DefaultNormEps
)

// Normal returns a rows x cols matrix drawn from N(0, std²).
func Normal(rows, cols int, std float64, src rand.Source) *mat.Dense {
	return nn.Normal(rows, cols, std, src)
}

// Zeros returns a rows x cols zero matrix.
func Zeros(rows, cols int) *mat.Dense {
	return nn.Zeros(rows, cols)
}

// XavierStd returns the Xavier/Glorot normal standard deviation.
func XavierStd(fanIn, fanOut int) float64 {
	return nn.XavierStd(fanIn, fanOut)
}

// Layers

// Embedding maps token IDs to learned vectors.
type Embedding = nn.Embedding

// NewEmbedding creates an embedding table.
func NewEmbedding(name string, numEmbeddings, embeddingDim int, std float64, src rand.Source) *Embedding {
	return nn.NewEmbedding(name, numEmbeddings, embeddingDim, std, src)
}

// Linear represents a fully connected (dense) layer.
type Linear = nn.Linear

// NewLinear creates a new linear layer.
//
// Example:
//
//	head := nn.NewLinear("head", 128, vocabSize, true, nn.DefaultInitStd, src)
func NewLinear(name string, inFeatures, outFeatures int, bias bool, std float64, src rand.Source) *Linear {
	return nn.NewLinear(name, inFeatures, outFeatures, bias, std, src)
}

// LayerNorm normalizes each row to zero mean and unit variance.
type LayerNorm = nn.LayerNorm

// NewLayerNorm creates a layer norm over dim features.
func NewLayerNorm(name string, dim int, epsilon float64) *LayerNorm {
	return nn.NewLayerNorm(name, dim, epsilon)
}

// ReLU is the rectified linear activation.
type ReLU = nn.ReLU

// NewReLU creates a ReLU activation.
func NewReLU() *ReLU {
	return nn.NewReLU()
}

// FFN is the position-wise feed-forward network of a transformer block.
type FFN = nn.FFN

// NewFFN creates a feed-forward network embedDim -> ffnDim -> embedDim.
func NewFFN(name string, embedDim, ffnDim int, std float64, src rand.Source) *FFN {
	return nn.NewFFN(name, embedDim, ffnDim, std, src)
}

// Attention

// CausalSelfAttention is multi-head self-attention with a causal mask.
type CausalSelfAttention = nn.CausalSelfAttention

// NewCausalSelfAttention creates an attention layer. embedDim must be
// divisible by numHeads.
func NewCausalSelfAttention(name string, embedDim, numHeads int, std float64, src rand.Source) (*CausalSelfAttention, error) {
	return nn.NewCausalSelfAttention(name, embedDim, numHeads, std, src)
}

// TransformerConfig configures a transformer block.
type TransformerConfig = nn.TransformerConfig

// TransformerBlock is a pre-norm block: attention then feed-forward, each
// with a residual connection.
type TransformerBlock = nn.TransformerBlock

// NewTransformerBlock creates a transformer block.
func NewTransformerBlock(name string, config TransformerConfig, src rand.Source) (*TransformerBlock, error) {
	return nn.NewTransformerBlock(name, config, src)
}

// Loss Functions

// CrossEntropyLoss computes softmax cross-entropy over rows of logits.
type CrossEntropyLoss = nn.CrossEntropyLoss

// NewCrossEntropyLoss creates a loss that skips targets equal to ignoreIndex.
func NewCrossEntropyLoss(ignoreIndex int32) *CrossEntropyLoss {
	return nn.NewCrossEntropyLoss(ignoreIndex)
}

// Softmax returns the softmax of row.
func Softmax(row []float64) []float64 {
	return nn.Softmax(row)
}
