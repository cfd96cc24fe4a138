// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the neural network layers behind the dialogue model.
//
// # Overview
//
// This package contains:
//   - Layers: Embedding, Linear, LayerNorm, FFN
//   - Attention: CausalSelfAttention, TransformerBlock
//   - Loss functions: CrossEntropyLoss with an ignored padding index
//   - Utilities: Module interface, Parameter, ZeroGrad, CountParameters
//   - Initialization: Normal, Zeros, XavierStd
//
// Layers work on gonum matrices with one row per sequence position. Each
// Forward returns the activations it needs for Backward, and Backward
// accumulates into the gradients of the layer's parameters.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/sophie/nn"
//	    "golang.org/x/exp/rand"
//	)
//
//	func main() {
//	    src := rand.NewSource(1)
//	    block, err := nn.NewTransformerBlock("blocks.0", nn.TransformerConfig{
//	        EmbedDim: 128,
//	        NumHeads: 4,
//	        FFNDim:   512,
//	        NormEps:  nn.DefaultNormEps,
//	        InitStd:  nn.DefaultInitStd,
//	    }, src)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    out, cache := block.Forward(x)      // x: [T, 128]
//	    gradIn := block.Backward(cache, g)  // g: dLoss/dout
//	}
package nn
