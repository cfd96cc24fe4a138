// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training neural networks.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - AdamW: Adam with decoupled weight decay and bias correction
//   - ClipGradNorm: global gradient norm clipping
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/sophie/nn"
//	    "github.com/born-ml/sophie/optim"
//	)
//
//	func main() {
//	    head := nn.NewLinear("head", 128, vocabSize, true, nn.DefaultInitStd, src)
//
//	    optimizer := optim.NewAdamW(head.Parameters(), optim.DefaultAdamWConfig())
//
//	    for step := 0; step < steps; step++ {
//	        optimizer.ZeroGrad()
//	        // forward and backward accumulate into the parameter gradients
//	        optim.ClipGradNorm(head.Parameters(), 1.0)
//	        optimizer.Step()
//	    }
//	}
package optim
