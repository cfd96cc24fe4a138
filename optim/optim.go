// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/sophie/internal/nn"
	"github.com/born-ml/sophie/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(
//	    model.Parameters(),
//	    optim.SGDConfig{
//	        LR:       0.01,
//	        Momentum: 0.9,
//	    },
//	)
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	return optim.NewSGD(params, config)
}

// AdamW (Adam with decoupled weight decay)

// AdamW represents the AdamW optimizer.
type AdamW = optim.AdamW

// AdamWConfig contains configuration for AdamW optimizer.
type AdamWConfig = optim.AdamWConfig

// DefaultAdamWConfig returns the defaults used for dialogue training.
func DefaultAdamWConfig() AdamWConfig {
	return optim.DefaultAdamWConfig()
}

// NewAdamW creates a new AdamW optimizer.
//
// Example:
//
//	optimizer := optim.NewAdamW(
//	    model.Parameters(),
//	    optim.AdamWConfig{
//	        LR:          3e-4,
//	        Betas:       [2]float64{0.9, 0.999},
//	        Eps:         1e-8,
//	        WeightDecay: 0.01,
//	    },
//	)
func NewAdamW(params []*nn.Parameter, config AdamWConfig) *AdamW {
	return optim.NewAdamW(params, config)
}

// ClipGradNorm rescales the gradients of params so their global L2 norm is
// at most maxNorm and returns the norm before clipping. maxNorm <= 0
// disables clipping.
func ClipGradNorm(params []*nn.Parameter, maxNorm float64) float64 {
	return optim.ClipGradNorm(params, maxNorm)
}
