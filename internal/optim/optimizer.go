// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - AdamW: Adam with decoupled weight decay
//
// Optimizers read the gradients accumulated in each nn.Parameter.
//
// Example usage:
//
//	optimizer := optim.NewAdamW(lm.Parameters(), optim.DefaultAdamWConfig())
//
//	for step := range steps {
//	    optimizer.ZeroGrad()
//	    loss, err := lm.TrainStep(sampler.Sample(32))
//	    if err != nil {
//	        return err
//	    }
//	    optimizer.Step()
//	}
package optim

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/sophie/internal/nn"
)

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to parameters
//   - ZeroGrad: Clear gradients before next iteration
//   - GetLR: Get current learning rate (for monitoring/scheduling)
type Optimizer interface {
	// Step applies the accumulated gradients to all parameters.
	Step()

	// ZeroGrad clears all parameter gradients.
	//
	// This should be called before each backward pass to prevent
	// gradient accumulation from previous iterations.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float64
}

// ClipGradNorm rescales gradients so their global L2 norm is at most maxNorm
// and returns the norm before clipping. maxNorm <= 0 only measures.
func ClipGradNorm(params []*nn.Parameter, maxNorm float64) float64 {
	var sq float64
	for _, p := range params {
		g := p.Grad().RawMatrix().Data
		sq += floats.Dot(g, g)
	}
	norm := math.Sqrt(sq)

	if maxNorm > 0 && norm > maxNorm {
		scale := maxNorm / norm
		for _, p := range params {
			p.Grad().Scale(scale, p.Grad())
		}
	}
	return norm
}
