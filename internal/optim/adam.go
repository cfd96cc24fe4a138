package optim

import (
	"math"

	"github.com/born-ml/sophie/internal/nn"
)

// AdamW implements Adam with decoupled weight decay.
//
// Update rule:
//
//	param = param - lr * weight_decay * param          // Decoupled decay
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)   // Parameter update
//
// With WeightDecay = 0 this is plain Adam.
//
// Reference: "Decoupled Weight Decay Regularization" (Loshchilov & Hutter, 2019)
type AdamW struct {
	params      []*nn.Parameter
	lr          float64
	beta1       float64
	beta2       float64
	eps         float64
	weightDecay float64
	t           int         // Timestep for bias correction
	m           [][]float64 // First moment estimates, per parameter
	v           [][]float64 // Second moment estimates, per parameter
}

// AdamWConfig holds configuration for the AdamW optimizer.
type AdamWConfig struct {
	LR          float64    `yaml:"lr"`           // Learning rate (default: 3e-4)
	Betas       [2]float64 `yaml:"betas"`        // Running average coefficients (default: [0.9, 0.999])
	Eps         float64    `yaml:"eps"`          // Term for numerical stability (default: 1e-8)
	WeightDecay float64    `yaml:"weight_decay"` // Decoupled weight decay (default: 0.01)
}

// DefaultAdamWConfig returns the PyTorch AdamW defaults with lr 3e-4.
func DefaultAdamWConfig() AdamWConfig {
	return AdamWConfig{
		LR:          3e-4,
		Betas:       [2]float64{0.9, 0.999},
		Eps:         1e-8,
		WeightDecay: 0.01,
	}
}

// NewAdamW creates a new AdamW optimizer.
//
// Zero LR, Betas, or Eps take their defaults. WeightDecay is used as given.
func NewAdamW(params []*nn.Parameter, config AdamWConfig) *AdamW {
	def := DefaultAdamWConfig()
	if config.LR == 0 {
		config.LR = def.LR
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = def.Betas[0]
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = def.Betas[1]
	}
	if config.Eps == 0 {
		config.Eps = def.Eps
	}

	m := make([][]float64, len(params))
	v := make([][]float64, len(params))
	for i, p := range params {
		m[i] = make([]float64, p.NumElements())
		v[i] = make([]float64, p.NumElements())
	}

	return &AdamW{
		params:      params,
		lr:          config.LR,
		beta1:       config.Betas[0],
		beta2:       config.Betas[1],
		eps:         config.Eps,
		weightDecay: config.WeightDecay,
		m:           m,
		v:           v,
	}
}

// Step performs a single optimization step.
func (a *AdamW) Step() {
	a.t++

	biasCorrection1 := 1.0 - math.Pow(a.beta1, float64(a.t))
	biasCorrection2 := 1.0 - math.Pow(a.beta2, float64(a.t))
	decay := 1 - a.lr*a.weightDecay

	for i, param := range a.params {
		values := param.Value().RawMatrix().Data
		grads := param.Grad().RawMatrix().Data
		m, v := a.m[i], a.v[i]

		for j, g := range grads {
			m[j] = a.beta1*m[j] + (1-a.beta1)*g
			v[j] = a.beta2*v[j] + (1-a.beta2)*g*g

			mHat := m[j] / biasCorrection1
			vHat := v[j] / biasCorrection2

			values[j] = values[j]*decay - a.lr*mHat/(math.Sqrt(vHat)+a.eps)
		}
	}
}

// ZeroGrad clears all parameter gradients.
func (a *AdamW) ZeroGrad() {
	nn.ZeroGrad(a.params)
}

// GetLR returns the current learning rate.
func (a *AdamW) GetLR() float64 {
	return a.lr
}

// SetLR changes the learning rate, e.g. from a scheduler.
func (a *AdamW) SetLR(lr float64) {
	a.lr = lr
}

// Steps returns how many updates have been applied.
func (a *AdamW) Steps() int {
	return a.t
}
