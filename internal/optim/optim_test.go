package optim_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/sophie/internal/nn"
	"github.com/born-ml/sophie/internal/optim"
)

func scalarParam(name string, value, grad float64) *nn.Parameter {
	p := nn.NewParameter(name, mat.NewDense(1, 1, []float64{value}))
	p.Grad().Set(0, 0, grad)
	return p
}

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	param := scalarParam("x", 2.0, 1.0)
	optimizer := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{LR: 0.1})

	optimizer.Step()

	// x_new = 2.0 - 0.1 * 1.0
	assert.InDelta(t, 1.9, param.Value().At(0, 0), 1e-12)
}

// TestSGD_WithMomentum tests SGD with momentum.
func TestSGD_WithMomentum(t *testing.T) {
	param := scalarParam("x", 1.0, 1.0)
	optimizer := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	// velocity = 1, x = 1 - 0.1
	optimizer.Step()
	assert.InDelta(t, 0.9, param.Value().At(0, 0), 1e-12)

	// velocity = 0.9 + 1 = 1.9, x = 0.9 - 0.19
	optimizer.Step()
	assert.InDelta(t, 0.71, param.Value().At(0, 0), 1e-12)
}

// TestSGD_Defaults checks the default learning rate.
func TestSGD_Defaults(t *testing.T) {
	optimizer := optim.NewSGD(nil, optim.SGDConfig{})
	assert.Equal(t, 0.01, optimizer.GetLR())
}

// TestAdamW_FirstStep checks the bias-corrected first update.
func TestAdamW_FirstStep(t *testing.T) {
	param := scalarParam("x", 1.0, 0.5)
	optimizer := optim.NewAdamW([]*nn.Parameter{param}, optim.AdamWConfig{LR: 0.1})

	optimizer.Step()

	// After bias correction m_hat = g and v_hat = g², so the step is lr * g/|g|.
	// Weight decay (0 here) leaves x unscaled.
	assert.InDelta(t, 0.9, param.Value().At(0, 0), 1e-6)
	assert.Equal(t, 1, optimizer.Steps())
}

// TestAdamW_WeightDecay checks decoupled decay with a zero gradient.
func TestAdamW_WeightDecay(t *testing.T) {
	param := scalarParam("x", 2.0, 0.0)
	optimizer := optim.NewAdamW([]*nn.Parameter{param}, optim.AdamWConfig{LR: 0.1, WeightDecay: 0.5})

	optimizer.Step()

	// x * (1 - 0.1*0.5); the Adam term is 0/(0+eps).
	assert.InDelta(t, 1.9, param.Value().At(0, 0), 1e-12)
}

// TestAdamW_Defaults checks defaults for zero-valued config fields.
func TestAdamW_Defaults(t *testing.T) {
	def := optim.DefaultAdamWConfig()
	assert.Equal(t, 3e-4, def.LR)
	assert.Equal(t, [2]float64{0.9, 0.999}, def.Betas)
	assert.Equal(t, 1e-8, def.Eps)
	assert.Equal(t, 0.01, def.WeightDecay)

	optimizer := optim.NewAdamW(nil, optim.AdamWConfig{})
	assert.Equal(t, 3e-4, optimizer.GetLR())

	optimizer.SetLR(1e-3)
	assert.Equal(t, 1e-3, optimizer.GetLR())
}

// TestAdamW_Minimizes checks convergence on f(x) = (x-3)².
func TestAdamW_Minimizes(t *testing.T) {
	param := scalarParam("x", 0.0, 0.0)
	optimizer := optim.NewAdamW([]*nn.Parameter{param}, optim.AdamWConfig{LR: 0.1})

	for i := 0; i < 500; i++ {
		optimizer.ZeroGrad()
		x := param.Value().At(0, 0)
		param.Grad().Set(0, 0, 2*(x-3))
		optimizer.Step()
	}

	assert.InDelta(t, 3.0, param.Value().At(0, 0), 0.05)
}

// TestZeroGrad clears gradients for every optimizer.
func TestZeroGrad(t *testing.T) {
	a := scalarParam("a", 1, 5)
	b := scalarParam("b", 1, 5)

	optimizers := []optim.Optimizer{
		optim.NewSGD([]*nn.Parameter{a}, optim.SGDConfig{}),
		optim.NewAdamW([]*nn.Parameter{b}, optim.DefaultAdamWConfig()),
	}
	for _, o := range optimizers {
		o.ZeroGrad()
	}

	assert.Equal(t, 0.0, a.Grad().At(0, 0))
	assert.Equal(t, 0.0, b.Grad().At(0, 0))
}

// TestClipGradNorm scales gradients down to the maximum norm.
func TestClipGradNorm(t *testing.T) {
	a := scalarParam("a", 0, 3)
	b := scalarParam("b", 0, 4)
	params := []*nn.Parameter{a, b}

	norm := optim.ClipGradNorm(params, 0)
	assert.InDelta(t, 5.0, norm, 1e-12)
	assert.Equal(t, 3.0, a.Grad().At(0, 0))

	norm = optim.ClipGradNorm(params, 1)
	assert.InDelta(t, 5.0, norm, 1e-12)
	assert.InDelta(t, 0.6, a.Grad().At(0, 0), 1e-12)
	assert.InDelta(t, 0.8, b.Grad().At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, math.Hypot(a.Grad().At(0, 0), b.Grad().At(0, 0)), 1e-12)
}
