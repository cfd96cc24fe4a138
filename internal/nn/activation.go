package nn

import (
	"gonum.org/v1/gonum/mat"
)

// ReLU is a Rectified Linear Unit activation.
//
// Applies the element-wise function: f(x) = max(0, x)
type ReLU struct{}

// NewReLU creates a new ReLU activation.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies max(0, x) and returns a new matrix.
func (r *ReLU) Forward(x *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	}, x)
	return &out
}

// Backward masks gradOut by the sign of the Forward output.
func (r *ReLU) Backward(activated, gradOut *mat.Dense) *mat.Dense {
	var dx mat.Dense
	dx.Apply(func(i, j int, g float64) float64 {
		if activated.At(i, j) > 0 {
			return g
		}
		return 0
	}, gradOut)
	return &dx
}

// Parameters returns nil (ReLU has no trainable parameters).
func (r *ReLU) Parameters() []*Parameter {
	return nil
}
