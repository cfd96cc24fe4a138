package nn

import (
	"gonum.org/v1/gonum/mat"
)

// Parameter represents a trainable parameter in a neural network.
//
// The gradient has the same shape as the value and accumulates across
// backward passes until ZeroGrad is called.
//
// Example:
//
//	weight := nn.NewParameter("head.weight", mat.NewDense(128, 5004, nil))
//
//	w := weight.Value()
//	g := weight.Grad()
type Parameter struct {
	name  string     // Parameter name (e.g., "head.weight")
	value *mat.Dense // The parameter matrix
	grad  *mat.Dense // Accumulated gradient
}

// NewParameter creates a new trainable parameter with a zero gradient.
func NewParameter(name string, value *mat.Dense) *Parameter {
	r, c := value.Dims()
	return &Parameter{
		name:  name,
		value: value,
		grad:  mat.NewDense(r, c, nil),
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Value returns the parameter matrix.
func (p *Parameter) Value() *mat.Dense {
	return p.value
}

// Grad returns the accumulated gradient.
func (p *Parameter) Grad() *mat.Dense {
	return p.grad
}

// Dims returns the parameter shape.
func (p *Parameter) Dims() (rows, cols int) {
	return p.value.Dims()
}

// NumElements returns rows*cols.
func (p *Parameter) NumElements() int {
	r, c := p.value.Dims()
	return r * c
}

// ZeroGrad clears the accumulated gradient.
func (p *Parameter) ZeroGrad() {
	p.grad.Zero()
}

// SetValue copies src into the parameter. Shapes must match.
func (p *Parameter) SetValue(src mat.Matrix) {
	p.value.Copy(src)
}
