package nn

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Linear implements a fully connected layer: y = x @ W + b.
//
// where:
//   - x has shape [seq, in_features]
//   - W has shape [in_features, out_features]
//   - b has shape [1, out_features]
type Linear struct {
	InFeatures  int
	OutFeatures int
	Weight      *Parameter
	Bias        *Parameter // nil when the layer has no bias
}

// NewLinear creates a Linear layer with N(0, std²) weights and zero bias.
func NewLinear(name string, inFeatures, outFeatures int, bias bool, std float64, src rand.Source) *Linear {
	l := &Linear{
		InFeatures:  inFeatures,
		OutFeatures: outFeatures,
		Weight:      NewParameter(name+".weight", Normal(inFeatures, outFeatures, std, src)),
	}
	if bias {
		l.Bias = NewParameter(name+".bias", Zeros(1, outFeatures))
	}
	return l
}

// XavierStd returns the Glorot normal standard deviation for a layer.
func XavierStd(fanIn, fanOut int) float64 {
	return math.Sqrt(2.0 / float64(fanIn+fanOut))
}

// Forward computes x @ W + b.
func (l *Linear) Forward(x mat.Matrix) *mat.Dense {
	rows, _ := x.Dims()
	out := mat.NewDense(rows, l.OutFeatures, nil)
	out.Mul(x, l.Weight.Value())

	if l.Bias != nil {
		b := l.Bias.Value().RawRowView(0)
		for i := 0; i < rows; i++ {
			row := out.RawRowView(i)
			for j := range row {
				row[j] += b[j]
			}
		}
	}
	return out
}

// Backward accumulates parameter gradients for the Forward call on x and
// returns the gradient with respect to x.
func (l *Linear) Backward(x mat.Matrix, gradOut *mat.Dense) *mat.Dense {
	var dw mat.Dense
	dw.Mul(x.T(), gradOut)
	l.Weight.Grad().Add(l.Weight.Grad(), &dw)

	if l.Bias != nil {
		db := l.Bias.Grad().RawRowView(0)
		rows, _ := gradOut.Dims()
		for i := 0; i < rows; i++ {
			for j, v := range gradOut.RawRowView(i) {
				db[j] += v
			}
		}
	}

	rows, _ := x.Dims()
	dx := mat.NewDense(rows, l.InFeatures, nil)
	dx.Mul(gradOut, l.Weight.Value().T())
	return dx
}

// Parameters returns the weight and, if present, the bias.
func (l *Linear) Parameters() []*Parameter {
	if l.Bias == nil {
		return []*Parameter{l.Weight}
	}
	return []*Parameter{l.Weight, l.Bias}
}
