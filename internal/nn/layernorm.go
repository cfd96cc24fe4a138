package nn

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultNormEps is the LayerNorm epsilon used by the dialogue model.
const DefaultNormEps = 1e-5

// LayerNorm applies Layer Normalization over each row of the input.
//
// Formula: Y = gamma * (X - mean(X)) / sqrt(var(X) + eps) + beta
//
// Where:
//   - gamma is the learnable scale parameter [1, d_model]
//   - beta is the learnable shift parameter [1, d_model]
//   - mean and variance are computed per row
type LayerNorm struct {
	Gamma   *Parameter // learnable scale [1, d_model]
	Beta    *Parameter // learnable shift [1, d_model]
	Epsilon float64
}

// LayerNormCache holds the normalized rows and inverse deviations of one
// Forward call.
type LayerNormCache struct {
	xhat *mat.Dense
	rstd []float64
}

// NewLayerNorm creates a LayerNorm with gamma=1 and beta=0.
func NewLayerNorm(name string, dim int, epsilon float64) *LayerNorm {
	ones := make([]float64, dim)
	for i := range ones {
		ones[i] = 1
	}
	return &LayerNorm{
		Gamma:   NewParameter(name+".gamma", mat.NewDense(1, dim, ones)),
		Beta:    NewParameter(name+".beta", Zeros(1, dim)),
		Epsilon: epsilon,
	}
}

// Forward normalizes every row of x.
func (l *LayerNorm) Forward(x *mat.Dense) (*mat.Dense, *LayerNormCache) {
	rows, cols := x.Dims()
	n := float64(cols)
	gamma := l.Gamma.Value().RawRowView(0)
	beta := l.Beta.Value().RawRowView(0)

	out := mat.NewDense(rows, cols, nil)
	c := &LayerNormCache{
		xhat: mat.NewDense(rows, cols, nil),
		rstd: make([]float64, rows),
	}
	for i := 0; i < rows; i++ {
		row := x.RawRowView(i)
		mean := floats.Sum(row) / n
		var variance float64
		for _, v := range row {
			d := v - mean
			variance += d * d
		}
		variance /= n
		rstd := 1 / math.Sqrt(variance+l.Epsilon)
		c.rstd[i] = rstd

		xh := c.xhat.RawRowView(i)
		y := out.RawRowView(i)
		for j, v := range row {
			xh[j] = (v - mean) * rstd
			y[j] = gamma[j]*xh[j] + beta[j]
		}
	}
	return out, c
}

// Backward accumulates gamma and beta gradients and returns dL/dx.
func (l *LayerNorm) Backward(c *LayerNormCache, gradOut *mat.Dense) *mat.Dense {
	rows, cols := gradOut.Dims()
	n := float64(cols)
	gamma := l.Gamma.Value().RawRowView(0)
	dGamma := l.Gamma.Grad().RawRowView(0)
	dBeta := l.Beta.Grad().RawRowView(0)

	dx := mat.NewDense(rows, cols, nil)
	dxhat := make([]float64, cols)
	for i := 0; i < rows; i++ {
		dy := gradOut.RawRowView(i)
		xh := c.xhat.RawRowView(i)

		var sumD, sumDX float64
		for j := range dy {
			dGamma[j] += dy[j] * xh[j]
			dBeta[j] += dy[j]
			dxhat[j] = dy[j] * gamma[j]
			sumD += dxhat[j]
			sumDX += dxhat[j] * xh[j]
		}

		out := dx.RawRowView(i)
		k := c.rstd[i] / n
		for j := range out {
			out[j] = k * (n*dxhat[j] - sumD - xh[j]*sumDX)
		}
	}
	return dx
}

// Parameters returns gamma and beta.
func (l *LayerNorm) Parameters() []*Parameter {
	return []*Parameter{l.Gamma, l.Beta}
}
