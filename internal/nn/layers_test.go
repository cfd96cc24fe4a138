package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestParameter(t *testing.T) {
	p := NewParameter("w", mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6}))

	assert.Equal(t, "w", p.Name())
	assert.Equal(t, 6, p.NumElements())
	r, c := p.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)

	p.Grad().Set(1, 2, 7)
	p.ZeroGrad()
	assert.Equal(t, 0.0, mat.Sum(p.Grad()))

	p.SetValue(mat.NewDense(2, 3, nil))
	assert.Equal(t, 0.0, mat.Sum(p.Value()))
}

func TestNormal_Deterministic(t *testing.T) {
	a := Normal(4, 4, DefaultInitStd, testSource())
	b := Normal(4, 4, DefaultInitStd, testSource())
	assert.True(t, mat.Equal(a, b))
	assert.NotEqual(t, 0.0, mat.Norm(a, 2))
}

func TestEmbedding_Forward(t *testing.T) {
	e := NewEmbedding("tok", 5, 3, 1, testSource())

	out, err := e.Forward([]int32{4, 0, 4})
	require.NoError(t, err)
	assert.Equal(t, e.Weight.Value().RawRowView(4), out.RawRowView(0))
	assert.Equal(t, e.Weight.Value().RawRowView(0), out.RawRowView(1))
	assert.Equal(t, out.RawRowView(0), out.RawRowView(2))

	_, err = e.Forward(nil)
	require.Error(t, err)
	_, err = e.Forward([]int32{5})
	require.Error(t, err)
	_, err = e.Forward([]int32{-1})
	require.Error(t, err)
}

func TestEmbedding_BackwardScatterAdds(t *testing.T) {
	e := NewEmbedding("tok", 4, 2, 1, testSource())
	grad := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})

	e.Backward([]int32{1, 3, 1}, grad)

	assert.Equal(t, []float64{0, 0}, e.Weight.Grad().RawRowView(0))
	assert.Equal(t, []float64{6, 8}, e.Weight.Grad().RawRowView(1))
	assert.Equal(t, []float64{3, 4}, e.Weight.Grad().RawRowView(3))
}

func TestPositions(t *testing.T) {
	assert.Equal(t, []int32{0, 1, 2}, Positions(3))
	assert.Empty(t, Positions(0))
}

func TestLinear_Gradients(t *testing.T) {
	src := testSource()
	l := NewLinear("fc", 3, 4, true, 1, src)
	l.Bias.SetValue(randomDense(1, 4, src))
	x := randomDense(5, 3, src)
	probe := randomDense(5, 4, src)

	loss := func() float64 { return weightedSum(l.Forward(x), probe) }

	dx := l.Backward(x, probe)

	requireClose(t, numericGrad(x, loss), dx, "dx")
	requireClose(t, numericGrad(l.Weight.Value(), loss), l.Weight.Grad(), "dW")
	requireClose(t, numericGrad(l.Bias.Value(), loss), l.Bias.Grad(), "db")
}

func TestLinear_NoBias(t *testing.T) {
	l := NewLinear("fc", 2, 2, false, 1, testSource())
	assert.Nil(t, l.Bias)
	assert.Len(t, l.Parameters(), 1)

	out := l.Forward(mat.NewDense(1, 2, nil))
	assert.Equal(t, 0.0, mat.Sum(out))
}

func TestLayerNorm_Forward(t *testing.T) {
	ln := NewLayerNorm("ln", 3, DefaultNormEps)
	x := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})

	out, _ := ln.Forward(x)

	for i := 0; i < 2; i++ {
		row := out.RawRowView(i)
		assert.InDelta(t, 0, row[0]+row[1]+row[2], 1e-9)
		assert.InDelta(t, -1.2247, row[0], 1e-3)
		assert.InDelta(t, 1.2247, row[2], 1e-3)
	}
}

func TestLayerNorm_Gradients(t *testing.T) {
	src := testSource()
	ln := NewLayerNorm("ln", 4, DefaultNormEps)
	ln.Gamma.SetValue(randomDense(1, 4, src))
	ln.Beta.SetValue(randomDense(1, 4, src))
	x := randomDense(3, 4, src)
	probe := randomDense(3, 4, src)

	loss := func() float64 {
		out, _ := ln.Forward(x)
		return weightedSum(out, probe)
	}

	_, c := ln.Forward(x)
	dx := ln.Backward(c, probe)

	requireClose(t, numericGrad(x, loss), dx, "dx")
	requireClose(t, numericGrad(ln.Gamma.Value(), loss), ln.Gamma.Grad(), "dgamma")
	requireClose(t, numericGrad(ln.Beta.Value(), loss), ln.Beta.Grad(), "dbeta")
}

func TestReLU(t *testing.T) {
	r := NewReLU()
	x := mat.NewDense(1, 4, []float64{-1, 0, 2, -3})

	out := r.Forward(x)
	assert.Equal(t, []float64{0, 0, 2, 0}, out.RawRowView(0))

	dx := r.Backward(out, mat.NewDense(1, 4, []float64{1, 1, 1, 1}))
	assert.Equal(t, []float64{0, 0, 1, 0}, dx.RawRowView(0))
	assert.Nil(t, r.Parameters())
}

func TestFFN_Gradients(t *testing.T) {
	src := testSource()
	f := NewFFN("ffn", 3, 6, 1, src)
	x := randomDense(4, 3, src)
	probe := randomDense(4, 3, src)

	loss := func() float64 {
		out, _ := f.Forward(x)
		return weightedSum(out, probe)
	}

	_, c := f.Forward(x)
	dx := f.Backward(c, probe)

	requireClose(t, numericGrad(x, loss), dx, "dx")
	for _, p := range f.Parameters() {
		requireClose(t, numericGrad(p.Value(), loss), p.Grad(), p.Name())
	}
}

func TestModuleHelpers(t *testing.T) {
	f := NewFFN("ffn", 2, 3, 1, testSource())
	params := f.Parameters()
	// fc1: 2*3 + 3, fc2: 3*2 + 2
	assert.Equal(t, 17, CountParameters(params))

	params[0].Grad().Set(0, 0, 1)
	ZeroGrad(params)
	assert.Equal(t, 0.0, mat.Sum(params[0].Grad()))

	var _ Module = f
	var _ Module = NewLayerNorm("ln", 2, DefaultNormEps)
}
