package nn

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	gradStep = 1e-5
	gradTol  = 1e-6
)

func testSource() rand.Source {
	return rand.NewSource(42)
}

func randomDense(rows, cols int, src rand.Source) *mat.Dense {
	return Normal(rows, cols, 1, src)
}

// weightedSum is the scalar probe loss sum(out ⊙ probe); its gradient with
// respect to out is probe.
func weightedSum(out, probe *mat.Dense) float64 {
	return floats.Dot(out.RawMatrix().Data, probe.RawMatrix().Data)
}

// numericGrad estimates dloss/dm by central differences, perturbing m in place.
func numericGrad(m *mat.Dense, loss func() float64) *mat.Dense {
	rows, cols := m.Dims()
	g := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			orig := m.At(i, j)
			m.Set(i, j, orig+gradStep)
			plus := loss()
			m.Set(i, j, orig-gradStep)
			minus := loss()
			m.Set(i, j, orig)
			g.Set(i, j, (plus-minus)/(2*gradStep))
		}
	}
	return g
}

func requireClose(t *testing.T, want, got *mat.Dense, msg string) {
	t.Helper()
	require.True(t, mat.EqualApprox(want, got, gradTol), "%s\nwant %v\ngot  %v", msg,
		mat.Formatted(want, mat.Squeeze()), mat.Formatted(got, mat.Squeeze()))
}
