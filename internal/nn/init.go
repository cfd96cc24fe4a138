package nn

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultInitStd is the standard deviation used for GPT-style weight init.
const DefaultInitStd = 0.02

// Normal creates a rows×cols matrix with entries drawn from N(0, std²).
//
// A nil src draws from the global x/exp/rand source.
func Normal(rows, cols int, std float64, src rand.Source) *mat.Dense {
	dist := distuv.Normal{Mu: 0, Sigma: std, Src: src}

	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = dist.Rand()
	}
	return mat.NewDense(rows, cols, data)
}

// Zeros creates a zero rows×cols matrix.
func Zeros(rows, cols int) *mat.Dense {
	return mat.NewDense(rows, cols, nil)
}
