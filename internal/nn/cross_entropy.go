package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// CrossEntropyLoss computes softmax cross-entropy over rows of logits.
//
// Mathematical Formulation:
//
//	Loss_i = -log_softmax(logits_i)[target_i]
//
// Gradient (Backward):
//
//	∂L/∂logits_i = softmax(logits_i) - one_hot(target_i)
//
// Rows whose target equals IgnoreIndex contribute neither loss nor gradient.
type CrossEntropyLoss struct {
	IgnoreIndex int32
}

// NewCrossEntropyLoss creates a loss that skips targets equal to ignoreIndex.
func NewCrossEntropyLoss(ignoreIndex int32) *CrossEntropyLoss {
	return &CrossEntropyLoss{IgnoreIndex: ignoreIndex}
}

// Counted returns how many targets are not ignored.
func (c *CrossEntropyLoss) Counted(targets []int32) int {
	n := 0
	for _, t := range targets {
		if t != c.IgnoreIndex {
			n++
		}
	}
	return n
}

// Forward returns the summed loss over counted rows and the gradient of that
// sum with respect to logits.
//
// logits has shape [seq, classes]; targets has length seq.
func (c *CrossEntropyLoss) Forward(logits *mat.Dense, targets []int32) (float64, *mat.Dense, error) {
	rows, classes := logits.Dims()
	if rows != len(targets) {
		return 0, nil, fmt.Errorf("cross entropy: %d logit rows, %d targets", rows, len(targets))
	}

	grad := mat.NewDense(rows, classes, nil)
	var sum float64
	for i, t := range targets {
		if t == c.IgnoreIndex {
			continue
		}
		if t < 0 || int(t) >= classes {
			return 0, nil, fmt.Errorf("cross entropy: target %d out of range [0, %d)", t, classes)
		}

		row := logits.RawRowView(i)
		lse := floats.LogSumExp(row)
		sum += lse - row[t]

		g := grad.RawRowView(i)
		for j, v := range row {
			g[j] = math.Exp(v - lse)
		}
		g[t]--
	}
	return sum, grad, nil
}

// Softmax returns softmax(row) as a new slice.
func Softmax(row []float64) []float64 {
	out := make([]float64, len(row))
	lse := floats.LogSumExp(row)
	for j, v := range row {
		out[j] = math.Exp(v - lse)
	}
	return out
}
