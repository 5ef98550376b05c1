package pmi

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/countvec/pkg/countvec/cooc"
	"github.com/cognicore/countvec/pkg/countvec/internalerr"
)

// DefaultEpsilon keeps log2 finite for zero counts.
const DefaultEpsilon = 1e-8

// ProgressFunc receives the number of processed cells and the total.
type ProgressFunc func(done, total int)

// Calculator handles PMI (Pointwise Mutual Information) calculations
type Calculator struct {
	epsilon  float64
	progress ProgressFunc
}

// NewCalculator creates a new PMI calculator with the given epsilon.
// A non-positive epsilon falls back to DefaultEpsilon.
func NewCalculator(epsilon float64) *Calculator {
	if epsilon <= 0 || math.IsNaN(epsilon) {
		epsilon = DefaultEpsilon
	}
	return &Calculator{epsilon: epsilon}
}

// Epsilon returns the smoothing constant in use.
func (c *Calculator) Epsilon() float64 {
	return c.epsilon
}

// WithProgress returns a copy of the calculator that reports progress about
// once per percent of processed cells.
func (c *Calculator) WithProgress(fn ProgressFunc) *Calculator {
	cp := *c
	cp.progress = fn
	return &cp
}

// PMI calculates the pointwise mutual information of one cell
//
// PMI(i,j) = log2(C_ij * N / (S_i * S_j) + ε)
//
// Where:
//   - C_ij = co-occurrence count of the pair
//   - S_i, S_j = marginal counts of each word
//   - N = total co-occurrence mass
//
// A zero marginal product yields 0 rather than NaN.
func (c *Calculator) PMI(cij, n, si, sj int64) float64 {
	denominator := float64(si) * float64(sj)
	if denominator == 0 {
		return 0
	}
	return math.Log2(float64(cij)*float64(n)/denominator + c.epsilon)
}

// PPMI is PMI floored at zero.
func (c *Calculator) PPMI(cij, n, si, sj int64) float64 {
	v := c.PMI(cij, n, si, sj)
	if v < 0 {
		return 0
	}
	return v
}

// Matrix turns a co-occurrence matrix into its PPMI matrix. The result has
// the same shape as counts and no negative entries.
func (c *Calculator) Matrix(counts *cooc.Matrix) (*mat.Dense, error) {
	rows, cols := counts.Dims()
	if rows == 0 {
		return nil, fmt.Errorf("pmi: empty co-occurrence matrix: %w", internalerr.ErrInvalidInput)
	}

	n := counts.Sum()
	s := counts.ColSums()
	out := mat.NewDense(rows, cols, nil)

	total := rows * cols
	step := total / 100
	if step < 1 {
		step = 1
	}

	done := 0
	for i := 0; i < rows; i++ {
		row := counts.Row(i)
		for j := 0; j < cols; j++ {
			v := c.PPMI(row[j], n, s[i], s[j])
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("pmi: non-finite value at (%d, %d): %w", i, j, internalerr.ErrNumerical)
			}
			out.Set(i, j, v)

			if c.progress != nil {
				done++
				if done%step == 0 || done == total {
					c.progress(done, total)
				}
			}
		}
	}
	return out, nil
}

// PPMI computes the PPMI matrix of counts with DefaultEpsilon.
func PPMI(counts *cooc.Matrix) (*mat.Dense, error) {
	return NewCalculator(DefaultEpsilon).Matrix(counts)
}
