// Package cooc counts word co-occurrence within a symmetric context window.
package cooc

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/countvec/pkg/countvec/ingest"
	"github.com/cognicore/countvec/pkg/countvec/internalerr"
)

// Matrix is a dense n x n co-occurrence count matrix stored in row-major
// order: the (i*n + j)-th element of data is C[i][j].
type Matrix struct {
	n    int
	data []int64
}

// Build counts, for every corpus position and every offset in
// [1, windowSize], the word to the left and to the right of it. Window
// positions outside the corpus are skipped. windowSize == 0 yields the
// all-zero matrix.
func Build(corpus ingest.Corpus, vocabSize, windowSize int) (*Matrix, error) {
	if vocabSize < 0 {
		return nil, fmt.Errorf("cooc: vocab size %d: %w", vocabSize, internalerr.ErrInvalidConfig)
	}
	if windowSize < 0 {
		return nil, fmt.Errorf("cooc: window size %d must not be negative: %w", windowSize, internalerr.ErrInvalidConfig)
	}
	for idx, id := range corpus {
		if id < 0 || id >= vocabSize {
			return nil, fmt.Errorf("cooc: word id %d at position %d outside [0, %d): %w",
				id, idx, vocabSize, internalerr.ErrInvalidInput)
		}
	}

	m := &Matrix{n: vocabSize, data: make([]int64, vocabSize*vocabSize)}
	size := len(corpus)
	for idx, w := range corpus {
		row := m.data[w*m.n : (w+1)*m.n]
		for i := 1; i <= windowSize; i++ {
			if left := idx - i; left >= 0 {
				row[corpus[left]]++
			}
			if right := idx + i; right < size {
				row[corpus[right]]++
			}
		}
	}
	return m, nil
}

// Dims returns the number of rows and columns.
func (m *Matrix) Dims() (int, int) {
	return m.n, m.n
}

// At returns C[i][j]. It panics when i or j is out of range.
func (m *Matrix) At(i, j int) int64 {
	if i < 0 || i >= m.n || j < 0 || j >= m.n {
		panic(mat.ErrIndexOutOfRange)
	}
	return m.data[i*m.n+j]
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []int64 {
	if i < 0 || i >= m.n {
		panic(mat.ErrRowAccess)
	}
	out := make([]int64, m.n)
	copy(out, m.data[i*m.n:(i+1)*m.n])
	return out
}

// Sum returns the total co-occurrence mass.
func (m *Matrix) Sum() int64 {
	var total int64
	for _, v := range m.data {
		total += v
	}
	return total
}

// ColSums returns the column marginals.
func (m *Matrix) ColSums() []int64 {
	sums := make([]int64, m.n)
	for i := 0; i < m.n; i++ {
		row := m.data[i*m.n : (i+1)*m.n]
		for j, v := range row {
			sums[j] += v
		}
	}
	return sums
}

// IsSymmetric reports whether C[i][j] == C[j][i] for every cell.
func (m *Matrix) IsSymmetric() bool {
	for i := 0; i < m.n; i++ {
		for j := i + 1; j < m.n; j++ {
			if m.data[i*m.n+j] != m.data[j*m.n+i] {
				return false
			}
		}
	}
	return true
}

// Dense converts the counts to a float64 gonum matrix. An empty matrix
// returns nil since gonum does not allow zero-sized dense matrices.
func (m *Matrix) Dense() *mat.Dense {
	if m.n == 0 {
		return nil
	}
	data := make([]float64, len(m.data))
	for i, v := range m.data {
		data[i] = float64(v)
	}
	return mat.NewDense(m.n, m.n, data)
}
