package svd

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/countvec/pkg/countvec/cooc"
	"github.com/cognicore/countvec/pkg/countvec/ingest"
	"github.com/cognicore/countvec/pkg/countvec/internalerr"
	"github.com/cognicore/countvec/pkg/countvec/pmi"
)

func samplePPMI(t *testing.T) *mat.Dense {
	t.Helper()
	corpus, vocab := ingest.Preprocess("You say goodbye and I say hello.")
	c, err := cooc.Build(corpus, vocab.Len(), 1)
	require.NoError(t, err)
	w, err := pmi.PPMI(c)
	require.NoError(t, err)
	return w
}

func randomPPMI(t *testing.T, seed int64, vocabSize int) *mat.Dense {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	corpus := make(ingest.Corpus, 40*vocabSize)
	for i := range corpus {
		corpus[i] = rng.Intn(vocabSize)
	}
	c, err := cooc.Build(corpus, vocabSize, 2)
	require.NoError(t, err)
	w, err := pmi.PPMI(c)
	require.NoError(t, err)
	return w
}

func TestTruncatedShapes(t *testing.T) {
	w := samplePPMI(t)

	res, err := Truncated(w, 3)
	require.NoError(t, err)

	assert.Len(t, res.S, 3)
	assert.Equal(t, 3, res.Rank())
	r, c := res.U.Dims()
	assert.Equal(t, 7, r)
	assert.Equal(t, 3, c)
	r, c = res.V.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 7, c)
}

func TestTruncatedDescendingNonNegative(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		w := randomPPMI(t, seed, 15)
		res, err := Truncated(w, 10)
		require.NoError(t, err)

		assert.True(t, sort.SliceIsSorted(res.S, func(i, j int) bool { return res.S[i] > res.S[j] }),
			"seed %d: %v", seed, res.S)
		for _, s := range res.S {
			assert.GreaterOrEqual(t, s, 0.0)
		}
	}
}

func TestTruncatedMatchesFullSVD(t *testing.T) {
	w := samplePPMI(t)
	n, _ := w.Dims()

	trunc, err := Truncated(w, n)
	require.NoError(t, err)
	full, err := Full(w)
	require.NoError(t, err)

	require.Len(t, full.S, n)
	assert.True(t, floats.EqualApprox(trunc.S, full.S, 1e-6), "truncated %v, full %v", trunc.S, full.S)
}

func TestTruncatedTopKMatchesFullPrefix(t *testing.T) {
	w := randomPPMI(t, 3, 20)

	trunc, err := Truncated(w, 5)
	require.NoError(t, err)
	full, err := Full(w)
	require.NoError(t, err)

	assert.True(t, floats.EqualApprox(trunc.S, full.S[:5], 1e-8), "truncated %v, full %v", trunc.S, full.S[:5])
}

func TestTruncatedLeftVectorsOrthonormal(t *testing.T) {
	w := randomPPMI(t, 5, 12)

	res, err := Truncated(w, 6)
	require.NoError(t, err)

	var gram mat.Dense
	gram.Mul(res.U.T(), res.U)
	assert.True(t, mat.EqualApprox(&gram, identity(6), 1e-9))
}

func TestTruncatedFullRankReconstructs(t *testing.T) {
	w := randomPPMI(t, 9, 10)

	res, err := Truncated(w, 10)
	require.NoError(t, err)
	assert.Less(t, res.Residual(w), 1e-6)
}

func TestTruncatedResidualShrinks(t *testing.T) {
	w := randomPPMI(t, 13, 12)
	n, _ := w.Dims()

	prev := math.Inf(1)
	for k := 1; k <= n; k++ {
		res, err := Truncated(w, k)
		require.NoError(t, err)

		residual := res.Residual(w)
		assert.LessOrEqual(t, residual, prev+1e-9, "k=%d", k)
		prev = residual
	}
}

func TestTruncatedSignNormalized(t *testing.T) {
	w := randomPPMI(t, 21, 10)

	res, err := Truncated(w, 4)
	require.NoError(t, err)

	rows, cols := res.U.Dims()
	for c := 0; c < cols; c++ {
		best := 0.0
		for r := 0; r < rows; r++ {
			if v := res.U.At(r, c); math.Abs(v) > math.Abs(best) {
				best = v
			}
		}
		assert.Greater(t, best, 0.0, "column %d", c)
	}
}

func TestFullSignNormalizedAndReconstructs(t *testing.T) {
	w := randomPPMI(t, 21, 10)

	res, err := Full(w)
	require.NoError(t, err)

	rows, cols := res.U.Dims()
	for c := 0; c < cols; c++ {
		best := 0.0
		for r := 0; r < rows; r++ {
			if v := res.U.At(r, c); math.Abs(v) > math.Abs(best) {
				best = v
			}
		}
		assert.Greater(t, best, 0.0, "column %d", c)
	}
	assert.Less(t, res.Residual(w), 1e-6)

	trunc, err := Truncated(w, 3)
	require.NoError(t, err)
	for c := 0; c < 3; c++ {
		for r := 0; r < rows; r++ {
			assert.InDelta(t, trunc.U.At(r, c), res.U.At(r, c), 1e-6, "u[%d][%d]", r, c)
		}
	}
}

func TestTruncatedZeroMatrix(t *testing.T) {
	w := mat.NewDense(3, 3, nil)

	res, err := Truncated(w, 2)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0}, res.S)
	r, c := res.V.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.Zero(t, res.V.At(i, j))
		}
	}
}

func TestTruncatedRankDeficientHasNoNaN(t *testing.T) {
	// Two identical rows: rank 1.
	w := mat.NewDense(3, 3, []float64{
		1, 2, 0,
		1, 2, 0,
		0, 0, 0,
	})

	res, err := Truncated(w, 3)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(10), res.S[0], 1e-9)
	for _, s := range res.S[1:] {
		assert.InDelta(t, 0, s, 1e-6)
	}
	assert.Less(t, res.Residual(w), 1e-6)
}

func TestTruncatedRejectsBadK(t *testing.T) {
	w := samplePPMI(t)

	for _, k := range []int{0, -1, 8} {
		_, err := Truncated(w, k)
		assert.ErrorIs(t, err, internalerr.ErrInvalidConfig, "k=%d", k)
	}
}

func TestTruncatedRejectsNonFinite(t *testing.T) {
	w := mat.NewDense(2, 2, []float64{1, math.NaN(), 0, 1})

	_, err := Truncated(w, 1)
	assert.ErrorIs(t, err, internalerr.ErrNumerical)

	_, err = Full(w)
	assert.ErrorIs(t, err, internalerr.ErrNumerical)
}

func TestTruncatedRectangular(t *testing.T) {
	w := mat.NewDense(2, 4, []float64{
		3, 0, 1, 0,
		0, 2, 0, 1,
	})

	res, err := Truncated(w, 2)
	require.NoError(t, err)
	r, c := res.V.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 4, c)
	assert.Less(t, res.Residual(w), 1e-9)
}

func TestVectors(t *testing.T) {
	w := samplePPMI(t)
	res, err := Full(w)
	require.NoError(t, err)

	vecs := res.Vectors(2)
	r, c := vecs.Dims()
	assert.Equal(t, 7, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, res.U.At(3, 1), vecs.At(3, 1))

	// Out-of-range dims fall back to the full rank.
	_, c = res.Vectors(0).Dims()
	assert.Equal(t, 7, c)
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
