package cooc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/countvec/pkg/countvec/ingest"
	"github.com/cognicore/countvec/pkg/countvec/internalerr"
)

func sample(t *testing.T) (ingest.Corpus, *ingest.Vocabulary) {
	t.Helper()
	return ingest.Preprocess("You say goodbye and I say hello.")
}

func TestBuildSampleWindowOne(t *testing.T) {
	corpus, vocab := sample(t)

	c, err := Build(corpus, vocab.Len(), 1)
	require.NoError(t, err)

	want := [][]int64{
		{0, 1, 0, 0, 0, 0, 0},
		{1, 0, 1, 0, 1, 1, 0},
		{0, 1, 0, 1, 0, 0, 0},
		{0, 0, 1, 0, 1, 0, 0},
		{0, 1, 0, 1, 0, 0, 0},
		{0, 1, 0, 0, 0, 0, 1},
		{0, 0, 0, 0, 0, 1, 0},
	}
	for i, row := range want {
		assert.Equal(t, row, c.Row(i), "row %d", i)
	}

	you, _ := vocab.ID("you")
	say, _ := vocab.ID("say")
	assert.Equal(t, int64(1), c.At(you, say))
	assert.Equal(t, int64(14), c.Sum())
	assert.Equal(t, []int64{1, 4, 2, 2, 2, 2, 1}, c.ColSums())
}

func TestBuildWindowTwo(t *testing.T) {
	// a b c: a sees b (1) and c (2); b sees a and c; c sees b and a.
	c, err := Build(ingest.Corpus{0, 1, 2}, 3, 2)
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 1, 1}, c.Row(0))
	assert.Equal(t, []int64{1, 0, 1}, c.Row(1))
	assert.Equal(t, []int64{1, 1, 0}, c.Row(2))
}

func TestBuildWindowLargerThanCorpus(t *testing.T) {
	c, err := Build(ingest.Corpus{0, 1}, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.Sum())
}

func TestBuildZeroWindow(t *testing.T) {
	corpus, vocab := sample(t)

	c, err := Build(corpus, vocab.Len(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), c.Sum())
}

func TestBuildRejectsBadInput(t *testing.T) {
	_, err := Build(ingest.Corpus{0, 1}, 2, -1)
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)

	_, err = Build(ingest.Corpus{0, 2}, 2, 1)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)

	_, err = Build(ingest.Corpus{-1}, 2, 1)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
}

func TestBuildEmptyCorpus(t *testing.T) {
	c, err := Build(nil, 0, 2)
	require.NoError(t, err)

	r, cols := c.Dims()
	assert.Zero(t, r)
	assert.Zero(t, cols)
	assert.Nil(t, c.Dense())
}

func TestBuildSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		vocabSize := 1 + rng.Intn(12)
		corpus := make(ingest.Corpus, rng.Intn(200))
		for i := range corpus {
			corpus[i] = rng.Intn(vocabSize)
		}
		window := 1 + rng.Intn(4)

		c, err := Build(corpus, vocabSize, window)
		require.NoError(t, err)
		assert.True(t, c.IsSymmetric(), "trial %d", trial)
	}
}

func TestBuildDoesNotRetainCorpus(t *testing.T) {
	corpus := ingest.Corpus{0, 1, 0}
	c, err := Build(corpus, 2, 1)
	require.NoError(t, err)

	corpus[1] = 0
	assert.Equal(t, []int64{0, 2}, c.Row(0))
}

func TestDenseConversion(t *testing.T) {
	corpus, vocab := sample(t)
	c, err := Build(corpus, vocab.Len(), 1)
	require.NoError(t, err)

	d := c.Dense()
	r, cols := d.Dims()
	require.Equal(t, 7, r)
	require.Equal(t, 7, cols)
	for i := 0; i < r; i++ {
		for j := 0; j < cols; j++ {
			assert.Equal(t, float64(c.At(i, j)), d.At(i, j))
		}
	}
}

func TestAtPanicsOutOfRange(t *testing.T) {
	c, err := Build(ingest.Corpus{0}, 1, 1)
	require.NoError(t, err)

	assert.Panics(t, func() { c.At(1, 0) })
	assert.Panics(t, func() { c.Row(-1) })
}
