// Package similarity ranks word vectors by cosine similarity to a query word.
package similarity

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/countvec/pkg/countvec/ingest"
	"github.com/cognicore/countvec/pkg/countvec/internalerr"
)

// DefaultEpsilon prevents division by zero for zero vectors.
const DefaultEpsilon = 1e-8

// Neighbor is a ranked word and its similarity to the query.
type Neighbor struct {
	ID    int
	Word  string
	Score float64
}

// Cosine returns x·y / (‖x‖·‖y‖ + eps).
func Cosine(x, y []float64, eps float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0
	}
	return vek.Dot(x, y) / (vek.Norm(x)*vek.Norm(y) + eps)
}

// Searcher ranks the rows of a word-vector matrix.
type Searcher struct {
	vocab   *ingest.Vocabulary
	vectors mat.Matrix
	eps     float64
}

// NewSearcher creates a searcher over vectors, whose row i is the vector of
// vocabulary word i. A non-positive eps falls back to DefaultEpsilon.
func NewSearcher(vocab *ingest.Vocabulary, vectors mat.Matrix, eps float64) (*Searcher, error) {
	if vectors == nil {
		return nil, fmt.Errorf("similarity: no vectors: %w", internalerr.ErrInvalidInput)
	}
	rows, _ := vectors.Dims()
	if rows != vocab.Len() {
		return nil, fmt.Errorf("similarity: %d vectors for %d words: %w", rows, vocab.Len(), internalerr.ErrInvalidInput)
	}
	if eps <= 0 || math.IsNaN(eps) {
		eps = DefaultEpsilon
	}
	return &Searcher{vocab: vocab, vectors: vectors, eps: eps}, nil
}

// MostSimilar returns up to topN words closest to query, most similar first.
// Equal scores are ordered by ascending ID and the query word itself is
// excluded. An unknown query yields internalerr.ErrNotFound.
func (s *Searcher) MostSimilar(query string, topN int) ([]Neighbor, error) {
	if topN < 1 {
		return nil, fmt.Errorf("similarity: top_n=%d must be positive: %w", topN, internalerr.ErrInvalidConfig)
	}
	queryID, ok := s.vocab.ID(query)
	if !ok {
		return nil, fmt.Errorf("similarity: %q: %w", query, internalerr.ErrNotFound)
	}

	queryVec := mat.Row(nil, queryID, s.vectors)
	n := s.vocab.Len()
	scores := make([]float64, n)
	row := make([]float64, len(queryVec))
	for i := 0; i < n; i++ {
		mat.Row(row, i, s.vectors)
		scores[i] = Cosine(row, queryVec, s.eps)
	}

	ids := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if i != queryID {
			ids = append(ids, i)
		}
	}
	slices.SortStableFunc(ids, func(a, b int) int {
		return compareScores(scores[a], scores[b])
	})

	if len(ids) > topN {
		ids = ids[:topN]
	}
	out := make([]Neighbor, len(ids))
	for i, id := range ids {
		word, _ := s.vocab.Word(id)
		out[i] = Neighbor{ID: id, Word: word, Score: scores[id]}
	}
	return out, nil
}

// compareScores orders higher scores first and NaN last.
func compareScores(a, b float64) int {
	switch {
	case math.IsNaN(a) && math.IsNaN(b):
		return 0
	case math.IsNaN(a):
		return 1
	case math.IsNaN(b):
		return -1
	}
	return cmp.Compare(b, a)
}

// Report writes the ranking for each query. Unknown words are reported in
// the output and do not stop the remaining queries.
func (s *Searcher) Report(w io.Writer, queries []string, topN int) error {
	for _, q := range queries {
		neighbors, err := s.MostSimilar(q, topN)
		if err != nil {
			if errors.Is(err, internalerr.ErrNotFound) {
				if _, werr := fmt.Fprintf(w, "%s is not found\n", q); werr != nil {
					return werr
				}
				continue
			}
			return err
		}

		if _, err := fmt.Fprintf(w, "\n[query] %s\n", q); err != nil {
			return err
		}
		for _, nb := range neighbors {
			if _, err := fmt.Fprintf(w, " %s: %.7g\n", nb.Word, nb.Score); err != nil {
				return err
			}
		}
	}
	return nil
}

// MostSimilar is a one-shot convenience around Searcher.
func MostSimilar(query string, vocab *ingest.Vocabulary, vectors mat.Matrix, topN int) ([]Neighbor, error) {
	s, err := NewSearcher(vocab, vectors, DefaultEpsilon)
	if err != nil {
		return nil, err
	}
	return s.MostSimilar(query, topN)
}
