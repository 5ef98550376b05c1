package countvec

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/countvec/pkg/countvec/ingest"
	"github.com/cognicore/countvec/pkg/countvec/internalerr"
	"github.com/cognicore/countvec/pkg/countvec/pmi"
	"github.com/cognicore/countvec/pkg/countvec/similarity"
	"github.com/cognicore/countvec/pkg/countvec/store"
)

// Record converts the model into its stored form under a fresh ID.
// Counts and the PPMI matrix are not kept.
func (m *Model) Record(corpus string, created time.Time) store.Model {
	rows, dim := m.Vectors.Dims()
	vectors := make([][]float64, rows)
	for i := range vectors {
		vectors[i] = mat.Row(nil, i, m.Vectors)
	}
	eps := m.Options.Epsilon
	if eps <= 0 {
		eps = pmi.DefaultEpsilon
	}
	singular := m.SVD.S
	if len(singular) > dim {
		singular = singular[:dim]
	}

	return store.Model{
		ModelInfo: store.ModelInfo{
			ID:          store.NewModelID(created),
			Corpus:      corpus,
			WindowSize:  m.Options.WindowSize,
			WordvecSize: dim,
			Eps:         eps,
			CreatedAt:   created,
		},
		Words:    m.Vocab.Words(),
		Singular: append([]float64(nil), singular...),
		Vectors:  vectors,
	}
}

// Searcher rebuilds a similarity searcher from a stored model, using the eps
// the model was built with.
func Searcher(rec store.Model) (*similarity.Searcher, error) {
	if len(rec.Words) == 0 {
		return nil, fmt.Errorf("model %s: no words: %w", rec.ID, internalerr.ErrInvalidInput)
	}
	if len(rec.Words) != len(rec.Vectors) {
		return nil, fmt.Errorf("model %s: %d words for %d vectors: %w", rec.ID, len(rec.Words), len(rec.Vectors), internalerr.ErrInvalidInput)
	}

	dim := len(rec.Vectors[0])
	data := make([]float64, 0, len(rec.Vectors)*dim)
	for i, v := range rec.Vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("model %s: vector %d has %d dimensions, want %d: %w", rec.ID, i, len(v), dim, internalerr.ErrInvalidInput)
		}
		data = append(data, v...)
	}
	if dim == 0 {
		return nil, fmt.Errorf("model %s: empty vectors: %w", rec.ID, internalerr.ErrInvalidInput)
	}

	vocab := ingest.NewVocabulary(rec.Words)
	if vocab.Len() != len(rec.Words) {
		return nil, fmt.Errorf("model %s: duplicate words: %w", rec.ID, internalerr.ErrInvalidInput)
	}
	return similarity.NewSearcher(vocab, mat.NewDense(len(rec.Vectors), dim, data), rec.Eps)
}
