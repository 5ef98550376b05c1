// Package countvec builds count-based word vectors: co-occurrence counts,
// PPMI reweighting and truncated SVD, with cosine nearest-neighbour lookup.
package countvec

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/countvec/pkg/countvec/cooc"
	"github.com/cognicore/countvec/pkg/countvec/ingest"
	"github.com/cognicore/countvec/pkg/countvec/internalerr"
	"github.com/cognicore/countvec/pkg/countvec/pmi"
	"github.com/cognicore/countvec/pkg/countvec/similarity"
	"github.com/cognicore/countvec/pkg/countvec/svd"
)

// Options configures a pipeline run
type Options struct {
	WindowSize  int     // context radius on each side
	WordvecSize int     // embedding dimensionality k
	Epsilon     float64 // PPMI and cosine stabilizer
	// FullSVD computes the complete SVD and keeps the first WordvecSize
	// columns. Only sensible for small vocabularies.
	FullSVD bool
	Logger  *slog.Logger
}

// DefaultOptions returns window 2, 100 dimensions and eps 1e-8.
func DefaultOptions() Options {
	return Options{
		WindowSize:  2,
		WordvecSize: 100,
		Epsilon:     pmi.DefaultEpsilon,
	}
}

// Validate checks the options against a vocabulary size.
func (o Options) Validate(vocabSize int) error {
	if o.WindowSize < 1 {
		return fmt.Errorf("window_size=%d must be >= 1: %w", o.WindowSize, internalerr.ErrInvalidConfig)
	}
	if o.WordvecSize <= 0 {
		return fmt.Errorf("wordvec_size=%d must be positive: %w", o.WordvecSize, internalerr.ErrInvalidConfig)
	}
	if o.WordvecSize > vocabSize {
		return fmt.Errorf("wordvec_size=%d exceeds vocabulary size %d: %w", o.WordvecSize, vocabSize, internalerr.ErrInvalidConfig)
	}
	if o.Epsilon < 0 {
		return fmt.Errorf("eps=%g must not be negative: %w", o.Epsilon, internalerr.ErrInvalidConfig)
	}
	return nil
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Model is the output of one pipeline run. Every field is read-only.
type Model struct {
	Vocab   *ingest.Vocabulary
	Counts  *cooc.Matrix
	PPMI    *mat.Dense
	SVD     *svd.Result
	Vectors *mat.Dense // Vocab.Len() x WordvecSize
	Options Options
}

// Build runs co-occurrence counting, PPMI and SVD over corpus. Options are
// validated before any matrix is allocated.
func Build(corpus ingest.Corpus, vocab *ingest.Vocabulary, opts Options) (*Model, error) {
	if vocab.Len() == 0 || len(corpus) == 0 {
		return nil, fmt.Errorf("build: empty corpus: %w", internalerr.ErrInvalidInput)
	}
	if err := opts.Validate(vocab.Len()); err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	log := opts.logger()
	log.Info("building word vectors",
		"corpus_size", len(corpus),
		"vocab_size", vocab.Len(),
		"window_size", opts.WindowSize,
		"wordvec_size", opts.WordvecSize)

	start := time.Now()
	counts, err := cooc.Build(corpus, vocab.Len(), opts.WindowSize)
	if err != nil {
		return nil, err
	}
	log.Info("counted co-occurrence", "total", counts.Sum(), "elapsed", time.Since(start))

	start = time.Now()
	lastPct := -1
	calc := pmi.NewCalculator(opts.Epsilon).WithProgress(func(done, total int) {
		pct := 100 * done / total
		if pct != lastPct {
			lastPct = pct
			log.Debug("ppmi progress", "percent", pct)
		}
	})
	w, err := calc.Matrix(counts)
	if err != nil {
		return nil, err
	}
	log.Info("calculated ppmi", "elapsed", time.Since(start))

	start = time.Now()
	var res *svd.Result
	if opts.FullSVD {
		res, err = svd.Full(w)
	} else {
		res, err = svd.Truncated(w, opts.WordvecSize)
	}
	if err != nil {
		return nil, err
	}
	log.Info("calculated svd", "full", opts.FullSVD, "rank", res.Rank(), "elapsed", time.Since(start))

	return &Model{
		Vocab:   vocab,
		Counts:  counts,
		PPMI:    w,
		SVD:     res,
		Vectors: res.Vectors(opts.WordvecSize),
		Options: opts,
	}, nil
}

// FromText tokenizes text and builds a model from it.
func FromText(text string, opts Options) (*Model, error) {
	corpus, vocab := ingest.Preprocess(text)
	return Build(corpus, vocab, opts)
}

func (m *Model) searcher() (*similarity.Searcher, error) {
	return similarity.NewSearcher(m.Vocab, m.Vectors, m.Options.Epsilon)
}

// MostSimilar returns the topN nearest words to query in the vector space.
func (m *Model) MostSimilar(query string, topN int) ([]similarity.Neighbor, error) {
	s, err := m.searcher()
	if err != nil {
		return nil, err
	}
	return s.MostSimilar(query, topN)
}

// Report writes the nearest neighbours of each query to w.
func (m *Model) Report(w io.Writer, queries []string, topN int) error {
	s, err := m.searcher()
	if err != nil {
		return err
	}
	return s.Report(w, queries, topN)
}

// Vector returns a copy of the vector for word.
func (m *Model) Vector(word string) ([]float64, bool) {
	id, ok := m.Vocab.ID(word)
	if !ok {
		return nil, false
	}
	return mat.Row(nil, id, m.Vectors), true
}
