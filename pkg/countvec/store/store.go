package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store persists tokenized corpora, vocabularies and built word-vector
// models. It is the cache behind the dataset loader and the CLI; the numeric
// pipeline never touches it.
type Store interface {
	Close() error

	// Vocabularies, words ordered by ID
	PutVocabulary(ctx context.Context, name string, words []string) error
	GetVocabulary(ctx context.Context, name string) ([]string, bool, error)

	// Tokenized corpora
	PutCorpus(ctx context.Context, name string, ids []int) error
	GetCorpus(ctx context.Context, name string) ([]int, bool, error)

	// Models
	PutModel(ctx context.Context, m Model) error
	GetModel(ctx context.Context, id string) (Model, bool, error)
	LatestModel(ctx context.Context) (Model, bool, error)
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// ModelInfo describes a stored model without its vectors
type ModelInfo struct {
	ID          string
	Corpus      string
	WindowSize  int
	WordvecSize int
	Eps         float64 // cosine stabilizer the model was built with
	CreatedAt   time.Time
}

// Model is a stored word-vector model. Vectors[i] belongs to Words[i].
type Model struct {
	ModelInfo
	Words    []string
	Singular []float64
	Vectors  [][]float64
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewModelID returns a ULID for t. IDs sort by creation time.
func NewModelID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// CopyModel returns a deep copy of m.
func CopyModel(m Model) Model {
	out := Model{ModelInfo: m.ModelInfo}
	out.Words = append([]string(nil), m.Words...)
	out.Singular = append([]float64(nil), m.Singular...)
	out.Vectors = make([][]float64, len(m.Vectors))
	for i, v := range m.Vectors {
		out.Vectors[i] = append([]float64(nil), v...)
	}
	return out
}
