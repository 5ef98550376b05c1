package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/countvec/pkg/countvec/internalerr"
	"github.com/cognicore/countvec/pkg/countvec/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu      sync.RWMutex
	vocabs  map[string][]string
	corpora map[string][]int
	models  map[string]store.Model
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		vocabs:  make(map[string][]string),
		corpora: make(map[string][]int),
		models:  make(map[string]store.Model),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// PutVocabulary replaces the vocabulary stored under name.
func (s *Store) PutVocabulary(ctx context.Context, name string, words []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vocabs[name] = append([]string(nil), words...)
	return nil
}

// GetVocabulary returns the vocabulary stored under name.
func (s *Store) GetVocabulary(ctx context.Context, name string) ([]string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	words, ok := s.vocabs[name]
	if !ok || len(words) == 0 {
		return nil, false, nil
	}
	return append([]string(nil), words...), true, nil
}

// PutCorpus replaces the corpus stored under name.
func (s *Store) PutCorpus(ctx context.Context, name string, ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corpora[name] = append([]int(nil), ids...)
	return nil
}

// GetCorpus returns the corpus stored under name.
func (s *Store) GetCorpus(ctx context.Context, name string) ([]int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids, ok := s.corpora[name]
	if !ok {
		return nil, false, nil
	}
	return append([]int(nil), ids...), true, nil
}

// PutModel inserts or replaces a model keyed by ID.
func (s *Store) PutModel(ctx context.Context, m store.Model) error {
	if m.ID == "" {
		return fmt.Errorf("memstore: model without id: %w", internalerr.ErrInvalidInput)
	}
	if len(m.Words) != len(m.Vectors) {
		return fmt.Errorf("memstore: %d words for %d vectors: %w", len(m.Words), len(m.Vectors), internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[m.ID] = store.CopyModel(m)
	return nil
}

// GetModel returns a model by ID.
func (s *Store) GetModel(ctx context.Context, id string) (store.Model, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[id]
	if !ok {
		return store.Model{}, false, nil
	}
	return store.CopyModel(m), true, nil
}

// LatestModel returns the model with the greatest ID.
func (s *Store) LatestModel(ctx context.Context) (store.Model, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest string
	for id := range s.models {
		if id > latest {
			latest = id
		}
	}
	if latest == "" {
		return store.Model{}, false, nil
	}
	return store.CopyModel(s.models[latest]), true, nil
}

// ListModels returns model summaries, newest first.
func (s *Store) ListModels(ctx context.Context) ([]store.ModelInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.ModelInfo, 0, len(s.models))
	for _, m := range s.models {
		out = append(out, m.ModelInfo)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID > out[j].ID
	})
	return out, nil
}
