package ingest

import (
	"fmt"

	"github.com/cognicore/countvec/pkg/countvec/internalerr"
)

// Corpus is a tokenized text expressed as vocabulary IDs.
type Corpus []int

// Vocabulary is a bijection between words and dense IDs in [0, Len()).
// IDs follow first-seen order. A Vocabulary is not modified after it is built.
type Vocabulary struct {
	ids   map[string]int
	words []string
}

// NewVocabulary builds a vocabulary from a word sequence, assigning IDs in
// order of first appearance.
func NewVocabulary(words []string) *Vocabulary {
	v := &Vocabulary{ids: make(map[string]int)}
	for _, w := range words {
		v.add(w)
	}
	return v
}

func (v *Vocabulary) add(word string) int {
	if id, ok := v.ids[word]; ok {
		return id
	}
	id := len(v.ids)
	v.ids[word] = id
	v.words = append(v.words, word)
	return id
}

// Len returns the number of distinct words.
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.words)
}

// ID returns the ID for word.
func (v *Vocabulary) ID(word string) (int, bool) {
	if v == nil {
		return 0, false
	}
	id, ok := v.ids[word]
	return id, ok
}

// Word returns the word for id.
func (v *Vocabulary) Word(id int) (string, bool) {
	if v == nil || id < 0 || id >= len(v.words) {
		return "", false
	}
	return v.words[id], true
}

// Words returns the words ordered by ID.
func (v *Vocabulary) Words() []string {
	out := make([]string, v.Len())
	if v != nil {
		copy(out, v.words)
	}
	return out
}

// WordToID returns a copy of the word -> ID mapping.
func (v *Vocabulary) WordToID() map[string]int {
	out := make(map[string]int, v.Len())
	if v == nil {
		return out
	}
	for w, id := range v.ids {
		out[w] = id
	}
	return out
}

// IDToWord returns a copy of the ID -> word mapping.
func (v *Vocabulary) IDToWord() map[int]string {
	out := make(map[int]string, v.Len())
	if v == nil {
		return out
	}
	for id, w := range v.words {
		out[id] = w
	}
	return out
}

// Encode maps words to IDs. Words outside the vocabulary are rejected.
func (v *Vocabulary) Encode(words []string) (Corpus, error) {
	corpus := make(Corpus, len(words))
	for i, w := range words {
		id, ok := v.ID(w)
		if !ok {
			return nil, fmt.Errorf("encode %q at position %d: %w", w, i, internalerr.ErrInvalidInput)
		}
		corpus[i] = id
	}
	return corpus, nil
}

// Decode maps IDs back to words. Unknown IDs decode to the empty string.
func (v *Vocabulary) Decode(c Corpus) []string {
	out := make([]string, len(c))
	for i, id := range c {
		out[i], _ = v.Word(id)
	}
	return out
}
