package ingest

import (
	"strings"
)

// Tokenizer handles text tokenization and normalization
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer creates a new tokenizer with the given stopword list.
// An empty list keeps every token.
func NewTokenizer(stopwords []string) *Tokenizer {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: stops}
}

// Tokenize lower-cases text, splits every period off as its own token and
// splits on whitespace. Stopwords are dropped.
func (t *Tokenizer) Tokenize(text string) []string {
	text = strings.ToLower(text)
	text = strings.ReplaceAll(text, ".", " .")

	fields := strings.Fields(text)
	if len(t.stopwords) == 0 {
		return fields
	}

	tokens := fields[:0]
	for _, f := range fields {
		if t.isStopword(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Preprocess tokenizes text and indexes it, returning the corpus and its
// vocabulary. Empty input yields an empty corpus and vocabulary.
func (t *Tokenizer) Preprocess(text string) (Corpus, *Vocabulary) {
	words := t.Tokenize(text)

	vocab := &Vocabulary{ids: make(map[string]int)}
	corpus := make(Corpus, len(words))
	for i, w := range words {
		corpus[i] = vocab.add(w)
	}
	return corpus, vocab
}

// Preprocess runs a tokenizer without stopwords over text.
func Preprocess(text string) (Corpus, *Vocabulary) {
	return NewTokenizer(nil).Preprocess(text)
}

func (t *Tokenizer) isStopword(word string) bool {
	_, ok := t.stopwords[word]
	return ok
}

// AddStopword adds a word to the stopword list
func (t *Tokenizer) AddStopword(word string) {
	t.stopwords[strings.ToLower(word)] = struct{}{}
}

// RemoveStopword removes a word from the stopword list
func (t *Tokenizer) RemoveStopword(word string) {
	delete(t.stopwords, strings.ToLower(word))
}
