// Package dataset loads word corpora from disk: the Penn Treebank language
// modelling splits and plain text or HTML documents.
package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognicore/countvec/pkg/countvec/ingest"
	"github.com/cognicore/countvec/pkg/countvec/internalerr"
	"github.com/cognicore/countvec/pkg/countvec/store"
)

// DefaultBaseURL hosts the ptb.{train,valid,test}.txt files.
const DefaultBaseURL = "https://raw.githubusercontent.com/tomsercu/lstm/master/data/"

// EOS marks the end of every line of a PTB file.
const EOS = "<eos>"

// Split names one of the PTB files.
type Split string

const (
	Train Split = "train"
	Valid Split = "valid"
	Test  Split = "test"
)

// ParseSplit accepts train, valid (or val) and test. An empty name is Train.
func ParseSplit(name string) (Split, error) {
	switch strings.ToLower(name) {
	case "", "train":
		return Train, nil
	case "valid", "val":
		return Valid, nil
	case "test":
		return Test, nil
	}
	return "", fmt.Errorf("dataset: unknown split %q: %w", name, internalerr.ErrInvalidConfig)
}

// FileName returns the file the split is read from.
func (s Split) FileName() string {
	return "ptb." + string(s) + ".txt"
}

// PTB loads Penn Treebank splits from Dir, downloading missing files from
// BaseURL. The vocabulary is always built from the train split so that every
// split shares one ID space.
type PTB struct {
	Dir     string
	BaseURL string       // empty disables downloads
	Client  *http.Client // nil means http.DefaultClient
	Store   store.Store  // optional cache for vocabulary and corpora
	Logger  *slog.Logger
}

// Load returns the corpus of split encoded with the train vocabulary.
func (p *PTB) Load(ctx context.Context, split Split) (ingest.Corpus, *ingest.Vocabulary, error) {
	vocab, trainWords, err := p.vocabulary(ctx)
	if err != nil {
		return nil, nil, err
	}

	key := p.cacheKey(string(split))
	if p.Store != nil {
		ids, ok, err := p.Store.GetCorpus(ctx, key)
		if err != nil {
			return nil, nil, fmt.Errorf("dataset: read cached %s corpus: %w", split, err)
		}
		if ok {
			p.logger().Debug("loaded cached corpus", "split", string(split), "tokens", len(ids))
			return ingest.Corpus(ids), vocab, nil
		}
	}

	words := trainWords
	if split != Train || words == nil {
		if words, err = p.words(ctx, split); err != nil {
			return nil, nil, err
		}
	}
	corpus, err := vocab.Encode(words)
	if err != nil {
		return nil, nil, fmt.Errorf("dataset: encode %s: %w", split.FileName(), err)
	}

	if p.Store != nil {
		if err := p.Store.PutCorpus(ctx, key, corpus); err != nil {
			return nil, nil, fmt.Errorf("dataset: cache %s corpus: %w", split, err)
		}
	}
	p.logger().Info("loaded corpus", "split", string(split), "tokens", len(corpus), "vocab_size", vocab.Len())
	return corpus, vocab, nil
}

// Vocabulary returns the vocabulary of the train split, from the store when
// it has been cached before.
func (p *PTB) Vocabulary(ctx context.Context) (*ingest.Vocabulary, error) {
	vocab, _, err := p.vocabulary(ctx)
	return vocab, err
}

// vocabulary also returns the train words when it had to read them.
func (p *PTB) vocabulary(ctx context.Context) (*ingest.Vocabulary, []string, error) {
	key := p.cacheKey("vocab")
	if p.Store != nil {
		words, ok, err := p.Store.GetVocabulary(ctx, key)
		if err != nil {
			return nil, nil, fmt.Errorf("dataset: read cached vocabulary: %w", err)
		}
		if ok {
			return ingest.NewVocabulary(words), nil, nil
		}
	}

	words, err := p.words(ctx, Train)
	if err != nil {
		return nil, nil, err
	}
	vocab := ingest.NewVocabulary(words)

	if p.Store != nil {
		if err := p.Store.PutVocabulary(ctx, key, vocab.Words()); err != nil {
			return nil, nil, fmt.Errorf("dataset: cache vocabulary: %w", err)
		}
	}
	return vocab, words, nil
}

// cacheKey scopes store entries to the dataset directory.
func (p *PTB) cacheKey(name string) string {
	dir, err := filepath.Abs(p.Dir)
	if err != nil {
		dir = filepath.Clean(p.Dir)
	}
	return "ptb:" + dir + ":" + name
}

func (p *PTB) words(ctx context.Context, split Split) ([]string, error) {
	path, err := p.ensure(ctx, split)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()

	words, err := Words(f)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	p.logger().Debug("read split", "file", path, "tokens", len(words))
	return words, nil
}

// ensure returns the local path of split, downloading it first if needed.
func (p *PTB) ensure(ctx context.Context, split Split) (string, error) {
	path := filepath.Join(p.Dir, split.FileName())
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("dataset: %w", err)
	}

	if p.BaseURL == "" {
		return "", fmt.Errorf("dataset: %s missing and downloads are disabled: %w", path, internalerr.ErrNotFound)
	}
	if err := p.download(ctx, split.FileName(), path); err != nil {
		return "", err
	}
	return path, nil
}

func (p *PTB) download(ctx context.Context, name, path string) error {
	url := strings.TrimSuffix(p.BaseURL, "/") + "/" + name
	p.logger().Info("downloading", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("dataset: download %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dataset: download %s: HTTP %d", name, resp.StatusCode)
	}

	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	tmp, err := os.CreateTemp(p.Dir, name+".*.part")
	if err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("dataset: download %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	p.logger().Info("downloaded", "file", name, "bytes", n)
	return nil
}

func (p *PTB) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p.Logger
}

// Words splits PTB text on whitespace, ending every line with EOS.
func Words(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(data), "\n", " "+EOS+" ")
	return strings.Fields(text), nil
}
