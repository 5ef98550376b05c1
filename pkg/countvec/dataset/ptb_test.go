package dataset

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/countvec/pkg/countvec/ingest"
	"github.com/cognicore/countvec/pkg/countvec/internalerr"
	"github.com/cognicore/countvec/pkg/countvec/store/memstore"
)

const (
	trainText = " aer banknote berlitz\n no it was n't\n"
	testText  = " no it was\n aer\n"
)

func ptbServer(t *testing.T, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	files := map[string]string{
		"/ptb.train.txt": trainText,
		"/ptb.test.txt":  testText,
		"/ptb.valid.txt": " aer unknownword\n",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseSplit(t *testing.T) {
	tests := []struct {
		in   string
		want Split
	}{
		{"", Train},
		{"train", Train},
		{"valid", Valid},
		{"val", Valid},
		{"TEST", Test},
	}
	for _, tt := range tests {
		got, err := ParseSplit(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseSplit("dev")
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
	assert.Equal(t, "ptb.valid.txt", Valid.FileName())
}

func TestWordsAppendsEOS(t *testing.T) {
	words, err := Words(strings.NewReader(trainText))
	require.NoError(t, err)
	assert.Equal(t, []string{"aer", "banknote", "berlitz", EOS, "no", "it", "was", "n't", EOS}, words)
}

func TestLoadDownloadsAndEncodes(t *testing.T) {
	var requests atomic.Int32
	srv := ptbServer(t, &requests)
	dir := t.TempDir()

	p := &PTB{Dir: dir, BaseURL: srv.URL}
	corpus, vocab, err := p.Load(context.Background(), Test)
	require.NoError(t, err)

	assert.Equal(t, 8, vocab.Len())
	assert.Equal(t, ingest.Corpus{4, 5, 6, 3, 0, 3}, corpus)
	assert.Equal(t, []string{"no", "it", "was", EOS, "aer", EOS}, vocab.Decode(corpus))

	assert.FileExists(t, filepath.Join(dir, "ptb.train.txt"))
	assert.FileExists(t, filepath.Join(dir, "ptb.test.txt"))
	assert.EqualValues(t, 2, requests.Load())

	// Files on disk are not fetched again
	_, _, err = p.Load(context.Background(), Test)
	require.NoError(t, err)
	assert.EqualValues(t, 2, requests.Load())
}

func TestLoadUsesStoreCache(t *testing.T) {
	var requests atomic.Int32
	srv := ptbServer(t, &requests)
	dir := t.TempDir()
	st := memstore.New()
	ctx := context.Background()

	p := &PTB{Dir: dir, BaseURL: srv.URL, Store: st}
	corpus, vocab, err := p.Load(ctx, Train)
	require.NoError(t, err)
	assert.Len(t, corpus, 9)

	cached, found, err := st.GetCorpus(ctx, p.cacheKey("train"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []int(corpus), cached)

	words, found, err := st.GetVocabulary(ctx, p.cacheKey("vocab"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, vocab.Words(), words)

	// With the files gone and downloads disabled only the cache can answer
	require.NoError(t, os.RemoveAll(dir))
	p = &PTB{Dir: dir, Store: st}
	again, vocab2, err := p.Load(ctx, Train)
	require.NoError(t, err)
	assert.Equal(t, corpus, again)
	assert.Equal(t, vocab.Words(), vocab2.Words())
}

func TestLoadUnknownWord(t *testing.T) {
	var requests atomic.Int32
	srv := ptbServer(t, &requests)

	p := &PTB{Dir: t.TempDir(), BaseURL: srv.URL}
	_, _, err := p.Load(context.Background(), Valid)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
}

func TestLoadMissingWithoutDownload(t *testing.T) {
	p := &PTB{Dir: t.TempDir()}
	_, _, err := p.Load(context.Background(), Train)
	assert.ErrorIs(t, err, internalerr.ErrNotFound)
}

func TestLoadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	p := &PTB{Dir: dir, BaseURL: srv.URL}
	_, _, err := p.Load(context.Background(), Train)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
	assert.NoFileExists(t, filepath.Join(dir, "ptb.train.txt"))
}

func TestLoadCanceledContext(t *testing.T) {
	var requests atomic.Int32
	srv := ptbServer(t, &requests)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &PTB{Dir: t.TempDir(), BaseURL: srv.URL}
	_, _, err := p.Load(ctx, Train)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadCacheIsScopedToDir(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	dirA := t.TempDir()
	dirB := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dirA, Train.FileName()), []byte("alpha beta\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dirB, Train.FileName()), []byte("gamma delta epsilon\n"), 0o644))

	a := &PTB{Dir: dirA, Store: st}
	corpusA, vocabA, err := a.Load(ctx, Train)
	require.NoError(t, err)

	b := &PTB{Dir: dirB, Store: st}
	corpusB, vocabB, err := b.Load(ctx, Train)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta", EOS}, vocabA.Words())
	assert.Equal(t, []string{"gamma", "delta", "epsilon", EOS}, vocabB.Words())
	assert.Equal(t, []string{"alpha", "beta", EOS}, vocabA.Decode(corpusA))
	assert.Equal(t, []string{"gamma", "delta", "epsilon", EOS}, vocabB.Decode(corpusB))
	assert.NotEqual(t, a.cacheKey("vocab"), b.cacheKey("vocab"))
}

func TestLoadTrainReadsFileOnce(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, Train.FileName()), []byte(trainText), 0o644))

	var logs bytes.Buffer
	p := &PTB{
		Dir:    dir,
		Logger: slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
	corpus, vocab, err := p.Load(context.Background(), Train)
	require.NoError(t, err)
	assert.Len(t, corpus, 9)
	assert.Equal(t, 8, vocab.Len())
	assert.Equal(t, 1, strings.Count(logs.String(), "read split"))
}
