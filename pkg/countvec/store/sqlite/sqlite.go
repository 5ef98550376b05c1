package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/countvec/pkg/countvec/internalerr"
	"github.com/cognicore/countvec/pkg/countvec/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%v: %w", err, internalerr.ErrStoreUnavailable)
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	// Initialize schema
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS vocab_words (
	vocab TEXT NOT NULL,
	id INTEGER NOT NULL,
	word TEXT NOT NULL,
	PRIMARY KEY(vocab, id),
	UNIQUE(vocab, word)
);

CREATE TABLE IF NOT EXISTS corpora (
	name TEXT PRIMARY KEY,
	size INTEGER NOT NULL,
	ids TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS models (
	id TEXT PRIMARY KEY,
	corpus TEXT,
	window_size INTEGER NOT NULL,
	wordvec_size INTEGER NOT NULL,
	eps REAL NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	singular TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS model_vectors (
	model_id TEXT NOT NULL,
	word_id INTEGER NOT NULL,
	word TEXT NOT NULL,
	vec TEXT NOT NULL,
	PRIMARY KEY(model_id, word_id),
	FOREIGN KEY(model_id) REFERENCES models(id) ON DELETE CASCADE
);
`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return err
	}
	return migrateModelsEps(ctx, db)
}

// migrateModelsEps adds the eps column to databases created before models
// recorded it.
func migrateModelsEps(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, `PRAGMA table_info(models)`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return err
		}
		if name == "eps" {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = db.ExecContext(ctx, `ALTER TABLE models ADD COLUMN eps REAL NOT NULL DEFAULT 0`)
	return err
}

// PutVocabulary replaces the vocabulary stored under name
func (s *sqliteStore) PutVocabulary(ctx context.Context, name string, words []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vocab_words WHERE vocab=?`, name); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vocab_words (vocab, id, word) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for id, word := range words {
		if _, err := stmt.ExecContext(ctx, name, id, word); err != nil {
			return fmt.Errorf("insert word %q: %w", word, err)
		}
	}
	return tx.Commit()
}

// GetVocabulary returns the words of a vocabulary ordered by ID
func (s *sqliteStore) GetVocabulary(ctx context.Context, name string) ([]string, bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT word FROM vocab_words WHERE vocab=? ORDER BY id`, name)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, false, err
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return words, len(words) > 0, nil
}

// PutCorpus replaces the tokenized corpus stored under name
func (s *sqliteStore) PutCorpus(ctx context.Context, name string, ids []int) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO corpora (name, size, ids) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET size=excluded.size, ids=excluded.ids;
`, name, len(ids), string(data))
	return err
}

// GetCorpus returns the tokenized corpus stored under name
func (s *sqliteStore) GetCorpus(ctx context.Context, name string) ([]int, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT ids FROM corpora WHERE name=?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var ids []int
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, false, fmt.Errorf("decode corpus %q: %w", name, err)
	}
	return ids, true, nil
}

// PutModel inserts or replaces a model and its vectors
func (s *sqliteStore) PutModel(ctx context.Context, m store.Model) error {
	if m.ID == "" {
		return fmt.Errorf("sqlite: model without id: %w", internalerr.ErrInvalidInput)
	}
	if len(m.Words) != len(m.Vectors) {
		return fmt.Errorf("sqlite: %d words for %d vectors: %w", len(m.Words), len(m.Vectors), internalerr.ErrInvalidInput)
	}
	singular, err := json.Marshal(m.Singular)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO models (id, corpus, window_size, wordvec_size, eps, created_at, singular)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	corpus=excluded.corpus,
	window_size=excluded.window_size,
	wordvec_size=excluded.wordvec_size,
	eps=excluded.eps,
	created_at=excluded.created_at,
	singular=excluded.singular;
`
	if _, err := tx.ExecContext(ctx, stmt,
		m.ID,
		m.Corpus,
		m.WindowSize,
		m.WordvecSize,
		m.Eps,
		m.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(singular),
	); err != nil {
		return err
	}

	if err := replaceVectors(ctx, tx, m); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceVectors(ctx context.Context, tx *sql.Tx, m store.Model) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM model_vectors WHERE model_id=?`, m.ID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO model_vectors (model_id, word_id, word, vec) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, vec := range m.Vectors {
		data, err := json.Marshal(vec)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, m.ID, i, m.Words[i], string(data)); err != nil {
			return err
		}
	}
	return nil
}

// GetModel retrieves a model by ID
func (s *sqliteStore) GetModel(ctx context.Context, id string) (store.Model, bool, error) {
	var m store.Model
	var createdAt, singular string
	err := s.db.QueryRowContext(ctx, `
SELECT id, corpus, window_size, wordvec_size, eps, created_at, singular
FROM models WHERE id=?`, id).Scan(
		&m.ID, &m.Corpus, &m.WindowSize, &m.WordvecSize, &m.Eps, &createdAt, &singular)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Model{}, false, nil
	}
	if err != nil {
		return store.Model{}, false, err
	}

	if m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return store.Model{}, false, fmt.Errorf("parse created_at of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(singular), &m.Singular); err != nil {
		return store.Model{}, false, fmt.Errorf("decode singular values of %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT word, vec FROM model_vectors WHERE model_id=? ORDER BY word_id`, id)
	if err != nil {
		return store.Model{}, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var word, data string
		if err := rows.Scan(&word, &data); err != nil {
			return store.Model{}, false, err
		}
		var vec []float64
		if err := json.Unmarshal([]byte(data), &vec); err != nil {
			return store.Model{}, false, fmt.Errorf("decode vector %q of %s: %w", word, id, err)
		}
		m.Words = append(m.Words, word)
		m.Vectors = append(m.Vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return store.Model{}, false, err
	}
	return m, true, nil
}

// LatestModel retrieves the most recently created model
func (s *sqliteStore) LatestModel(ctx context.Context) (store.Model, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM models ORDER BY id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Model{}, false, nil
	}
	if err != nil {
		return store.Model{}, false, err
	}
	return s.GetModel(ctx, id)
}

// ListModels returns model summaries, newest first
func (s *sqliteStore) ListModels(ctx context.Context) ([]store.ModelInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, corpus, window_size, wordvec_size, eps, created_at
FROM models
ORDER BY id DESC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.ModelInfo
	for rows.Next() {
		var info store.ModelInfo
		var createdAt string
		if err := rows.Scan(&info.ID, &info.Corpus, &info.WindowSize, &info.WordvecSize, &info.Eps, &createdAt); err != nil {
			return nil, err
		}
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}
