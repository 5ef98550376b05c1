package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cognicore/countvec/pkg/countvec"
	"github.com/cognicore/countvec/pkg/countvec/ingest"
	"github.com/cognicore/countvec/pkg/countvec/store"
	"github.com/cognicore/countvec/pkg/countvec/store/memstore"
	"github.com/cognicore/countvec/pkg/countvec/store/sqlite"
)

// Loader loads all configuration files and constructs components
type Loader struct {
	ConfigPath   string
	StoplistPath string // overrides Config.Stoplist when set
	Logger       *slog.Logger
}

// Components holds all loaded configuration components
type Components struct {
	Config    *Config
	Options   countvec.Options
	Tokenizer *ingest.Tokenizer
	Store     store.Store
}

// Close releases the store.
func (c *Components) Close() error {
	if c.Store == nil {
		return nil
	}
	return c.Store.Close()
}

// Load reads all configuration files and returns initialized components
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	cfg := Default()
	if l.ConfigPath != "" {
		loaded, err := Load(l.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = *loaded
	}

	comp := &Components{Config: &cfg}
	comp.Options = cfg.Options()
	comp.Options.Logger = l.Logger

	// Load stoplist
	stoplistPath := cfg.Stoplist
	if l.StoplistPath != "" {
		stoplistPath = l.StoplistPath
	}
	if stoplistPath != "" {
		stoplist, err := LoadStoplist(stoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		comp.Tokenizer = ingest.NewTokenizer(stoplist.Terms)
	} else {
		comp.Tokenizer = ingest.NewTokenizer(nil)
	}

	// Open store
	switch cfg.Store.Driver {
	case "sqlite":
		st, err := sqlite.OpenSQLite(ctx, cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open store %s: %w", cfg.Store.Path, err)
		}
		comp.Store = st
	default:
		comp.Store = memstore.New()
	}

	return comp, nil
}
