package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/countvec/pkg/countvec"
	"github.com/cognicore/countvec/pkg/countvec/dataset"
	"github.com/cognicore/countvec/pkg/countvec/internalerr"
)

// Config holds the pipeline parameters and the collaborators around it
type Config struct {
	WindowSize  int      `yaml:"window_size"`
	WordvecSize int      `yaml:"wordvec_size"`
	Eps         float64  `yaml:"eps"`
	TopN        int      `yaml:"top_n"`
	FullSVD     bool     `yaml:"full_svd"`
	Queries     []string `yaml:"queries"`
	Stoplist    string   `yaml:"stoplist"`
	Corpus      Corpus   `yaml:"corpus"`
	Dataset     Dataset  `yaml:"dataset"`
	Store       Store    `yaml:"store"`
}

// Corpus points at a raw text file
type Corpus struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"` // text or html
}

// Dataset configures the PTB-style dataset loader
type Dataset struct {
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url"`
	Split   string `yaml:"split"`
}

// Store selects where vocabularies, corpora and models are kept
type Store struct {
	Driver string `yaml:"driver"` // sqlite or memory
	Path   string `yaml:"path"`
}

// Default returns the parameters of the reference PTB run.
func Default() Config {
	return Config{
		WindowSize:  2,
		WordvecSize: 100,
		Eps:         1e-8,
		TopN:        5,
		Queries:     []string{"you", "year", "car", "toyota"},
		Corpus:      Corpus{Format: "text"},
		Dataset:     Dataset{BaseURL: dataset.DefaultBaseURL, Split: "train"},
		Store:       Store{Driver: "memory"},
	}
}

// Load reads a YAML config file on top of Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	invalid := func(field string, value any, why string) error {
		return fmt.Errorf("%s=%v %s: %w", field, value, why, internalerr.ErrInvalidConfig)
	}

	if c.WindowSize < 1 {
		return invalid("window_size", c.WindowSize, "must be >= 1")
	}
	if c.WordvecSize < 1 {
		return invalid("wordvec_size", c.WordvecSize, "must be >= 1")
	}
	if c.Eps < 0 {
		return invalid("eps", c.Eps, "must not be negative")
	}
	if c.TopN < 1 {
		return invalid("top_n", c.TopN, "must be >= 1")
	}
	switch c.Corpus.Format {
	case "", "text", "html":
	default:
		return invalid("corpus.format", c.Corpus.Format, "must be text or html")
	}
	switch c.Dataset.Split {
	case "", "train", "valid", "val", "test":
	default:
		return invalid("dataset.split", c.Dataset.Split, "must be train, valid or test")
	}
	if c.Corpus.Path != "" && c.Dataset.Dir != "" {
		return invalid("corpus.path", c.Corpus.Path, "conflicts with dataset.dir")
	}
	switch c.Store.Driver {
	case "", "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return invalid("store.path", `""`, "is required for the sqlite driver")
		}
	default:
		return invalid("store.driver", c.Store.Driver, "must be sqlite or memory")
	}
	return nil
}

// Options converts the config into pipeline options.
func (c *Config) Options() countvec.Options {
	return countvec.Options{
		WindowSize:  c.WindowSize,
		WordvecSize: c.WordvecSize,
		Epsilon:     c.Eps,
		FullSVD:     c.FullSVD,
	}
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}
