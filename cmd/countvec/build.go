package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/countvec/pkg/countvec"
	"github.com/cognicore/countvec/pkg/countvec/config"
	"github.com/cognicore/countvec/pkg/countvec/dataset"
	"github.com/cognicore/countvec/pkg/countvec/ingest"
	"github.com/cognicore/countvec/pkg/countvec/internalerr"
)

func newBuildCmd(root *rootOptions) *cobra.Command {
	var (
		corpusPath string
		format     string
		datasetDir string
		split      string
		window     int
		dim        int
		topN       int
		full       bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build and store word vectors",
		Long: `Build word vectors from a text corpus or the PTB dataset, store the
model and print the nearest neighbours of the configured queries.

Flags override the values from --config.

Examples:
  countvec build --corpus book.txt
  countvec build --dataset-dir data/ptb --split train --dim 100
  countvec build --config countvec.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := root.load(cmd)
			if err != nil {
				return err
			}
			defer comp.Close()

			cfg := comp.Config
			f := cmd.Flags()
			if f.Changed("corpus") {
				cfg.Corpus.Path = corpusPath
				cfg.Dataset.Dir = ""
			}
			if f.Changed("format") {
				cfg.Corpus.Format = format
			}
			if f.Changed("dataset-dir") {
				cfg.Dataset.Dir = datasetDir
				cfg.Corpus.Path = ""
			}
			if f.Changed("split") {
				cfg.Dataset.Split = split
			}
			if f.Changed("window") {
				cfg.WindowSize = window
			}
			if f.Changed("dim") {
				cfg.WordvecSize = dim
			}
			if f.Changed("top") {
				cfg.TopN = topN
			}
			if f.Changed("full") {
				cfg.FullSVD = full
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := root.logger(cmd.ErrOrStderr())
			corpus, vocab, name, err := loadCorpus(cmd, comp)
			if err != nil {
				return err
			}

			opts := cfg.Options()
			opts.Logger = log
			m, err := countvec.Build(corpus, vocab, opts)
			if err != nil {
				return err
			}

			rec := m.Record(name, time.Now().UTC())
			if err := comp.Store.PutModel(cmd.Context(), rec); err != nil {
				return fmt.Errorf("store model: %w", err)
			}
			log.Info("stored model", "id", rec.ID, "corpus", name)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "model %s\n", rec.ID)
			return m.Report(out, cfg.Queries, cfg.TopN)
		},
	}

	f := cmd.Flags()
	f.StringVar(&corpusPath, "corpus", "", "Path to a text or HTML corpus")
	f.StringVar(&format, "format", "text", "Corpus format (text, html)")
	f.StringVar(&datasetDir, "dataset-dir", "", "Directory holding the PTB files")
	f.StringVar(&split, "split", "train", "PTB split (train, valid, test)")
	f.IntVarP(&window, "window", "w", 2, "Context window size")
	f.IntVarP(&dim, "dim", "d", 100, "Word vector dimensionality")
	f.IntVarP(&topN, "top", "n", 5, "Neighbours per query")
	f.BoolVar(&full, "full", false, "Use the full SVD instead of the truncated one")
	return cmd
}

// loadCorpus reads the configured corpus and returns it with the name the
// model is stored under.
func loadCorpus(cmd *cobra.Command, comp *config.Components) (ingest.Corpus, *ingest.Vocabulary, string, error) {
	cfg := comp.Config
	switch {
	case cfg.Dataset.Dir != "":
		split, err := dataset.ParseSplit(cfg.Dataset.Split)
		if err != nil {
			return nil, nil, "", err
		}
		ptb := &dataset.PTB{
			Dir:     cfg.Dataset.Dir,
			BaseURL: cfg.Dataset.BaseURL,
			Store:   comp.Store,
			Logger:  comp.Options.Logger,
		}
		corpus, vocab, err := ptb.Load(cmd.Context(), split)
		if err != nil {
			return nil, nil, "", err
		}
		return corpus, vocab, "ptb." + string(split), nil

	case cfg.Corpus.Path != "":
		text, err := dataset.ReadText(cfg.Corpus.Path, cfg.Corpus.Format)
		if err != nil {
			return nil, nil, "", err
		}
		corpus, vocab := comp.Tokenizer.Preprocess(text)
		return corpus, vocab, filepath.Base(cfg.Corpus.Path), nil
	}
	return nil, nil, "", fmt.Errorf("no corpus: set --corpus or --dataset-dir: %w", internalerr.ErrInvalidConfig)
}
