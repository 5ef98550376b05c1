package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cognicore/countvec/pkg/countvec/config"
)

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	configPath   string
	stoplistPath string
	verbose      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "countvec",
		Short: "Count-based word vectors",
		Long: `countvec builds word vectors from co-occurrence counts, PPMI and a
truncated SVD, and answers nearest-neighbour queries over them.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Path to YAML config file")
	pf.StringVar(&opts.stoplistPath, "stoplist", "", "Path to YAML stoplist (overrides config)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		newDemoCmd(opts),
		newBuildCmd(opts),
		newSimilarCmd(opts),
		newModelsCmd(opts),
	)
	return cmd
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *rootOptions) load(cmd *cobra.Command) (*config.Components, error) {
	loader := config.Loader{
		ConfigPath:   o.configPath,
		StoplistPath: o.stoplistPath,
		Logger:       o.logger(cmd.ErrOrStderr()),
	}
	return loader.Load(cmd.Context())
}
