package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cognicore/countvec/pkg/countvec"
	"github.com/cognicore/countvec/pkg/countvec/config"
	"github.com/cognicore/countvec/pkg/countvec/internalerr"
	"github.com/cognicore/countvec/pkg/countvec/store"
)

func newSimilarCmd(root *rootOptions) *cobra.Command {
	var (
		modelID string
		topN    int
	)

	cmd := &cobra.Command{
		Use:   "similar <word>...",
		Short: "Print the nearest neighbours of words in a stored model",
		Long: `Load a stored model (the latest one unless --model is given) and print
the nearest neighbours of each word by cosine similarity.

Examples:
  countvec similar --config countvec.yaml you year car
  countvec similar --config countvec.yaml --model 01HV... toyota`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := root.load(cmd)
			if err != nil {
				return err
			}
			defer comp.Close()

			var (
				rec   store.Model
				found bool
			)
			if modelID != "" {
				rec, found, err = comp.Store.GetModel(cmd.Context(), modelID)
			} else {
				rec, found, err = comp.Store.LatestModel(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("load model: %w", err)
			}
			if !found {
				if ephemeral(comp.Config) {
					return fmt.Errorf("no stored model %q (%s): %w", modelID, ephemeralHint, internalerr.ErrNotFound)
				}
				return fmt.Errorf("no stored model %q: %w", modelID, internalerr.ErrNotFound)
			}

			s, err := countvec.Searcher(rec)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("top") {
				topN = comp.Config.TopN
			}
			return s.Report(cmd.OutOrStdout(), args, topN)
		},
	}

	cmd.Flags().StringVarP(&modelID, "model", "m", "", "Model ID (default: latest)")
	cmd.Flags().IntVarP(&topN, "top", "n", 5, "Neighbours per word")
	return cmd
}

func newModelsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List stored models, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := root.load(cmd)
			if err != nil {
				return err
			}
			defer comp.Close()

			if ephemeral(comp.Config) {
				fmt.Fprintln(cmd.ErrOrStderr(), ephemeralHint)
			}

			infos, err := comp.Store.ListModels(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCORPUS\tWINDOW\tDIM\tCREATED")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", info.ID, info.Corpus, info.WindowSize, info.WordvecSize, info.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
}

const ephemeralHint = "the memory store does not keep models between runs; set store.driver: sqlite and store.path in --config"

// ephemeral reports whether models vanish when the command exits.
func ephemeral(cfg *config.Config) bool {
	return cfg.Store.Driver == "" || cfg.Store.Driver == "memory"
}
