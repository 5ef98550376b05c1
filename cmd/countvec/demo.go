package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/countvec/pkg/countvec"
	"github.com/cognicore/countvec/pkg/countvec/ingest"
)

const demoText = "You say goodbye and I say hello."

func newDemoCmd(root *rootOptions) *cobra.Command {
	var (
		text    string
		window  int
		queries []string
		topN    int
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the pipeline on a short text with a full SVD",
		Long: `Build vectors for a short text using the full SVD, print the
co-occurrence, PPMI and SVD rows of the first word, the 2-D coordinates of
every word and the nearest neighbours of each query.

Examples:
  countvec demo
  countvec demo --text "the cat sat on the mat ." --query cat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			corpus, vocab := ingest.Preprocess(text)
			opts := countvec.DefaultOptions()
			opts.WindowSize = window
			opts.WordvecSize = vocab.Len()
			opts.FullSVD = true
			opts.Logger = root.logger(cmd.ErrOrStderr())

			m, err := countvec.Build(corpus, vocab, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			first, _ := vocab.Word(0)
			fmt.Fprintf(out, "counts[%s]: %v\n", first, m.Counts.Row(0))
			fmt.Fprintf(out, "ppmi[%s]: %s\n", first, formatRow(m.PPMI.RawRowView(0)))
			fmt.Fprintf(out, "u[%s]: %s\n", first, formatRow(m.SVD.U.RawRowView(0)))

			if _, dim := m.Vectors.Dims(); dim >= 2 {
				fmt.Fprintln(out)
				for id, word := range vocab.Words() {
					fmt.Fprintf(out, "%-10s %8.4f %8.4f\n", word, m.Vectors.At(id, 0), m.Vectors.At(id, 1))
				}
			}

			return m.Report(out, queries, topN)
		},
	}

	f := cmd.Flags()
	f.StringVar(&text, "text", demoText, "Text to build vectors from")
	f.IntVarP(&window, "window", "w", 1, "Context window size")
	f.StringSliceVarP(&queries, "query", "q", []string{"you"}, "Query words")
	f.IntVarP(&topN, "top", "n", 5, "Neighbours per query")
	return cmd
}

func formatRow(row []float64) string {
	s := "["
	for i, v := range row {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%.4f", v)
	}
	return s + "]"
}
