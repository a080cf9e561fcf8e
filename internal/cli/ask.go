package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ragchat/internal/app"
)

var (
	askTopK   int
	askSource string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		outcome, err := a.Query.Answer(cmd.Context(), app.ChatInput{
			Query:  strings.Join(args, " "),
			TopK:   askTopK,
			Source: askSource,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, outcome.Answer)
		if len(outcome.Sources) > 0 {
			fmt.Fprintln(out, "\nSources:")
			for _, src := range outcome.Sources {
				fmt.Fprintf(out, "  - %s (%s) %.4f\n", src.Source, src.Type, src.Score)
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 5, "number of chunks to retrieve")
	askCmd.Flags().StringVarP(&askSource, "source", "s", "", "restrict retrieval to one source")
	rootCmd.AddCommand(askCmd)
}
