package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/app"
)

func newReindexCommand(opts *globalOptions) *cobra.Command {
	var prune bool
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the record store",
		Long: "Reindex streams every product from the record store into the search index in batches.\n" +
			"With --prune, index documents whose product no longer exists are removed afterwards.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				report, err := a.Services().Indexer.Reindex(cmd.Context(), prune)
				if err != nil {
					return err
				}

				t := table.NewWriter()
				t.SetOutputMirror(cmd.OutOrStdout())
				t.SetStyle(table.StyleLight)
				t.AppendHeader(table.Row{"Indexed", "Batches", "Pruned", "Took"})
				t.AppendRow(table.Row{report.Indexed, report.Batches, report.Pruned, report.Took})
				t.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&prune, "prune", false, "delete index documents for products that no longer exist")
	return cmd
}
