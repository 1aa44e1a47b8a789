package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/app"
	"github.com/utafrali/storefront/internal/domain"
)

func newSearchCommand(opts *globalOptions) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search products and print the matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := domain.ParseMode(mode)
			if err != nil {
				return fmt.Errorf("invalid --mode: %w", err)
			}
			return opts.withApp(cmd, func(a *app.App) error {
				resp, err := a.Services().Search.Search(cmd.Context(), args[0], m)
				if err != nil {
					return err
				}

				t := table.NewWriter()
				t.SetOutputMirror(cmd.OutOrStdout())
				t.SetStyle(table.StyleLight)
				t.SetTitle("%s search for %q", resp.Mode, resp.Query)
				t.AppendHeader(table.Row{"ID", "Product", "Category", "MRP", "Discount", "Qty"})
				for _, r := range resp.Results {
					t.AppendRow(table.Row{
						r.ProductID,
						r.ProductName,
						r.CategoryName,
						r.MRPPrice.StringFixed(2),
						r.DiscountPrice.StringFixed(2),
						r.Quantity,
					})
				}
				t.AppendFooter(table.Row{"", "", "", "", "Matches", resp.Count})
				t.SetColumnConfigs([]table.ColumnConfig{
					{Number: 4, Align: text.AlignRight},
					{Number: 5, Align: text.AlignRight},
					{Number: 6, Align: text.AlignRight},
				})
				t.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(domain.ModeAuto), "search mode: exact, fuzzy or auto")
	return cmd
}
