package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/app"
)

func newMigrateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			repos, err := app.OpenStore(cmd.Context(), cfg, true, nil, log)
			if err != nil {
				return err
			}
			defer repos.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "schema is up to date (%s)\n", cfg.StoreDriver)
			return nil
		},
	}
}
