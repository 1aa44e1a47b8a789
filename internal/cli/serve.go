package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/app"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var (
		port           int
		skipMigrations bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.HTTPPort = port
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			log.Info("starting storefront",
				slog.String("environment", cfg.Environment),
				slog.String("version", app.Version),
				slog.Int("http_port", cfg.HTTPPort),
				slog.String("store", cfg.StoreDriver),
				slog.String("search_engine", cfg.SearchEngine),
			)

			application, err := app.New(cmd.Context(), cfg, app.Options{SkipMigrations: skipMigrations}, log)
			if err != nil {
				return fmt.Errorf("initialize application: %w", err)
			}
			if err := application.Run(cmd.Context()); err != nil {
				return fmt.Errorf("run application: %w", err)
			}

			log.Info("storefront stopped")
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port; overrides HTTP_PORT")
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not migrate the schema on start-up")
	return cmd
}
