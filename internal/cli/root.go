package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/app"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/pkg/logger"
)

type globalOptions struct {
	logLevel string
}

// NewRootCommand builds the storefront command tree. Running it without a
// subcommand starts the server.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	serve := newServeCommand(opts)

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Catalog and product search backend",
		Long:          "Storefront serves the catalog REST API and keeps the product search index in sync.",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(
		serve,
		newMigrateCommand(opts),
		newReindexCommand(opts),
		newSearchCommand(opts),
	)
	return root
}

// Execute runs the command tree with ctx, which should be canceled on
// SIGINT and SIGTERM.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// setup loads the configuration from the environment and builds the logger
// every subcommand writes to.
func (o *globalOptions) setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, logger.NewWithWriter("storefront", cfg.LogLevel, cmd.ErrOrStderr()), nil
}

// withApp assembles the application for a one-shot command and closes it
// once fn returns.
func (o *globalOptions) withApp(cmd *cobra.Command, fn func(*app.App) error) (err error) {
	cfg, log, err := o.setup(cmd)
	if err != nil {
		return err
	}
	a, err := app.New(cmd.Context(), cfg, app.Options{WithoutConsumer: true}, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer func() {
		if cerr := a.Shutdown(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a)
}
