// Package cli wires configuration, storage and services into cobra commands.
package cli

import (
	"context"
	"fmt"

	"tradejournal/config"
	"tradejournal/internal/adapters/auth"
	"tradejournal/internal/adapters/logger"
	"tradejournal/internal/adapters/sqlite"
	"tradejournal/internal/app"

	"github.com/spf13/cobra"
)

// rootOptions holds flags shared by every command.
type rootOptions struct {
	configPath string
}

// NewRootCmd builds the tradejournal command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "tradejournal",
		Short: "Personal trade journal: capital, positions and realized P&L",
		Long: `tradejournal keeps a ledger of capital deposits and withdrawals and of
stock buys and sells, and derives per-stock positions and a running cash
balance from them.

Examples:
  tradejournal serve
  tradejournal user create alice --email alice@example.com
  tradejournal token issue alice
  tradejournal export transactions alice -o alice.csv`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "optional YAML config file (default $CONFIG_FILE)")

	cmd.AddCommand(
		newServeCmd(opts),
		newUserCmd(opts),
		newTokenCmd(opts),
		newExportCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// runtime is the set of collaborators a command needs.
type runtime struct {
	cfg      *config.Config
	logger   *logger.StdLogger
	store    *sqlite.Repository
	ledger   *app.LedgerService
	journal  *app.JournalService
	resolver *auth.JWTResolver
}

func bootstrap(cmd *cobra.Command, opts *rootOptions) (*runtime, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	appLogger := logger.New(cmd.ErrOrStderr(), cfg.LogLevel)
	appLogger.Debug(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	store, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	serviceOpts := []app.Option{app.WithCurrency(cfg.DisplayCurrency)}
	ledger, err := app.NewLedgerService(store, appLogger, serviceOpts...)
	if err != nil {
		store.Close()
		return nil, err
	}
	journal, err := app.NewJournalService(store, appLogger, serviceOpts...)
	if err != nil {
		store.Close()
		return nil, err
	}
	resolver, err := auth.NewJWTResolver(cfg.JWTSecret)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &runtime{
		cfg:      cfg,
		logger:   appLogger,
		store:    store,
		ledger:   ledger,
		journal:  journal,
		resolver: resolver,
	}, nil
}

func (rt *runtime) Close() {
	if err := rt.store.Close(); err != nil {
		rt.logger.Error(context.Background(), err, "Error closing database repository")
	}
}
