package cli

import (
	"fmt"

	"tradejournal/config"

	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		Long: `Load .env, the optional YAML file and the environment, report every
validation problem at once, and print the effective settings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "configuration OK")
			fmt.Fprintf(out, "  db_path:          %s\n", cfg.DBPath)
			fmt.Fprintf(out, "  listen:           %s\n", cfg.Addr())
			fmt.Fprintf(out, "  log_level:        %s\n", cfg.LogLevel)
			fmt.Fprintf(out, "  token_ttl:        %s\n", cfg.TokenTTL)
			fmt.Fprintf(out, "  display_currency: %s\n", cfg.DisplayCurrency)
			fmt.Fprintf(out, "  shutdown_timeout: %s\n", cfg.ShutdownTimeout)
			return nil
		},
	})
	return cmd
}
