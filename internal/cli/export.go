package cli

import (
	"fmt"
	"io"
	"os"

	"tradejournal/internal/ports"
	"tradejournal/internal/utils"

	"github.com/spf13/cobra"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export journal data",
	}
	cmd.AddCommand(newExportTransactionsCmd(opts))
	return cmd
}

func newExportTransactionsCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "transactions <username>",
		Short: "Write a user's transactions as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			u, err := rt.journal.UserByUsername(ctx, args[0])
			if err != nil {
				return err
			}
			txs, err := rt.journal.Transactions(ctx, u.ID, ports.TransactionFilter{})
			if err != nil {
				return err
			}
			stocks, err := rt.journal.Stocks(ctx, u.ID, ports.StockFilter{})
			if err != nil {
				return err
			}
			symbols := make(map[string]string, len(stocks))
			for _, s := range stocks {
				symbols[s.ID] = s.Symbol
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return utils.WriteTransactionsToCSV(w, txs, symbols)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}
