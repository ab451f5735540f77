package cli

import (
	"fmt"

	"tradejournal/internal/app"
	"tradejournal/internal/ports"

	"github.com/spf13/cobra"
)

func newUserCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage journal users",
	}
	cmd.AddCommand(newUserCreateCmd(opts), newUserShowCmd(opts))
	return cmd
}

func newUserCreateCmd(opts *rootOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Register a user with zero capital",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			u, err := rt.journal.RegisterUser(cmd.Context(), args[0], email)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", u.Username, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "contact email (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUserShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <username>",
		Short: "Show a user's balance and open positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			u, err := rt.journal.UserByUsername(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			open := true
			stocks, err := rt.journal.Stocks(cmd.Context(), u.ID, ports.StockFilter{Open: &open})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			cur := rt.cfg.DisplayCurrency
			fmt.Fprintf(out, "%s (%s)\n", u.Username, u.ID)
			fmt.Fprintf(out, "total capital: %s\n", app.FormatAmount(u.TotalCapital, cur))
			for _, s := range stocks {
				fmt.Fprintf(out, "  %-10s qty %s avg %s value %s realized %s\n",
					s.Symbol, s.CurrentQuantity, app.FormatAmount(s.AveragePrice, cur),
					app.FormatAmount(s.CurrentValue(), cur), app.FormatAmount(s.ProfitLoss, cur))
			}
			return nil
		},
	}
}
