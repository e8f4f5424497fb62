package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stocktracker/internal/dashboard"
	"stocktracker/internal/session"
)

func newPriceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "price SYMBOL...",
		Short: "Print the current price of one or more symbols",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := opts.connect()
			if err != nil {
				return err
			}
			for _, a := range args {
				sym := strings.ToUpper(strings.TrimSpace(a))
				p, err := c.Price(cmd.Context(), sym)
				if err != nil {
					return fmt.Errorf("%s: %s", sym, session.Message("price", err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", sym, dashboard.Amount(p, "USD"))
			}
			return nil
		},
	}
}
