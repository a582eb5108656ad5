package main

import (
	"net/url"

	"github.com/spf13/cobra"
)

func usageCmd(opts *clientOptions) *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show token usage against the configured budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return get(cmd.Context(), opts, "/usage?period="+url.QueryEscape(period), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", "month", "aggregation period (day, month)")

	return cmd
}
