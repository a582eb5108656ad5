package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func screenCmd(opts *clientOptions) *cobra.Command {
	var (
		subjectType string
		country     string
		terms       []string
	)

	cmd := &cobra.Command{
		Use:   "screen [name]",
		Short: "Screen a person or company for adverse media",
		Long: `Run one screening and print the report as JSON.

Examples:
  screenctl screen "Jane Doe"
  screenctl screen "Acme Corp" --type ENTITY --country Malta --term "shell company"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"name": strings.Join(args, " "),
				"type": strings.ToUpper(subjectType),
			}
			if country != "" {
				body["country"] = country
			}
			if len(terms) > 0 {
				body["additionalTerms"] = terms
			}
			return post(cmd.Context(), opts, "/screen", body, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&subjectType, "type", "t", "INDIVIDUAL", "subject type (INDIVIDUAL, ENTITY)")
	cmd.Flags().StringVarP(&country, "country", "c", "", "jurisdiction to add to the search terms")
	cmd.Flags().StringSliceVar(&terms, "term", nil, "additional search term (repeatable)")

	return cmd
}
