package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type scopeFlags struct {
	workspace string
	exclude   string
	topK      int
	threshold float64
}

func (f *scopeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.workspace, "workspace", "w", "", "restrict matches to one workspace")
	cmd.Flags().StringVar(&f.exclude, "exclude", "", "case id to leave out of the results")
	cmd.Flags().IntVarP(&f.topK, "limit", "n", 0, "maximum results (server default when 0)")
	cmd.Flags().Float64Var(&f.threshold, "threshold", 0, "minimum similarity score")
}

func (f *scopeFlags) apply(cmd *cobra.Command, body map[string]any) {
	if f.workspace != "" {
		body["workspaceScope"] = f.workspace
	}
	if f.exclude != "" {
		body["excludeId"] = f.exclude
	}
	if f.topK > 0 {
		body["topK"] = f.topK
	}
	// An explicit --threshold 0 is meaningful, so only Changed decides.
	if cmd.Flags().Changed("threshold") {
		body["scoreThreshold"] = f.threshold
	}
}

func searchCmd(opts *clientOptions) *cobra.Command {
	var scope scopeFlags

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search every knowledge-base namespace",
		Long: `Embed the query once and merge matches across namespaces.

Examples:
  screenctl search "layered transfers through shell companies"
  screenctl search "trade-based laundering" --workspace acme --limit 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"query": strings.Join(args, " ")}
			scope.apply(cmd, body)
			return post(cmd.Context(), opts, "/retrieval/search", body, cmd.OutOrStdout())
		},
	}
	scope.register(cmd)

	return cmd
}

func casesCmd(opts *clientOptions) *cobra.Command {
	var (
		scope         scopeFlags
		indicators    []string
		typologies    []string
		jurisdictions []string
	)

	cmd := &cobra.Command{
		Use:   "cases",
		Short: "Find enforcement precedents for a set of findings",
		Long: `Examples:
  screenctl cases --indicator "rapid movement of funds" --typology structuring --jurisdiction Cyprus`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body := map[string]any{
				"indicators":    indicators,
				"typologies":    typologies,
				"jurisdictions": jurisdictions,
			}
			scope.apply(cmd, body)
			return post(cmd.Context(), opts, "/retrieval/cases", body, cmd.OutOrStdout())
		},
	}
	scope.register(cmd)
	cmd.Flags().StringSliceVar(&indicators, "indicator", nil, "red-flag indicator (repeatable)")
	cmd.Flags().StringSliceVar(&typologies, "typology", nil, "typology tag (repeatable)")
	cmd.Flags().StringSliceVar(&jurisdictions, "jurisdiction", nil, "jurisdiction (repeatable)")

	return cmd
}

func indexCmd(opts *clientOptions) *cobra.Command {
	var (
		namespace string
		metadata  map[string]string
	)

	cmd := &cobra.Command{
		Use:   "index [id] [file]",
		Short: "Index a text file into a namespace",
		Long: `Chunk, embed and store a document, replacing any previous version with the same id.
Use "-" as the file to read standard input.

Examples:
  screenctl index case-2023-114 ./notes.txt --namespace enforcement --meta category=case_study`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args[1])
			if err != nil {
				return err
			}
			body := map[string]any{
				"namespace": namespace,
				"id":        args[0],
				"text":      text,
			}
			if len(metadata) > 0 {
				body["metadata"] = metadata
			}
			return post(cmd.Context(), opts, "/retrieval/index", body, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "N", "case_notes", "target namespace")
	cmd.Flags().StringToStringVar(&metadata, "meta", nil, "metadata key=value (repeatable)")

	return cmd
}

func readText(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
