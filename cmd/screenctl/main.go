// Command screenctl is the operator CLI for the screener API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/screener/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &clientOptions{}

	rootCmd := &cobra.Command{
		Use:           "screenctl",
		Short:         "screenctl - adverse media screening from the command line",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.addr, "addr", envOr("SCREENER_ADDR", "http://localhost:8080"),
		"screener API base URL")
	rootCmd.PersistentFlags().StringVar(&opts.apiKey, "api-key", os.Getenv("SCREENER_API_KEY"),
		"bearer token for the API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "request timeout")

	rootCmd.AddCommand(screenCmd(opts))
	rootCmd.AddCommand(searchCmd(opts))
	rootCmd.AddCommand(casesCmd(opts))
	rootCmd.AddCommand(indexCmd(opts))
	rootCmd.AddCommand(usageCmd(opts))

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
