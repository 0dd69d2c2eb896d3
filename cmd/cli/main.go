package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type cliOptions struct {
	baseURL string
	timeout time.Duration
	token   string
	asJSON  bool
	plain   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "tradebook",
		Short:         "Tradebook CLI tool",
		Long:          `A command line interface for importing broker statements into a Tradebook ledger.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "url", envOr("TRADEBOOK_URL", "http://localhost:8080"), "Base URL of the Tradebook API")
	flags.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Request timeout")
	flags.StringVar(&opts.token, "token", os.Getenv("TRADEBOOK_TOKEN"), "Bearer token for the API")
	flags.BoolVar(&opts.asJSON, "json", false, "Print raw JSON responses")
	flags.BoolVar(&opts.plain, "plain", false, "Print markdown without terminal styling")

	rootCmd.AddCommand(
		importCmd(opts),
		accountsCmd(opts),
		historyCmd(opts),
		transactionsCmd(opts),
		exportCmd(opts),
		verifyCmd(opts),
		migrateCmd(),
		tokenCmd(),
	)

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
