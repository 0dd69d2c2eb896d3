package main

import (
	"bufio"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/tradebook/internal/adapter/http/dto"
	"github.com/iho/tradebook/internal/infrastructure/auth"
	"github.com/iho/tradebook/internal/infrastructure/config"
	"github.com/iho/tradebook/internal/infrastructure/logger"
	"github.com/iho/tradebook/internal/infrastructure/postgres"
)

func importCmd(opts *cliOptions) *cobra.Command {
	var (
		provider    string
		mappingFile string
	)

	cmd := &cobra.Command{
		Use:   "import <account-id> <file.csv>",
		Short: "Import a broker CSV statement",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var mapping []byte
			if mappingFile != "" {
				b, err := os.ReadFile(mappingFile)
				if err != nil {
					return fmt.Errorf("read mapping: %w", err)
				}
				mapping = b
			}

			summary, err := newClient(opts).upload(cmd.Context(), args[0], args[1], provider, mapping)
			if summary != nil {
				var printErr error
				if opts.asJSON {
					printErr = printJSON(cmd.OutOrStdout(), summary)
				} else {
					printErr = render(cmd.OutOrStdout(), importSummaryMarkdown(summary), opts.plain)
				}
				if err == nil {
					err = printErr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Override the account's provider (robinhood, fidelity, schwab, webull, generic)")
	cmd.Flags().StringVar(&mappingFile, "mapping", "", "JSON column mapping file for the generic provider")
	return cmd
}

func accountsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))

			var resp dto.ListAccountsResponse
			if err := newClient(opts).call(cmd.Context(), http.MethodGet, "/api/v1/accounts?"+q.Encode(), nil, &resp); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			return render(cmd.OutOrStdout(), accountsMarkdown(resp.Accounts), opts.plain)
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Maximum accounts to list")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Accounts to skip")

	var name, provider string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.AccountResponse
			req := dto.CreateAccountRequest{Name: name, Provider: provider}
			if err := newClient(opts).call(cmd.Context(), http.MethodPost, "/api/v1/accounts", req, &resp); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created account %s (%s)\n", resp.ID, resp.Provider)
			return nil
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "Account name")
	createCmd.Flags().StringVar(&provider, "provider", "robinhood", "Statement provider")
	_ = createCmd.MarkFlagRequired("name")

	deleteCmd := &cobra.Command{
		Use:   "delete <account-id>",
		Short: "Delete an account and its ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient(opts).call(cmd.Context(), http.MethodDelete, accountPath(args[0]), nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted account %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(listCmd, createCmd, deleteCmd)
	return cmd
}

func historyCmd(opts *cliOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <account-id>",
		Short: "Show past imports of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ListImportsResponse
			path := accountPath(args[0], "imports") + "?limit=" + strconv.Itoa(limit)
			if err := newClient(opts).call(cmd.Context(), http.MethodGet, path, nil, &resp); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			return render(cmd.OutOrStdout(), historyMarkdown(resp.Imports), opts.plain)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum imports to list")
	return cmd
}

func transactionsCmd(opts *cliOptions) *cobra.Command {
	var (
		instrument string
		from, to   string
		limit      int
		archived   bool
	)

	cmd := &cobra.Command{
		Use:   "transactions <account-id>",
		Short: "List ledger transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("limit", strconv.Itoa(limit))
			if instrument != "" {
				q.Set("instrument", instrument)
			}
			if from != "" {
				q.Set("from", from)
			}
			if to != "" {
				q.Set("to", to)
			}
			if archived {
				q.Set("include_archived", "true")
			}

			var resp dto.ListTransactionsResponse
			if err := newClient(opts).call(cmd.Context(), http.MethodGet, accountPath(args[0], "transactions")+"?"+q.Encode(), nil, &resp); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			return render(cmd.OutOrStdout(), transactionsMarkdown(resp.Transactions), opts.plain)
		},
	}

	cmd.Flags().StringVar(&instrument, "instrument", "", "Only this instrument")
	cmd.Flags().StringVar(&from, "from", "", "Earliest activity date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Latest activity date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum transactions to list")
	cmd.Flags().BoolVar(&archived, "archived", false, "Include archived transactions")
	return cmd
}

func exportCmd(opts *cliOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <account-id>",
		Short: "Export the ledger as a Robinhood-format CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := bufio.NewWriter(cmd.OutOrStdout())
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = bufio.NewWriter(f)
			}

			if _, err := newClient(opts).download(cmd.Context(), accountPath(args[0], "transactions", "export"), w); err != nil {
				return err
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func verifyCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <account-id>",
		Short: "Check ledger consistency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.VerifyResponse
			if err := newClient(opts).call(cmd.Context(), http.MethodGet, accountPath(args[0], "verify"), nil, &resp); err != nil {
				return err
			}

			var err error
			if opts.asJSON {
				err = printJSON(cmd.OutOrStdout(), resp)
			} else {
				err = render(cmd.OutOrStdout(), verifyMarkdown(&resp), opts.plain)
			}
			if err != nil {
				return err
			}
			if !resp.IsConsistent {
				return fmt.Errorf("ledger %s is inconsistent", resp.AccountID)
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema (uses DATABASE_URL)",
	}

	setup := func(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, zerolog.Nop(), err
		}
		if path == "" {
			path = cfg.MigrationsPath
		}
		log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console", Output: cmd.ErrOrStderr()})
		return cfg, log, nil
	}

	run := func(apply func(databaseURL, migrationsPath string, l zerolog.Logger) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			return apply(cfg.DatabaseURL, path, log)
		}
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			st, err := postgres.GetMigrationStatus(cfg.DatabaseURL, path, log)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case !st.Applied:
				_, err = fmt.Fprintln(out, "no migrations applied")
			case st.Dirty:
				_, err = fmt.Fprintf(out, "version %d (dirty: fix the failed migration, then force the version)\n", st.Version)
			default:
				_, err = fmt.Fprintf(out, "version %d\n", st.Version)
			}
			return err
		},
	}

	cmd.PersistentFlags().StringVar(&path, "path", "", "Migrations directory (defaults to MIGRATIONS_PATH)")
	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", Args: cobra.NoArgs, RunE: run(postgres.RunMigrations)},
		&cobra.Command{Use: "down", Short: "Roll back the most recent migration", Args: cobra.NoArgs, RunE: run(postgres.RunMigrationsDown)},
		status,
	)
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		secret  string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token (uses JWT_SECRET)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := auth.ParseRole(role)
			if err != nil {
				return err
			}

			if secret == "" || ttl == 0 {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				if secret == "" {
					secret = cfg.JWTSecret
				}
				if ttl == 0 {
					ttl = cfg.JWTExpiration
				}
			}
			if secret == "" {
				return fmt.Errorf("no signing secret: set JWT_SECRET or pass --secret")
			}

			token, err := auth.NewJWTManager(secret, ttl).Generate(subject, r)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Principal the token is issued to")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleViewer), "viewer, operator or admin")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JWT_EXPIRATION)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
