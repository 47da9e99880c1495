package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forceql/forceql/internal/cli/config"
	"github.com/forceql/forceql/pkg/core"
	"github.com/forceql/forceql/pkg/parser"
	"github.com/forceql/forceql/pkg/soql"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format        string
	Input         string
	TranslateOnly bool
	Raw           bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Execute SQL against the org",
		Long: `Execute a SQL statement against the connected org.

SELECT statements are translated to SOQL and run through the query API.
INSERT, UPDATE and DELETE are executed through the sobject endpoints.

When invoked without arguments, enters interactive REPL mode.`,
		Example: `  # Execute SQL directly
  forceql query "SELECT Contact.Name, Contact.Account.Name FROM Contact LIMIT 10"

  # Show the SOQL a statement translates to, without executing it
  forceql query "SELECT Account.Name FROM Account" --translate-only

  # Run a SOQL string verbatim
  forceql query "SELECT Name FROM Account" --raw

  # Output as JSON
  forceql query "SELECT Account.Id FROM Account" --format json

  # Interactive mode
  forceql query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	cmd.Flags().BoolVar(&opts.TranslateOnly, "translate-only", false, "Print the translated SOQL without executing")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "Treat the input as SOQL and skip translation")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	// Determine SQL source
	var sqlText string

	switch {
	case len(args) > 0:
		sqlText = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlText = string(content)
	case !isTerminal(os.Stdin):
		// Read from stdin (piped input)
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlText = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, opts)
	}

	sqlText = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sqlText), ";"))
	if sqlText == "" {
		return fmt.Errorf("no SQL provided")
	}

	// Translation does not need a connection
	if opts.TranslateOnly {
		return translateOnly(cmd, sqlText)
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	format := effectiveFormat(opts.Format, cmdCtx.Cfg)
	return executeStatement(cmd, cmdCtx, sqlText, format, opts.Raw)
}

// rawQuerier is implemented by adapters that accept SOQL verbatim.
type rawQuerier interface {
	RawQuery(ctx context.Context, soql string) (*core.QueryResult, error)
}

func executeStatement(cmd *cobra.Command, cmdCtx *CommandContext, sqlText, format string, raw bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if raw {
		rq, ok := cmdCtx.Adapter.(rawQuerier)
		if !ok {
			return fmt.Errorf("adapter %q does not support raw SOQL", cmdCtx.Cfg.Type)
		}
		res, err := rq.RawQuery(ctx, sqlText)
		if err != nil {
			return err
		}
		return renderResult(out, res, format)
	}

	if isSelect(sqlText) {
		res, err := cmdCtx.Adapter.Query(ctx, sqlText)
		if err != nil {
			return err
		}
		return renderResult(out, res, format)
	}

	res, err := cmdCtx.Adapter.Exec(ctx, sqlText)
	if err != nil {
		return err
	}
	return renderExecResult(out, res, format)
}

func isSelect(sqlText string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(sqlText)), "SELECT")
}

func translateOnly(cmd *cobra.Command, sqlText string) error {
	cmdCtx := NewCommandContextWithoutAdapter(cmd)

	stmt, err := parser.Parse(sqlText)
	if err != nil {
		return err
	}
	sel, ok := stmt.(*parser.SelectStmt)
	if !ok {
		return fmt.Errorf("--translate-only supports SELECT statements")
	}

	q, err := soql.TranslateSelect(sel, nil, translateOptionsFromConfig(cmdCtx.Cfg))
	if err != nil {
		return err
	}
	for _, w := range q.Warnings {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "note: %s\n", w)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), q.SOQL)
	return nil
}

func translateOptionsFromConfig(cfg *config.Config) soql.Options {
	conn := cfg.ConnectionConfig()
	return soql.Options{
		PKField:        conn.EffectivePKField(),
		QueryAll:       truthyOption(cfg.Options["query_all"]),
		MinimalAliases: truthyOption(cfg.Options["minimal_aliases"]),
	}
}

func truthyOption(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// effectiveFormat picks the command flag over the configured output format.
func effectiveFormat(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.OutputFormat
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
