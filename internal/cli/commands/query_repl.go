package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

func runQueryREPL(cmd *cobra.Command, opts *QueryOptions) error {
	ctx := cmd.Context()

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	format := effectiveFormat(opts.Format, cmdCtx.Cfg)

	// Setup history file under ~/.forceql
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		dir := filepath.Join(home, ".forceql")
		if err := os.MkdirAll(dir, 0o750); err == nil {
			historyFile = filepath.Join(dir, "query_history")
		}
	}

	// Get object names for completion
	completer := newObjectCompleter(ctx, cmdCtx)

	// Configure readline
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "forceql> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	// Print welcome message
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "forceql REPL (host: %s)\n", cmdCtx.Cfg.Host)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	// REPL loop
	var multiLineBuffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			multiLineBuffer.Reset()
			rl.SetPrompt("forceql> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle dot-commands
		if strings.HasPrefix(line, ".") {
			if handled := handleDotCommand(ctx, cmd, cmdCtx, line, format); handled {
				if line == ".quit" || line == ".exit" {
					break
				}
				continue
			}
		}

		// Accumulate multi-line SQL until semicolon
		multiLineBuffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			multiLineBuffer.WriteString(" ")
			rl.SetPrompt("    ...> ")
			continue
		}
		rl.SetPrompt("forceql> ")

		// Execute statement
		sqlText := strings.TrimSuffix(multiLineBuffer.String(), ";")
		multiLineBuffer.Reset()

		if err := executeStatement(cmd, cmdCtx, sqlText, format, false); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

func handleDotCommand(ctx context.Context, cmd *cobra.Command, cmdCtx *CommandContext, line, format string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(cmd.OutOrStdout())
		return true

	case ".objects":
		if err := listObjectsTo(ctx, cmd.OutOrStdout(), cmdCtx, format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".describe":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .describe <object>")
			return true
		}
		if err := describeObjectTo(ctx, cmd.OutOrStdout(), cmdCtx, parts[1], format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".translate":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .translate <sql>")
			return true
		}
		sqlText := strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(line, parts[0])), ";")
		if err := translateOnly(cmd, sqlText); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".clear":
		fmt.Print("\033[H\033[2J")
		return true

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
		return true
	}
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help             Show this help message
  .objects          List queryable objects
  .describe <name>  Show field metadata for an object
  .translate <sql>  Print the SOQL a statement translates to
  .clear            Clear the screen
  .quit / .exit     Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for object names
`
	_, _ = fmt.Fprintln(w, help)
}

// newObjectCompleter creates a readline completer for object names.
func newObjectCompleter(ctx context.Context, cmdCtx *CommandContext) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface

	// Object names come from the live org; completion degrades gracefully
	// when the list cannot be fetched (lazy connect, network trouble).
	if objects, err := cmdCtx.Adapter.ListObjects(ctx); err == nil {
		for _, obj := range objects {
			if obj.Queryable {
				items = append(items, readline.PcItem(obj.Name))
			}
		}
	}

	// Add dot-commands
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".objects"),
		readline.PcItem(".describe"),
		readline.PcItem(".translate"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
