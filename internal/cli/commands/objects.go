package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/forceql/forceql/internal/schemacache"
	"github.com/forceql/forceql/pkg/core"
)

// ObjectsOptions holds options for the objects command.
type ObjectsOptions struct {
	Format string
	Cached bool
}

// NewObjectsCommand creates the objects command.
func NewObjectsCommand() *cobra.Command {
	opts := &ObjectsOptions{}

	cmd := &cobra.Command{
		Use:   "objects",
		Short: "List objects in the connected org",
		Long: `List the sobjects visible to the connected user.

With --cached, the list is read from the local schema cache written by
'forceql inspect' instead of the live org.`,
		Example: `  forceql objects
  forceql objects --format json
  forceql objects --cached`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runObjects(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, csv, md")
	cmd.Flags().BoolVar(&opts.Cached, "cached", false, "Read from the local schema cache")

	return cmd
}

func runObjects(cmd *cobra.Command, opts *ObjectsOptions) error {
	if opts.Cached {
		cmdCtx := NewCommandContextWithoutAdapter(cmd)
		format := effectiveFormat(opts.Format, cmdCtx.Cfg)
		return listCachedObjects(cmd.OutOrStdout(), cmdCtx, format)
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	format := effectiveFormat(opts.Format, cmdCtx.Cfg)
	return listObjectsTo(cmd.Context(), cmd.OutOrStdout(), cmdCtx, format)
}

func listObjectsTo(ctx context.Context, w io.Writer, cmdCtx *CommandContext, format string) error {
	objects, err := cmdCtx.Adapter.ListObjects(ctx)
	if err != nil {
		return err
	}
	return renderObjects(w, objects, format)
}

func listCachedObjects(w io.Writer, cmdCtx *CommandContext, format string) error {
	store, err := schemacache.Open(cmdCtx.Cfg.CachePath)
	if err != nil {
		return fmt.Errorf("failed to open schema cache: %w", err)
	}
	defer func() { _ = store.Close() }()

	objects, err := store.ListObjects(cmdCtx.Cfg.Host)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		return fmt.Errorf("schema cache is empty for %s (run 'forceql inspect' first)", cmdCtx.Cfg.Host)
	}
	return renderObjects(w, objects, format)
}

func renderObjects(w io.Writer, objects []core.ObjectSummary, format string) error {
	res := &core.QueryResult{
		Columns:   []string{"Name", "Label", "KeyPrefix", "Custom", "Queryable"},
		TotalSize: len(objects),
	}
	for _, obj := range objects {
		res.Rows = append(res.Rows, []any{obj.Name, obj.Label, obj.KeyPrefix, obj.Custom, obj.Queryable})
	}
	return renderResult(w, res, format)
}
