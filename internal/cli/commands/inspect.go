package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forceql/forceql/internal/introspect"
	"github.com/forceql/forceql/internal/schemacache"
	"github.com/forceql/forceql/pkg/core"
)

// InspectOptions holds options for the inspect command.
type InspectOptions struct {
	Package      string
	Output       string
	All          bool
	SkipReadOnly bool
	NoCache      bool
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect [object...]",
		Short: "Generate Go models from org metadata",
		Long: `Introspect object metadata and generate Go struct declarations.

Each named object becomes a struct with one field per column, typed from
the remote field type. The fetched metadata is also written to the local
schema cache so 'objects --cached' and 'describe --cached' work offline.`,
		Example: `  # Generate models for two objects to stdout
  forceql inspect Account Contact

  # Generate models for every queryable object into a file
  forceql inspect --all --output models_gen.go

  # Custom package name, skipping formula and system fields
  forceql inspect Account --package sfmodels --skip-read-only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Package, "package", "models", "Package name for the generated file")
	cmd.Flags().StringVarP(&opts.Output, "output", "O", "", "Write generated code to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.All, "all", false, "Inspect every queryable object")
	cmd.Flags().BoolVar(&opts.SkipReadOnly, "skip-read-only", false, "Drop fields that can be neither created nor updated")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Skip writing the schema cache")

	return cmd
}

// bulkDescriber is implemented by adapters that can fetch several
// describes concurrently.
type bulkDescriber interface {
	DescribeObjects(ctx context.Context, names []string) ([]*core.ObjectMetadata, error)
}

func runInspect(cmd *cobra.Command, args []string, opts *InspectOptions) error {
	if len(args) == 0 && !opts.All {
		return fmt.Errorf("name at least one object, or pass --all")
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()

	names := args
	if opts.All {
		objects, err := cmdCtx.Adapter.ListObjects(ctx)
		if err != nil {
			return err
		}
		names = names[:0]
		for _, obj := range objects {
			if obj.Queryable {
				names = append(names, obj.Name)
			}
		}
	}

	metas, err := describeAll(ctx, cmdCtx, names)
	if err != nil {
		return err
	}

	if !opts.NoCache {
		if err := saveSchemaCache(cmdCtx, metas); err != nil {
			cmdCtx.Logger.Warn("failed to write schema cache", "error", err)
		}
	}

	code, err := introspect.GenerateModels(metas, introspect.Options{
		Package:      opts.Package,
		SkipReadOnly: opts.SkipReadOnly,
	})
	if err != nil {
		return err
	}

	if opts.Output == "" {
		_, err = cmd.OutOrStdout().Write(code)
		return err
	}
	if dir := filepath.Dir(opts.Output); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(opts.Output, code, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.Output, err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Generated %d models in %s\n", len(metas), opts.Output)
	return nil
}

func describeAll(ctx context.Context, cmdCtx *CommandContext, names []string) ([]*core.ObjectMetadata, error) {
	if bd, ok := cmdCtx.Adapter.(bulkDescriber); ok {
		return bd.DescribeObjects(ctx, names)
	}
	metas := make([]*core.ObjectMetadata, 0, len(names))
	for _, name := range names {
		meta, err := cmdCtx.Adapter.DescribeObject(ctx, name)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

func saveSchemaCache(cmdCtx *CommandContext, metas []*core.ObjectMetadata) error {
	path := cmdCtx.Cfg.CachePath
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	store, err := schemacache.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	conn := cmdCtx.Cfg.ConnectionConfig()
	_, err = store.SaveSnapshot(cmdCtx.Cfg.Host, conn.EffectiveAPIVersion(), metas)
	return err
}
