package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/forceql/forceql/internal/schemacache"
	"github.com/forceql/forceql/pkg/core"
)

// DescribeOptions holds options for the describe command.
type DescribeOptions struct {
	Format string
	Cached bool
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	opts := &DescribeOptions{}

	cmd := &cobra.Command{
		Use:   "describe <object>",
		Short: "Show field metadata for an object",
		Long: `Fetch and display full field metadata for a single object.

With --cached, metadata is read from the local schema cache written by
'forceql inspect' instead of the live org.`,
		Example: `  forceql describe Account
  forceql describe Order__c --format yaml
  forceql describe Contact --cached`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, yaml")
	cmd.Flags().BoolVar(&opts.Cached, "cached", false, "Read from the local schema cache")

	return cmd
}

func runDescribe(cmd *cobra.Command, name string, opts *DescribeOptions) error {
	if opts.Cached {
		cmdCtx := NewCommandContextWithoutAdapter(cmd)

		store, err := schemacache.Open(cmdCtx.Cfg.CachePath)
		if err != nil {
			return fmt.Errorf("failed to open schema cache: %w", err)
		}
		defer func() { _ = store.Close() }()

		meta, err := store.GetObject(cmdCtx.Cfg.Host, name)
		if err != nil {
			return err
		}
		if meta == nil {
			return fmt.Errorf("object %q not in schema cache (run 'forceql inspect %s' first)", name, name)
		}
		return renderDescribe(cmd.OutOrStdout(), meta, effectiveFormat(opts.Format, cmdCtx.Cfg))
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	return describeObjectTo(cmd.Context(), cmd.OutOrStdout(), cmdCtx, name, effectiveFormat(opts.Format, cmdCtx.Cfg))
}

func describeObjectTo(ctx context.Context, w io.Writer, cmdCtx *CommandContext, name, format string) error {
	meta, err := cmdCtx.Adapter.DescribeObject(ctx, name)
	if err != nil {
		return err
	}
	return renderDescribe(w, meta, format)
}

// describeOutput is the serialized shape for json and yaml formats.
type describeOutput struct {
	Name       string          `json:"name" yaml:"name"`
	Label      string          `json:"label" yaml:"label"`
	KeyPrefix  string          `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
	Custom     bool            `json:"custom" yaml:"custom"`
	Queryable  bool            `json:"queryable" yaml:"queryable"`
	Createable bool            `json:"createable" yaml:"createable"`
	Updateable bool            `json:"updateable" yaml:"updateable"`
	Deletable  bool            `json:"deletable" yaml:"deletable"`
	Fields     []describeField `json:"fields" yaml:"fields"`
}

type describeField struct {
	Name           string   `json:"name" yaml:"name"`
	Label          string   `json:"label" yaml:"label"`
	Type           string   `json:"type" yaml:"type"`
	Length         int      `json:"length,omitempty" yaml:"length,omitempty"`
	Nillable       bool     `json:"nillable" yaml:"nillable"`
	Custom         bool     `json:"custom" yaml:"custom"`
	ReferenceTo    []string `json:"reference_to,omitempty" yaml:"reference_to,omitempty"`
	PicklistValues []string `json:"picklist_values,omitempty" yaml:"picklist_values,omitempty"`
}

func renderDescribe(w io.Writer, meta *core.ObjectMetadata, format string) error {
	switch resolveFormat(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(describeToOutput(meta))
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		defer func() { _ = enc.Close() }()
		return enc.Encode(describeToOutput(meta))
	default:
		return renderDescribeTable(w, meta, format)
	}
}

func describeToOutput(meta *core.ObjectMetadata) describeOutput {
	out := describeOutput{
		Name:       meta.Name,
		Label:      meta.Label,
		KeyPrefix:  meta.KeyPrefix,
		Custom:     meta.Custom,
		Queryable:  meta.Queryable,
		Createable: meta.Createable,
		Updateable: meta.Updateable,
		Deletable:  meta.Deletable,
	}
	for _, f := range meta.Fields {
		out.Fields = append(out.Fields, describeField{
			Name:           f.Name,
			Label:          f.Label,
			Type:           f.Type,
			Length:         f.Length,
			Nillable:       f.Nillable,
			Custom:         f.Custom,
			ReferenceTo:    f.ReferenceTo,
			PicklistValues: f.PicklistValues,
		})
	}
	return out
}

func renderDescribeTable(w io.Writer, meta *core.ObjectMetadata, format string) error {
	_, _ = fmt.Fprintf(w, "Object: %s (%s)\n", meta.Name, meta.Label)
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 60))

	res := &core.QueryResult{
		Columns:   []string{"Field", "Type", "Nillable", "Detail"},
		TotalSize: len(meta.Fields),
	}
	for _, f := range meta.Fields {
		res.Rows = append(res.Rows, []any{f.Name, fieldTypeLabel(f), f.Nillable, fieldDetail(f)})
	}
	return renderResult(w, res, format)
}

func fieldTypeLabel(f core.Field) string {
	if f.Length > 0 {
		return fmt.Sprintf("%s(%d)", f.Type, f.Length)
	}
	return f.Type
}

func fieldDetail(f core.Field) string {
	switch {
	case f.IsPrimaryKey():
		return "primary key"
	case f.IsReference():
		return "references " + strings.Join(f.ReferenceTo, ", ")
	case len(f.PicklistValues) > 0:
		return "values: " + strings.Join(f.PicklistValues, ", ")
	}
	return ""
}
