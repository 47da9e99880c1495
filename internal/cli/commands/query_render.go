package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/forceql/forceql/pkg/core"
)

// resolveFormat maps the "auto" format to a concrete one: tables on a
// terminal, markdown when piped.
func resolveFormat(format string) string {
	if format != "" && format != "auto" {
		return format
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return "table"
	}
	return "md"
}

func renderResult(w io.Writer, res *core.QueryResult, format string) error {
	switch resolveFormat(format) {
	case "json":
		return renderJSON(w, res)
	case "csv":
		return renderCSV(w, res)
	case "md", "markdown":
		return renderMarkdown(w, res)
	default:
		return renderTable(w, res)
	}
}

func renderTable(w io.Writer, res *core.QueryResult) error {
	if len(res.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, values := range res.Rows {
		row := make(table.Row, len(res.Columns))
		for i := range res.Columns {
			row[i] = formatValue(values[i])
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(res.Rows))
	return nil
}

func renderJSON(w io.Writer, res *core.QueryResult) error {
	records := make([]map[string]any, 0, len(res.Rows))
	for _, values := range res.Rows {
		record := make(map[string]any, len(res.Columns))
		for i, col := range res.Columns {
			record[col] = values[i]
		}
		records = append(records, record)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func renderCSV(w io.Writer, res *core.QueryResult) error {
	_, _ = fmt.Fprintln(w, strings.Join(res.Columns, ","))
	for _, values := range res.Rows {
		cells := make([]string, len(res.Columns))
		for i := range res.Columns {
			cells[i] = escapeCSV(formatValue(values[i]))
		}
		_, _ = fmt.Fprintln(w, strings.Join(cells, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, res *core.QueryResult) error {
	if len(res.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(res.Columns, " | "))
	seps := make([]string, len(res.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, values := range res.Rows {
		cells := make([]string, len(res.Columns))
		for i := range res.Columns {
			cells[i] = formatValue(values[i])
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	return nil
}

func renderExecResult(w io.Writer, res *core.ExecResult, format string) error {
	if resolveFormat(format) == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"rows_affected": res.RowsAffected,
			"inserted_ids":  res.InsertedIDs,
		})
	}
	_, _ = fmt.Fprintf(w, "(%d rows affected)\n", res.RowsAffected)
	for _, id := range res.InsertedIDs {
		_, _ = fmt.Fprintf(w, "  %s\n", id)
	}
	return nil
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
