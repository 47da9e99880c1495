package salesforce

import (
	"sort"

	"github.com/forceql/forceql/pkg/core"
	"github.com/forceql/forceql/pkg/soql"
)

// flattenRecord turns a nested API record into a flat map keyed by dotted
// field path. The attributes envelope is dropped at every level; nested
// parent records flatten recursively, so {"Account": {"Name": "x"}} becomes
// {"Account.Name": "x"}.
func flattenRecord(rec map[string]any) core.Record {
	out := make(core.Record, len(rec))
	flattenInto(out, "", rec)
	return out
}

func flattenInto(out core.Record, prefix string, rec map[string]any) {
	for key, val := range rec {
		if key == "attributes" {
			continue
		}
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			if _, isRecord := nested["attributes"]; isRecord {
				flattenInto(out, path, nested)
				continue
			}
		}
		out[path] = val
	}
}

// buildResult materializes API records into a columnar result.
func buildResult(q *soql.Query, records []map[string]any) (*core.QueryResult, error) {
	flat := make([]core.Record, len(records))
	for i, rec := range records {
		flat[i] = flattenRecord(rec)
	}

	columns := make([]string, 0, len(q.Columns))
	paths := make([]string, 0, len(q.Columns))
	for _, col := range q.Columns {
		columns = append(columns, col.Name)
		paths = append(paths, col.Path)
	}

	// Wildcard queries only learn their columns from the response.
	if q.Wildcard {
		columns = wildcardColumns(flat)
		paths = columns
	}

	rows := make([][]any, len(flat))
	for i, rec := range flat {
		row := make([]any, len(paths))
		for j, p := range paths {
			row[j] = rec[p]
		}
		rows[i] = row
	}

	return &core.QueryResult{Columns: columns, Rows: rows}, nil
}

// wildcardColumns derives a stable column order from the union of record
// keys: Id first, the rest sorted.
func wildcardColumns(records []core.Record) []string {
	seen := map[string]bool{}
	for _, rec := range records {
		for k := range rec {
			seen[k] = true
		}
	}

	cols := make([]string, 0, len(seen))
	for k := range seen {
		if k != "Id" && k != "id" {
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)

	switch {
	case seen["Id"]:
		cols = append([]string{"Id"}, cols...)
	case seen["id"]:
		cols = append([]string{"id"}, cols...)
	}
	return cols
}

// emptyResult is the materialization of a query whose filters cannot match.
func emptyResult(q *soql.Query) *core.QueryResult {
	columns := make([]string, 0, len(q.Columns))
	for _, col := range q.Columns {
		columns = append(columns, col.Name)
	}
	return &core.QueryResult{Columns: columns, Rows: [][]any{}}
}
