package core

// Record is a single remote row keyed by field path. Nested parent fields are
// flattened to dotted paths ("Account.Name").
type Record map[string]any

// QueryResult is a fully materialized result set in column order.
type QueryResult struct {
	// Columns are the selected field paths, in select-list order.
	Columns []string

	// Rows holds one value slice per record, aligned with Columns.
	Rows [][]any

	// TotalSize is the server-reported total row count for the query,
	// which can exceed len(Rows) when a page limit was applied.
	TotalSize int
}

// SaveResult reports the outcome of one DML row.
type SaveResult struct {
	ID      string
	Success bool
	Errors  []string
}

// ExecResult aggregates the outcome of a DML statement.
type ExecResult struct {
	RowsAffected int64
	InsertedIDs  []string
}
