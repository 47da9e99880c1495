// Package soql translates parsed SQL statements into SOQL, the remote query
// language. Relational joins collapse into dotted relationship paths, the
// WHERE tree is rewritten with SOQL's negation and null-comparison rules, and
// ? placeholders are bound as correctly quoted SOQL literals.
//
// The translation deliberately mirrors how the platform models relationships:
// every join must run from a foreign key to the primary key, and a query has
// exactly one top-level object. Queries that cannot be expressed that way are
// rejected rather than approximated.
package soql

import (
	"fmt"

	"github.com/forceql/forceql/pkg/parser"
)

// Options controls the translation.
type Options struct {
	// PKField is the primary-key field name joins are matched against
	// ("Id" unless the org maps lowercase ids).
	PKField string

	// QueryAll routes the query to the queryAll endpoint so soft-deleted
	// rows are included.
	QueryAll bool

	// MinimalAliases strips the root-object prefix from every field path.
	// Required for a handful of objects; see minimalAliasObjects.
	MinimalAliases bool
}

// pkField returns the configured primary-key field name or "Id".
func (o Options) pkField() string {
	if o.PKField != "" {
		return o.PKField
	}
	return "Id"
}

// minimalAliasObjects are objects the platform refuses to serve when field
// paths carry the root object prefix.
var minimalAliasObjects = map[string]bool{
	"ContentDocumentLink":  true,
	"ContentFolderItem":    true,
	"ContentFolderMember":  true,
	"IdeaComment":          true,
	"Vote":                 true,
}

// Column describes one output column of a translated query.
type Column struct {
	// Name is the SQL-visible column label (alias or field path).
	Name string

	// Path is the extraction path into a result record, relative to the
	// root object ("Account.Name"). Aggregate columns use the server
	// naming (alias or exprN).
	Path string
}

// Query is a translated SELECT ready for execution.
type Query struct {
	SOQL     string
	Columns  []Column
	QueryAll bool

	// Aggregate marks grouped or aggregated queries, whose result rows
	// are keyed by expression labels instead of field paths.
	Aggregate bool

	// Wildcard marks FIELDS(ALL) queries whose column set is only known
	// from the response.
	Wildcard bool

	// Empty marks a query whose filters can match nothing; no API call
	// is needed and an empty result should be returned directly.
	Empty bool

	// Warnings are non-fatal translation notes (e.g. ignored aliases).
	Warnings []string
}

// TranslateError reports a statement that cannot be expressed in SOQL.
type TranslateError struct {
	Message string
}

func (e *TranslateError) Error() string {
	return "cannot translate to SOQL: " + e.Message
}

func translateErrorf(format string, args ...any) error {
	return &TranslateError{Message: fmt.Sprintf(format, args...)}
}

// BindError reports a placeholder/argument mismatch.
type BindError struct {
	Index int
	Count int
}

func (e *BindError) Error() string {
	return fmt.Sprintf("placeholder %d out of range: %d argument(s) supplied", e.Index+1, e.Count)
}

// aggregateFuncs are the aggregate functions SOQL accepts.
var aggregateFuncs = map[string]bool{
	"COUNT":          true,
	"COUNT_DISTINCT": true,
	"SUM":            true,
	"AVG":            true,
	"MIN":            true,
	"MAX":            true,
}

// TranslateSelect translates a parsed SELECT into a SOQL query, binding any
// ? placeholders from args.
func TranslateSelect(stmt *parser.SelectStmt, args []any, opts Options) (*Query, error) {
	t := &translator{opts: opts, args: args}
	return t.translateSelect(stmt)
}

// Translate parses and translates a SQL SELECT in one step.
func Translate(sql string, args []any, opts Options) (*Query, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*parser.SelectStmt)
	if !ok {
		return nil, translateErrorf("expected a SELECT statement")
	}
	return TranslateSelect(sel, args, opts)
}
