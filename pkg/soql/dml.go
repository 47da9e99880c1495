package soql

import (
	"fmt"
	"reflect"

	"github.com/forceql/forceql/pkg/parser"
)

// InsertPlan is a translated INSERT: one JSON body per row.
type InsertPlan struct {
	Object string
	Rows   []map[string]any
}

// UpdatePlan is a translated UPDATE. When the filter selects rows by primary
// key alone, IDs carries them and no read is needed; otherwise Where holds
// the rendered SOQL condition for an id prefetch. All marks an unfiltered
// (or tautological) update, Empty one that can match no rows.
type UpdatePlan struct {
	Object string
	Values map[string]any
	IDs    []string
	Where  string
	All    bool
	Empty  bool
}

// DeletePlan is a translated DELETE, filtered the same way as UpdatePlan.
type DeletePlan struct {
	Object string
	IDs    []string
	Where  string
	All    bool
	Empty  bool
}

// TranslateInsert translates a parsed INSERT, binding ? placeholders from
// args.
func TranslateInsert(stmt *parser.InsertStmt, args []any, opts Options) (*InsertPlan, error) {
	if stmt.Table.Name == "" {
		return nil, translateErrorf("INSERT requires an object name")
	}
	if len(stmt.Columns) == 0 {
		return nil, translateErrorf("INSERT requires an explicit column list")
	}

	t := &translator{opts: opts, args: args}
	plan := &InsertPlan{Object: stmt.Table.Name}
	for _, row := range stmt.Rows {
		if len(row) != len(stmt.Columns) {
			return nil, translateErrorf("INSERT row has %d values for %d columns", len(row), len(stmt.Columns))
		}
		body := make(map[string]any, len(row))
		for i, expr := range row {
			v, err := t.goValue(expr)
			if err != nil {
				return nil, err
			}
			body[stmt.Columns[i]] = v
		}
		plan.Rows = append(plan.Rows, body)
	}
	return plan, nil
}

// TranslateUpdate translates a parsed UPDATE.
func TranslateUpdate(stmt *parser.UpdateStmt, args []any, opts Options) (*UpdatePlan, error) {
	if stmt.Table.Name == "" {
		return nil, translateErrorf("UPDATE requires an object name")
	}
	if len(stmt.Assignments) == 0 {
		return nil, translateErrorf("UPDATE requires at least one assignment")
	}

	t := newDMLTranslator(stmt.Table.Name, args, opts)
	values := make(map[string]any, len(stmt.Assignments))
	for _, a := range stmt.Assignments {
		if a.Column == opts.pkField() {
			return nil, translateErrorf("the primary key cannot be updated")
		}
		v, err := t.goValue(a.Value)
		if err != nil {
			return nil, err
		}
		values[a.Column] = v
	}

	plan := &UpdatePlan{Object: stmt.Table.Name, Values: values}
	if err := t.resolveDMLFilter(stmt.Where, &plan.IDs, &plan.Where, &plan.All, &plan.Empty); err != nil {
		return nil, err
	}
	return plan, nil
}

// TranslateDelete translates a parsed DELETE.
func TranslateDelete(stmt *parser.DeleteStmt, args []any, opts Options) (*DeletePlan, error) {
	if stmt.Table.Name == "" {
		return nil, translateErrorf("DELETE requires an object name")
	}

	t := newDMLTranslator(stmt.Table.Name, args, opts)
	plan := &DeletePlan{Object: stmt.Table.Name}
	if err := t.resolveDMLFilter(stmt.Where, &plan.IDs, &plan.Where, &plan.All, &plan.Empty); err != nil {
		return nil, err
	}
	return plan, nil
}

// newDMLTranslator builds a translator over the single-object topology DML
// statements use.
func newDMLTranslator(object string, args []any, opts Options) *translator {
	return &translator{
		opts: opts,
		args: args,
		topo: &topology{
			root:       object,
			rootObject: object,
			paths:      map[string]string{object: object},
			minimal:    opts.MinimalAliases || minimalAliasObjects[object],
		},
	}
}

// resolveDMLFilter classifies a DML WHERE clause: primary-key ids when the
// filter is pk-only, a rendered condition otherwise.
func (t *translator) resolveDMLFilter(where parser.Expr, ids *[]string, cond *string, all *bool, empty *bool) error {
	if where == nil {
		*all = true
		return nil
	}

	if pkIDs, ok, err := t.extractPKFilter(where); err != nil {
		return err
	} else if ok {
		if len(pkIDs) == 0 {
			*empty = true
		}
		*ids = pkIDs
		return nil
	}

	sql, err := t.renderCondition(where)
	switch {
	case err == errEmptySet:
		*empty = true
		return nil
	case err == errFullSet:
		*all = true
		return nil
	case err != nil:
		return err
	}
	*cond = sql
	return nil
}

// extractPKFilter recognizes "pk = v", "pk IN (...)" and OR chains of those,
// returning the id values directly.
func (t *translator) extractPKFilter(expr parser.Expr) ([]string, bool, error) {
	pk := t.opts.pkField()

	switch e := expr.(type) {
	case *parser.ParenExpr:
		return t.extractPKFilter(e.Expr)

	case *parser.BinaryExpr:
		switch e.Op {
		case parser.TOKEN_EQ:
			val := e.Right
			if !pkColumn(e.Left, pk) {
				if !pkColumn(e.Right, pk) {
					return nil, false, nil
				}
				val = e.Left
			}
			id, err := t.idValue(val)
			if err != nil || id == "" {
				return nil, false, err
			}
			return []string{id}, true, nil
		case parser.TOKEN_OR:
			left, lok, err := t.extractPKFilter(e.Left)
			if err != nil || !lok {
				return nil, false, err
			}
			right, rok, err := t.extractPKFilter(e.Right)
			if err != nil || !rok {
				return nil, false, err
			}
			return append(left, right...), true, nil
		}
		return nil, false, nil

	case *parser.InExpr:
		if e.Not {
			return nil, false, nil
		}
		if !pkColumn(e.Expr, pk) {
			return nil, false, nil
		}
		var out []string
		for _, item := range e.List {
			if p, ok := item.(*parser.Param); ok {
				if p.Index >= len(t.args) {
					return nil, false, &BindError{Index: p.Index, Count: len(t.args)}
				}
				arg := t.args[p.Index]
				rv := reflect.ValueOf(arg)
				if arg != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
					if _, isBytes := arg.([]byte); !isBytes {
						for i := 0; i < rv.Len(); i++ {
							s, ok := stringID(rv.Index(i).Interface())
							if !ok {
								return nil, false, nil
							}
							out = append(out, s)
						}
						continue
					}
				}
			}
			id, err := t.idValue(item)
			if err != nil || id == "" {
				return nil, false, err
			}
			out = append(out, id)
		}
		return out, true, nil
	}
	return nil, false, nil
}

// pkColumn reports whether expr references the primary-key field.
func pkColumn(expr parser.Expr, pk string) bool {
	col, ok := expr.(*parser.ColumnRef)
	return ok && col.Column == pk
}

// idValue resolves a literal or placeholder to an id string. Returns "" when
// the expression is not an id-shaped value; the caller falls back to a
// rendered condition.
func (t *translator) idValue(expr parser.Expr) (string, error) {
	switch e := expr.(type) {
	case *parser.Literal:
		if e.Type == parser.LiteralString {
			return e.Value, nil
		}
		return "", nil
	case *parser.Param:
		if e.Index >= len(t.args) {
			return "", &BindError{Index: e.Index, Count: len(t.args)}
		}
		if s, ok := stringID(t.args[e.Index]); ok {
			return s, nil
		}
		return "", nil
	}
	return "", nil
}

// stringID coerces an argument to an id string.
func stringID(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	case fmt.Stringer:
		return s.String(), true
	}
	return "", false
}
