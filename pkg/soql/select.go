package soql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/forceql/forceql/pkg/parser"
)

// translator carries per-statement translation state.
type translator struct {
	opts     Options
	args     []any
	topo     *topology
	warnings []string
	exprSeq  int // server-side numbering of unaliased aggregates
}

func (t *translator) warnf(format string, args ...any) {
	t.warnings = append(t.warnings, fmt.Sprintf(format, args...))
}

// translateSelect renders a SELECT statement as SOQL.
func (t *translator) translateSelect(stmt *parser.SelectStmt) (*Query, error) {
	topo, err := resolveTopology(stmt.From, t.opts)
	if err != nil {
		return nil, err
	}
	t.topo = topo

	q := &Query{QueryAll: t.opts.QueryAll}

	cols, colsSQL, err := t.renderSelectList(stmt, q)
	if err != nil {
		return nil, err
	}
	q.Columns = cols

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(colsSQL, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(topo.rootObject)

	if stmt.Where != nil {
		where, err := t.renderCondition(stmt.Where)
		switch {
		case err == errEmptySet:
			q.Empty = true
		case err == errFullSet:
			// matches everything; omit WHERE
		case err != nil:
			return nil, err
		default:
			sb.WriteString(" WHERE ")
			sb.WriteString(where)
		}
	}

	if len(stmt.GroupBy) > 0 {
		q.Aggregate = true
		groups := make([]string, 0, len(stmt.GroupBy))
		for _, g := range stmt.GroupBy {
			col, ok := g.(*parser.ColumnRef)
			if !ok {
				return nil, translateErrorf("GROUP BY supports plain fields only")
			}
			path, err := t.topo.fieldPath(col)
			if err != nil {
				return nil, err
			}
			groups = append(groups, path)
		}
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(groups, ", "))
	}

	if stmt.Having != nil {
		having, err := t.renderCondition(stmt.Having)
		switch {
		case err == errEmptySet:
			q.Empty = true
		case err == errFullSet:
			// omit HAVING
		case err != nil:
			return nil, err
		default:
			sb.WriteString(" HAVING ")
			sb.WriteString(having)
		}
	}

	if len(stmt.OrderBy) > 0 {
		ordering := make([]string, 0, len(stmt.OrderBy))
		for _, item := range stmt.OrderBy {
			o, err := t.renderOrderItem(item)
			if err != nil {
				return nil, err
			}
			ordering = append(ordering, o)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(ordering, ", "))
	}

	limit, offset, empty, err := t.renderLimits(stmt)
	if err != nil {
		return nil, err
	}
	if empty {
		q.Empty = true
	}
	if limit != "" {
		sb.WriteString(" LIMIT ")
		sb.WriteString(limit)
	}
	if offset != "" {
		sb.WriteString(" OFFSET ")
		sb.WriteString(offset)
	}

	if stmt.Distinct {
		// SOQL has no DISTINCT; GROUP BY over the selected fields is the
		// translation, and it only works for plain field lists.
		return nil, translateErrorf("DISTINCT is not supported; use GROUP BY")
	}

	q.SOQL = sb.String()
	q.Warnings = t.warnings
	return q, nil
}

// renderSelectList renders the select list and derives the output columns.
func (t *translator) renderSelectList(stmt *parser.SelectStmt, q *Query) ([]Column, []string, error) {
	var (
		cols []Column
		sql  []string
	)
	for _, item := range stmt.Columns {
		switch {
		case item.Star:
			// FIELDS(ALL) defers the column set to the response. The
			// platform caps such queries at 200 rows.
			q.Wildcard = true
			sql = append(sql, "FIELDS(ALL)")

		case item.TableStar != "":
			return nil, nil, translateErrorf(
				"qualified wildcard %s.* is not supported; list fields explicitly", item.TableStar)

		default:
			name, rendered, err := t.renderSelectItem(item, q)
			if err != nil {
				return nil, nil, err
			}
			cols = append(cols, name)
			sql = append(sql, rendered)
		}
	}
	if len(sql) == 0 {
		return nil, nil, translateErrorf("empty select list")
	}
	return cols, sql, nil
}

// renderSelectItem renders one select expression with its output column.
func (t *translator) renderSelectItem(item parser.SelectItem, q *Query) (Column, string, error) {
	switch e := item.Expr.(type) {
	case *parser.ColumnRef:
		path, err := t.topo.fieldPath(e)
		if err != nil {
			return Column{}, "", err
		}
		rel, err := t.topo.relativePath(e)
		if err != nil {
			return Column{}, "", err
		}
		name := rel
		if item.Alias != "" {
			// Plain fields cannot be aliased in SOQL; the alias only
			// names the output column.
			t.warnf("alias %q on plain field %s applies to output only", item.Alias, path)
			name = item.Alias
		}
		return Column{Name: name, Path: rel}, path, nil

	case *parser.FuncCall:
		fname := strings.ToUpper(e.Name)
		if !aggregateFuncs[fname] {
			return Column{}, "", translateErrorf("function %s is not supported", e.Name)
		}
		q.Aggregate = true

		var arg string
		switch {
		case e.Star:
			if fname != "COUNT" {
				return Column{}, "", translateErrorf("%s(*) is not supported", fname)
			}
			// COUNT(*) -> COUNT(<pk>) so the result comes back as a
			// regular aggregate row.
			arg = t.opts.pkField()
		case len(e.Args) == 1:
			col, ok := e.Args[0].(*parser.ColumnRef)
			if !ok {
				return Column{}, "", translateErrorf("%s accepts a plain field argument", fname)
			}
			path, err := t.topo.fieldPath(col)
			if err != nil {
				return Column{}, "", err
			}
			arg = path
		default:
			return Column{}, "", translateErrorf("%s takes exactly one argument", fname)
		}

		rendered := fmt.Sprintf("%s(%s)", fname, arg)
		// Aggregates take an alias without AS; unaliased aggregates are
		// named expr0..exprN by the server.
		if item.Alias != "" {
			rendered += " " + item.Alias
			return Column{Name: item.Alias, Path: item.Alias}, rendered, nil
		}
		label := "expr" + strconv.Itoa(t.exprSeq)
		t.exprSeq++
		return Column{Name: label, Path: label}, rendered, nil

	default:
		return Column{}, "", translateErrorf("unsupported expression in select list")
	}
}

// renderOrderItem renders one ORDER BY entry, including NULLS FIRST/LAST
// which the remote language supports natively.
func (t *translator) renderOrderItem(item parser.OrderByItem) (string, error) {
	col, ok := item.Expr.(*parser.ColumnRef)
	if !ok {
		return "", translateErrorf("ORDER BY supports plain fields only")
	}
	path, err := t.topo.fieldPath(col)
	if err != nil {
		return "", err
	}
	s := path
	if item.Desc {
		s += " DESC"
	}
	if item.NullsFirst != nil {
		if *item.NullsFirst {
			s += " NULLS FIRST"
		} else {
			s += " NULLS LAST"
		}
	}
	return s, nil
}

// renderLimits renders LIMIT/OFFSET. A zero limit short-circuits to an empty
// result without any API call.
func (t *translator) renderLimits(stmt *parser.SelectStmt) (limit, offset string, empty bool, err error) {
	if stmt.Limit != nil {
		n, err := t.intValue(stmt.Limit)
		if err != nil {
			return "", "", false, err
		}
		if n < 0 {
			return "", "", false, translateErrorf("negative LIMIT")
		}
		if n == 0 {
			return "", "", true, nil
		}
		limit = strconv.FormatInt(n, 10)
	}
	if stmt.Offset != nil {
		n, err := t.intValue(stmt.Offset)
		if err != nil {
			return "", "", false, err
		}
		if n < 0 {
			return "", "", false, translateErrorf("negative OFFSET")
		}
		if n > 0 {
			offset = strconv.FormatInt(n, 10)
		}
	}
	return limit, offset, empty, nil
}

// intValue resolves a LIMIT/OFFSET expression to an integer.
func (t *translator) intValue(expr parser.Expr) (int64, error) {
	switch e := expr.(type) {
	case *parser.Literal:
		if e.Type != parser.LiteralNumber {
			return 0, translateErrorf("LIMIT/OFFSET must be a number")
		}
		n, err := strconv.ParseInt(e.Value, 10, 64)
		if err != nil {
			return 0, translateErrorf("invalid LIMIT/OFFSET %q", e.Value)
		}
		return n, nil
	case *parser.UnaryExpr:
		if e.Op == parser.TOKEN_MINUS {
			n, err := t.intValue(e.Expr)
			if err != nil {
				return 0, err
			}
			return -n, nil
		}
		return 0, translateErrorf("LIMIT/OFFSET must be a number or placeholder")
	case *parser.Param:
		if e.Index >= len(t.args) {
			return 0, &BindError{Index: e.Index, Count: len(t.args)}
		}
		switch v := t.args[e.Index].(type) {
		case int:
			return int64(v), nil
		case int32:
			return int64(v), nil
		case int64:
			return v, nil
		default:
			return 0, translateErrorf("LIMIT/OFFSET argument must be an integer, got %T", v)
		}
	default:
		return 0, translateErrorf("LIMIT/OFFSET must be a number or placeholder")
	}
}
