package soql

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/forceql/forceql/pkg/parser"
)

// Sentinel results for condition subtrees that statically match nothing or
// everything. They propagate through AND/OR so impossible filters never reach
// the wire and tautologies drop out of the rendered clause.
var (
	errEmptySet = errors.New("condition matches nothing")
	errFullSet  = errors.New("condition matches everything")
)

// renderCondition renders a boolean expression for WHERE or HAVING.
func (t *translator) renderCondition(expr parser.Expr) (string, error) {
	switch e := expr.(type) {
	case *parser.ParenExpr:
		return t.renderCondition(e.Expr)

	case *parser.BinaryExpr:
		switch e.Op {
		case parser.TOKEN_AND, parser.TOKEN_OR:
			return t.renderConnector(e)
		default:
			return t.renderComparison(e)
		}

	case *parser.UnaryExpr:
		if e.Op != parser.TOKEN_NOT {
			return "", translateErrorf("unsupported unary operator in condition")
		}
		inner, err := t.renderCondition(e.Expr)
		switch {
		case err == errEmptySet:
			return "", errFullSet
		case err == errFullSet:
			return "", errEmptySet
		case err != nil:
			return "", err
		}
		// The remote language requires parentheses around a negated
		// expression when it is combined with AND/OR.
		return fmt.Sprintf("(NOT (%s))", inner), nil

	case *parser.IsNullExpr:
		field, err := t.renderFieldOperand(e.Expr)
		if err != nil {
			return "", err
		}
		if e.Not {
			return field + " != null", nil
		}
		return field + " = null", nil

	case *parser.InExpr:
		return t.renderIn(e)

	case *parser.LikeExpr:
		field, err := t.renderFieldOperand(e.Expr)
		if err != nil {
			return "", err
		}
		pattern, err := t.renderValueOperand(e.Pattern)
		if err != nil {
			return "", err
		}
		like := fmt.Sprintf("%s LIKE %s", field, pattern)
		if e.Not {
			return fmt.Sprintf("(NOT (%s))", like), nil
		}
		return like, nil

	case *parser.BetweenExpr:
		return t.renderBetween(e)

	case *parser.Literal:
		switch e.Type {
		case parser.LiteralBool:
			if e.Value == "true" {
				return "", errFullSet
			}
			return "", errEmptySet
		default:
			return "", translateErrorf("literal %q is not a condition", e.Value)
		}

	case *parser.ColumnRef:
		// A bare boolean field filters on true.
		field, err := t.topo.fieldPath(e)
		if err != nil {
			return "", err
		}
		return field + " = true", nil

	case *parser.Param:
		val, err := t.bindParam(e)
		if err != nil {
			return "", err
		}
		switch val {
		case "true":
			return "", errFullSet
		case "false":
			return "", errEmptySet
		}
		return "", translateErrorf("placeholder is not a condition")

	default:
		return "", translateErrorf("unsupported expression in condition")
	}
}

// renderConnector renders an AND/OR subtree, flattening chains of the same
// connector and applying the full/empty short-circuit counting.
func (t *translator) renderConnector(e *parser.BinaryExpr) (string, error) {
	children := flattenConnector(e, e.Op)
	connector := " AND "
	if e.Op == parser.TOKEN_OR {
		connector = " OR "
	}

	fullNeeded, emptyNeeded := len(children), 1
	if e.Op == parser.TOKEN_OR {
		fullNeeded, emptyNeeded = 1, len(children)
	}

	var parts []string
	for _, child := range children {
		sql, err := t.renderCondition(child)
		switch {
		case err == errEmptySet:
			emptyNeeded--
		case err == errFullSet:
			fullNeeded--
		case err != nil:
			return "", err
		default:
			parts = append(parts, sql)
		}
		if emptyNeeded == 0 {
			return "", errEmptySet
		}
		if fullNeeded == 0 {
			return "", errFullSet
		}
	}

	switch len(parts) {
	case 0:
		return "", errFullSet
	case 1:
		return parts[0], nil
	default:
		return "(" + strings.Join(parts, connector) + ")", nil
	}
}

// flattenConnector collects the operand chain of a left-nested AND/OR tree.
func flattenConnector(expr parser.Expr, op parser.TokenType) []parser.Expr {
	if be, ok := expr.(*parser.BinaryExpr); ok && be.Op == op {
		return append(flattenConnector(be.Left, op), flattenConnector(be.Right, op)...)
	}
	return []parser.Expr{expr}
}

// comparisonOps maps SQL comparison tokens to SOQL operators and their
// mirror for reversed operand order.
var comparisonOps = map[parser.TokenType]struct{ op, mirror string }{
	parser.TOKEN_EQ: {"=", "="},
	parser.TOKEN_NE: {"!=", "!="},
	parser.TOKEN_LT: {"<", ">"},
	parser.TOKEN_GT: {">", "<"},
	parser.TOKEN_LE: {"<=", ">="},
	parser.TOKEN_GE: {">=", "<="},
}

// renderComparison renders a comparison, normalizing value-op-field order.
func (t *translator) renderComparison(e *parser.BinaryExpr) (string, error) {
	ops, ok := comparisonOps[e.Op]
	if !ok {
		return "", translateErrorf("operator %s is not supported in conditions", e.Op)
	}

	if isFieldOperand(e.Left) {
		field, err := t.renderFieldOperand(e.Left)
		if err != nil {
			return "", err
		}
		value, err := t.renderValueOperand(e.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", field, ops.op, value), nil
	}

	if isFieldOperand(e.Right) {
		field, err := t.renderFieldOperand(e.Right)
		if err != nil {
			return "", err
		}
		value, err := t.renderValueOperand(e.Left)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", field, ops.mirror, value), nil
	}

	return "", translateErrorf("comparison must reference a field")
}

// renderIn renders [NOT] IN, expanding slice arguments bound to a single
// placeholder. An empty list can match nothing (IN) or everything (NOT IN).
func (t *translator) renderIn(e *parser.InExpr) (string, error) {
	field, err := t.renderFieldOperand(e.Expr)
	if err != nil {
		return "", err
	}

	var values []string
	for _, item := range e.List {
		if p, ok := item.(*parser.Param); ok {
			if p.Index >= len(t.args) {
				return "", &BindError{Index: p.Index, Count: len(t.args)}
			}
			arg := t.args[p.Index]
			rv := reflect.ValueOf(arg)
			if arg != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
				if _, isBytes := arg.([]byte); !isBytes {
					for i := 0; i < rv.Len(); i++ {
						v, err := bindValue(rv.Index(i).Interface())
						if err != nil {
							return "", err
						}
						values = append(values, v)
					}
					continue
				}
			}
		}
		v, err := t.renderValueOperand(item)
		if err != nil {
			return "", err
		}
		values = append(values, v)
	}

	if len(values) == 0 {
		if e.Not {
			return "", errFullSet
		}
		return "", errEmptySet
	}

	op := "IN"
	if e.Not {
		op = "NOT IN"
	}
	return fmt.Sprintf("%s %s (%s)", field, op, strings.Join(values, ", ")), nil
}

// renderBetween expands BETWEEN, which the remote language does not have,
// into its range comparisons.
func (t *translator) renderBetween(e *parser.BetweenExpr) (string, error) {
	field, err := t.renderFieldOperand(e.Expr)
	if err != nil {
		return "", err
	}
	low, err := t.renderValueOperand(e.Low)
	if err != nil {
		return "", err
	}
	high, err := t.renderValueOperand(e.High)
	if err != nil {
		return "", err
	}
	if e.Not {
		return fmt.Sprintf("(%s < %s OR %s > %s)", field, low, field, high), nil
	}
	return fmt.Sprintf("(%s >= %s AND %s <= %s)", field, low, field, high), nil
}

// isFieldOperand reports whether the expression denotes a field or an
// aggregate over a field.
func isFieldOperand(expr parser.Expr) bool {
	switch expr.(type) {
	case *parser.ColumnRef, *parser.FuncCall:
		return true
	}
	return false
}

// renderFieldOperand renders the field side of a comparison: a column path
// or an aggregate call (for HAVING).
func (t *translator) renderFieldOperand(expr parser.Expr) (string, error) {
	switch e := expr.(type) {
	case *parser.ColumnRef:
		return t.topo.fieldPath(e)
	case *parser.FuncCall:
		fname := strings.ToUpper(e.Name)
		if !aggregateFuncs[fname] {
			return "", translateErrorf("function %s is not supported", e.Name)
		}
		var arg string
		switch {
		case e.Star:
			arg = t.opts.pkField()
		case len(e.Args) == 1:
			col, ok := e.Args[0].(*parser.ColumnRef)
			if !ok {
				return "", translateErrorf("%s accepts a plain field argument", fname)
			}
			path, err := t.topo.fieldPath(col)
			if err != nil {
				return "", err
			}
			arg = path
		default:
			return "", translateErrorf("%s takes exactly one argument", fname)
		}
		return fmt.Sprintf("%s(%s)", fname, arg), nil
	default:
		return "", translateErrorf("expected a field reference")
	}
}

// renderValueOperand renders the value side of a comparison.
func (t *translator) renderValueOperand(expr parser.Expr) (string, error) {
	switch e := expr.(type) {
	case *parser.Literal:
		switch e.Type {
		case parser.LiteralString:
			return QuoteString(e.Value), nil
		case parser.LiteralNumber:
			return renderNumber(e.Value)
		case parser.LiteralBool:
			return e.Value, nil
		case parser.LiteralNull:
			return "null", nil
		default:
			return "", translateErrorf("unsupported literal %q", e.Value)
		}
	case *parser.Param:
		return t.bindParam(e)
	case *parser.UnaryExpr:
		if e.Op == parser.TOKEN_MINUS {
			if lit, ok := e.Expr.(*parser.Literal); ok && lit.Type == parser.LiteralNumber {
				n, err := renderNumber(lit.Value)
				if err != nil {
					return "", err
				}
				return "-" + n, nil
			}
		}
		return "", translateErrorf("unsupported expression in value position")
	case *parser.ColumnRef:
		// Field-to-field comparisons are valid SOQL.
		return t.topo.fieldPath(e)
	default:
		return "", translateErrorf("unsupported expression in value position")
	}
}
