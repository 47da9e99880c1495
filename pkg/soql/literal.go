package soql

import (
	"strconv"
	"strings"
	"time"

	"github.com/forceql/forceql/pkg/parser"
)

// sfTimeFormat is the datetime literal layout SOQL expects. Datetime
// literals are not quoted.
const sfTimeFormat = "2006-01-02T15:04:05.000-0700"

// sfDateFormat is the date literal layout.
const sfDateFormat = "2006-01-02"

// QuoteString renders a string as a SOQL string literal. SOQL escapes with
// backslashes, not doubled quotes.
func QuoteString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// QuoteLikePattern renders a LIKE pattern, additionally escaping the SOQL
// wildcard escape character inside the pattern body is left to the caller;
// patterns arrive already in SQL LIKE syntax which SOQL shares.
func QuoteLikePattern(s string) string {
	return QuoteString(s)
}

// bindValue renders a Go value as a SOQL literal.
func bindValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case string:
		return QuoteString(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case time.Time:
		// Midnight UTC values are treated as plain dates.
		if val.Equal(val.Truncate(24 * time.Hour)) {
			return val.Format(sfDateFormat), nil
		}
		return val.Format(sfTimeFormat), nil
	case []byte:
		return QuoteString(string(val)), nil
	default:
		return "", translateErrorf("unsupported argument type %T", v)
	}
}

// bindParam resolves a placeholder against the argument list.
func (t *translator) bindParam(p *parser.Param) (string, error) {
	if p.Index >= len(t.args) {
		return "", &BindError{Index: p.Index, Count: len(t.args)}
	}
	return bindValue(t.args[p.Index])
}

// goValue resolves an expression to a plain Go value for the JSON DML body.
// Only literals and placeholders are allowed in DML positions.
func (t *translator) goValue(expr parser.Expr) (any, error) {
	switch e := expr.(type) {
	case *parser.Literal:
		switch e.Type {
		case parser.LiteralNull:
			return nil, nil
		case parser.LiteralBool:
			return e.Value == "true", nil
		case parser.LiteralString:
			return e.Value, nil
		case parser.LiteralNumber:
			if i, err := strconv.ParseInt(e.Value, 10, 64); err == nil {
				return i, nil
			}
			f, err := strconv.ParseFloat(e.Value, 64)
			if err != nil {
				return nil, translateErrorf("invalid number literal %q", e.Value)
			}
			return f, nil
		default:
			return nil, translateErrorf("unsupported literal %q", e.Value)
		}
	case *parser.Param:
		if e.Index >= len(t.args) {
			return nil, &BindError{Index: e.Index, Count: len(t.args)}
		}
		return normalizeDMLValue(t.args[e.Index]), nil
	case *parser.UnaryExpr:
		if e.Op == parser.TOKEN_MINUS {
			v, err := t.goValue(e.Expr)
			if err != nil {
				return nil, err
			}
			switch n := v.(type) {
			case int64:
				return -n, nil
			case float64:
				return -n, nil
			}
		}
		return nil, translateErrorf("unsupported expression in value position")
	default:
		return nil, translateErrorf("unsupported expression in value position")
	}
}

// normalizeDMLValue converts argument types the JSON encoder cannot express
// the way the API wants them.
func normalizeDMLValue(v any) any {
	if ts, ok := v.(time.Time); ok {
		return ts.Format(sfTimeFormat)
	}
	return v
}

// renderNumber validates a numeric literal for direct inclusion.
func renderNumber(raw string) (string, error) {
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return "", translateErrorf("invalid number literal %q", raw)
	}
	return raw, nil
}
