package parser

import "fmt"

// Expression precedence parsing using a Pratt parser.
//
// Precedence levels:
//
//	precNone       = 0
//	precOr         = 1
//	precAnd        = 2
//	precNot        = 3
//	precComparison = 4  (=, !=, <, >, <=, >=, IS, IN, BETWEEN, LIKE)
//	precAddition   = 5  (+, -)
//	precMultiply   = 6  (*, /)
//	precUnary      = 7  (-, NOT)
const (
	precNone = iota
	precOr
	precAnd
	precNot
	precComparison
	precAddition
	precMultiply
	precUnary
)

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() Expr {
	return p.parseExpressionWithPrecedence(precNone + 1)
}

// parseExpressionWithPrecedence implements Pratt parsing.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) Expr {
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	for {
		prec := p.infixPrecedence(p.token.Type)
		if prec < minPrecedence {
			break
		}
		left = p.parseInfixExpr(left, prec)
		if left == nil {
			break
		}
	}
	return left
}

// parsePrefixExpr parses prefix expressions (unary operators and primaries).
func (p *Parser) parsePrefixExpr() Expr {
	switch p.token.Type {
	case TOKEN_NOT:
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precNot)
		return &UnaryExpr{Op: TOKEN_NOT, Expr: expr}

	case TOKEN_MINUS:
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precUnary)
		return &UnaryExpr{Op: TOKEN_MINUS, Expr: expr}

	default:
		return p.parsePrimary()
	}
}

// infixPrecedence returns the precedence of a token as an infix operator,
// or precNone if it is not one.
func (p *Parser) infixPrecedence(t TokenType) int {
	switch t {
	case TOKEN_OR:
		return precOr
	case TOKEN_AND:
		return precAnd
	case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_GT, TOKEN_LE, TOKEN_GE,
		TOKEN_IS, TOKEN_IN, TOKEN_BETWEEN, TOKEN_LIKE:
		return precComparison
	case TOKEN_NOT:
		// NOT as infix modifier (NOT IN, NOT LIKE, NOT BETWEEN)
		return precComparison
	case TOKEN_PLUS, TOKEN_MINUS:
		return precAddition
	case TOKEN_STAR, TOKEN_SLASH:
		return precMultiply
	default:
		return precNone
	}
}

// parseInfixExpr parses an infix expression given the left operand.
func (p *Parser) parseInfixExpr(left Expr, prec int) Expr {
	switch p.token.Type {
	case TOKEN_NOT:
		return p.parseNotInfixExpr(left)

	case TOKEN_IS:
		return p.parseIsExpr(left)

	case TOKEN_IN:
		p.nextToken()
		return p.parseInExpr(left, false)

	case TOKEN_BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, false)

	case TOKEN_LIKE:
		p.nextToken()
		return &LikeExpr{Expr: left, Pattern: p.parseExpressionWithPrecedence(precComparison + 1)}
	}

	op := p.token
	p.nextToken()

	// Parse right operand with higher precedence (left-associative).
	right := p.parseExpressionWithPrecedence(prec + 1)
	return &BinaryExpr{Left: left, Op: op.Type, Right: right}
}

// parseNotInfixExpr handles NOT as an infix modifier (NOT IN, NOT BETWEEN,
// NOT LIKE).
func (p *Parser) parseNotInfixExpr(left Expr) Expr {
	p.nextToken() // consume NOT

	switch p.token.Type {
	case TOKEN_IN:
		p.nextToken()
		return p.parseInExpr(left, true)

	case TOKEN_BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, true)

	case TOKEN_LIKE:
		p.nextToken()
		return &LikeExpr{Expr: left, Not: true, Pattern: p.parseExpressionWithPrecedence(precComparison + 1)}

	default:
		p.addError("expected IN, BETWEEN or LIKE after NOT")
		return left
	}
}

// parseIsExpr parses IS [NOT] NULL.
func (p *Parser) parseIsExpr(left Expr) Expr {
	p.nextToken() // consume IS
	isNot := p.match(TOKEN_NOT)
	if !p.expect(TOKEN_NULL) {
		return left
	}
	return &IsNullExpr{Expr: left, Not: isNot}
}

// parseInExpr parses the parenthesized value list of IN.
func (p *Parser) parseInExpr(left Expr, not bool) Expr {
	expr := &InExpr{Expr: left, Not: not}
	if !p.expect(TOKEN_LPAREN) {
		return expr
	}
	if !p.check(TOKEN_RPAREN) {
		expr.List = p.parseExprList()
	}
	p.expect(TOKEN_RPAREN)
	return expr
}

// parseBetweenExpr parses BETWEEN low AND high.
func (p *Parser) parseBetweenExpr(left Expr, not bool) Expr {
	low := p.parseExpressionWithPrecedence(precComparison + 1)
	if !p.expect(TOKEN_AND) {
		return left
	}
	high := p.parseExpressionWithPrecedence(precComparison + 1)
	return &BetweenExpr{Expr: left, Not: not, Low: low, High: high}
}

// parsePrimary parses primary expressions: literals, params, column
// references, function calls and parenthesized expressions.
func (p *Parser) parsePrimary() Expr {
	switch p.token.Type {
	case TOKEN_NUMBER:
		lit := &Literal{Type: LiteralNumber, Value: p.token.Literal}
		p.nextToken()
		return lit

	case TOKEN_STRING:
		lit := &Literal{Type: LiteralString, Value: p.token.Literal}
		p.nextToken()
		return lit

	case TOKEN_TRUE:
		p.nextToken()
		return &Literal{Type: LiteralBool, Value: "true"}

	case TOKEN_FALSE:
		p.nextToken()
		return &Literal{Type: LiteralBool, Value: "false"}

	case TOKEN_NULL:
		p.nextToken()
		return &Literal{Type: LiteralNull, Value: "null"}

	case TOKEN_PARAM:
		expr := &Param{Index: p.paramCount}
		p.paramCount++
		p.nextToken()
		return expr

	case TOKEN_LPAREN:
		p.nextToken()
		inner := p.parseExpression()
		p.expect(TOKEN_RPAREN)
		return &ParenExpr{Expr: inner}

	case TOKEN_IDENT:
		return p.parseIdentExpr()

	default:
		p.addError(fmt.Sprintf("unexpected token %s in expression", p.token.Type))
		p.nextToken()
		return nil
	}
}

// parseIdentExpr parses an identifier-led expression: a function call, a
// qualified column, or a bare column.
func (p *Parser) parseIdentExpr() Expr {
	name := p.token.Literal
	p.nextToken()

	// Function call
	if p.check(TOKEN_LPAREN) {
		p.nextToken()
		fn := &FuncCall{Name: name}
		fn.Distinct = p.match(TOKEN_DISTINCT)
		if p.check(TOKEN_STAR) {
			fn.Star = true
			p.nextToken()
		} else if !p.check(TOKEN_RPAREN) {
			fn.Args = p.parseExprList()
		}
		p.expect(TOKEN_RPAREN)
		return fn
	}

	// Qualified column: table.column (a single level of qualification;
	// deeper paths are produced by the translator, not accepted as input)
	if p.check(TOKEN_DOT) {
		p.nextToken()
		if p.check(TOKEN_IDENT) {
			col := &ColumnRef{Table: name, Column: p.token.Literal}
			p.nextToken()
			return col
		}
		p.addError(fmt.Sprintf("expected column name after %q.", name))
		return &ColumnRef{Column: name}
	}

	return &ColumnRef{Column: name}
}
