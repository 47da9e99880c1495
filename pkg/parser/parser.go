// Package parser provides SQL parsing for the relational frontend.
//
// # Usage
//
//	stmt, err := parser.Parse("SELECT Name FROM Contact WHERE Email = ?")
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar Overview
//
// The parser implements a recursive descent parser for the SQL subset that
// translates to the remote query language:
//
//	statement  → select_stmt | insert_stmt | update_stmt | delete_stmt
//	select_stmt→ SELECT [DISTINCT] select_list FROM table_ref join*
//	             [WHERE expr] [GROUP BY expr_list] [HAVING expr]
//	             [ORDER BY order_list] [LIMIT expr] [OFFSET expr]
//	join       → [INNER|LEFT] JOIN table_ref ON expr
//
// Placeholders (?) are numbered in appearance order and bound at translation
// time.
package parser

import "fmt"

// Parser parses SQL into an AST.
type Parser struct {
	lexer      *Lexer
	token      Token // current token
	peek       Token // lookahead token
	errors     []error
	paramCount int
}

// NewParser creates a new parser for the given SQL input.
func NewParser(sql string) *Parser {
	p := &Parser{
		lexer: NewLexer(sql),
	}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses the SQL input and returns the statement AST.
func Parse(sql string) (Statement, error) {
	p := NewParser(sql)
	stmt := p.parseStatement()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	if stmt == nil {
		return nil, &ParseError{Pos: p.token.Pos, Message: "empty statement"}
	}
	return stmt, nil
}

// ParamCount returns the number of ? placeholders seen so far.
func (p *Parser) ParamCount() int {
	return p.paramCount
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t TokenType) bool {
	return p.peek.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, p.token.Type, t))
	return false
}

// addError adds a parse error at the current token.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

// ---------- Statements ----------

// parseStatement dispatches on the leading keyword.
func (p *Parser) parseStatement() Statement {
	switch p.token.Type {
	case TOKEN_SELECT:
		return p.parseSelect()
	case TOKEN_INSERT:
		return p.parseInsert()
	case TOKEN_UPDATE:
		return p.parseUpdate()
	case TOKEN_DELETE:
		return p.parseDelete()
	default:
		p.addError(fmt.Sprintf("expected SELECT, INSERT, UPDATE or DELETE, got %s", p.token.Type))
		return nil
	}
}

// parseSelect parses a SELECT statement.
func (p *Parser) parseSelect() *SelectStmt {
	stmt := &SelectStmt{}
	p.expect(TOKEN_SELECT)

	stmt.Distinct = p.match(TOKEN_DISTINCT)
	stmt.Columns = p.parseSelectList()

	if !p.expect(TOKEN_FROM) {
		return stmt
	}
	stmt.From = p.parseFromClause()

	if p.match(TOKEN_WHERE) {
		stmt.Where = p.parseExpression()
	}
	if p.check(TOKEN_GROUP) {
		p.nextToken()
		p.expect(TOKEN_BY)
		stmt.GroupBy = p.parseExprList()
	}
	if p.match(TOKEN_HAVING) {
		stmt.Having = p.parseExpression()
	}
	if p.check(TOKEN_ORDER) {
		p.nextToken()
		p.expect(TOKEN_BY)
		stmt.OrderBy = p.parseOrderByList()
	}
	if p.match(TOKEN_LIMIT) {
		stmt.Limit = p.parseExpression()
	}
	if p.match(TOKEN_OFFSET) {
		stmt.Offset = p.parseExpression()
	}

	if !p.check(TOKEN_EOF) {
		p.addError(fmt.Sprintf("unexpected trailing input at %s", p.token.Literal))
	}
	return stmt
}

// parseSelectList parses the comma-separated select list.
func (p *Parser) parseSelectList() []SelectItem {
	var items []SelectItem
	for {
		items = append(items, p.parseSelectItem())
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return items
}

// parseSelectItem parses one select-list entry.
func (p *Parser) parseSelectItem() SelectItem {
	// SELECT *
	if p.check(TOKEN_STAR) {
		p.nextToken()
		return SelectItem{Star: true}
	}

	// SELECT t.*
	if p.check(TOKEN_IDENT) && p.checkPeek(TOKEN_DOT) {
		save := p.token
		if p.peekAfterDotIsStar() {
			p.nextToken() // ident
			p.nextToken() // dot
			p.nextToken() // star
			return SelectItem{TableStar: save.Literal}
		}
	}

	item := SelectItem{Expr: p.parseExpression()}

	// Optional alias: AS ident, or a bare trailing identifier.
	if p.match(TOKEN_AS) {
		if p.check(TOKEN_IDENT) {
			item.Alias = p.token.Literal
			p.nextToken()
		} else {
			p.addError(fmt.Sprintf("expected alias after AS, got %s", p.token.Type))
		}
	} else if p.check(TOKEN_IDENT) {
		item.Alias = p.token.Literal
		p.nextToken()
	}
	return item
}

// peekAfterDotIsStar reports whether the token after the dot is a star,
// without consuming input. Only valid when current is IDENT and peek is DOT.
func (p *Parser) peekAfterDotIsStar() bool {
	// The lexer has no third lookahead slot; clone a lexer at the current
	// offset instead. Inputs are short so this stays cheap.
	l := NewLexer(p.lexer.input[p.peek.Pos.Offset:])
	l.NextToken() // the dot
	return l.NextToken().Type == TOKEN_STAR
}

// parseFromClause parses FROM with any number of joins.
func (p *Parser) parseFromClause() *FromClause {
	from := &FromClause{Source: p.parseTableName()}
	for {
		join := p.parseJoin()
		if join == nil {
			break
		}
		from.Joins = append(from.Joins, join)
	}
	return from
}

// parseJoin parses one [INNER|LEFT [OUTER]] JOIN clause, or returns nil.
func (p *Parser) parseJoin() *Join {
	join := &Join{Type: JoinInner}
	switch {
	case p.check(TOKEN_JOIN):
		p.nextToken()
	case p.check(TOKEN_INNER) && p.checkPeek(TOKEN_JOIN):
		p.nextToken()
		p.nextToken()
	case p.check(TOKEN_LEFT):
		join.Type = JoinLeft
		p.nextToken()
		// Accept LEFT OUTER JOIN; OUTER is lexed as IDENT since it is
		// not needed anywhere else.
		if p.check(TOKEN_IDENT) && equalFold(p.token.Literal, "outer") {
			p.nextToken()
		}
		p.expect(TOKEN_JOIN)
	default:
		return nil
	}

	join.Right = p.parseTableName()
	if p.expect(TOKEN_ON) {
		join.Condition = p.parseExpression()
	}
	return join
}

// parseTableName parses an object name with optional alias.
func (p *Parser) parseTableName() *TableName {
	t := &TableName{}
	if p.check(TOKEN_IDENT) {
		t.Name = p.token.Literal
		p.nextToken()
	} else {
		p.addError(fmt.Sprintf("expected object name, got %s", p.token.Type))
		return t
	}

	if p.match(TOKEN_AS) {
		if p.check(TOKEN_IDENT) {
			t.Alias = p.token.Literal
			p.nextToken()
		} else {
			p.addError(fmt.Sprintf("expected alias after AS, got %s", p.token.Type))
		}
	} else if p.check(TOKEN_IDENT) {
		t.Alias = p.token.Literal
		p.nextToken()
	}
	return t
}

// parseExprList parses a comma-separated list of expressions.
func (p *Parser) parseExprList() []Expr {
	var exprs []Expr
	for {
		exprs = append(exprs, p.parseExpression())
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return exprs
}

// parseOrderByList parses the ORDER BY item list.
func (p *Parser) parseOrderByList() []OrderByItem {
	var items []OrderByItem
	for {
		item := OrderByItem{Expr: p.parseExpression()}
		if p.match(TOKEN_DESC) {
			item.Desc = true
		} else {
			p.match(TOKEN_ASC)
		}
		if p.match(TOKEN_NULLS) {
			switch {
			case p.match(TOKEN_FIRST):
				v := true
				item.NullsFirst = &v
			case p.match(TOKEN_LAST):
				v := false
				item.NullsFirst = &v
			default:
				p.addError("expected FIRST or LAST after NULLS")
			}
		}
		items = append(items, item)
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return items
}

// parseInsert parses an INSERT statement.
func (p *Parser) parseInsert() *InsertStmt {
	stmt := &InsertStmt{}
	p.expect(TOKEN_INSERT)
	p.expect(TOKEN_INTO)
	if p.check(TOKEN_IDENT) {
		stmt.Table = TableName{Name: p.token.Literal}
		p.nextToken()
	} else {
		p.addError(fmt.Sprintf("expected object name, got %s", p.token.Type))
	}

	if p.expect(TOKEN_LPAREN) {
		for {
			if p.check(TOKEN_IDENT) {
				stmt.Columns = append(stmt.Columns, p.token.Literal)
				p.nextToken()
			} else {
				p.addError(fmt.Sprintf("expected column name, got %s", p.token.Type))
				break
			}
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
		p.expect(TOKEN_RPAREN)
	}

	p.expect(TOKEN_VALUES)
	for {
		if !p.expect(TOKEN_LPAREN) {
			break
		}
		row := p.parseExprList()
		p.expect(TOKEN_RPAREN)
		if len(row) != len(stmt.Columns) {
			p.addError(fmt.Sprintf("row has %d values, expected %d", len(row), len(stmt.Columns)))
		}
		stmt.Rows = append(stmt.Rows, row)
		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	if !p.check(TOKEN_EOF) {
		p.addError(fmt.Sprintf("unexpected trailing input at %s", p.token.Literal))
	}
	return stmt
}

// parseUpdate parses an UPDATE statement.
func (p *Parser) parseUpdate() *UpdateStmt {
	stmt := &UpdateStmt{}
	p.expect(TOKEN_UPDATE)
	if p.check(TOKEN_IDENT) {
		stmt.Table = TableName{Name: p.token.Literal}
		p.nextToken()
	} else {
		p.addError(fmt.Sprintf("expected object name, got %s", p.token.Type))
	}

	p.expect(TOKEN_SET)
	for {
		var a Assignment
		if p.check(TOKEN_IDENT) {
			a.Column = p.token.Literal
			p.nextToken()
		} else {
			p.addError(fmt.Sprintf("expected column name, got %s", p.token.Type))
			break
		}
		p.expect(TOKEN_EQ)
		a.Value = p.parseExpression()
		stmt.Assignments = append(stmt.Assignments, a)
		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	if p.match(TOKEN_WHERE) {
		stmt.Where = p.parseExpression()
	}
	if !p.check(TOKEN_EOF) {
		p.addError(fmt.Sprintf("unexpected trailing input at %s", p.token.Literal))
	}
	return stmt
}

// parseDelete parses a DELETE statement.
func (p *Parser) parseDelete() *DeleteStmt {
	stmt := &DeleteStmt{}
	p.expect(TOKEN_DELETE)
	p.expect(TOKEN_FROM)
	if p.check(TOKEN_IDENT) {
		stmt.Table = TableName{Name: p.token.Literal}
		p.nextToken()
	} else {
		p.addError(fmt.Sprintf("expected object name, got %s", p.token.Type))
	}

	if p.match(TOKEN_WHERE) {
		stmt.Where = p.parseExpression()
	}
	if !p.check(TOKEN_EOF) {
		p.addError(fmt.Sprintf("unexpected trailing input at %s", p.token.Literal))
	}
	return stmt
}

// equalFold is a tiny ASCII case-insensitive compare for keywords that are
// deliberately not in the token table.
func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
