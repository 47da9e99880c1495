package parser

import "fmt"

// TokenType represents the type of a lexical token.
type TokenType int

//nolint:revive // TOKEN_* names are intentionally ALL_CAPS for SQL token conventions
const (
	// Special tokens
	TOKEN_EOF TokenType = iota
	TOKEN_ILLEGAL

	// Literals
	TOKEN_IDENT  // identifier
	TOKEN_NUMBER // 123, 45.67, 1e10
	TOKEN_STRING // 'hello'
	TOKEN_PARAM  // ? placeholder

	// Operators
	TOKEN_PLUS   // +
	TOKEN_MINUS  // -
	TOKEN_STAR   // *
	TOKEN_SLASH  // /
	TOKEN_EQ     // =
	TOKEN_NE     // != or <>
	TOKEN_LT     // <
	TOKEN_GT     // >
	TOKEN_LE     // <=
	TOKEN_GE     // >=
	TOKEN_DOT    // .
	TOKEN_COMMA  // ,
	TOKEN_LPAREN // (
	TOKEN_RPAREN // )

	// Keywords (alphabetical)
	TOKEN_AND
	TOKEN_AS
	TOKEN_ASC
	TOKEN_BETWEEN
	TOKEN_BY
	TOKEN_DELETE
	TOKEN_DESC
	TOKEN_DISTINCT
	TOKEN_FALSE
	TOKEN_FIRST
	TOKEN_FROM
	TOKEN_GROUP
	TOKEN_HAVING
	TOKEN_IN
	TOKEN_INNER
	TOKEN_INSERT
	TOKEN_INTO
	TOKEN_IS
	TOKEN_JOIN
	TOKEN_LAST
	TOKEN_LEFT
	TOKEN_LIKE
	TOKEN_LIMIT
	TOKEN_NOT
	TOKEN_NULL
	TOKEN_NULLS
	TOKEN_OFFSET
	TOKEN_ON
	TOKEN_OR
	TOKEN_ORDER
	TOKEN_SELECT
	TOKEN_SET
	TOKEN_TRUE
	TOKEN_UPDATE
	TOKEN_VALUES
	TOKEN_WHERE
)

var tokenNames = map[TokenType]string{
	TOKEN_EOF:     "EOF",
	TOKEN_ILLEGAL: "ILLEGAL",
	TOKEN_IDENT:   "IDENT",
	TOKEN_NUMBER:  "NUMBER",
	TOKEN_STRING:  "STRING",
	TOKEN_PARAM:   "?",
	TOKEN_PLUS:    "+",
	TOKEN_MINUS:   "-",
	TOKEN_STAR:    "*",
	TOKEN_SLASH:   "/",
	TOKEN_EQ:      "=",
	TOKEN_NE:      "!=",
	TOKEN_LT:      "<",
	TOKEN_GT:      ">",
	TOKEN_LE:      "<=",
	TOKEN_GE:      ">=",
	TOKEN_DOT:     ".",
	TOKEN_COMMA:   ",",
	TOKEN_LPAREN:  "(",
	TOKEN_RPAREN:  ")",

	TOKEN_AND:      "AND",
	TOKEN_AS:       "AS",
	TOKEN_ASC:      "ASC",
	TOKEN_BETWEEN:  "BETWEEN",
	TOKEN_BY:       "BY",
	TOKEN_DELETE:   "DELETE",
	TOKEN_DESC:     "DESC",
	TOKEN_DISTINCT: "DISTINCT",
	TOKEN_FALSE:    "FALSE",
	TOKEN_FIRST:    "FIRST",
	TOKEN_FROM:     "FROM",
	TOKEN_GROUP:    "GROUP",
	TOKEN_HAVING:   "HAVING",
	TOKEN_IN:       "IN",
	TOKEN_INNER:    "INNER",
	TOKEN_INSERT:   "INSERT",
	TOKEN_INTO:     "INTO",
	TOKEN_IS:       "IS",
	TOKEN_JOIN:     "JOIN",
	TOKEN_LAST:     "LAST",
	TOKEN_LEFT:     "LEFT",
	TOKEN_LIKE:     "LIKE",
	TOKEN_LIMIT:    "LIMIT",
	TOKEN_NOT:      "NOT",
	TOKEN_NULL:     "NULL",
	TOKEN_NULLS:    "NULLS",
	TOKEN_OFFSET:   "OFFSET",
	TOKEN_ON:       "ON",
	TOKEN_OR:       "OR",
	TOKEN_ORDER:    "ORDER",
	TOKEN_SELECT:   "SELECT",
	TOKEN_SET:      "SET",
	TOKEN_TRUE:     "TRUE",
	TOKEN_UPDATE:   "UPDATE",
	TOKEN_VALUES:   "VALUES",
	TOKEN_WHERE:    "WHERE",
}

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// keywords maps lowercase identifiers to keyword token types.
var keywords = map[string]TokenType{
	"and":      TOKEN_AND,
	"as":       TOKEN_AS,
	"asc":      TOKEN_ASC,
	"between":  TOKEN_BETWEEN,
	"by":       TOKEN_BY,
	"delete":   TOKEN_DELETE,
	"desc":     TOKEN_DESC,
	"distinct": TOKEN_DISTINCT,
	"false":    TOKEN_FALSE,
	"first":    TOKEN_FIRST,
	"from":     TOKEN_FROM,
	"group":    TOKEN_GROUP,
	"having":   TOKEN_HAVING,
	"in":       TOKEN_IN,
	"inner":    TOKEN_INNER,
	"insert":   TOKEN_INSERT,
	"into":     TOKEN_INTO,
	"is":       TOKEN_IS,
	"join":     TOKEN_JOIN,
	"last":     TOKEN_LAST,
	"left":     TOKEN_LEFT,
	"like":     TOKEN_LIKE,
	"limit":    TOKEN_LIMIT,
	"not":      TOKEN_NOT,
	"null":     TOKEN_NULL,
	"nulls":    TOKEN_NULLS,
	"offset":   TOKEN_OFFSET,
	"on":       TOKEN_ON,
	"or":       TOKEN_OR,
	"order":    TOKEN_ORDER,
	"select":   TOKEN_SELECT,
	"set":      TOKEN_SET,
	"true":     TOKEN_TRUE,
	"update":   TOKEN_UPDATE,
	"values":   TOKEN_VALUES,
	"where":    TOKEN_WHERE,
}

// LookupIdent returns the keyword token type for a lowercase identifier,
// or TOKEN_IDENT if it is not a keyword.
func LookupIdent(ident string) TokenType {
	if t, ok := keywords[ident]; ok {
		return t
	}
	return TOKEN_IDENT
}

// Position identifies a location in the input.
type Position struct {
	Line   int // 1-based
	Column int // 1-based
	Offset int // 0-based byte offset
}

// Token is a lexical token with its source position.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}
