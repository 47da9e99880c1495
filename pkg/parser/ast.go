package parser

// Statement represents a SQL statement.
type Statement interface {
	stmtNode()
}

// Expr represents an expression in SQL.
type Expr interface {
	exprNode()
}

// ---------- Statement Types ----------

// SelectStmt represents a SELECT statement.
type SelectStmt struct {
	Distinct bool
	Columns  []SelectItem
	From     *FromClause
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	OrderBy  []OrderByItem
	Limit    Expr
	Offset   Expr
}

func (*SelectStmt) stmtNode() {}

// InsertStmt represents an INSERT statement.
type InsertStmt struct {
	Table   TableName
	Columns []string
	Rows    [][]Expr
}

func (*InsertStmt) stmtNode() {}

// UpdateStmt represents an UPDATE statement.
type UpdateStmt struct {
	Table       TableName
	Assignments []Assignment
	Where       Expr
}

func (*UpdateStmt) stmtNode() {}

// DeleteStmt represents a DELETE statement.
type DeleteStmt struct {
	Table TableName
	Where Expr
}

func (*DeleteStmt) stmtNode() {}

// Assignment represents one column = expr pair in an UPDATE SET list.
type Assignment struct {
	Column string
	Value  Expr
}

// ---------- Clause Types ----------

// SelectItem represents an item in the SELECT list.
type SelectItem struct {
	Star      bool   // SELECT *
	TableStar string // SELECT t.*
	Expr      Expr   // Expression
	Alias     string // AS alias
}

// FromClause represents the FROM clause.
type FromClause struct {
	Source *TableName
	Joins  []*Join
}

// Join represents a JOIN clause. Only inner and left joins are meaningful for
// the relationship-path translation; the distinction is kept for diagnostics.
type Join struct {
	Type      JoinType
	Right     *TableName
	Condition Expr // ON clause
}

// JoinType represents the type of join.
type JoinType string

// Join type constants.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
)

// OrderByItem represents an item in ORDER BY clause.
type OrderByItem struct {
	Expr       Expr
	Desc       bool
	NullsFirst *bool // nil means default, true = NULLS FIRST, false = NULLS LAST
}

// TableName represents a table (remote object) reference.
type TableName struct {
	Name  string
	Alias string
}

// RefName returns the name the table is referred to by: alias if set,
// otherwise the object name.
func (t TableName) RefName() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// ---------- Expression Types ----------

// ColumnRef represents a column reference (possibly qualified).
type ColumnRef struct {
	Table  string // optional table/alias qualifier
	Column string
}

func (*ColumnRef) exprNode() {}

// Literal represents a literal value.
type Literal struct {
	Type  LiteralType
	Value string
}

func (*Literal) exprNode() {}

// LiteralType represents the type of a literal.
type LiteralType int

// LiteralType constants for SQL literal value types.
const (
	LiteralNumber LiteralType = iota
	LiteralString
	LiteralBool
	LiteralNull
)

// Param represents a ? placeholder, numbered in appearance order from 0.
type Param struct {
	Index int
}

func (*Param) exprNode() {}

// BinaryExpr represents a binary expression.
type BinaryExpr struct {
	Left  Expr
	Op    TokenType
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr represents a unary expression (NOT, -).
type UnaryExpr struct {
	Op   TokenType
	Expr Expr
}

func (*UnaryExpr) exprNode() {}

// FuncCall represents a function call.
type FuncCall struct {
	Name     string
	Distinct bool
	Args     []Expr
	Star     bool // COUNT(*)
}

func (*FuncCall) exprNode() {}

// InExpr represents expr [NOT] IN (list).
type InExpr struct {
	Expr Expr
	Not  bool
	List []Expr
}

func (*InExpr) exprNode() {}

// BetweenExpr represents expr [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

func (*BetweenExpr) exprNode() {}

// LikeExpr represents expr [NOT] LIKE pattern.
type LikeExpr struct {
	Expr    Expr
	Not     bool
	Pattern Expr
}

func (*LikeExpr) exprNode() {}

// IsNullExpr represents expr IS [NOT] NULL.
type IsNullExpr struct {
	Expr Expr
	Not  bool
}

func (*IsNullExpr) exprNode() {}

// ParenExpr preserves explicit grouping from the source.
type ParenExpr struct {
	Expr Expr
}

func (*ParenExpr) exprNode() {}
