// Package tree is the source tree the version checker works on: a small
// statement/expression IR with resolved symbols and folded constants.
package tree

import (
	"go/token"
	"strconv"
)

// Node is implemented by every expression and statement.
type Node interface {
	Pos() token.Pos
	End() token.Pos
}

// Expr represents an expression.
type Expr interface {
	Node
	isExpr()
}

// Stmt represents a statement.
type Stmt interface {
	Node
	isStmt()
}

// Span is the source range of a node.
type Span struct {
	From, To token.Pos
}

func (s Span) Pos() token.Pos { return s.From }
func (s Span) End() token.Pos { return s.To }

type LitKind int

const (
	LitOther LitKind = iota
	LitInt
	LitBool
)

// Literal is a literal or a constant-folded expression.
type Literal struct {
	Span
	Kind LitKind
	Int  int64
	Bool bool
	Text string
}

func (*Literal) isExpr() {}

func (l *Literal) String() string {
	switch l.Kind {
	case LitInt:
		return strconv.FormatInt(l.Int, 10)
	case LitBool:
		return strconv.FormatBool(l.Bool)
	}
	return l.Text
}

// Ref is an identifier or a selector. X is nil for plain identifiers.
// Text holds the dotted source form ("build.VERSION.SDK_INT") when the
// chain consists of names only.
type Ref struct {
	Span
	X    Expr
	Name string
	Text string
	Sym  *Symbol
}

func (*Ref) isExpr() {}

type BinaryOp int

const (
	OpOther BinaryOp = iota
	OpLAnd
	OpLOr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (op BinaryOp) String() string {
	switch op {
	case OpLAnd:
		return "&&"
	case OpLOr:
		return "||"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return "?"
	}
}

func (op BinaryOp) IsComparison() bool {
	return op >= OpEq && op <= OpGe
}

// Binary is a binary expression.
type Binary struct {
	Span
	Op BinaryOp
	X  Expr
	Y  Expr
}

func (*Binary) isExpr() {}

type UnaryOp int

const (
	UnaryOther UnaryOp = iota
	UnaryNot
)

// Unary is a unary expression. Parentheses are dropped during conversion.
type Unary struct {
	Span
	Op UnaryOp
	X  Expr
}

func (*Unary) isExpr() {}

// Call is a function or method call. Callee is nil for calls of
// function values that cannot be resolved.
type Call struct {
	Span
	Fun      Expr
	Args     []Expr
	Callee   *Symbol
	NoReturn bool
}

func (*Call) isExpr() {}

// CalleeName is the source text of the called function, if any.
func (c *Call) CalleeName() string {
	if r, ok := c.Fun.(*Ref); ok {
		if r.Text != "" {
			return r.Text
		}
		return r.Name
	}
	return ""
}

// FuncLit is a function literal.
type FuncLit struct {
	Span
	Func *Func
}

func (*FuncLit) isExpr() {}

// Other is any expression without version meaning. Its operands are
// still visited.
type Other struct {
	Span
	Kids []Expr
	// Conversion marks a type conversion of its single operand.
	Conversion bool
}

func (*Other) isExpr() {}
