package tree

import (
	"go/ast"
	"go/token"
)

// Block is a braced statement list.
type Block struct {
	Span
	List []Stmt
}

func (*Block) isStmt() {}

// ExprStmt is an expression evaluated for its effects.
type ExprStmt struct {
	Span
	X Expr
}

func (*ExprStmt) isStmt() {}

// Let declares new bindings (var declarations and :=).
type Let struct {
	Span
	Syms []*Symbol
	// Type holds the named types of an explicit var type, if any.
	Type   Expr
	Values []Expr
}

func (*Let) isStmt() {}

// Assign assigns to existing bindings.
type Assign struct {
	Span
	Lhs []Expr
	Rhs []Expr
}

func (*Assign) isStmt() {}

// If is an if statement. Else is nil, a *Block or another *If.
type If struct {
	Span
	Init Stmt
	Cond Expr
	Then *Block
	Else Stmt
}

func (*If) isStmt() {}

// Switch is an expression switch. Tag is nil for a tagless switch.
// Opaque is set for type switches and selects, whose clauses carry no
// conditions.
type Switch struct {
	Span
	Init    Stmt
	Tag     Expr
	Clauses []*Clause
	Opaque  bool
	Label   string
}

func (*Switch) isStmt() {}

// Clause is a case clause. Exprs is empty for default.
type Clause struct {
	Span
	Exprs       []Expr
	Default     bool
	Body        []Stmt
	Fallthrough bool
}

// Loop is a for or range loop. Cond is nil for infinite and range loops.
type Loop struct {
	Span
	Init  Stmt
	Cond  Expr
	Post  Stmt
	Range Expr
	Body  *Block
	Label string
}

func (*Loop) isStmt() {}

// Return is a return statement.
type Return struct {
	Span
	Results []Expr
}

func (*Return) isStmt() {}

// Branch is break, continue, goto or fallthrough.
type Branch struct {
	Span
	Tok   token.Token
	Label string
}

func (*Branch) isStmt() {}

// Labeled is a labeled statement.
type Labeled struct {
	Span
	Label string
	Stmt  Stmt
}

func (*Labeled) isStmt() {}

// Defer is a deferred call.
type Defer struct {
	Span
	Call Expr
}

func (*Defer) isStmt() {}

// Go starts a goroutine.
type Go struct {
	Span
	Call Expr
}

func (*Go) isStmt() {}

// Func is a function declaration or literal.
type Func struct {
	Span
	Sym    *Symbol // nil for literals
	Recv   *Symbol
	Params []*Symbol
	Body   *Block
	// Outer is the enclosing function of a literal.
	Outer *Func
	// GotoTargets holds the labels used by goto statements in the body.
	GotoTargets map[string]bool
}

// Name returns the declared name, or "func literal".
func (f *Func) Name() string {
	if f.Sym != nil {
		return f.Sym.Name
	}
	return "func literal"
}

// Root returns the outermost enclosing declaration.
func (f *Func) Root() *Func {
	for f.Outer != nil {
		f = f.Outer
	}
	return f
}

// ParamIndex returns the position of sym among the parameters, or -1.
func (f *Func) ParamIndex(sym *Symbol) int {
	for i, p := range f.Params {
		if p == sym {
			return i
		}
	}
	return -1
}

// File is one converted source file.
type File struct {
	Name  string
	AST   *ast.File
	Funcs []*Func
	// Vars holds package-level var declarations, in source order.
	Vars []*Let
}

// Package is a converted package.
type Package struct {
	Path    string
	Fset    *token.FileSet
	Files   []*File
	Symbols map[string]*Symbol
	// Problems are the directives that could not be applied.
	Problems []Problem
}

// Problem is a malformed or misplaced directive.
type Problem struct {
	Span
	Message string
}

// Lookup returns the symbol with the given id.
func (p *Package) Lookup(id string) *Symbol {
	return p.Symbols[id]
}

// Funcs returns every top-level function, file by file.
func (p *Package) Funcs() []*Func {
	var out []*Func
	for _, f := range p.Files {
		out = append(out, f.Funcs...)
	}
	return out
}
