package tree

// Inspect traverses the tree rooted at n in depth-first order. If f
// returns false the children of the node are skipped. Function literal
// bodies are visited.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || isNilNode(n) || !f(n) {
		return
	}
	for _, kid := range children(n) {
		Inspect(kid, f)
	}
}

func isNilNode(n Node) bool {
	switch n := n.(type) {
	case *Block:
		return n == nil
	case *If:
		return n == nil
	case *Call:
		return n == nil
	}
	return false
}

func children(n Node) []Node {
	var out []Node
	addExpr := func(es ...Expr) {
		for _, e := range es {
			if e != nil {
				out = append(out, e)
			}
		}
	}
	addStmt := func(ss ...Stmt) {
		for _, s := range ss {
			if s != nil {
				out = append(out, s)
			}
		}
	}

	switch n := n.(type) {
	case *Ref:
		addExpr(n.X)
	case *Binary:
		addExpr(n.X, n.Y)
	case *Unary:
		addExpr(n.X)
	case *Call:
		addExpr(n.Fun)
		addExpr(n.Args...)
	case *FuncLit:
		if n.Func != nil && n.Func.Body != nil {
			out = append(out, n.Func.Body)
		}
	case *Other:
		addExpr(n.Kids...)
	case *Block:
		addStmt(n.List...)
	case *ExprStmt:
		addExpr(n.X)
	case *Let:
		addExpr(n.Type)
		addExpr(n.Values...)
	case *Assign:
		addExpr(n.Lhs...)
		addExpr(n.Rhs...)
	case *If:
		addStmt(n.Init)
		addExpr(n.Cond)
		if n.Then != nil {
			out = append(out, n.Then)
		}
		addStmt(n.Else)
	case *Switch:
		addStmt(n.Init)
		addExpr(n.Tag)
		for _, c := range n.Clauses {
			out = append(out, c)
		}
	case *Clause:
		addExpr(n.Exprs...)
		addStmt(n.Body...)
	case *Loop:
		addStmt(n.Init)
		addExpr(n.Cond, n.Range)
		addStmt(n.Post)
		if n.Body != nil {
			out = append(out, n.Body)
		}
	case *Return:
		addExpr(n.Results...)
	case *Labeled:
		addStmt(n.Stmt)
	case *Defer:
		addExpr(n.Call)
	case *Go:
		addExpr(n.Call)
	}
	return out
}

// Calls returns every call in n, in source order.
func Calls(n Node) []*Call {
	var out []*Call
	Inspect(n, func(n Node) bool {
		if c, ok := n.(*Call); ok {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Unwrap strips type conversions such as int(x).
func Unwrap(e Expr) Expr {
	for {
		o, ok := e.(*Other)
		if !ok || !o.Conversion || len(o.Kids) != 1 {
			return e
		}
		e = o.Kids[0]
	}
}
