package frontend

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"
)

// collectMutations returns the objects that are rebound after their
// declaration: assigned, redeclared by :=, incremented, address-taken or
// used as range variables.
func collectMutations(files []*ast.File, info *types.Info) map[types.Object]bool {
	mutated := make(map[types.Object]bool)
	mark := func(e ast.Expr) {
		switch e := astutil.Unparen(e).(type) {
		case *ast.Ident:
			if obj := info.Uses[e]; obj != nil {
				mutated[obj] = true
			}
		case *ast.SelectorExpr:
			if obj := info.Uses[e.Sel]; obj != nil {
				mutated[obj] = true
			}
		}
	}
	markDefs := func(exprs ...ast.Expr) {
		for _, e := range exprs {
			if id, ok := e.(*ast.Ident); ok {
				if obj := info.Defs[id]; obj != nil {
					mutated[obj] = true
				}
			}
		}
	}

	for _, f := range files {
		ast.Inspect(f, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.AssignStmt:
				for _, lhs := range n.Lhs {
					if n.Tok == token.DEFINE {
						// Reused names in a := are uses, not definitions.
						if id, ok := lhs.(*ast.Ident); ok && info.Defs[id] == nil {
							mark(id)
						}
						continue
					}
					mark(lhs)
				}
			case *ast.IncDecStmt:
				mark(n.X)
			case *ast.UnaryExpr:
				if n.Op == token.AND {
					mark(n.X)
				}
			case *ast.RangeStmt:
				if n.Tok == token.DEFINE {
					markDefs(n.Key, n.Value)
				} else {
					if n.Key != nil {
						mark(n.Key)
					}
					if n.Value != nil {
						mark(n.Value)
					}
				}
			}
			return true
		})
	}
	return mutated
}
