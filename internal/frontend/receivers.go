package frontend

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"
)

// collectImportedTypes maps variables, parameters and fields declared as
// an imported named type, possibly behind a pointer, to the type's id
// "importpath.Type". Stub imports leave such objects with an invalid
// type, so method calls on them are resolved through this table.
func collectImportedTypes(files []*ast.File, info *types.Info) map[types.Object]string {
	out := make(map[types.Object]string)
	for _, f := range files {
		imports := fileImports(f)
		record := func(names []*ast.Ident, typ ast.Expr) {
			id, ok := importedTypeID(typ, imports)
			if !ok {
				return
			}
			for _, name := range names {
				if obj := info.Defs[name]; obj != nil {
					out[obj] = id
				}
			}
		}
		ast.Inspect(f, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.Field:
				record(n.Names, n.Type)
			case *ast.ValueSpec:
				if n.Type != nil {
					record(n.Names, n.Type)
				}
			}
			return true
		})
	}
	return out
}

func importedTypeID(typ ast.Expr, imports map[string]string) (string, bool) {
	typ = astutil.Unparen(typ)
	if star, ok := typ.(*ast.StarExpr); ok {
		typ = astutil.Unparen(star.X)
	}
	sel, ok := typ.(*ast.SelectorExpr)
	if !ok {
		return "", false
	}
	x, ok := sel.X.(*ast.Ident)
	if !ok {
		return "", false
	}
	p, ok := imports[x.Name]
	if !ok {
		return "", false
	}
	return p + "." + sel.Sel.Name, true
}

// receiverObject returns the variable or field a selector is applied to.
func (c *converter) receiverObject(x ast.Expr) types.Object {
	switch x := astutil.Unparen(x).(type) {
	case *ast.Ident:
		return c.info.Uses[x]
	case *ast.SelectorExpr:
		return c.info.Uses[x.Sel]
	}
	return nil
}
