package frontend

import (
	"fmt"
	"go/constant"
	"go/token"
	"go/types"

	"github.com/gnoswap-labs/apigate/internal/tree"
)

// symFor returns the shared symbol of obj, creating it on first use.
func (c *converter) symFor(obj types.Object) *tree.Symbol {
	if obj == nil {
		return nil
	}
	if sym, ok := c.syms[obj]; ok {
		return sym
	}

	sym := &tree.Symbol{Name: obj.Name()}
	switch obj := obj.(type) {
	case *types.PkgName, *types.Label, *types.Nil:
		return nil
	case *types.Builtin:
		sym.ID = obj.Name()
		sym.Kind = tree.SymFunc
	case *types.Func:
		sym.ID = funcID(obj)
		sym.Kind = tree.SymFunc
		if sig, ok := obj.Type().(*types.Signature); ok && sig.Recv() != nil {
			sym.Kind = tree.SymMethod
		}
	case *types.Const:
		sym.ID = c.memberID(obj)
		sym.Kind = tree.SymConst
		sym.Init = literalOf(obj.Val(), tree.Span{From: obj.Pos(), To: obj.Pos()})
	case *types.TypeName:
		sym.ID = c.memberID(obj)
		sym.Kind = tree.SymType
	case *types.Var:
		switch {
		case obj.IsField():
			sym.ID = c.localID(obj)
			sym.Kind = tree.SymField
			sym.Mutable = true
		case obj.Pkg() != nil && obj.Parent() == obj.Pkg().Scope():
			sym.ID = c.memberID(obj)
			sym.Kind = tree.SymVar
			sym.Mutable = obj.Exported() || c.mutated[obj] || obj.Pkg().Path() != c.path
		default:
			sym.ID = c.localID(obj)
			sym.Kind = tree.SymLocal
			sym.Mutable = c.mutated[obj]
		}
	default:
		sym.ID = c.localID(obj)
	}

	c.syms[obj] = sym
	c.register(sym)
	return sym
}

// external returns the symbol of a member of an imported package the
// type checker could not resolve.
func (c *converter) external(importPath, name string) *tree.Symbol {
	return c.unresolved(importPath+"."+name, name)
}

// unresolved returns the symbol with the given id, creating an opaque one
// when the package has not seen it yet.
func (c *converter) unresolved(id, name string) *tree.Symbol {
	if sym, ok := c.pkg.Symbols[id]; ok {
		return sym
	}
	sym := &tree.Symbol{ID: id, Name: name, Kind: tree.SymUnknown, Mutable: true}
	c.register(sym)
	return sym
}

func (c *converter) register(sym *tree.Symbol) {
	if c.noReturn[sym.ID] {
		sym.Annotations.NoReturn = true
	}
	if _, taken := c.pkg.Symbols[sym.ID]; !taken {
		c.pkg.Symbols[sym.ID] = sym
	}
}

func (c *converter) memberID(obj types.Object) string {
	if obj.Pkg() == nil {
		return obj.Name()
	}
	return obj.Pkg().Path() + "." + obj.Name()
}

func (c *converter) localID(obj types.Object) string {
	return fmt.Sprintf("%s.%s@%d", c.path, obj.Name(), obj.Pos())
}

// funcID is "path.Name" for functions and "path.Type.Name" for methods.
func funcID(fn *types.Func) string {
	prefix := ""
	if fn.Pkg() != nil {
		prefix = fn.Pkg().Path() + "."
	}
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Recv() == nil {
		return prefix + fn.Name()
	}
	t := sig.Recv().Type()
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	if named, ok := t.(*types.Named); ok {
		return prefix + named.Obj().Name() + "." + fn.Name()
	}
	return prefix + fn.Name()
}

func literalOf(v constant.Value, span tree.Span) *tree.Literal {
	lit := &tree.Literal{Span: span, Text: v.ExactString()}
	switch v.Kind() {
	case constant.Bool:
		lit.Kind = tree.LitBool
		lit.Bool = constant.BoolVal(v)
	case constant.Int:
		if n, exact := constant.Int64Val(v); exact {
			lit.Kind = tree.LitInt
			lit.Int = n
		}
	}
	return lit
}

func spanOf(n interface {
	Pos() token.Pos
	End() token.Pos
}) tree.Span {
	return tree.Span{From: n.Pos(), To: n.End()}
}
