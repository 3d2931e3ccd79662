package frontend

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/tools/go/ast/astutil"

	"github.com/gnoswap-labs/apigate/internal/branch"
	"github.com/gnoswap-labs/apigate/internal/tree"
)

type converter struct {
	fset     *token.FileSet
	info     *types.Info
	path     string
	pkg      *tree.Package
	syms     map[types.Object]*tree.Symbol
	mutated  map[types.Object]bool
	noReturn map[string]bool
	// importedTypes holds the declared types the checker could not see.
	importedTypes map[types.Object]string

	// imports maps local import names of the current file to paths. It
	// resolves selectors the type checker gave up on.
	imports map[string]string
	fn      *tree.Func
	errs    []error
}

// Convert builds the tree of a type-checked package. pkg and info may come
// from Check or from a go/analysis pass. Directive errors are joined into
// the returned error; the package is still usable.
func Convert(fset *token.FileSet, files []*ast.File, pkg *types.Package, info *types.Info, opts Options) (*tree.Package, error) {
	if info == nil {
		info = &types.Info{}
	}
	pkgPath := opts.PkgPath
	if pkg != nil {
		pkgPath = pkg.Path()
	}

	c := &converter{
		fset:     fset,
		info:     info,
		path:     pkgPath,
		pkg:      &tree.Package{Path: pkgPath, Fset: fset, Symbols: make(map[string]*tree.Symbol)},
		syms:     make(map[types.Object]*tree.Symbol),
		mutated:  collectMutations(files, info),
		noReturn: make(map[string]bool, len(opts.NoReturn)),

		importedTypes: collectImportedTypes(files, info),
	}
	for _, id := range opts.NoReturn {
		c.noReturn[id] = true
	}

	decls := c.declare(files)
	for _, f := range files {
		c.imports = fileImports(f)
		out := &tree.File{Name: fset.Position(f.Package).Filename, AST: f}
		for _, decl := range f.Decls {
			switch decl := decl.(type) {
			case *ast.FuncDecl:
				fn := decls[decl]
				if decl.Body == nil {
					continue
				}
				c.funcBody(fn, decl.Type, decl.Recv, decl.Body)
				out.Funcs = append(out.Funcs, fn)
			case *ast.GenDecl:
				if decl.Tok == token.VAR {
					for _, spec := range decl.Specs {
						out.Vars = append(out.Vars, c.valueSpec(spec.(*ast.ValueSpec)))
					}
				}
			}
		}
		c.pkg.Files = append(c.pkg.Files, out)
	}

	opts.logger().Debug("converted package",
		zap.String("package", pkgPath),
		zap.Int("files", len(files)),
		zap.Int("symbols", len(c.pkg.Symbols)))
	return c.pkg, errors.Join(c.errs...)
}

// declare creates the symbols of every function declaration and attaches
// their directives. Requirements on a type apply to its methods.
func (c *converter) declare(files []*ast.File) map[*ast.FuncDecl]*tree.Func {
	decls := make(map[*ast.FuncDecl]*tree.Func)
	typeAnn := make(map[string]tree.Annotations)

	for _, f := range files {
		for _, decl := range f.Decls {
			switch decl := decl.(type) {
			case *ast.FuncDecl:
				sym := c.symFor(c.info.Defs[decl.Name])
				if sym == nil {
					sym = &tree.Symbol{ID: c.path + "." + decl.Name.Name, Name: decl.Name.Name, Kind: tree.SymFunc}
					c.register(sym)
				}
				ann, errs := parseDirectives(decl.Doc)
				c.addErrors(decl.Pos(), errs)
				mergeAnnotations(&sym.Annotations, ann)
				fn := &tree.Func{Span: spanOf(decl), Sym: sym}
				sym.Decl = fn
				decls[decl] = fn
			case *ast.GenDecl:
				if decl.Tok != token.TYPE {
					continue
				}
				for _, spec := range decl.Specs {
					ts := spec.(*ast.TypeSpec)
					doc := ts.Doc
					if doc == nil && len(decl.Specs) == 1 {
						doc = decl.Doc
					}
					ann, errs := parseDirectives(doc)
					c.addErrors(ts.Pos(), errs)
					if ann.Check != nil || ann.NoReturn {
						c.addErrors(ts.Pos(), []error{fmt.Errorf("only requires directives apply to types")})
					}
					if len(ann.Requires) > 0 {
						prev := typeAnn[ts.Name.Name]
						prev.Requires = append(prev.Requires, ann.Requires...)
						typeAnn[ts.Name.Name] = prev
					}
				}
			}
		}
	}

	for decl, fn := range decls {
		if recv := receiverTypeName(decl); recv != "" {
			if ann, ok := typeAnn[recv]; ok {
				fn.Sym.Annotations.Requires = append(fn.Sym.Annotations.Requires, ann.Requires...)
			}
		}
	}
	return decls
}

func (c *converter) addErrors(pos token.Pos, errs []error) {
	for _, err := range errs {
		c.errs = append(c.errs, fmt.Errorf("%s: %w", c.fset.Position(pos), err))
		c.pkg.Problems = append(c.pkg.Problems, tree.Problem{Span: tree.Span{From: pos, To: pos}, Message: err.Error()})
	}
}

func receiverTypeName(decl *ast.FuncDecl) string {
	if decl.Recv == nil || len(decl.Recv.List) == 0 {
		return ""
	}
	t := decl.Recv.List[0].Type
	for {
		switch x := t.(type) {
		case *ast.StarExpr:
			t = x.X
		case *ast.IndexExpr:
			t = x.X
		case *ast.IndexListExpr:
			t = x.X
		case *ast.ParenExpr:
			t = x.X
		case *ast.Ident:
			return x.Name
		default:
			return ""
		}
	}
}

func fileImports(f *ast.File) map[string]string {
	out := make(map[string]string, len(f.Imports))
	for _, spec := range f.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := guessName(p)
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name != "_" && name != "." {
			out[name] = p
		}
	}
	return out
}

func (c *converter) funcBody(fn *tree.Func, typ *ast.FuncType, recv *ast.FieldList, body *ast.BlockStmt) {
	prev := c.fn
	c.fn = fn
	defer func() { c.fn = prev }()

	fn.GotoTargets = make(map[string]bool)
	if recv != nil && len(recv.List) > 0 && len(recv.List[0].Names) > 0 {
		fn.Recv = c.param(recv.List[0].Names[0], -1)
	}
	idx := 0
	if typ.Params != nil {
		for _, field := range typ.Params.List {
			if len(field.Names) == 0 {
				fn.Params = append(fn.Params, &tree.Symbol{Name: "_", Kind: tree.SymParam, Index: idx})
				idx++
				continue
			}
			for _, name := range field.Names {
				fn.Params = append(fn.Params, c.param(name, idx))
				idx++
			}
		}
	}
	fn.Body = c.block(body)
}

func (c *converter) param(id *ast.Ident, idx int) *tree.Symbol {
	sym := c.symFor(c.info.Defs[id])
	if sym == nil {
		sym = &tree.Symbol{ID: fmt.Sprintf("%s.%s@%d", c.path, id.Name, id.Pos()), Name: id.Name}
	}
	sym.Kind = tree.SymParam
	sym.Index = idx
	return sym
}

// statements

func (c *converter) block(b *ast.BlockStmt) *tree.Block {
	if b == nil {
		return nil
	}
	out := &tree.Block{Span: spanOf(b)}
	out.List = c.stmts(b.List)
	return out
}

func (c *converter) stmts(list []ast.Stmt) []tree.Stmt {
	var out []tree.Stmt
	for _, s := range list {
		if st := c.stmt(s); st != nil {
			out = append(out, st)
		}
	}
	return out
}

func (c *converter) stmt(s ast.Stmt) tree.Stmt {
	switch s := s.(type) {
	case *ast.BlockStmt:
		return c.block(s)
	case *ast.ExprStmt:
		return &tree.ExprStmt{Span: spanOf(s), X: c.expr(s.X)}
	case *ast.DeclStmt:
		return c.declStmt(s)
	case *ast.AssignStmt:
		return c.assign(s)
	case *ast.IncDecStmt:
		return &tree.Assign{Span: spanOf(s), Lhs: []tree.Expr{c.expr(s.X)}}
	case *ast.GoStmt:
		return &tree.Go{Span: spanOf(s), Call: c.expr(s.Call)}
	case *ast.DeferStmt:
		return &tree.Defer{Span: spanOf(s), Call: c.expr(s.Call)}
	case *ast.ReturnStmt:
		return &tree.Return{Span: spanOf(s), Results: c.exprs(s.Results)}
	case *ast.BranchStmt:
		out := &tree.Branch{Span: spanOf(s), Tok: s.Tok}
		if s.Label != nil {
			out.Label = s.Label.Name
			if s.Tok == token.GOTO && c.fn != nil {
				c.fn.GotoTargets[out.Label] = true
			}
		}
		return out
	case *ast.LabeledStmt:
		inner := c.stmt(s.Stmt)
		switch inner := inner.(type) {
		case *tree.Switch:
			inner.Label = s.Label.Name
		case *tree.Loop:
			inner.Label = s.Label.Name
		}
		return &tree.Labeled{Span: spanOf(s), Label: s.Label.Name, Stmt: inner}
	case *ast.IfStmt:
		return &tree.If{
			Span: spanOf(s),
			Init: c.stmt(s.Init),
			Cond: c.expr(s.Cond),
			Then: c.block(s.Body),
			Else: c.stmt(s.Else),
		}
	case *ast.SwitchStmt:
		out := &tree.Switch{Span: spanOf(s), Init: c.stmt(s.Init), Tag: c.expr(s.Tag)}
		for _, cc := range s.Body.List {
			cl := cc.(*ast.CaseClause)
			out.Clauses = append(out.Clauses, c.clause(spanOf(cl), c.exprs(cl.List), cl.List == nil, cl.Body))
		}
		return out
	case *ast.TypeSwitchStmt:
		out := &tree.Switch{Span: spanOf(s), Init: c.stmt(s.Init), Opaque: true, Tag: c.typeSwitchTag(s.Assign)}
		for _, cc := range s.Body.List {
			cl := cc.(*ast.CaseClause)
			out.Clauses = append(out.Clauses, c.clause(spanOf(cl), nil, cl.List == nil, cl.Body))
		}
		return out
	case *ast.SelectStmt:
		out := &tree.Switch{Span: spanOf(s), Opaque: true}
		for _, cc := range s.Body.List {
			cl := cc.(*ast.CommClause)
			body := cl.Body
			if cl.Comm != nil {
				body = append([]ast.Stmt{cl.Comm}, body...)
			}
			out.Clauses = append(out.Clauses, c.clause(spanOf(cl), nil, cl.Comm == nil, body))
		}
		return out
	case *ast.ForStmt:
		return &tree.Loop{
			Span: spanOf(s),
			Init: c.stmt(s.Init),
			Cond: c.expr(s.Cond),
			Post: c.stmt(s.Post),
			Body: c.block(s.Body),
		}
	case *ast.RangeStmt:
		return &tree.Loop{Span: spanOf(s), Range: c.expr(s.X), Body: c.block(s.Body)}
	case *ast.SendStmt:
		return &tree.ExprStmt{Span: spanOf(s), X: &tree.Other{Span: spanOf(s), Kids: c.exprs([]ast.Expr{s.Chan, s.Value})}}
	}
	return nil
}

func (c *converter) clause(span tree.Span, exprs []tree.Expr, isDefault bool, body []ast.Stmt) *tree.Clause {
	cl := &tree.Clause{Span: span, Exprs: exprs, Default: isDefault}
	if n := len(body); n > 0 {
		if br, ok := body[n-1].(*ast.BranchStmt); ok && br.Tok == token.FALLTHROUGH {
			cl.Fallthrough = true
			body = body[:n-1]
		}
	}
	cl.Body = c.stmts(body)
	return cl
}

func (c *converter) typeSwitchTag(assign ast.Stmt) tree.Expr {
	var x ast.Expr
	switch s := assign.(type) {
	case *ast.AssignStmt:
		if len(s.Rhs) == 1 {
			x = s.Rhs[0]
		}
	case *ast.ExprStmt:
		x = s.X
	}
	if ta, ok := astutil.Unparen(x).(*ast.TypeAssertExpr); ok {
		return c.expr(ta.X)
	}
	return c.expr(x)
}

func (c *converter) declStmt(s *ast.DeclStmt) tree.Stmt {
	gen, ok := s.Decl.(*ast.GenDecl)
	if !ok || (gen.Tok != token.VAR && gen.Tok != token.CONST) {
		return nil
	}
	var lets []tree.Stmt
	for _, spec := range gen.Specs {
		lets = append(lets, c.valueSpec(spec.(*ast.ValueSpec)))
	}
	if len(lets) == 1 {
		return lets[0]
	}
	return &tree.Block{Span: spanOf(s), List: lets}
}

// valueSpec converts a var or const spec. Immutable bindings keep their
// initializer so conditions can be classified through them.
func (c *converter) valueSpec(vs *ast.ValueSpec) *tree.Let {
	let := &tree.Let{Span: spanOf(vs), Values: c.exprs(vs.Values)}
	if vs.Type != nil {
		let.Type = &tree.Other{Span: spanOf(vs.Type), Kids: c.typeRefs(vs.Type)}
	}
	for i, name := range vs.Names {
		sym := c.symFor(c.info.Defs[name])
		let.Syms = append(let.Syms, sym)
		if sym != nil && sym.Kind != tree.SymConst && !sym.Mutable && len(vs.Values) == len(vs.Names) {
			sym.Init = let.Values[i]
		}
	}
	return let
}

func (c *converter) assign(s *ast.AssignStmt) tree.Stmt {
	rhs := c.exprs(s.Rhs)
	if s.Tok != token.DEFINE {
		return &tree.Assign{Span: spanOf(s), Lhs: c.exprs(s.Lhs), Rhs: rhs}
	}
	let := &tree.Let{Span: spanOf(s), Values: rhs}
	for i, lhs := range s.Lhs {
		var sym *tree.Symbol
		if id, ok := lhs.(*ast.Ident); ok {
			sym = c.symFor(c.info.Defs[id])
		}
		let.Syms = append(let.Syms, sym)
		if sym != nil && !sym.Mutable && len(s.Lhs) == len(s.Rhs) {
			sym.Init = rhs[i]
		}
	}
	return let
}

// expressions

func (c *converter) exprs(list []ast.Expr) []tree.Expr {
	if len(list) == 0 {
		return nil
	}
	out := make([]tree.Expr, 0, len(list))
	for _, e := range list {
		out = append(out, c.expr(e))
	}
	return out
}

func (c *converter) expr(e ast.Expr) tree.Expr {
	if e == nil {
		return nil
	}
	if tv, ok := c.info.Types[e]; ok && tv.Value != nil {
		return literalOf(tv.Value, spanOf(e))
	}

	span := spanOf(e)
	switch e := e.(type) {
	case *ast.ParenExpr:
		return c.expr(e.X)
	case *ast.Ident:
		return c.ident(e)
	case *ast.BasicLit:
		lit := &tree.Literal{Span: span, Text: e.Value}
		if e.Kind == token.INT {
			if n, err := strconv.ParseInt(e.Value, 0, 64); err == nil {
				lit.Kind = tree.LitInt
				lit.Int = n
			}
		}
		return lit
	case *ast.SelectorExpr:
		return c.selector(e)
	case *ast.CallExpr:
		return c.call(e)
	case *ast.BinaryExpr:
		return &tree.Binary{Span: span, Op: binaryOp(e.Op), X: c.expr(e.X), Y: c.expr(e.Y)}
	case *ast.UnaryExpr:
		op := tree.UnaryOther
		if e.Op == token.NOT {
			op = tree.UnaryNot
		}
		return &tree.Unary{Span: span, Op: op, X: c.expr(e.X)}
	case *ast.FuncLit:
		fn := &tree.Func{Span: span, Outer: c.fn}
		c.funcBody(fn, e.Type, nil, e.Body)
		return &tree.FuncLit{Span: span, Func: fn}
	case *ast.StarExpr:
		return &tree.Other{Span: span, Kids: c.exprs([]ast.Expr{e.X})}
	case *ast.IndexExpr:
		return &tree.Other{Span: span, Kids: c.exprs([]ast.Expr{e.X, e.Index})}
	case *ast.IndexListExpr:
		return &tree.Other{Span: span, Kids: c.exprs([]ast.Expr{e.X})}
	case *ast.SliceExpr:
		kids := []ast.Expr{e.X}
		for _, x := range []ast.Expr{e.Low, e.High, e.Max} {
			if x != nil {
				kids = append(kids, x)
			}
		}
		return &tree.Other{Span: span, Kids: c.exprs(kids)}
	case *ast.TypeAssertExpr:
		return &tree.Other{Span: span, Kids: c.exprs([]ast.Expr{e.X})}
	case *ast.CompositeLit:
		return &tree.Other{Span: span, Kids: append(c.typeRefs(e.Type), c.exprs(e.Elts)...)}
	case *ast.KeyValueExpr:
		return &tree.Other{Span: span, Kids: c.exprs([]ast.Expr{e.Value})}
	}
	return &tree.Other{Span: span}
}

// typeRefs converts the declared types a type expression names, so that
// requirements on them are checked where values are built or declared.
func (c *converter) typeRefs(typ ast.Expr) []tree.Expr {
	switch t := astutil.Unparen(typ).(type) {
	case *ast.Ident:
		if obj := c.info.Uses[t]; obj != nil && obj.Pkg() == nil {
			return nil
		}
		return []tree.Expr{c.expr(t)}
	case *ast.SelectorExpr:
		out := c.expr(t)
		if ref, ok := out.(*tree.Ref); ok && ref.Sym != nil && ref.Sym.Kind == tree.SymUnknown {
			ref.Sym.Kind = tree.SymType
		}
		return []tree.Expr{out}
	case *ast.StarExpr:
		return c.typeRefs(t.X)
	case *ast.ArrayType:
		return c.typeRefs(t.Elt)
	case *ast.Ellipsis:
		return c.typeRefs(t.Elt)
	case *ast.ChanType:
		return c.typeRefs(t.Value)
	case *ast.MapType:
		return append(c.typeRefs(t.Key), c.typeRefs(t.Value)...)
	case *ast.IndexExpr:
		return append(c.typeRefs(t.X), c.typeRefs(t.Index)...)
	case *ast.IndexListExpr:
		out := c.typeRefs(t.X)
		for _, x := range t.Indices {
			out = append(out, c.typeRefs(x)...)
		}
		return out
	}
	return nil
}

func (c *converter) ident(id *ast.Ident) tree.Expr {
	ref := &tree.Ref{Span: spanOf(id), Name: id.Name, Text: id.Name}
	obj := c.info.Uses[id]
	if obj == nil {
		obj = c.info.Defs[id]
	}
	if k, ok := obj.(*types.Const); ok {
		return literalOf(k.Val(), ref.Span)
	}
	ref.Sym = c.symFor(obj)
	return ref
}

func (c *converter) selector(sel *ast.SelectorExpr) tree.Expr {
	ref := &tree.Ref{Span: spanOf(sel), Name: sel.Sel.Name}
	if x, ok := sel.X.(*ast.Ident); ok {
		if importPath, ok := c.importPath(x); ok {
			ref.Text = x.Name + "." + sel.Sel.Name
			if obj := c.info.Uses[sel.Sel]; obj != nil {
				ref.Sym = c.symFor(obj)
			} else {
				ref.Sym = c.external(importPath, sel.Sel.Name)
			}
			return ref
		}
	}

	ref.X = c.expr(sel.X)
	if x, ok := ref.X.(*tree.Ref); ok && x.Text != "" {
		ref.Text = x.Text + "." + ref.Name
	}
	obj := c.info.Uses[sel.Sel]
	if obj == nil {
		if typ, ok := c.importedTypes[c.receiverObject(sel.X)]; ok {
			ref.Sym = c.unresolved(typ+"."+sel.Sel.Name, sel.Sel.Name)
			if ref.Sym.Kind == tree.SymUnknown {
				ref.Sym.Kind = tree.SymMethod
			}
			return ref
		}
	}
	ref.Sym = c.symFor(obj)
	return ref
}

func (c *converter) importPath(x *ast.Ident) (string, bool) {
	switch obj := c.info.Uses[x].(type) {
	case *types.PkgName:
		return obj.Imported().Path(), true
	case nil:
		p, ok := c.imports[x.Name]
		return p, ok
	}
	return "", false
}

func (c *converter) call(call *ast.CallExpr) tree.Expr {
	span := spanOf(call)
	if tv, ok := c.info.Types[call.Fun]; ok && tv.IsType() {
		return &tree.Other{Span: span, Kids: c.exprs(call.Args), Conversion: len(call.Args) == 1}
	}

	out := &tree.Call{Span: span, Fun: c.expr(call.Fun), Args: c.exprs(call.Args)}
	if ref, ok := out.Fun.(*tree.Ref); ok {
		out.Callee = ref.Sym
	}
	out.NoReturn = c.neverReturns(out.Callee)
	return out
}

func (c *converter) neverReturns(callee *tree.Symbol) bool {
	if callee == nil {
		return false
	}
	if callee.Annotations.NoReturn || c.noReturn[callee.ID] {
		return true
	}
	_, ok := branch.Lookup(callee.ID)
	return ok
}

func binaryOp(tok token.Token) tree.BinaryOp {
	switch tok {
	case token.LAND:
		return tree.OpLAnd
	case token.LOR:
		return tree.OpLOr
	case token.EQL:
		return tree.OpEq
	case token.NEQ:
		return tree.OpNe
	case token.LSS:
		return tree.OpLt
	case token.LEQ:
		return tree.OpLe
	case token.GTR:
		return tree.OpGt
	case token.GEQ:
		return tree.OpGe
	}
	return tree.OpOther
}
