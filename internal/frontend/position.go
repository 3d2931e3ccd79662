package frontend

import (
	"go/ast"
	"go/token"
	"path/filepath"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/gnoswap-labs/apigate/internal/tree"
)

// EnclosingCalls returns the call expressions of file that enclose pos,
// innermost first.
func EnclosingCalls(file *ast.File, pos token.Pos) []*ast.CallExpr {
	path, _ := astutil.PathEnclosingInterval(file, pos, pos)
	var out []*ast.CallExpr
	for _, n := range path {
		if call, ok := n.(*ast.CallExpr); ok {
			out = append(out, call)
		}
	}
	return out
}

// CallsAt returns the converted calls on a line of filename. With col > 0
// only the calls enclosing that column are returned, innermost first;
// otherwise every call starting on the line, in source order.
func CallsAt(pkg *tree.Package, filename string, line, col int) []*tree.Call {
	file := FindFile(pkg, filename)
	if file == nil {
		return nil
	}
	calls := FileCalls(file)

	if col <= 0 {
		var out []*tree.Call
		for _, call := range calls {
			if pkg.Fset.Position(call.Pos()).Line == line {
				out = append(out, call)
			}
		}
		return out
	}

	tf := pkg.Fset.File(file.AST.Pos())
	if tf == nil || line < 1 || line > tf.LineCount() {
		return nil
	}
	pos := tf.LineStart(line) + token.Pos(col-1)
	if int(pos) >= tf.Base()+tf.Size() {
		return nil
	}

	bySpan := make(map[tree.Span]*tree.Call, len(calls))
	for _, call := range calls {
		bySpan[call.Span] = call
	}
	var out []*tree.Call
	for _, expr := range EnclosingCalls(file.AST, pos) {
		if call, ok := bySpan[tree.Span{From: expr.Pos(), To: expr.End()}]; ok {
			out = append(out, call)
		}
	}
	return out
}

// FileCalls returns every call of a converted file, including those in
// package-level initializers and function literals.
func FileCalls(file *tree.File) []*tree.Call {
	var out []*tree.Call
	for _, let := range file.Vars {
		out = append(out, tree.Calls(let)...)
	}
	for _, fn := range file.Funcs {
		if fn.Body != nil {
			out = append(out, tree.Calls(fn.Body)...)
		}
	}
	return out
}

// FindFile returns the converted file named filename, falling back to a
// base-name match.
func FindFile(pkg *tree.Package, filename string) *tree.File {
	for _, f := range pkg.Files {
		if SameFile(f.Name, filename) {
			return f
		}
	}
	base := filepath.Base(filename)
	for _, f := range pkg.Files {
		if filepath.Base(f.Name) == base {
			return f
		}
	}
	return nil
}
