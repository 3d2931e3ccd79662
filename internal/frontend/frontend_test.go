package frontend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/apigate/internal/apilevel"
	"github.com/gnoswap-labs/apigate/internal/tree"
)

const fixture = `package fixture

import (
	"os"

	"example.com/android/os/build"
	"example.com/app/fatal"
)

const level = 24

var debug = false

var Exported = 1

//apigate:requires api >= 26
type Camera struct{}

//apigate:requires api >= 28
func (c *Camera) Open() {}

//apigate:checks api=33
func isAtLeastT() bool { return build.SDK_INT >= 33 }

//apigate:noreturn
func die() { os.Exit(1) }

func body(n int) {
	x := 1
	x = 2
	y := build.SDK_INT
	if y >= level && !debug {
		die()
	}
	switch n {
	case 1:
		fallthrough
	case 2:
		panic("two")
	}
	fatal.Die()
	_ = x
}
`

func loadFixture(t *testing.T) *tree.Package {
	t.Helper()
	pkg, err := LoadSource("fixture.go", fixture, Options{NoReturn: []string{"example.com/app/fatal.Die"}})
	require.NoError(t, err)
	return pkg
}

func TestConvertSymbols(t *testing.T) {
	t.Parallel()
	pkg := loadFixture(t)

	open := pkg.Lookup("fixture.Camera.Open")
	require.NotNil(t, open)
	assert.Equal(t, tree.SymMethod, open.Kind)
	req, ok := open.Annotations.Requirement()
	require.True(t, ok)
	assert.Len(t, open.Annotations.Requires, 2)
	assert.True(t, req.Equal(apilevel.SetOf(apilevel.AtLeast(apilevel.Platform, apilevel.Level(28)))))

	check := pkg.Lookup("fixture.isAtLeastT")
	require.NotNil(t, check)
	require.NotNil(t, check.Annotations.Check)
	assert.Equal(t, apilevel.Level(33), *check.Annotations.Check.Version)
	require.NotNil(t, check.Decl)
	assert.Len(t, check.Decl.Body.List, 1)

	die := pkg.Lookup("fixture.die")
	require.NotNil(t, die)
	assert.True(t, die.Annotations.NoReturn)

	exported := pkg.Lookup("fixture.Exported")
	require.NotNil(t, exported)
	assert.True(t, exported.Mutable)

	debug := pkg.Lookup("fixture.debug")
	require.NotNil(t, debug)
	assert.True(t, debug.Inlinable())
	lit, ok := debug.Init.(*tree.Literal)
	require.True(t, ok)
	assert.Equal(t, tree.LitBool, lit.Kind)
	assert.False(t, lit.Bool)
}

func TestConvertBody(t *testing.T) {
	t.Parallel()
	pkg := loadFixture(t)

	fn := pkg.Lookup("fixture.body").Decl
	require.NotNil(t, fn)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, tree.SymParam, fn.Params[0].Kind)
	assert.Equal(t, 0, fn.Params[0].Index)

	list := fn.Body.List
	require.Len(t, list, 7)

	x := list[0].(*tree.Let).Syms[0]
	assert.True(t, x.Mutable)
	assert.False(t, x.Inlinable())

	y := list[2].(*tree.Let).Syms[0]
	assert.True(t, y.Inlinable())
	init, ok := y.Init.(*tree.Ref)
	require.True(t, ok)
	assert.Equal(t, "build.SDK_INT", init.Text)
	require.NotNil(t, init.Sym)
	assert.Equal(t, "example.com/android/os/build.SDK_INT", init.Sym.ID)

	ifStmt := list[3].(*tree.If)
	cond, ok := ifStmt.Cond.(*tree.Binary)
	require.True(t, ok)
	assert.Equal(t, tree.OpLAnd, cond.Op)
	cmp := cond.X.(*tree.Binary)
	assert.Equal(t, tree.OpGe, cmp.Op)
	assert.Equal(t, &tree.Literal{Span: cmp.Y.(*tree.Literal).Span, Kind: tree.LitInt, Int: 24, Text: "24"}, cmp.Y)
	not := cond.Y.(*tree.Unary)
	assert.Equal(t, tree.UnaryNot, not.Op)

	call := ifStmt.Then.List[0].(*tree.ExprStmt).X.(*tree.Call)
	assert.True(t, call.NoReturn)
	assert.Equal(t, "die", call.CalleeName())

	sw := list[4].(*tree.Switch)
	require.Len(t, sw.Clauses, 2)
	assert.True(t, sw.Clauses[0].Fallthrough)
	assert.Empty(t, sw.Clauses[0].Body)
	panicCall := sw.Clauses[1].Body[0].(*tree.ExprStmt).X.(*tree.Call)
	assert.True(t, panicCall.NoReturn)
	assert.Equal(t, "panic", panicCall.Callee.ID)

	fatal := list[5].(*tree.ExprStmt).X.(*tree.Call)
	assert.True(t, fatal.NoReturn)
	assert.Equal(t, "example.com/app/fatal.Die", fatal.Callee.ID)
}

func TestConvertFuncLit(t *testing.T) {
	t.Parallel()
	src := `package lit

func run(fn func()) { fn() }

func outer() {
	run(func() {
		goto done
	done:
	})
}
`
	pkg, err := LoadSource("lit.go", src, Options{})
	require.NoError(t, err)

	run := pkg.Lookup("lit.run").Decl
	call := run.Body.List[0].(*tree.ExprStmt).X.(*tree.Call)
	assert.Same(t, run.Params[0], call.Callee)

	outer := pkg.Lookup("lit.outer").Decl
	arg := outer.Body.List[0].(*tree.ExprStmt).X.(*tree.Call).Args[0].(*tree.FuncLit)
	assert.Same(t, outer, arg.Func.Outer)
	assert.Same(t, outer, arg.Func.Root())
	assert.True(t, arg.Func.GotoTargets["done"])
	assert.Empty(t, outer.GotoTargets)
}

func TestDirectiveErrors(t *testing.T) {
	t.Parallel()
	src := `package bad

//apigate:requires api >=
func a() {}

//apigate:checks flavor=1
func b() {}

//apigate:sometimes
func c() {}
`
	pkg, err := LoadSource("bad.go", src, Options{})
	require.Error(t, err)
	require.NotNil(t, pkg)
	assert.Contains(t, err.Error(), "invalid requires directive")
	assert.Contains(t, err.Error(), "invalid checks directive")
	assert.Contains(t, err.Error(), `unknown directive "sometimes"`)

	require.Len(t, pkg.Problems, 3)
	lines := make([]int, 0, len(pkg.Problems))
	for _, p := range pkg.Problems {
		lines = append(lines, pkg.Fset.Position(p.Pos()).Line)
	}
	assert.Equal(t, []int{4, 7, 10}, lines)
	assert.Contains(t, pkg.Problems[0].Message, "invalid requires directive")
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dir := filepath.Join(root, "camera")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/app\n\ngo 1.22\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package camera\n\nfunc A() { helper() }\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("package camera\n\nfunc helper() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.go"), []byte("package camera\n\nfunc {"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_test.go"), []byte("package camera\n\nfunc helper() {}\n"), 0o644))

	pkg, err := LoadFile(filepath.Join(dir, "a.go"), Options{})
	require.NoError(t, err)
	assert.Equal(t, "example.com/app/camera", pkg.Path)
	assert.Len(t, pkg.Files, 2)

	a := pkg.Lookup("example.com/app/camera.A").Decl
	call := a.Body.List[0].(*tree.ExprStmt).X.(*tree.Call)
	require.NotNil(t, call.Callee)
	require.NotNil(t, call.Callee.Decl)
	assert.Equal(t, "helper", call.Callee.Decl.Name())

	_, err = LoadFile(filepath.Join(dir, "broken.go"), Options{})
	assert.Error(t, err)
}

func TestCallsAt(t *testing.T) {
	t.Parallel()
	src := `package at

func f(int) int { return 0 }

func g() {
	f(f(1))
}
`
	pkg, err := LoadSource("at.go", src, Options{})
	require.NoError(t, err)

	assert.Len(t, CallsAt(pkg, "at.go", 6, 0), 2)
	inner := CallsAt(pkg, "at.go", 6, 5)
	require.Len(t, inner, 2)
	assert.Equal(t, "1", inner[0].Args[0].(*tree.Literal).Text)
	assert.Empty(t, CallsAt(pkg, "at.go", 3, 0))
	assert.Nil(t, CallsAt(pkg, "other.go", 6, 0))
}

func TestGuessName(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"os":                              "os",
		"gopkg.in/yaml.v3":                "yaml",
		"github.com/hashicorp/go-version": "version",
		"example.com/mod/v2":              "mod",
		"github.com/tliron/glsp-go":       "glsp",
		"example.com/some-pkg":            "some_pkg",
	}
	for in, want := range tests {
		assert.Equal(t, want, guessName(in), in)
	}
}

func TestImportedReceiverTypes(t *testing.T) {
	t.Parallel()
	src := `package recv

import (
	"testing"

	"example.com/platform/camera"
)

type suite struct{ cam *camera.Camera }

func run(t *testing.T, s suite) {
	t.Skipf("skip %d", 1)
	s.cam.Close()
	var cfg camera.Config
	_ = &camera.Options{}
	_ = cfg
}
`
	pkg, err := LoadSource("recv.go", src, Options{})
	require.NoError(t, err)

	calls := tree.Calls(pkg.Lookup("recv.run").Decl.Body)
	require.Len(t, calls, 2)
	require.NotNil(t, calls[0].Callee)
	assert.Equal(t, "testing.T.Skipf", calls[0].Callee.ID)
	assert.Equal(t, tree.SymMethod, calls[0].Callee.Kind)
	assert.True(t, calls[0].NoReturn)
	require.NotNil(t, calls[1].Callee)
	assert.Equal(t, "example.com/platform/camera.Camera.Close", calls[1].Callee.ID)
	assert.False(t, calls[1].NoReturn)

	for _, id := range []string{"example.com/platform/camera.Config", "example.com/platform/camera.Options"} {
		sym := pkg.Lookup(id)
		require.NotNil(t, sym, id)
		assert.Equal(t, tree.SymType, sym.Kind, id)
	}
}
