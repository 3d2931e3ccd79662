// Package frontend turns Go source into the analysis tree. Packages are
// type-checked against empty stub imports, so identifiers from other
// packages resolve syntactically to "importpath.Name" symbols.
package frontend

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/mod/modfile"

	"github.com/gnoswap-labs/apigate/internal/tree"
)

// Options configures conversion.
type Options struct {
	// PkgPath overrides the import path derived from the enclosing go.mod.
	PkgPath string
	// NoReturn lists ids of functions that never return, in addition to
	// the built-in ones and //apigate:noreturn directives.
	NoReturn []string
	Logger   *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// LoadFile parses filename together with the other files of its package
// in the same directory and converts them. Test files are included only
// when filename is itself a test file. Unparsable sibling files are
// skipped.
func LoadFile(filename string, opts Options) (*tree.Package, error) {
	fset := token.NewFileSet()
	target, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	dir := filepath.Dir(filename)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read package directory: %w", err)
	}

	withTests := strings.HasSuffix(filename, "_test.go")
	files := []*ast.File{target}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") {
			continue
		}
		if !withTests && strings.HasSuffix(name, "_test.go") {
			continue
		}
		sibling := filepath.Join(dir, name)
		if SameFile(sibling, filename) {
			continue
		}
		f, err := parser.ParseFile(fset, sibling, nil, parser.ParseComments)
		if err != nil {
			opts.logger().Debug("skipping unparsable file", zap.String("file", sibling), zap.Error(err))
			continue
		}
		if f.Name.Name == target.Name.Name {
			files = append(files, f)
		}
	}

	if opts.PkgPath == "" {
		opts.PkgPath = packagePath(dir, target.Name.Name)
	}
	return Build(fset, files, opts)
}

// LoadSource converts a single file. src may be nil, a string or a byte
// slice, as accepted by parser.ParseFile.
func LoadSource(filename string, src any, opts Options) (*tree.Package, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	if opts.PkgPath == "" {
		opts.PkgPath = f.Name.Name
	}
	return Build(fset, []*ast.File{f}, opts)
}

// Build type-checks files and converts them.
func Build(fset *token.FileSet, files []*ast.File, opts Options) (*tree.Package, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to convert")
	}
	pkgPath := opts.PkgPath
	if pkgPath == "" {
		pkgPath = files[0].Name.Name
	}
	pkg, info := Check(fset, pkgPath, files)
	return Convert(fset, files, pkg, info, opts)
}

// Check type-checks files with stub imports. Type errors are dropped;
// whatever the checker could resolve is recorded in the returned info.
func Check(fset *token.FileSet, pkgPath string, files []*ast.File) (*types.Package, *types.Info) {
	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
	}
	conf := types.Config{
		Importer:    make(stubImporter),
		FakeImportC: true,
		Error:       func(error) {},
	}
	pkg, _ := conf.Check(pkgPath, fset, files, info)
	return pkg, info
}

// stubImporter hands out empty, complete packages.
type stubImporter map[string]*types.Package

func (s stubImporter) Import(importPath string) (*types.Package, error) {
	if pkg, ok := s[importPath]; ok {
		return pkg, nil
	}
	pkg := types.NewPackage(importPath, guessName(importPath))
	pkg.MarkComplete()
	s[importPath] = pkg
	return pkg, nil
}

// guessName derives the package name most import paths imply:
// "gopkg.in/yaml.v3" is yaml, "github.com/x/go-version" is version and
// "example.com/mod/v2" is mod.
func guessName(importPath string) string {
	elems := strings.Split(importPath, "/")
	name := elems[len(elems)-1]
	if len(elems) > 1 && isMajorSuffix(name) {
		name = elems[len(elems)-2]
	}
	if i := strings.Index(name, ".v"); i > 0 {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "go-")
	name = strings.TrimSuffix(name, "-go")
	return strings.NewReplacer("-", "_", ".", "_").Replace(name)
}

func isMajorSuffix(elem string) bool {
	if len(elem) < 2 || elem[0] != 'v' {
		return false
	}
	for _, r := range elem[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// packagePath derives the import path of dir from the nearest go.mod,
// falling back to the package name.
func packagePath(dir, name string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return name
	}
	for d := abs; ; {
		data, err := os.ReadFile(filepath.Join(d, "go.mod"))
		if err == nil {
			mod := modfile.ModulePath(data)
			if mod == "" {
				return name
			}
			rel, err := filepath.Rel(d, abs)
			if err != nil || rel == "." {
				return mod
			}
			return path.Join(mod, filepath.ToSlash(rel))
		}
		parent := filepath.Dir(d)
		if parent == d {
			return name
		}
		d = parent
	}
}

// SameFile reports whether two paths name the same file.
func SameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
